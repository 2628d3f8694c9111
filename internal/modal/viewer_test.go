package modal

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/preview"
	"github.com/Conversly/design-assistant/internal/render"
)

type recordingSink struct {
	mu  sync.Mutex
	ops []preview.Op
}

func (s *recordingSink) Send(ops []preview.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, ops...)
	return nil
}

func (s *recordingSink) Ops() []preview.Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]preview.Op(nil), s.ops...)
}

type fakeClipboard struct {
	mu     sync.Mutex
	writes []string
	err    error
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.writes = append(c.writes, text)
	return nil
}

func setup(t *testing.T) (*Viewer, *conversation.Store, *recordingSink, *fakeClipboard) {
	t.Helper()
	store := conversation.NewStore()
	surface := preview.NewSurface()
	sink := &recordingSink{}
	surface.Load(preview.NewDocument(sink, []string{"w1"}))
	cb := &fakeClipboard{}
	return NewViewer(store, surface, cb), store, sink, cb
}

func overlayText(t *testing.T, op preview.Op) string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(op.HTML))
	require.NoError(t, err)
	return doc.Find(".eai-modal-text").Text()
}

func seed(store *conversation.Store, widgetID string, turns ...string) {
	store.StartConversation(widgetID, turns[0])
	for i, text := range turns[1:] {
		if i%2 == 0 {
			_, _ = store.AppendModelTurn(widgetID, text)
		} else {
			_, _ = store.AppendUserTurn(widgetID, text)
		}
	}
}

func TestOpenShowsLastModelTurn(t *testing.T) {
	v, store, sink, _ := setup(t)
	seed(store, "w1", "A", "B", "C", "D")

	opened, err := v.Open("w1")
	require.NoError(t, err)
	require.True(t, opened)
	require.Equal(t, "D", v.Text())

	ops := sink.Ops()
	require.Len(t, ops, 1)
	require.Equal(t, preview.OpAppend, ops[0].Kind)
	require.Equal(t, "D", overlayText(t, ops[0]))
}

func TestOpenWithoutModelTurnIsNoop(t *testing.T) {
	v, store, sink, _ := setup(t)

	opened, err := v.Open("missing")
	require.NoError(t, err)
	require.False(t, opened)

	store.StartConversation("w1", "only a prompt")
	opened, err = v.Open("w1")
	require.NoError(t, err)
	require.False(t, opened)
	require.Empty(t, sink.Ops())
}

func TestOpenReplacesExistingOverlay(t *testing.T) {
	v, store, sink, _ := setup(t)
	seed(store, "w1", "A", "B")
	seed(store, "w2", "X", "Y")

	_, err := v.Open("w1")
	require.NoError(t, err)
	_, err = v.Open("w2")
	require.NoError(t, err)

	ops := sink.Ops()
	require.Len(t, ops, 3)
	require.Equal(t, preview.Op{Kind: preview.OpRemove, Target: "#eai-modal"}, ops[1])
	require.Equal(t, "Y", overlayText(t, ops[2]))

	widgetID, open := v.IsOpen()
	require.True(t, open)
	require.Equal(t, "w2", widgetID)
}

func TestHandleClickDismissalRules(t *testing.T) {
	v, store, _, _ := setup(t)
	seed(store, "w1", "A", "B")

	_, err := v.Open("w1")
	require.NoError(t, err)

	for _, inside := range []string{preview.ClassModalContent, "eai-modal-text", "eai-modal-title"} {
		require.NoError(t, v.HandleClick(inside))
		_, open := v.IsOpen()
		require.True(t, open, "click on %s must not close", inside)
	}

	require.NoError(t, v.HandleClick(preview.ClassModal))
	_, open := v.IsOpen()
	require.False(t, open)

	_, err = v.Open("w1")
	require.NoError(t, err)
	require.NoError(t, v.HandleClick(preview.ClassModalClose))
	_, open = v.IsOpen()
	require.False(t, open)
}

func TestCopyConfirmsThenReverts(t *testing.T) {
	v, store, sink, cb := setup(t)
	v.SetConfirmDuration(20 * time.Millisecond)
	seed(store, "w1", "A", "full text")

	_, err := v.Open("w1")
	require.NoError(t, err)
	require.NoError(t, v.HandleClick(preview.ClassModalCopy))
	require.Equal(t, []string{"full text"}, cb.writes)

	label := func() string {
		last := ""
		for _, op := range sink.Ops() {
			if op.Kind == preview.OpSetText {
				last = op.Text
			}
		}
		return last
	}
	require.Equal(t, render.CopiedLabel, label())
	require.Eventually(t, func() bool { return label() == render.CopyLabel }, time.Second, 5*time.Millisecond)
}

func TestCopyFailureKeepsLabel(t *testing.T) {
	v, store, sink, cb := setup(t)
	cb.err = errors.New("no clipboard")
	seed(store, "w1", "A", "B")

	_, err := v.Open("w1")
	require.NoError(t, err)
	require.Error(t, v.Copy())
	for _, op := range sink.Ops() {
		require.NotEqual(t, preview.OpSetText, op.Kind)
	}
}

func TestCloseCancelsPendingRevert(t *testing.T) {
	v, store, sink, _ := setup(t)
	v.SetConfirmDuration(10 * time.Millisecond)
	seed(store, "w1", "A", "B")

	_, err := v.Open("w1")
	require.NoError(t, err)
	require.NoError(t, v.Copy())
	require.NoError(t, v.Close())

	before := len(sink.Ops())
	time.Sleep(40 * time.Millisecond)
	require.Len(t, sink.Ops(), before)
}

func TestSurfaceClipboardSendsOp(t *testing.T) {
	surface := preview.NewSurface()
	sink := &recordingSink{}
	surface.Load(preview.NewDocument(sink, nil))

	require.NoError(t, SurfaceClipboard{Surface: surface}.WriteAll("hello"))
	require.Equal(t, []preview.Op{{Kind: preview.OpClipboard, Text: "hello"}}, sink.Ops())

	require.ErrorIs(t, SurfaceClipboard{Surface: preview.NewSurface()}.WriteAll("x"), preview.ErrNoDocument)
}
