package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/preview"
	"github.com/Conversly/design-assistant/internal/relay"
)

type reply struct {
	text string
	err  error
}

// stubRelay records every call and blocks until the test feeds a reply.
type stubRelay struct {
	mu      sync.Mutex
	calls   []conversation.Conversation
	replies chan reply
	panics  bool
}

func newStubRelay() *stubRelay {
	return &stubRelay{replies: make(chan reply, 16)}
}

func (s *stubRelay) Generate(ctx context.Context, conv conversation.Conversation) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, conv)
	panics := s.panics
	s.mu.Unlock()
	if panics {
		panic("relay exploded")
	}
	select {
	case r := <-s.replies:
		return r.text, r.err
	case <-ctx.Done():
		return "", &relay.TransportError{Err: ctx.Err()}
	}
}

func (s *stubRelay) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubRelay) Call(i int) conversation.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

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

// lastHTML returns the HTML of the most recent op of kind on target.
func (s *recordingSink) lastHTML(kind preview.OpKind, target string) string {
	ops := s.Ops()
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].Kind == kind && ops[i].Target == target {
			return ops[i].HTML
		}
	}
	return ""
}

func (s *recordingSink) notices() []string {
	var out []string
	for _, op := range s.Ops() {
		if op.Kind == preview.OpNotify {
			out = append(out, op.Text)
		}
	}
	return out
}

type fixture struct {
	ctrl    *Controller
	store   *conversation.Store
	surface *preview.Surface
	sink    *recordingSink
	relay   *stubRelay
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:   conversation.NewStore(),
		surface: preview.NewSurface(),
		sink:    &recordingSink{},
		relay:   newStubRelay(),
	}
	f.surface.Load(preview.NewDocument(f.sink, []string{"w1", "w2"}))
	f.ctrl = New(f.store, f.surface, f.relay, opts...)
	t.Cleanup(f.ctrl.Close)
	return f
}

func (f *fixture) answer(t *testing.T, text string, err error) {
	t.Helper()
	f.relay.replies <- reply{text: text, err: err}
	f.ctrl.Wait()
}

func (f *fixture) waitCalls(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.relay.CallCount() == n }, time.Second, 5*time.Millisecond)
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestEmptyPromptNeverReachesStoreOrRelay(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.ctrl.SubmitInitialPrompt("w1", "  \n\t"), conversation.ErrEmptyPrompt)
	require.Equal(t, 0, f.store.Len())

	f.store.StartConversation("w2", "hi")
	require.ErrorIs(t, f.ctrl.SubmitFollowUp("w2", ""), conversation.ErrEmptyPrompt)
	c, _ := f.store.Get("w2")
	require.Len(t, c, 1)

	f.ctrl.Wait()
	require.Equal(t, 0, f.relay.CallCount())
	require.Empty(t, f.sink.Ops())
}

func TestInitialPromptRendersLoadingThenConversation(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "  Hero for a bakery "))
	require.Equal(t, StateAwaiting, f.ctrl.State("w1"))
	loading := f.sink.lastHTML(preview.OpReplace, "#eai-output-w1")
	require.Equal(t, 1, parse(t, loading).Find(".eai-loading").Length())

	f.waitCalls(t, 1)
	require.Equal(t, conversation.Conversation{conversation.UserTurn("Hero for a bakery")}, f.relay.Call(0))

	f.answer(t, "Fresh every morning", nil)
	require.Equal(t, StateIdle, f.ctrl.State("w1"))

	c, ok := f.store.Get("w1")
	require.True(t, ok)
	require.Equal(t, conversation.Conversation{
		conversation.UserTurn("Hero for a bakery"),
		conversation.ModelTurn("Fresh every morning"),
	}, c)

	doc := parse(t, f.sink.lastHTML(preview.OpReplace, "#eai-output-w1"))
	require.Equal(t, 2, doc.Find("#eai-chat-log-w1 .eai-chat-message").Length())
	require.Equal(t, 1, doc.Find(".eai-follow-up-form").Length())

	ops := f.sink.Ops()
	require.Equal(t, preview.Op{Kind: preview.OpScrollEnd, Target: "#eai-chat-log-w1"}, ops[len(ops)-1])
}

func TestFollowUpsAlternateRoles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.answer(t, "r0", nil)

	const n = 3
	for i := 0; i < n; i++ {
		require.NoError(t, f.ctrl.SubmitFollowUp("w1", "more"))
		f.answer(t, "reply", nil)
	}

	c, _ := f.store.Get("w1")
	require.Len(t, c, 2+2*n)
	for i, turn := range c {
		want := conversation.RoleUser
		if i%2 == 1 {
			want = conversation.RoleModel
		}
		require.Equal(t, want, turn.Role)
	}
	// every call carried the whole history
	require.Len(t, f.relay.Call(n), 2*n+1)
}

func TestFollowUpShowsThinkingInline(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.answer(t, "r0", nil)
	before := len(f.sink.Ops())

	require.NoError(t, f.ctrl.SubmitFollowUp("w1", "warmer <tone>"))
	ops := f.sink.Ops()[before:]
	require.Equal(t, preview.Op{Kind: preview.OpSetValue, Target: "#eai-follow-up-input-w1"}, ops[0])
	require.Equal(t, preview.OpAppend, ops[1].Kind)
	require.Equal(t, "#eai-chat-log-w1", ops[1].Target)
	appended := parse(t, ops[1].HTML)
	require.Equal(t, "warmer <tone>", appended.Find(".eai-chat-user .eai-chat-text").Text())
	require.Equal(t, 1, appended.Find("#eai-thinking-w1").Length())
	require.Equal(t, preview.Op{Kind: preview.OpSetDisabled, Target: "#eai-follow-up-submit-w1", Value: "true"}, ops[2])

	for _, op := range ops {
		require.NotEqual(t, preview.OpReplace, op.Kind, "follow-up must not replace the chat log")
	}
	f.answer(t, "r1", nil)
}

func TestFollowUpWithoutConversation(t *testing.T) {
	f := newFixture(t)
	err := f.ctrl.SubmitFollowUp("w1", "hello")
	require.ErrorIs(t, err, conversation.ErrNoActiveConversation)
	require.Equal(t, 0, f.store.Len())
	require.Equal(t, 0, f.relay.CallCount())
}

func TestSingleFlightPerWidget(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.answer(t, "r0", nil)

	require.NoError(t, f.ctrl.SubmitFollowUp("w1", "first"))
	require.ErrorIs(t, f.ctrl.SubmitFollowUp("w1", "second"), ErrRequestInFlight)
	require.ErrorIs(t, f.ctrl.SubmitInitialPrompt("w1", "restart"), ErrRequestInFlight)

	f.waitCalls(t, 2)
	f.answer(t, "r1", nil)
	require.Equal(t, 2, f.relay.CallCount())

	c, _ := f.store.Get("w1")
	require.Equal(t, conversation.Conversation{
		conversation.UserTurn("p0"),
		conversation.ModelTurn("r0"),
		conversation.UserTurn("first"),
		conversation.ModelTurn("r1"),
	}, c)
}

func TestWidgetsAreIndependent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "a"))
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w2", "b"))
	f.waitCalls(t, 2)
	require.Equal(t, StateAwaiting, f.ctrl.State("w1"))
	require.Equal(t, StateAwaiting, f.ctrl.State("w2"))

	f.relay.replies <- reply{text: "one"}
	f.relay.replies <- reply{text: "two"}
	f.ctrl.Wait()

	c1, _ := f.store.Get("w1")
	c2, _ := f.store.Get("w2")
	require.Len(t, c1, 2)
	require.Len(t, c2, 2)
}

func TestRelayFailureKeepsUserTurn(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.answer(t, "r0", nil)

	require.NoError(t, f.ctrl.SubmitFollowUp("w1", "again"))
	f.answer(t, "", &relay.ApplicationError{Message: "Quota exceeded"})
	require.Equal(t, StateError, f.ctrl.State("w1"))

	c, _ := f.store.Get("w1")
	require.Equal(t, conversation.Conversation{
		conversation.UserTurn("p0"),
		conversation.ModelTurn("r0"),
		conversation.UserTurn("again"),
	}, c)

	ops := f.sink.Ops()
	var sawRemove bool
	var errorHTML string
	for _, op := range ops {
		if op.Kind == preview.OpRemove && op.Target == "#eai-thinking-w1" {
			sawRemove = true
		}
		if op.Kind == preview.OpAppend && strings.Contains(op.HTML, "eai-chat-error") {
			errorHTML = op.HTML
		}
	}
	require.True(t, sawRemove)
	require.Contains(t, parse(t, errorHTML).Text(), "Quota exceeded")

	// resubmitting carries the unanswered turn forward
	require.NoError(t, f.ctrl.SubmitFollowUp("w1", "retry"))
	f.waitCalls(t, 3)
	require.Equal(t, []conversation.Role{
		conversation.RoleUser, conversation.RoleModel, conversation.RoleUser, conversation.RoleUser,
	}, roles(f.relay.Call(2)))
	f.answer(t, "r1", nil)
	require.Equal(t, StateIdle, f.ctrl.State("w1"))
}

func TestInitialFailureReplacesLoadingView(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.answer(t, "", &relay.ApplicationError{Message: "Quota exceeded"})

	doc := parse(t, f.sink.lastHTML(preview.OpReplace, "#eai-output-w1"))
	require.Contains(t, doc.Find(".eai-error").Text(), "Quota exceeded")
	require.Equal(t, 0, doc.Find(".eai-loading").Length())

	c, _ := f.store.Get("w1")
	require.Equal(t, conversation.Conversation{conversation.UserTurn("p0")}, c)
}

func TestRelayTimeout(t *testing.T) {
	f := newFixture(t, WithTimeout(20*time.Millisecond))
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.ctrl.Wait()

	require.Equal(t, StateError, f.ctrl.State("w1"))
	doc := parse(t, f.sink.lastHTML(preview.OpReplace, "#eai-output-w1"))
	require.Equal(t, relay.TransportMessage, doc.Find(".eai-error").Text())
}

func TestStaleResponseIsNotRendered(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.surface.Current().SetWidgets([]string{"w2"})
	before := len(f.sink.Ops())

	f.answer(t, "late", nil)
	require.Len(t, f.sink.Ops(), before)

	c, _ := f.store.Get("w1")
	require.Len(t, c, 2)
	require.Equal(t, StateIdle, f.ctrl.State("w1"))
}

func TestResponseAfterReloadGoesToNewDocument(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))

	fresh := &recordingSink{}
	f.surface.Load(preview.NewDocument(fresh, []string{"w1"}))
	f.answer(t, "r0", nil)

	require.NotEmpty(t, fresh.lastHTML(preview.OpReplace, "#eai-output-w1"))
}

func TestPanicBecomesCriticalNotification(t *testing.T) {
	f := newFixture(t)
	f.relay.panics = true

	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.ctrl.Wait()

	require.Equal(t, StateError, f.ctrl.State("w1"))
	require.Equal(t, []string{relay.CriticalMessage}, f.sink.notices())

	f.ctrl.Guard("test", func() { panic(errors.New("handler bug")) })
	require.Len(t, f.sink.notices(), 2)
}

func TestHandleFollowUpNotifiesRejections(t *testing.T) {
	f := newFixture(t)
	f.ctrl.HandleFollowUp("w1", "   ")
	f.ctrl.HandleFollowUp("w1", "no conversation yet")
	require.Equal(t, []string{emptyPromptNotice, relay.CriticalMessage}, f.sink.notices())

	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.ctrl.HandleFollowUp("w1", "too soon")
	require.Equal(t, inFlightNotice, f.sink.notices()[2])
	f.answer(t, "r0", nil)
}

func TestRestoreRedrawsConversationsIntoNewDocument(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.answer(t, "r0", nil)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w2", "q0"))

	fresh := &recordingSink{}
	doc := preview.NewDocument(fresh, []string{"w1", "w2"})
	f.surface.Load(doc)
	f.ctrl.Restore(doc)

	w1 := parse(t, fresh.lastHTML(preview.OpReplace, "#eai-output-w1"))
	require.Equal(t, 2, w1.Find(".eai-chat-message").Length())
	w2 := parse(t, fresh.lastHTML(preview.OpReplace, "#eai-output-w2"))
	require.Equal(t, 1, w2.Find(".eai-loading").Length())

	f.answer(t, "q1", nil)
}

func roles(c conversation.Conversation) []conversation.Role {
	out := make([]conversation.Role, 0, len(c))
	for _, t := range c {
		out = append(out, t.Role)
	}
	return out
}

func TestRestoreKeepsErrorsVisible(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SubmitInitialPrompt("w1", "p0"))
	f.answer(t, "", &relay.ApplicationError{Message: "Quota exceeded"})

	require.NoError(t, f.ctrl.SubmitInitialPrompt("w2", "q0"))
	f.answer(t, "r0", nil)
	require.NoError(t, f.ctrl.SubmitFollowUp("w2", "q1"))
	f.answer(t, "", &relay.ApplicationError{Message: "Rate limited"})

	fresh := &recordingSink{}
	doc := preview.NewDocument(fresh, []string{"w1", "w2"})
	f.surface.Load(doc)
	f.ctrl.Restore(doc)

	w1 := parse(t, fresh.lastHTML(preview.OpReplace, "#eai-output-w1"))
	require.Equal(t, "Quota exceeded", w1.Find(".eai-error").Text())
	require.Equal(t, 0, w1.Find(".eai-follow-up-form").Length())

	w2 := parse(t, fresh.lastHTML(preview.OpReplace, "#eai-output-w2"))
	require.Equal(t, 3, w2.Find(".eai-chat-message").Length())
	inline := parse(t, fresh.lastHTML(preview.OpAppend, "#eai-chat-log-w2"))
	require.Equal(t, "Rate limited", inline.Find(".eai-chat-error").Text())

	require.Equal(t, StateError, f.ctrl.State("w1"))
	require.Equal(t, StateError, f.ctrl.State("w2"))
}
