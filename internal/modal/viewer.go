// Package modal shows the full text of a widget's latest model turn in an
// overlay with a copy control.
package modal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/preview"
	"github.com/Conversly/design-assistant/internal/render"
	"github.com/Conversly/design-assistant/internal/utils"
)

// DefaultConfirmFor is how long the copy control shows its confirmation.
const DefaultConfirmFor = 2 * time.Second

// Source looks up conversations.
type Source interface {
	Get(widgetID string) (conversation.Conversation, bool)
}

// Viewer owns the single overlay slot of an editing session.
type Viewer struct {
	source     Source
	surface    *preview.Surface
	clipboard  Clipboard
	confirmFor time.Duration

	mu       sync.Mutex
	open     bool
	widgetID string
	text     string
	gen      uint64
	revert   *time.Timer
}

func NewViewer(source Source, surface *preview.Surface, cb Clipboard) *Viewer {
	return &Viewer{
		source:     source,
		surface:    surface,
		clipboard:  cb,
		confirmFor: DefaultConfirmFor,
	}
}

// SetConfirmDuration changes how long the copy confirmation stays visible.
func (v *Viewer) SetConfirmDuration(d time.Duration) {
	v.mu.Lock()
	v.confirmFor = d
	v.mu.Unlock()
}

// Open shows the last model turn of the widget. It reports false without
// touching the document when there is nothing to show.
func (v *Viewer) Open(widgetID string) (bool, error) {
	conv, ok := v.source.Get(widgetID)
	if !ok {
		return false, nil
	}
	turn, ok := conv.LastModelTurn()
	if !ok {
		return false, nil
	}

	html, err := render.Modal(turn.Text, render.CopyLabel)
	if err != nil {
		return false, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	ops := make([]preview.Op, 0, 2)
	if v.open {
		ops = append(ops, removeOverlay())
	}
	ops = append(ops, preview.Op{Kind: preview.OpAppend, Target: "body", HTML: html})
	v.resetLocked()
	if err := v.surface.Apply(ops...); err != nil {
		return false, fmt.Errorf("open overlay: %w", err)
	}

	v.open = true
	v.widgetID = widgetID
	v.text = turn.Text
	return true, nil
}

// Close removes the overlay.
func (v *Viewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.open {
		return nil
	}
	v.resetLocked()
	v.open = false
	v.widgetID = ""
	v.text = ""
	if err := v.surface.Apply(removeOverlay()); err != nil && !errors.Is(err, preview.ErrNoDocument) {
		return fmt.Errorf("close overlay: %w", err)
	}
	return nil
}

// HandleClick applies the dismissal rules for a click whose target carries
// the given class: the backdrop and the close control close the overlay,
// the copy control copies, anything else inside the content is ignored.
func (v *Viewer) HandleClick(target string) error {
	switch target {
	case preview.ClassModal, preview.ClassModalClose:
		return v.Close()
	case preview.ClassModalCopy:
		return v.Copy()
	default:
		return nil
	}
}

// Copy copies the displayed text and briefly confirms it on the control.
func (v *Viewer) Copy() error {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return nil
	}
	text := v.text
	v.mu.Unlock()

	if err := v.clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.open {
		return nil
	}
	v.resetLocked()
	gen := v.gen
	if err := v.surface.Apply(setCopyLabel(render.CopiedLabel)); err != nil {
		return fmt.Errorf("confirm copy: %w", err)
	}
	v.revert = time.AfterFunc(v.confirmFor, func() { v.revertLabel(gen) })
	return nil
}

func (v *Viewer) revertLabel(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.open || v.gen != gen {
		return
	}
	v.revert = nil
	if err := v.surface.Apply(setCopyLabel(render.CopyLabel)); err != nil {
		utils.Zlog.Debug("copy label revert skipped", zap.Error(err))
	}
}

// IsOpen reports whether the overlay is showing and for which widget.
func (v *Viewer) IsOpen() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.widgetID, v.open
}

// Text returns the text currently displayed.
func (v *Viewer) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text
}

// Reset forgets the overlay without patching the document. Used when the
// preview reloads and the overlay vanished with it.
func (v *Viewer) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resetLocked()
	v.open = false
	v.widgetID = ""
	v.text = ""
}

func (v *Viewer) resetLocked() {
	v.gen++
	if v.revert != nil {
		v.revert.Stop()
		v.revert = nil
	}
}

func removeOverlay() preview.Op {
	return preview.Op{Kind: preview.OpRemove, Target: "#" + preview.ModalID}
}

func setCopyLabel(label string) preview.Op {
	return preview.Op{Kind: preview.OpSetText, Target: "#" + render.ModalCopyID, Text: label}
}
