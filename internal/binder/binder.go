// Package binder keeps exactly one set of delegated listeners attached to
// the live preview document across reloads and structural changes.
package binder

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/preview"
	"github.com/Conversly/design-assistant/internal/utils"
)

// Namespace tags every listener this package binds.
const Namespace = "eai"

const (
	EventFollowUp   = "submit." + Namespace
	EventViewFull   = "click." + Namespace
	EventModalClick = "click." + Namespace + "-modal"
)

// Handlers are the callbacks bound to the preview document.
type Handlers struct {
	FollowUp   func(widgetID, text string)
	ViewFull   func(widgetID string)
	ModalClick func(target string)
}

// subscription is the set of listeners bound to one document.
type subscription struct {
	doc    *preview.Document
	events []string
}

func (s *subscription) dispose() {
	for _, ev := range s.events {
		s.doc.Off(ev)
	}
}

// Binder owns at most one live subscription.
type Binder struct {
	surface  *preview.Surface
	handlers Handlers

	mu      sync.Mutex
	current *subscription
}

func New(surface *preview.Surface, handlers Handlers) *Binder {
	return &Binder{surface: surface, handlers: handlers}
}

// Attach subscribes Rebind to the surface's reload and structural change
// signals.
func (b *Binder) Attach() {
	b.surface.OnLoaded(func(*preview.Document) { b.Rebind() })
	b.surface.OnStructuralChange(b.Rebind)
}

// Rebind disposes the previous subscription and binds a fresh one on the live
// document. Calling it any number of times leaves one listener per event.
func (b *Binder) Rebind() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		b.current.dispose()
		b.current = nil
	}

	doc := b.surface.Current()
	if doc == nil {
		return
	}

	sub := &subscription{doc: doc}
	bind := func(eventNS, selector string, h preview.Handler) {
		// replace, never stack: drop any listener left under the same name
		doc.Off(eventNS)
		doc.On(eventNS, selector, h)
		sub.events = append(sub.events, eventNS)
	}

	if b.handlers.FollowUp != nil {
		bind(EventFollowUp, "."+preview.ClassFollowUpForm, func(ev preview.Event) {
			b.handlers.FollowUp(ev.WidgetID, ev.Value)
		})
	}
	if b.handlers.ViewFull != nil {
		bind(EventViewFull, "."+preview.ClassViewFull, func(ev preview.Event) {
			b.handlers.ViewFull(ev.WidgetID)
		})
	}
	if b.handlers.ModalClick != nil {
		bind(EventModalClick, "."+preview.ClassModal, func(ev preview.Event) {
			b.handlers.ModalClick(ev.Target())
		})
	}

	b.current = sub
	utils.Zlog.Debug("preview listeners bound",
		zap.String("document_id", doc.ID()),
		zap.Int("events", len(sub.events)))
}

// Dispose removes the live subscription.
func (b *Binder) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		b.current.dispose()
		b.current = nil
	}
}
