package preview

import (
	"errors"
	"sync"
)

// ErrNoDocument is returned when no preview document is currently loaded.
var ErrNoDocument = errors.New("no preview document loaded")

// Surface holds the currently loaded preview document. At most one document
// is live at a time; loading a new one retires the previous one.
type Surface struct {
	mu           sync.Mutex
	current      *Document
	onLoaded     []func(*Document)
	onStructural []func()
}

func NewSurface() *Surface {
	return &Surface{}
}

// Current returns the live document, or nil.
func (s *Surface) Current() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnLoaded registers fn to run every time a document finishes (re)loading.
func (s *Surface) OnLoaded(fn func(*Document)) {
	s.mu.Lock()
	s.onLoaded = append(s.onLoaded, fn)
	s.mu.Unlock()
}

// OnStructuralChange registers fn to run whenever the editor reports a
// structural change.
func (s *Surface) OnStructuralChange(fn func()) {
	s.mu.Lock()
	s.onStructural = append(s.onStructural, fn)
	s.mu.Unlock()
}

// Load makes doc the live document and fires the loaded signal. Loading the
// live document again only re-fires the signal. A closed document is never
// loaded; Load reports false for it.
func (s *Surface) Load(doc *Document) bool {
	if doc == nil || doc.Closed() {
		return false
	}
	s.mu.Lock()
	prev := s.current
	s.current = doc
	callbacks := append([]func(*Document){}, s.onLoaded...)
	s.mu.Unlock()

	if prev != nil && prev != doc {
		prev.Close()
	}
	for _, fn := range callbacks {
		fn(doc)
	}
	return true
}

// Unload retires doc. It is a no-op for the live slot when doc has already
// been replaced.
func (s *Surface) Unload(doc *Document) {
	if doc == nil {
		return
	}
	s.mu.Lock()
	if s.current == doc {
		s.current = nil
	}
	s.mu.Unlock()
	doc.Close()
}

// SignalStructuralChange fires the structural change signal.
func (s *Surface) SignalStructuralChange() {
	s.mu.Lock()
	callbacks := append([]func(){}, s.onStructural...)
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

// Resolve returns the output region of a widget in the live document.
func (s *Surface) Resolve(widgetID string) (*Region, bool) {
	doc := s.Current()
	if doc == nil || !doc.HasWidget(widgetID) {
		return nil, false
	}
	return &Region{doc: doc, widgetID: widgetID}, true
}

// Apply patches the live document.
func (s *Surface) Apply(ops ...Op) error {
	doc := s.Current()
	if doc == nil {
		return ErrNoDocument
	}
	return doc.Apply(ops...)
}

// Close retires the live document.
func (s *Surface) Close() {
	s.mu.Lock()
	doc := s.current
	s.current = nil
	s.mu.Unlock()
	if doc != nil {
		doc.Close()
	}
}
