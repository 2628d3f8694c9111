package preview

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrDocumentClosed is returned when patching a document that has been unloaded.
var ErrDocumentClosed = errors.New("preview document closed")

// Handler runs for a delegated event.
type Handler func(Event)

type listener struct {
	typ      string
	ns       string
	selector string
	h        Handler
}

// Document is one load of the preview surface. Everything bound to it dies
// with it when the preview reloads.
type Document struct {
	id   string
	sink Sink

	mu        sync.Mutex
	widgets   map[string]struct{}
	listeners []listener
	closed    bool
}

// NewDocument creates a document rendering the given widgets.
func NewDocument(sink Sink, widgetIDs []string) *Document {
	d := &Document{
		id:   uuid.NewString(),
		sink: sink,
	}
	d.SetWidgets(widgetIDs)
	return d
}

func (d *Document) ID() string { return d.id }

// SetWidgets replaces the set of widget output elements present in the document.
func (d *Document) SetWidgets(widgetIDs []string) {
	m := make(map[string]struct{}, len(widgetIDs))
	for _, id := range widgetIDs {
		m[id] = struct{}{}
	}
	d.mu.Lock()
	d.widgets = m
	d.mu.Unlock()
}

// HasWidget reports whether the widget's output element is in the document.
func (d *Document) HasWidget(widgetID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	_, ok := d.widgets[widgetID]
	return ok
}

// splitEvent splits "submit.eai" into ("submit", "eai").
func splitEvent(eventNS string) (string, string) {
	typ, ns, _ := strings.Cut(eventNS, ".")
	return typ, ns
}

// On adds a delegated listener for events of eventNS ("type.namespace")
// whose target is, or is inside, an element matching selector (".class").
func (d *Document) On(eventNS, selector string, h Handler) {
	typ, ns := splitEvent(eventNS)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.listeners = append(d.listeners, listener{
		typ:      typ,
		ns:       ns,
		selector: strings.TrimPrefix(selector, "."),
		h:        h,
	})
}

// Off removes listeners added with the same eventNS. ".ns" removes every
// listener of the namespace. It returns how many were removed.
func (d *Document) Off(eventNS string) int {
	typ, ns := splitEvent(eventNS)
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.listeners[:0]
	removed := 0
	for _, l := range d.listeners {
		if (typ == "" || l.typ == typ) && l.ns == ns {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	for i := len(kept); i < len(d.listeners); i++ {
		d.listeners[i] = listener{}
	}
	d.listeners = kept
	return removed
}

// ListenerCount returns the number of listeners bound for an event type.
func (d *Document) ListenerCount(eventType string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, l := range d.listeners {
		if l.typ == eventType {
			n++
		}
	}
	return n
}

// Dispatch runs every listener matching the event and returns how many ran.
func (d *Document) Dispatch(ev Event) int {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0
	}
	var matched []Handler
	for _, l := range d.listeners {
		if l.typ == ev.Type && ev.Within(l.selector) {
			matched = append(matched, l.h)
		}
	}
	d.mu.Unlock()

	for _, h := range matched {
		h(ev)
	}
	return len(matched)
}

// Apply sends patch operations to the document.
func (d *Document) Apply(ops ...Op) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrDocumentClosed
	}
	if len(ops) == 0 || d.sink == nil {
		return nil
	}
	return d.sink.Send(ops)
}

// Close drops every listener and refuses further patches.
func (d *Document) Close() {
	d.mu.Lock()
	d.closed = true
	d.listeners = nil
	d.mu.Unlock()
}

// Closed reports whether the document has been unloaded.
func (d *Document) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
