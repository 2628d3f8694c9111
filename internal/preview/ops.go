package preview

// OpKind names a DOM patch applied by the preview script.
type OpKind string

const (
	OpReplace     OpKind = "replace"      // replace the inner HTML of Target
	OpAppend      OpKind = "append"       // append HTML as the last child of Target
	OpRemove      OpKind = "remove"       // remove Target
	OpSetValue    OpKind = "set-value"    // set the value of the form control Target
	OpSetText     OpKind = "set-text"     // set the text content of Target
	OpSetDisabled OpKind = "set-disabled" // Value "true" disables Target
	OpScrollEnd   OpKind = "scroll-end"   // scroll Target to its last entry
	OpClipboard   OpKind = "clipboard"    // write Text to the browser clipboard
	OpNotify      OpKind = "notify"       // show Text as an editor notification
)

// Op is one DOM patch operation.
type Op struct {
	Kind   OpKind `json:"op"`
	Target string `json:"target,omitempty"`
	HTML   string `json:"html,omitempty"`
	Text   string `json:"text,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Sink delivers patch operations to a loaded preview document.
type Sink interface {
	Send(ops []Op) error
}

// Event is a DOM event delegated from the preview document.
//
// Path lists the eai-* class of each element from the event target up to the
// document root, target first.
type Event struct {
	Type     string   `json:"type"`
	Path     []string `json:"path"`
	WidgetID string   `json:"widgetId,omitempty"`
	Value    string   `json:"value,omitempty"`
}

// Target returns the class of the element the event was fired on.
func (e Event) Target() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[0]
}

// Within reports whether the event target is class or one of its descendants.
func (e Event) Within(class string) bool {
	for _, c := range e.Path {
		if c == class {
			return true
		}
	}
	return false
}
