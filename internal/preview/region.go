package preview

import "strconv"

// Region is the output element of one widget inside a loaded document.
type Region struct {
	doc      *Document
	widgetID string
}

func (r *Region) WidgetID() string { return r.widgetID }

// Document returns the document the region was resolved from.
func (r *Region) Document() *Document { return r.doc }

// Replace swaps the whole output region for html.
func (r *Region) Replace(html string) error {
	return r.doc.Apply(Op{Kind: OpReplace, Target: byID(OutputID(r.widgetID)), HTML: html})
}

// AppendLog appends html to the widget's chat log.
func (r *Region) AppendLog(html string) error {
	return r.doc.Apply(Op{Kind: OpAppend, Target: byID(ChatLogID(r.widgetID)), HTML: html})
}

// RemoveIndicator removes the inline thinking indicator.
func (r *Region) RemoveIndicator() error {
	return r.doc.Apply(Op{Kind: OpRemove, Target: byID(IndicatorID(r.widgetID))})
}

// ClearInput empties the follow-up input.
func (r *Region) ClearInput() error {
	return r.doc.Apply(Op{Kind: OpSetValue, Target: byID(InputID(r.widgetID)), Value: ""})
}

// ScrollLog scrolls the chat log to its most recent entry.
func (r *Region) ScrollLog() error {
	return r.doc.Apply(Op{Kind: OpScrollEnd, Target: byID(ChatLogID(r.widgetID))})
}

// SetBusy disables or enables the follow-up submit control.
func (r *Region) SetBusy(busy bool) error {
	return r.doc.Apply(Op{Kind: OpSetDisabled, Target: byID(SubmitID(r.widgetID)), Value: strconv.FormatBool(busy)})
}
