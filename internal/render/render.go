// Package render turns a conversation snapshot into the HTML fragments shown
// in a widget's output region. Every function here is pure: it reads its
// arguments and never touches the store or the preview document.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"unicode/utf8"

	"github.com/Masterminds/sprig"

	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/preview"
)

// ExcerptLimit is the number of runes of a model turn shown in the chat log.
// The modal viewer always shows the full text.
const ExcerptLimit = 800

const (
	CopyLabel   = "Copy"
	CopiedLabel = "Copied!"
	ModalCopyID = "eai-modal-copy"
)

var templates = template.Must(template.New("render").
	Funcs(sprig.HtmlFuncMap()).
	Funcs(template.FuncMap{
		"roleLabel":   roleLabel,
		"excerpt":     excerpt,
		"chatLogID":   preview.ChatLogID,
		"inputID":     preview.InputID,
		"submitID":    preview.SubmitID,
		"indicatorID": preview.IndicatorID,
		"modalID":     func() string { return preview.ModalID },
		"modalCopyID": func() string { return ModalCopyID },
	}).
	Parse(conversationTemplate))

func roleLabel(role conversation.Role) string {
	switch role {
	case conversation.RoleUser:
		return "You"
	case conversation.RoleModel:
		return "AI"
	default:
		return string(role)
	}
}

func excerpt(role conversation.Role, text string) string {
	if role != conversation.RoleModel || utf8.RuneCountInString(text) <= ExcerptLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:ExcerptLimit]) + "…"
}

type conversationView struct {
	WidgetID     string
	Turns        conversation.Conversation
	HasModelTurn bool
	Placeholder  string
}

type modalView struct {
	Text      string
	CopyLabel string
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Conversation renders the chat log, the view-full trigger and the follow-up
// form of a widget.
func Conversation(widgetID string, c conversation.Conversation) (string, error) {
	_, hasModel := c.LastModelTurn()
	return execute("conversation", conversationView{
		WidgetID:     widgetID,
		Turns:        c,
		HasModelTurn: hasModel,
	})
}

// Turn renders a single chat log entry.
func Turn(t conversation.Turn) (string, error) {
	return execute("turn", t)
}

// Loading renders the transient view shown while the first reply is pending.
func Loading(widgetID string) (string, error) {
	return execute("loading", widgetID)
}

// Thinking renders the indicator appended to the chat log during a follow-up.
func Thinking(widgetID string) (string, error) {
	return execute("thinking", widgetID)
}

// Error renders an error that replaces the whole output region.
func Error(message string) (string, error) {
	return execute("error", message)
}

// ErrorInline renders an error entry for the chat log.
func ErrorInline(message string) (string, error) {
	return execute("error-inline", message)
}

// Modal renders the full-response overlay.
func Modal(text, copyLabel string) (string, error) {
	return execute("modal", modalView{Text: text, CopyLabel: copyLabel})
}
