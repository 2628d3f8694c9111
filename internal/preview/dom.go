package preview

import "regexp"

// Element ids and classes shared by the renderer and the browser-side
// preview script.
const (
	ClassOutput       = "eai-output"
	ClassChatLog      = "eai-chat-log"
	ClassFollowUpForm = "eai-follow-up-form"
	ClassViewFull     = "eai-view-full"
	ClassIndicator    = "eai-thinking"

	ClassModal        = "eai-modal"
	ClassModalContent = "eai-modal-content"
	ClassModalClose   = "eai-modal-close"
	ClassModalCopy    = "eai-modal-copy"

	ModalID = "eai-modal"
)

var widgetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidWidgetID reports whether id can be embedded in element ids and selectors.
func ValidWidgetID(id string) bool {
	return widgetIDPattern.MatchString(id)
}

func OutputID(widgetID string) string    { return "eai-output-" + widgetID }
func ChatLogID(widgetID string) string   { return "eai-chat-log-" + widgetID }
func InputID(widgetID string) string     { return "eai-follow-up-input-" + widgetID }
func SubmitID(widgetID string) string    { return "eai-follow-up-submit-" + widgetID }
func IndicatorID(widgetID string) string { return "eai-thinking-" + widgetID }

func byID(id string) string { return "#" + id }
