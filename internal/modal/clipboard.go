package modal

import (
	"github.com/atotto/clipboard"

	"github.com/Conversly/design-assistant/internal/preview"
)

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SurfaceClipboard asks the preview document to write to the browser clipboard.
type SurfaceClipboard struct {
	Surface *preview.Surface
}

func (c SurfaceClipboard) WriteAll(text string) error {
	return c.Surface.Apply(preview.Op{Kind: preview.OpClipboard, Text: text})
}

// SystemClipboard writes to the clipboard of the machine running the
// service, for editors served from the same desktop.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}
