// Package session assembles one editing session: the conversation store,
// the preview surface, the listener binder, the modal viewer and the
// controller driving them.
package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/binder"
	"github.com/Conversly/design-assistant/internal/chat"
	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/modal"
	"github.com/Conversly/design-assistant/internal/preview"
	"github.com/Conversly/design-assistant/internal/utils"
)

type Session struct {
	ID        string
	Token     string
	CreatedAt time.Time

	Store      *conversation.Store
	Surface    *preview.Surface
	Controller *chat.Controller
	Viewer     *modal.Viewer
	binder     *binder.Binder
}

func (s *Session) wire() {
	s.binder = binder.New(s.Surface, binder.Handlers{
		FollowUp: s.Controller.HandleFollowUp,
		ViewFull: func(widgetID string) {
			s.Controller.Guard("view-full", func() {
				if _, err := s.Viewer.Open(widgetID); err != nil {
					utils.Zlog.Warn("Failed to open full response",
						zap.String("session_id", s.ID),
						zap.String("widget_id", widgetID),
						zap.Error(err))
				}
			})
		},
		ModalClick: func(target string) {
			s.Controller.Guard("modal-click", func() {
				if err := s.Viewer.HandleClick(target); err != nil {
					utils.Zlog.Warn("Modal action failed",
						zap.String("session_id", s.ID),
						zap.String("target", target),
						zap.Error(err))
				}
			})
		},
	})

	// A reloaded document starts without an overlay and with blank regions.
	s.Surface.OnLoaded(func(doc *preview.Document) {
		s.Viewer.Reset()
		s.Controller.Restore(doc)
	})
	s.binder.Attach()
}

// Generate is the editor's generate trigger for one widget.
func (s *Session) Generate(widgetID, prompt string) error {
	return s.Controller.SubmitInitialPrompt(widgetID, prompt)
}

// SignalStructuralChange reports that the editor restructured the preview.
func (s *Session) SignalStructuralChange() {
	s.Surface.SignalStructuralChange()
}

func (s *Session) close() {
	s.binder.Dispose()
	s.Controller.Close()
	s.Viewer.Reset()
	s.Surface.Close()
	s.Store.Reset()
}
