package editor

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Conversly/design-assistant/internal/config"
	"github.com/Conversly/design-assistant/internal/preview"
	"github.com/Conversly/design-assistant/internal/session"
)

type Service struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
}

func NewService(sessions *session.Manager, cfg *config.Config) *Service {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	anyOrigin := false
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[o] = struct{}{}
	}

	return &Service{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if anyOrigin {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// ServePreview upgrades the request and runs the preview document protocol
// until the connection drops.
func (s *Service) ServePreview(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	preview.Serve(ws, sess.Surface)
	return nil
}
