package preview

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/utils"
)

const (
	defaultWriteTimeout = 10 * time.Second

	// maxFrameBytes bounds one inbound frame; larger frames close the connection.
	maxFrameBytes = 1 << 20
)

// Frame is a websocket message exchanged with the preview script.
//
// Inbound: {"type":"loaded","widgets":[...]} after every (re)load or widget
// set change, {"type":"event","event":{...}} for delegated DOM events.
// Outbound: {"type":"ops","ops":[...]}.
type Frame struct {
	Type    string   `json:"type"`
	Widgets []string `json:"widgets,omitempty"`
	Event   *Event   `json:"event,omitempty"`
	Ops     []Op     `json:"ops,omitempty"`
}

const (
	FrameLoaded = "loaded"
	FrameEvent  = "event"
	FrameOps    = "ops"
)

// Conn is a Sink writing patch operations to a websocket connection.
type Conn struct {
	ws           *websocket.Conn
	mu           sync.Mutex
	writeTimeout time.Duration
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, writeTimeout: defaultWriteTimeout}
}

// Send implements Sink.
func (c *Conn) Send(ops []Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteJSON(Frame{Type: FrameOps, Ops: ops})
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

// Serve runs the read loop of one preview connection until it closes. Each
// connection is one load of the preview document.
func Serve(ws *websocket.Conn, surface *Surface) {
	ws.SetReadLimit(maxFrameBytes)
	conn := NewConn(ws)
	defer conn.Close()

	var doc *Document
	defer func() {
		if doc != nil {
			surface.Unload(doc)
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Zlog.Warn("preview connection closed unexpectedly", zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			utils.Zlog.Warn("invalid preview frame", zap.Error(err))
			continue
		}

		switch frame.Type {
		case FrameLoaded:
			switch {
			case doc == nil:
				doc = NewDocument(conn, frame.Widgets)
			case doc.Closed():
				// a newer connection took over; this load starts a new document
				doc = NewDocument(conn, frame.Widgets)
			default:
				doc.SetWidgets(frame.Widgets)
			}
			utils.Zlog.Debug("preview document loaded",
				zap.String("document_id", doc.ID()),
				zap.Int("widgets", len(frame.Widgets)))
			if !surface.Load(doc) {
				utils.Zlog.Warn("preview document closed before load", zap.String("document_id", doc.ID()))
			}
		case FrameEvent:
			if doc == nil || frame.Event == nil {
				continue
			}
			if n := doc.Dispatch(*frame.Event); n == 0 {
				utils.Zlog.Debug("preview event without listener",
					zap.String("type", frame.Event.Type),
					zap.Strings("path", frame.Event.Path))
			}
		default:
			utils.Zlog.Debug("unknown preview frame", zap.String("type", frame.Type))
		}
	}
}
