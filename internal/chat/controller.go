// Package chat drives the per-widget conversation: it validates submissions,
// enforces one outstanding relay call per widget, merges replies into the
// store and redraws the widget's output region.
package chat

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/preview"
	"github.com/Conversly/design-assistant/internal/relay"
	"github.com/Conversly/design-assistant/internal/render"
	"github.com/Conversly/design-assistant/internal/utils"
)

const DefaultTimeout = 30 * time.Second

const (
	emptyPromptNotice = "Please enter a prompt first."
	inFlightNotice    = "Please wait for the current response to finish."
)

// Controller owns the conversation store of an editing session.
type Controller struct {
	store   *conversation.Store
	surface *preview.Surface
	relay   relay.Relay
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu serializes every handler, the way a UI event loop would.
	mu      sync.Mutex
	widgets map[string]*widgetState
}

type Option func(*Controller)

// WithTimeout bounds every relay call.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(store *conversation.Store, surface *preview.Surface, r relay.Relay, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:   store,
		surface: surface,
		relay:   r,
		timeout: DefaultTimeout,
		ctx:     ctx,
		cancel:  cancel,
		widgets: make(map[string]*widgetState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the request lifecycle state of a widget.
func (c *Controller) State(widgetID string) RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ws, ok := c.widgets[widgetID]; ok {
		return ws.state
	}
	return StateIdle
}

// Conversation returns a snapshot of the widget's conversation.
func (c *Controller) Conversation(widgetID string) (conversation.Conversation, bool) {
	return c.store.Get(widgetID)
}

// SubmitInitialPrompt starts a new conversation for the widget and asks the
// relay for the first reply.
func (c *Controller) SubmitInitialPrompt(widgetID, prompt string) error {
	p, err := conversation.NormalizePrompt(prompt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlightLocked(widgetID) {
		return ErrRequestInFlight
	}

	conv := c.store.StartConversation(widgetID, p)
	c.widgets[widgetID] = &widgetState{state: StateAwaiting, kind: kindInitial}

	if region, ok := c.surface.Resolve(widgetID); ok {
		html, err := render.Loading(widgetID)
		if err == nil {
			err = region.Replace(html)
		}
		c.logRenderError(widgetID, "loading", err)
	}

	c.dispatchLocked(widgetID, conv)
	return nil
}

// SubmitFollowUp appends a user turn to the widget's conversation and asks
// the relay for the reply.
func (c *Controller) SubmitFollowUp(widgetID, prompt string) error {
	p, err := conversation.NormalizePrompt(prompt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlightLocked(widgetID) {
		return ErrRequestInFlight
	}

	conv, err := c.store.AppendUserTurn(widgetID, p)
	if err != nil {
		return err
	}
	c.widgets[widgetID] = &widgetState{state: StateAwaiting, kind: kindFollowUp}

	if region, ok := c.surface.Resolve(widgetID); ok {
		c.logRenderError(widgetID, "follow-up", c.showThinking(region, conv))
	}

	c.dispatchLocked(widgetID, conv)
	return nil
}

func (c *Controller) showThinking(region *preview.Region, conv conversation.Conversation) error {
	last, _ := conv.Last()
	entry, err := render.Turn(last)
	if err != nil {
		return err
	}
	thinking, err := render.Thinking(region.WidgetID())
	if err != nil {
		return err
	}
	if err := region.ClearInput(); err != nil {
		return err
	}
	if err := region.AppendLog(entry + thinking); err != nil {
		return err
	}
	if err := region.SetBusy(true); err != nil {
		return err
	}
	return region.ScrollLog()
}

func (c *Controller) inFlightLocked(widgetID string) bool {
	ws, ok := c.widgets[widgetID]
	return ok && ws.state == StateAwaiting
}

// dispatchLocked starts the relay call. The reply is merged by complete.
func (c *Controller) dispatchLocked(widgetID string, conv conversation.Conversation) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.recoverPanic("relay dispatch", widgetID)

		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()

		start := time.Now()
		text, err := c.relay.Generate(ctx, conv)
		utils.Zlog.Debug("Relay call finished",
			zap.String("widget_id", widgetID),
			zap.Int("turns", len(conv)),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.Bool("success", err == nil))

		c.complete(widgetID, text, err)
	}()
}

func (c *Controller) complete(widgetID, text string, relayErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws, ok := c.widgets[widgetID]
	if !ok {
		// session was reset while the call was outstanding
		return
	}

	if relayErr != nil {
		ws.state = StateError
		ws.message = relay.DisplayMessage(relayErr)
		utils.Zlog.Warn("Relay call failed",
			zap.String("widget_id", widgetID),
			zap.Error(relayErr))
		c.showError(widgetID, ws.kind, ws.message)
		return
	}

	conv, err := c.store.AppendModelTurn(widgetID, text)
	if err != nil {
		ws.state = StateError
		ws.message = relay.CriticalMessage
		utils.Zlog.Error("Failed to merge relay reply",
			zap.String("widget_id", widgetID),
			zap.Error(err))
		c.showError(widgetID, ws.kind, ws.message)
		return
	}
	ws.state = StateIdle
	c.renderLocked(widgetID, conv)
}

// renderLocked redraws the widget's whole output region.
func (c *Controller) renderLocked(widgetID string, conv conversation.Conversation) {
	region, ok := c.surface.Resolve(widgetID)
	if !ok {
		utils.Zlog.Info("Widget no longer in preview, render discarded",
			zap.String("widget_id", widgetID),
			zap.Int("turns", len(conv)))
		return
	}
	html, err := render.Conversation(widgetID, conv)
	if err == nil {
		err = region.Replace(html)
	}
	if err == nil {
		err = region.ScrollLog()
	}
	c.logRenderError(widgetID, "conversation", err)
}

func (c *Controller) showError(widgetID string, kind requestKind, message string) {
	region, ok := c.surface.Resolve(widgetID)
	if !ok {
		utils.Zlog.Info("Widget no longer in preview, error discarded",
			zap.String("widget_id", widgetID),
			zap.String("message", message))
		return
	}

	var err error
	if kind == kindInitial {
		var html string
		if html, err = render.Error(message); err == nil {
			err = region.Replace(html)
		}
	} else {
		var html string
		if html, err = render.ErrorInline(message); err == nil {
			if err = region.RemoveIndicator(); err == nil {
				err = region.AppendLog(html)
			}
		}
		if err == nil {
			err = region.SetBusy(false)
		}
		if err == nil {
			err = region.ScrollLog()
		}
	}
	c.logRenderError(widgetID, "error", err)
}

// Restore redraws every widget of a freshly loaded document from the store.
func (c *Controller) Restore(doc *preview.Document) {
	defer c.recoverPanic("restore", "")

	c.mu.Lock()
	defer c.mu.Unlock()
	for widgetID, ws := range c.widgets {
		if !doc.HasWidget(widgetID) {
			continue
		}
		conv, ok := c.store.Get(widgetID)
		if !ok {
			continue
		}
		if ws.state == StateError {
			c.restoreErrorLocked(widgetID, ws, conv)
			continue
		}
		if ws.state == StateAwaiting && ws.kind == kindInitial {
			if region, ok := c.surface.Resolve(widgetID); ok {
				html, err := render.Loading(widgetID)
				if err == nil {
					err = region.Replace(html)
				}
				c.logRenderError(widgetID, "restore", err)
			}
			continue
		}
		c.renderLocked(widgetID, conv)
		if ws.state == StateAwaiting {
			if region, ok := c.surface.Resolve(widgetID); ok {
				html, err := render.Thinking(widgetID)
				if err == nil {
					err = region.AppendLog(html)
				}
				if err == nil {
					err = region.SetBusy(true)
				}
				c.logRenderError(widgetID, "restore", err)
			}
		}
	}
}

// restoreErrorLocked redraws a failed request the way showError left it.
func (c *Controller) restoreErrorLocked(widgetID string, ws *widgetState, conv conversation.Conversation) {
	if ws.kind == kindInitial {
		c.showError(widgetID, kindInitial, ws.message)
		return
	}
	c.renderLocked(widgetID, conv)
	region, ok := c.surface.Resolve(widgetID)
	if !ok {
		return
	}
	html, err := render.ErrorInline(ws.message)
	if err == nil {
		err = region.AppendLog(html)
	}
	if err == nil {
		err = region.ScrollLog()
	}
	c.logRenderError(widgetID, "restore", err)
}

// HandleFollowUp is the preview-side entry point of a follow-up submission.
// Rejections become editor notifications.
func (c *Controller) HandleFollowUp(widgetID, text string) {
	c.Guard("follow-up", func() {
		err := c.SubmitFollowUp(widgetID, text)
		switch {
		case err == nil:
		case errors.Is(err, conversation.ErrEmptyPrompt):
			c.notify(emptyPromptNotice)
		case errors.Is(err, ErrRequestInFlight):
			c.notify(inFlightNotice)
		default:
			utils.Zlog.Warn("Follow-up rejected",
				zap.String("widget_id", widgetID),
				zap.Error(err))
			c.notify(relay.CriticalMessage)
		}
	})
}

// Guard runs fn and turns a panic into a logged critical-error notification.
func (c *Controller) Guard(name string, fn func()) {
	defer c.recoverPanic(name, "")
	fn()
}

func (c *Controller) recoverPanic(name, widgetID string) {
	r := recover()
	if r == nil {
		return
	}
	utils.Zlog.Error("Recovered from panic",
		zap.String("handler", name),
		zap.String("widget_id", widgetID),
		zap.String("panic", fmt.Sprint(r)),
		zap.ByteString("stack", debug.Stack()))

	if widgetID != "" {
		c.mu.Lock()
		if ws, ok := c.widgets[widgetID]; ok && ws.state == StateAwaiting {
			ws.state = StateError
			ws.message = relay.CriticalMessage
		}
		c.mu.Unlock()
	}
	c.notify(relay.CriticalMessage)
}

func (c *Controller) notify(text string) {
	if err := c.surface.Apply(preview.Op{Kind: preview.OpNotify, Text: text}); err != nil {
		utils.Zlog.Debug("notification dropped", zap.String("text", text), zap.Error(err))
	}
}

func (c *Controller) logRenderError(widgetID, view string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, preview.ErrDocumentClosed) {
		utils.Zlog.Debug("Preview reloaded before render",
			zap.String("widget_id", widgetID),
			zap.String("view", view))
		return
	}
	utils.Zlog.Warn("Render failed",
		zap.String("widget_id", widgetID),
		zap.String("view", view),
		zap.Error(err))
}

// Wait blocks until every outstanding relay call has been merged.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels outstanding relay calls, waits for them, and forgets all
// request state.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
	c.mu.Lock()
	c.widgets = make(map[string]*widgetState)
	c.mu.Unlock()
}
