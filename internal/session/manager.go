package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/chat"
	"github.com/Conversly/design-assistant/internal/config"
	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/modal"
	"github.com/Conversly/design-assistant/internal/preview"
	"github.com/Conversly/design-assistant/internal/relay"
	"github.com/Conversly/design-assistant/internal/utils"
)

var ErrSessionNotFound = errors.New("editing session not found")

// RelayFactory builds the relay a session talks to, authenticated with the
// session's token.
type RelayFactory func(token string) relay.Relay

type Manager struct {
	tokens        *utils.TokenRegistry
	newRelay      RelayFactory
	timeout       time.Duration
	clipboardMode string

	mu       sync.RWMutex
	sessions map[string]*Session
}

type Option func(*Manager)

// WithRelayFactory replaces the HTTP relay client.
func WithRelayFactory(f RelayFactory) Option {
	return func(m *Manager) { m.newRelay = f }
}

func NewManager(cfg *config.Config, tokens *utils.TokenRegistry, opts ...Option) *Manager {
	m := &Manager{
		tokens:        tokens,
		timeout:       cfg.RelayTimeout,
		clipboardMode: cfg.ClipboardMode,
		sessions:      make(map[string]*Session),
	}
	m.newRelay = func(token string) relay.Relay {
		return relay.NewClient(cfg.RelayURL, token, cfg.RelayTimeout)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new editing session.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	token := m.tokens.Issue(id)

	store := conversation.NewStore()
	surface := preview.NewSurface()

	var cb modal.Clipboard = modal.SurfaceClipboard{Surface: surface}
	if m.clipboardMode == config.ClipboardSystem {
		cb = modal.SystemClipboard{}
	}

	s := &Session{
		ID:         id,
		Token:      token,
		CreatedAt:  time.Now().UTC(),
		Store:      store,
		Surface:    surface,
		Controller: chat.New(store, surface, m.newRelay(token), chat.WithTimeout(m.timeout)),
		Viewer:     modal.NewViewer(store, surface, cb),
	}
	s.wire()

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	utils.Zlog.Info("Editing session started",
		zap.String("session_id", id),
		zap.String("token", utils.MaskToken(token)))
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End tears a session down: outstanding relay calls are cancelled, the
// preview document is closed, the token revoked and the store dropped.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	m.tokens.Revoke(s.Token)
	s.close()
	utils.Zlog.Info("Editing session ended", zap.String("session_id", id))
	return nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.End(id)
	}
}
