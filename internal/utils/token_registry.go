package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenRegistry holds the anti-forgery tokens accepted by the relay: tokens
// issued to editing sessions plus static tokens from configuration.
type TokenRegistry struct {
	mu     sync.RWMutex
	issued map[string]TokenInfo
	static map[string]struct{}
	ttl    time.Duration
	now    func() time.Time

	// controls background sweep lifecycle
	sweepCancel context.CancelFunc
}

type TokenInfo struct {
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewTokenRegistry creates a registry. A zero ttl means issued tokens never expire.
func NewTokenRegistry(ttl time.Duration, staticTokens []string) *TokenRegistry {
	static := make(map[string]struct{}, len(staticTokens))
	for _, t := range staticTokens {
		if t = strings.TrimSpace(t); t != "" {
			static[t] = struct{}{}
		}
	}
	return &TokenRegistry{
		issued: make(map[string]TokenInfo),
		static: static,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a token bound to an editing session.
func (tr *TokenRegistry) Issue(sessionID string) string {
	token := uuid.NewString()
	now := tr.now()
	info := TokenInfo{SessionID: sessionID, IssuedAt: now}
	if tr.ttl > 0 {
		info.ExpiresAt = now.Add(tr.ttl)
	}

	tr.mu.Lock()
	tr.issued[token] = info
	tr.mu.Unlock()
	return token
}

// Validate checks a token. Static tokens return an empty TokenInfo.
func (tr *TokenRegistry) Validate(token string) (TokenInfo, bool) {
	if token == "" {
		return TokenInfo{}, false
	}
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	if _, ok := tr.static[token]; ok {
		return TokenInfo{}, true
	}
	info, ok := tr.issued[token]
	if !ok {
		return TokenInfo{}, false
	}
	if !info.ExpiresAt.IsZero() && tr.now().After(info.ExpiresAt) {
		return TokenInfo{}, false
	}
	return info, true
}

// Revoke forgets an issued token.
func (tr *TokenRegistry) Revoke(token string) {
	tr.mu.Lock()
	delete(tr.issued, token)
	tr.mu.Unlock()
}

// Count returns the number of issued tokens still held.
func (tr *TokenRegistry) Count() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.issued)
}

// Sweep drops expired tokens and returns how many were removed.
func (tr *TokenRegistry) Sweep() int {
	now := tr.now()
	tr.mu.Lock()
	defer tr.mu.Unlock()
	removed := 0
	for token, info := range tr.issued {
		if !info.ExpiresAt.IsZero() && now.After(info.ExpiresAt) {
			delete(tr.issued, token)
			removed++
		}
	}
	return removed
}

// StartAutoSweep starts a background goroutine that drops expired tokens at
// the given interval until StopAutoSweep is called or ctx is cancelled.
// Subsequent calls are no-ops while a sweeper is running.
func (tr *TokenRegistry) StartAutoSweep(ctx context.Context, interval time.Duration) {
	tr.mu.Lock()
	if tr.sweepCancel != nil || interval <= 0 {
		tr.mu.Unlock()
		return
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	tr.sweepCancel = cancel
	tr.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := tr.Sweep(); n > 0 {
					Zlog.Debug("Expired relay tokens removed", zap.Int("count", n))
				}
			}
		}
	}()
}

// StopAutoSweep stops the background sweeper if running.
func (tr *TokenRegistry) StopAutoSweep() {
	tr.mu.Lock()
	if tr.sweepCancel != nil {
		tr.sweepCancel()
		tr.sweepCancel = nil
	}
	tr.mu.Unlock()
}

// MaskToken shortens a token for logs.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
