package conversation

import (
	"fmt"
	"strings"
	"sync"
)

// Store maps widget ids to their conversations for the life of an editing
// session. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	convs map[string]Conversation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{convs: make(map[string]Conversation)}
}

// Get returns a snapshot of the widget's conversation.
func (s *Store) Get(widgetID string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[widgetID]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// StartConversation replaces any prior conversation of the widget with a
// single user turn.
func (s *Store) StartConversation(widgetID, prompt string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Conversation{UserTurn(prompt)}
	s.convs[widgetID] = c
	return c.Clone()
}

// AppendUserTurn appends a user turn to an existing conversation.
func (s *Store) AppendUserTurn(widgetID, text string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[widgetID]
	if !ok {
		return nil, fmt.Errorf("widget %s: %w", widgetID, ErrNoActiveConversation)
	}
	c = append(c.Clone(), UserTurn(text))
	s.convs[widgetID] = c
	return c.Clone(), nil
}

// AppendModelTurn appends the model's reply. The conversation must exist and
// end with a user turn.
func (s *Store) AppendModelTurn(widgetID, text string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[widgetID]
	if !ok {
		return nil, fmt.Errorf("widget %s: %w", widgetID, ErrNoActiveConversation)
	}
	if last, _ := c.Last(); last.Role != RoleUser {
		return nil, fmt.Errorf("widget %s: %w", widgetID, ErrNoPendingUserTurn)
	}
	c = append(c.Clone(), ModelTurn(text))
	s.convs[widgetID] = c
	return c.Clone(), nil
}

// Len returns the number of widgets with a conversation.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}

// Reset drops every conversation. Called when the editing session ends.
func (s *Store) Reset() {
	s.mu.Lock()
	s.convs = make(map[string]Conversation)
	s.mu.Unlock()
}

// NormalizePrompt trims the prompt and rejects it when nothing is left.
func NormalizePrompt(prompt string) (string, error) {
	p := strings.TrimSpace(prompt)
	if p == "" {
		return "", ErrEmptyPrompt
	}
	return p, nil
}
