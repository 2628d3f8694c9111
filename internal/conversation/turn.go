package conversation

import (
	"encoding/json"
	"fmt"
)

// Role tags a turn with its author.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Turn is one message of a conversation. Turns are values and never
// modified after creation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UserTurn builds a user turn.
func UserTurn(text string) Turn { return Turn{Role: RoleUser, Text: text} }

// ModelTurn builds a model turn.
func ModelTurn(text string) Turn { return Turn{Role: RoleModel, Text: text} }

// Conversation is the ordered turn sequence of one widget.
type Conversation []Turn

// Clone returns a copy that shares no backing array with c.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// Last returns the final turn.
func (c Conversation) Last() (Turn, bool) {
	if len(c) == 0 {
		return Turn{}, false
	}
	return c[len(c)-1], true
}

// LastModelTurn returns the most recent turn authored by the model.
func (c Conversation) LastModelTurn() (Turn, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleModel {
			return c[i], true
		}
	}
	return Turn{}, false
}

// LastUserText returns the text of the most recent user turn, or "".
func (c Conversation) LastUserText() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleUser {
			return c[i].Text
		}
	}
	return ""
}

// EncodeTurns serializes a conversation into its wire form:
//
//	[
//	  { "role": "user", "text": "Hero section for a bakery" },
//	  { "role": "model", "text": "Headline: ..." }
//	]
func EncodeTurns(c Conversation) ([]byte, error) {
	if c == nil {
		c = Conversation{}
	}
	return json.Marshal(c)
}

// DecodeTurns parses the wire form produced by EncodeTurns.
func DecodeTurns(data []byte) (Conversation, error) {
	var turns Conversation
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to parse conversation JSON: %w", err)
	}
	if err := Validate(turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// Validate checks that every turn carries a known role and that the
// conversation opens with a user turn.
func Validate(c Conversation) error {
	for i, t := range c {
		if !t.Role.Valid() {
			return fmt.Errorf("turn %d: unknown role %q", i, t.Role)
		}
	}
	if len(c) > 0 && c[0].Role != RoleUser {
		return fmt.Errorf("conversation must start with a %s turn, got %s", RoleUser, c[0].Role)
	}
	return nil
}
