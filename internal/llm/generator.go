package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Conversly/design-assistant/internal/conversation"
)

// SystemPreamble is prepended to every conversation sent to the model.
const SystemPreamble = "You are a helpful website design assistant. Provide a concise and creative answer for: "

var (
	ErrNoAPIKey          = errors.New("no Gemini API key configured")
	ErrEmptyResponse     = errors.New("model returned no text")
	ErrEmptyConversation = errors.New("conversation is empty")
)

// Usage is the token accounting reported by the provider, when it has one.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generator answers a conversation with the next model turn.
type Generator struct {
	model    model.BaseChatModel
	preamble string
}

func NewGenerator(m model.BaseChatModel) *Generator {
	return &Generator{model: m, preamble: SystemPreamble}
}

// Messages converts a conversation into the model's message list: the system
// preamble first, then user turns as user messages and model turns as
// assistant messages.
func (g *Generator) Messages(conv conversation.Conversation) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(conv)+1)
	msgs = append(msgs, schema.SystemMessage(g.preamble))
	for _, t := range conv {
		switch t.Role {
		case conversation.RoleUser:
			msgs = append(msgs, schema.UserMessage(t.Text))
		case conversation.RoleModel:
			msgs = append(msgs, schema.AssistantMessage(t.Text, nil))
		}
	}
	return msgs
}

// Generate returns the trimmed text of the model's reply.
func (g *Generator) Generate(ctx context.Context, conv conversation.Conversation) (string, Usage, error) {
	if len(conv) == 0 {
		return "", Usage{}, ErrEmptyConversation
	}

	out, err := g.model.Generate(ctx, g.Messages(conv))
	if err != nil {
		return "", Usage{}, fmt.Errorf("generate: %w", err)
	}
	if out == nil {
		return "", Usage{}, ErrEmptyResponse
	}

	var usage Usage
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		usage = Usage{
			PromptTokens:     out.ResponseMeta.Usage.PromptTokens,
			CompletionTokens: out.ResponseMeta.Usage.CompletionTokens,
			TotalTokens:      out.ResponseMeta.Usage.TotalTokens,
		}
	}

	text := strings.TrimSpace(out.Content)
	if text == "" {
		return "", usage, ErrEmptyResponse
	}
	return text, usage, nil
}
