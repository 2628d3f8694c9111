package relay

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/core"
	"github.com/Conversly/design-assistant/internal/llm"
	"github.com/Conversly/design-assistant/internal/utils"
)

const providerTimeout = 30 * time.Second

// Generator produces the next model turn. *llm.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, conv conversation.Conversation) (string, llm.Usage, error)
}

type Service struct {
	gen    Generator
	tokens *utils.TokenRegistry
	usage  *core.UsageSaver
}

// NewService wires the relay. A nil gen means no API key is configured; a nil
// usage saver disables usage recording.
func NewService(gen Generator, tokens *utils.TokenRegistry, usage *core.UsageSaver) *Service {
	return &Service{gen: gen, tokens: tokens, usage: usage}
}

// Authorize checks the anti-forgery token.
func (s *Service) Authorize(token string) bool {
	_, ok := s.tokens.Validate(token)
	return ok
}

// Generate answers a conversation with the relay envelope. Application
// failures are reported in the envelope, never as a Go error.
func (s *Service) Generate(ctx context.Context, requestID string, conv conversation.Conversation) Response {
	start := time.Now()
	record := core.UsageRecord{
		RequestID:   requestID,
		TurnCount:   len(conv),
		PromptChars: promptChars(conv),
	}
	defer func() {
		record.Latency = time.Since(start)
		s.usage.Save(record)
	}()

	if strings.TrimSpace(conv.LastUserText()) == "" {
		record.Outcome = core.OutcomeEmptyPrompt
		return failure(MsgEmptyPrompt)
	}
	if s.gen == nil {
		record.Outcome = core.OutcomeNoAPIKey
		return failure(MsgNoAPIKey)
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	text, usage, err := s.gen.Generate(ctx, conv)
	record.PromptTokens = usage.PromptTokens
	record.CompletionTokens = usage.CompletionTokens
	switch {
	case errors.Is(err, llm.ErrEmptyResponse):
		record.Outcome = core.OutcomeBadFormat
		utils.Zlog.Error("Unexpected format from model provider",
			zap.String("request_id", requestID),
			zap.Int("turns", len(conv)),
			zap.Error(err))
		return failure(MsgBadFormat)
	case err != nil && requestFailed(err):
		record.Outcome = core.OutcomeRequestFailed
		utils.Zlog.Warn("Model provider unreachable",
			zap.String("request_id", requestID),
			zap.Error(err))
		return failure(requestFailedPrefix + err.Error())
	case err != nil:
		record.Outcome = core.OutcomeProviderError
		utils.Zlog.Warn("Model provider error",
			zap.String("request_id", requestID),
			zap.Error(err))
		return failure(apiErrorPrefix + err.Error())
	}

	record.Outcome = core.OutcomeSuccess
	record.ResponseChars = utf8.RuneCountInString(text)
	return success(text)
}

// requestFailed reports whether err kept the request from reaching the
// provider or its answer from arriving, as opposed to an error the provider
// answered with.
func requestFailed(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func promptChars(conv conversation.Conversation) int {
	n := 0
	for _, t := range conv {
		n += utf8.RuneCountInString(t.Text)
	}
	return n
}
