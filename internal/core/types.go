package core

import "time"

// Outcome classifies how a relay call ended.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeEmptyPrompt   Outcome = "empty_prompt"
	OutcomeNoAPIKey      Outcome = "no_api_key"
	OutcomeRequestFailed Outcome = "request_failed"
	OutcomeProviderError Outcome = "provider_error"
	OutcomeBadFormat     Outcome = "bad_format"
)

// UsageRecord describes one relay call.
type UsageRecord struct {
	RequestID        string
	TurnCount        int
	PromptChars      int
	ResponseChars    int
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
	Outcome          Outcome
}
