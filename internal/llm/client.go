// Package llm talks to hosted language models for the travel assistant.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tripmate/travel-platform/internal/model"
)

// Generation defaults for assistant replies.
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// CompletionRequest is one assistant turn. Messages is the conversation so
// far, ending with the new user message.
type CompletionRequest struct {
	Model       string
	Messages    []model.Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is a language-model provider.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// Provider names a supported language-model vendor.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a client for provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}

// Select returns a client for preferred when it has a key, otherwise the
// first provider with a key. With no keys at all it returns Unconfigured.
func Select(preferred Provider, keys map[Provider]string) (Client, error) {
	if key := keys[preferred]; key != "" {
		return NewClient(preferred, key)
	}
	for _, p := range []Provider{ProviderAnthropic, ProviderOpenAI} {
		if key := keys[p]; key != "" {
			return NewClient(p, key)
		}
	}
	return Unconfigured{}, nil
}

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("llm: no provider configured")

// Unconfigured fails every request. The assistant then answers with its
// fallback reply.
type Unconfigured struct{}

func (Unconfigured) Complete(context.Context, *CompletionRequest) (*CompletionResponse, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Name() string { return "none" }

// Turn is a provider-neutral chat message. Role is "user" or "assistant".
type Turn struct {
	Role    string
	Content string
}

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

// Turns converts a transcript into the alternating sequence providers
// require: it starts with a user turn, model entries become assistant
// turns, and consecutive entries from the same role are joined.
func Turns(messages []model.Message) []Turn {
	var out []Turn
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := roleUser
		if m.Role == model.RoleModel {
			role = roleAssistant
		}
		if len(out) == 0 && role != roleUser {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, Turn{Role: role, Content: m.Content})
	}
	return out
}

func withDefaults(req *CompletionRequest, defaultModel string) (modelName string, maxTokens int, temperature float64) {
	modelName = req.Model
	if modelName == "" {
		modelName = defaultModel
	}
	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature = req.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	return modelName, maxTokens, temperature
}
