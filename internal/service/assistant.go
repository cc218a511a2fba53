package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/llm"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/pkg/logger"
	"github.com/tripmate/travel-platform/pkg/metrics"
	"github.com/tripmate/travel-platform/pkg/tracing"
)

// FallbackReply is shown in place of a model reply when the model call fails.
const FallbackReply = "I'm having trouble connecting to my knowledge base at the moment. Please try again later."

// WelcomeMessage is the greeting that opens every conversation.
func WelcomeMessage(user *model.User) string {
	name := "there"
	if user != nil && strings.TrimSpace(user.Metadata.FullName) != "" {
		name = strings.TrimSpace(user.Metadata.FullName)
	}
	return "Hello " + name + "! I'm your AI travel assistant. How can I help with your travel plans today?"
}

// AssistantConfig tunes model calls and conversation expiry.
type AssistantConfig struct {
	Model   string
	Timeout time.Duration
	// IdleTTL is how long a conversation may go untouched before Sweep drops it.
	IdleTTL time.Duration
}

// AssistantService keeps in-memory assistant conversations and relays
// user messages to the language model. Conversations are not persisted.
type AssistantService struct {
	client llm.Client
	cfg    AssistantConfig
	logger *logger.Logger
	tracer trace.Tracer
	now    func() time.Time

	mu            sync.RWMutex
	conversations map[string]*model.Conversation
}

// NewAssistantService creates an assistant service.
func NewAssistantService(client llm.Client, cfg AssistantConfig, log *logger.Logger) *AssistantService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &AssistantService{
		client:        client,
		cfg:           cfg,
		logger:        log.Named("assistant"),
		tracer:        tracing.Tracer("service"),
		now:           time.Now,
		conversations: make(map[string]*model.Conversation),
	}
}

// Start opens a conversation for the session's user, seeded with the welcome message.
func (s *AssistantService) Start(ctx context.Context, sess *auth.Session) (model.Conversation, error) {
	if !sess.SignedIn() {
		return model.Conversation{}, fmt.Errorf("service.AssistantService.Start: %w", model.ErrUnauthenticated)
	}

	now := s.now()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    sess.UserID(),
		Messages:  []model.Message{{Role: model.RoleModel, Content: WelcomeMessage(sess.User)}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	metrics.ConversationsActive.Set(float64(len(s.conversations)))
	snapshot := snapshotOf(conv)
	s.mu.Unlock()

	s.logger.Info("conversation started", zap.String("conversation_id", conv.ID), zap.String("user_id", conv.UserID))
	return snapshot, nil
}

// Send appends the user's message, asks the model, and appends the reply.
// If the model fails, the transcript keeps the user message only and the
// returned error wraps model.ErrUpstream; callers show FallbackReply.
// A conversation accepts one message at a time; a send while a reply is
// pending fails with model.ErrConflict.
func (s *AssistantService) Send(ctx context.Context, sess *auth.Session, conversationID, text string) (*model.SendMessageResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("service.AssistantService.Send: message is empty: %w", model.ErrValidation)
	}
	if !sess.SignedIn() {
		metrics.AssistantTurnsTotal.WithLabelValues("unauthenticated").Inc()
		return nil, fmt.Errorf("service.AssistantService.Send: %w", model.ErrUnauthenticated)
	}

	userMsg := model.Message{Role: model.RoleUser, Content: text}

	s.mu.Lock()
	conv, err := s.owned(sess.UserID(), conversationID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("service.AssistantService.Send: %w", err)
	}
	if conv.Busy {
		s.mu.Unlock()
		metrics.AssistantTurnsTotal.WithLabelValues("busy").Inc()
		return nil, fmt.Errorf("service.AssistantService.Send: a reply is already pending: %w", model.ErrConflict)
	}
	history := model.ModelHistory(conv.Messages)
	conv.Messages = append(conv.Messages, userMsg)
	conv.Busy = true
	conv.UpdatedAt = s.now()
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "assistant.Send", trace.WithAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.String("llm.provider", s.client.Name()),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, callErr := s.client.Complete(callCtx, &llm.CompletionRequest{
		Model:       s.cfg.Model,
		Messages:    append(history, userMsg),
		MaxTokens:   llm.DefaultMaxTokens,
		Temperature: llm.DefaultTemperature,
	})
	elapsed := time.Since(start).Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, stillOpen := s.conversations[conversationID]
	if stillOpen {
		conv.Busy = false
		conv.UpdatedAt = s.now()
	}

	if callErr != nil {
		metrics.RecordLLMRequest(s.client.Name(), "", "error", elapsed, 0, 0)
		metrics.AssistantTurnsTotal.WithLabelValues("error").Inc()
		span.RecordError(callErr)
		span.SetStatus(codes.Error, callErr.Error())
		s.logger.Error("assistant reply failed",
			zap.String("conversation_id", conversationID),
			zap.String("provider", s.client.Name()),
			zap.Error(callErr),
		)
		return nil, fmt.Errorf("service.AssistantService.Send: %w: %w", model.ErrUpstream, callErr)
	}

	metrics.RecordLLMRequest(s.client.Name(), resp.Model, "success", elapsed, resp.TokensIn, resp.TokensOut)
	reply := model.Message{Role: model.RoleModel, Content: resp.Content}
	if !stillOpen {
		metrics.AssistantTurnsTotal.WithLabelValues("ended").Inc()
		return nil, fmt.Errorf("service.AssistantService.Send: conversation ended: %w", model.ErrNotFound)
	}
	conv.Messages = append(conv.Messages, reply)
	metrics.AssistantTurnsTotal.WithLabelValues("success").Inc()

	return &model.SendMessageResponse{Reply: reply, Conversation: snapshotOf(conv)}, nil
}

// Get returns a snapshot of one of the user's conversations.
func (s *AssistantService) Get(sess *auth.Session, conversationID string) (model.Conversation, error) {
	if !sess.SignedIn() {
		return model.Conversation{}, fmt.Errorf("service.AssistantService.Get: %w", model.ErrUnauthenticated)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, err := s.owned(sess.UserID(), conversationID)
	if err != nil {
		return model.Conversation{}, fmt.Errorf("service.AssistantService.Get: %w", err)
	}
	return snapshotOf(conv), nil
}

// End discards one of the user's conversations.
func (s *AssistantService) End(sess *auth.Session, conversationID string) error {
	if !sess.SignedIn() {
		return fmt.Errorf("service.AssistantService.End: %w", model.ErrUnauthenticated)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(sess.UserID(), conversationID); err != nil {
		return fmt.Errorf("service.AssistantService.End: %w", err)
	}
	delete(s.conversations, conversationID)
	metrics.ConversationsActive.Set(float64(len(s.conversations)))
	return nil
}

// EndForUser discards every conversation owned by userID and returns how many there were.
func (s *AssistantService) EndForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, conv := range s.conversations {
		if conv.UserID == userID {
			delete(s.conversations, id)
			n++
		}
	}
	metrics.ConversationsActive.Set(float64(len(s.conversations)))
	return n
}

// Sweep drops conversations idle for longer than the configured TTL as of now
// and returns how many were dropped. Conversations waiting on a reply are kept.
func (s *AssistantService) Sweep(now time.Time) int {
	cutoff := now.Add(-s.cfg.IdleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, conv := range s.conversations {
		if conv.Busy || conv.UpdatedAt.After(cutoff) {
			continue
		}
		delete(s.conversations, id)
		n++
	}
	metrics.ConversationsActive.Set(float64(len(s.conversations)))
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *AssistantService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.Info("idle conversations expired", zap.Int("count", n))
			}
		}
	}
}

// OnAuthEvent tears down a user's conversations when they sign out.
func (s *AssistantService) OnAuthEvent(e auth.Event) {
	if e.Type != auth.EventSignedOut || e.UserID == "" {
		return
	}
	if n := s.EndForUser(e.UserID); n > 0 {
		s.logger.Info("conversations ended on sign-out", zap.String("user_id", e.UserID), zap.Int("count", n))
	}
}

// owned must be called with s.mu held.
func (s *AssistantService) owned(userID, conversationID string) (*model.Conversation, error) {
	conv, ok := s.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return nil, model.ErrNotFound
	}
	return conv, nil
}

func snapshotOf(c *model.Conversation) model.Conversation {
	out := *c
	out.Messages = append([]model.Message(nil), c.Messages...)
	return out
}
