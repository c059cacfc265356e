// Package service implements the chat operations behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/manyidi1774/LegalBuddy/internal/llm"
	"github.com/manyidi1774/LegalBuddy/internal/model"
	"github.com/manyidi1774/LegalBuddy/internal/store"
	"github.com/manyidi1774/LegalBuddy/pkg/logger"
	"github.com/manyidi1774/LegalBuddy/pkg/metrics"
	"github.com/manyidi1774/LegalBuddy/pkg/tracing"
)

// Replies used when the completion provider cannot answer.
const (
	RateLimitFallback = "I'm receiving too many requests right now. Please try again in a moment."
	GenericFallback   = "I apologize, but I'm having trouble processing your request at the moment. Please try again later."
)

const (
	MaxTitleLength    = 256
	MaxLanguageLength = 64
)

var (
	// ErrEmptyMessage is returned for a message that is blank after trimming.
	ErrEmptyMessage = errors.New("message cannot be empty")
	// ErrInvalidTitle is returned for a missing, blank or oversized chat title.
	ErrInvalidTitle = errors.New("invalid chat title")
	// ErrInvalidPreferences is returned for an unknown theme or oversized language.
	ErrInvalidPreferences = errors.New("invalid preferences")
)

// EventPublisher receives chat activity events.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.ChatEvent) error
}

// ChatService handles chat operations.
type ChatService struct {
	store  store.Store
	llm    llm.Client
	events EventPublisher
	logger *logger.Logger
	now    func() time.Time
}

// NewChatService creates a new chat service.
func NewChatService(st store.Store, client llm.Client, events EventPublisher, log *logger.Logger) *ChatService {
	return &ChatService{
		store:  st,
		llm:    client,
		events: events,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Send records the user's message, asks the completion provider for a reply
// and records the reply. A provider failure is answered with a fallback text
// and does not fail the call; a store failure does.
func (s *ChatService) Send(ctx context.Context, ownerID, rawMessage string) (string, error) {
	content := strings.TrimSpace(rawMessage)
	if content == "" {
		return "", ErrEmptyMessage
	}

	ctx, span := tracing.Start(ctx, "ChatService.Send",
		attribute.String("owner_id", ownerID),
		attribute.Int("message.length", utf8.RuneCountInString(content)),
	)
	defer span.End()

	userMsg := model.NewUserMessage(content, s.now())
	if err := s.store.AppendMessage(ctx, ownerID, userMsg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist user message")
		return "", fmt.Errorf("failed to save user message: %w", err)
	}
	metrics.RecordMessage(true)
	s.publish(ctx, &model.ChatEvent{Type: model.EventTypeMessageAppended, OwnerID: ownerID, Message: &userMsg})

	reply := s.complete(ctx, content)

	botMsg := model.NewBotMessage(reply, s.now())
	if err := s.store.AppendMessage(ctx, ownerID, botMsg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist bot message")
		return "", fmt.Errorf("failed to save bot message: %w", err)
	}
	metrics.RecordMessage(false)
	s.publish(ctx, &model.ChatEvent{Type: model.EventTypeMessageAppended, OwnerID: ownerID, Message: &botMsg})

	return reply, nil
}

// complete asks the provider for a reply. It never fails: errors are turned
// into one of the fallback texts.
func (s *ChatService) complete(ctx context.Context, content string) string {
	ctx, span := tracing.Start(ctx, "llm.Complete", attribute.String("llm.provider", s.llm.Name()))
	defer span.End()

	start := time.Now()
	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		System: llm.LegalSystemPrompt(content),
		Prompt: content,
	})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = errors.New("completion returned empty content")
	}

	if err != nil {
		span.RecordError(err)
		outcome, reply := "failed", GenericFallback
		if errors.Is(err, llm.ErrRateLimited) {
			outcome, reply = "rate_limited", RateLimitFallback
		}
		metrics.RecordCompletion(s.llm.Name(), outcome, time.Since(start))
		s.logger.Warn("completion failed, using fallback reply",
			zap.String("provider", s.llm.Name()),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return reply
	}

	metrics.RecordCompletion(s.llm.Name(), "success", time.Since(start))
	span.SetAttributes(
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)
	s.logger.Debug("completion received",
		zap.String("provider", s.llm.Name()),
		zap.String("model", resp.Model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)
	return resp.Content
}

// History returns the messages of the owner's primary chat.
func (s *ChatService) History(ctx context.Context, ownerID string) ([]model.Message, error) {
	msgs, err := s.store.GetHistory(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return msgs, nil
}

// ListChats returns every chat of the owner, oldest first.
func (s *ChatService) ListChats(ctx context.Context, ownerID string) ([]model.ChatDocument, error) {
	docs, err := s.store.ListDocuments(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return docs, nil
}

// CreateChat starts a new, empty chat. The title may be empty.
func (s *ChatService) CreateChat(ctx context.Context, ownerID, title string) (*model.ChatDocument, error) {
	title = strings.TrimSpace(title)
	if title != "" {
		if err := validateTitle(title); err != nil {
			return nil, err
		}
	}

	doc, err := s.store.CreateDocument(ctx, ownerID, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	s.publish(ctx, &model.ChatEvent{Type: model.EventTypeChatCreated, OwnerID: ownerID, ChatID: doc.ID})
	return doc, nil
}

// RenameChat sets the title of one of the owner's chats.
func (s *ChatService) RenameChat(ctx context.Context, ownerID, chatID, title string) (*model.ChatDocument, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	doc, err := s.store.RenameDocument(ctx, ownerID, chatID, title)
	if err != nil {
		return nil, fmt.Errorf("failed to rename chat: %w", err)
	}
	s.publish(ctx, &model.ChatEvent{Type: model.EventTypeChatRenamed, OwnerID: ownerID, ChatID: chatID})
	return doc, nil
}

// DeleteChat removes one of the owner's chats.
func (s *ChatService) DeleteChat(ctx context.Context, ownerID, chatID string) error {
	if err := s.store.DeleteDocument(ctx, ownerID, chatID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	s.publish(ctx, &model.ChatEvent{Type: model.EventTypeChatDeleted, OwnerID: ownerID, ChatID: chatID})
	return nil
}

// ClearAll deletes every chat of every owner.
func (s *ChatService) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.store.ClearAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear chats: %w", err)
	}
	metrics.ChatsClearedTotal.Add(float64(n))
	s.logger.Warn("all chats cleared", zap.Int64("deleted", n))
	s.publish(ctx, &model.ChatEvent{Type: model.EventTypeChatsCleared, Count: n})
	return n, nil
}

// SavePreferences validates and replaces the owner's preferences.
func (s *ChatService) SavePreferences(ctx context.Context, ownerID string, req model.PreferencesRequest) error {
	theme := model.Theme(strings.ToLower(strings.TrimSpace(req.Theme)))
	if !theme.Valid() {
		return fmt.Errorf("%w: theme must be light or dark", ErrInvalidPreferences)
	}
	language := strings.TrimSpace(req.Language)
	if !utf8.ValidString(language) || utf8.RuneCountInString(language) > MaxLanguageLength {
		return fmt.Errorf("%w: language is too long", ErrInvalidPreferences)
	}

	prefs := model.Preferences{OwnerID: ownerID, Theme: theme, Language: language}
	if err := s.store.UpsertPreferences(ctx, prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	s.publish(ctx, &model.ChatEvent{Type: model.EventTypePreferencesUpdated, OwnerID: ownerID})
	return nil
}

// GetPreferences returns the owner's saved preferences.
func (s *ChatService) GetPreferences(ctx context.Context, ownerID string) (*model.Preferences, error) {
	prefs, err := s.store.GetPreferences(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return prefs, nil
}

// Ping reports whether the store is reachable.
func (s *ChatService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTitle)
	}
	if !utf8.ValidString(title) {
		return fmt.Errorf("%w: title must be valid UTF-8", ErrInvalidTitle)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTitle, MaxTitleLength)
	}
	return nil
}

// publish sends an event without failing the caller.
func (s *ChatService) publish(ctx context.Context, event *model.ChatEvent) {
	event.ID = uuid.New().String()
	event.CreatedAt = s.now()
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish chat event",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
