package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phillip/riseandserve-go/metrics"
	models "github.com/phillip/riseandserve-go/models"
	"github.com/phillip/riseandserve-go/repository"
)

const MaxChatMessageLength = 2000

// ChatBroadcaster delivers frames to live subscribers of a discussion.
type ChatBroadcaster interface {
	Publish(ctx context.Context, frame models.ChatFrame) error
}

// ChatService is the discussion channel. It is a separate storage domain
// from events: messages are keyed by event id and never consult the event store.
type ChatService struct {
	store     repository.ChatStore
	broadcast ChatBroadcaster
	deps      Deps
}

func NewChatService(store repository.ChatStore, broadcast ChatBroadcaster, deps Deps) *ChatService {
	return &ChatService{store: store, broadcast: broadcast, deps: deps.withDefaults()}
}

func (s *ChatService) Post(ctx context.Context, eventID string, identity models.Identity, text string) (*models.ChatMessage, error) {
	if err := requireUserID(identity); err != nil {
		return nil, err
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, Validation("event id is required", "eventId")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, Validation("message is empty", "message")
	}
	if utf8.RuneCountInString(text) > MaxChatMessageLength {
		return nil, Validation("message is too long", "message")
	}

	msg := &models.ChatMessage{
		ID:         uuid.NewString(),
		EventID:    eventID,
		UserID:     identity.ID,
		UserName:   identity.DisplayName(),
		UserAvatar: identity.Photo,
		Message:    text,
		Timestamp:  s.deps.now(),
	}

	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	if err := s.store.Insert(sctx, msg); err != nil {
		return nil, storeError(err, "message not found")
	}

	metrics.ChatMessages.Inc()
	s.fanOut(ctx, models.ChatFrame{Type: models.ChatFrameMessage, EventID: eventID, Message: msg})
	return msg, nil
}

// List returns the discussion oldest first.
func (s *ChatService) List(ctx context.Context, eventID string) ([]models.ChatMessage, error) {
	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	msgs, err := s.store.ListByEvent(sctx, strings.TrimSpace(eventID))
	if err != nil {
		return nil, storeError(err, "message not found")
	}
	return msgs, nil
}

// Delete removes a message. Only its author or an admin may do so.
func (s *ChatService) Delete(ctx context.Context, eventID, messageID string, identity models.Identity) error {
	if err := requireUserID(identity); err != nil {
		return err
	}

	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	msg, err := s.store.FindByID(sctx, eventID, messageID)
	if err != nil {
		return storeError(err, "message not found")
	}
	isAuthor := msg.UserID != "" && msg.UserID == identity.ID
	if !isAuthor && !identity.IsAdmin() {
		return Forbidden("only the author or an administrator can delete this message")
	}
	if err := s.store.Delete(sctx, eventID, messageID); err != nil {
		return storeError(err, "message not found")
	}

	s.fanOut(ctx, models.ChatFrame{Type: models.ChatFrameDeleted, EventID: eventID, ID: messageID})
	return nil
}

// PurgeEvent drops the whole discussion of a deleted event.
func (s *ChatService) PurgeEvent(ctx context.Context, event models.Event) error {
	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	n, err := s.store.DeleteByEvent(sctx, event.ID.Hex())
	if err != nil {
		return storeError(err, "message not found")
	}
	s.deps.Logger.Info("purged event discussion", zap.String("eventId", event.ID.Hex()), zap.Int64("messages", n))
	return nil
}

func (s *ChatService) fanOut(ctx context.Context, frame models.ChatFrame) {
	if s.broadcast == nil {
		return
	}
	if err := s.broadcast.Publish(ctx, frame); err != nil {
		s.deps.Logger.Warn("chat broadcast failed", zap.String("eventId", frame.EventID), zap.Error(err))
	}
}
