package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/phillip/riseandserve-go/broker"
	"github.com/phillip/riseandserve-go/metrics"
	models "github.com/phillip/riseandserve-go/models"
	"github.com/phillip/riseandserve-go/repository"
)

// appendAttempts bounds the retries when the roster guard misses but the
// reloaded event shows no reason for it (deleted and recreated in between).
const appendAttempts = 3

// JoinNotifier is told about successful joins, e.g. to send a confirmation.
type JoinNotifier interface {
	JoinConfirmed(ctx context.Context, event models.Event, participant models.Snapshot) error
}

// ParticipationService is the only writer of event rosters.
type ParticipationService struct {
	store    repository.EventStore
	deps     Deps
	notifier JoinNotifier
}

func NewParticipationService(store repository.EventStore, deps Deps, notifier JoinNotifier) *ParticipationService {
	return &ParticipationService{store: store, deps: deps.withDefaults(), notifier: notifier}
}

// Join appends the identity to the event roster. The creator cannot join
// and a second join by the same email is a Conflict.
func (s *ParticipationService) Join(ctx context.Context, eventID string, identity models.Identity) (*models.Event, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	oid, err := parseEventID(eventID)
	if err != nil {
		return nil, err
	}
	participant := identity.Snapshot()

	for attempt := 0; attempt < appendAttempts; attempt++ {
		updated, err := s.appendOnce(ctx, oid, participant)
		if err == nil {
			metrics.JoinAttempts.WithLabelValues("joined").Inc()
			s.deps.Logger.Info("participant joined",
				zap.String("eventId", updated.ID.Hex()),
				zap.String("email", participant.Email),
				zap.Int("participants", len(updated.Participants)))
			s.deps.publish(ctx, broker.EventJoined, map[string]any{
				"eventId":     updated.ID.Hex(),
				"participant": participant,
			})
			s.notify(*updated, participant)
			return updated, nil
		}
		if !errors.Is(err, repository.ErrNotAppended) {
			metrics.JoinAttempts.WithLabelValues("error").Inc()
			return nil, storeError(err, "event not found")
		}

		event, ferr := s.load(ctx, oid)
		if ferr != nil {
			metrics.JoinAttempts.WithLabelValues(KindOf(ferr).String()).Inc()
			return nil, ferr
		}
		if event.IsCreator(participant.Email) {
			metrics.JoinAttempts.WithLabelValues("forbidden").Inc()
			return nil, Forbidden("cannot join own event")
		}
		if event.HasParticipant(participant.Email) {
			metrics.JoinAttempts.WithLabelValues("conflict").Inc()
			return nil, Conflict("already joined")
		}
	}
	return nil, &Error{Kind: KindTransient, Message: "roster changed concurrently, try again"}
}

// IsJoined reports whether email is on the event's roster.
func (s *ParticipationService) IsJoined(ctx context.Context, eventID, email string) (bool, error) {
	oid, err := parseEventID(eventID)
	if err != nil {
		return false, err
	}
	event, err := s.load(ctx, oid)
	if err != nil {
		return false, err
	}
	return event.HasParticipant(email), nil
}

func (s *ParticipationService) appendOnce(ctx context.Context, oid primitive.ObjectID, p models.Snapshot) (*models.Event, error) {
	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	return s.store.AppendParticipant(sctx, oid, p, s.deps.now())
}

func (s *ParticipationService) load(ctx context.Context, oid primitive.ObjectID) (*models.Event, error) {
	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	event, err := s.store.FindByID(sctx, oid)
	if err != nil {
		return nil, storeError(err, "event not found")
	}
	return event, nil
}

// notify runs outside the request so a slow mail provider cannot delay the
// join response.
func (s *ParticipationService) notify(event models.Event, p models.Snapshot) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.JoinConfirmed(ctx, event, p); err != nil {
			s.deps.Logger.Warn("join confirmation failed",
				zap.String("eventId", event.ID.Hex()), zap.String("email", p.Email), zap.Error(err))
		}
	}()
}
