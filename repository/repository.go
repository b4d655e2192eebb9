package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/phillip/riseandserve-go/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrNotAppended means the conditional roster append matched nothing:
	// the event is gone, the email is the creator's, or it is already listed.
	ErrNotAppended = errors.New("participant not appended")
	// ErrUnavailable marks timeouts and connectivity failures.
	ErrUnavailable = errors.New("store unavailable")
)

type SortOrder int

const (
	SortByEventDate SortOrder = iota
	SortByCreatedAt
)

// EventFilter narrows Find. Zero fields do not filter.
type EventFilter struct {
	Keyword          string
	Type             models.EventType
	CreatorEmail     string
	ParticipantEmail string
	After            time.Time
}

// EventStore persists events. Only AppendParticipant writes the roster.
type EventStore interface {
	Insert(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	Find(ctx context.Context, filter EventFilter, order SortOrder) ([]models.Event, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, details models.EventDetails, updatedAt time.Time) (*models.Event, error)
	AppendParticipant(ctx context.Context, id primitive.ObjectID, participant models.Snapshot, updatedAt time.Time) (*models.Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ChatStore persists discussion messages, partitioned by event id.
type ChatStore interface {
	Insert(ctx context.Context, msg *models.ChatMessage) error
	ListByEvent(ctx context.Context, eventID string) ([]models.ChatMessage, error)
	FindByID(ctx context.Context, eventID, id string) (*models.ChatMessage, error)
	Delete(ctx context.Context, eventID, id string) error
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
