package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/riseandserve-go/models"
)

// MemoryEventStore keeps events in process. It honours the same ordering and
// roster guarantees as MongoEventStore.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events map[primitive.ObjectID]*models.Event
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{events: make(map[primitive.ObjectID]*models.Event)}
}

func (s *MemoryEventStore) Insert(ctx context.Context, event *models.Event) error {
	if err := ctx.Err(); err != nil {
		return wrap("insert event", err)
	}
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Participants == nil {
		event.Participants = []models.Snapshot{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = cloneEvent(event)
	return nil
}

func (s *MemoryEventStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("find event", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEvent(event), nil
}

func (s *MemoryEventStore) Find(ctx context.Context, filter EventFilter, order SortOrder) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("find events", err)
	}
	s.mu.RLock()
	events := []models.Event{}
	for _, event := range s.events {
		if matches(event, filter) {
			events = append(events, *cloneEvent(event))
		}
	}
	s.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		ka, kb := a.EventDate, b.EventDate
		if order == SortByCreatedAt {
			ka, kb = a.CreatedAt, b.CreatedAt
		}
		if !ka.Equal(kb) {
			return ka.Before(kb)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
	return events, nil
}

func matches(event *models.Event, filter EventFilter) bool {
	if filter.Keyword != "" {
		kw := strings.ToLower(filter.Keyword)
		if !strings.Contains(strings.ToLower(event.Title), kw) &&
			!strings.Contains(strings.ToLower(event.Description), kw) {
			return false
		}
	}
	if filter.Type != "" && event.EventType != filter.Type {
		return false
	}
	if filter.CreatorEmail != "" && event.Creator.Email != models.NormalizeEmail(filter.CreatorEmail) {
		return false
	}
	if filter.ParticipantEmail != "" && !event.HasParticipant(filter.ParticipantEmail) {
		return false
	}
	if !filter.After.IsZero() && !event.EventDate.After(filter.After) {
		return false
	}
	return true
}

func (s *MemoryEventStore) UpdateDetails(ctx context.Context, id primitive.ObjectID, details models.EventDetails, updatedAt time.Time) (*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("update event", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	event.Title = details.Title
	event.Description = details.Description
	event.EventType = details.EventType
	event.Thumbnail = details.Thumbnail
	event.Location = details.Location
	event.EventDate = details.EventDate
	event.UpdatedAt = updatedAt
	return cloneEvent(event), nil
}

func (s *MemoryEventStore) AppendParticipant(ctx context.Context, id primitive.ObjectID, participant models.Snapshot, updatedAt time.Time) (*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("append participant", err)
	}
	participant.Email = models.NormalizeEmail(participant.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok || event.IsCreator(participant.Email) || event.HasParticipant(participant.Email) {
		return nil, ErrNotAppended
	}
	event.Participants = append(event.Participants, participant)
	event.UpdatedAt = updatedAt
	return cloneEvent(event), nil
}

func (s *MemoryEventStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return wrap("delete event", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func cloneEvent(e *models.Event) *models.Event {
	c := *e
	c.Participants = append([]models.Snapshot{}, e.Participants...)
	return &c
}

// MemoryChatStore is the in-process counterpart of MongoChatStore.
type MemoryChatStore struct {
	mu   sync.RWMutex
	msgs map[string][]models.ChatMessage
}

func NewMemoryChatStore() *MemoryChatStore {
	return &MemoryChatStore{msgs: make(map[string][]models.ChatMessage)}
}

func (s *MemoryChatStore) Insert(ctx context.Context, msg *models.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return wrap("insert chat message", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs[msg.EventID] = append(s.msgs[msg.EventID], *msg)
	return nil
}

func (s *MemoryChatStore) ListByEvent(ctx context.Context, eventID string) ([]models.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("find chat messages", err)
	}
	s.mu.RLock()
	msgs := append([]models.ChatMessage{}, s.msgs[eventID]...)
	s.mu.RUnlock()

	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return msgs[i].ID < msgs[j].ID
	})
	return msgs, nil
}

func (s *MemoryChatStore) FindByID(ctx context.Context, eventID, id string) (*models.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("find chat message", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.msgs[eventID] {
		if m.ID == id {
			msg := m
			return &msg, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryChatStore) Delete(ctx context.Context, eventID, id string) error {
	if err := ctx.Err(); err != nil {
		return wrap("delete chat message", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.msgs[eventID]
	for i, m := range msgs {
		if m.ID == id {
			s.msgs[eventID] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryChatStore) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, wrap("purge chat messages", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.msgs[eventID]))
	delete(s.msgs, eventID)
	return n, nil
}
