package services

import (
	"context"
	"sync"
	"testing"
	"time"

	models "github.com/phillip/riseandserve-go/models"
	"github.com/phillip/riseandserve-go/repository"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

var (
	creator = models.Identity{ID: "u-creator", Email: "Host@Example.com", Name: "Hana Host", Photo: "https://img.example.com/h.png"}
	alice   = models.Identity{ID: "u-alice", Email: "alice@example.com", Name: "Alice"}
	bob     = models.Identity{ID: "u-bob", Email: "bob@example.com", Name: "Bob"}
	admin   = models.Identity{ID: "u-admin", Email: "admin@example.com", Name: "Ada", Role: models.RoleAdmin}
)

// recordingPublisher captures domain events.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type testEnv struct {
	store     *repository.MemoryEventStore
	chats     *repository.MemoryChatStore
	publisher *recordingPublisher
	events    *EventService
	queries   *QueryService
	joins     *ParticipationService
	passes    *PassService
	chat      *ChatService
}

func newTestEnv(t *testing.T, hooks ...DeleteHook) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     repository.NewMemoryEventStore(),
		chats:     repository.NewMemoryChatStore(),
		publisher: &recordingPublisher{},
	}
	deps := Deps{
		Clock:     func() time.Time { return testNow },
		Publisher: env.publisher,
	}
	env.chat = NewChatService(env.chats, nil, deps)
	env.events = NewEventService(env.store, deps, hooks...)
	env.queries = NewQueryService(env.store, deps)
	env.joins = NewParticipationService(env.store, deps, nil)
	env.passes = NewPassService(env.store, deps)
	return env
}

func draft(title string, typ models.EventType, date time.Time) models.EventDraft {
	return models.EventDraft{
		Title:       title,
		Description: title + " with the neighbourhood",
		EventType:   typ,
		Thumbnail:   "https://img.example.com/thumb.jpg",
		Location:    "Marina Beach, Chennai",
		EventDate:   date,
	}
}

func mustCreate(t *testing.T, env *testEnv, d models.EventDraft) *models.Event {
	t.Helper()
	event, err := env.events.Create(context.Background(), d, creator)
	if err != nil {
		t.Fatalf("create %q: %v", d.Title, err)
	}
	return event
}

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
