package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/phillip/riseandserve-go/broker"
	models "github.com/phillip/riseandserve-go/models"
)

func TestJoinTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	event := mustCreate(t, env, draft("Beach Cleanup", models.Cleanup, testNow.Add(24*time.Hour)))
	id := event.ID.Hex()

	joined, err := env.joins.Join(context.Background(), id, alice)
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if len(joined.Participants) != 1 || joined.Participants[0].Email != "alice@example.com" || joined.Participants[0].Name != "Alice" {
		t.Fatalf("unexpected roster %v", joined.Participants)
	}

	_, err = env.joins.Join(context.Background(), id, alice)
	requireKind(t, err, KindConflict)

	// Same person, different case.
	loud := alice
	loud.Email = "ALICE@Example.COM"
	_, err = env.joins.Join(context.Background(), id, loud)
	requireKind(t, err, KindConflict)

	stored, err := env.events.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Participants) != 1 {
		t.Fatalf("expected one participant, got %v", stored.Participants)
	}
}

func TestCreatorCannotJoin(t *testing.T) {
	env := newTestEnv(t)
	event := mustCreate(t, env, draft("Beach Cleanup", models.Cleanup, testNow.Add(24*time.Hour)))
	id := event.ID.Hex()

	_, err := env.joins.Join(context.Background(), id, creator)
	requireKind(t, err, KindForbidden)

	// Still rejected once others have joined.
	if _, err := env.joins.Join(context.Background(), id, alice); err != nil {
		t.Fatalf("join: %v", err)
	}
	_, err = env.joins.Join(context.Background(), id, creator)
	requireKind(t, err, KindForbidden)
}

func TestJoinMissingAndInvalidEvent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.joins.Join(context.Background(), "65f0c0ffee0000000000abcd", alice)
	requireKind(t, err, KindNotFound)

	_, err = env.joins.Join(context.Background(), "nope", alice)
	requireKind(t, err, KindValidation)

	_, err = env.joins.Join(context.Background(), "65f0c0ffee0000000000abcd", models.Identity{})
	requireKind(t, err, KindUnauthorized)
}

func TestJoinPublishesAndPreservesOrder(t *testing.T) {
	env := newTestEnv(t)
	event := mustCreate(t, env, draft("Beach Cleanup", models.Cleanup, testNow.Add(24*time.Hour)))
	id := event.ID.Hex()

	for _, who := range []models.Identity{bob, alice} {
		if _, err := env.joins.Join(context.Background(), id, who); err != nil {
			t.Fatalf("join %s: %v", who.Email, err)
		}
	}
	stored, _ := env.events.Get(context.Background(), id)
	if stored.Participants[0].Email != bob.Email || stored.Participants[1].Email != alice.Email {
		t.Fatalf("expected join order preserved, got %v", stored.Participants)
	}

	var joins int
	for _, key := range env.publisher.published() {
		if key == broker.EventJoined {
			joins++
		}
	}
	if joins != 2 {
		t.Fatalf("expected 2 joined events published, got %d", joins)
	}
}

func TestConcurrentJoinsSameUser(t *testing.T) {
	env := newTestEnv(t)
	event := mustCreate(t, env, draft("Beach Cleanup", models.Cleanup, testNow.Add(24*time.Hour)))
	id := event.ID.Hex()

	const callers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.joins.Join(context.Background(), id, alice)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case IsKind(err, KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != callers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", callers-1, ok, conflicts)
	}
	stored, _ := env.events.Get(context.Background(), id)
	if len(stored.Participants) != 1 {
		t.Fatalf("expected exactly one roster entry, got %d", len(stored.Participants))
	}
}

func TestConcurrentJoinsDistinctUsers(t *testing.T) {
	env := newTestEnv(t)
	event := mustCreate(t, env, draft("Beach Cleanup", models.Cleanup, testNow.Add(24*time.Hour)))
	id := event.ID.Hex()

	const callers = 25
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			who := models.Identity{ID: fmt.Sprintf("u-%d", i), Email: fmt.Sprintf("v%d@example.com", i)}
			if _, err := env.joins.Join(context.Background(), id, who); err != nil {
				t.Errorf("join %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	stored, _ := env.events.Get(context.Background(), id)
	if len(stored.Participants) != callers {
		t.Fatalf("expected %d participants, got %d", callers, len(stored.Participants))
	}
}

func TestIsJoined(t *testing.T) {
	env := newTestEnv(t)
	event := mustCreate(t, env, draft("Beach Cleanup", models.Cleanup, testNow.Add(24*time.Hour)))
	id := event.ID.Hex()

	joined, err := env.joins.IsJoined(context.Background(), id, alice.Email)
	if err != nil || joined {
		t.Fatalf("expected not joined, got %v, %v", joined, err)
	}
	if _, err := env.joins.Join(context.Background(), id, alice); err != nil {
		t.Fatalf("join: %v", err)
	}
	joined, err = env.joins.IsJoined(context.Background(), id, "Alice@Example.com")
	if err != nil || !joined {
		t.Fatalf("expected joined, got %v, %v", joined, err)
	}
}

type notifierFunc func(ctx context.Context, event models.Event, p models.Snapshot) error

func (f notifierFunc) JoinConfirmed(ctx context.Context, event models.Event, p models.Snapshot) error {
	return f(ctx, event, p)
}

func TestJoinNotifiesParticipant(t *testing.T) {
	env := newTestEnv(t)
	got := make(chan models.Snapshot, 1)
	env.joins = NewParticipationService(env.store, Deps{Clock: func() time.Time { return testNow }},
		notifierFunc(func(_ context.Context, _ models.Event, p models.Snapshot) error {
			got <- p
			return nil
		}))
	event := mustCreate(t, env, draft("Beach Cleanup", models.Cleanup, testNow.Add(24*time.Hour)))

	if _, err := env.joins.Join(context.Background(), event.ID.Hex(), alice); err != nil {
		t.Fatalf("join: %v", err)
	}
	select {
	case p := <-got:
		if p.Email != alice.Email {
			t.Fatalf("notified %s, want %s", p.Email, alice.Email)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
}
