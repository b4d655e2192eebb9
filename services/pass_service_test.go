package services

import (
	"context"
	"testing"
	"time"

	models "github.com/phillip/riseandserve-go/models"
)

func TestIssuePass(t *testing.T) {
	env := newTestEnv(t)
	cleanup := mustCreate(t, env, draft("Beach Cleanup", models.Cleanup, testNow.Add(24*time.Hour)))
	id := cleanup.ID.Hex()
	if _, err := env.joins.Join(context.Background(), id, alice); err != nil {
		t.Fatalf("join: %v", err)
	}

	pass, err := env.passes.Issue(context.Background(), id, alice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	want := models.PassPayload{
		EventID:          id,
		EventTitle:       "Beach Cleanup",
		EventDate:        cleanup.EventDate,
		EventType:        models.Cleanup,
		ParticipantName:  "Alice",
		ParticipantEmail: "alice@example.com",
		IssuedAt:         testNow,
	}
	if *pass != want {
		t.Fatalf("got %+v\nwant %+v", *pass, want)
	}
}

func TestIssuePassIsDeterministic(t *testing.T) {
	env := newTestEnv(t)
	clock := testNow
	env.passes = NewPassService(env.store, Deps{Clock: func() time.Time { return clock }})
	event := mustCreate(t, env, draft("Tree planting", models.Plantation, testNow.Add(24*time.Hour)))
	if _, err := env.joins.Join(context.Background(), event.ID.Hex(), bob); err != nil {
		t.Fatalf("join: %v", err)
	}

	first, err := env.passes.Issue(context.Background(), event.ID.Hex(), bob)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock = clock.Add(time.Minute)
	second, err := env.passes.Issue(context.Background(), event.ID.Hex(), bob)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if first.IssuedAt.Equal(second.IssuedAt) {
		t.Fatal("expected issuedAt to move with the clock")
	}
	a, b := *first, *second
	a.IssuedAt, b.IssuedAt = time.Time{}, time.Time{}
	if a != b {
		t.Fatalf("payloads differ beyond issuedAt:\n%+v\n%+v", a, b)
	}
}

func TestIssuePassGating(t *testing.T) {
	env := newTestEnv(t)
	cleanup := mustCreate(t, env, draft("Beach Cleanup", models.Cleanup, testNow.Add(24*time.Hour)))
	education := mustCreate(t, env, draft("Literacy class", models.Education, testNow.Add(48*time.Hour)))
	meeting := mustCreate(t, env, draft("Town hall", models.CommunityMeeting, testNow.Add(72*time.Hour)))

	for _, e := range []*models.Event{education, meeting} {
		if _, err := env.joins.Join(context.Background(), e.ID.Hex(), alice); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	tests := []struct {
		name  string
		event *models.Event
		who   models.Identity
		kind  Kind
	}{
		{"education is not volunteering", education, alice, KindForbidden},
		{"community meeting is not volunteering", meeting, alice, KindForbidden},
		{"not a participant", cleanup, bob, KindForbidden},
		{"creator is not a participant", cleanup, creator, KindForbidden},
		{"non participant of non volunteering", education, bob, KindForbidden},
		{"anonymous", cleanup, models.Identity{}, KindUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.passes.Issue(context.Background(), tt.event.ID.Hex(), tt.who)
			requireKind(t, err, tt.kind)
		})
	}

	_, err := env.passes.Issue(context.Background(), "65f0c0ffee0000000000abcd", alice)
	requireKind(t, err, KindNotFound)
}

func TestIssuePassEveryVolunteeringType(t *testing.T) {
	env := newTestEnv(t)
	for i, typ := range models.EventTypes {
		event := mustCreate(t, env, draft(string(typ), typ, testNow.Add(time.Duration(i+1)*time.Hour)))
		if _, err := env.joins.Join(context.Background(), event.ID.Hex(), alice); err != nil {
			t.Fatalf("join: %v", err)
		}
		_, err := env.passes.Issue(context.Background(), event.ID.Hex(), alice)
		if typ.IsVolunteering() {
			if err != nil {
				t.Fatalf("%s: expected pass, got %v", typ, err)
			}
		} else {
			requireKind(t, err, KindForbidden)
		}
	}
}
