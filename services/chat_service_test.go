package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	models "github.com/phillip/riseandserve-go/models"
	"github.com/phillip/riseandserve-go/repository"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames []models.ChatFrame
	err    error
}

func (r *frameRecorder) Publish(_ context.Context, frame models.ChatFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return r.err
}

func newChatService(t *testing.T) (*ChatService, *frameRecorder, *time.Time) {
	t.Helper()
	clock := testNow
	rec := &frameRecorder{}
	svc := NewChatService(repository.NewMemoryChatStore(), rec, Deps{Clock: func() time.Time { return clock }})
	return svc, rec, &clock
}

func TestChatPostAndList(t *testing.T) {
	svc, rec, clock := newChatService(t)
	ctx := context.Background()

	first, err := svc.Post(ctx, "evt-1", alice, "  who's bringing gloves?  ")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if first.ID == "" || first.Message != "who's bringing gloves?" || first.UserName != "Alice" || first.UserID != alice.ID {
		t.Fatalf("unexpected message %+v", first)
	}
	if !first.Timestamp.Equal(testNow) {
		t.Fatalf("timestamp = %v", first.Timestamp)
	}

	*clock = clock.Add(time.Minute)
	anon := models.Identity{ID: "u-x", Email: "x@example.com"}
	second, err := svc.Post(ctx, "evt-1", anon, "me")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if second.UserName != "x@example.com" {
		t.Fatalf("expected email as display name, got %q", second.UserName)
	}
	if _, err := svc.Post(ctx, "evt-2", bob, "other event"); err != nil {
		t.Fatalf("post: %v", err)
	}

	msgs, err := svc.List(ctx, "evt-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != first.ID || msgs[1].ID != second.ID {
		t.Fatalf("expected the two evt-1 messages oldest first, got %+v", msgs)
	}

	if len(rec.frames) != 3 || rec.frames[0].Type != models.ChatFrameMessage || rec.frames[0].Message.ID != first.ID {
		t.Fatalf("unexpected frames %+v", rec.frames)
	}
}

func TestChatPostValidation(t *testing.T) {
	svc, rec, _ := newChatService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		who  models.Identity
		text string
		kind Kind
	}{
		{"empty", "evt-1", alice, "", KindValidation},
		{"whitespace", "evt-1", alice, " \n\t ", KindValidation},
		{"too long", "evt-1", alice, strings.Repeat("ä", MaxChatMessageLength+1), KindValidation},
		{"no event", " ", alice, "hi", KindValidation},
		{"anonymous", "evt-1", models.Identity{}, "hi", KindUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Post(ctx, tt.id, tt.who, tt.text)
			requireKind(t, err, tt.kind)
		})
	}

	if _, err := svc.Post(ctx, "evt-1", alice, strings.Repeat("ä", MaxChatMessageLength)); err != nil {
		t.Fatalf("max length message rejected: %v", err)
	}
	if len(rec.frames) != 1 {
		t.Fatalf("rejected posts must not broadcast, got %d frames", len(rec.frames))
	}
}

func TestChatDelete(t *testing.T) {
	svc, rec, _ := newChatService(t)
	ctx := context.Background()

	msg, err := svc.Post(ctx, "evt-1", alice, "hello")
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	requireKind(t, svc.Delete(ctx, "evt-1", msg.ID, bob), KindForbidden)
	requireKind(t, svc.Delete(ctx, "evt-2", msg.ID, alice), KindNotFound)

	if err := svc.Delete(ctx, "evt-1", msg.ID, alice); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	requireKind(t, svc.Delete(ctx, "evt-1", msg.ID, alice), KindNotFound)

	last := rec.frames[len(rec.frames)-1]
	if last.Type != models.ChatFrameDeleted || last.ID != msg.ID || last.EventID != "evt-1" {
		t.Fatalf("unexpected delete frame %+v", last)
	}

	other, _ := svc.Post(ctx, "evt-1", bob, "spam")
	if err := svc.Delete(ctx, "evt-1", other.ID, admin); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestChatRequiresUserID(t *testing.T) {
	store := repository.NewMemoryChatStore()
	svc := NewChatService(store, &frameRecorder{}, Deps{Clock: func() time.Time { return testNow }})
	ctx := context.Background()

	noID := models.Identity{Email: "b@example.com", Name: "B"}
	_, err := svc.Post(ctx, "evt-1", noID, "hello")
	requireKind(t, err, KindUnauthorized)

	orphan := &models.ChatMessage{ID: "m-orphan", EventID: "evt-1", UserName: "A", Message: "hi", Timestamp: testNow}
	if err := store.Insert(ctx, orphan); err != nil {
		t.Fatalf("insert: %v", err)
	}
	requireKind(t, svc.Delete(ctx, "evt-1", orphan.ID, noID), KindUnauthorized)
	requireKind(t, svc.Delete(ctx, "evt-1", orphan.ID, alice), KindForbidden)

	if err := svc.Delete(ctx, "evt-1", orphan.ID, admin); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestChatBroadcastFailureDoesNotFailPost(t *testing.T) {
	svc, rec, _ := newChatService(t)
	rec.err = errors.New("redis down")

	if _, err := svc.Post(context.Background(), "evt-1", alice, "still saved"); err != nil {
		t.Fatalf("post: %v", err)
	}
	msgs, _ := svc.List(context.Background(), "evt-1")
	if len(msgs) != 1 {
		t.Fatalf("expected message stored, got %d", len(msgs))
	}
}
