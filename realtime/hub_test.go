package realtime

import (
	"context"
	"testing"
	"time"

	models "github.com/phillip/riseandserve-go/models"
)

func recv(t *testing.T, sub *Subscription) models.ChatFrame {
	t.Helper()
	select {
	case f := <-sub.C:
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return models.ChatFrame{}
	}
}

func TestHubFanOutByEvent(t *testing.T) {
	h := NewHub(nil)
	a1 := h.Subscribe("evt-a")
	a2 := h.Subscribe("evt-a")
	b := h.Subscribe("evt-b")
	defer h.Unsubscribe(a1)
	defer h.Unsubscribe(a2)
	defer h.Unsubscribe(b)

	frame := models.ChatFrame{Type: models.ChatFrameMessage, EventID: "evt-a", Message: &models.ChatMessage{ID: "m1"}}
	if err := h.Publish(context.Background(), frame); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for _, sub := range []*Subscription{a1, a2} {
		if got := recv(t, sub); got.Message.ID != "m1" {
			t.Fatalf("unexpected frame %+v", got)
		}
	}
	select {
	case f := <-b.C:
		t.Fatalf("other event received %+v", f)
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub(nil)
	sub := h.Subscribe("evt-a")
	if h.Subscribers("evt-a") != 1 {
		t.Fatalf("expected 1 subscriber")
	}
	h.Unsubscribe(sub)
	h.Unsubscribe(sub)
	if h.Subscribers("evt-a") != 0 {
		t.Fatalf("expected 0 subscribers, got %d", h.Subscribers("evt-a"))
	}
	_ = h.Publish(context.Background(), models.ChatFrame{Type: models.ChatFrameDeleted, EventID: "evt-a", ID: "m1"})
	select {
	case f := <-sub.C:
		t.Fatalf("unsubscribed client received %+v", f)
	default:
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub(nil)
	slow := h.Subscribe("evt-a")
	defer h.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = h.Publish(context.Background(), models.ChatFrame{Type: models.ChatFrameDeleted, EventID: "evt-a"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if len(slow.C) != subscriberBuffer {
		t.Fatalf("expected a full buffer of %d, got %d", subscriberBuffer, len(slow.C))
	}
}

func TestRunRelayWithoutRedisReturns(t *testing.T) {
	if err := NewHub(nil).RunRelay(context.Background()); err != nil {
		t.Fatalf("RunRelay: %v", err)
	}
}
