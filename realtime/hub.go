package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/phillip/riseandserve-go/metrics"
	models "github.com/phillip/riseandserve-go/models"
)

const (
	channelPrefix = "chat:"
	// subscriberBuffer frames are queued per subscriber before new frames
	// are dropped for it.
	subscriberBuffer = 64
)

// Subscription receives the frames of one event's discussion.
type Subscription struct {
	EventID string
	C       chan models.ChatFrame
}

// Hub fans discussion frames out to subscribers, keyed by event id. With a
// Redis client attached, frames travel through Redis pub/sub so that every
// instance running RunRelay delivers them to its own subscribers.
type Hub struct {
	mu    sync.RWMutex
	subs  map[string]map[*Subscription]struct{}
	redis *redis.Client
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
		log:  log,
	}
}

// UseRedis routes publishes through Redis. Call before serving traffic.
func (h *Hub) UseRedis(client *redis.Client) {
	h.redis = client
}

func (h *Hub) Subscribe(eventID string) *Subscription {
	sub := &Subscription{EventID: eventID, C: make(chan models.ChatFrame, subscriberBuffer)}
	h.mu.Lock()
	if h.subs[eventID] == nil {
		h.subs[eventID] = make(map[*Subscription]struct{})
	}
	h.subs[eventID][sub] = struct{}{}
	h.mu.Unlock()
	metrics.ChatSubscribers.Inc()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if set, ok := h.subs[sub.EventID]; ok {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			metrics.ChatSubscribers.Dec()
		}
		if len(set) == 0 {
			delete(h.subs, sub.EventID)
		}
	}
	h.mu.Unlock()
}

// Subscribers returns the number of local subscribers for an event.
func (h *Hub) Subscribers(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[eventID])
}

// Publish sends a frame to every subscriber of frame.EventID. If Redis is
// unreachable the frame is still delivered locally and the error returned.
func (h *Hub) Publish(ctx context.Context, frame models.ChatFrame) error {
	if h.redis == nil {
		h.deliver(frame)
		return nil
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal chat frame: %w", err)
	}
	if err := h.redis.Publish(ctx, channelPrefix+frame.EventID, data).Err(); err != nil {
		h.deliver(frame)
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// RunRelay feeds frames published through Redis, by any instance, to local
// subscribers until ctx is done.
func (h *Hub) RunRelay(ctx context.Context) error {
	if h.redis == nil {
		return nil
	}
	pubsub := h.redis.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var frame models.ChatFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				h.log.Warn("dropping malformed chat frame", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if frame.EventID == "" {
				frame.EventID = strings.TrimPrefix(msg.Channel, channelPrefix)
			}
			h.deliver(frame)
		}
	}
}

func (h *Hub) deliver(frame models.ChatFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[frame.EventID] {
		select {
		case sub.C <- frame:
		default:
			h.log.Debug("chat subscriber is slow, frame dropped", zap.String("eventId", frame.EventID))
		}
	}
}
