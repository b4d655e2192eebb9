package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/phillip/riseandserve-go/broker"
)

const defaultStoreTimeout = 5 * time.Second

// Deps carries the collaborators shared by every service.
type Deps struct {
	Clock        func() time.Time
	Logger       *zap.Logger
	Publisher    broker.Publisher
	StoreTimeout time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = broker.NewLogPublisher(d.Logger)
	}
	if d.StoreTimeout <= 0 {
		d.StoreTimeout = defaultStoreTimeout
	}
	return d
}

func (d Deps) now() time.Time {
	return d.Clock().UTC()
}

// storeCtx bounds a single store round trip.
func (d Deps) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.StoreTimeout)
}

// publish emits a domain event without failing the calling operation.
func (d Deps) publish(ctx context.Context, routingKey string, payload any) {
	if err := d.Publisher.Publish(ctx, routingKey, payload); err != nil {
		d.Logger.Warn("failed to publish domain event", zap.String("routingKey", routingKey), zap.Error(err))
	}
}
