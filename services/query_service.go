package services

import (
	"context"
	"strings"

	models "github.com/phillip/riseandserve-go/models"
	"github.com/phillip/riseandserve-go/repository"
)

// Query is a listing filter. An empty Keyword and an "All" or empty Type
// return every event.
type Query struct {
	Keyword  string
	Type     string
	Upcoming bool
}

// QueryService serves read-only listings, always ordered soonest first.
type QueryService struct {
	store repository.EventStore
	deps  Deps
}

func NewQueryService(store repository.EventStore, deps Deps) *QueryService {
	return &QueryService{store: store, deps: deps.withDefaults()}
}

func (s *QueryService) Search(ctx context.Context, q Query) ([]models.Event, error) {
	filter := repository.EventFilter{Keyword: strings.TrimSpace(q.Keyword)}
	if !models.IsAllTypes(q.Type) {
		filter.Type = models.EventType(strings.TrimSpace(q.Type))
	}
	if q.Upcoming {
		filter.After = s.deps.now()
	}
	return s.find(ctx, filter)
}

func (s *QueryService) ListAll(ctx context.Context) ([]models.Event, error) {
	return s.find(ctx, repository.EventFilter{})
}

// ListJoinedByEmail returns every event whose roster contains email.
func (s *QueryService) ListJoinedByEmail(ctx context.Context, email string) ([]models.Event, error) {
	if strings.TrimSpace(email) == "" {
		return nil, Validation("email is required", "email")
	}
	return s.find(ctx, repository.EventFilter{ParticipantEmail: email})
}

func (s *QueryService) find(ctx context.Context, filter repository.EventFilter) ([]models.Event, error) {
	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	events, err := s.store.Find(sctx, filter, repository.SortByEventDate)
	if err != nil {
		return nil, storeError(err, "event not found")
	}
	return events, nil
}
