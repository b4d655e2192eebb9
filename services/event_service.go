package services

import (
	"context"
	"strings"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"github.com/phillip/riseandserve-go/broker"
	"github.com/phillip/riseandserve-go/metrics"
	models "github.com/phillip/riseandserve-go/models"
	"github.com/phillip/riseandserve-go/repository"
)

// DeleteHook runs after an event is removed. Failures are logged, not returned.
type DeleteHook func(ctx context.Context, event models.Event) error

// EventService owns create, read, update and delete of events. It never
// writes the participant roster.
type EventService struct {
	store repository.EventStore
	deps  Deps
	hooks []DeleteHook
}

func NewEventService(store repository.EventStore, deps Deps, hooks ...DeleteHook) *EventService {
	return &EventService{store: store, deps: deps.withDefaults(), hooks: hooks}
}

func (s *EventService) Create(ctx context.Context, draft models.EventDraft, creator models.Identity) (*models.Event, error) {
	if err := requireIdentity(creator); err != nil {
		return nil, err
	}

	draft = trimDraft(draft)
	now := s.deps.now()
	fields := invalidFields(draft)
	if !draft.EventDate.IsZero() && !draft.EventDate.After(now) {
		if len(fields) == 0 {
			return nil, Validation("event date must be in the future", "eventDate")
		}
		fields = append(fields, "eventDate")
	}
	if len(fields) > 0 {
		return nil, fieldsError(fields)
	}

	event := &models.Event{
		Title:        draft.Title,
		Description:  draft.Description,
		EventType:    draft.EventType,
		Thumbnail:    draft.Thumbnail,
		Location:     draft.Location,
		EventDate:    draft.EventDate.UTC(),
		Creator:      creator.Snapshot(),
		Participants: []models.Snapshot{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	if err := s.store.Insert(sctx, event); err != nil {
		return nil, storeError(err, "event not found")
	}

	metrics.EventsCreated.Inc()
	s.deps.Logger.Info("event created",
		zap.String("eventId", event.ID.Hex()),
		zap.String("eventType", string(event.EventType)),
		zap.String("creator", event.Creator.Email))
	s.deps.publish(ctx, broker.EventCreated, event)
	return event, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	oid, err := parseEventID(id)
	if err != nil {
		return nil, err
	}

	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	event, err := s.store.FindByID(sctx, oid)
	if err != nil {
		return nil, storeError(err, "event not found")
	}
	return event, nil
}

// Update rewrites the fields listed in patch. Only the creator may edit.
// The future-date rule of Create is not re-applied here.
func (s *EventService) Update(ctx context.Context, id string, patch models.EventPatch, requester models.Identity) (*models.Event, error) {
	if err := requireIdentity(requester); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsCreator(requester.Email) {
		return nil, Forbidden("only the creator can edit this event")
	}

	details := existing.Details()
	patch = trimPatch(patch)
	if err := copier.CopyWithOption(&details, &patch, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, &Error{Kind: KindInternal, Message: "apply patch", Err: err}
	}
	details.EventDate = details.EventDate.UTC()
	if fields := invalidFields(details); len(fields) > 0 {
		return nil, fieldsError(fields)
	}

	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	updated, err := s.store.UpdateDetails(sctx, existing.ID, details, s.deps.now())
	if err != nil {
		return nil, storeError(err, "event not found")
	}

	s.deps.Logger.Info("event updated", zap.String("eventId", updated.ID.Hex()))
	s.deps.publish(ctx, broker.EventUpdated, updated)
	return updated, nil
}

// Delete removes the event permanently. A second delete of the same id
// reports NotFound.
func (s *EventService) Delete(ctx context.Context, id string, requester models.Identity) error {
	if err := requireIdentity(requester); err != nil {
		return err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !existing.IsCreator(requester.Email) {
		return Forbidden("only the creator can delete this event")
	}

	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	if err := s.store.Delete(sctx, existing.ID); err != nil {
		return storeError(err, "event not found")
	}

	for _, hook := range s.hooks {
		if err := hook(ctx, *existing); err != nil {
			s.deps.Logger.Warn("event delete cascade failed",
				zap.String("eventId", existing.ID.Hex()), zap.Error(err))
		}
	}

	metrics.EventsDeleted.Inc()
	s.deps.Logger.Info("event deleted", zap.String("eventId", existing.ID.Hex()))
	s.deps.publish(ctx, broker.EventDeleted, map[string]string{"id": existing.ID.Hex()})
	return nil
}

// ListByCreator returns the creator's events, oldest first.
func (s *EventService) ListByCreator(ctx context.Context, email string) ([]models.Event, error) {
	if strings.TrimSpace(email) == "" {
		return nil, Validation("creator email is required", "email")
	}

	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	events, err := s.store.Find(sctx, repository.EventFilter{CreatorEmail: email}, repository.SortByCreatedAt)
	if err != nil {
		return nil, storeError(err, "event not found")
	}
	return events, nil
}

func trimDraft(d models.EventDraft) models.EventDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.EventType = models.EventType(strings.TrimSpace(string(d.EventType)))
	d.Thumbnail = strings.TrimSpace(d.Thumbnail)
	d.Location = strings.TrimSpace(d.Location)
	return d
}

// trimPatch leaves whitespace-only values in place so they fail validation
// instead of being ignored as empty.
func trimPatch(p models.EventPatch) models.EventPatch {
	trim := func(s string) string {
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
		return s
	}
	p.Title = trim(p.Title)
	p.Description = trim(p.Description)
	p.EventType = models.EventType(trim(string(p.EventType)))
	p.Thumbnail = trim(p.Thumbnail)
	p.Location = trim(p.Location)
	return p
}
