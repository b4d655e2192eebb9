package services

import (
	"context"

	"go.uber.org/zap"

	models "github.com/phillip/riseandserve-go/models"
	"github.com/phillip/riseandserve-go/repository"
)

// PassService derives digital passes for joined participants of
// volunteering events. Nothing is persisted.
type PassService struct {
	store repository.EventStore
	deps  Deps
}

func NewPassService(store repository.EventStore, deps Deps) *PassService {
	return &PassService{store: store, deps: deps.withDefaults()}
}

func (s *PassService) Issue(ctx context.Context, eventID string, identity models.Identity) (*models.PassPayload, error) {
	pass, _, err := s.IssueWithEvent(ctx, eventID, identity)
	return pass, err
}

// IssueWithEvent also returns the event the pass was derived from, for
// renderers that print more than the payload carries.
func (s *PassService) IssueWithEvent(ctx context.Context, eventID string, identity models.Identity) (*models.PassPayload, *models.Event, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, nil, err
	}
	oid, err := parseEventID(eventID)
	if err != nil {
		return nil, nil, err
	}

	sctx, cancel := s.deps.storeCtx(ctx)
	defer cancel()
	event, err := s.store.FindByID(sctx, oid)
	if err != nil {
		return nil, nil, storeError(err, "event not found")
	}

	if !event.EventType.IsVolunteering() {
		return nil, nil, Forbidden("no digital pass required for this activity")
	}
	participant, ok := event.Participant(identity.Email)
	if !ok {
		return nil, nil, Forbidden("join the event to receive a pass")
	}

	name := participant.Name
	if name == "" {
		name = identity.DisplayName()
	}
	pass := &models.PassPayload{
		EventID:          event.ID.Hex(),
		EventTitle:       event.Title,
		EventDate:        event.EventDate.UTC(),
		EventType:        event.EventType,
		ParticipantName:  name,
		ParticipantEmail: participant.Email,
		IssuedAt:         s.deps.now(),
	}
	s.deps.Logger.Debug("pass issued", zap.String("eventId", pass.EventID), zap.String("email", pass.ParticipantEmail))
	return pass, event, nil
}
