package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Snapshot is a copy of an identity's public fields taken at the moment it
// created or joined an event. It is never re-synced.
type Snapshot struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Photo string `bson:"photo,omitempty" json:"photo,omitempty"`
}

type Event struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	EventType    EventType          `bson:"eventType" json:"eventType"`
	Thumbnail    string             `bson:"thumbnail" json:"thumbnail"`
	Location     string             `bson:"location" json:"location"`
	EventDate    time.Time          `bson:"eventDate" json:"eventDate"`
	Creator      Snapshot           `bson:"creator" json:"creator"`
	Participants []Snapshot         `bson:"participants" json:"participants"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasParticipant reports whether email is already on the roster.
func (e *Event) HasParticipant(email string) bool {
	_, ok := e.Participant(email)
	return ok
}

// Participant returns the roster entry for email, compared case-insensitively.
func (e *Event) Participant(email string) (Snapshot, bool) {
	for _, p := range e.Participants {
		if SameEmail(p.Email, email) {
			return p, true
		}
	}
	return Snapshot{}, false
}

// IsCreator reports whether email belongs to the identity that created the event.
func (e *Event) IsCreator(email string) bool {
	return SameEmail(e.Creator.Email, email)
}

// EventDraft is the body of a create request. Creator and participants are
// never accepted from the caller.
type EventDraft struct {
	Title       string    `json:"title" validate:"notblank"`
	Description string    `json:"description" validate:"notblank"`
	EventType   EventType `json:"eventType" validate:"eventtype"`
	Thumbnail   string    `json:"thumbnail" validate:"notblank,http_url"`
	Location    string    `json:"location" validate:"notblank"`
	EventDate   time.Time `json:"eventDate" validate:"required"`
}

// EventPatch lists the fields a creator may rewrite. Zero values mean
// "keep the stored value". Participants, creator and id cannot be
// expressed here.
type EventPatch struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventType   EventType `json:"eventType"`
	Thumbnail   string    `json:"thumbnail"`
	Location    string    `json:"location"`
	EventDate   time.Time `json:"eventDate"`
}

// EventDetails is the editable projection of an Event written by the store's
// UpdateDetails.
type EventDetails struct {
	Title       string    `json:"title" validate:"notblank"`
	Description string    `json:"description" validate:"notblank"`
	EventType   EventType `json:"eventType" validate:"eventtype"`
	Thumbnail   string    `json:"thumbnail" validate:"notblank,http_url"`
	Location    string    `json:"location" validate:"notblank"`
	EventDate   time.Time `json:"eventDate" validate:"required"`
}

// Details returns the editable fields of e.
func (e *Event) Details() EventDetails {
	return EventDetails{
		Title:       e.Title,
		Description: e.Description,
		EventType:   e.EventType,
		Thumbnail:   e.Thumbnail,
		Location:    e.Location,
		EventDate:   e.EventDate,
	}
}

// SameEmail compares two addresses ignoring case and surrounding space.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NormalizeEmail lowercases and trims an address for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
