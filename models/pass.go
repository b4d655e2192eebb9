package models

import "time"

// PassPayload is the content of a digital pass. It is derived on demand and
// never stored.
type PassPayload struct {
	EventID          string    `json:"eventId"`
	EventTitle       string    `json:"eventTitle"`
	EventDate        time.Time `json:"eventDate"`
	EventType        EventType `json:"eventType"`
	ParticipantName  string    `json:"participantName"`
	ParticipantEmail string    `json:"participantEmail"`
	IssuedAt         time.Time `json:"issuedAt"`
}

// Countdown is the remaining time until an event starts.
type Countdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
	Live    bool  `json:"live"`
}
