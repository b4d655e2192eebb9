package models

import "time"

type ChatMessage struct {
	ID         string    `bson:"_id" json:"id"`
	EventID    string    `bson:"eventId" json:"eventId"`
	UserID     string    `bson:"userId" json:"userId"`
	UserName   string    `bson:"userName" json:"userName"`
	UserAvatar string    `bson:"userAvatar,omitempty" json:"userAvatar,omitempty"`
	Message    string    `bson:"message" json:"message"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatFrame is what subscribers receive on a discussion stream.
type ChatFrame struct {
	Type    string       `json:"type"` // message, deleted
	EventID string       `json:"eventId"`
	Message *ChatMessage `json:"message,omitempty"`
	ID      string       `json:"id,omitempty"`
}

const (
	ChatFrameMessage = "message"
	ChatFrameDeleted = "deleted"
)
