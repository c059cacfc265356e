package model

import (
	"time"
)

// EventType represents the kind of chat activity event.
type EventType string

const (
	EventTypeMessageAppended    EventType = "message_appended"
	EventTypeChatCreated        EventType = "chat_created"
	EventTypeChatRenamed        EventType = "chat_renamed"
	EventTypeChatDeleted        EventType = "chat_deleted"
	EventTypeChatsCleared       EventType = "chats_cleared"
	EventTypePreferencesUpdated EventType = "preferences_updated"
)

// ChatEvent describes something that happened to the stored chats.
type ChatEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	OwnerID   string    `json:"owner_id,omitempty"`
	ChatID    string    `json:"chat_id,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	Count     int64     `json:"count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
