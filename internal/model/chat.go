// Package model defines data structures for the chat backend.
package model

import (
	"time"
)

// AnonymousOwner is the owner identity used when a request carries no session.
const AnonymousOwner = "anonymous"

// ChatDocument is one persisted conversation.
type ChatDocument struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"userId"`
	Title     string    `json:"title,omitempty"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LastTimestamp returns the timestamp of the newest message, or the zero time
// for an empty document.
func (d *ChatDocument) LastTimestamp() time.Time {
	if len(d.Messages) == 0 {
		return time.Time{}
	}
	return d.Messages[len(d.Messages)-1].Timestamp
}

// RenameChatRequest is the body of PUT /api/chats/{chatId}.
type RenameChatRequest struct {
	Title string `json:"title"`
}

// RenameChatResponse is returned after a successful rename.
type RenameChatResponse struct {
	Success bool          `json:"success"`
	Chat    *ChatDocument `json:"chat"`
}

// DeleteChatResponse is returned after a successful delete.
type DeleteChatResponse struct {
	Success bool `json:"success"`
}

// ClearChatsResponse is returned by GET /api/clear-chats.
type ClearChatsResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}
