package model

import (
	"time"
)

// Message is one turn in a conversation.
type Message struct {
	Content   string    `json:"content"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage builds a message authored by the human.
func NewUserMessage(content string, at time.Time) Message {
	return Message{Content: content, IsUser: true, Timestamp: at}
}

// NewBotMessage builds a message authored by the assistant.
func NewBotMessage(content string, at time.Time) Message {
	return Message{Content: content, IsUser: false, Timestamp: at}
}

// SendMessageRequest is the body of POST /api/chat.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse carries the assistant reply.
type SendMessageResponse struct {
	Response string `json:"response"`
}
