package middleware

import (
	"errors"
	"unicode/utf8"
)

const (
	maxMessageBytes  = 100000
	maxTitleBytes    = 1024
	maxLanguageBytes = 256
	maxChatIDLength  = 64
)

// ValidateMessageContent validates raw message content before it reaches the
// service. Blank messages are rejected by the service itself.
func ValidateMessageContent(content string) error {
	if len(content) > maxMessageBytes {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateChatID validates a chat ID path parameter. Its format depends on
// the store backend, so only the shape is checked here.
func ValidateChatID(id string) error {
	if len(id) == 0 {
		return errors.New("chat ID cannot be empty")
	}
	if len(id) > maxChatIDLength {
		return errors.New("invalid chat ID format")
	}
	return nil
}

// ValidateTitle validates a chat title body field.
func ValidateTitle(title string) error {
	if len(title) > maxTitleBytes {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// ValidateLanguage validates the preferences language field.
func ValidateLanguage(language string) error {
	if len(language) > maxLanguageBytes {
		return errors.New("language exceeds maximum length")
	}
	if !utf8.ValidString(language) {
		return errors.New("language must be valid UTF-8")
	}
	return nil
}
