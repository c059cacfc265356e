package llm

import (
	"fmt"
	"unicode/utf8"
)

// DetailedThreshold is the message length (in characters) above which the
// assistant is asked for a detailed answer instead of a brief one.
const DetailedThreshold = 100

const legalSystemTemplate = `You are a helpful legal assistant.
Provide clear, concise legal information.
Always include a disclaimer about not being legal advice.
Focus on %s responses.`

// LegalSystemPrompt builds the fixed system instruction for a user message.
func LegalSystemPrompt(userMessage string) string {
	depth := "brief"
	if utf8.RuneCountInString(userMessage) > DetailedThreshold {
		depth = "detailed"
	}
	return fmt.Sprintf(legalSystemTemplate, depth)
}
