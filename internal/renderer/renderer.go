// internal/renderer/renderer.go

// Package renderer turns conversation state into user-facing reply text.
// The stage machine computes facts and stages; a Renderer only words them.
package renderer

import (
	"context"

	"github.com/Samtoosoon/bankgpt/internal/models"
)

// Renderer generates the assistant's reply for one turn. Implementations
// must return a non-empty string; callers treat errors and degenerate
// output with a fixed fallback message.
type Renderer interface {
	Generate(ctx context.Context, rc *ReplyContext) (string, error)
}

const (
	// defaultHistoryWindow is how many trailing messages provide context
	// when the caller does not configure a window.
	defaultHistoryWindow = 6
	// maxHistoryRunes caps each history entry handed to the renderer.
	maxHistoryRunes = 100
)

// ReplyContext is the full data contract a renderer needs for one turn:
// the stage reached, the merged state snapshot, a trimmed history window,
// the detected language and the stage's rendering instruction.
type ReplyContext struct {
	Stage       models.Stage
	State       models.ConversationState
	History     []models.Message
	Utterance   string
	Language    string
	Instruction string
}

// NewReplyContext trims the history to the given context window, truncating
// each entry, and attaches the instruction for the reached stage. A window
// below 1 falls back to the default.
func NewReplyContext(stage models.Stage, state models.ConversationState, history []models.Message, utterance, lang string, window int) *ReplyContext {
	if window < 1 {
		window = defaultHistoryWindow
	}
	start := 0
	if len(history) > window {
		start = len(history) - window
	}
	trimmed := make([]models.Message, 0, len(history)-start)
	for _, msg := range history[start:] {
		text := msg.Text
		if runes := []rune(text); len(runes) > maxHistoryRunes {
			text = string(runes[:maxHistoryRunes])
		}
		trimmed = append(trimmed, models.Message{Role: msg.Role, Text: text})
	}

	return &ReplyContext{
		Stage:       stage,
		State:       state,
		History:     trimmed,
		Utterance:   utterance,
		Language:    lang,
		Instruction: stageInstructions[stage],
	}
}

// stageInstructions tell the renderer what each stage needs from the reply.
var stageInstructions = map[models.Stage]string{
	models.StageGreeting:         "You've already greeted the customer. Now ask about their loan needs and what type of loan they want.",
	models.StagePhoneAsked:       "The customer has NOT given their phone number yet. Ask for their 10-digit phone number to verify their identity.",
	models.StagePhoneProvided:    "The customer just provided their phone number. Acknowledge it and tell them you're verifying their profile.",
	models.StageAmountAsked:      "The customer has provided their phone and been verified. Now ask how much loan amount they need.",
	models.StageAmountProvided:   "The customer just told you the amount they need. Acknowledge it and say you're checking their eligibility.",
	models.StageEligibilityCheck: "Check if the amount is within their pre-approved limit. Tell them the result.",
	models.StageApproved:         "The amount is within their limit. Congratulate them on approval and provide EMI details.",
	models.StageDocumentNeeded:   "The amount exceeds their pre-approved limit. Ask them to upload their salary slip for verification.",
	models.StageDocumentUploaded: "They've uploaded the document. Verify it and give them the final decision.",
	models.StageCompleted:        "The loan has been approved or the application is complete. Offer next steps or ask if they need anything else.",
}
