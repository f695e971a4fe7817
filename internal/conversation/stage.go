// internal/conversation/stage.go
package conversation

import (
	"github.com/Samtoosoon/bankgpt/internal/conversation/extractor"
	"github.com/Samtoosoon/bankgpt/internal/models"
)

// InferStage derives the current stage from accumulated facts alone, so a
// resumed conversation lands in the right place without trusting a stored
// stage value. Idempotent: state in, stage out, no side effects.
func InferStage(state *models.ConversationState) models.Stage {
	switch {
	case state.Phone != "" && state.Verified && state.RequestedAmount > 0:
		if state.RequestedAmount <= state.PreApprovedLimit {
			return models.StageApproved
		}
		return models.StageDocumentNeeded
	case state.Phone != "" && state.Verified:
		return models.StageAmountAsked
	case state.Phone != "":
		return models.StagePhoneProvided
	default:
		return models.StagePhoneAsked
	}
}

// transitionRule advances a stage once the fact it waits for has arrived.
// When the predicate fails the stage holds and the renderer re-prompts.
type transitionRule struct {
	arrived func(facts extractor.Facts, state *models.ConversationState) bool
	next    models.Stage
}

func always(extractor.Facts, *models.ConversationState) bool { return true }

func phoneArrived(facts extractor.Facts, _ *models.ConversationState) bool {
	return facts.Phone != ""
}

func identityVerified(_ extractor.Facts, state *models.ConversationState) bool {
	return state.Verified
}

func amountArrived(facts extractor.Facts, _ *models.ConversationState) bool {
	return facts.RequestedAmount > 0
}

// transitions is the full stage flow. eligibility_check is absent because
// its outcome is a branch, not a single successor; resolveStage handles it.
var transitions = map[models.Stage]transitionRule{
	models.StageGreeting:         {always, models.StagePhoneAsked},
	models.StagePhoneAsked:       {phoneArrived, models.StagePhoneProvided},
	models.StagePhoneProvided:    {identityVerified, models.StageAmountAsked},
	models.StageAmountAsked:      {amountArrived, models.StageAmountProvided},
	models.StageAmountProvided:   {always, models.StageEligibilityCheck},
	models.StageApproved:         {always, models.StageCompleted},
	models.StageDocumentNeeded:   {always, models.StageDocumentUploaded},
	models.StageDocumentUploaded: {always, models.StageCompleted},
	models.StageCompleted:        {always, models.StageCompleted},
}

// resolveStage computes the stage a turn ends on. It applies one transition
// from the current stage, then resolves the pass-through stages
// (amount_provided, eligibility_check) within the same turn so a turn that
// supplies the amount lands directly on approved or document_needed.
func resolveStage(current models.Stage, facts extractor.Facts, state *models.ConversationState) models.Stage {
	next := current
	if rule, ok := transitions[current]; ok && rule.arrived(facts, state) {
		next = rule.next
	}

	for {
		switch next {
		case models.StageAmountProvided:
			next = models.StageEligibilityCheck
		case models.StageEligibilityCheck:
			// Coarse two-way check; the underwriting evaluator is separate
			if state.RequestedAmount <= state.PreApprovedLimit {
				next = models.StageApproved
			} else {
				next = models.StageDocumentNeeded
			}
		default:
			return next
		}
	}
}
