// internal/conversation/machine.go

// Package conversation holds the stage machine that drives a loan
// application dialogue: it extracts facts from each utterance, merges them
// into the caller-owned state under the immutability rules, computes the
// next stage and asks the renderer to word the reply.
package conversation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/common/metrics"
	"github.com/Samtoosoon/bankgpt/internal/conversation/extractor"
	"github.com/Samtoosoon/bankgpt/internal/language"
	"github.com/Samtoosoon/bankgpt/internal/models"
	"github.com/Samtoosoon/bankgpt/internal/renderer"
)

// TurnResult is everything one turn produces. State is the updated copy the
// caller merges back; the caller owns persistence.
type TurnResult struct {
	Message  string
	State    models.ConversationState
	Stage    models.Stage
	Language string
}

// minReplyRunes is the shortest reply the machine accepts from a renderer.
// Anything shorter is treated like a rendering failure, regardless of what
// the renderer implementation validates on its own.
const minReplyRunes = 5

// Machine advances a conversation one turn at a time. It is stateless
// between calls: all conversation state travels in and out through Advance.
type Machine struct {
	extractor     *extractor.Extractor
	renderer      renderer.Renderer
	historyWindow int
	logger        logger.Logger
}

func NewMachine(ex *extractor.Extractor, r renderer.Renderer, historyWindow int, log logger.Logger) *Machine {
	return &Machine{
		extractor:     ex,
		renderer:      r,
		historyWindow: historyWindow,
		logger:        log.WithFields(map[string]interface{}{"component": "conversation"}),
	}
}

// Advance runs one conversation turn. The first turn (empty history)
// returns the fixed greeting without extraction. Every later turn extracts
// facts, merges them, resolves the next stage and renders the reply; a
// renderer failure or a too-short reply degrades to the fallback message
// but never loses the state computed this turn.
func (m *Machine) Advance(ctx context.Context, utterance string, state models.ConversationState, history []models.Message) (*TurnResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	lang := language.Detect(utterance)

	if len(history) == 0 {
		state.Stage = models.StagePhoneAsked
		m.observe(models.StageGreeting, start)
		return &TurnResult{
			Message:  language.Greeting(lang),
			State:    state,
			Stage:    models.StagePhoneAsked,
			Language: lang,
		}, nil
	}

	current := InferStage(&state)
	facts := m.extractor.Extract(ctx, utterance, &state)
	merged := m.mergeFacts(state, facts)

	next := resolveStage(current, facts, &merged)
	merged.Stage = next

	message, err := m.renderer.Generate(ctx, renderer.NewReplyContext(next, merged, history, utterance, lang, m.historyWindow))
	if err == nil {
		message = strings.TrimSpace(message)
		if utf8.RuneCountInString(message) < minReplyRunes {
			err = renderer.ErrDegenerateReply
		}
	}
	if err != nil {
		m.logger.Warn("reply rendering degraded to fallback", map[string]interface{}{
			"stage": string(next),
			"error": err.Error(),
		})
		metrics.RendererFallbacks.Inc()
		message = language.Fallback(lang)
	}

	m.observe(next, start)
	return &TurnResult{
		Message:  message,
		State:    merged,
		Stage:    next,
		Language: lang,
	}, nil
}

// mergeFacts folds extracted facts into a copy of the state. Facts already
// on file win: once an applicant is verified or an amount is set, a
// conflicting new value is dropped and logged, never applied.
func (m *Machine) mergeFacts(state models.ConversationState, facts extractor.Facts) models.ConversationState {
	if facts.Phone != "" {
		if state.Phone == "" {
			state.Phone = facts.Phone
			state.Verified = facts.Verified
			state.CustomerName = facts.CustomerName
			state.CreditScore = facts.CreditScore
			state.MonthlyIncome = facts.MonthlyIncome
			state.PreApprovedLimit = facts.PreApprovedLimit
		} else if facts.Phone != state.Phone {
			m.logger.Warn("conflicting phone ignored", map[string]interface{}{
				"phone":    state.Phone,
				"rejected": facts.Phone,
			})
		}
	}

	if facts.RequestedAmount > 0 {
		if state.RequestedAmount == 0 {
			state.RequestedAmount = facts.RequestedAmount
		} else if facts.RequestedAmount != state.RequestedAmount {
			m.logger.Warn("conflicting amount ignored", map[string]interface{}{
				"amount":   state.RequestedAmount,
				"rejected": facts.RequestedAmount,
			})
		}
	}

	if facts.EligibilityPath != "" && state.EligibilityPath == "" {
		state.EligibilityPath = facts.EligibilityPath
	}

	return state
}

func (m *Machine) observe(stage models.Stage, start time.Time) {
	metrics.ConversationTurns.WithLabelValues(string(stage)).Inc()
	metrics.TurnDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}
