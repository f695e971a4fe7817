// internal/conversation/extractor/extractor.go

// Package extractor pulls structured facts out of free-form user utterances.
// Extraction is additive: a fact already present in the conversation state is
// never re-extracted, so callers can merge the returned Facts without
// clobbering earlier turns.
package extractor

import (
	"context"
	"regexp"
	"strconv"

	stderrors "github.com/Samtoosoon/bankgpt/internal/common/errors"
	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/common/metrics"
	"github.com/Samtoosoon/bankgpt/internal/directory"
	"github.com/Samtoosoon/bankgpt/internal/models"
)

// ==========================
// Extraction Patterns
// ==========================

var (
	phoneRe = regexp.MustCompile(`\b\d{10}\b`)
	lakhRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:lakh|lac)`)
	croreRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*crore`)
	bareRe  = regexp.MustCompile(`\b(\d{6,7})\b`)
)

// Applicant record defaults applied when the directory record leaves a field
// unset.
const (
	defaultCreditScore      = 700
	defaultPreApprovedLimit = 500000
	defaultMonthlyIncome    = 50000
)

// Facts holds what a single utterance yielded. Zero values mean "nothing
// extracted for this field", mirroring the conversation state convention.
type Facts struct {
	Phone            string
	Verified         bool
	CustomerName     string
	CreditScore      int
	MonthlyIncome    float64
	PreApprovedLimit float64
	RequestedAmount  float64
	EligibilityPath  models.EligibilityPath
}

// Extractor resolves phone numbers against the applicant directory and parses
// Indian-format loan amounts (lakh, crore, bare rupee figures).
type Extractor struct {
	directory directory.Directory
	logger    logger.Logger
}

func New(dir directory.Directory, log logger.Logger) *Extractor {
	return &Extractor{
		directory: dir,
		logger:    log.WithFields(map[string]interface{}{"component": "extractor"}),
	}
}

// ==========================
// Extraction
// ==========================

// Extract parses the utterance against the current state. A directory lookup
// failure is treated the same as an unknown phone: the phone stays unverified
// and the conversation re-prompts rather than erroring out.
func (e *Extractor) Extract(ctx context.Context, utterance string, state *models.ConversationState) Facts {
	var facts Facts

	if state.Phone == "" {
		e.extractPhone(ctx, utterance, &facts)
	}
	if state.RequestedAmount == 0 {
		e.extractAmount(utterance, &facts)
	}

	// Coarse routing hint once both phone and amount are known. The
	// underwriting evaluator owns the real decision; this only steers the
	// conversation toward the fast or review track.
	phone := state.Phone
	if phone == "" {
		phone = facts.Phone
	}
	amount := state.RequestedAmount
	if amount == 0 {
		amount = facts.RequestedAmount
	}
	if phone != "" && amount > 0 {
		limit := state.PreApprovedLimit
		if limit == 0 {
			limit = facts.PreApprovedLimit
		}
		if amount <= limit {
			facts.EligibilityPath = models.PathFastTrack
		} else {
			facts.EligibilityPath = models.PathConditionalReview
		}
	}

	return facts
}

func (e *Extractor) extractPhone(ctx context.Context, utterance string, facts *Facts) {
	phone := phoneRe.FindString(utterance)
	if phone == "" {
		return
	}

	record, err := e.directory.Lookup(ctx, phone)
	if err != nil {
		if err != directory.ErrNotFound {
			infraErr := stderrors.NewDirectoryUnavailableError(err)
			e.logger.Warn("directory lookup degraded to miss", map[string]interface{}{
				"phone":     phone,
				"code":      string(infraErr.Code),
				"retryable": infraErr.Retryable,
				"error":     err.Error(),
			})
		}
		return
	}

	facts.Phone = phone
	facts.Verified = true
	facts.CustomerName = record.Name
	facts.CreditScore = record.CreditScore
	facts.MonthlyIncome = record.MonthlyIncome
	facts.PreApprovedLimit = record.PreApprovedLimit
	if facts.CreditScore == 0 {
		facts.CreditScore = defaultCreditScore
	}
	if facts.PreApprovedLimit == 0 {
		facts.PreApprovedLimit = defaultPreApprovedLimit
	}
	if facts.MonthlyIncome == 0 {
		facts.MonthlyIncome = defaultMonthlyIncome
	}
	metrics.FactsExtracted.WithLabelValues("phone").Inc()
}

// extractAmount applies the amount patterns in priority order: lakh/lac,
// then crore, then a bare 6-7 digit figure between 1 lakh and 1 crore.
func (e *Extractor) extractAmount(utterance string, facts *Facts) {
	if m := lakhRe.FindStringSubmatch(utterance); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			facts.RequestedAmount = v * 100000
			metrics.FactsExtracted.WithLabelValues("amount").Inc()
			return
		}
	}

	if m := croreRe.FindStringSubmatch(utterance); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			facts.RequestedAmount = v * 10000000
			metrics.FactsExtracted.WithLabelValues("amount").Inc()
			return
		}
	}

	for _, m := range bareRe.FindAllStringSubmatch(utterance, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v >= 100000 && v <= 100000000 {
			facts.RequestedAmount = v
			metrics.FactsExtracted.WithLabelValues("amount").Inc()
			return
		}
	}
}
