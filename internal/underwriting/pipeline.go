// internal/underwriting/pipeline.go
package underwriting

import "github.com/Samtoosoon/bankgpt/internal/models"

// Decision is the terminal verdict of the full pipeline.
type Decision string

const (
	DecisionApproved     Decision = "Approved"
	DecisionConditional  Decision = "Conditional Approval"
	DecisionRejected     Decision = "Rejected"
	DecisionManualReview Decision = "Manual Review"
)

// Document request states surfaced alongside a decision.
const (
	DocumentsNotRequested = "Not Requested"
	DocumentsSalarySlip   = "Salary slip requested"
)

// Outcome bundles the pipeline verdict with everything that fed it, so
// callers can render rationale text or a sanction letter without re-running
// the checks.
type Outcome struct {
	Decision       Decision
	Reason         string
	Fraud          FraudStatus
	Rating         RateDecision
	DocumentStatus string

	CreditScoreUsed   int
	MonthlyIncomeUsed float64
	PreApprovedLimit  float64
	RequestedAmount   float64
}

// Decide runs the full decision pipeline over an applicant record and a
// requested amount. Declared income and score override the record when
// non-zero; a nil record forces manual review unless a hard rejection fires
// first.
//
// Note this pipeline applies a stricter hard gate than Evaluate (score below
// 700 rather than 650, amount above twice the limit). The two are kept as
// independent computations: Evaluate steers the conversation, Decide issues
// the verdict.
func Decide(record *models.ApplicantRecord, requestedAmount, declaredIncome float64, declaredScore int) Outcome {
	var preLimit float64
	if record != nil {
		preLimit = record.PreApprovedLimit
	}

	income := declaredIncome
	if income == 0 && record != nil {
		income = record.MonthlyIncome
	}
	score := declaredScore
	if score == 0 && record != nil {
		score = record.CreditScore
	}

	rating := Rate(score, income)
	fraud := FraudCheck(record)

	out := Outcome{
		Fraud:             fraud,
		Rating:            rating,
		DocumentStatus:    DocumentsNotRequested,
		CreditScoreUsed:   score,
		MonthlyIncomeUsed: income,
		PreApprovedLimit:  preLimit,
		RequestedAmount:   requestedAmount,
	}

	manualReview := record == nil
	if manualReview {
		out.Reason = "Customer not found in CRM"
	}

	amountOK := preLimit > 0 && requestedAmount <= preLimit
	hardCondition := preLimit > 0 && requestedAmount > 2*preLimit
	if score != 0 && score < 700 {
		hardCondition = true
	}

	switch {
	case hardCondition:
		out.Decision = DecisionRejected
		out.Reason = "Hard rejection: amount > 2x pre-approved or credit score < 700"

	case amountOK && !manualReview:
		if fraud == FraudBlacklisted {
			out.Decision = DecisionManualReview
			out.Reason = "Fraud flagged"
		} else {
			out.Decision = DecisionApproved
			out.Reason = "Within pre-approved limit; fraud clear"
		}

	default:
		out.DocumentStatus = DocumentsSalarySlip
		switch {
		case fraud == FraudBlacklisted:
			out.Decision = DecisionManualReview
			out.Reason = "Fraud flagged during conditional review"
		case rating.Status == RateRejected:
			out.Decision = DecisionRejected
			out.Reason = rating.Reason
		default:
			out.Decision = DecisionConditional
			if rating.Reason != "" {
				out.Reason = rating.Reason
			} else {
				out.Reason = "Conditional review passed"
			}
		}
	}

	if manualReview && out.Decision == DecisionConditional {
		out.Decision = DecisionManualReview
		out.Reason = "Record missing; needs human review"
	}

	return out
}
