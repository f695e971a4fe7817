// internal/underwriting/rater.go
package underwriting

// RateStatus classifies the pricing outcome for an applicant profile.
type RateStatus string

const (
	RateNeedsDocuments RateStatus = "NEEDS_DOCUMENTS"
	RateRejected       RateStatus = "REJECTED"
	RateConditional    RateStatus = "CONDITIONAL"
	RateApproved       RateStatus = "APPROVED"
)

// RateDecision is the priced underwriting verdict. AnnualRate is zero when
// the profile was rejected or documents are still outstanding.
type RateDecision struct {
	Status     RateStatus
	AnnualRate float64
	Reason     string
}

// Rate prices an applicant from credit score and monthly income. A zero
// value for either means the fact is not yet on file and documentation is
// requested instead of a decision.
func Rate(creditScore int, monthlyIncome float64) RateDecision {
	if creditScore == 0 || monthlyIncome == 0 {
		return RateDecision{
			Status: RateNeedsDocuments,
			Reason: "Missing credit score or income",
		}
	}

	if creditScore < 650 {
		return RateDecision{
			Status: RateRejected,
			Reason: "Credit score < 650",
		}
	}
	if creditScore < 700 {
		return RateDecision{
			Status:     RateConditional,
			AnnualRate: 15.0,
			Reason:     "Score between 650-699 triggers conditional review",
		}
	}

	if monthlyIncome < 30000 {
		return RateDecision{
			Status: RateRejected,
			Reason: "Income below 30k",
		}
	}
	if creditScore >= 750 && monthlyIncome >= 50000 {
		return RateDecision{
			Status:     RateApproved,
			AnnualRate: 10.5,
			Reason:     "High score and income >= 50k",
		}
	}

	return RateDecision{
		Status:     RateApproved,
		AnnualRate: 13.5,
		Reason:     "Standard rate for mid-tier profile",
	}
}
