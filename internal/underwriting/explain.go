// internal/underwriting/explain.go
package underwriting

import (
	"fmt"
	"strings"
)

// Explain renders a human-readable rationale for a pipeline outcome. The
// text is shown to loan officers reviewing a decision, so it spells out
// which rule fired rather than just the verdict.
func Explain(o Outcome) string {
	var b strings.Builder

	switch o.Decision {
	case DecisionApproved:
		fmt.Fprintf(&b, "Approved: your loan of INR %.0f has been approved.", o.RequestedAmount)
		if o.PreApprovedLimit > 0 {
			fmt.Fprintf(&b, "\n- Amount is within your pre-approved limit of INR %.0f.", o.PreApprovedLimit)
		}
		if o.CreditScoreUsed >= 750 {
			fmt.Fprintf(&b, "\n- Excellent credit score (%d) qualifies you for our best rates.", o.CreditScoreUsed)
		}
		if o.Fraud == FraudClear {
			b.WriteString("\n- Fraud screening: clear.")
		}

	case DecisionConditional:
		fmt.Fprintf(&b, "Conditional approval: your request for INR %.0f requires verification.", o.RequestedAmount)
		if o.PreApprovedLimit > 0 && o.RequestedAmount > o.PreApprovedLimit {
			fmt.Fprintf(&b, "\n- Amount exceeds pre-approved limit (INR %.0f), but your profile is strong.", o.PreApprovedLimit)
		}
		if o.CreditScoreUsed >= 700 && o.CreditScoreUsed < 750 {
			fmt.Fprintf(&b, "\n- Credit score (%d) is good; salary verification needed.", o.CreditScoreUsed)
		}
		if o.MonthlyIncomeUsed > 0 {
			fmt.Fprintf(&b, "\n- Declared income: INR %.0f/month. Please upload latest salary slip to confirm.", o.MonthlyIncomeUsed)
		}
		b.WriteString("\n- Next step: upload salary slip for faster processing.")

	case DecisionRejected:
		b.WriteString("Rejected: we cannot approve your request at this time.")
		if o.CreditScoreUsed > 0 && o.CreditScoreUsed < 650 {
			fmt.Fprintf(&b, "\n- Credit score (%d) is below the minimum threshold (650).", o.CreditScoreUsed)
		}
		if o.PreApprovedLimit > 0 && o.RequestedAmount > 2*o.PreApprovedLimit {
			fmt.Fprintf(&b, "\n- Requested amount (INR %.0f) exceeds twice the pre-approved limit (INR %.0f).", o.RequestedAmount, o.PreApprovedLimit)
		}
		if o.Fraud == FraudBlacklisted {
			b.WriteString("\n- Account flagged for fraud concerns. Please contact support.")
		}

	case DecisionManualReview:
		b.WriteString("Under manual review: your application requires specialist review.")
		if o.Fraud == FraudBlacklisted {
			b.WriteString("\n- Fraud screening raised a concern. Our team will contact you within 24 hours.")
		} else if o.Reason != "" {
			fmt.Fprintf(&b, "\n- Reason: %s", o.Reason)
		}

	default:
		fmt.Fprintf(&b, "Status: %s\n- %s", o.Decision, o.Reason)
	}

	return b.String()
}
