// internal/underwriting/eligibility.go

// Package underwriting holds the credit decision rules: the eligibility
// router, the pricing tiers, the fraud screen and the full decision
// pipeline. Everything here is pure computation over applicant facts; no
// I/O, no clocks.
package underwriting

import (
	"github.com/Samtoosoon/bankgpt/internal/common/metrics"
	"github.com/Samtoosoon/bankgpt/internal/models"
)

// Evaluate routes a loan request onto one of the three eligibility paths.
// The rules apply strictly in order; the first match wins.
//
// A zero pre-approved limit never fast-tracks: only a score of 750 or above
// can still reach conditional review.
func Evaluate(requestedAmount float64, creditScore int, preApprovedLimit float64) models.EligibilityPath {
	path := evaluate(requestedAmount, creditScore, preApprovedLimit)
	metrics.EligibilityDecisions.WithLabelValues(string(path)).Inc()
	return path
}

func evaluate(requestedAmount float64, creditScore int, preApprovedLimit float64) models.EligibilityPath {
	// Hard gate: score below minimum
	if creditScore < 650 {
		return models.PathHardRejection
	}

	// Fast track: within limit and good score
	if requestedAmount <= preApprovedLimit && creditScore >= 700 {
		return models.PathFastTrack
	}

	// Conditional review: up to 2x limit, or an excellent score
	if requestedAmount <= 2*preApprovedLimit || creditScore >= 750 {
		return models.PathConditionalReview
	}

	return models.PathHardRejection
}
