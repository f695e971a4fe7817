// internal/server/decision.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Samtoosoon/bankgpt/internal/directory"
	"github.com/Samtoosoon/bankgpt/internal/models"
	"github.com/Samtoosoon/bankgpt/internal/underwriting"
)

type DecisionRequest struct {
	Phone           string  `json:"phone"`
	RequestedAmount float64 `json:"requestedAmount"`
	MonthlyIncome   float64 `json:"monthlyIncome,omitempty"`
	CreditScore     int     `json:"creditScore,omitempty"`
}

type DecisionResponse struct {
	Decision         underwriting.Decision    `json:"decision"`
	Reason           string                   `json:"reason"`
	Explanation      string                   `json:"explanation"`
	Fraud            underwriting.FraudStatus `json:"fraud"`
	RatingStatus     underwriting.RateStatus  `json:"ratingStatus"`
	AnnualRate       float64                  `json:"annualRate,omitempty"`
	DocumentStatus   string                   `json:"documentStatus"`
	EligibilityPath  models.EligibilityPath   `json:"eligibilityPath"`
	MonthlyEMI       float64                  `json:"monthlyEmi,omitempty"`
	PreApprovedLimit float64                  `json:"preApprovedLimit"`
}

// handleDecision runs the full underwriting pipeline for one applicant,
// outside any conversation. It backs the loan-officer review screen: the
// verdict, the rationale text and the quoted EMI in a single call.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phone == "" || req.RequestedAmount <= 0 {
		http.Error(w, "phone and requestedAmount are required", http.StatusBadRequest)
		return
	}

	record, err := s.directory.Lookup(r.Context(), req.Phone)
	if err != nil && !errors.Is(err, directory.ErrNotFound) {
		s.logger.Error("decision lookup failed", map[string]interface{}{
			"phone": req.Phone,
			"error": err.Error(),
		})
		// A missing record still produces a manual-review verdict
		record = nil
	}

	outcome := underwriting.Decide(record, req.RequestedAmount, req.MonthlyIncome, req.CreditScore)
	path := underwriting.Evaluate(req.RequestedAmount, outcome.CreditScoreUsed, outcome.PreApprovedLimit)

	response := DecisionResponse{
		Decision:         outcome.Decision,
		Reason:           outcome.Reason,
		Explanation:      underwriting.Explain(outcome),
		Fraud:            outcome.Fraud,
		RatingStatus:     outcome.Rating.Status,
		AnnualRate:       outcome.Rating.AnnualRate,
		DocumentStatus:   outcome.DocumentStatus,
		EligibilityPath:  path,
		PreApprovedLimit: outcome.PreApprovedLimit,
	}
	if outcome.Decision == underwriting.DecisionApproved || outcome.Decision == underwriting.DecisionConditional {
		rate := outcome.Rating.AnnualRate
		if rate == 0 {
			rate = s.config.AnnualRate
		}
		response.MonthlyEMI = underwriting.EMI(req.RequestedAmount, rate, s.config.TenureMonths)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
