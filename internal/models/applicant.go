// internal/models/applicant.go
package models

// ApplicantRecord is an immutable snapshot of a customer record as returned
// by a directory lookup. Keyed by exact 10-digit phone string.
type ApplicantRecord struct {
	Phone            string  `json:"phone"`
	Name             string  `json:"name"`
	CreditScore      int     `json:"creditScore"`
	MonthlyIncome    float64 `json:"monthlyIncome"`
	PreApprovedLimit float64 `json:"preApprovedLimit"`
	Blacklisted      bool    `json:"blacklisted"`
}
