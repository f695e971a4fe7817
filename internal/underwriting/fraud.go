// internal/underwriting/fraud.go
package underwriting

import "github.com/Samtoosoon/bankgpt/internal/models"

// FraudStatus is the outcome of the blacklist screen.
type FraudStatus string

const (
	FraudClear       FraudStatus = "CLEAR"
	FraudBlacklisted FraudStatus = "BLACKLISTED"
	FraudNoRecord    FraudStatus = "NO_RECORD"
)

// FraudCheck screens an applicant record against the blacklist flag. A nil
// record cannot be screened and reports NO_RECORD.
func FraudCheck(record *models.ApplicantRecord) FraudStatus {
	if record == nil {
		return FraudNoRecord
	}
	if record.Blacklisted {
		return FraudBlacklisted
	}
	return FraudClear
}
