// internal/directory/directory.go

// Package directory provides read-only lookup of applicant records by phone
// number. The conversation core receives a Directory as an injected
// dependency; lookups are keyed by exact 10-digit string match.
package directory

import (
	"context"
	"errors"

	"github.com/Samtoosoon/bankgpt/internal/models"
)

var (
	ErrNotFound = errors.New("APPLICANT_NOT_FOUND")
)

// Directory looks up an applicant record for a phone number. Implementations
// return ErrNotFound for unknown phones; any other error is infrastructure
// failure, which callers in the conversation path degrade to "not found".
type Directory interface {
	Lookup(ctx context.Context, phone string) (*models.ApplicantRecord, error)
}
