// internal/directory/static.go
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	stderrors "github.com/Samtoosoon/bankgpt/internal/common/errors"
	"github.com/Samtoosoon/bankgpt/internal/common/metrics"
	"github.com/Samtoosoon/bankgpt/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// seedSchema validates the JSON seed file: an object keyed by 10-digit phone
// numbers mapping to applicant records.
const seedSchema = `{
	"type": "object",
	"patternProperties": {
		"^[0-9]{10}$": {
			"type": "object",
			"properties": {
				"name":             {"type": "string"},
				"creditScore":      {"type": "integer", "minimum": 300, "maximum": 900},
				"monthlyIncome":    {"type": "number", "minimum": 0},
				"preApprovedLimit": {"type": "number", "minimum": 0},
				"blacklisted":      {"type": "boolean"}
			},
			"required": ["name"],
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

type seedRecord struct {
	Name             string  `json:"name"`
	CreditScore      int     `json:"creditScore"`
	MonthlyIncome    float64 `json:"monthlyIncome"`
	PreApprovedLimit float64 `json:"preApprovedLimit"`
	Blacklisted      bool    `json:"blacklisted"`
}

// StaticDirectory serves applicant records from a JSON seed file loaded once
// at startup. Used for local development and tests in place of the Postgres
// backend.
type StaticDirectory struct {
	records map[string]models.ApplicantRecord
}

// NewStaticDirectory loads and schema-validates the seed file.
func NewStaticDirectory(seedPath string) (*StaticDirectory, error) {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return NewStaticDirectoryFromJSON(data)
}

// NewStaticDirectoryFromJSON builds a directory from raw seed JSON.
func NewStaticDirectoryFromJSON(data []byte) (*StaticDirectory, error) {
	schemaLoader := gojsonschema.NewStringLoader(seedSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validate seed: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, stderrors.NewSeedValidationFailedError(strings.Join(details, "; "))
	}

	var seed map[string]seedRecord
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	records := make(map[string]models.ApplicantRecord, len(seed))
	for phone, r := range seed {
		records[phone] = models.ApplicantRecord{
			Phone:            phone,
			Name:             r.Name,
			CreditScore:      r.CreditScore,
			MonthlyIncome:    r.MonthlyIncome,
			PreApprovedLimit: r.PreApprovedLimit,
			Blacklisted:      r.Blacklisted,
		}
	}

	return &StaticDirectory{records: records}, nil
}

func (d *StaticDirectory) Lookup(ctx context.Context, phone string) (*models.ApplicantRecord, error) {
	record, ok := d.records[phone]
	if !ok {
		metrics.DirectoryLookups.WithLabelValues("miss").Inc()
		return nil, ErrNotFound
	}
	metrics.DirectoryLookups.WithLabelValues("hit").Inc()
	// Copy so callers cannot mutate the seed
	out := record
	return &out, nil
}

// Len reports how many records the seed holds.
func (d *StaticDirectory) Len() int {
	return len(d.records)
}

// Records returns a copy of every seeded record, for bulk loading into
// another backend.
func (d *StaticDirectory) Records() []models.ApplicantRecord {
	out := make([]models.ApplicantRecord, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r)
	}
	return out
}
