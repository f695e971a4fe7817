// internal/audit/audit.go

// Package audit persists a record of every conversation turn to
// Elasticsearch for compliance review. Audit writes are strictly
// best-effort: a failed write is logged and counted but never fails the
// turn that produced it.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/common/metrics"
	"github.com/Samtoosoon/bankgpt/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// TurnRecord is the document indexed per conversation turn.
type TurnRecord struct {
	ConversationID  string       `json:"conversationId"`
	Stage           models.Stage `json:"stage"`
	Language        string       `json:"language"`
	Utterance       string       `json:"utterance"`
	Reply           string       `json:"reply"`
	Phone           string       `json:"phone,omitempty"`
	Verified        bool         `json:"verified"`
	RequestedAmount float64      `json:"requestedAmount,omitempty"`
	EligibilityPath string       `json:"eligibilityPath,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}

// Recorder indexes turn records. A nil client disables recording, so
// callers never need to branch on configuration.
type Recorder struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewRecorder(client *elasticsearch.Client, index string, log logger.Logger) *Recorder {
	return &Recorder{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

// RecordTurn indexes one turn. Errors are swallowed after logging; the
// conversation result has already been committed by the time this runs.
func (r *Recorder) RecordTurn(ctx context.Context, record *TurnRecord) {
	if r.client == nil {
		return
	}
	record.Timestamp = time.Now().UTC()

	body, err := json.Marshal(record)
	if err != nil {
		r.fail(record.ConversationID, err)
		return
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(body),
		r.client.Index.WithContext(ctx),
	)
	if err != nil {
		r.fail(record.ConversationID, err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		r.fail(record.ConversationID, fmt.Errorf("index response: %s", res.Status()))
	}
}

func (r *Recorder) fail(conversationID string, err error) {
	metrics.AuditWriteFailures.Inc()
	r.logger.Error("audit write failed", map[string]interface{}{
		"conversationId": conversationID,
		"error":          err.Error(),
	})
}
