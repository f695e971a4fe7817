// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConversationTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_turns_total",
			Help: "Total number of conversation turns processed",
		},
		[]string{"stage"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "conversation_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"stage"},
	)

	DirectoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_lookups_total",
			Help: "Total number of applicant directory lookups",
		},
		[]string{"result"},
	)

	FactsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facts_extracted_total",
			Help: "Total number of facts extracted from utterances",
		},
		[]string{"fact"},
	)

	RendererFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "renderer_fallbacks_total",
			Help: "Total number of turns answered with the fallback message",
		},
	)

	EligibilityDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_decisions_total",
			Help: "Total number of underwriting eligibility decisions",
		},
		[]string{"path"},
	)

	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Total number of failed audit trail writes",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of sanction notifications by status",
		},
		[]string{"status"},
	)
)
