// internal/server/server.go

// Package server exposes the conversation core over HTTP: one chat
// endpoint that owns session state in Redis, plus health and metrics.
package server

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/Samtoosoon/bankgpt/internal/audit"
	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/common/observability"
	"github.com/Samtoosoon/bankgpt/internal/conversation"
	"github.com/Samtoosoon/bankgpt/internal/directory"
	"github.com/Samtoosoon/bankgpt/internal/models"
	"github.com/Samtoosoon/bankgpt/internal/notification"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config carries the loan terms quoted in decision responses.
type Config struct {
	AnnualRate   float64
	TenureMonths int
}

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Email     string `json:"email,omitempty"`
}

type ChatResponse struct {
	SessionID string                    `json:"sessionId"`
	Message   string                    `json:"message"`
	Stage     models.Stage              `json:"stage"`
	Language  string                    `json:"language"`
	State     models.ConversationState  `json:"state"`
	Sanction  *notification.SanctionRef `json:"sanction,omitempty"`
}

type Server struct {
	config    *Config
	machine   *conversation.Machine
	sessions  *SessionStore
	directory directory.Directory
	recorder  *audit.Recorder
	notifier  *notification.Notifier
	obs       *observability.Observability
	logger    logger.Logger
}

func New(config *Config, machine *conversation.Machine, sessions *SessionStore, dir directory.Directory, recorder *audit.Recorder, notifier *notification.Notifier, obs *observability.Observability, log logger.Logger) *Server {
	return &Server{
		config:    config,
		machine:   machine,
		sessions:  sessions,
		directory: dir,
		recorder:  recorder,
		notifier:  notifier,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Routes builds the HTTP mux: the chat API plus the operational endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/decision", s.handleDecision)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	start := time.Now()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		s.logger.Error("session load failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	result, err := s.machine.Advance(ctx, req.Message, sess.State, sess.History)
	if err != nil {
		s.logger.Error("turn failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		http.Error(w, "turn failed", http.StatusInternalServerError)
		return
	}

	sess.State = result.State
	sess.History = append(sess.History,
		models.Message{Role: models.RoleUser, Text: req.Message},
		models.Message{Role: models.RoleAssistant, Text: result.Message},
	)

	response := ChatResponse{
		SessionID: sessionID,
		Message:   result.Message,
		Stage:     result.Stage,
		Language:  result.Language,
		State:     result.State,
	}

	// First arrival at approved triggers the sanction letter once
	if result.Stage == models.StageApproved && !sess.SanctionSent && s.notifier != nil {
		sanction, err := s.notifier.SendSanction(ctx, result.State, req.Email)
		if err != nil {
			s.logger.Error("sanction notification failed", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		} else {
			sess.SanctionSent = true
			response.Sanction = &notification.SanctionRef{
				Reference:  sanction.Reference,
				Status:     sanction.Status,
				MonthlyEMI: sanction.MonthlyEMI,
			}
		}
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Error("session save failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	if s.recorder != nil {
		s.recorder.RecordTurn(ctx, &audit.TurnRecord{
			ConversationID:  sessionID,
			Stage:           result.Stage,
			Language:        result.Language,
			Utterance:       req.Message,
			Reply:           result.Message,
			Phone:           result.State.Phone,
			Verified:        result.State.Verified,
			RequestedAmount: result.State.RequestedAmount,
			EligibilityPath: string(result.State.EligibilityPath),
		})
	}
	if s.obs != nil {
		s.obs.RecordTurnProcessed(ctx, string(result.Stage))
		s.obs.RecordTurnDuration(ctx, time.Since(start), string(result.Stage))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
