// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/conversation"
	"github.com/Samtoosoon/bankgpt/internal/conversation/extractor"
	"github.com/Samtoosoon/bankgpt/internal/directory"
	"github.com/Samtoosoon/bankgpt/internal/models"
	"github.com/Samtoosoon/bankgpt/internal/notification"
	"github.com/Samtoosoon/bankgpt/internal/renderer"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubDirectory struct {
	records map[string]*models.ApplicantRecord
}

func (s *stubDirectory) Lookup(ctx context.Context, phone string) (*models.ApplicantRecord, error) {
	record, ok := s.records[phone]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return record, nil
}

type stubRenderer struct{ reply string }

func (s *stubRenderer) Generate(ctx context.Context, rc *renderer.ReplyContext) (string, error) {
	return s.reply, nil
}

type stubSNS struct{ published int }

func (s *stubSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	s.published++
	return &sns.PublishOutput{}, nil
}

type stubSES struct{}

func (s *stubSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return &ses.SendEmailOutput{}, nil
}

func newTestServer(t *testing.T) (*Server, *stubSNS) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	log := logger.NewTestLogger(t)
	dir := &stubDirectory{records: map[string]*models.ApplicantRecord{
		"9998887776": {
			Phone:            "9998887776",
			Name:             "Asha Verma",
			CreditScore:      780,
			MonthlyIncome:    85000,
			PreApprovedLimit: 1200000,
		},
	}}
	machine := conversation.NewMachine(
		extractor.New(dir, log),
		&stubRenderer{reply: "Happy to help with your loan application."},
		6,
		log,
	)

	snsMock := &stubSNS{}
	notifier := notification.NewNotifier(&notification.Config{
		Enabled:      true,
		SenderEmail:  "loans@example.com",
		SMSEnabled:   true,
		AnnualRate:   11.0,
		TenureMonths: 60,
	}, &stubSES{}, snsMock, log)

	srv := New(
		&Config{AnnualRate: 11.0, TenureMonths: 60},
		machine,
		NewSessionStore(rdb, 30*time.Minute),
		dir,
		nil,
		notifier,
		nil,
		log,
	)
	return srv, snsMock
}

func postChat(t *testing.T, handler http.Handler, req ChatRequest) ChatResponse {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// ==========================
// Chat Endpoint Tests
// ==========================

func TestChat_FullConversation(t *testing.T) {
	srv, snsMock := newTestServer(t)
	handler := srv.Routes()

	// Turn 1: new session, greeting
	resp := postChat(t, handler, ChatRequest{Message: "Hi"})
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, models.StagePhoneAsked, resp.Stage)
	assert.Contains(t, resp.Message, "BankGPT")

	sessionID := resp.SessionID

	// Turn 2: phone verification
	resp = postChat(t, handler, ChatRequest{SessionID: sessionID, Message: "My phone is 9998887776"})
	assert.Equal(t, models.StagePhoneProvided, resp.Stage)
	assert.True(t, resp.State.Verified)

	// Turn 3: amount within limit, sanction letter goes out
	resp = postChat(t, handler, ChatRequest{SessionID: sessionID, Message: "I need 8 lakhs"})
	assert.Equal(t, models.StageApproved, resp.Stage)
	assert.Equal(t, 800000.0, resp.State.RequestedAmount)
	require.NotNil(t, resp.Sanction)
	assert.Equal(t, notification.StatusSent, resp.Sanction.Status)
	assert.Greater(t, resp.Sanction.MonthlyEMI, 0.0)
	assert.Equal(t, 1, snsMock.published)

	// Turn 4: sanction is not re-sent
	resp = postChat(t, handler, ChatRequest{SessionID: sessionID, Message: "thank you"})
	assert.Nil(t, resp.Sanction)
	assert.Equal(t, 1, snsMock.published)
}

func TestChat_SessionStatePersists(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	resp := postChat(t, handler, ChatRequest{Message: "Hi"})
	sessionID := resp.SessionID

	resp = postChat(t, handler, ChatRequest{SessionID: sessionID, Message: "9998887776"})
	require.True(t, resp.State.Verified)

	// A different session does not see that state
	other := postChat(t, handler, ChatRequest{Message: "Hi"})
	assert.NotEqual(t, sessionID, other.SessionID)
	assert.Empty(t, other.State.Phone)
}

func TestChat_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{"message":""}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ==========================
// Session Store Tests
// ==========================

func TestSessionStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(rdb, time.Minute)
	ctx := context.Background()

	sess := &Session{
		ID:    "abc",
		State: models.ConversationState{Phone: "9998887776", Verified: true},
		History: []models.Message{
			{Role: models.RoleUser, Text: "Hi"},
		},
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sess.State.Phone, got.State.Phone)
	assert.Len(t, got.History, 1)

	// Unknown id yields a fresh session
	fresh, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, fresh.History)
	assert.Equal(t, "missing", fresh.ID)
}

func TestSessionStore_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(rdb, time.Second)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "abc"}))
	mr.FastForward(2 * time.Second)

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got.State.Phone)
}
