// internal/conversation/machine_test.go
package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/conversation/extractor"
	"github.com/Samtoosoon/bankgpt/internal/directory"
	"github.com/Samtoosoon/bankgpt/internal/models"
	"github.com/Samtoosoon/bankgpt/internal/renderer"

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

type stubRenderer struct {
	reply string
	err   error
	last  *renderer.ReplyContext
}

func (s *stubRenderer) Generate(ctx context.Context, rc *renderer.ReplyContext) (string, error) {
	s.last = rc
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestMachine(t *testing.T, r renderer.Renderer) *Machine {
	t.Helper()
	dir := &stubDirectory{records: map[string]*models.ApplicantRecord{
		"9998887776": {
			Phone:            "9998887776",
			Name:             "Asha Verma",
			CreditScore:      780,
			MonthlyIncome:    85000,
			PreApprovedLimit: 1200000,
		},
	}}
	log := logger.NewTestLogger(t)
	return NewMachine(extractor.New(dir, log), r, 6, log)
}

// ==========================
// Turn Protocol Tests
// ==========================

func TestAdvance_ThreeTurnApprovalFlow(t *testing.T) {
	r := &stubRenderer{reply: "Certainly, let me help you with that."}
	m := newTestMachine(t, r)
	ctx := context.Background()

	// Turn 1: greeting, no extraction
	res, err := m.Advance(ctx, "Hi", models.ConversationState{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StagePhoneAsked, res.Stage)
	assert.Contains(t, res.Message, "BankGPT")
	assert.Equal(t, "english", res.Language)
	assert.Empty(t, res.State.Phone)

	history := []models.Message{
		{Role: models.RoleUser, Text: "Hi"},
		{Role: models.RoleAssistant, Text: res.Message},
	}

	// Turn 2: phone provided and verified
	res, err = m.Advance(ctx, "My phone is 9998887776", res.State, history)
	require.NoError(t, err)
	assert.Equal(t, models.StagePhoneProvided, res.Stage)
	assert.True(t, res.State.Verified)
	assert.Equal(t, "9998887776", res.State.Phone)
	assert.Equal(t, "Asha Verma", res.State.CustomerName)
	assert.Equal(t, 780, res.State.CreditScore)
	assert.Equal(t, 1200000.0, res.State.PreApprovedLimit)

	history = append(history,
		models.Message{Role: models.RoleUser, Text: "My phone is 9998887776"},
		models.Message{Role: models.RoleAssistant, Text: res.Message},
	)

	// Turn 3: amount within limit lands on approved
	res, err = m.Advance(ctx, "I need 8 lakhs", res.State, history)
	require.NoError(t, err)
	assert.Equal(t, 800000.0, res.State.RequestedAmount)
	assert.Equal(t, models.PathFastTrack, res.State.EligibilityPath)
	assert.Equal(t, models.StageApproved, res.Stage)
	assert.Equal(t, models.StageApproved, res.State.Stage)
	assert.Equal(t, "Certainly, let me help you with that.", res.Message)
}

func TestAdvance_AmountAboveLimitNeedsDocuments(t *testing.T) {
	r := &stubRenderer{reply: "Please upload your salary slip."}
	m := newTestMachine(t, r)

	state := models.ConversationState{
		Phone: "9998887776", Verified: true,
		CreditScore: 780, PreApprovedLimit: 1200000,
	}
	history := []models.Message{{Role: models.RoleUser, Text: "Hi"}}

	res, err := m.Advance(context.Background(), "I need 20 lakhs", state, history)
	require.NoError(t, err)
	assert.Equal(t, models.StageDocumentNeeded, res.Stage)
	assert.Equal(t, 2000000.0, res.State.RequestedAmount)
	assert.Equal(t, models.PathConditionalReview, res.State.EligibilityPath)
}

func TestAdvance_UnknownPhoneReprompts(t *testing.T) {
	r := &stubRenderer{reply: "I could not verify that number, could you re-check?"}
	m := newTestMachine(t, r)

	history := []models.Message{{Role: models.RoleUser, Text: "Hi"}}
	res, err := m.Advance(context.Background(), "1112223334", models.ConversationState{}, history)
	require.NoError(t, err)

	assert.Equal(t, models.StagePhoneAsked, res.Stage)
	assert.Empty(t, res.State.Phone)
	assert.False(t, res.State.Verified)
}

func TestAdvance_NoAmountHoldsStage(t *testing.T) {
	r := &stubRenderer{reply: "How much would you like to borrow?"}
	m := newTestMachine(t, r)

	state := models.ConversationState{
		Phone: "9998887776", Verified: true, PreApprovedLimit: 1200000,
	}
	history := []models.Message{{Role: models.RoleUser, Text: "Hi"}}

	res, err := m.Advance(context.Background(), "a loan for my shop", state, history)
	require.NoError(t, err)
	assert.Equal(t, models.StageAmountAsked, res.Stage)
	assert.Zero(t, res.State.RequestedAmount)
}

// ==========================
// Invariant Tests
// ==========================

func TestAdvance_VerifiedFactsImmutable(t *testing.T) {
	r := &stubRenderer{reply: "Your details are already on file."}
	m := newTestMachine(t, r)

	state := models.ConversationState{
		Phone: "9998887776", Verified: true,
		CreditScore: 780, PreApprovedLimit: 1200000,
		RequestedAmount: 800000,
	}
	history := []models.Message{{Role: models.RoleUser, Text: "Hi"}}

	res, err := m.Advance(context.Background(), "use 1112223334 instead and make it 50 lakhs", state, history)
	require.NoError(t, err)

	assert.Equal(t, "9998887776", res.State.Phone)
	assert.Equal(t, 780, res.State.CreditScore)
	assert.Equal(t, 1200000.0, res.State.PreApprovedLimit)
	assert.Equal(t, 800000.0, res.State.RequestedAmount)
}

func TestAdvance_FirstTurnHindiGreeting(t *testing.T) {
	r := &stubRenderer{reply: "unused"}
	m := newTestMachine(t, r)

	res, err := m.Advance(context.Background(), "नमस्ते, मुझे लोन चाहिए", models.ConversationState{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hindi", res.Language)
	assert.Contains(t, res.Message, "BankGPT")
}

// ==========================
// Failure Handling Tests
// ==========================

func TestAdvance_RendererFailureFallsBack(t *testing.T) {
	r := &stubRenderer{err: errors.New("generation exploded")}
	m := newTestMachine(t, r)

	history := []models.Message{{Role: models.RoleUser, Text: "Hi"}}
	res, err := m.Advance(context.Background(), "My phone is 9998887776", models.ConversationState{}, history)
	require.NoError(t, err)

	// Facts survive the rendering failure
	assert.True(t, res.State.Verified)
	assert.Equal(t, models.StagePhoneProvided, res.Stage)
	assert.GreaterOrEqual(t, len(res.Message), 5)
	assert.Contains(t, res.Message, "try again")
}

func TestAdvance_ShortReplyFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"below minimum length", "ok"},
		{"whitespace padded", "  no \n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &stubRenderer{reply: tt.reply}
			m := newTestMachine(t, r)

			history := []models.Message{{Role: models.RoleUser, Text: "Hi"}}
			res, err := m.Advance(context.Background(), "My phone is 9998887776", models.ConversationState{}, history)
			require.NoError(t, err)

			// Facts survive, the degenerate reply does not
			assert.True(t, res.State.Verified)
			assert.Equal(t, models.StagePhoneProvided, res.Stage)
			assert.GreaterOrEqual(t, len(res.Message), 5)
			assert.Contains(t, res.Message, "try again")
		})
	}
}

func TestAdvance_HistoryWindowApplied(t *testing.T) {
	r := &stubRenderer{reply: "How much would you like to borrow?"}
	dir := &stubDirectory{records: map[string]*models.ApplicantRecord{}}
	log := logger.NewTestLogger(t)
	m := NewMachine(extractor.New(dir, log), r, 2, log)

	history := make([]models.Message, 0, 5)
	for i := 0; i < 5; i++ {
		history = append(history, models.Message{Role: models.RoleUser, Text: "hello"})
	}

	_, err := m.Advance(context.Background(), "a loan please", models.ConversationState{}, history)
	require.NoError(t, err)

	require.NotNil(t, r.last)
	assert.Len(t, r.last.History, 2)
}

func TestAdvance_RendererReceivesContext(t *testing.T) {
	r := &stubRenderer{reply: "Let me check your eligibility."}
	m := newTestMachine(t, r)

	state := models.ConversationState{
		Phone: "9998887776", Verified: true, PreApprovedLimit: 1200000,
	}
	history := []models.Message{{Role: models.RoleUser, Text: "Hi"}}

	_, err := m.Advance(context.Background(), "I need 8 lakhs", state, history)
	require.NoError(t, err)

	require.NotNil(t, r.last)
	assert.Equal(t, models.StageApproved, r.last.Stage)
	assert.Equal(t, 800000.0, r.last.State.RequestedAmount)
	assert.Equal(t, "I need 8 lakhs", r.last.Utterance)
	assert.NotEmpty(t, r.last.Instruction)
}

func TestAdvance_CancelledContext(t *testing.T) {
	r := &stubRenderer{reply: "unused"}
	m := newTestMachine(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Advance(ctx, "Hi", models.ConversationState{}, nil)
	assert.Error(t, err)
}
