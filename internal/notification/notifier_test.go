// internal/notification/notifier_test.go
package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockSES struct {
	input *ses.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	input *sns.PublishInput
	err   error
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

func testConfig() *Config {
	return &Config{
		Enabled:      true,
		SenderEmail:  "loans@example.com",
		SMSEnabled:   true,
		AnnualRate:   11.0,
		TenureMonths: 60,
	}
}

func approvedState() models.ConversationState {
	return models.ConversationState{
		Phone:           "9998887776",
		Verified:        true,
		CustomerName:    "Asha Verma",
		RequestedAmount: 800000,
		Stage:           models.StageApproved,
	}
}

// ==========================
// Sanction Delivery Tests
// ==========================

func TestSendSanction_EmailAndSMS(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := NewNotifier(testConfig(), sesMock, snsMock, logger.NewTestLogger(t))

	sanction, err := n.SendSanction(context.Background(), approvedState(), "asha@example.com")
	require.NoError(t, err)

	assert.Equal(t, StatusSent, sanction.Status)
	assert.NotEmpty(t, sanction.Reference)
	assert.InDelta(t, 17394, sanction.MonthlyEMI, 5)
	assert.Contains(t, sanction.Letter, "Asha Verma")
	assert.Contains(t, sanction.Letter, "INR 800000")
	assert.Contains(t, sanction.Letter, sanction.Reference)

	require.NotNil(t, sesMock.input)
	assert.Equal(t, []string{"asha@example.com"}, sesMock.input.Destination.ToAddresses)
	assert.Equal(t, "loans@example.com", *sesMock.input.Source)

	require.NotNil(t, snsMock.input)
	assert.Equal(t, "+919998887776", *snsMock.input.PhoneNumber)
	assert.True(t, strings.Contains(*snsMock.input.Message, "Loan Sanction Letter"))
}

func TestSendSanction_SMSOnlyWithoutEmail(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := NewNotifier(testConfig(), sesMock, snsMock, logger.NewTestLogger(t))

	sanction, err := n.SendSanction(context.Background(), approvedState(), "")
	require.NoError(t, err)

	assert.Equal(t, StatusSent, sanction.Status)
	assert.Nil(t, sesMock.input)
	assert.NotNil(t, snsMock.input)
}

func TestSendSanction_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := NewNotifier(cfg, sesMock, snsMock, logger.NewTestLogger(t))

	sanction, err := n.SendSanction(context.Background(), approvedState(), "asha@example.com")
	require.NoError(t, err)

	assert.Equal(t, StatusDisabled, sanction.Status)
	assert.Nil(t, sesMock.input)
	assert.Nil(t, snsMock.input)
	// Receipt still carries letter and EMI for the caller
	assert.NotEmpty(t, sanction.Letter)
	assert.Greater(t, sanction.MonthlyEMI, 0.0)
}

func TestSendSanction_EmailFailure(t *testing.T) {
	sesMock := &mockSES{err: errors.New("ses unavailable")}
	snsMock := &mockSNS{}
	n := NewNotifier(testConfig(), sesMock, snsMock, logger.NewTestLogger(t))

	sanction, err := n.SendSanction(context.Background(), approvedState(), "asha@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
	assert.Equal(t, StatusFailed, sanction.Status)
	// SMS is not attempted after the email channel fails
	assert.Nil(t, snsMock.input)
}

func TestSendSanction_FallbackApplicantName(t *testing.T) {
	n := NewNotifier(testConfig(), &mockSES{}, &mockSNS{}, logger.NewTestLogger(t))

	state := approvedState()
	state.CustomerName = ""

	sanction, err := n.SendSanction(context.Background(), state, "")
	require.NoError(t, err)
	assert.Contains(t, sanction.Letter, "Applicant: Applicant")
}
