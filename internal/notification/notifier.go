// internal/notification/notifier.go

// Package notification delivers sanction letters to approved applicants
// over SES email and SNS SMS.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	stderrors "github.com/Samtoosoon/bankgpt/internal/common/errors"
	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/common/metrics"
	"github.com/Samtoosoon/bankgpt/internal/models"
	"github.com/Samtoosoon/bankgpt/internal/underwriting"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

const (
	StatusSent     = "SENT"
	StatusFailed   = "FAILED"
	StatusDisabled = "DISABLED"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	Enabled      bool
	SenderEmail  string
	SMSEnabled   bool
	AnnualRate   float64
	TenureMonths int
}

// SanctionRef is the shortened receipt surfaced in API responses.
type SanctionRef struct {
	Reference  string  `json:"reference"`
	Status     string  `json:"status"`
	MonthlyEMI float64 `json:"monthlyEmi"`
}

// Sanction is the receipt for a delivered (or skipped) sanction letter.
type Sanction struct {
	Reference  string  `json:"reference"`
	Status     string  `json:"status"`
	Amount     float64 `json:"amount"`
	MonthlyEMI float64 `json:"monthlyEmi"`
	Letter     string  `json:"letter"`
	SentAt     string  `json:"sentAt"`
}

type Notifier struct {
	config    *Config
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func NewNotifier(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    config,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notification"}),
	}
}

// SendSanction builds the sanction letter for an approved application and
// delivers it: SMS to the verified phone when enabled, email when the
// applicant shared an address. Returns the receipt even when every channel
// is disabled, so callers always get the reference and EMI.
func (n *Notifier) SendSanction(ctx context.Context, state models.ConversationState, recipientEmail string) (*Sanction, error) {
	reference := uuid.New().String()
	emi := underwriting.EMI(state.RequestedAmount, n.config.AnnualRate, n.config.TenureMonths)
	letter := n.buildLetter(reference, state, emi)

	sanction := &Sanction{
		Reference:  reference,
		Status:     StatusDisabled,
		Amount:     state.RequestedAmount,
		MonthlyEMI: emi,
		Letter:     letter,
		SentAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if !n.config.Enabled {
		metrics.NotificationsSent.WithLabelValues(StatusDisabled).Inc()
		return sanction, nil
	}

	emailSent := false
	smsSent := false

	if recipientEmail != "" && n.sesClient != nil {
		if err := n.sendEmail(ctx, recipientEmail, letter); err != nil {
			return n.deliveryFailed(sanction, "email", err)
		}
		emailSent = true
	}

	if n.config.SMSEnabled && state.Phone != "" && n.snsClient != nil {
		if err := n.sendSMS(ctx, "+91"+state.Phone, letter); err != nil {
			return n.deliveryFailed(sanction, "sms", err)
		}
		smsSent = true
	}

	if emailSent || smsSent {
		sanction.Status = StatusSent
	}
	metrics.NotificationsSent.WithLabelValues(sanction.Status).Inc()

	n.logger.Info("sanction notification processed", map[string]interface{}{
		"reference": reference,
		"status":    sanction.Status,
		"emailSent": emailSent,
		"smsSent":   smsSent,
	})
	return sanction, nil
}

// deliveryFailed marks the sanction failed on one channel and returns both
// the sentinel callers match on and the structured cause.
func (n *Notifier) deliveryFailed(sanction *Sanction, channel string, err error) (*Sanction, error) {
	sendErr := stderrors.NewNotificationSendFailedError(channel, err)
	n.logger.Error("sanction delivery failed", map[string]interface{}{
		"reference": sanction.Reference,
		"channel":   channel,
		"code":      string(sendErr.Code),
		"retryable": sendErr.Retryable,
		"error":     err.Error(),
	})
	sanction.Status = StatusFailed
	metrics.NotificationsSent.WithLabelValues(StatusFailed).Inc()
	return sanction, fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
}

func (n *Notifier) buildLetter(reference string, state models.ConversationState, emi float64) string {
	name := state.CustomerName
	if name == "" {
		name = "Applicant"
	}

	var lines []string
	lines = append(lines, "Loan Sanction Letter")
	lines = append(lines, fmt.Sprintf("Reference: %s", reference))
	lines = append(lines, fmt.Sprintf("Applicant: %s", name))
	lines = append(lines, fmt.Sprintf("Approved Amount: INR %.0f", state.RequestedAmount))
	lines = append(lines, fmt.Sprintf("EMI: INR %.2f per month for %d months at %.1f%% p.a.",
		emi, n.config.TenureMonths, n.config.AnnualRate))
	lines = append(lines, "This is a system-generated document.")
	return strings.Join(lines, "\n")
}

func (n *Notifier) sendEmail(ctx context.Context, to, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String("Your loan sanction letter")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.SenderEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
