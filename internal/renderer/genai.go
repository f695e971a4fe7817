// internal/renderer/genai.go
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Samtoosoon/bankgpt/internal/common/logger"
)

var (
	ErrRenderTimeout   = errors.New("RENDERING_TIMEOUT")
	ErrRenderFailed    = errors.New("RENDERING_FAILED")
	ErrDegenerateReply = errors.New("DEGENERATE_REPLY")
)

// Config for the GenAI-backed renderer.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	MaxTokens      int
	Temperature    float64
	MinReplyLength int
}

// GenAI renders replies through an HTTP text-generation service. Requests
// retry with exponential backoff inside the per-turn timeout; the stage
// machine handles any terminal failure with its fallback message.
type GenAI struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewGenAI(config *Config, log logger.Logger) *GenAI {
	return &GenAI{
		config: config,
		// No client-level timeout, the per-turn context bounds the call
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{
			"component": "renderer",
		}),
	}
}

func (g *GenAI) Generate(ctx context.Context, rc *ReplyContext) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	requestBody := map[string]interface{}{
		"prompt":      g.buildPrompt(rc),
		"max_tokens":  g.config.MaxTokens,
		"temperature": g.config.Temperature,
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrRenderTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", g.config.BaseURL+"/api/ai/generate", bytes.NewBuffer(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, lastErr = g.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", ErrRenderTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrRenderTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, lastErr)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", ErrRenderFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrRenderFailed, err)
	}

	reply := strings.TrimSpace(apiResponse.Text)
	if len(reply) < g.config.MinReplyLength {
		return "", fmt.Errorf("%w: %d chars", ErrDegenerateReply, len(reply))
	}

	g.logger.Debug("reply generated", map[string]interface{}{
		"stage":  string(rc.Stage),
		"length": len(reply),
	})
	return reply, nil
}

func (g *GenAI) buildPrompt(rc *ReplyContext) string {
	var parts []string

	parts = append(parts, "You are BankGPT, a professional and friendly loan officer at Tata Capital.")
	parts = append(parts, fmt.Sprintf("You are in the '%s' stage of the loan application process.", rc.Stage))
	parts = append(parts, fmt.Sprintf("\nRespond in %s.", rc.Language))

	parts = append(parts, "\nConversation so far:")
	if len(rc.History) == 0 {
		parts = append(parts, "No previous conversation yet.")
	}
	for _, msg := range rc.History {
		role := "BankGPT"
		if msg.Role == "user" {
			role = "Customer"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", role, msg.Text))
	}
	parts = append(parts, fmt.Sprintf("Customer's latest message: %q", rc.Utterance))

	parts = append(parts, "\nVerified information:")
	state := rc.State
	if state.Phone != "" {
		parts = append(parts, fmt.Sprintf("- Phone: %s (verified)", state.Phone))
	} else {
		parts = append(parts, "- Phone: not yet provided")
	}
	if state.CustomerName != "" {
		parts = append(parts, fmt.Sprintf("- Name: %s", state.CustomerName))
	}
	if state.CreditScore > 0 {
		parts = append(parts, fmt.Sprintf("- Credit score: %d", state.CreditScore))
	}
	if state.PreApprovedLimit > 0 {
		parts = append(parts, fmt.Sprintf("- Pre-approved limit: INR %.0f", state.PreApprovedLimit))
	}
	if state.RequestedAmount > 0 {
		parts = append(parts, fmt.Sprintf("- Requested amount: INR %.0f", state.RequestedAmount))
	} else {
		parts = append(parts, "- Requested amount: not yet provided")
	}
	if state.EligibilityPath != "" {
		parts = append(parts, fmt.Sprintf("- Eligibility path: %s", state.EligibilityPath))
	}

	parts = append(parts, "\nInstructions:")
	if rc.Instruction != "" {
		parts = append(parts, "- "+rc.Instruction)
	}
	parts = append(parts, "- Only ask for information not already listed above, never re-ask")
	parts = append(parts, "- Acknowledge the customer's message and move the application forward")
	parts = append(parts, "- Keep the response under 150 words, warm and professional")
	parts = append(parts, "- Generate only the reply text, no explanations or meta-commentary")

	parts = append(parts, "\nReply:")

	return strings.Join(parts, "\n")
}
