// internal/models/conversation.go
package models

// Stage is a named point in the conversation's progress, used to decide what
// information to request next.
type Stage string

const (
	StageGreeting         Stage = "greeting"
	StagePhoneAsked       Stage = "phone_asked"
	StagePhoneProvided    Stage = "phone_provided"
	StageAmountAsked      Stage = "amount_asked"
	StageAmountProvided   Stage = "amount_provided"
	StageEligibilityCheck Stage = "eligibility_check"
	StageApproved         Stage = "approved"
	StageDocumentNeeded   Stage = "document_needed"
	StageDocumentUploaded Stage = "document_uploaded"
	StageCompleted        Stage = "completed"
)

// EligibilityPath is an underwriting routing verdict.
type EligibilityPath string

const (
	PathFastTrack         EligibilityPath = "FAST_TRACK"
	PathConditionalReview EligibilityPath = "CONDITIONAL_REVIEW"
	PathHardRejection     EligibilityPath = "HARD_REJECTION"
)

// ConversationState tracks what is known about one loan application
// conversation. The caller owns the state; the stage machine receives a copy
// and returns an updated copy each turn. Zero values mean "not yet known".
//
// Invariants: once Verified is true, Phone, CreditScore, PreApprovedLimit and
// MonthlyIncome are immutable for the conversation's lifetime. RequestedAmount
// is immutable once set.
type ConversationState struct {
	Phone            string          `json:"phone,omitempty"`
	Verified         bool            `json:"verified"`
	CustomerName     string          `json:"customerName,omitempty"`
	CreditScore      int             `json:"creditScore,omitempty"`
	MonthlyIncome    float64         `json:"monthlyIncome,omitempty"`
	PreApprovedLimit float64         `json:"preApprovedLimit,omitempty"`
	RequestedAmount  float64         `json:"requestedAmount,omitempty"`
	EligibilityPath  EligibilityPath `json:"eligibilityPath,omitempty"`
	Stage            Stage           `json:"stage,omitempty"`
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the append-only conversation history.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
