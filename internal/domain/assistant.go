package domain

import "time"

// ============================================================
// AI assistant
// ============================================================

// AgentRequest is the payload sent to the AI agent service.
type AgentRequest struct {
	CompanyID string            `json:"company_id"`
	UserID    string            `json:"user_id"`
	Role      Role              `json:"role"`
	Snapshot  *DashboardSummary `json:"snapshot,omitempty"`
	Query     string            `json:"query"`
}

// AgentResponse holds the agent's structured answer.
type AgentResponse struct {
	Answer        string     `json:"answer"`
	Reasoning     string     `json:"reasoning"`
	Sources       []string   `json:"sources,omitempty"`
	Confidence    float64    `json:"confidence"`
	TokensUsed    TokenUsage `json:"tokens_used"`
	ToolsExecuted []string   `json:"tools_executed,omitempty"`
}

// TokenUsage tracks LLM token consumption for cost monitoring.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AssistantRequest is the body of POST /v1/assistant.
type AssistantRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// AssistantMessage is a single chat message.
type AssistantMessage struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"` // user, assistant
	Content   string      `json:"content"`
	Timestamp string      `json:"timestamp"`
	Sources   []string    `json:"sources,omitempty"`
	Tokens    *TokenUsage `json:"token_usage,omitempty"`
}

// AssistantResponse is returned by POST /v1/assistant.
type AssistantResponse struct {
	ConversationID string            `json:"conversation_id"`
	Message        *AssistantMessage `json:"message"`
}

// AssistantResult is the service-level result before mapping to the API shape.
type AssistantResult struct {
	CompanyID   string
	Snapshot    *DashboardSummary
	Answer      *AgentResponse
	ProcessedAt time.Time
}
