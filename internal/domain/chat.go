package domain

// ChatRequest is the payload for POST /v1/chat.
type ChatRequest struct {
	UserID         string `json:"user_id"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse wraps the agent's reply for the widget.
type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
	LatencyMs      int64  `json:"latency_ms"`
}

// BillContext is the compact snapshot of a user's bills forwarded to the
// chat agent alongside the message.
type BillContext struct {
	BillCount          int     `json:"bill_count"`
	TotalAmount        float64 `json:"total_amount"`
	PendingBills       int     `json:"pending_bills"`
	TotalPendingAmount float64 `json:"total_pending_amount"`
	TopCategory        string  `json:"top_category,omitempty"`
}

// AgentRequest is the wire request to the external chat agent.
type AgentRequest struct {
	UserID         string       `json:"user_id"`
	Message        string       `json:"message"`
	ConversationID string       `json:"conversation_id,omitempty"`
	Context        *BillContext `json:"context,omitempty"`
}

// AgentResponse is the wire response from the external chat agent.
type AgentResponse struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversation_id,omitempty"`
}
