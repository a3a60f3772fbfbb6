package models

import "encoding/json"

// Envelope types for the voice platform's webhook. The platform sends a
// message describing either a batch of tool calls or a single legacy
// function call, plus call metadata carrying the caller's number.

const (
	MessageTypeToolCalls    = "tool-calls"
	MessageTypeFunctionCall = "function-call"
)

type WebhookPayload struct {
	Message  WebhookMessage `json:"message"`
	Call     CallInfo       `json:"call"`
	Customer *Customer      `json:"customer,omitempty"`
}

type WebhookMessage struct {
	Type         string        `json:"type"`
	ToolCalls    []ToolCall    `json:"toolCalls,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Function ToolFunction `json:"function"`
}

// ToolFunction arguments may arrive either as a JSON object or as a
// JSON-encoded string, so they are kept raw until dispatch.
type ToolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type FunctionCall struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

type CallInfo struct {
	Customer Customer `json:"customer"`
}

type Customer struct {
	Number string `json:"number"`
}

// ToolCallResult pairs the spoken result with structured data the platform
// threads into subsequent tool calls.
type ToolCallResult struct {
	ToolCallID string                 `json:"toolCallId"`
	Result     string                 `json:"result"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

type WebhookResponse struct {
	Results []ToolCallResult `json:"results"`
}
