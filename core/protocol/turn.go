// Package protocol defines the conversation history atom shared by the
// session, context composition, and controller packages.
package protocol

import "time"

// Role identifies the originator of a conversation Turn.
type Role string

const (
	// RoleOperator marks text typed by the human operator.
	RoleOperator Role = "operator"
	// RoleAssistant marks a raw model reply.
	RoleAssistant Role = "assistant"
	// RoleDevice marks output collected from the network device.
	RoleDevice Role = "device"
)

// WireRole is the role vocabulary of OpenAI-compatible chat endpoints.
type WireRole string

const (
	WireSystem    WireRole = "system"
	WireUser      WireRole = "user"
	WireAssistant WireRole = "assistant"
)

// Wire maps a history role onto the completion-endpoint role. Device output
// travels as user content so the model consumes it as an observation rather
// than as something it said itself.
func (r Role) Wire() WireRole {
	if r == RoleAssistant {
		return WireAssistant
	}
	return WireUser
}

// Turn is one history entry: who produced it, when, and the raw payload.
// Assistant turns additionally record the envelope decode outcome so the
// controller can distinguish a malformed reply left in history for
// self-correction from one that validated.
type Turn struct {
	Role      Role
	Timestamp time.Time
	Payload   string

	// DecodeFailed is set on assistant turns whose payload did not validate
	// as a response envelope. DecodeReason carries the validator's reason.
	DecodeFailed bool
	DecodeReason string
}

// NewTurn creates a Turn stamped with the current time.
func NewTurn(role Role, payload string) Turn {
	return Turn{Role: role, Timestamp: time.Now(), Payload: payload}
}

// Message is a single wire-format chat message sent to the completion
// endpoint.
type Message struct {
	Role    WireRole `json:"role"`
	Content string   `json:"content"`
}
