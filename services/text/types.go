package text

import (
	"fmt"

	"github.com/petal-labs/bloom/core"
)

// serviceName tags requests, errors, and telemetry from this client.
const serviceName = "text"

// Role identifies a chat message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes one prompt completion. Zero-value fields take the
// service defaults.
type Request struct {
	// Prompt is the input text. Required, at most 10000 characters.
	Prompt string

	// Model selects the completion model. Defaults to "openai".
	Model string

	// System is the optional system prompt.
	System string

	// Seed fixes the generation for reproducibility. Zero lets the
	// service pick one.
	Seed int

	// Temperature adjusts sampling. Zero means the service default.
	Temperature float64

	// JSONMode asks the service for a JSON-shaped completion.
	JSONMode bool

	// Private keeps the generation out of the public feed.
	Private bool
}

// validate enforces the prompt constraints before any wire call.
func (r *Request) validate() error {
	if r.Prompt == "" {
		return core.NewValidationError(serviceName,
			"prompt must not be empty",
			"Provide an input prompt.")
	}
	if len(r.Prompt) > core.MaxTextPromptLength {
		return core.NewValidationError(serviceName,
			fmt.Sprintf("prompt exceeds maximum length of %d characters", core.MaxTextPromptLength),
			"Please shorten your prompt.")
	}
	return nil
}

func (r *Request) model() string {
	if r.Model == "" {
		return core.DefaultTextModel
	}
	return r.Model
}

// ChatRequest describes one multi-turn completion against the
// OpenAI-compatible endpoint. The endpoint pins sampling temperature to
// the service default, so there is no temperature knob here.
type ChatRequest struct {
	// Messages is the conversation so far. At least one message is
	// required.
	Messages []Message

	// Model selects the completion model. Defaults to "openai".
	Model string

	// JSONMode asks the service for a JSON-shaped completion.
	JSONMode bool

	// Private keeps the generation out of the public feed.
	Private bool
}

// validate enforces the message constraints before any wire call.
func (r *ChatRequest) validate() error {
	if len(r.Messages) == 0 {
		return core.NewValidationError(serviceName,
			"messages must not be empty",
			"Provide at least one chat message.")
	}
	return nil
}

func (r *ChatRequest) model() string {
	if r.Model == "" {
		return core.DefaultTextModel
	}
	return r.Model
}

// Response is a completed text generation.
type Response struct {
	// Text is the generated completion.
	Text string

	// RequestID correlates the response with logs and telemetry.
	RequestID string

	// Ignored marks a payment-required response tolerated by client
	// policy. Text is empty.
	Ignored bool
}
