package audio

import (
	"os"
	"strings"

	"github.com/petal-labs/bloom/core"
)

// serviceName tags requests, errors, and telemetry from this client.
const serviceName = "audio"

// trailingPunctuation is stripped from input text: the endpoint reads
// trailing punctuation aloud.
const trailingPunctuation = ".!?;:,"

// Request describes one text-to-speech generation. Zero-value fields take
// the service defaults.
type Request struct {
	// Text is the content to speak. Required.
	Text string

	// Voice selects the speaking voice. Defaults to "alloy".
	Voice string

	// Model selects the speech model. Defaults to "openai-audio".
	Model string
}

// validate enforces the text constraints before any wire call.
func (r *Request) validate() error {
	if strings.TrimRight(r.Text, trailingPunctuation) == "" {
		return core.NewValidationError(serviceName,
			"text must not be empty",
			"Provide text to synthesize.")
	}
	return nil
}

func (r *Request) voice() string {
	if r.Voice == "" {
		return core.DefaultVoice
	}
	return r.Voice
}

func (r *Request) model() string {
	if r.Model == "" {
		return core.DefaultAudioModel
	}
	return r.Model
}

// Audio is generated speech.
type Audio struct {
	// Data is the raw audio bytes.
	Data []byte

	// ContentType is the audio media type as reported by the service.
	ContentType string

	// RequestID correlates the audio with logs and telemetry.
	RequestID string

	// Ignored marks a payment-required response tolerated by client
	// policy. Data is empty.
	Ignored bool
}

// Save writes the audio bytes to path.
func (a *Audio) Save(path string) error {
	return os.WriteFile(path, a.Data, 0o644)
}
