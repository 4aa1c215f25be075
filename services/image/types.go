package image

import (
	"fmt"
	"os"

	"github.com/petal-labs/bloom/core"
)

// serviceName tags requests, errors, and telemetry from this client.
const serviceName = "image"

// Request describes one image generation. Zero-value fields take the
// service defaults.
type Request struct {
	// Prompt is the image description. Required, at most 200 characters.
	Prompt string

	// Model selects the generation model. Defaults to "flux".
	Model string

	// Width and Height are the output dimensions in pixels. Both default
	// to 1024.
	Width  int
	Height int

	// Seed fixes the generation for reproducibility. Zero lets the
	// service pick one.
	Seed int

	// NoLogo removes the service watermark.
	NoLogo bool

	// Private keeps the generation out of the public feed.
	Private bool

	// Enhance lets the service rewrite the prompt for detail.
	Enhance bool

	// Safe enables the strict safety filter.
	Safe bool

	// Referrer identifies the calling app to the service. Sent as a
	// query parameter.
	Referrer string
}

// validate enforces the prompt constraints before any wire call.
func (r *Request) validate() error {
	if r.Prompt == "" {
		return core.NewValidationError(serviceName,
			"prompt must not be empty",
			"Provide a text description of the image.")
	}
	if len(r.Prompt) > core.MaxImagePromptLength {
		return core.NewValidationError(serviceName,
			fmt.Sprintf("prompt exceeds maximum length of %d characters", core.MaxImagePromptLength),
			"Please shorten your prompt.")
	}
	return nil
}

func (r *Request) model() string {
	if r.Model == "" {
		return core.DefaultImageModel
	}
	return r.Model
}

func (r *Request) width() int {
	if r.Width <= 0 {
		return core.DefaultImageWidth
	}
	return r.Width
}

func (r *Request) height() int {
	if r.Height <= 0 {
		return core.DefaultImageHeight
	}
	return r.Height
}

// Image is a generated image.
type Image struct {
	// Data is the raw image bytes.
	Data []byte

	// ContentType is the image media type as reported by the service.
	ContentType string

	// RequestID correlates the image with logs and telemetry.
	RequestID string

	// Ignored marks a payment-required response tolerated by client
	// policy. Data is empty.
	Ignored bool
}

// Save writes the image bytes to path.
func (i *Image) Save(path string) error {
	return os.WriteFile(path, i.Data, 0o644)
}
