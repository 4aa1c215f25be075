package text

// defaultModels is the compiled inventory used when the live listing is
// unavailable or unparseable.
var defaultModels = []string{
	"openai",
	"openai-fast",
	"openai-large",
	"openai-reasoning",
	"deepseek",
	"gemini",
	"gemini-search",
	"mistral",
	"claude",
	"qwen-coder",
	"perplexity-fast",
	"perplexity-reasoning",
	"naughty",
	"chickytutor",
	"midijourney",
}

// DefaultModels returns the compiled text model names.
func DefaultModels() []string {
	// Return a copy to prevent mutation.
	out := make([]string, len(defaultModels))
	copy(out, defaultModels)
	return out
}
