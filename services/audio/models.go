package audio

// defaultVoices is the compiled inventory used when the live listing is
// unavailable or unparseable.
var defaultVoices = []string{
	"alloy",
	"echo",
	"fable",
	"onyx",
	"nova",
	"shimmer",
}

// DefaultVoices returns the compiled voice names.
func DefaultVoices() []string {
	// Return a copy to prevent mutation.
	out := make([]string, len(defaultVoices))
	copy(out, defaultVoices)
	return out
}
