package image

// defaultModels is the compiled inventory used when the live listing is
// unavailable or unparseable.
var defaultModels = []string{
	"flux",
	"turbo",
	"gptimage",
	"seedream",
	"kontext",
	"nanobanana",
}

// DefaultModels returns the compiled image model names.
func DefaultModels() []string {
	// Return a copy to prevent mutation.
	out := make([]string, len(defaultModels))
	copy(out, defaultModels)
	return out
}
