package text

import "strings"

// ReasoningLevel selects how much structured thinking the enhanced
// prompt asks the model for.
type ReasoningLevel string

const (
	ReasoningLow    ReasoningLevel = "low"
	ReasoningMedium ReasoningLevel = "medium"
	ReasoningHigh   ReasoningLevel = "high"

	// ReasoningAdaptive picks a level from the prompt's apparent
	// complexity.
	ReasoningAdaptive ReasoningLevel = "adaptive"
)

// reasoningPrompts are the instruction preambles per level.
var reasoningPrompts = map[ReasoningLevel]string{
	ReasoningLow: `Before answering, briefly consider:
1. What is the core question?
2. What's the most direct approach?

Now provide your answer:`,

	ReasoningMedium: `Let's approach this systematically:

<reasoning>
1. Understanding: What exactly is being asked?
2. Key factors: What are the important considerations?
3. Approach: What's the best way to handle this?
4. Potential issues: What could go wrong?
</reasoning>

Based on this analysis, here's my response:`,

	ReasoningHigh: `Let me think through this carefully and thoroughly:

<deep_reasoning>
### Problem Analysis
- Core question and objectives
- Context and constraints
- Assumptions to validate

### Solution Exploration
- Approach 1: [describe and evaluate]
- Approach 2: [describe and evaluate]
- Approach 3: [describe and evaluate]

### Critical Evaluation
- Strengths and weaknesses of each approach
- Trade-offs and implications
- Edge cases and potential failures

### Verification
- Does this solution actually address the problem?
- What could go wrong?
- How confident am I? (1-10 scale)

### Final Synthesis
- Best approach and why
- Implementation considerations
- Limitations and caveats
</deep_reasoning>

Based on this thorough analysis, here's my detailed response:`,
}

// Enhance prefixes a prompt with reasoning instructions for the given
// level. ReasoningAdaptive inspects the prompt to pick one; unknown
// levels fall back to medium.
func Enhance(prompt string, level ReasoningLevel) string {
	if level == ReasoningAdaptive {
		level = adaptiveLevel(prompt)
	}
	preamble, ok := reasoningPrompts[level]
	if !ok {
		preamble = reasoningPrompts[ReasoningMedium]
	}
	return preamble + "\n\nUser question: " + prompt
}

// highIndicators suggest the prompt wants analysis or design work.
var highIndicators = []string{
	"explain", "analyze", "compare", "evaluate", "design",
	"architecture", "optimize", "debug", "algorithm",
	"trade-off", "consider", "pros and cons", "best practice",
	"why", "how does", "what if",
}

// lowIndicators suggest a simple lookup question.
var lowIndicators = []string{
	"what is", "define", "list", "name",
	"when was", "who is", "where is",
}

// adaptiveLevel estimates prompt complexity from length and indicator
// phrases.
func adaptiveLevel(prompt string) ReasoningLevel {
	lower := strings.ToLower(prompt)

	var high, low int
	for _, ind := range highIndicators {
		if strings.Contains(lower, ind) {
			high++
		}
	}
	for _, ind := range lowIndicators {
		if strings.Contains(lower, ind) {
			low++
		}
	}

	switch {
	case high >= 2 || (len(prompt) > 200 && high >= 1):
		return ReasoningHigh
	case low >= 1 && high == 0 && len(prompt) < 50:
		return ReasoningLow
	default:
		return ReasoningMedium
	}
}
