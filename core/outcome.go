package core

// OutcomeKind distinguishes the three terminal states of a classified
// response.
type OutcomeKind int

const (
	// OutcomeOk means the response succeeded and carries a payload.
	OutcomeOk OutcomeKind = iota

	// OutcomeIgnored means the response failed in a way the caller asked
	// to tolerate. Today that is a 402 on a payment-advisory endpoint.
	OutcomeIgnored

	// OutcomeFailed means the response failed and carries an error.
	OutcomeFailed
)

// String implements fmt.Stringer.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOk:
		return "ok"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of classifying a response: success, tolerated
// failure, or error. Checking the 402-advisory branch is an explicit
// switch on Kind rather than a suppressed error.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Ok reports a successful classification.
func Ok() Outcome {
	return Outcome{Kind: OutcomeOk}
}

// Ignored reports a tolerated failure.
func Ignored() Outcome {
	return Outcome{Kind: OutcomeIgnored}
}

// Failed reports a classification error.
func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}
