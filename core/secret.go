package core

// Secret wraps an API token or other sensitive string with protection
// against accidental exposure. Every printing and marshaling path yields a
// redacted placeholder; the raw value is only reachable through Expose.
//
// Executors place the exposed value in the Authorization header at send
// time. Nothing else in the SDK reads it, and it is never written into a
// URL, trace, or error message.
//
// Example:
//
//	token := NewSecret("pk-abc123")
//	fmt.Println(token)        // prints: [REDACTED]
//	fmt.Printf("%#v", token)  // prints: core.Secret{[REDACTED]}
//	token.Expose()            // returns: "pk-abc123"
type Secret struct {
	value string
}

// NewSecret creates a Secret from a raw string value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// String returns a redacted placeholder. Implements fmt.Stringer.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString returns a redacted placeholder for %#v formatting.
// Implements fmt.GoStringer.
func (s Secret) GoString() string {
	return "core.Secret{[REDACTED]}"
}

// MarshalJSON returns a redacted JSON string so a Secret embedded in a
// struct never leaks through serialization.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// MarshalText returns a redacted text representation (covers YAML and other
// text-based encoders). Implements encoding.TextMarshaler.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// Expose returns the raw value. Call this only at the point of use, and do
// not log or serialize the result.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty reports whether no value is set.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}
