package cryptox

import "log/slog"

const redacted = "[REDACTED]"

// RedactedToken wraps a credential so it cannot leak through fmt, slog or
// JSON encoding. Use Value only where the secret must cross a process or
// network boundary.
type RedactedToken struct {
	value string
}

// NewRedactedToken wraps value.
func NewRedactedToken(value string) RedactedToken {
	return RedactedToken{value: value}
}

// Value returns the wrapped secret. Never log the result.
func (t RedactedToken) Value() string { return t.value }

// IsEmpty reports whether no secret is wrapped.
func (t RedactedToken) IsEmpty() bool { return t.value == "" }

func (t RedactedToken) String() string   { return redacted }
func (t RedactedToken) GoString() string { return "cryptox.RedactedToken{" + redacted + "}" }

// LogValue implements slog.LogValuer.
func (t RedactedToken) LogValue() slog.Value { return slog.StringValue(redacted) }

func (t RedactedToken) MarshalText() ([]byte, error) { return []byte(redacted), nil }
func (t RedactedToken) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }
