package oauth

// RedactedToken wraps a one-time token so it cannot leak through fmt or logs.
//
//	tok := oauth.NewRedactedToken(params.Get("ott"))
//	fmt.Println(tok)   // [REDACTED]
//	tok.Value()        // the real value, only for the exchange request
type RedactedToken struct {
	value string
}

// NewRedactedToken wraps value.
func NewRedactedToken(value string) RedactedToken {
	return RedactedToken{value: value}
}

// Value returns the raw token. Never log the result.
func (t RedactedToken) Value() string {
	return t.value
}

// Empty reports whether no token was provided.
func (t RedactedToken) Empty() bool {
	return t.value == ""
}

// Prefix returns at most n leading characters of the token.
func (t RedactedToken) Prefix(n int) string {
	if len(t.value) <= n {
		return t.value
	}
	return t.value[:n]
}

// String implements fmt.Stringer.
func (t RedactedToken) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v.
func (t RedactedToken) GoString() string {
	return "oauth.RedactedToken{[REDACTED]}"
}
