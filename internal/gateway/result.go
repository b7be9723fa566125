package gateway

// ResultKind classifies a single HTTP attempt.
type ResultKind int

const (
	// ResultOK is a 2xx response.
	ResultOK ResultKind = iota
	// ResultAuthExpired is a 401 response; the caller may refresh and retry.
	ResultAuthExpired
	// ResultFailure is any other outcome, including network errors.
	ResultFailure
)

// String returns the string representation of the result kind.
func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultAuthExpired:
		return "auth_expired"
	case ResultFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of one attempt. Body is set for ResultOK, Err otherwise.
// Token is the access token the attempt was sent with ("" for none).
type Result struct {
	Kind   ResultKind
	Status int
	Body   []byte
	Err    error
	Token  string
}
