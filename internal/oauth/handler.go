package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"moltyverse/internal/navigation"
	"moltyverse/pkg/logging"
)

// OneTimeTokenParam is the query parameter carrying the one-time token.
const OneTimeTokenParam = "ott"

// DefaultRedirectDelay leaves the failure message on screen before the
// redirect to login.
const DefaultRedirectDelay = 2 * time.Second

// idempotencyKeyPrefixLen is how much of the token the idempotency key keeps.
const idempotencyKeyPrefixLen = 16

// FailureMessage is shown when the exchange fails.
const FailureMessage = "Sign-in failed. Redirecting you to the login page..."

var (
	// ErrMissingToken is returned by HandleWithKey when params carry no token.
	ErrMissingToken = errors.New("no one-time token in callback")

	// ErrExchangeFailed wraps any error from the token exchange.
	ErrExchangeFailed = errors.New("one-time token exchange failed")
)

// Exchanger trades a one-time token for a persistent session. How the session
// is kept (cookie or stored credential) is up to the implementation.
type Exchanger interface {
	ExchangeOneTimeToken(ctx context.Context, token string) error
}

// Location is the view of the current URL the handler needs.
type Location interface {
	URL() *url.URL
	navigation.Navigator
}

// Timer is the subset of *time.Timer used for the delayed redirect.
type Timer interface {
	Stop() bool
}

// Result is what a callback invocation produced.
type Result struct {
	State State

	// Duplicate is set when this call did not run the exchange itself: the
	// key was already marked, or it joined an exchange still in flight.
	Duplicate bool

	// Message is user-facing text for the failed state.
	Message string
}

// HandlerConfig configures the callback handler.
type HandlerConfig struct {
	Exchanger Exchanger
	Markers   MarkerSet
	Location  Location

	// LoginPath is where a failed exchange redirects to.
	LoginPath string

	// RedirectDelay defaults to DefaultRedirectDelay.
	RedirectDelay time.Duration

	// AfterFunc schedules the redirect; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) Timer
}

// Handler consumes one-time tokens from callback URLs.
type Handler struct {
	mu            sync.Mutex
	state         State
	exchanger     Exchanger
	markers       MarkerSet
	location      Location
	loginPath     string
	redirectDelay time.Duration
	afterFunc     func(d time.Duration, f func()) Timer
	pending       Timer

	// exchanges joins concurrent callbacks for the same key.
	exchanges singleflight.Group
}

// NewHandler creates a callback handler in the idle state.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Exchanger == nil {
		return nil, errors.New("exchanger is required")
	}
	if cfg.Markers == nil {
		return nil, errors.New("marker set is required")
	}
	if cfg.Location == nil {
		return nil, errors.New("location is required")
	}

	h := &Handler{
		state:         StateIdle,
		exchanger:     cfg.Exchanger,
		markers:       cfg.Markers,
		location:      cfg.Location,
		loginPath:     cfg.LoginPath,
		redirectDelay: cfg.RedirectDelay,
		afterFunc:     cfg.AfterFunc,
	}
	if h.loginPath == "" {
		h.loginPath = "/login"
	}
	if h.redirectDelay <= 0 {
		h.redirectDelay = DefaultRedirectDelay
	}
	if h.afterFunc == nil {
		h.afterFunc = func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		}
	}
	return h, nil
}

// HasCallback reports whether params carry a one-time token or a provider error.
func HasCallback(params url.Values) bool {
	return params.Get(OneTimeTokenParam) != "" || params.Get("error") != ""
}

// IdempotencyKey derives the exchange marker key from a one-time token.
func IdempotencyKey(token RedactedToken) string {
	return "oauth_exchange_" + token.Prefix(idempotencyKeyPrefixLen)
}

// State returns the current state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Handle processes callback parameters, keying idempotency on the token.
// Without a token or provider error the handler stays idle.
func (h *Handler) Handle(ctx context.Context, params url.Values) (Result, error) {
	if !HasCallback(params) {
		return Result{State: h.State()}, nil
	}
	token := NewRedactedToken(params.Get(OneTimeTokenParam))
	return h.HandleWithKey(ctx, IdempotencyKey(token), params)
}

// HandleWithKey processes callback parameters using an explicit idempotency key.
func (h *Handler) HandleWithKey(ctx context.Context, key string, params url.Values) (Result, error) {
	if providerErr := params.Get("error"); providerErr != "" {
		logging.Warn("OAuth", "Provider returned error: %s - %s", providerErr, params.Get("error_description"))
		return h.fail(fmt.Errorf("%w: provider error %s", ErrExchangeFailed, providerErr))
	}

	token := NewRedactedToken(params.Get(OneTimeTokenParam))
	if token.Empty() {
		return Result{State: h.State()}, ErrMissingToken
	}

	h.setState(StateVerifying)

	v, err, shared := h.exchanges.Do(key, func() (interface{}, error) {
		return h.exchange(ctx, key, token)
	})
	result := v.(Result)
	if shared {
		result.Duplicate = true
	}
	return result, err
}

// exchange marks key and trades the token. A key marked by an earlier,
// completed exchange is reported as verified without a network call.
func (h *Handler) exchange(ctx context.Context, key string, token RedactedToken) (Result, error) {
	first, err := h.markers.Mark(ctx, key)
	if err != nil {
		return h.fail(fmt.Errorf("%w: %v", ErrExchangeFailed, err))
	}
	if !first {
		logging.Debug("OAuth", "One-time token already exchanged, skipping (key=%s)", logging.TruncateToken(key))
		h.setState(StateVerified)
		return Result{State: StateVerified, Duplicate: true}, nil
	}

	if err := h.exchanger.ExchangeOneTimeToken(ctx, token.Value()); err != nil {
		logging.Audit(logging.AuditEvent{Action: "ott_exchange", Outcome: "failure", Reason: err.Error()})
		return h.fail(fmt.Errorf("%w: %w", ErrExchangeFailed, err))
	}

	h.location.Replace(navigation.WithoutParam(h.location.URL(), OneTimeTokenParam))
	h.setState(StateVerified)

	logging.Audit(logging.AuditEvent{Action: "ott_exchange", Outcome: "success"})
	return Result{State: StateVerified}, nil
}

// Cancel stops a scheduled redirect, if any.
func (h *Handler) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending != nil {
		h.pending.Stop()
		h.pending = nil
	}
}

func (h *Handler) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *Handler) fail(err error) (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = StateFailed
	if h.pending != nil {
		h.pending.Stop()
	}
	loginPath := h.loginPath
	h.pending = h.afterFunc(h.redirectDelay, func() {
		h.location.Assign(loginPath)
	})

	return Result{State: StateFailed, Message: FailureMessage}, err
}
