package session

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"moltyverse/internal/credential"
	"moltyverse/internal/gateway"
	"moltyverse/internal/navigation"
	"moltyverse/internal/oauth"
	"moltyverse/pkg/logging"
)

// Gateway is the part of the API gateway the session needs.
type Gateway interface {
	Login(ctx context.Context, username, password string) (*gateway.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*gateway.AuthResponse, error)
	Verify(ctx context.Context) (*credential.User, error)
}

// CallbackHandler consumes OAuth callback parameters.
type CallbackHandler interface {
	Handle(ctx context.Context, params url.Values) (oauth.Result, error)
}

// Location exposes the current URL.
type Location interface {
	URL() *url.URL
}

// routeNotifier is implemented by locations that report route changes.
type routeNotifier interface {
	Subscribe(fn func(*url.URL)) func()
}

// storeWatcher is implemented by stores that can report external changes.
type storeWatcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Config wires a Service.
type Config struct {
	Store    credential.Store
	Gateway  Gateway
	Location Location

	// OAuth is optional. Without it callback parameters are ignored.
	OAuth CallbackHandler

	// Navigator defaults to Location when it implements navigation.Navigator.
	Navigator navigation.Navigator

	// LoginPath is the logout destination. Defaults to "/login".
	LoginPath string
}

// Service owns the authenticated-session state.
type Service struct {
	store     credential.Store
	gateway   Gateway
	oauth     CallbackHandler
	location  Location
	nav       navigation.Navigator
	loginPath string

	mu          sync.Mutex
	generation  uint64
	phase       phase
	subscribers map[*subscriber]struct{}

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

// New creates a Service. Nothing happens until Initialize or Start is called.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("credential store is required")
	}
	if cfg.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if cfg.Location == nil {
		return nil, errors.New("location is required")
	}

	nav := cfg.Navigator
	if nav == nil {
		n, ok := cfg.Location.(navigation.Navigator)
		if !ok {
			return nil, errors.New("navigator is required")
		}
		nav = n
	}

	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = gateway.DefaultLoginPath
	}

	return &Service{
		store:       cfg.Store,
		gateway:     cfg.Gateway,
		oauth:       cfg.OAuth,
		location:    cfg.Location,
		nav:         nav,
		loginPath:   loginPath,
		subscribers: make(map[*subscriber]struct{}),
	}, nil
}

// Snapshot returns the current state.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase.view()
}

// Subscribe returns a channel receiving the current state followed by every
// change, in order. The returned function ends the subscription and closes
// the channel.
func (s *Service) Subscribe() (<-chan State, func()) {
	sub := newSubscriber()

	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	sub.push(s.phase.view())
	s.mu.Unlock()

	return sub.out, func() {
		s.mu.Lock()
		delete(s.subscribers, sub)
		s.mu.Unlock()
		sub.stop()
	}
}

// Initialize resolves the session for the current location. The returned
// channel is closed once the state is no longer loading or the cycle was
// superseded by a newer one.
//
// A callback URL is handed to the OAuth handler and then verified. Otherwise a
// stored credential is shown at once from its cached user and verified in the
// background. With neither, the state resolves to signed out without any
// network call.
func (s *Service) Initialize(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	gen := s.begin()

	params := s.location.URL().Query()
	if s.oauth != nil && oauth.HasCallback(params) {
		go func() {
			defer close(done)
			s.completeCallback(ctx, gen, params)
		}()
		return done
	}

	cred, err := s.store.Get(ctx)
	if err != nil {
		logging.Warn("Session", "Failed to read stored credential, treating as signed out: %v", err)
		cred = nil
	}
	if cred == nil {
		s.apply(gen, action{kind: actionSignedOut})
		close(done)
		return done
	}

	s.apply(gen, action{kind: actionHydrate, user: cred.User})
	go func() {
		defer close(done)
		s.verify(ctx, gen)
	}()
	return done
}

// Wait blocks until done is closed or ctx ends.
func Wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login authenticates with username and password. On failure the error is
// returned unchanged and neither the store nor the state is touched.
func (s *Service) Login(ctx context.Context, username, password string) error {
	resp, err := s.gateway.Login(ctx, username, password)
	if err != nil {
		logging.Audit(logging.AuditEvent{Action: "login", Outcome: "failure", Target: username, Reason: err.Error()})
		return err
	}
	if err := s.establish(ctx, resp); err != nil {
		return err
	}
	logging.Audit(logging.AuditEvent{Action: "login", Outcome: "success", UserID: resp.User.ID})
	return nil
}

// Register creates an account and signs it in, like Login.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	resp, err := s.gateway.Register(ctx, username, email, password)
	if err != nil {
		logging.Audit(logging.AuditEvent{Action: "register", Outcome: "failure", Target: username, Reason: err.Error()})
		return err
	}
	if err := s.establish(ctx, resp); err != nil {
		return err
	}
	logging.Audit(logging.AuditEvent{Action: "register", Outcome: "success", UserID: resp.User.ID})
	return nil
}

// Logout clears the stored credential and navigates to the login page.
func (s *Service) Logout(ctx context.Context) error {
	var userID string
	if u := s.Snapshot().User; u != nil {
		userID = u.ID
	}

	err := s.store.Clear(ctx)

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()
	s.apply(gen, action{kind: actionSignedOut})

	logging.Audit(logging.AuditEvent{Action: "logout", Outcome: "success", UserID: userID})
	s.nav.Assign(s.loginPath)
	return err
}

// Start runs a first Initialize and re-runs it whenever the route changes or
// the credential store is modified by another process. Close stops it.
func (s *Service) Start(ctx context.Context) (<-chan struct{}, error) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.cancel != nil {
		return nil, errors.New("session already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if w, ok := s.store.(storeWatcher); ok {
		changes, err := w.Watch(ctx)
		if err != nil {
			logging.Warn("Session", "Credential changes from other processes will not be noticed: %v", err)
		} else {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				for range changes {
					logging.Debug("Session", "Stored credential changed, re-initializing")
					s.Initialize(ctx)
				}
			}()
		}
	}

	if rn, ok := s.location.(routeNotifier); ok {
		s.unsubscribe = rn.Subscribe(func(*url.URL) {
			if ctx.Err() == nil {
				s.Initialize(ctx)
			}
		})
	}

	return s.Initialize(ctx), nil
}

// Close stops background work started by Start and ends all subscriptions.
func (s *Service) Close() {
	s.lifecycleMu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.lifecycleMu.Unlock()
	s.wg.Wait()

	s.mu.Lock()
	for sub := range s.subscribers {
		sub.stop()
		delete(s.subscribers, sub)
	}
	s.mu.Unlock()
}

func (s *Service) establish(ctx context.Context, resp *gateway.AuthResponse) error {
	if resp == nil {
		return &gateway.RequestError{Status: 200, Message: gateway.DefaultErrorMessage}
	}
	cred := resp.Credential()
	if err := s.store.Set(ctx, cred); err != nil {
		return err
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()
	s.apply(gen, action{kind: actionVerified, user: cred.User})
	return nil
}

func (s *Service) completeCallback(ctx context.Context, gen uint64, params url.Values) {
	if _, err := s.oauth.Handle(ctx, params); err != nil {
		logging.Warn("Session", "OAuth callback failed: %v", err)
		s.apply(gen, action{kind: actionSignedOut})
		return
	}

	// The exchange may have stored a credential; show it while verifying.
	if cred, err := s.store.Get(ctx); err == nil && cred != nil {
		s.apply(gen, action{kind: actionHydrate, user: cred.User})
	}
	s.verify(ctx, gen)
}

func (s *Service) verify(ctx context.Context, gen uint64) {
	user, err := s.gateway.Verify(ctx)
	if !s.isCurrent(gen) {
		logging.Debug("Session", "Discarding verification result of superseded cycle %d", gen)
		return
	}

	if err != nil {
		logging.Info("Session", "Verification failed, signing out: %v", err)
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			logging.Error("Session", clearErr, "Failed to clear credential after verification failure")
		}
		logging.Audit(logging.AuditEvent{Action: "credential_clear", Outcome: "success", Reason: "verification failed"})
		s.apply(gen, action{kind: actionSignedOut})
		return
	}

	s.apply(gen, action{kind: actionVerified, user: user})
}

func (s *Service) begin() uint64 {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.apply(gen, action{kind: actionBegin})
	return gen
}

func (s *Service) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

// apply reduces a into the state unless gen has been superseded.
func (s *Service) apply(gen uint64, a action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	next := reduce(s.phase, a)
	s.phase = next

	view := next.view()
	for sub := range s.subscribers {
		sub.push(view)
	}
	return true
}
