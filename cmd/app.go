package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"moltyverse/internal/backend"
	"moltyverse/internal/cli"
	"moltyverse/internal/config"
	"moltyverse/internal/credential"
	"moltyverse/internal/gateway"
	"moltyverse/internal/guard"
	"moltyverse/internal/navigation"
	"moltyverse/internal/oauth"
	"moltyverse/internal/session"
	"moltyverse/pkg/logging"
)

// markerKeyPrefix namespaces exchange markers in a shared Redis.
const markerKeyPrefix = "moltyverse:ott:"

// app is the wiring shared by the commands of one invocation.
type app struct {
	cfg      config.Config
	store    credential.Store
	location *navigation.Location
	gateway  *gateway.Client
	session  *session.Service
	backend  *backend.Client
	oauth    *oauth.Handler

	closers []io.Closer
}

// newApp loads configuration and builds the client stack.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel == "" && cfg.LogLevel != "" {
		logging.InitForCLI(logging.ParseLevel(cfg.LogLevel), os.Stderr)
	}

	a := &app{cfg: cfg}

	a.store, err = credential.Open(ctx, cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	if c, ok := a.store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	a.location, err = navigation.NewLocation(cfg.AppBaseURL + cfg.Routes.Dashboard)
	if err != nil {
		a.Close()
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	a.gateway, err = gateway.New(gateway.Config{
		BaseURL:    cfg.APIBaseURL,
		Store:      a.store,
		Navigator:  a.location,
		LoginPath:  cfg.Routes.Login,
		HTTPClient: &http.Client{Timeout: cfg.HTTP.Timeout, Jar: jar},
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.oauth, err = oauth.NewHandler(oauth.HandlerConfig{
		Exchanger:     a.gateway,
		Markers:       a.markers(),
		Location:      a.location,
		LoginPath:     cfg.Routes.Login,
		RedirectDelay: cfg.OAuth.RedirectDelay,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.session, err = session.New(session.Config{
		Store:     a.store,
		Gateway:   a.gateway,
		Location:  a.location,
		OAuth:     a.oauth,
		LoginPath: cfg.Routes.Login,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.backend = backend.New(a.gateway)
	return a, nil
}

func (a *app) markers() oauth.MarkerSet {
	if a.cfg.OAuth.RedisAddr == "" {
		return oauth.NewMemoryMarkers(a.cfg.OAuth.MarkerTTL)
	}
	client := redis.NewClient(&redis.Options{Addr: a.cfg.OAuth.RedisAddr})
	a.closers = append(a.closers, client)
	return oauth.NewRedisMarkers(client, markerKeyPrefix, a.cfg.OAuth.MarkerTTL)
}

// Close releases stores and connections.
func (a *app) Close() {
	if a.oauth != nil {
		a.oauth.Cancel()
	}
	if a.session != nil {
		a.session.Close()
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logging.Debug("CLI", "Close failed: %v", err)
		}
	}
}

// requireSession resolves the session and fails with AuthRequiredError when
// nobody is signed in.
func (a *app) requireSession(ctx context.Context) (session.State, error) {
	if err := session.Wait(ctx, a.session.Initialize(ctx)); err != nil {
		return session.State{}, err
	}
	state := a.session.Snapshot()
	if guard.RequireAuth(state, a.location, a.cfg.Routes.Login) {
		return state, &cli.AuthRequiredError{Endpoint: a.cfg.APIBaseURL}
	}
	return state, nil
}

// alreadySignedIn resolves the session and, when a user is signed in, sends
// the location to the dashboard and reports it.
func (a *app) alreadySignedIn(cmd *cobra.Command) (bool, error) {
	ctx := cmd.Context()
	if err := session.Wait(ctx, a.session.Initialize(ctx)); err != nil {
		return false, err
	}
	state := a.session.Snapshot()
	if !guard.RedirectIfAuthenticated(state, a.location, a.cfg.Routes.Dashboard) {
		return false, nil
	}
	printf(cmd, "Already signed in as %s (%s). Run 'moltyverse auth logout' to switch accounts.\n", state.User.Name(), state.User.Username)
	return true, nil
}

// guardSession starts the session for a long-running command. The returned
// context is cancelled with an AuthRequiredError once the user is signed out,
// here or by another process.
func (a *app) guardSession(ctx context.Context) (context.Context, error) {
	started, err := a.session.Start(ctx)
	if err != nil {
		return nil, err
	}
	if err := session.Wait(ctx, started); err != nil {
		return nil, err
	}
	if !a.session.Snapshot().Authenticated() {
		return nil, &cli.AuthRequiredError{Endpoint: a.cfg.APIBaseURL}
	}

	guarded, cancel := context.WithCancelCause(ctx)
	states, unsubscribe := a.session.Subscribe()
	go func() {
		defer unsubscribe()
		if guard.WatchRequireAuth(guarded, states, a.location, a.cfg.Routes.Login) {
			logging.Info("CLI", "Signed out while running, stopping")
			cancel(&cli.AuthRequiredError{Endpoint: a.cfg.APIBaseURL})
		}
	}()
	a.closers = append(a.closers, closerFunc(func() error {
		cancel(nil)
		return nil
	}))
	return guarded, nil
}

// causeOf prefers the reason ctx was cancelled over err.
func causeOf(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, ctx.Err()) {
			return cause
		}
	}
	return err
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// translate maps gateway failures to CLI errors. A hard navigation to the
// login page during the command means the session was ended.
func (a *app) translate(err error) error {
	if err == nil {
		return nil
	}
	err = cli.TranslateError(err, a.cfg.APIBaseURL)

	var expired *cli.AuthExpiredError
	var failed *cli.AuthFailedError
	if !errors.As(err, &expired) && !errors.As(err, &failed) && a.sentToLogin() {
		return &cli.AuthExpiredError{Endpoint: a.cfg.APIBaseURL}
	}
	return err
}

func (a *app) sentToLogin() bool {
	for _, target := range a.location.HardNavigations() {
		if u, err := url.Parse(target); err == nil && u.Path == a.cfg.Routes.Login {
			return true
		}
	}
	return false
}

// withApp builds the app, runs fn and translates its error.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.translate(fn(a))
}
