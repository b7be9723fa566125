package oauth

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"moltyverse/pkg/logging"
)

// DefaultCallbackPort is the default port for the local callback server.
const DefaultCallbackPort = 3000

// CallbackPath is the route the provider redirects the browser to.
const CallbackPath = "/callback"

// StartPath is the auth backend route that begins a provider sign-in.
const StartPath = "/auth/oauth/start"

// CallbackTimeout is how long to wait for the browser redirect.
const CallbackTimeout = 10 * time.Minute

const callbackPageHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>MoltyVerse</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
{{if .OK}}<h1>Signed in</h1><p>You can close this window and return to the terminal.</p>
{{else}}<h1>Sign-in failed</h1><p>{{.Message}}</p>{{end}}
</body>
</html>`

var callbackPage = template.Must(template.New("callback").Parse(callbackPageHTML))

// CallbackProcessor consumes the callback URL, typically by exchanging its
// one-time token and verifying the resulting session.
type CallbackProcessor func(ctx context.Context, callback *url.URL) error

// CallbackServer is a loopback HTTP server that receives a single provider
// redirect and hands it to a CallbackProcessor.
type CallbackServer struct {
	port      int
	process   CallbackProcessor
	server    *http.Server
	listener  net.Listener
	doneCh    chan error
	once      sync.Once
	stopOnce  sync.Once
	serverURL string
}

// NewCallbackServer creates a server for port. Port 0 uses DefaultCallbackPort.
func NewCallbackServer(port int, process CallbackProcessor) *CallbackServer {
	if port == 0 {
		port = DefaultCallbackPort
	}
	return &CallbackServer{
		port:    port,
		process: process,
		doneCh:  make(chan error, 1),
	}
}

// StartURL builds the provider start URL on the auth backend at base.
func StartURL(base, redirectURI string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid auth base URL %q: %w", base, err)
	}
	u = u.JoinPath(StartPath)
	q := u.Query()
	q.Set("redirect_uri", redirectURI)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Router returns the chi router serving the callback route.
func (s *CallbackServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Get(CallbackPath, s.handleCallback)
	return r
}

// Start begins listening and returns the redirect URI to register with the
// provider. The server stops when ctx is cancelled.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.serverURL = fmt.Sprintf("http://localhost:%d", s.port)
	s.server = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.finish(err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	logging.Debug("OAuth", "Callback server listening on %s", s.serverURL)
	return s.RedirectURI(), nil
}

// Wait blocks until the callback was processed, the server failed or ctx ends.
func (s *CallbackServer) Wait(ctx context.Context) error {
	select {
	case err := <-s.doneCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RedirectURI returns the callback URL registered with the provider.
func (s *CallbackServer) RedirectURI() string {
	return s.serverURL + CallbackPath
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	return s.port
}

// Stop shuts the server down.
func (s *CallbackServer) Stop() {
	s.stopOnce.Do(func() {
		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(ctx)
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	handled := false
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})
	if !handled {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) {
	callback := *r.URL
	callback.Scheme = "http"
	callback.Host = r.Host

	err := s.process(r.Context(), &callback)

	data := struct {
		OK      bool
		Message string
	}{OK: err == nil}
	if err != nil {
		data.Message = FailureMessage
		logging.Warn("OAuth", "Callback processing failed: %v", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if execErr := callbackPage.Execute(w, data); execErr != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	s.finish(err)

	// Give the response time to reach the browser before shutting down.
	go func() {
		time.Sleep(1 * time.Second)
		s.Stop()
	}()
}

func (s *CallbackServer) finish(err error) {
	select {
	case s.doneCh <- err:
	default:
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
