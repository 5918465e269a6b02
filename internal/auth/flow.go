package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/luongnguyenminhan/enterviu-go/internal/api"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// loginTimeout bounds how long the flow waits for the browser handshake.
const loginTimeout = 5 * time.Minute

// Flow runs the browser-based Google login: a loopback listener receives the
// handshake the backend's callback page posts after the provider flow, the
// origin guard vets it, and trusted tokens are persisted and verified with a
// profile fetch. There is no retry policy; a failed login is re-run fresh.
type Flow struct {
	client *api.Client
	tokens *TokenSource
	logger *slog.Logger

	// openBrowser is overridable in tests.
	openBrowser func(url string) error
}

// NewFlow creates a login flow.
func NewFlow(client *api.Client, tokens *TokenSource, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		client:      client,
		tokens:      tokens,
		logger:      logger,
		openBrowser: openBrowser,
	}
}

// Login runs the full browser handshake and returns the authenticated
// profile.
func (f *Flow) Login(ctx context.Context) (models.User, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return models.User{}, fmt.Errorf("start callback listener: %w", err)
	}
	defer ln.Close()

	ownOrigin := "http://" + ln.Addr().String()
	apiOrigin, err := f.client.Origin()
	if err != nil {
		return models.User{}, err
	}

	handler := NewHandshakeHandler(NewOriginGuard([]string{ownOrigin, apiOrigin}), f.logger)

	mux := http.NewServeMux()
	mux.Handle("/callback", handler)

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Warn("callback server stopped", "error", err)
		}
	}()
	defer srv.Close()

	loginURL := f.client.GoogleLoginURL(ownOrigin + "/callback")
	f.logger.Info("opening browser for login", "url", loginURL)
	if err := f.openBrowser(loginURL); err != nil {
		// Not fatal: the user can follow the URL manually.
		f.logger.Warn("failed to open browser, open the URL manually", "url", loginURL, "error", err)
	}

	var msg HandshakeMessage
	select {
	case msg = <-handler.Results():
	case <-ctx.Done():
		return models.User{}, ctx.Err()
	case <-time.After(loginTimeout):
		return models.User{}, fmt.Errorf("login timed out after %s", loginTimeout)
	}

	if msg.Type == MessageAuthError {
		return models.User{}, fmt.Errorf("login failed: %s", msg.Error)
	}
	if msg.AccessToken == "" {
		return models.User{}, fmt.Errorf("login handshake carried no access token")
	}

	return f.finish(ctx, models.TokenPair{
		AccessToken:  msg.AccessToken,
		RefreshToken: msg.RefreshToken,
	})
}

// DirectLogin exchanges a manually pasted authorization code, for
// environments where no browser is available.
func (f *Flow) DirectLogin(ctx context.Context, code string) (models.User, error) {
	pair, err := f.client.DirectLogin(ctx, code)
	if err != nil {
		return models.User{}, err
	}
	return f.finish(ctx, pair)
}

// finish persists the tokens and verifies them with a profile fetch.
func (f *Flow) finish(ctx context.Context, pair models.TokenPair) (models.User, error) {
	if err := f.tokens.SetCredentials(pair); err != nil {
		return models.User{}, err
	}

	user, err := f.client.GetMe(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("fetch profile: %w", err)
	}
	return user, nil
}

// Logout revokes the session on the backend and drops local credentials.
// Revocation failures still clear local state; a dead session is no reason
// to keep its tokens.
func (f *Flow) Logout(ctx context.Context) error {
	if err := f.client.Revoke(ctx); err != nil {
		f.logger.Warn("revoke failed, clearing local credentials anyway", "error", err)
	}
	return f.tokens.Forget()
}

// openBrowser launches the platform browser at url.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
