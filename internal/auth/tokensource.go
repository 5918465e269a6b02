package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// expirySlack refreshes tokens slightly before their exp claim so in-flight
// requests don't race the deadline.
const expirySlack = 30 * time.Second

// Refresher exchanges a refresh token for a new token pair. Implemented by
// the REST client.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (models.TokenPair, error)
}

// TokenSource serves the stored access token, refreshing it through the
// backend when the JWT exp claim is near. It implements api.TokenSource.
type TokenSource struct {
	store     *Store
	refresher Refresher
	logger    *slog.Logger

	mu    sync.Mutex
	creds *Credentials
}

// NewTokenSource creates a refreshing token source over the given store.
func NewTokenSource(store *Store, refresher Refresher, logger *slog.Logger) *TokenSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenSource{store: store, refresher: refresher, logger: logger}
}

// Token returns a valid access token, or empty when the user is logged out.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.creds == nil {
		creds, err := ts.store.Load()
		if err != nil {
			return "", err
		}
		if creds == nil {
			return "", nil
		}
		ts.creds = creds
	}

	if !tokenExpiring(ts.creds.AccessToken) {
		return ts.creds.AccessToken, nil
	}

	if ts.creds.RefreshToken == "" || ts.refresher == nil {
		// Expired with no refresh path: hand back the stale token and let
		// the backend reject it with a proper API error.
		return ts.creds.AccessToken, nil
	}

	ts.logger.Debug("access token near expiry, refreshing")
	pair, err := ts.refresher.RefreshToken(ctx, ts.creds.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}

	creds := Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ObtainedAt:   time.Now(),
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = ts.creds.RefreshToken
	}
	if err := ts.store.Save(creds); err != nil {
		return "", err
	}
	ts.creds = &creds

	return creds.AccessToken, nil
}

// SetCredentials installs freshly issued tokens (after login) and persists
// them.
func (ts *TokenSource) SetCredentials(pair models.TokenPair) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	creds := Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ObtainedAt:   time.Now(),
	}
	if err := ts.store.Save(creds); err != nil {
		return err
	}
	ts.creds = &creds
	return nil
}

// Forget drops cached and persisted credentials (logout).
func (ts *TokenSource) Forget() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.creds = nil
	return ts.store.Clear()
}

// tokenExpiring inspects the JWT exp claim without verifying the signature;
// verification is the backend's job, the client only needs the deadline.
// Tokens that don't parse or carry no exp are treated as non-expiring.
func tokenExpiring(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < expirySlack
}
