package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luongnguyenminhan/enterviu-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	// Nothing stored yet.
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)

	saved := Credentials{
		AccessToken:  "at-123",
		RefreshToken: "rt-456",
		ObtainedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.AccessToken, loaded.AccessToken)
	assert.Equal(t, saved.RefreshToken, loaded.RefreshToken)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "tokens must not be world-readable")
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(Credentials{AccessToken: "at"}))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing an absent file is fine")

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestStoreLoadEmptyTokenIsNil(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(Credentials{}))

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds, "a record without an access token counts as logged out")
}

// unsignedJWT builds a syntactically valid JWT with the given exp claim.
// The token source never verifies signatures, so a fake one is enough.
func unsignedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, err := json.Marshal(map[string]any{"exp": exp.Unix(), "sub": "user-1"})
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestTokenExpiring(t *testing.T) {
	assert.False(t, tokenExpiring(unsignedJWT(t, time.Now().Add(time.Hour))))
	assert.True(t, tokenExpiring(unsignedJWT(t, time.Now().Add(-time.Minute))))
	assert.True(t, tokenExpiring(unsignedJWT(t, time.Now().Add(10*time.Second))), "tokens inside the slack window count as expiring")
	assert.False(t, tokenExpiring("not-a-jwt"), "unparseable tokens are left for the backend to reject")
}

// fakeRefresher counts refresh calls and returns a fixed pair.
type fakeRefresher struct {
	calls int
	pair  models.TokenPair
	err   error
}

func (f *fakeRefresher) RefreshToken(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	f.calls++
	if f.err != nil {
		return models.TokenPair{}, f.err
	}
	return f.pair, nil
}

func TestTokenSourceServesFreshToken(t *testing.T) {
	store := newTestStore(t)
	fresh := unsignedJWT(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Save(Credentials{AccessToken: fresh, RefreshToken: "rt"}))

	refresher := &fakeRefresher{}
	ts := NewTokenSource(store, refresher, nil)

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, token)
	assert.Zero(t, refresher.calls, "a fresh token needs no refresh")
}

func TestTokenSourceRefreshesNearExpiry(t *testing.T) {
	store := newTestStore(t)
	stale := unsignedJWT(t, time.Now().Add(-time.Minute))
	require.NoError(t, store.Save(Credentials{AccessToken: stale, RefreshToken: "rt"}))

	renewed := unsignedJWT(t, time.Now().Add(time.Hour))
	refresher := &fakeRefresher{pair: models.TokenPair{AccessToken: renewed, RefreshToken: "rt-2"}}
	ts := NewTokenSource(store, refresher, nil)

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, renewed, token)
	assert.Equal(t, 1, refresher.calls)

	// The renewed pair is persisted.
	creds, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, renewed, creds.AccessToken)
	assert.Equal(t, "rt-2", creds.RefreshToken)
}

func TestTokenSourceRefreshFailure(t *testing.T) {
	store := newTestStore(t)
	stale := unsignedJWT(t, time.Now().Add(-time.Minute))
	require.NoError(t, store.Save(Credentials{AccessToken: stale, RefreshToken: "rt"}))

	refresher := &fakeRefresher{err: fmt.Errorf("session revoked")}
	ts := NewTokenSource(store, refresher, nil)

	_, err := ts.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh token")
}

func TestTokenSourceLoggedOut(t *testing.T) {
	ts := NewTokenSource(newTestStore(t), &fakeRefresher{}, nil)

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token, "logged out means an empty token, not an error")
}

func TestTokenSourceForget(t *testing.T) {
	store := newTestStore(t)
	ts := NewTokenSource(store, nil, nil)
	require.NoError(t, ts.SetCredentials(models.TokenPair{AccessToken: unsignedJWT(t, time.Now().Add(time.Hour))}))

	require.NoError(t, ts.Forget())

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}
