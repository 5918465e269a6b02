package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/luongnguyenminhan/enterviu-go/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlowBackend stubs the EnterViu endpoints the login flow touches.
func newFlowBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, data any) {
		json.NewEncoder(w).Encode(map[string]any{"error_code": 0, "message": "ok", "data": data})
	}

	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer at-issued", r.Header.Get("Authorization"),
			"the profile fetch must use the freshly issued token")
		ok(w, map[string]any{"id": "u1", "email": "dev@example.com", "name": "Dev"})
	})
	mux.HandleFunc("/auth/google/direct-login", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]any{"access_token": "at-issued", "refresh_token": "rt-issued"})
	})
	mux.HandleFunc("/auth/google/revoke", func(w http.ResponseWriter, r *http.Request) {
		ok(w, nil)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFlow(t *testing.T, backend *httptest.Server) (*Flow, *Store) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	require.NoError(t, err)

	// The token source refreshes through the same client it serves, so the
	// client is built twice: plain for the refresher, then with the source.
	client := api.New(backend.URL)
	tokens := NewTokenSource(store, client, nil)
	client = api.New(backend.URL, api.WithTokenSource(tokens))
	return NewFlow(client, tokens, nil), store
}

// browserStub stands in for the real browser: it extracts the redirect_uri
// from the login URL and posts the handshake the backend's callback page
// would deliver, from the given origin.
func browserStub(t *testing.T, origin, payload string) func(string) error {
	t.Helper()
	return func(loginURL string) error {
		u, err := url.Parse(loginURL)
		require.NoError(t, err)
		callback := u.Query().Get("redirect_uri")
		require.NotEmpty(t, callback, "the login URL must carry the loopback redirect")

		go func() {
			req, err := http.NewRequest(http.MethodPost, callback, strings.NewReader(payload))
			if err != nil {
				return
			}
			req.Header.Set("Origin", origin)
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestFlowLogin(t *testing.T) {
	backend := newFlowBackend(t)
	flow, store := newTestFlow(t, backend)

	// The callback page runs on the API origin.
	flow.openBrowser = browserStub(t, backend.URL,
		`{"type": "GOOGLE_AUTH_SUCCESS", "accessToken": "at-issued", "refreshToken": "rt-issued"}`)

	user, err := flow.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", user.Email)
	assert.Equal(t, "Dev", user.Name)

	creds, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, creds, "login must persist the token pair")
	assert.Equal(t, "at-issued", creds.AccessToken)
	assert.Equal(t, "rt-issued", creds.RefreshToken)
}

func TestFlowLoginAuthError(t *testing.T) {
	backend := newFlowBackend(t)
	flow, store := newTestFlow(t, backend)

	flow.openBrowser = browserStub(t, backend.URL,
		`{"type": "GOOGLE_AUTH_ERROR", "error": "consent denied"}`)

	_, err := flow.Login(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consent denied")

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds, "a failed login must not persist credentials")
}

func TestFlowLoginUntrustedHandshakeIgnored(t *testing.T) {
	backend := newFlowBackend(t)
	flow, store := newTestFlow(t, backend)

	// A forged handshake from a hostile page never reaches the flow; the
	// login just keeps waiting until the context ends.
	flow.openBrowser = browserStub(t, "http://evil.example.com",
		`{"type": "GOOGLE_AUTH_SUCCESS", "accessToken": "stolen"}`)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := flow.Login(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds, "forged handshakes must never mutate auth state")
}

func TestFlowLoginCanceled(t *testing.T) {
	backend := newFlowBackend(t)
	flow, _ := newTestFlow(t, backend)

	// Browser opens but the handshake never arrives.
	flow.openBrowser = func(string) error { return nil }

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := flow.Login(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFlowDirectLogin(t *testing.T) {
	backend := newFlowBackend(t)
	flow, store := newTestFlow(t, backend)

	user, err := flow.DirectLogin(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	creds, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "at-issued", creds.AccessToken)
}

func TestFlowLogout(t *testing.T) {
	backend := newFlowBackend(t)
	flow, store := newTestFlow(t, backend)
	require.NoError(t, store.Save(Credentials{AccessToken: "at-issued", RefreshToken: "rt-issued"}))

	require.NoError(t, flow.Logout(context.Background()))

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestFlowLogoutClearsEvenWhenRevokeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error_code": 5000, "message": "backend exploded"})
	}))
	t.Cleanup(srv.Close)

	flow, store := newTestFlow(t, srv)
	require.NoError(t, store.Save(Credentials{AccessToken: "at-issued"}))

	require.NoError(t, flow.Logout(context.Background()), "a dead session is no reason to keep its tokens")

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)
}
