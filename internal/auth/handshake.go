package auth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/cors"
)

// Handshake message types posted by the backend's OAuth callback page.
const (
	MessageAuthSuccess = "GOOGLE_AUTH_SUCCESS"
	MessageAuthError   = "GOOGLE_AUTH_ERROR"
)

// HandshakeMessage is the payload the callback page delivers to the local
// listener once the provider flow completes. Field names follow the
// established frontend contract.
type HandshakeMessage struct {
	Type         string `json:"type"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Error        string `json:"error,omitempty"`
}

// OriginGuard is the allow-list check applied before a handshake payload is
// trusted. Anything not on the list is dropped.
type OriginGuard struct {
	allowed map[string]struct{}
}

// NewOriginGuard builds a guard from the allowed origins (the listener's own
// origin and the configured API origin).
func NewOriginGuard(origins []string) *OriginGuard {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	return &OriginGuard{allowed: allowed}
}

// Allows reports whether origin is on the allow-list. Exact match only.
func (g *OriginGuard) Allows(origin string) bool {
	_, ok := g.allowed[origin]
	return ok
}

// HandshakeHandler is the HTTP endpoint receiving the callback page's
// handshake POST. Untrusted origins are logged and dropped without touching
// auth state; only allow-listed messages reach the result channel.
//
// The callback page posts JSON cross-origin, so browsers preflight the
// request. CORS runs in front of the handler and answers preflights for
// allow-listed origins; the origin guard still vets the POST itself.
type HandshakeHandler struct {
	guard   *OriginGuard
	logger  *slog.Logger
	results chan HandshakeMessage
	cors    *cors.Cors
}

// NewHandshakeHandler creates a handler guarded by the given allow-list.
func NewHandshakeHandler(guard *OriginGuard, logger *slog.Logger) *HandshakeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandshakeHandler{
		guard:   guard,
		logger:  logger,
		results: make(chan HandshakeMessage, 1),
		cors: cors.New(cors.Options{
			AllowOriginFunc: guard.Allows,
			AllowedMethods:  []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders:  []string{"Origin", "Content-Type", "Accept"},
		}),
	}
}

// Results delivers the first trusted handshake message.
func (h *HandshakeHandler) Results() <-chan HandshakeMessage {
	return h.results
}

// ServeHTTP implements http.Handler.
func (h *HandshakeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.cors.Handler(http.HandlerFunc(h.handshake)).ServeHTTP(w, r)
}

// handshake handles the POST behind the CORS layer.
func (h *HandshakeHandler) handshake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	origin := r.Header.Get("Origin")
	if !h.guard.Allows(origin) {
		h.logger.Warn("ignoring handshake from untrusted origin", "origin", origin)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var msg HandshakeMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.logger.Warn("malformed handshake payload", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch msg.Type {
	case MessageAuthSuccess, MessageAuthError:
	default:
		h.logger.Warn("unexpected handshake type", "type", msg.Type)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	select {
	case h.results <- msg:
	default:
		// A result was already delivered; duplicates are ignored.
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Login complete. You can close this window.")
}
