package chatws

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luongnguyenminhan/enterviu-go/internal/metrics"
)

// State is the connection state of a Session.
type State int32

// Session states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Handler receives session events. All callbacks run on the session's read
// goroutine, strictly in arrival order; a slow handler backpressures the
// socket rather than reordering envelopes.
type Handler interface {
	// OnOpen fires once the socket is connected.
	OnOpen()
	// OnMessage fires for every decoded inbound envelope, including the
	// non-fatal in-band error variant.
	OnMessage(Response)
	// OnError fires for envelopes the session could not decode. The socket
	// stays open.
	OnError(err error)
	// OnClose fires exactly once when the socket ends. err is nil after a
	// clean local Close.
	OnClose(err error)
}

// Config configures a chat session.
type Config struct {
	// URL is the fully built socket endpoint, including the conversation
	// path. See EndpointURL.
	URL string
	// Token is the short-lived socket token from the REST client. It is
	// passed as a query parameter; expired tokens fail the dial and require
	// fetching a fresh one.
	Token string
	// APIKey is an optional per-user model key forwarded on chat messages.
	APIKey string

	HandshakeTimeout time.Duration
	Logger           *slog.Logger
	Stats            *metrics.Collector
}

// Session is a single chat socket bound to one conversation. It is safe for
// concurrent sends; receives are dispatched by one internal goroutine.
type Session struct {
	conn   *websocket.Conn
	cfg    Config
	logger *slog.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	state  State
	closed bool
}

// EndpointURL derives the socket endpoint from the REST base URL, switching
// the scheme to ws/wss and appending the conversation path and token.
func EndpointURL(apiBaseURL, conversationID, token string) (string, error) {
	endpoint := apiBaseURL
	endpoint = strings.Replace(endpoint, "http://", "ws://", 1)
	endpoint = strings.Replace(endpoint, "https://", "wss://", 1)

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/chat/ws/" + conversationID

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Dial opens the socket and starts the receive loop. The handler's OnOpen
// fires before Dial returns. Cancelling ctx closes the socket.
func Dial(ctx context.Context, cfg Config, handler Handler) (*Session, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}

	s := &Session{cfg: cfg, logger: cfg.Logger, state: StateConnecting}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	start := time.Now()
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if cfg.Stats != nil {
		cfg.Stats.RecordTiming(metrics.OpWSConnect, time.Since(start), err != nil)
	}
	if err != nil {
		s.setState(StateDisconnected)
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	s.conn = conn
	s.setState(StateConnected)
	handler.OnOpen()

	// Close the socket when the caller's context ends. The read loop then
	// unblocks with an error and reports the close.
	go func() {
		<-ctx.Done()
		s.Close()
	}()

	go s.readLoop(ctx, handler)

	return s, nil
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// SendChatMessage sends a user message over the socket.
func (s *Session) SendChatMessage(content string) error {
	if content == "" {
		return fmt.Errorf("message content is empty")
	}
	return s.writeJSON(chatMessageFrame{
		Type:    typeChatMessage,
		Content: content,
		APIKey:  s.cfg.APIKey,
	})
}

// Ping sends an application-level liveness probe. The backend answers with a
// pong envelope.
func (s *Session) Ping() error {
	return s.writeJSON(pingFrame{Type: typePing})
}

func (s *Session) writeJSON(v any) error {
	if s.State() != StateConnected {
		return fmt.Errorf("session is %s", s.State())
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close shuts the socket down. Safe to call more than once; only the first
// call closes the connection.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = StateDisconnected
	s.mu.Unlock()

	// Best-effort close frame so the backend can end the session cleanly.
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()

	return s.conn.Close()
}

// wasClosed reports whether Close was already requested locally.
func (s *Session) wasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// readLoop receives frames until the socket ends, dispatching envelopes in
// arrival order. Decode failures surface via OnError without closing the
// socket; read failures end the loop and fire OnClose exactly once.
func (s *Session) readLoop(ctx context.Context, handler Handler) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.setState(StateDisconnected)
			switch {
			case s.wasClosed():
				handler.OnClose(nil)
			case ctx.Err() != nil:
				handler.OnClose(ctx.Err())
			default:
				handler.OnClose(fmt.Errorf("read frame: %w", err))
			}
			return
		}

		start := time.Now()
		resp, err := DecodeResponse(data)
		if s.cfg.Stats != nil {
			s.cfg.Stats.RecordTiming(metrics.OpWSReceive, time.Since(start), err != nil)
		}
		if err != nil {
			s.logger.Warn("skipping undecodable frame", "error", err)
			handler.OnError(err)
			continue
		}

		handler.OnMessage(resp)
	}
}
