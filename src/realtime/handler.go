package realtime

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/theleywin/talent-nest-network/src/logging"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyJWT(token string) (string, error)
}

// UserDirectory confirms that a token's user still exists.
type UserDirectory interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// Handler upgrades authenticated requests and joins them to their user room.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
	users    UserDirectory
	origins  []string
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, verifier TokenVerifier, users UserDirectory, allowOrigins []string) *Handler {
	h := &Handler{hub: hub, verifier: verifier, users: users, origins: allowOrigins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkOrigin,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, `{"message":"Unauthorized - No Token Provided"}`, http.StatusUnauthorized)
		return
	}
	userID, err := h.verifier.VerifyJWT(token)
	if err != nil {
		http.Error(w, `{"message":"Unauthorized - Invalid Token"}`, http.StatusUnauthorized)
		return
	}
	exists, err := h.users.UserExists(r.Context(), userID)
	if err != nil {
		logging.Error().Err(err).Str("user", userID).Msg("websocket user lookup failed")
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, `{"message":"User not found"}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := NewClient(h.hub, conn, userID)
	if !h.hub.join(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}
	c.Start()
}

// checkOrigin accepts requests without an Origin header; browsers always send
// one and the session is authorized by token, not cookie.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// NewServer mounts the handler at /ws on its own listener.
func NewServer(addr string, h *Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
