package terminal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/antibyte/retrobasic/pkg/auth"
	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/shared"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
	"github.com/antibyte/retrobasic/pkg/virtualfs"
)

// guestCleaner is implemented by storage that keeps guest files in memory.
type guestCleaner interface {
	CleanupGuestVFS(owner string)
}

// TerminalHandler verwaltet die WebSocket-Verbindungen. Every connection
// gets its own interpreter that uses the connection as its teletype.
type TerminalHandler struct {
	upgrader      websocket.Upgrader
	fs            tinybasic.FileSystem
	options       tinybasic.Options
	clientManager *ClientManager
	banner        *shared.BannerManager
	sessions      sync.WaitGroup
}

// NewTerminalHandler erstellt einen neuen TerminalHandler
func NewTerminalHandler(fs tinybasic.FileSystem, options tinybasic.Options, banner *shared.BannerManager) *TerminalHandler {
	h := &TerminalHandler{
		fs:            fs,
		options:       options,
		clientManager: NewClientManager(),
		banner:        banner,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin,
	}
	return h
}

// checkOrigin accepts origins listed in [Network] allowed_origins. Without
// a list only requests without Origin or from the same host pass.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if list := configuration.GetString("Network", "allowed_origins", ""); list != "" {
		for _, allowed := range strings.Split(list, ",") {
			if strings.EqualFold(strings.TrimSpace(allowed), origin) {
				return true
			}
		}
		logger.SecurityWarn("WebSocket request from disallowed origin rejected: %s", origin)
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || !strings.EqualFold(u.Host, r.Host) {
		logger.SecurityWarn("WebSocket request from foreign origin rejected: %s", origin)
		return false
	}
	return true
}

// HandleWebSocket verarbeitet eingehende WebSocket-Verbindungen. Claims put
// into the request context by auth.RequireToken select the session;
// without them the connection becomes a fresh guest session.
func (h *TerminalHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ipAddress := auth.GetClientIP(r)
	if err := h.clientManager.CheckRateLimit(ipAddress); err != nil {
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	var sessionID, owner, username string
	if claims, ok := auth.GetClaimsFromContext(r.Context()); ok {
		sessionID, owner, username = claims.SessionID, claims.Owner(), claims.Username
	} else {
		if !configuration.GetBool("Auth", "enable_guest_access", true) {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		sessionID = uuid.New().String()
		owner = virtualfs.GuestOwner + ":" + sessionID
	}
	if h.clientManager.HasClient(sessionID) {
		http.Error(w, "Session already connected", http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WebSocketWarn("upgrade from %s failed: %v", ipAddress, err)
		return
	}

	client := newClient(conn, h)
	client.ipAddress = ipAddress
	client.sessionID = sessionID
	client.owner = owner
	client.username = username

	if err := h.clientManager.AddClient(client); err != nil {
		logger.WebSocketWarn("rejecting %s: %v", ipAddress, err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server full"))
		conn.Close()
		return
	}

	logger.WebSocketInfo("session %s connected from %s (owner %s)", sessionID, ipAddress, owner)
	h.sessions.Add(1)
	go client.writePump()
	go client.readPump()
	go func() {
		defer h.sessions.Done()
		client.run()
	}()
}

// run drives the interpreter of one connection until SYSTEM, a fatal error
// or the connection going away.
func (c *Client) run() {
	h := c.handler
	defer func() {
		c.close()
		h.clientManager.RemoveClient(c.sessionID)
		if cleaner, ok := h.fs.(guestCleaner); ok && virtualfs.IsGuestOwner(c.owner) {
			cleaner.CleanupGuestVFS(c.owner)
		}
		logger.Info(logger.AreaSession, "session %s ended", c.sessionID)
	}()

	if err := c.sendMessage(shared.Message{
		Type:      shared.MessageTypeSession,
		SessionID: c.sessionID,
		Username:  c.username,
	}); err != nil {
		return
	}
	if h.banner != nil {
		text, err := h.banner.Render(shared.BannerData{Username: c.username, SessionID: c.sessionID})
		if err != nil {
			logger.Warn(logger.AreaTerminal, "banner: %v", err)
		} else if c.Write(text) != nil {
			return
		}
	}

	basic := tinybasic.NewTinyBASIC(c, h.fs, h.options)
	basic.SetOwner(c.owner)
	if err := basic.Run(context.Background()); err != nil && !errors.Is(err, errClientClosed) {
		logger.Error(logger.AreaTerminal, "session %s stopped: %v", c.sessionID, err)
	}
}

// StartPeriodicCleanup closes sessions idle for longer than [Network]
// idle_timeout until ctx ends. A zero timeout disables it.
func (h *TerminalHandler) StartPeriodicCleanup(ctx context.Context) {
	idle := configuration.GetDuration("Network", "idle_timeout", 30*time.Minute)
	if idle <= 0 {
		return
	}
	interval := idle / 6
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := h.clientManager.CleanupInactiveSessions(idle); n > 0 {
					logger.Info(logger.AreaSession, "closed %d inactive sessions", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// ClientCount returns the number of connected sessions.
func (h *TerminalHandler) ClientCount() int {
	return h.clientManager.GetClientCount()
}

// Shutdown closes every connection and waits until their interpreters have
// stopped or ctx ends.
func (h *TerminalHandler) Shutdown(ctx context.Context) error {
	h.clientManager.CloseAll()
	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
