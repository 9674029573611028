package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
)

// Settings are the [Auth] options the handlers work with.
type Settings struct {
	// PasswordHash is a bcrypt hash. Empty means named sessions need no
	// password.
	PasswordHash string
	GuestAccess  bool
	Expiration   time.Duration
	SecureCookie bool
}

// LoadSettings reads the [Auth] section of the configuration.
func LoadSettings() Settings {
	return Settings{
		PasswordHash: configuration.GetString("Auth", "password_hash", ""),
		GuestAccess:  configuration.GetBool("Auth", "enable_guest_access", true),
		Expiration:   getTokenExpiration(),
		SecureCookie: configuration.GetBool("TLS", "enable_tls", false),
	}
}

// SessionRequest definiert die Struktur für Session-Anfragen
type SessionRequest struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// SessionResponse definiert die Struktur für Session-Antworten
type SessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId,omitempty"`
	Token     string `json:"token,omitempty"`
	Username  string `json:"username,omitempty"`
	Message   string `json:"message"`
}

var validUsername = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// Handler serves the session endpoints.
type Handler struct {
	settings Settings
}

// NewHandler creates a handler with fixed settings.
func NewHandler(settings Settings) *Handler {
	if settings.Expiration <= 0 {
		settings.Expiration = defaultTokenExpiration
	}
	return &Handler{settings: settings}
}

// setCORSHeaders setzt die CORS-Header für die API
func setCORSHeaders(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")
}

// CreateSession starts a session. Without a username a guest session is
// created if guests are allowed. With a username the password is checked
// against the configured hash.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		logger.AuthWarn("Invalid method for session creation: %s", r.Method)
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
			logger.AuthWarn("Invalid JSON in session request: %v", err)
			respondWithError(w, "Invalid request format", http.StatusBadRequest)
			return
		}
	}

	clientIP := GetClientIP(r)
	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		if !h.settings.GuestAccess {
			logger.AuthWarn("guest session refused for %s", clientIP)
			respondWithError(w, "Guest access disabled", http.StatusForbidden)
			return
		}
	case !validUsername.MatchString(username):
		respondWithError(w, "Invalid username", http.StatusBadRequest)
		return
	case strings.EqualFold(username, GuestSubject):
		respondWithError(w, "Reserved username", http.StatusBadRequest)
		return
	case h.settings.PasswordHash != "" && !CheckPassword(h.settings.PasswordHash, req.Password):
		logger.SecurityWarn("failed login for %s from %s", username, clientIP)
		respondWithError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	sessionID := uuid.NewString()
	token, err := generateToken(sessionID, username, time.Now(), h.settings.Expiration)
	if err != nil {
		logger.AuthError("Failed to generate token for session %s: %v", sessionID, err)
		respondWithError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.settings.Expiration.Seconds()),
		HttpOnly: true,
		Secure:   h.settings.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	logger.AuthInfo("session %s created for %q from %s", sessionID, username, clientIP)
	respond(w, http.StatusOK, SessionResponse{
		Success:   true,
		SessionID: sessionID,
		Token:     token,
		Username:  username,
		Message:   "Session created",
	})
}

// ValidateSession reports the session of the token in the request.
func (h *Handler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w, "GET, POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	tokenString, err := ExtractTokenFromRequest(r)
	if err != nil {
		logger.AuthWarn("No token found in validation request: %v", err)
		respondWithError(w, "Token not found", http.StatusUnauthorized)
		return
	}
	claims, err := ValidateToken(tokenString)
	if err != nil {
		logger.AuthWarn("Token validation failed: %v", err)
		respondWithError(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	respond(w, http.StatusOK, SessionResponse{
		Success:   true,
		SessionID: claims.SessionID,
		Username:  claims.Username,
		Message:   "Token valid",
	})
}

// Logout löscht das Token-Cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.settings.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	respond(w, http.StatusOK, SessionResponse{Success: true, Message: "Logout successful"})
}

// Register mounts the session endpoints under /api/session.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/session", h.CreateSession)
	mux.HandleFunc("/api/session/validate", h.ValidateSession)
	mux.HandleFunc("/api/session/logout", h.Logout)
}

// GetClientIP extracts the client IP address from the request
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func respond(w http.ResponseWriter, status int, response SessionResponse) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// respondWithError sendet eine Fehlerantwort als JSON
func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	respond(w, statusCode, SessionResponse{Success: false, Message: message})
}
