package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-for-retrobasic"

// TestJWTTokenGeneration tests token creation and validation
func TestJWTTokenGeneration(t *testing.T) {
	t.Setenv(SecretEnvVar, testSecret)

	tests := []struct {
		name     string
		username string
		guest    bool
		owner    string
	}{
		{"guest", "", true, "guest:session-guest"},
		{"user", "alice", false, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken("session-"+tt.name, tt.username)
			if err != nil {
				t.Fatalf("GenerateToken: %v", err)
			}
			claims, err := ValidateToken(token)
			if err != nil {
				t.Fatalf("ValidateToken: %v", err)
			}
			if claims.SessionID != "session-"+tt.name || claims.Username != tt.username {
				t.Errorf("claims = %+v", claims)
			}
			if claims.IsGuest() != tt.guest || claims.Owner() != tt.owner {
				t.Errorf("IsGuest = %v, Owner = %q", claims.IsGuest(), claims.Owner())
			}
		})
	}
}

// TestRejectedTokens tests validation of tokens that must fail
func TestRejectedTokens(t *testing.T) {
	t.Setenv(SecretEnvVar, testSecret)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	now := time.Now()
	valid := func() SessionClaims {
		return SessionClaims{
			SessionID: "s1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
				Issuer:    issuer,
				Subject:   GuestSubject,
			},
		}
	}
	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	foreign := valid()
	foreign.Issuer = "someone-else"
	noSession := valid()
	noSession.SessionID = ""
	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	tests := map[string]string{
		"empty":         "",
		"garbage":       "invalid.token.here",
		"incomplete":    "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9",
		"expired":       sign(expired, jwt.SigningMethodHS256, []byte(testSecret)),
		"wrong issuer":  sign(foreign, jwt.SigningMethodHS256, []byte(testSecret)),
		"wrong secret":  sign(valid(), jwt.SigningMethodHS256, []byte("other")),
		"wrong method":  sign(valid(), jwt.SigningMethodHS512, []byte(testSecret)),
		"no session id": sign(noSession, jwt.SigningMethodHS256, []byte(testSecret)),
		"no expiry":     sign(noExpiry, jwt.SigningMethodHS256, []byte(testSecret)),
	}
	for name, token := range tests {
		if _, err := ValidateToken(token); err == nil {
			t.Errorf("%s: token accepted", name)
		}
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("retro")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "retro") {
		t.Errorf("correct password rejected")
	}
	if CheckPassword(hash, "Retro") {
		t.Errorf("wrong password accepted")
	}
	if _, err := HashPassword(""); err == nil {
		t.Errorf("empty password hashed")
	}
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var response SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return response
}

// TestSessionCreationHandler tests the session creation endpoint
func TestSessionCreationHandler(t *testing.T) {
	t.Setenv(SecretEnvVar, testSecret)
	hash, err := HashPassword("retro")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		settings Settings
		method   string
		body     string
		code     int
		username string
	}{
		{"guest", Settings{GuestAccess: true}, http.MethodPost, "", http.StatusOK, ""},
		{"guest with empty object", Settings{GuestAccess: true}, http.MethodPost, "{}", http.StatusOK, ""},
		{"guest disabled", Settings{}, http.MethodPost, "{}", http.StatusForbidden, ""},
		{"open named session", Settings{}, http.MethodPost, `{"username":"alice"}`, http.StatusOK, "alice"},
		{"password accepted", Settings{PasswordHash: hash}, http.MethodPost, `{"username":"bob","password":"retro"}`, http.StatusOK, "bob"},
		{"password rejected", Settings{PasswordHash: hash}, http.MethodPost, `{"username":"bob","password":"nope"}`, http.StatusUnauthorized, ""},
		{"bad username", Settings{}, http.MethodPost, `{"username":"../root"}`, http.StatusBadRequest, ""},
		{"reserved username", Settings{}, http.MethodPost, `{"username":"Guest"}`, http.StatusBadRequest, ""},
		{"invalid json", Settings{GuestAccess: true}, http.MethodPost, "invalid json", http.StatusBadRequest, ""},
		{"wrong method", Settings{GuestAccess: true}, http.MethodGet, "", http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/session", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			NewHandler(tt.settings).CreateSession(w, req)

			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
			response := decodeSession(t, w)
			if tt.code != http.StatusOK {
				if response.Success {
					t.Errorf("failed request reports success")
				}
				return
			}
			if len(response.SessionID) != 36 || response.Username != tt.username {
				t.Errorf("response = %+v", response)
			}
			claims, err := ValidateToken(response.Token)
			if err != nil {
				t.Fatalf("issued token invalid: %v", err)
			}
			if claims.SessionID != response.SessionID || claims.Username != tt.username {
				t.Errorf("claims = %+v", claims)
			}
			if cookies := w.Result().Cookies(); len(cookies) != 1 || cookies[0].Name != TokenCookie || cookies[0].Value != response.Token {
				t.Errorf("cookies = %v", cookies)
			}
		})
	}
}

// TestTokenValidationHandler tests the validation endpoint with every
// token transport
func TestTokenValidationHandler(t *testing.T) {
	t.Setenv(SecretEnvVar, testSecret)
	token, err := GenerateToken("test-session-validate", "carol")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	tests := map[string]func(r *http.Request){
		"header": func(r *http.Request) { r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token)) },
		"cookie": func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) },
		"query": func(r *http.Request) {
			q := r.URL.Query()
			q.Set("token", token)
			r.URL.RawQuery = q.Encode()
		},
	}
	h := NewHandler(Settings{})
	for name, attach := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/session/validate", nil)
			attach(req)
			w := httptest.NewRecorder()
			h.ValidateSession(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			response := decodeSession(t, w)
			if response.SessionID != "test-session-validate" || response.Username != "carol" {
				t.Errorf("response = %+v", response)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/session/validate", nil)
	req.Header.Set("Authorization", "Basic abc")
	w := httptest.NewRecorder()
	h.ValidateSession(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("basic auth header: status = %d", w.Code)
	}
}

func TestRequireToken(t *testing.T) {
	t.Setenv(SecretEnvVar, testSecret)
	token, err := GenerateGuestToken("guest-session")
	if err != nil {
		t.Fatal(err)
	}

	var seen context.Context
	handler := RequireToken(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context()
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if w.Code != http.StatusUnauthorized || seen != nil {
		t.Fatalf("request without token passed: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	w = httptest.NewRecorder()
	handler(w, req)
	if seen == nil {
		t.Fatalf("valid token rejected: %d", w.Code)
	}
	if got := SessionIDFromContext(seen); got != "guest-session" {
		t.Errorf("SessionIDFromContext = %q", got)
	}
	if got := OwnerFromContext(seen); got != "guest:guest-session" {
		t.Errorf("OwnerFromContext = %q", got)
	}
	if got := OwnerFromContext(context.Background()); got != GuestSubject {
		t.Errorf("OwnerFromContext without claims = %q", got)
	}
}

func TestLogout(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler(Settings{}).Logout(w, httptest.NewRequest(http.MethodPost, "/api/session/logout", nil))
	cookies := w.Result().Cookies()
	if w.Code != http.StatusOK || len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("status %d, cookies %v", w.Code, cookies)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		header, value, remote, want string
	}{
		{"X-Forwarded-For", "10.0.0.1, 10.0.0.2", "1.2.3.4:5", "10.0.0.1"},
		{"X-Real-IP", "10.0.0.9", "1.2.3.4:5", "10.0.0.9"},
		{"", "", "1.2.3.4:5", "1.2.3.4"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.header != "" {
			req.Header.Set(tt.header, tt.value)
		}
		if got := GetClientIP(req); got != tt.want {
			t.Errorf("GetClientIP = %q, want %q", got, tt.want)
		}
	}
}
