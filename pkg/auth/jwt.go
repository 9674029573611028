package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
)

const (
	// SecretEnvVar overrides [Auth] secret_key.
	SecretEnvVar = "RETROBASIC_SECRET_KEY"
	// TokenCookie carries the session token for browser clients.
	TokenCookie = "session_token"
	// GuestSubject is the subject of tokens without a user.
	GuestSubject = "guest"

	issuer                 = "retrobasic"
	defaultTokenExpiration = 24 * time.Hour
)

var (
	ephemeralSecret     string
	ephemeralSecretOnce sync.Once
)

// getJWTSecret retrieves the signing secret from the environment or the
// configuration. Without either a random secret is used for this process,
// so tokens do not survive a restart.
func getJWTSecret() string {
	if envSecret := os.Getenv(SecretEnvVar); envSecret != "" {
		return envSecret
	}
	if secret := configuration.GetString("Auth", "secret_key", ""); secret != "" {
		return secret
	}
	ephemeralSecretOnce.Do(func() {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("auth: no randomness for token secret: %v", err))
		}
		ephemeralSecret = hex.EncodeToString(buf)
		logger.SecurityWarn("no secret_key configured - using a random secret, tokens end with the process")
	})
	return ephemeralSecret
}

// getTokenExpiration retrieves the token lifetime from configuration
func getTokenExpiration() time.Duration {
	hours := configuration.GetInt("Auth", "token_expiration_hours", 0)
	if hours <= 0 {
		return defaultTokenExpiration
	}
	return time.Duration(hours) * time.Hour
}

// SessionClaims are the claims of a session token. Username is empty for
// guests.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// IsGuest reports whether the token belongs to an anonymous session.
func (c *SessionClaims) IsGuest() bool {
	return c.Username == ""
}

// Owner returns the storage owner for the session. Guests get an owner of
// their own per session.
func (c *SessionClaims) Owner() string {
	if c.IsGuest() {
		return GuestSubject + ":" + c.SessionID
	}
	return c.Username
}

// GenerateToken signs a session token. An empty username makes a guest token.
func GenerateToken(sessionID, username string) (string, error) {
	return generateToken(sessionID, username, time.Now(), getTokenExpiration())
}

// GenerateGuestToken signs a token for an anonymous session.
func GenerateGuestToken(sessionID string) (string, error) {
	return GenerateToken(sessionID, "")
}

func generateToken(sessionID, username string, now time.Time, lifetime time.Duration) (string, error) {
	subject := username
	if subject == "" {
		subject = GuestSubject
	}
	claims := SessionClaims{
		SessionID: sessionID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   subject,
			ID:        sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(getJWTSecret()))
	if err != nil {
		return "", fmt.Errorf("token konnte nicht signiert werden: %w", err)
	}
	logger.AuthDebug("token generated for session %s (subject %s)", sessionID, subject)
	return signedToken, nil
}

// ValidateToken checks signature, algorithm, issuer and lifetime and returns
// the claims.
func ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(getJWTSecret()), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token parsing failed: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.SessionID == "" {
		return nil, errors.New("token without session id")
	}
	return claims, nil
}

// ExtractTokenFromRequest extracts the token from the Authorization header
// (Bearer), the session cookie or the "token" query parameter, in this order.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, ok := strings.Cut(authHeader, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && token != "" {
			return token, nil
		}
		return "", errors.New("invalid authorization header format")
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	// Browser websockets cannot set headers
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	return "", errors.New("no token found in request")
}

// RequireToken ist ein Middleware für HTTP-Handler, die einen gültigen Token
// erfordert. The claims are added to the request context.
func RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next(w, r)
			return
		}
		tokenString, err := ExtractTokenFromRequest(r)
		if err != nil {
			logger.AuthWarn("Kein Token im Request gefunden: %v", err)
			http.Error(w, "Unauthorized: token missing", http.StatusUnauthorized)
			return
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			logger.AuthWarn("Ungültiger Token von %s: %v", GetClientIP(r), err)
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(AddClaimsToContext(r.Context(), claims)))
	}
}
