package auth

import (
	"context"
)

// Schlüsselkonstante für die Claims im Kontext
type contextKey string

const claimsKey contextKey = "session_claims"

// AddClaimsToContext fügt die Session-Claims zum Kontext hinzu
func AddClaimsToContext(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaimsFromContext extrahiert die Session-Claims aus dem Kontext
func GetClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*SessionClaims)
	return claims, ok && claims != nil
}

// SessionIDFromContext returns the session id or "" without claims.
func SessionIDFromContext(ctx context.Context) string {
	if claims, ok := GetClaimsFromContext(ctx); ok {
		return claims.SessionID
	}
	return ""
}

// OwnerFromContext returns the storage owner, GuestSubject without claims.
func OwnerFromContext(ctx context.Context) string {
	if claims, ok := GetClaimsFromContext(ctx); ok {
		return claims.Owner()
	}
	return GuestSubject
}
