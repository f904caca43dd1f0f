package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/utils"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticator resolves bearer tokens into claims, honouring revocations.
type Authenticator struct {
	Verifier Verifier
	Revoked  *RevocationList
	Logger   *logger.Logger
}

func (a *Authenticator) authenticate(r *http.Request) (*Claims, error) {
	raw, err := ExtractTokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	claims, err := a.Verifier.Verify(r.Context(), raw)
	if err != nil {
		return nil, err
	}
	revoked, err := a.Revoked.IsRevoked(r.Context(), claims.TokenID)
	if err != nil {
		a.Logger.Warn("AUTH", err.Error())
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware rejects requests without a valid token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.authenticate(r)
		if err != nil {
			a.Logger.LogSecurity("UNAUTHORIZED", r.Method+" "+r.URL.Path+": "+err.Error())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(utils.ErrorResponse("Please login to continue", err.Error()))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Optional records the caller's identity when a valid token is present and
// lets anonymous requests through.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := a.authenticate(r); err == nil {
			r = r.WithContext(WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// Logout revokes the token carried by ctx.
func (a *Authenticator) Logout(ctx context.Context) error {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return nil
	}
	expires := claims.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(24 * time.Hour)
	}
	return a.Revoked.Revoke(ctx, claims.TokenID, expires)
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	if c := ClaimsFrom(ctx); c != nil {
		return c.Subject
	}
	return ""
}
