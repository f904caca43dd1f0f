package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ms-busbooking/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "bus-booking"

var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried by a verified access token.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	TokenID   string
	ExpiresAt time.Time
}

// Verifier validates a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// HMACTokens issues and verifies HS256 access tokens for the mock login.
type HMACTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewHMACTokens(secret string, ttl time.Duration) *HMACTokens {
	return &HMACTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for user and returns it with its lifetime in seconds.
func (h *HMACTokens) Issue(user models.User) (string, int, error) {
	now := h.now()
	claims := tokenClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, int(h.ttl.Seconds()), nil
}

func (h *HMACTokens) Verify(_ context.Context, rawToken string) (*Claims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (interface{}, error) {
		return h.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(h.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject claim not found in token", ErrInvalidToken)
	}

	out := &Claims{Subject: claims.Subject, Email: claims.Email, Name: claims.Name, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Chain tries each verifier in turn and accepts the first success.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	var lastErr error = ErrInvalidToken
	for _, v := range c {
		claims, err := v.Verify(ctx, rawToken)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
