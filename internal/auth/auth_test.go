package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Token abc")
	_, err = ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "bearer abc")
	tok, err := ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestHMACTokens_IssueVerify(t *testing.T) {
	tokens := NewHMACTokens("secret", time.Hour)

	raw, expiresIn, err := tokens.Issue(DemoUser)
	require.NoError(t, err)
	assert.Equal(t, 3600, expiresIn)

	claims, err := tokens.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user001", claims.Subject)
	assert.Equal(t, DemoUser.Email, claims.Email)
	assert.NotEmpty(t, claims.TokenID)

	_, err = NewHMACTokens("other", time.Hour).Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewHMACTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(DemoUser)
	require.NoError(t, err)
	_, err = tokens.Verify(context.Background(), old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACTokens_RejectsOtherAlgorithms(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user001", "iss": tokenIssuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewHMACTokens("secret", time.Hour).Verify(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChain(t *testing.T) {
	a, b := NewHMACTokens("a", time.Hour), NewHMACTokens("b", time.Hour)
	raw, _, err := b.Issue(DemoUser)
	require.NoError(t, err)

	claims, err := Chain{a, b}.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user001", claims.Subject)

	_, err = Chain{a}.Verify(context.Background(), raw)
	assert.Error(t, err)
	_, err = Chain{}.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newAuthenticator(t *testing.T) (*Authenticator, *HMACTokens) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	tokens := NewHMACTokens("secret", time.Hour)
	return &Authenticator{Verifier: tokens, Revoked: NewRevocationList(client), Logger: logger.NewConsoleLogger(nil)}, tokens
}

func TestMiddleware(t *testing.T) {
	a, tokens := newAuthenticator(t)
	var seen string
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please login to continue")

	raw, _, err := tokens.Issue(DemoUser)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user001", seen)
}

func TestOptional(t *testing.T) {
	a, tokens := newAuthenticator(t)
	var seen string
	h := a.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, seen)

	raw, _, _ := tokens.Issue(DemoUser)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "user001", seen)
}

func TestLogoutRevokesToken(t *testing.T) {
	a, tokens := newAuthenticator(t)
	raw, _, err := tokens.Issue(DemoUser)
	require.NoError(t, err)
	claims, err := tokens.Verify(context.Background(), raw)
	require.NoError(t, err)

	require.NoError(t, a.Logout(WithClaims(context.Background(), claims)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var nilList *RevocationList
	revoked, err := nilList.IsRevoked(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestDirectory(t *testing.T) {
	d := NewDirectory()

	_, err := d.Login("", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	demo, err := d.Login("John.Doe@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "user001", demo.ID)

	u1, err := d.Login("asha@example.com", "pw")
	require.NoError(t, err)
	u2, err := d.Login("ASHA@example.com", "other")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "asha", u1.Name)

	reg, err := d.Register("Ravi Kumar", "ravi@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", reg.Name)
	_, err = d.Register("", "x@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = d.Register("Ravi K", "RAVI@example.com", "again")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = d.Login("ravi@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	again, err := d.Login("ravi@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, again.ID)

	updated, err := d.UpdateProfile(reg.ID, models.User{Phone: "9999999999"})
	require.NoError(t, err)
	assert.Equal(t, "9999999999", updated.Phone)
	assert.Equal(t, "Ravi Kumar", updated.Name)

	_, err = d.Profile("nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
