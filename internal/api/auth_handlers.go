package api

import (
	"errors"
	"fmt"
	"net/http"

	"ms-busbooking/internal/auth"
	"ms-busbooking/internal/models"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	user, err := h.Users.Login(req.Email, req.Password)
	if err != nil {
		h.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("email=%q", req.Email))
		h.failErr(w, "Login", err)
		return
	}
	h.issueToken(w, "Login successful", user)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	user, err := h.Users.Register(req.Name, req.Email, req.Password)
	if err != nil {
		h.failErr(w, "Register", err)
		return
	}
	h.issueToken(w, "Registration successful", user)
}

func (h *Handler) issueToken(w http.ResponseWriter, message string, user models.User) {
	token, expiresIn, err := h.Tokens.Issue(user)
	if err != nil {
		h.failErr(w, "issueToken", err)
		return
	}
	h.Logger.LogSecurity("LOGIN", fmt.Sprintf("user=%s", user.ID))
	h.ok(w, message, models.TokenResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		User:        user,
	})
}

// Profile returns the caller's profile. Users signed in through an external
// identity provider have no directory entry and get their token claims back.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	user, err := h.Users.Profile(claims.Subject)
	if errors.Is(err, auth.ErrUserNotFound) {
		user, err = models.User{ID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
	}
	if err != nil {
		h.failErr(w, "Profile", err)
		return
	}
	h.ok(w, "Profile", user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.User
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	user, err := h.Users.UpdateProfile(auth.UserID(r.Context()), req)
	if err != nil {
		h.failErr(w, "UpdateProfile", err)
		return
	}
	h.ok(w, "Profile updated", user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context()); err != nil {
		h.failErr(w, "Logout", err)
		return
	}
	h.Logger.LogSecurity("LOGOUT", fmt.Sprintf("user=%s", auth.UserID(r.Context())))
	h.ok(w, "Logged out", nil)
}
