package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-busbooking/internal/auth"
	"ms-busbooking/internal/booking"
	"ms-busbooking/internal/catalog"
	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/order"
	"ms-busbooking/internal/session"
	"ms-busbooking/internal/sse"
	"ms-busbooking/internal/utils"

	"github.com/go-chi/chi/v5/middleware"
)

// Handler serves the booking API.
type Handler struct {
	Catalog    *catalog.Service
	Sessions   *session.Registry
	Orders     *order.OrderService
	Users      *auth.Directory
	Tokens     *auth.HMACTokens
	Auth       *auth.Authenticator
	SeatEvents *sse.SeatEventEmitter // nil disables the live seat stream
	Logger     *logger.Logger
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	body = body.WithRequestID(w.Header().Get(middleware.RequestIDHeader))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) ok(w http.ResponseWriter, message string, data interface{}) {
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse(message, data))
}

func (h *Handler) fail(w http.ResponseWriter, status int, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	h.writeJSON(w, status, utils.ErrorResponse(message, detail))
}

// failErr maps a domain error to its HTTP status and writes it.
func (h *Handler) failErr(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		h.fail(w, status, "Something went wrong. Please try again.", err)
		return
	}
	h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))

	var verr booking.ValidationError
	if errors.As(err, &verr) {
		h.fail(w, status, verr.Msg, err)
		return
	}
	h.fail(w, status, err.Error(), err)
}

func statusFor(err error) int {
	var verr booking.ValidationError
	var serr booking.StateError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, order.ErrEmptySelection):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrNotAuthenticated),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, catalog.ErrBusNotFound),
		errors.Is(err, catalog.ErrSeatNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrTicketNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.As(err, &serr),
		errors.Is(err, order.ErrSeatsUnavailable),
		errors.Is(err, order.ErrInvalidState),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, order.ErrPaymentFailed):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
