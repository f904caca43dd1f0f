package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-busbooking/internal/auth"
	"ms-busbooking/internal/models"
	"ms-busbooking/internal/order"

	"github.com/go-chi/chi/v5"
)

// maxWebhookBody bounds Stripe webhook payloads.
const maxWebhookBody = 65536

type intentRequest struct {
	OrderID string `json:"orderId"`
}

// ---------------- PAYMENTS ----------------

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.OrderID == "" {
		h.fail(w, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	intent, err := h.Orders.CreatePaymentIntent(r.Context(), req.OrderID, auth.UserID(r.Context()))
	if err != nil {
		h.failErr(w, "CreatePaymentIntent", err)
		return
	}
	h.ok(w, "Payment initiated", intent)
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentVerification
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.OrderID == "" {
		h.fail(w, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	result, err := h.Orders.VerifyPayment(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.failErr(w, "VerifyPayment", err)
		return
	}
	h.ok(w, "Payment successful", result)
}

// StripeWebhook handles webhook events from Stripe
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.fail(w, http.StatusServiceUnavailable, "Error reading request body", err)
		return
	}

	err = h.Orders.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		var werr *order.WebhookError
		if errors.As(err, &werr) {
			h.Logger.Error("API", fmt.Sprintf("StripeWebhook: %s (%v)", werr.InternalError, werr.OriginalErr))
			h.fail(w, werr.StatusCode, werr.PublicError, nil)
			return
		}
		h.failErr(w, "StripeWebhook", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ---------------- BOOKINGS ----------------

// ListBookings answers GET /api/bookings?filter=upcoming&q=delhi.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	filter := order.HistoryFilter{
		Status: r.URL.Query().Get("filter"),
		Query:  r.URL.Query().Get("q"),
	}
	switch filter.Status {
	case "", order.FilterAll, order.FilterUpcoming, order.FilterCompleted, order.FilterCancelled:
	default:
		h.fail(w, http.StatusBadRequest, "Unknown filter", fmt.Errorf("filter %q", filter.Status))
		return
	}

	bookings, err := h.Orders.History(r.Context(), auth.UserID(r.Context()), filter)
	if err != nil {
		h.failErr(w, "ListBookings", err)
		return
	}
	h.ok(w, fmt.Sprintf("%d bookings", len(bookings)), bookings)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Details(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "bookingId"))
	if err != nil {
		h.failErr(w, "GetBooking", err)
		return
	}
	h.ok(w, "Booking details", o)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	refund, err := h.Orders.CancelBooking(r.Context(), auth.UserID(r.Context()), bookingID)
	if err != nil {
		h.failErr(w, "CancelBooking", err)
		return
	}
	h.ok(w, "Booking cancelled", map[string]interface{}{
		"bookingId":    bookingID,
		"refundAmount": refund,
	})
}

func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.Orders.TicketQR(r.Context(), auth.UserID(r.Context()),
		chi.URLParam(r, "bookingId"), chi.URLParam(r, "seatId"))
	if err != nil {
		h.failErr(w, "TicketQR", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	_, _ = w.Write(png)
}

func (h *Handler) DownloadTicket(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	doc, err := h.Orders.ETicket(r.Context(), auth.UserID(r.Context()), bookingID)
	if err != nil {
		h.failErr(w, "DownloadTicket", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, bookingID))
	_, _ = w.Write(doc)
}
