package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"ms-busbooking/internal/auth"
	"ms-busbooking/internal/booking"
	"ms-busbooking/internal/order"
	"ms-busbooking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// sessionRequest seeds or updates a booking record. Absent fields are left
// untouched on update.
type sessionRequest struct {
	BusID         *string             `json:"busId"`
	JourneyDate   *string             `json:"journeyDate"`
	SelectedSeats []string            `json:"selectedSeats"`
	Passengers    []booking.Passenger `json:"passengers"`
}

type sessionView struct {
	SessionID           string          `json:"sessionId"`
	Booking             *booking.Record `json:"booking"`
	CanProceedToPayment bool            `json:"canProceedToPayment"`
	MissingSeat         string          `json:"missingPassengerSeat,omitempty"`
	LastError           string          `json:"lastError,omitempty"`
}

func viewOf(id string, m *booking.Manager) sessionView {
	v := sessionView{SessionID: id, CanProceedToPayment: m.CanProceedToPayment()}
	if rec, ok := m.Record(); ok {
		v.Booking = &rec
	}
	if seat, ok := m.MissingPassengerSeat(); ok {
		v.MissingSeat = seat
	}
	if err := m.Err(); err != nil {
		v.LastError = err.Error()
	}
	return v
}

// info resolves the request against the catalog so source, destination and
// fare always come from the bus.
func (h *Handler) info(req sessionRequest) (booking.Info, error) {
	info := booking.Info{
		JourneyDate:   req.JourneyDate,
		SelectedSeats: req.SelectedSeats,
	}
	if req.JourneyDate != nil {
		if _, err := utils.ParseJourneyDate(*req.JourneyDate); err != nil {
			return info, booking.ValidationError{Field: "journeyDate", Msg: "Journey date must be YYYY-MM-DD"}
		}
	}
	if req.BusID != nil {
		bus, err := h.Catalog.Bus(*req.BusID)
		if err != nil {
			return info, err
		}
		info.BusID = booking.StringPtr(bus.ID)
		info.Source = booking.StringPtr(bus.Source)
		info.Destination = booking.StringPtr(bus.Destination)
		info.Fare = booking.FloatPtr(bus.Fare)
	}
	if req.Passengers != nil {
		info.Passengers = make([]booking.Passenger, 0, len(req.Passengers))
		for _, p := range req.Passengers {
			if err := booking.ValidatePassenger(&p); err != nil {
				return info, err
			}
			info.Passengers = append(info.Passengers, p)
		}
	}
	return info, nil
}

// ---------------- SESSIONS ----------------

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BusID == nil || req.JourneyDate == nil {
		h.failErr(w, "CreateSession", booking.ValidationError{Field: "busId", Msg: "Bus and journey date are required"})
		return
	}
	info, err := h.info(req)
	if err != nil {
		h.failErr(w, "CreateSession", err)
		return
	}
	if err := h.checkSeats(r.Context(), *info.BusID, *req.JourneyDate, info.SelectedSeats); err != nil {
		h.failErr(w, "CreateSession", err)
		return
	}

	id := h.Sessions.Create()
	var view sessionView
	_ = h.Sessions.With(id, func(m *booking.Manager) error {
		m.Initialize(info)
		view = viewOf(id, m)
		return nil
	})
	h.Logger.LogBooking("SESSION_CREATED", id, fmt.Sprintf("bus=%s date=%s", *req.BusID, *req.JourneyDate))
	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Booking started", view))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "GetSession", "Booking details", func(m *booking.Manager) error {
		return nil
	})
}

// UpdateSession merges the supplied fields into the booking record.
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	info, err := h.info(req)
	if err != nil {
		h.failErr(w, "UpdateSession", err)
		return
	}
	h.withSession(w, r, "UpdateSession", "Booking updated", func(m *booking.Manager) error {
		rec, _ := m.Record()
		busID, date := rec.BusID, rec.JourneyDate
		if info.BusID != nil {
			busID = *info.BusID
		}
		if info.JourneyDate != nil {
			date = *info.JourneyDate
		}

		// Seats and passengers of the previous bus do not carry over.
		if info.BusID != nil && rec.BusID != "" && busID != rec.BusID {
			if info.SelectedSeats == nil {
				info.SelectedSeats = []string{}
			}
			if info.Passengers == nil {
				info.Passengers = []booking.Passenger{}
			}
		}
		if err := h.checkSeats(r.Context(), busID, date, info.SelectedSeats); err != nil {
			return err
		}
		m.Initialize(info)
		return nil
	})
}

// checkSeats rejects seats that are not on the bus, marked unavailable in the
// seat map, or taken for the journey date.
func (h *Handler) checkSeats(ctx context.Context, busID, journeyDate string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	if busID == "" {
		return booking.ValidationError{Field: "busId", Msg: "Select a bus before choosing seats"}
	}
	var taken []string
	for _, seatID := range seatIDs {
		available, err := h.seatAvailable(ctx, busID, journeyDate, seatID)
		if err != nil {
			return err
		}
		if !available {
			taken = append(taken, seatID)
		}
	}
	if len(taken) > 0 {
		return fmt.Errorf("%w: %s", order.ErrSeatsUnavailable, strings.Join(taken, ", "))
	}
	return nil
}

func (h *Handler) ToggleSeat(w http.ResponseWriter, r *http.Request) {
	seatID := chi.URLParam(r, "seatId")
	h.withSession(w, r, "ToggleSeat", "Seat selection updated", func(m *booking.Manager) error {
		rec, ok := m.Record()
		if !ok {
			return booking.StateError{Op: "toggle seat"}
		}
		available, err := h.seatAvailable(r.Context(), rec.BusID, rec.JourneyDate, seatID)
		if err != nil {
			return err
		}
		// A seat already in the selection can always be released.
		selected := false
		for _, id := range rec.SelectedSeats {
			if id == seatID {
				selected = true
				break
			}
		}
		if !available && !selected {
			return fmt.Errorf("%w: %s", order.ErrSeatsUnavailable, seatID)
		}
		m.ToggleSeat(seatID, true)
		return nil
	})
}

func (h *Handler) UpsertPassenger(w http.ResponseWriter, r *http.Request) {
	var p booking.Passenger
	if err := decodeJSON(r, &p); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := booking.ValidatePassenger(&p); err != nil {
		h.failErr(w, "UpsertPassenger", err)
		return
	}
	h.withSession(w, r, "UpsertPassenger", "Passenger details saved", func(m *booking.Manager) error {
		rec, ok := m.Record()
		if !ok {
			return booking.StateError{Op: "add passenger"}
		}
		for _, id := range rec.SelectedSeats {
			if id == p.SeatNumber {
				m.UpsertPassenger(p)
				return nil
			}
		}
		return booking.ValidationError{Field: "seatNumber", Msg: "Seat is not part of the selection"}
	})
}

func (h *Handler) RemovePassenger(w http.ResponseWriter, r *http.Request) {
	seat := chi.URLParam(r, "seatNumber")
	h.withSession(w, r, "RemovePassenger", "Passenger removed", func(m *booking.Manager) error {
		m.RemovePassenger(seat)
		return nil
	})
}

func (h *Handler) CheckoutStatus(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "CheckoutStatus", "Checkout status", func(m *booking.Manager) error {
		return nil
	})
}

// Checkout hands the completed record to order creation. Anonymous callers are
// told to log in.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	userID := auth.UserID(r.Context())

	var orderID string
	var rec booking.Record
	err := h.Sessions.With(id, func(m *booking.Manager) error {
		var err error
		if orderID, err = m.ProceedToPayment(r.Context(), userID, h.Orders); err != nil {
			return err
		}
		// The order now holds the booking; the session starts over.
		rec, _ = m.Record()
		m.Reset()
		return nil
	})
	if err != nil {
		h.failErr(w, "Checkout", err)
		return
	}

	h.Logger.LogBooking("CHECKOUT", id, fmt.Sprintf("order=%s user=%s", orderID, userID))
	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Order created", map[string]interface{}{
		"orderId":     orderID,
		"totalAmount": rec.TotalAmount,
		"seats":       rec.SelectedSeats,
	}))
}

func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "ResetSession", "Booking cleared", func(m *booking.Manager) error {
		m.Reset()
		return nil
	})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	h.Sessions.Delete(id)
	h.Logger.LogBooking("SESSION_DELETED", id, "")
	w.WriteHeader(http.StatusNoContent)
}

// withSession runs fn on the session named in the URL and replies with the
// resulting view.
func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, op, message string, fn func(m *booking.Manager) error) {
	id := chi.URLParam(r, "sessionId")
	var view sessionView
	err := h.Sessions.With(id, func(m *booking.Manager) error {
		if err := fn(m); err != nil {
			return err
		}
		view = viewOf(id, m)
		return nil
	})
	if err != nil {
		h.failErr(w, op, err)
		return
	}
	h.ok(w, message, view)
}
