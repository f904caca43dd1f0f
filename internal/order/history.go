package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"ms-busbooking/internal/kafka"
	"ms-busbooking/internal/models"
	"ms-busbooking/internal/sse"
	"ms-busbooking/internal/tickets/pdf"
)

// RefundRate is the share of the amount returned on cancellation.
const RefundRate = 0.9

const (
	FilterAll       = "all"
	FilterUpcoming  = "upcoming"
	FilterCompleted = "completed"
	FilterCancelled = "cancelled"
)

var ErrTicketNotFound = errors.New("ticket not found")

// HistoryFilter narrows a user's booking history. Status is one of the Filter
// constants; Query matches booking id, source, destination or bus name.
type HistoryFilter struct {
	Status string
	Query  string
}

func (f HistoryFilter) Match(b models.BookingSummary) bool {
	switch f.Status {
	case FilterUpcoming:
		if b.Status != models.OrderConfirmed {
			return false
		}
	case FilterCompleted:
		if b.Status != models.OrderCompleted {
			return false
		}
	case FilterCancelled:
		if b.Status != models.OrderCancelled {
			return false
		}
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{b.ID, b.Source, b.Destination, b.BusName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// ---------------- BOOKINGS ----------------

// History lists the user's bookings, newest first. Orders that never reached
// payment carry no booking id and are left out.
func (s *OrderService) History(ctx context.Context, userID string, f HistoryFilter) ([]models.BookingSummary, error) {
	orders, err := s.DB.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.BookingSummary, 0, len(orders))
	for _, o := range orders {
		if o.BookingID == "" {
			continue
		}
		summary := o.Summary()
		summary.Passengers = nil
		if f.Match(summary) {
			out = append(out, summary)
		}
	}
	return out, nil
}

// Details returns one booking of the user, looked up by booking id or order id.
func (s *OrderService) Details(ctx context.Context, userID, id string) (*models.Order, error) {
	order, err := s.DB.GetOrderByBookingID(ctx, id)
	if errors.Is(s.notFound(err), ErrOrderNotFound) {
		order, err = s.DB.GetOrderByID(ctx, id)
	}
	if err != nil {
		return nil, s.notFound(err)
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

// CancelBooking cancels a confirmed booking and refunds RefundRate of its
// amount. It returns the refund. The status flips before the refund is issued
// so concurrent cancels refund once.
func (s *OrderService) CancelBooking(ctx context.Context, userID, bookingID string) (float64, error) {
	order, err := s.Details(ctx, userID, bookingID)
	if err != nil {
		return 0, err
	}
	if order.Status != models.OrderConfirmed {
		return 0, fmt.Errorf("%w: booking is %s", ErrInvalidState, order.Status)
	}

	refund := RefundAmount(order.Price)
	cancelled := *order
	cancelled.Status = models.OrderCancelled
	cancelled.RefundAmount = refund
	cancelled.UpdatedAt = s.now().UTC()
	won, err := s.DB.TransitionOrder(ctx, cancelled, models.OrderConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel booking %s: %w", order.BookingID, err)
	}
	if !won {
		return 0, fmt.Errorf("%w: booking %s is already being cancelled", ErrInvalidState, order.BookingID)
	}

	if err := s.Payments.Refund(ctx, *order, refund); err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Refund for booking %s failed: %v", order.BookingID, err))
		order.UpdatedAt = s.now().UTC()
		if _, rerr := s.DB.TransitionOrder(ctx, *order, models.OrderCancelled); rerr != nil {
			s.logger.Error("ORDER", fmt.Sprintf("Failed to restore booking %s after refund failure: %v", order.BookingID, rerr))
		}
		return 0, fmt.Errorf("refund failed: %w", err)
	}

	if err := s.DB.CancelTickets(ctx, order.OrderID); err != nil {
		s.logger.Error("ORDER", fmt.Sprintf("Failed to void tickets of %s: %v", order.OrderID, err))
	}

	s.publish(ctx, kafka.TopicOrderCancelled, models.EventOrderCancelled, cancelled)
	s.seatsChanged(cancelled, sse.SeatAvailable)
	s.logger.LogOrder("CANCELLED", order.OrderID, fmt.Sprintf("booking=%s refund=%.2f", order.BookingID, refund))
	return refund, nil
}

// RefundAmount rounds the refund to paise.
func RefundAmount(amount float64) float64 {
	return math.Round(amount*RefundRate*100) / 100
}

// ---------------- TICKETS ----------------

// TicketQR returns the PNG QR code of one seat of a booking.
func (s *OrderService) TicketQR(ctx context.Context, userID, bookingID, seatID string) ([]byte, error) {
	order, tickets, err := s.ticketsOf(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if t.SeatID == seatID {
			if t.Cancelled {
				return nil, fmt.Errorf("%w: booking %s is %s", ErrInvalidState, order.BookingID, order.Status)
			}
			return t.QRCode, nil
		}
	}
	return nil, ErrTicketNotFound
}

// ETicket renders the booking's tickets as a PDF.
func (s *OrderService) ETicket(ctx context.Context, userID, bookingID string) ([]byte, error) {
	order, tickets, err := s.ticketsOf(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderConfirmed && order.Status != models.OrderCompleted {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidState, order.Status)
	}
	codes := make(map[string][]byte, len(tickets))
	for _, t := range tickets {
		codes[t.TicketID] = t.QRCode
	}
	return pdf.ETicket(*order, tickets, codes)
}

func (s *OrderService) ticketsOf(ctx context.Context, userID, bookingID string) (*models.Order, []models.Ticket, error) {
	order, err := s.Details(ctx, userID, bookingID)
	if err != nil {
		return nil, nil, err
	}
	tickets, err := s.DB.GetTicketsByOrder(ctx, order.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if len(tickets) == 0 {
		return nil, nil, ErrTicketNotFound
	}
	return order, tickets, nil
}
