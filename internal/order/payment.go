package order

import (
	"context"
	"fmt"
	"time"

	"ms-busbooking/internal/kafka"
	"ms-busbooking/internal/models"
	"ms-busbooking/internal/sse"
	"ms-busbooking/internal/utils"

	"github.com/google/uuid"
)

// PaymentGateway is the payment provider behind checkout.
type PaymentGateway interface {
	Name() string
	CreateIntent(ctx context.Context, order models.Order) (*models.PaymentIntent, error)
	Confirm(ctx context.Context, order models.Order, v models.PaymentVerification) error
	Refund(ctx context.Context, order models.Order, amount float64) error
}

// MockGateway accepts every payment. It backs local runs and the demo flow.
type MockGateway struct{}

func (MockGateway) Name() string { return "mock" }

func (MockGateway) CreateIntent(_ context.Context, order models.Order) (*models.PaymentIntent, error) {
	id := utils.GeneratePaymentID()
	return &models.PaymentIntent{
		ID:           id,
		OrderID:      order.OrderID,
		Amount:       order.Price,
		Currency:     "INR",
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Provider:     "mock",
	}, nil
}

func (MockGateway) Confirm(context.Context, models.Order, models.PaymentVerification) error {
	return nil
}

func (MockGateway) Refund(context.Context, models.Order, float64) error {
	return nil
}

// ---------------- PAYMENTS ----------------

// CreatePaymentIntent opens a payment with the gateway for a pending order.
func (s *OrderService) CreatePaymentIntent(ctx context.Context, orderID, userID string) (*models.PaymentIntent, error) {
	order, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Cannot create payment intent for order %s with status %s", orderID, order.Status))
		return nil, ErrInvalidState
	}

	intent, err := s.Payments.CreateIntent(ctx, *order)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to create %s payment intent: %v", s.Payments.Name(), err))
		return nil, err
	}

	order.PaymentIntentID = intent.ID
	order.UpdatedAt = s.now().UTC()
	if err := s.DB.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("failed to update order with payment intent: %w", err)
	}
	s.logger.Info("PAYMENT", fmt.Sprintf("Created payment intent %s for order %s (INR %.2f)", intent.ID, orderID, order.Price))
	return intent, nil
}

// VerifyPayment confirms the payment with the gateway and turns the pending
// order into a confirmed booking with tickets. Verifying an already confirmed
// order returns its booking again.
func (s *OrderService) VerifyPayment(ctx context.Context, userID string, v models.PaymentVerification) (*models.PaymentResult, error) {
	order, err := s.GetOrder(ctx, v.OrderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderConfirmed {
		return &models.PaymentResult{OrderID: order.OrderID, BookingID: order.BookingID, Status: string(order.Status)}, nil
	}
	if order.Status != models.OrderPending {
		return nil, ErrInvalidState
	}

	if err := s.Payments.Confirm(ctx, *order, v); err != nil {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Payment for order %s rejected: %v", order.OrderID, err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	if err := s.confirm(ctx, order, v.PaymentID); err != nil {
		return nil, err
	}
	return &models.PaymentResult{OrderID: order.OrderID, BookingID: order.BookingID, Status: string(order.Status)}, nil
}

// confirm issues tickets, marks the order confirmed and releases its locks.
func (s *OrderService) confirm(ctx context.Context, order *models.Order, paymentID string) error {
	now := s.now().UTC()
	order.BookingID = utils.GenerateBookingID()
	if order.PaymentIntentID == "" {
		order.PaymentIntentID = paymentID
	}

	tickets, err := s.issueTickets(*order, now)
	if err != nil {
		return err
	}
	if err := s.DB.CreateTickets(ctx, tickets); err != nil {
		return fmt.Errorf("failed to store tickets: %w", err)
	}

	order.Status = models.OrderConfirmed
	order.UpdatedAt = now
	if err := s.DB.UpdateOrder(ctx, *order); err != nil {
		return fmt.Errorf("failed to confirm order: %w", err)
	}

	if err := s.Locks.UnlockSeats(ctx, order.BusID, order.JourneyDate, order.SeatIDs, order.OrderID); err != nil {
		s.logger.Warn("ORDER", fmt.Sprintf("Failed to unlock seats for order %s: %v", order.OrderID, err))
	}
	s.publish(ctx, kafka.TopicOrderConfirmed, models.EventOrderConfirmed, *order)
	s.seatsChanged(*order, sse.SeatBooked)
	s.logger.LogOrder("CONFIRMED", order.OrderID, fmt.Sprintf("booking=%s tickets=%d", order.BookingID, len(tickets)))
	return nil
}

func (s *OrderService) issueTickets(order models.Order, issuedAt time.Time) ([]models.Ticket, error) {
	names := make(map[string]string, len(order.Passengers))
	for _, p := range order.Passengers {
		names[p.SeatNumber] = p.Name
	}

	tickets := make([]models.Ticket, 0, len(order.SeatIDs))
	for _, seatID := range order.SeatIDs {
		t := models.Ticket{
			TicketID:        uuid.NewString(),
			OrderID:         order.OrderID,
			BookingID:       order.BookingID,
			BusID:           order.BusID,
			JourneyDate:     order.JourneyDate,
			SeatID:          seatID,
			PassengerName:   names[seatID],
			PriceAtPurchase: order.Fare,
			IssuedAt:        issuedAt,
		}
		qr, err := s.QR.GenerateEncryptedQR(t)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR for seat %s: %w", seatID, err)
		}
		t.QRCode = qr
		tickets = append(tickets, t)
	}
	return tickets, nil
}
