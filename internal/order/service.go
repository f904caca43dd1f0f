package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-busbooking/internal/booking"
	"ms-busbooking/internal/catalog"
	"ms-busbooking/internal/kafka"
	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/models"
	"ms-busbooking/internal/order/db"
	"ms-busbooking/internal/sse"
	"ms-busbooking/internal/utils"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrSeatsUnavailable = errors.New("one or more seats are no longer available")
	ErrInvalidState     = errors.New("order is not in a valid state for this operation")
	ErrForbidden        = errors.New("order belongs to another user")
	ErrPaymentFailed    = errors.New("payment verification failed")
	ErrEmptySelection   = errors.New("no seats selected")
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByBookingID(ctx context.Context, bookingID string) (*models.Order, error)
	UpdateOrder(ctx context.Context, order models.Order) error
	TransitionOrder(ctx context.Context, order models.Order, from models.OrderStatus) (bool, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetPendingOrdersForBus(ctx context.Context, busID, journeyDate string) ([]models.Order, error)
	CreateTickets(ctx context.Context, tickets []models.Ticket) error
	GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error)
	CancelTickets(ctx context.Context, orderID string) error
	BookedSeats(ctx context.Context, busID, journeyDate string, seatIDs []string) ([]string, error)
}

type SeatLocker interface {
	CheckSeatsAvailability(ctx context.Context, busID, journeyDate string, seatIDs []string) (bool, []string, error)
	LockSeats(ctx context.Context, busID, journeyDate string, seatIDs []string, orderID string) (bool, error)
	UnlockSeats(ctx context.Context, busID, journeyDate string, seatIDs []string, orderID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

type BusLookup interface {
	Bus(busID string) (*catalog.Bus, error)
	SeatAvailability(busID, seatID string) (bool, error)
}

// SeatNotifier is told when seats of a departure change status.
type SeatNotifier interface {
	SeatsChanged(busID, journeyDate string, seatIDs []string, status string)
}

type TicketEncoder interface {
	GenerateEncryptedQR(ticket models.Ticket) ([]byte, error)
}

type OrderService struct {
	DB       DBLayer
	Locks    SeatLocker
	Events   EventPublisher
	Buses    BusLookup
	QR       TicketEncoder
	Payments PaymentGateway

	// WebhookSecret enables signed Stripe webhook processing when set.
	WebhookSecret string
	// Seats receives live seat status changes. Optional.
	Seats SeatNotifier

	logger *logger.Logger
	now    func() time.Time
}

func NewOrderService(dbl DBLayer, locks SeatLocker, events EventPublisher, buses BusLookup, qr TicketEncoder, payments PaymentGateway, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:       dbl,
		Locks:    locks,
		Events:   events,
		Buses:    buses,
		QR:       qr,
		Payments: payments,
		logger:   log,
		now:      time.Now,
	}
}

var _ booking.OrderCreator = (*OrderService)(nil)

// ---------------- ORDERS ----------------

// CreateOrder turns a finalized booking record into a pending order. Seats are
// checked against the seat map and issued tickets, then locked in Redis for the
// payment window. Every seat needs its own passenger.
func (s *OrderService) CreateOrder(ctx context.Context, record booking.Record, userID string) (string, error) {
	if len(record.SelectedSeats) == 0 {
		return "", ErrEmptySelection
	}
	bus, err := s.Buses.Bus(record.BusID)
	if err != nil {
		return "", err
	}
	if seatID, ok := seatWithoutPassenger(record); ok {
		return "", booking.ValidationError{Field: "passengers", Msg: fmt.Sprintf("Please add passenger details for seat %s", seatID)}
	}
	if seatID, ok := passengerWithoutSeat(record); ok {
		return "", booking.ValidationError{Field: "passengers", Msg: fmt.Sprintf("Seat %s is no longer selected, remove its passenger", seatID)}
	}

	var closed []string
	for _, seatID := range record.SelectedSeats {
		available, err := s.Buses.SeatAvailability(record.BusID, seatID)
		if err != nil {
			return "", err
		}
		if !available {
			closed = append(closed, seatID)
		}
	}
	if len(closed) > 0 {
		return "", fmt.Errorf("%w: %s", ErrSeatsUnavailable, strings.Join(closed, ", "))
	}

	// Step 1: Check if seats are already booked
	booked, err := s.DB.BookedSeats(ctx, record.BusID, record.JourneyDate, record.SelectedSeats)
	if err != nil {
		return "", fmt.Errorf("failed to check seats: %w", err)
	}
	if len(booked) > 0 {
		return "", fmt.Errorf("%w: %s", ErrSeatsUnavailable, strings.Join(booked, ", "))
	}

	// Step 2: Lock seats in Redis
	orderID := utils.GenerateOrderID()
	ok, err := s.Locks.LockSeats(ctx, record.BusID, record.JourneyDate, record.SelectedSeats, orderID)
	if err != nil {
		return "", fmt.Errorf("redis lock error: %w", err)
	}
	if !ok {
		return "", ErrSeatsUnavailable
	}

	// Step 3: Create pending order in DB
	order := models.Order{
		OrderID:       orderID,
		UserID:        userID,
		BusID:         record.BusID,
		BusName:       bus.Name,
		JourneyDate:   record.JourneyDate,
		Source:        record.Source,
		Destination:   record.Destination,
		DepartureTime: bus.DepartureTime,
		ArrivalTime:   bus.ArrivalTime,
		SeatIDs:       append([]string{}, record.SelectedSeats...),
		Fare:          record.Fare,
		Price:         record.TotalAmount,
		Status:        models.OrderPending,
		CreatedAt:     s.now().UTC(),
		Passengers:    passengersOf(record),
	}
	if err := s.DB.CreateOrder(ctx, order); err != nil {
		s.logger.Error("ORDER", fmt.Sprintf("Failed to create order %s: %v. Rolling back seat locks", orderID, err))
		_ = s.Locks.UnlockSeats(ctx, order.BusID, order.JourneyDate, order.SeatIDs, orderID)
		return "", err
	}

	// Step 4: Publish Kafka event
	s.publish(ctx, kafka.TopicOrderCreated, models.EventOrderCreated, order)
	s.seatsChanged(order, sse.SeatLocked)
	s.logger.LogOrder("CREATED", orderID, fmt.Sprintf("user=%s bus=%s seats=%d amount=%.2f", userID, order.BusID, len(order.SeatIDs), order.Price))
	return orderID, nil
}

// seatWithoutPassenger reports the first selected seat nobody is assigned to.
func seatWithoutPassenger(record booking.Record) (string, bool) {
	assigned := make(map[string]bool, len(record.Passengers))
	for _, p := range record.Passengers {
		assigned[p.SeatNumber] = true
	}
	for _, seatID := range record.SelectedSeats {
		if !assigned[seatID] {
			return seatID, true
		}
	}
	return "", false
}

// passengerWithoutSeat reports the first passenger whose seat is not selected.
func passengerWithoutSeat(record booking.Record) (string, bool) {
	for _, p := range record.Passengers {
		if !containsSeat(record.SelectedSeats, p.SeatNumber) {
			return p.SeatNumber, true
		}
	}
	return "", false
}

func passengersOf(record booking.Record) []models.OrderPassenger {
	out := make([]models.OrderPassenger, 0, len(record.Passengers))
	for _, p := range record.Passengers {
		out = append(out, models.OrderPassenger{
			SeatNumber: p.SeatNumber,
			Name:       p.Name,
			Age:        p.Age,
			Gender:     string(p.Gender),
		})
	}
	return out
}

// GetOrder returns the order if it belongs to userID.
func (s *OrderService) GetOrder(ctx context.Context, id, userID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return nil, s.notFound(err)
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

// TakenSeats returns the seats of seatIDs that are ticketed or held by a
// pending order for the given departure.
func (s *OrderService) TakenSeats(ctx context.Context, busID, journeyDate string, seatIDs []string) ([]string, error) {
	booked, err := s.DB.BookedSeats(ctx, busID, journeyDate, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check seats: %w", err)
	}
	_, locked, err := s.Locks.CheckSeatsAvailability(ctx, busID, journeyDate, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("redis lock error: %w", err)
	}

	taken := append([]string{}, booked...)
	for _, id := range locked {
		if !containsSeat(taken, id) {
			taken = append(taken, id)
		}
	}
	return taken, nil
}

// HandleSeatLockExpired cancels the pending order that held an expired seat
// lock and releases the rest of its seats.
func (s *OrderService) HandleSeatLockExpired(ctx context.Context, busID, journeyDate, seatID string) {
	orders, err := s.DB.GetPendingOrdersForBus(ctx, busID, journeyDate)
	if err != nil {
		s.logger.Error("SEAT_UNLOCK", fmt.Sprintf("Failed to load pending orders for %s/%s: %v", busID, journeyDate, err))
		return
	}
	for _, order := range orders {
		if !containsSeat(order.SeatIDs, seatID) {
			continue
		}
		if err := s.expire(ctx, order); err != nil {
			s.logger.Error("SEAT_UNLOCK", fmt.Sprintf("Failed to cancel order %s: %v", order.OrderID, err))
			continue
		}
		s.logger.Info("SEAT_UNLOCK", fmt.Sprintf("Order %s cancelled due to seat lock expiry", order.OrderID))
	}
}

func (s *OrderService) expire(ctx context.Context, order models.Order) error {
	order.Status = models.OrderCancelled
	order.UpdatedAt = s.now().UTC()
	if err := s.DB.UpdateOrder(ctx, order); err != nil {
		return err
	}
	if err := s.Locks.UnlockSeats(ctx, order.BusID, order.JourneyDate, order.SeatIDs, order.OrderID); err != nil {
		s.logger.Warn("SEAT_UNLOCK", fmt.Sprintf("Failed to unlock seats for order %s: %v", order.OrderID, err))
	}
	s.publish(ctx, kafka.TopicOrderCancelled, models.EventOrderCancelled, order)
	s.seatsChanged(order, sse.SeatAvailable)
	return nil
}

func containsSeat(seats []string, seatID string) bool {
	for _, id := range seats {
		if id == seatID {
			return true
		}
	}
	return false
}

func (s *OrderService) publish(ctx context.Context, topic string, t models.OrderEventType, order models.Order) {
	payload, err := json.Marshal(models.NewOrderEvent(t, order, s.now().UTC()))
	if err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to marshal %s event: %v", t, err))
		return
	}
	if err := s.Events.Publish(ctx, topic, order.OrderID, payload); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Kafka publish error (%s): %v", t, err))
	}
}

func (s *OrderService) seatsChanged(order models.Order, status string) {
	if s.Seats != nil {
		s.Seats.SeatsChanged(order.BusID, order.JourneyDate, order.SeatIDs, status)
	}
}

func (s *OrderService) notFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}
