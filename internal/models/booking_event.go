package models

import "time"

type OrderEventType string

const (
	EventOrderCreated   OrderEventType = "order.created"
	EventOrderConfirmed OrderEventType = "order.confirmed"
	EventOrderCancelled OrderEventType = "order.cancelled"
)

// OrderEvent is the Kafka payload for order lifecycle changes.
type OrderEvent struct {
	Type        OrderEventType `json:"type"`
	OrderID     string         `json:"order_id"`
	BookingID   string         `json:"booking_id,omitempty"`
	UserID      string         `json:"user_id"`
	BusID       string         `json:"bus_id"`
	JourneyDate string         `json:"journey_date"`
	SeatIDs     []string       `json:"seat_ids"`
	Amount      float64        `json:"amount"`
	Refund      float64        `json:"refund,omitempty"`
	Status      OrderStatus    `json:"status"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func NewOrderEvent(t OrderEventType, o Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     o.OrderID,
		BookingID:   o.BookingID,
		UserID:      o.UserID,
		BusID:       o.BusID,
		JourneyDate: o.JourneyDate,
		SeatIDs:     o.SeatIDs,
		Amount:      o.Price,
		Refund:      o.RefundAmount,
		Status:      o.Status,
		OccurredAt:  at,
	}
}
