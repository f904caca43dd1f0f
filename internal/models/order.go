package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID         string      `bun:"order_id,pk" json:"order_id"`
	BookingID       string      `bun:"booking_id,nullzero" json:"booking_id,omitempty"`
	UserID          string      `bun:"user_id,notnull" json:"user_id"`
	BusID           string      `bun:"bus_id,notnull" json:"bus_id"`
	BusName         string      `bun:"bus_name" json:"bus_name"`
	JourneyDate     string      `bun:"journey_date,notnull" json:"journey_date"`
	Source          string      `bun:"source" json:"source"`
	Destination     string      `bun:"destination" json:"destination"`
	DepartureTime   string      `bun:"departure_time" json:"departure_time"`
	ArrivalTime     string      `bun:"arrival_time" json:"arrival_time"`
	SeatIDs         []string    `bun:"seat_ids,type:jsonb" json:"seat_ids"`
	Fare            float64     `bun:"fare" json:"fare"`
	Price           float64     `bun:"price" json:"price"`
	Status          OrderStatus `bun:"status,notnull" json:"status"`
	PaymentIntentID string      `bun:"payment_intent_id,nullzero" json:"payment_intent_id,omitempty"`
	RefundAmount    float64     `bun:"refund_amount" json:"refund_amount,omitempty"`
	CreatedAt       time.Time   `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt       time.Time   `bun:"updated_at,nullzero" json:"updated_at,omitempty"`

	Passengers []OrderPassenger `bun:"rel:has-many,join:order_id=order_id" json:"passengers"`
}

type OrderPassenger struct {
	bun.BaseModel `bun:"table:order_passengers"`

	ID         int64  `bun:"id,pk,autoincrement" json:"-"`
	OrderID    string `bun:"order_id,notnull" json:"-"`
	SeatNumber string `bun:"seat_number,notnull" json:"seatNumber"`
	Name       string `bun:"name,notnull" json:"name"`
	Age        int    `bun:"age" json:"age"`
	Gender     string `bun:"gender" json:"gender"`
}

type OrderResponse struct {
	OrderID     string   `json:"order_id"`
	SessionID   string   `json:"session_id"`
	SeatIDs     []string `json:"seat_ids"`
	TotalAmount float64  `json:"total_amount"`
}
