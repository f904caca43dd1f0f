package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID        string    `bun:"ticket_id,pk" json:"ticket_id"`
	OrderID         string    `bun:"order_id,notnull" json:"order_id"`
	BookingID       string    `bun:"booking_id,notnull" json:"booking_id"`
	BusID           string    `bun:"bus_id,notnull" json:"bus_id"`
	JourneyDate     string    `bun:"journey_date,notnull" json:"journey_date"`
	SeatID          string    `bun:"seat_id,notnull" json:"seat_id"`
	PassengerName   string    `bun:"passenger_name" json:"passenger_name"`
	QRCode          []byte    `bun:"qr_code" json:"-"`
	PriceAtPurchase float64   `bun:"price_at_purchase" json:"price_at_purchase"`
	Cancelled       bool      `bun:"cancelled,notnull,default:false" json:"cancelled"`
	IssuedAt        time.Time `bun:"issued_at" json:"issued_at"`
}

// TicketPayload is what gets encrypted into the QR code.
type TicketPayload struct {
	TicketID      string `json:"ticket_id"`
	BookingID     string `json:"booking_id"`
	BusID         string `json:"bus_id"`
	JourneyDate   string `json:"journey_date"`
	SeatID        string `json:"seat_id"`
	PassengerName string `json:"passenger_name"`
}

func (t Ticket) Payload() TicketPayload {
	return TicketPayload{
		TicketID:      t.TicketID,
		BookingID:     t.BookingID,
		BusID:         t.BusID,
		JourneyDate:   t.JourneyDate,
		SeatID:        t.SeatID,
		PassengerName: t.PassengerName,
	}
}
