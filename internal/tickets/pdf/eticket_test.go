package pdf

import (
	"bytes"
	"testing"

	"ms-busbooking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestETicket(t *testing.T) {
	order := models.Order{
		OrderID: "order_1", BookingID: "RB123456789",
		BusID: "bus1", BusName: "Rajasthan Travels",
		Source: "Delhi", Destination: "Jaipur", JourneyDate: "2025-07-15",
	}
	tickets := []models.Ticket{
		{TicketID: "t1", SeatID: "bus1_seat1", PassengerName: "John Doe", PriceAtPurchase: 950},
		{TicketID: "t2", SeatID: "bus1_seat3", PassengerName: "Jane Doe", PriceAtPurchase: 950},
	}

	out, err := ETicket(order, tickets, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = ETicket(order, nil, nil)
	assert.Error(t, err)
}

func TestSeatLabel(t *testing.T) {
	assert.Equal(t, "12", seatLabel("bus1_seat12"))
	assert.Equal(t, "A1", seatLabel("A1"))
	assert.Equal(t, "-", safe("  ", "-"))
}
