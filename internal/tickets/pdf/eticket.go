package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"ms-busbooking/internal/models"

	"github.com/phpdave11/gofpdf"
)

// ETicket renders one PDF page per ticket of a confirmed booking. qrCodes maps
// ticket id to its PNG QR image; tickets without one are rendered without it.
func ETicket(order models.Order, tickets []models.Ticket, qrCodes map[string][]byte) ([]byte, error) {
	if len(tickets) == 0 {
		return nil, fmt.Errorf("booking %s has no tickets", order.BookingID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+order.BookingID, false)

	for _, t := range tickets {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 18)
		pdf.Cell(0, 10, "BUS E-TICKET")
		pdf.Ln(14)

		pdf.SetFont("Helvetica", "", 12)
		lines := []string{
			"Booking ID   : " + order.BookingID,
			"Passenger    : " + safe(t.PassengerName, "-"),
			"Seat         : " + seatLabel(t.SeatID),
			"Bus          : " + safe(order.BusName, order.BusID),
			"Route        : " + order.Source + " - " + order.Destination,
			"Journey date : " + order.JourneyDate,
			"Departure    : " + safe(order.DepartureTime, "-"),
			"Arrival      : " + safe(order.ArrivalTime, "-"),
			fmt.Sprintf("Fare         : INR %.2f", t.PriceAtPurchase),
		}
		for _, s := range lines {
			pdf.Cell(0, 7, s)
			pdf.Ln(7)
		}

		if img, ok := qrCodes[t.TicketID]; ok && len(img) > 0 {
			name := "qr-" + t.TicketID
			opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
			pdf.ImageOptions(name, 10, pdf.GetY()+6, 50, 50, false, opts, 0, "")
			pdf.Ln(60)
		}

		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "Valid for one passenger and one seat. Show this ticket with a photo ID when boarding.", "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func safe(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// seatLabel turns "bus1_seat12" into "12".
func seatLabel(seatID string) string {
	if _, n, ok := strings.Cut(seatID, "_seat"); ok {
		return n
	}
	return seatID
}
