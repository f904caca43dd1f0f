package models

// BookingSummary is one entry of a user's booking history.
type BookingSummary struct {
	ID            string           `json:"id"`
	OrderID       string           `json:"orderId"`
	JourneyDate   string           `json:"journeyDate"`
	Source        string           `json:"source"`
	Destination   string           `json:"destination"`
	BusName       string           `json:"busName"`
	DepartureTime string           `json:"departureTime"`
	ArrivalTime   string           `json:"arrivalTime"`
	Seats         []string         `json:"seats"`
	Amount        float64          `json:"amount"`
	Status        OrderStatus      `json:"status"`
	Passengers    []OrderPassenger `json:"passengers,omitempty"`
}

func (o Order) Summary() BookingSummary {
	return BookingSummary{
		ID:            o.BookingID,
		OrderID:       o.OrderID,
		JourneyDate:   o.JourneyDate,
		Source:        o.Source,
		Destination:   o.Destination,
		BusName:       o.BusName,
		DepartureTime: o.DepartureTime,
		ArrivalTime:   o.ArrivalTime,
		Seats:         o.SeatIDs,
		Amount:        o.Price,
		Status:        o.Status,
		Passengers:    o.Passengers,
	}
}
