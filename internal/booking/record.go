package booking

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Passenger is the traveller occupying one selected seat.
type Passenger struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     Gender `json:"gender"`
	SeatNumber string `json:"seatNumber"`
}

// Record is the in-progress booking of one session.
type Record struct {
	BusID         string      `json:"busId"`
	JourneyDate   string      `json:"journeyDate"`
	Source        string      `json:"source"`
	Destination   string      `json:"destination"`
	Fare          float64     `json:"fare"`
	SelectedSeats []string    `json:"selectedSeats"`
	Passengers    []Passenger `json:"passengers"`
	TotalAmount   float64     `json:"totalAmount"`
}

// Info carries the fields supplied to Initialize. Nil means "leave as is".
type Info struct {
	BusID         *string
	JourneyDate   *string
	Source        *string
	Destination   *string
	Fare          *float64
	SelectedSeats []string
	Passengers    []Passenger
}

func newRecord() *Record {
	return &Record{
		SelectedSeats: []string{},
		Passengers:    []Passenger{},
	}
}

func (r *Record) recomputeTotal() {
	r.TotalAmount = r.Fare * float64(len(r.SelectedSeats))
}

func (r *Record) seatIndex(seatID string) int {
	for i, id := range r.SelectedSeats {
		if id == seatID {
			return i
		}
	}
	return -1
}

func (r *Record) passengerIndex(seatNumber string) int {
	for i, p := range r.Passengers {
		if p.SeatNumber == seatNumber {
			return i
		}
	}
	return -1
}

func (r *Record) clone() Record {
	out := *r
	out.SelectedSeats = append([]string{}, r.SelectedSeats...)
	out.Passengers = append([]Passenger{}, r.Passengers...)
	return out
}

func StringPtr(s string) *string { return &s }

func FloatPtr(f float64) *float64 { return &f }
