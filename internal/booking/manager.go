package booking

import "context"

// OrderCreator turns a finalized record into an order and returns its id.
type OrderCreator interface {
	CreateOrder(ctx context.Context, record Record, userID string) (string, error)
}

// Manager owns the booking record of a single session. It is not safe for
// concurrent use; callers serialise access (see session.Registry).
type Manager struct {
	record *Record
	err    error
}

func NewManager() *Manager {
	return &Manager{}
}

// Initialize creates the record from defaults overlaid with info, or merges
// info into the existing record. TotalAmount is recomputed whenever the seats
// or the fare change.
func (m *Manager) Initialize(info Info) {
	if m.record == nil {
		m.record = newRecord()
		m.merge(info)
		m.record.recomputeTotal()
		return
	}

	m.merge(info)
	if info.SelectedSeats != nil || info.Fare != nil {
		m.record.recomputeTotal()
	}
}

func (m *Manager) merge(info Info) {
	r := m.record
	if info.BusID != nil {
		r.BusID = *info.BusID
	}
	if info.JourneyDate != nil {
		r.JourneyDate = *info.JourneyDate
	}
	if info.Source != nil {
		r.Source = *info.Source
	}
	if info.Destination != nil {
		r.Destination = *info.Destination
	}
	if info.Fare != nil {
		r.Fare = *info.Fare
	}
	if info.SelectedSeats != nil {
		r.SelectedSeats = uniqueSeats(info.SelectedSeats)
	}
	if info.Passengers != nil {
		r.Passengers = []Passenger{}
		for _, p := range info.Passengers {
			m.UpsertPassenger(p)
		}
	}
}

func uniqueSeats(seats []string) []string {
	seen := make(map[string]struct{}, len(seats))
	out := make([]string, 0, len(seats))
	for _, id := range seats {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ToggleSeat adds or removes seatID from the selection. Unavailable seats and
// calls without a record are ignored.
func (m *Manager) ToggleSeat(seatID string, available bool) {
	if !available || m.record == nil {
		return
	}

	r := m.record
	if i := r.seatIndex(seatID); i >= 0 {
		r.SelectedSeats = append(r.SelectedSeats[:i:i], r.SelectedSeats[i+1:]...)
	} else {
		r.SelectedSeats = append(r.SelectedSeats, seatID)
	}
	r.recomputeTotal()
}

// UpsertPassenger replaces the passenger holding the same seat, keeping its
// position, or appends a new one. Input must already be validated.
func (m *Manager) UpsertPassenger(p Passenger) {
	if m.record == nil {
		return
	}

	r := m.record
	if i := r.passengerIndex(p.SeatNumber); i >= 0 {
		r.Passengers[i] = p
		return
	}
	r.Passengers = append(r.Passengers, p)
}

func (m *Manager) RemovePassenger(seatNumber string) {
	if m.record == nil {
		return
	}

	kept := m.record.Passengers[:0:0]
	for _, p := range m.record.Passengers {
		if p.SeatNumber != seatNumber {
			kept = append(kept, p)
		}
	}
	m.record.Passengers = kept
}

// CanProceedToPayment reports whether every selected seat has a passenger.
func (m *Manager) CanProceedToPayment() bool {
	if m.record == nil {
		return false
	}
	n := len(m.record.Passengers)
	return n > 0 && n == len(m.record.SelectedSeats)
}

// MissingPassengerSeat returns the first selected seat without passenger details.
func (m *Manager) MissingPassengerSeat() (string, bool) {
	if m.record == nil {
		return "", false
	}
	for _, seatID := range m.record.SelectedSeats {
		if m.record.passengerIndex(seatID) < 0 {
			return seatID, true
		}
	}
	return "", false
}

// ProceedToPayment gates checkout and hands the record to the order creator.
// An empty userID means the caller is not logged in.
func (m *Manager) ProceedToPayment(ctx context.Context, userID string, creator OrderCreator) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	if m.record == nil {
		return "", StateError{Op: "proceed to payment"}
	}
	if len(m.record.Passengers) == 0 {
		return "", ValidationError{Field: "passengers", Msg: "Please add passenger details"}
	}
	if len(m.record.Passengers) != len(m.record.SelectedSeats) {
		return "", ValidationError{Field: "passengers", Msg: "Please add details for all selected seats"}
	}

	m.err = nil
	orderID, err := creator.CreateOrder(ctx, m.record.clone(), userID)
	if err != nil {
		m.err = err
		return "", err
	}
	return orderID, nil
}

// Record returns a copy of the current record.
func (m *Manager) Record() (Record, bool) {
	if m.record == nil {
		return Record{}, false
	}
	return m.record.clone(), true
}

// Err is the last order creation failure, cleared by Reset.
func (m *Manager) Err() error {
	return m.err
}

func (m *Manager) Reset() {
	m.record = nil
	m.err = nil
}
