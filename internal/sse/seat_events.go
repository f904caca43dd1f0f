package sse

import (
	"context"
	"sync"
	"time"
)

const (
	SeatLocked    = "locked"
	SeatBooked    = "booked"
	SeatAvailable = "available"
)

// SeatEvent reports a status change of seats on one departure.
type SeatEvent struct {
	BusID       string    `json:"busId"`
	JourneyDate string    `json:"journeyDate"`
	SeatIDs     []string  `json:"seatIds"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

// SeatEventEmitter fans seat status changes out to the SSE clients watching a
// departure.
type SeatEventEmitter struct {
	mu      sync.RWMutex
	clients map[string][]chan SeatEvent
	now     func() time.Time
}

func NewSeatEventEmitter() *SeatEventEmitter {
	return &SeatEventEmitter{
		clients: make(map[string][]chan SeatEvent),
		now:     time.Now,
	}
}

func departureKey(busID, journeyDate string) string {
	return busID + "|" + journeyDate
}

// Subscribe registers a client for a departure. The channel is closed once ctx
// is done.
func (e *SeatEventEmitter) Subscribe(ctx context.Context, busID, journeyDate string) <-chan SeatEvent {
	key := departureKey(busID, journeyDate)
	clientChan := make(chan SeatEvent, 10)

	e.mu.Lock()
	e.clients[key] = append(e.clients[key], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(key, clientChan)
	}()
	return clientChan
}

// SeatsChanged broadcasts a status change. Slow clients miss events rather
// than block the caller.
func (e *SeatEventEmitter) SeatsChanged(busID, journeyDate string, seatIDs []string, status string) {
	ev := SeatEvent{
		BusID:       busID,
		JourneyDate: journeyDate,
		SeatIDs:     append([]string{}, seatIDs...),
		Status:      status,
		At:          e.now().UTC(),
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, clientChan := range e.clients[departureKey(busID, journeyDate)] {
		select {
		case clientChan <- ev:
		default:
		}
	}
}

func (e *SeatEventEmitter) remove(key string, clientChan chan SeatEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[key]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[key] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}
	if len(e.clients[key]) == 0 {
		delete(e.clients, key)
	}
}

// ClientCount returns the number of clients watching a departure.
func (e *SeatEventEmitter) ClientCount(busID, journeyDate string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[departureKey(busID, journeyDate)])
}
