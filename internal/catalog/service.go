package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-busbooking/internal/logger"

	"github.com/go-redis/redis/v8"
)

var (
	ErrBusNotFound  = errors.New("bus not found")
	ErrSeatNotFound = errors.New("seat not found")
)

// Service serves the static bus catalog. It is the fare and seat availability
// source for booking sessions.
type Service struct {
	buses    []Bus
	seats    map[string][]Seat
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewService builds the catalog from the bundled mock data. cache may be nil.
func NewService(cache *redis.Client, cacheTTL time.Duration, log *logger.Logger) *Service {
	seats := make(map[string][]Seat, len(seatPlans))
	for _, plan := range seatPlans {
		seats[plan.busID] = plan.seats()
	}
	return &Service{
		buses:    mockBuses,
		seats:    seats,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

func (s *Service) Buses() []Bus {
	return append([]Bus{}, s.buses...)
}

func (s *Service) FeaturedRoutes() []FeaturedRoute {
	return append([]FeaturedRoute{}, featuredRoutes...)
}

func (s *Service) Bus(busID string) (*Bus, error) {
	for i := range s.buses {
		if s.buses[i].ID == busID {
			bus := s.buses[i]
			return &bus, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBusNotFound, busID)
}

func (s *Service) Seats(busID string) ([]Seat, error) {
	seats, ok := s.seats[busID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBusNotFound, busID)
	}
	return append([]Seat{}, seats...), nil
}

func (s *Service) Seat(busID, seatID string) (*Seat, error) {
	seats, err := s.Seats(busID)
	if err != nil {
		return nil, err
	}
	for i := range seats {
		if seats[i].ID == seatID {
			return &seats[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSeatNotFound, seatID)
}

// Fare → per-seat fare of a bus
func (s *Service) Fare(busID string) (float64, error) {
	bus, err := s.Bus(busID)
	if err != nil {
		return 0, err
	}
	return bus.Fare, nil
}

// SeatAvailability → whether a seat of the bus can be selected
func (s *Service) SeatAvailability(busID, seatID string) (bool, error) {
	seat, err := s.Seat(busID, seatID)
	if err != nil {
		return false, err
	}
	return seat.IsAvailable, nil
}

// Search returns the buses running the queried route. Results are cached in
// Redis when a client is configured; cache failures fall through to the catalog.
func (s *Service) Search(ctx context.Context, q SearchQuery) []Bus {
	key := searchKey(q)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var cached []Bus
			if err := json.Unmarshal(raw, &cached); err == nil {
				s.logger.Debug("CACHE", fmt.Sprintf("Search cache hit for %s", key))
				return cached
			}
		} else if err != redis.Nil {
			s.logger.Warn("CACHE", fmt.Sprintf("Search cache read failed: %v", err))
		}
	}

	result := make([]Bus, 0, len(s.buses))
	for _, bus := range s.buses {
		if matchRoute(bus, q) {
			result = append(result, bus)
		}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("CACHE", fmt.Sprintf("Search cache write failed: %v", err))
			}
		}
	}
	return result
}

func searchKey(q SearchQuery) string {
	return fmt.Sprintf("bus_search:%s|%s|%s",
		strings.ToLower(strings.TrimSpace(q.Source)),
		strings.ToLower(strings.TrimSpace(q.Destination)),
		strings.TrimSpace(q.JourneyDate))
}
