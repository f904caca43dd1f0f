package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ms-busbooking/internal/catalog"
	"ms-busbooking/internal/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "ok", map[string]interface{}{
		"status":   "up",
		"sessions": h.Sessions.Len(),
	})
}

func (h *Handler) FeaturedRoutes(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "Featured routes", h.Catalog.FeaturedRoutes())
}

// SearchBuses answers GET /api/buses?source=&destination=&date= with optional
// minPrice, maxPrice, departureTime and busTypes filters. List filters accept
// comma separated or repeated values.
func (h *Handler) SearchBuses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := catalog.SearchQuery{
		Source:      q.Get("source"),
		Destination: q.Get("destination"),
		JourneyDate: q.Get("date"),
	}
	if query.JourneyDate != "" {
		if _, err := utils.ParseJourneyDate(query.JourneyDate); err != nil {
			h.fail(w, http.StatusBadRequest, "Invalid journey date", err)
			return
		}
	}

	filters := catalog.Filters{
		DepartureTimes: listParam(q["departureTime"]),
		BusTypes:       listParam(q["busTypes"]),
	}
	var err error
	if filters.MinPrice, err = floatParam(q.Get("minPrice")); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid minPrice", err)
		return
	}
	if filters.MaxPrice, err = floatParam(q.Get("maxPrice")); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid maxPrice", err)
		return
	}

	found := h.Catalog.Search(r.Context(), query)
	min, max := catalog.PriceBounds(found)
	buses := catalog.Filter(found, filters)
	h.Logger.Debug("API", fmt.Sprintf("SearchBuses: %s -> %s matched %d, %d after filters", query.Source, query.Destination, len(found), len(buses)))

	h.ok(w, fmt.Sprintf("%d buses found", len(buses)), map[string]interface{}{
		"buses":    buses,
		"minPrice": min,
		"maxPrice": max,
	})
}

func (h *Handler) GetBus(w http.ResponseWriter, r *http.Request) {
	bus, err := h.Catalog.Bus(chi.URLParam(r, "busId"))
	if err != nil {
		h.failErr(w, "GetBus", err)
		return
	}
	h.ok(w, "Bus details", bus)
}

// GetSeats returns the seat map of a bus. With ?date= the map also reflects
// seats ticketed or held for that departure.
func (h *Handler) GetSeats(w http.ResponseWriter, r *http.Request) {
	busID := chi.URLParam(r, "busId")
	seats, err := h.Catalog.Seats(busID)
	if err != nil {
		h.failErr(w, "GetSeats", err)
		return
	}

	if date := r.URL.Query().Get("date"); date != "" {
		if _, err := utils.ParseJourneyDate(date); err != nil {
			h.fail(w, http.StatusBadRequest, "Invalid journey date", err)
			return
		}
		ids := make([]string, 0, len(seats))
		for _, s := range seats {
			ids = append(ids, s.ID)
		}
		taken, err := h.Orders.TakenSeats(r.Context(), busID, date, ids)
		if err != nil {
			h.failErr(w, "GetSeats", err)
			return
		}
		takenSet := make(map[string]bool, len(taken))
		for _, id := range taken {
			takenSet[id] = true
		}
		for i := range seats {
			if takenSet[seats[i].ID] {
				seats[i].IsAvailable = false
			}
		}
	}
	h.ok(w, "Seat layout", seats)
}

// seatAvailable combines the static seat map with live tickets and locks.
func (h *Handler) seatAvailable(ctx context.Context, busID, journeyDate, seatID string) (bool, error) {
	ok, err := h.Catalog.SeatAvailability(busID, seatID)
	if err != nil || !ok {
		return false, err
	}
	if journeyDate == "" {
		return true, nil
	}
	taken, err := h.Orders.TakenSeats(ctx, busID, journeyDate, []string{seatID})
	if err != nil {
		return false, err
	}
	return len(taken) == 0, nil
}

func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func floatParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}
