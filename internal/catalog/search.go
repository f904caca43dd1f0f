package catalog

import (
	"strconv"
	"strings"
)

type SearchQuery struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	JourneyDate string `json:"journeyDate"`
}

// Filters narrows search results. A zero MaxPrice disables the price filter.
type Filters struct {
	MinPrice       float64  `json:"minPrice"`
	MaxPrice       float64  `json:"maxPrice"`
	DepartureTimes []string `json:"departureTime"`
	BusTypes       []string `json:"busTypes"`
}

const (
	SlotMorning   = "morning"
	SlotAfternoon = "afternoon"
	SlotEvening   = "evening"
	SlotNight     = "night"

	TypeACSleeper    = "ac_sleeper"
	TypeNonACSleeper = "non_ac_sleeper"
	TypeACSeater     = "ac_seater"
	TypeNonACSeater  = "non_ac_seater"
	TypeVolvo        = "volvo"
)

func matchRoute(bus Bus, q SearchQuery) bool {
	if q.Source != "" && !strings.EqualFold(bus.Source, strings.TrimSpace(q.Source)) {
		return false
	}
	if q.Destination != "" && !strings.EqualFold(bus.Destination, strings.TrimSpace(q.Destination)) {
		return false
	}
	return true
}

// Filter applies price, departure slot and bus type filters to buses.
func Filter(buses []Bus, f Filters) []Bus {
	out := make([]Bus, 0, len(buses))
	for _, bus := range buses {
		if f.MaxPrice > 0 && (bus.Fare < f.MinPrice || bus.Fare > f.MaxPrice) {
			continue
		}
		if len(f.DepartureTimes) > 0 && !matchSlot(bus.DepartureTime, f.DepartureTimes) {
			continue
		}
		if len(f.BusTypes) > 0 && !matchType(bus.Type, f.BusTypes) {
			continue
		}
		out = append(out, bus)
	}
	return out
}

func departureHour(hhmm string) int {
	h, _, _ := strings.Cut(hhmm, ":")
	hour, err := strconv.Atoi(h)
	if err != nil {
		return -1
	}
	return hour
}

func matchSlot(departure string, slots []string) bool {
	hour := departureHour(departure)
	for _, slot := range slots {
		switch slot {
		case SlotMorning:
			if hour >= 6 && hour < 12 {
				return true
			}
		case SlotAfternoon:
			if hour >= 12 && hour < 18 {
				return true
			}
		case SlotEvening:
			if hour >= 18 && hour < 24 {
				return true
			}
		case SlotNight:
			if hour >= 0 && hour < 6 {
				return true
			}
		}
	}
	return false
}

func isAC(busType string) bool {
	t := strings.ToLower(busType)
	if strings.Contains(t, "non-ac") || strings.Contains(t, "non ac") {
		return false
	}
	return strings.Contains(t, "ac")
}

func matchType(busType string, types []string) bool {
	ac := isAC(busType)
	sleeper := strings.Contains(strings.ToLower(busType), "sleeper")
	volvo := strings.Contains(strings.ToLower(busType), "volvo")

	for _, want := range types {
		switch want {
		case TypeACSleeper:
			if ac && sleeper {
				return true
			}
		case TypeNonACSleeper:
			if !ac && sleeper {
				return true
			}
		case TypeACSeater:
			if ac && !sleeper {
				return true
			}
		case TypeNonACSeater:
			if !ac && !sleeper {
				return true
			}
		case TypeVolvo:
			if volvo {
				return true
			}
		}
	}
	return false
}

// PriceBounds returns the cheapest and dearest fare among buses.
func PriceBounds(buses []Bus) (min, max float64) {
	for i, bus := range buses {
		if i == 0 || bus.Fare < min {
			min = bus.Fare
		}
		if i == 0 || bus.Fare > max {
			max = bus.Fare
		}
	}
	return min, max
}
