package catalog

import "fmt"

type Bus struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Source        string   `json:"source"`
	Destination   string   `json:"destination"`
	DepartureTime string   `json:"departureTime"`
	ArrivalTime   string   `json:"arrivalTime"`
	Duration      string   `json:"duration"`
	Fare          float64  `json:"fare"`
	Rating        float64  `json:"rating"`
	Amenities     []string `json:"amenities"`
	TotalSeats    int      `json:"totalSeats"`
}

type Deck string

const (
	DeckLower Deck = "lower"
	DeckUpper Deck = "upper"
)

type Seat struct {
	ID           string  `json:"id"`
	BusID        string  `json:"busId"`
	Number       string  `json:"number"`
	IsAvailable  bool    `json:"isAvailable"`
	Price        float64 `json:"price"`
	Deck         Deck    `json:"deck"`
	IsLadiesSeat bool    `json:"isLadiesSeat"`
	IsWindowSeat bool    `json:"isWindowSeat"`
}

type FeaturedRoute struct {
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Price       float64 `json:"price"`
}

var mockBuses = []Bus{
	{
		ID: "bus1", Name: "Rajasthan Travels", Type: "AC Sleeper",
		Source: "Delhi", Destination: "Jaipur",
		DepartureTime: "22:00", ArrivalTime: "04:30", Duration: "6h 30m",
		Fare: 950, Rating: 4.5, Amenities: []string{"wifi", "charging", "blanket", "water"},
		TotalSeats: 30,
	},
	{
		ID: "bus2", Name: "Maharashtra Express", Type: "Volvo AC Sleeper",
		Source: "Mumbai", Destination: "Pune",
		DepartureTime: "17:30", ArrivalTime: "20:45", Duration: "3h 15m",
		Fare: 1200, Rating: 4.7, Amenities: []string{"wifi", "charging", "snacks", "water", "blanket"},
		TotalSeats: 36,
	},
	{
		ID: "bus3", Name: "Chennai Travels", Type: "Non-AC Sleeper",
		Source: "Bangalore", Destination: "Chennai",
		DepartureTime: "22:00", ArrivalTime: "05:00", Duration: "7h",
		Fare: 750, Rating: 4.0, Amenities: []string{"charging", "water"},
		TotalSeats: 30,
	},
	{
		ID: "bus4", Name: "Pink City Connect", Type: "AC Seater",
		Source: "Delhi", Destination: "Jaipur",
		DepartureTime: "07:15", ArrivalTime: "12:45", Duration: "5h 30m",
		Fare: 550, Rating: 4.2, Amenities: []string{"charging", "water"},
		TotalSeats: 40,
	},
	{
		ID: "bus5", Name: "Deccan Volvo Lines", Type: "Volvo AC Seater",
		Source: "Hyderabad", Destination: "Bangalore",
		DepartureTime: "13:00", ArrivalTime: "22:30", Duration: "9h 30m",
		Fare: 650, Rating: 4.4, Amenities: []string{"wifi", "charging", "snacks", "water"},
		TotalSeats: 45,
	},
}

var featuredRoutes = []FeaturedRoute{
	{Source: "Delhi", Destination: "Jaipur", Price: 550},
	{Source: "Mumbai", Destination: "Pune", Price: 350},
	{Source: "Bangalore", Destination: "Chennai", Price: 750},
	{Source: "Hyderabad", Destination: "Bangalore", Price: 950},
}

type seatPlan struct {
	busID       string
	count       int
	unavailable []int
	ladies      []int
	window      []int
	lowerDeck   int // seats 1..lowerDeck are on the lower deck; 0 means single deck
	lowerPrice  float64
	upperPrice  float64
}

var seatPlans = []seatPlan{
	{"bus1", 30, []int{2, 5, 8, 13, 17, 20, 25}, []int{3, 14, 22}, []int{1, 4, 7, 10, 13, 16, 19, 22, 25, 28}, 15, 950, 900},
	{"bus2", 36, []int{4, 9, 11, 17, 22, 28, 30, 31}, []int{5, 16, 25}, []int{1, 4, 7, 10, 13, 16, 19, 22, 25, 28, 31, 34}, 18, 1200, 1100},
	{"bus3", 30, []int{1, 7, 9, 15}, []int{8, 20, 28}, []int{1, 4, 7, 10, 13, 16, 19, 22, 25, 28}, 15, 750, 700},
	{"bus4", 40, []int{2, 7, 12, 18, 25, 30, 35}, []int{5, 20, 33}, []int{1, 5, 9, 13, 17, 21, 25, 29, 33, 37}, 0, 550, 550},
	{"bus5", 45, []int{3, 7, 11, 16, 22, 27, 33, 38, 41, 42, 43, 44, 45}, []int{5, 19, 36}, []int{1, 5, 9, 13, 17, 21, 25, 29, 33, 37, 41, 45}, 0, 650, 650},
}

func (p seatPlan) seats() []Seat {
	unavailable := toSet(p.unavailable)
	ladies := toSet(p.ladies)
	window := toSet(p.window)

	seats := make([]Seat, 0, p.count)
	for n := 1; n <= p.count; n++ {
		deck, price := DeckLower, p.lowerPrice
		if p.lowerDeck > 0 && n > p.lowerDeck {
			deck, price = DeckUpper, p.upperPrice
		}
		seats = append(seats, Seat{
			ID:           fmt.Sprintf("%s_seat%d", p.busID, n),
			BusID:        p.busID,
			Number:       fmt.Sprintf("%d", n),
			IsAvailable:  !unavailable[n],
			Price:        price,
			Deck:         deck,
			IsLadiesSeat: ladies[n],
			IsWindowSeat: window[n],
		})
	}
	return seats
}

func toSet(nums []int) map[int]bool {
	set := make(map[int]bool, len(nums))
	for _, n := range nums {
		set[n] = true
	}
	return set
}
