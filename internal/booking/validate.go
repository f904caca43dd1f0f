package booking

import "strings"

const (
	MinAge = 1
	MaxAge = 120
)

// ValidatePassenger normalises the form input in place and checks it.
// Gender defaults to male, matching the form's initial selection.
func ValidatePassenger(p *Passenger) error {
	p.Name = strings.TrimSpace(p.Name)
	p.SeatNumber = strings.TrimSpace(p.SeatNumber)

	if p.Name == "" {
		return ValidationError{Field: "name", Msg: "Name is required"}
	}
	if p.Age == 0 {
		return ValidationError{Field: "age", Msg: "Age is required"}
	}
	if p.Age < MinAge || p.Age > MaxAge {
		return ValidationError{Field: "age", Msg: "Age must be between 1 and 120"}
	}
	if p.SeatNumber == "" {
		return ValidationError{Field: "seatNumber", Msg: "Seat number is required"}
	}

	switch Gender(strings.ToLower(string(p.Gender))) {
	case "":
		p.Gender = GenderMale
	case GenderMale, GenderFemale, GenderOther:
		p.Gender = Gender(strings.ToLower(string(p.Gender)))
	default:
		return ValidationError{Field: "gender", Msg: "Gender must be male, female or other"}
	}
	return nil
}
