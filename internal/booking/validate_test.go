package booking_test

import (
	"testing"

	"ms-busbooking/internal/booking"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassenger(t *testing.T) {
	tests := []struct {
		name    string
		in      booking.Passenger
		field   string
		wantErr bool
	}{
		{"valid", booking.Passenger{Name: "John", Age: 28, Gender: "male", SeatNumber: "A1"}, "", false},
		{"lower bound", booking.Passenger{Name: "Baby", Age: 1, SeatNumber: "A1"}, "", false},
		{"upper bound", booking.Passenger{Name: "Elder", Age: 120, Gender: "other", SeatNumber: "A1"}, "", false},
		{"blank name", booking.Passenger{Name: "   ", Age: 30, SeatNumber: "A1"}, "name", true},
		{"missing age", booking.Passenger{Name: "John", SeatNumber: "A1"}, "age", true},
		{"too old", booking.Passenger{Name: "John", Age: 121, SeatNumber: "A1"}, "age", true},
		{"negative age", booking.Passenger{Name: "John", Age: -4, SeatNumber: "A1"}, "age", true},
		{"missing seat", booking.Passenger{Name: "John", Age: 30}, "seatNumber", true},
		{"bad gender", booking.Passenger{Name: "John", Age: 30, Gender: "robot", SeatNumber: "A1"}, "gender", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			err := booking.ValidatePassenger(&p)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr booking.ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestValidatePassenger_Normalises(t *testing.T) {
	p := booking.Passenger{Name: "  Jane Doe ", Age: 26, Gender: "Female", SeatNumber: " A2 "}
	assert.NoError(t, booking.ValidatePassenger(&p))
	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, "A2", p.SeatNumber)
	assert.Equal(t, booking.GenderFemale, p.Gender)

	p = booking.Passenger{Name: "Sam", Age: 40, SeatNumber: "B1"}
	assert.NoError(t, booking.ValidatePassenger(&p))
	assert.Equal(t, booking.GenderMale, p.Gender)
}
