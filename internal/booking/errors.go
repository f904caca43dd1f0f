package booking

import (
	"errors"
	"fmt"
)

var ErrNotAuthenticated = errors.New("please login to continue booking")

// ValidationError reports passenger input or a checkout gate the user must fix.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return e.Msg
}

// StateError is returned when an operation needs an active record and there is none.
type StateError struct {
	Op string
}

func (e StateError) Error() string {
	return fmt.Sprintf("%s: booking details not found", e.Op)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsState(err error) bool {
	var target StateError
	return errors.As(err, &target)
}
