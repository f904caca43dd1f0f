package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderID returns an id of the form order_<uuid>.
func GenerateOrderID() string {
	return "order_" + uuid.NewString()
}

// GenerateBookingID returns the passenger-facing booking reference, RB followed
// by nine digits.
func GenerateBookingID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return fmt.Sprintf("RB%09d", time.Now().UnixNano()%1_000_000_000)
	}
	return fmt.Sprintf("RB%09d", n.Int64())
}

// GeneratePaymentID mimics a gateway payment reference.
func GeneratePaymentID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("pay_%d_%06d", timestamp, randomNum.Int64())
}
