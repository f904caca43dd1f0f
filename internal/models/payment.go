package models

type PaymentIntent struct {
	ID           string  `json:"id"`
	OrderID      string  `json:"order_id"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	ClientSecret string  `json:"client_secret,omitempty"`
	Status       string  `json:"status"`
	Provider     string  `json:"provider"`
}

type PaymentVerification struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature,omitempty"`
}

type PaymentResult struct {
	OrderID   string `json:"order_id"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}
