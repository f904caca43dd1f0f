package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"ms-busbooking/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway takes payments through Stripe payment intents. Amounts are
// sent in the currency's minor unit.
type StripeGateway struct {
	client   *client.API
	currency string
}

func NewStripeGateway(secretKey, currency string, backends *stripe.Backends) *StripeGateway {
	if currency == "" {
		currency = "inr"
	}
	return &StripeGateway{client: client.New(secretKey, backends), currency: currency}
}

func (g *StripeGateway) Name() string { return "stripe" }

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (g *StripeGateway) CreateIntent(_ context.Context, order models.Order) (*models.PaymentIntent, error) {
	// Reuse an open intent rather than charging twice for one order.
	if order.PaymentIntentID != "" {
		intent, err := g.client.PaymentIntents.Get(order.PaymentIntentID, nil)
		if err == nil && intent.Status != stripe.PaymentIntentStatusCanceled && intent.Status != stripe.PaymentIntentStatusSucceeded {
			return toPaymentIntent(intent, order.OrderID), nil
		}
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(order.Price)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", order.OrderID)

	intent, err := g.client.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return toPaymentIntent(intent, order.OrderID), nil
}

func toPaymentIntent(intent *stripe.PaymentIntent, orderID string) *models.PaymentIntent {
	return &models.PaymentIntent{
		ID:           intent.ID,
		OrderID:      orderID,
		Amount:       float64(intent.Amount) / 100,
		Currency:     string(intent.Currency),
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Provider:     "stripe",
	}
}

// Confirm checks that the intent was paid in full and belongs to the order.
func (g *StripeGateway) Confirm(_ context.Context, order models.Order, v models.PaymentVerification) error {
	id := v.PaymentID
	if id == "" {
		id = order.PaymentIntentID
	}
	if id == "" {
		return errors.New("no payment intent for order")
	}

	intent, err := g.client.PaymentIntents.Get(id, nil)
	if err != nil {
		return err
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("payment intent %s is %s", intent.ID, intent.Status)
	}
	if intent.Metadata["order_id"] != order.OrderID {
		return fmt.Errorf("payment intent %s does not belong to order %s", intent.ID, order.OrderID)
	}
	if intent.Amount < toMinorUnits(order.Price) {
		return fmt.Errorf("payment intent %s covers %d of %d", intent.ID, intent.Amount, toMinorUnits(order.Price))
	}
	return nil
}

func (g *StripeGateway) Refund(_ context.Context, order models.Order, amount float64) error {
	if order.PaymentIntentID == "" {
		return errors.New("no payment intent to refund")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(order.PaymentIntentID),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	}
	params.AddMetadata("booking_id", order.BookingID)
	_, err := g.client.Refunds.New(params)
	return err
}

// ---------------- WEBHOOK ----------------

// WebhookError represents an error that occurred during webhook processing
type WebhookError struct {
	StatusCode    int    // HTTP status code
	PublicError   string // Safe to expose to clients
	InternalError string // Detailed error for logs only
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

func webhookError(status int, public string, err error) *WebhookError {
	internal := public
	if err != nil {
		internal = fmt.Sprintf("%s: %v", public, err)
	}
	return &WebhookError{StatusCode: status, PublicError: public, InternalError: internal, OriginalErr: err}
}

// HandleStripeWebhook verifies a Stripe event and settles the order it names:
// a succeeded intent confirms the order, a failed one releases it.
func (s *OrderService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.WebhookSecret == "" {
		s.logger.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return webhookError(http.StatusInternalServerError, "Webhook processing error", nil)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.LogSecurity("WEBHOOK_SIGNATURE", err.Error())
		return webhookError(http.StatusBadRequest, "Invalid webhook signature", err)
	}

	s.logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event: %s", event.Type))

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		s.logger.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
		return nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return webhookError(http.StatusBadRequest, "Invalid event data", err)
	}
	orderID, ok := intent.Metadata["order_id"]
	if !ok {
		return webhookError(http.StatusBadRequest, "Invalid payment intent data", errors.New("payment intent has no order_id in metadata"))
	}

	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return webhookError(http.StatusNotFound, "Order not found", s.notFound(err))
	}
	if order.Status != models.OrderPending {
		s.logger.Info("WEBHOOK", fmt.Sprintf("Order %s already %s, ignoring %s", orderID, order.Status, event.Type))
		return nil
	}

	if event.Type == "payment_intent.payment_failed" {
		if err := s.expire(ctx, *order); err != nil {
			return webhookError(http.StatusInternalServerError, "Failed to cancel order after payment failure", err)
		}
		s.logger.Info("WEBHOOK", fmt.Sprintf("Cancelled order %s due to payment failure", orderID))
		return nil
	}

	if err := s.confirm(ctx, order, intent.ID); err != nil {
		return webhookError(http.StatusInternalServerError, "Failed to process payment", err)
	}
	s.logger.Info("WEBHOOK", fmt.Sprintf("Successfully processed payment for order %s", orderID))
	return nil
}
