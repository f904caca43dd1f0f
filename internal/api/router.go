package api

import (
	"net/http"
	"strconv"
	"time"

	"ms-busbooking/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter registers every route of the booking API.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		r.Get("/health", h.Health)
		r.Get("/routes/featured", h.FeaturedRoutes)
		r.Get("/buses", h.SearchBuses)
		r.Get("/buses/{busId}", h.GetBus)
		r.Get("/buses/{busId}/seats", h.GetSeats)
		r.Get("/buses/{busId}/seats/stream", h.SeatStream)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/register", h.Register)
		r.Post("/payments/webhook", h.StripeWebhook)

		// --- Booking sessions, identity optional ---
		r.Route("/booking/sessions", func(r chi.Router) {
			r.Use(h.Auth.Optional)
			r.Post("/", h.CreateSession)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Patch("/", h.UpdateSession)
				r.Delete("/", h.DeleteSession)
				r.Post("/reset", h.ResetSession)
				r.Post("/seats/{seatId}/toggle", h.ToggleSeat)
				r.Put("/passengers", h.UpsertPassenger)
				r.Delete("/passengers/{seatNumber}", h.RemovePassenger)
				r.Get("/checkout", h.CheckoutStatus)
				r.Post("/checkout", h.Checkout)
			})
		})

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)

			r.Get("/auth/profile", h.Profile)
			r.Put("/auth/profile", h.UpdateProfile)
			r.Post("/auth/logout", h.Logout)

			r.Post("/payments/intent", h.CreatePaymentIntent)
			r.Post("/payments/verify", h.VerifyPayment)

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", h.ListBookings)
				r.Get("/{bookingId}", h.GetBooking)
				r.Post("/{bookingId}/cancel", h.CancelBooking)
				r.Get("/{bookingId}/ticket.pdf", h.DownloadTicket)
				r.Get("/{bookingId}/tickets/{seatId}/qr", h.TicketQR)
			})
		})
	})
	return r
}

// echoRequestID returns the request id to the client as a header.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(status), time.Since(start).String())
		})
	}
}
