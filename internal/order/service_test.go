package order_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"ms-busbooking/internal/booking"
	"ms-busbooking/internal/catalog"
	"ms-busbooking/internal/kafka"
	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/models"
	"ms-busbooking/internal/order"
	"ms-busbooking/internal/order/db"
	"ms-busbooking/internal/sse"
	"ms-busbooking/internal/tickets/qr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateOrder(ctx context.Context, o models.Order) error {
	return m.Called(o).Error(0)
}

func (m *MockDBLayer) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDBLayer) GetOrderByBookingID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDBLayer) UpdateOrder(ctx context.Context, o models.Order) error {
	return m.Called(o).Error(0)
}

func (m *MockDBLayer) TransitionOrder(ctx context.Context, o models.Order, from models.OrderStatus) (bool, error) {
	args := m.Called(o, from)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockDBLayer) GetPendingOrdersForBus(ctx context.Context, busID, journeyDate string) ([]models.Order, error) {
	args := m.Called(busID, journeyDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockDBLayer) CreateTickets(ctx context.Context, tickets []models.Ticket) error {
	return m.Called(tickets).Error(0)
}

func (m *MockDBLayer) GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockDBLayer) CancelTickets(ctx context.Context, orderID string) error {
	return m.Called(orderID).Error(0)
}

func (m *MockDBLayer) BookedSeats(ctx context.Context, busID, journeyDate string, seatIDs []string) ([]string, error) {
	args := m.Called(busID, journeyDate, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockSeatLocker struct {
	mock.Mock
}

func (m *MockSeatLocker) CheckSeatsAvailability(ctx context.Context, busID, journeyDate string, seatIDs []string) (bool, []string, error) {
	args := m.Called(busID, journeyDate, seatIDs)
	return args.Bool(0), args.Get(1).([]string), args.Error(2)
}

func (m *MockSeatLocker) LockSeats(ctx context.Context, busID, journeyDate string, seatIDs []string, orderID string) (bool, error) {
	args := m.Called(busID, journeyDate, seatIDs, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatLocker) UnlockSeats(ctx context.Context, busID, journeyDate string, seatIDs []string, orderID string) error {
	return m.Called(busID, journeyDate, seatIDs, orderID).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, value []byte) error {
	return m.Called(topic, key, value).Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string { return "test" }

func (m *MockGateway) CreateIntent(ctx context.Context, o models.Order) (*models.PaymentIntent, error) {
	args := m.Called(o.OrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockGateway) Confirm(ctx context.Context, o models.Order, v models.PaymentVerification) error {
	return m.Called(o.OrderID, v).Error(0)
}

func (m *MockGateway) Refund(ctx context.Context, o models.Order, amount float64) error {
	return m.Called(o.OrderID, amount).Error(0)
}

type fixture struct {
	db      *MockDBLayer
	locks   *MockSeatLocker
	events  *MockPublisher
	service *order.OrderService
}

func newFixture(gateway order.PaymentGateway) fixture {
	f := fixture{db: new(MockDBLayer), locks: new(MockSeatLocker), events: new(MockPublisher)}
	log := logger.NewConsoleLogger(nil)
	if gateway == nil {
		gateway = order.MockGateway{}
	}
	f.service = order.NewOrderService(f.db, f.locks, f.events,
		catalog.NewService(nil, 0, log), qr.NewQRGenerator("test-secret"), gateway, log)
	return f
}

func sampleRecord() booking.Record {
	return booking.Record{
		BusID:         "bus1",
		JourneyDate:   "2025-07-15",
		Source:        "Delhi",
		Destination:   "Jaipur",
		Fare:          950,
		SelectedSeats: []string{"bus1_seat1", "bus1_seat3"},
		Passengers: []booking.Passenger{
			{Name: "John Doe", Age: 28, Gender: booking.GenderMale, SeatNumber: "bus1_seat1"},
			{Name: "Jane Doe", Age: 26, Gender: booking.GenderFemale, SeatNumber: "bus1_seat3"},
		},
		TotalAmount: 1900,
	}
}

func pendingOrder(userID string) *models.Order {
	return &models.Order{
		OrderID:     "order_1",
		UserID:      userID,
		BusID:       "bus1",
		JourneyDate: "2025-07-15",
		SeatIDs:     []string{"bus1_seat1", "bus1_seat3"},
		Fare:        950,
		Price:       1900,
		Status:      models.OrderPending,
		Passengers: []models.OrderPassenger{
			{SeatNumber: "bus1_seat1", Name: "John Doe"},
			{SeatNumber: "bus1_seat3", Name: "Jane Doe"},
		},
	}
}

var bookingIDPattern = regexp.MustCompile(`^RB\d{9}$`)

func TestCreateOrder_Success(t *testing.T) {
	f := newFixture(nil)
	rec := sampleRecord()

	f.db.On("BookedSeats", "bus1", "2025-07-15", rec.SelectedSeats).Return([]string{}, nil)
	f.locks.On("LockSeats", "bus1", "2025-07-15", rec.SelectedSeats, mock.AnythingOfType("string")).Return(true, nil)
	f.db.On("CreateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderPending && o.Price == 1900 && o.UserID == "user001" &&
			o.BusName == "Rajasthan Travels" && o.DepartureTime == "22:00" && len(o.Passengers) == 2
	})).Return(nil)
	f.events.On("Publish", kafka.TopicOrderCreated, mock.AnythingOfType("string"), mock.Anything).Return(nil)

	id, err := f.service.CreateOrder(context.Background(), rec, "user001")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "order_"))

	f.db.AssertExpectations(t)
	f.locks.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestCreateOrder_NotifiesSeatWatchers(t *testing.T) {
	f := newFixture(nil)
	emitter := sse.NewSeatEventEmitter()
	f.service.Seats = emitter
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := emitter.Subscribe(ctx, "bus1", "2025-07-15")

	rec := sampleRecord()
	f.db.On("BookedSeats", "bus1", "2025-07-15", rec.SelectedSeats).Return([]string{}, nil)
	f.locks.On("LockSeats", "bus1", "2025-07-15", rec.SelectedSeats, mock.AnythingOfType("string")).Return(true, nil)
	f.db.On("CreateOrder", mock.Anything).Return(nil)
	f.events.On("Publish", kafka.TopicOrderCreated, mock.AnythingOfType("string"), mock.Anything).Return(nil)

	_, err := f.service.CreateOrder(context.Background(), rec, "user001")
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, sse.SeatLocked, ev.Status)
		assert.Equal(t, rec.SelectedSeats, ev.SeatIDs)
	default:
		t.Fatal("expected a seat event")
	}
}

func TestCreateOrder_SeatsAlreadyBooked(t *testing.T) {
	f := newFixture(nil)
	rec := sampleRecord()
	f.db.On("BookedSeats", "bus1", "2025-07-15", rec.SelectedSeats).Return([]string{"bus1_seat3"}, nil)

	_, err := f.service.CreateOrder(context.Background(), rec, "user001")
	assert.ErrorIs(t, err, order.ErrSeatsUnavailable)
	assert.Contains(t, err.Error(), "bus1_seat3")
	f.locks.AssertNotCalled(t, "LockSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_LockHeldByAnotherOrder(t *testing.T) {
	f := newFixture(nil)
	rec := sampleRecord()
	f.db.On("BookedSeats", mock.Anything, mock.Anything, mock.Anything).Return([]string{}, nil)
	f.locks.On("LockSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	_, err := f.service.CreateOrder(context.Background(), rec, "user001")
	assert.ErrorIs(t, err, order.ErrSeatsUnavailable)
	f.db.AssertNotCalled(t, "CreateOrder", mock.Anything)
}

func TestCreateOrder_DBFailureReleasesLocks(t *testing.T) {
	f := newFixture(nil)
	rec := sampleRecord()
	f.db.On("BookedSeats", mock.Anything, mock.Anything, mock.Anything).Return([]string{}, nil)
	f.locks.On("LockSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.db.On("CreateOrder", mock.Anything).Return(errors.New("db down"))
	f.locks.On("UnlockSeats", "bus1", "2025-07-15", rec.SelectedSeats, mock.AnythingOfType("string")).Return(nil)

	_, err := f.service.CreateOrder(context.Background(), rec, "user001")
	assert.EqualError(t, err, "db down")
	f.locks.AssertCalled(t, "UnlockSeats", "bus1", "2025-07-15", rec.SelectedSeats, mock.AnythingOfType("string"))
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_Rejects(t *testing.T) {
	f := newFixture(nil)

	empty := sampleRecord()
	empty.SelectedSeats = nil
	_, err := f.service.CreateOrder(context.Background(), empty, "user001")
	assert.ErrorIs(t, err, order.ErrEmptySelection)

	unknown := sampleRecord()
	unknown.BusID = "bus99"
	_, err = f.service.CreateOrder(context.Background(), unknown, "user001")
	assert.ErrorIs(t, err, catalog.ErrBusNotFound)
}

func TestCreateOrder_SeatsMustBeBookable(t *testing.T) {
	f := newFixture(nil)

	closed := sampleRecord()
	closed.SelectedSeats = []string{"bus1_seat1", "bus1_seat2"}
	closed.Passengers[1].SeatNumber = "bus1_seat2"
	_, err := f.service.CreateOrder(context.Background(), closed, "user001")
	assert.ErrorIs(t, err, order.ErrSeatsUnavailable)
	assert.Contains(t, err.Error(), "bus1_seat2")

	ghost := sampleRecord()
	ghost.SelectedSeats = []string{"bus1_seat1", "ghost"}
	ghost.Passengers[1].SeatNumber = "ghost"
	_, err = f.service.CreateOrder(context.Background(), ghost, "user001")
	assert.ErrorIs(t, err, catalog.ErrSeatNotFound)

	otherBus := sampleRecord()
	otherBus.SelectedSeats = []string{"bus1_seat1", "bus2_seat1"}
	otherBus.Passengers[1].SeatNumber = "bus2_seat1"
	_, err = f.service.CreateOrder(context.Background(), otherBus, "user001")
	assert.ErrorIs(t, err, catalog.ErrSeatNotFound)

	f.db.AssertNotCalled(t, "BookedSeats", mock.Anything, mock.Anything, mock.Anything)
	f.locks.AssertNotCalled(t, "LockSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_PassengersMustMatchSeats(t *testing.T) {
	f := newFixture(nil)

	// Seat 3 was swapped for seat 4 after its passenger was entered.
	swapped := sampleRecord()
	swapped.SelectedSeats = []string{"bus1_seat1", "bus1_seat4"}
	_, err := f.service.CreateOrder(context.Background(), swapped, "user001")
	var verr booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "bus1_seat4")

	extra := sampleRecord()
	extra.SelectedSeats = []string{"bus1_seat1"}
	_, err = f.service.CreateOrder(context.Background(), extra, "user001")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "bus1_seat3")

	f.locks.AssertNotCalled(t, "LockSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProceedToPayment_ThroughOrderService(t *testing.T) {
	f := newFixture(nil)
	f.db.On("BookedSeats", mock.Anything, mock.Anything, mock.Anything).Return([]string{}, nil)
	f.locks.On("LockSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.db.On("CreateOrder", mock.Anything).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := sampleRecord()
	m := booking.NewManager()
	m.Initialize(booking.Info{
		BusID:         &rec.BusID,
		JourneyDate:   &rec.JourneyDate,
		Fare:          booking.FloatPtr(rec.Fare),
		SelectedSeats: rec.SelectedSeats,
		Passengers:    rec.Passengers,
	})

	id, err := m.ProceedToPayment(context.Background(), "user001", f.service)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "order_"))
	assert.NoError(t, m.Err())
}

func TestVerifyPayment_ConfirmsAndIssuesTickets(t *testing.T) {
	f := newFixture(nil)
	f.db.On("GetOrderByID", "order_1").Return(pendingOrder("user001"), nil)
	f.db.On("CreateTickets", mock.MatchedBy(func(ts []models.Ticket) bool {
		if len(ts) != 2 {
			return false
		}
		for _, tk := range ts {
			if len(tk.QRCode) == 0 || !bookingIDPattern.MatchString(tk.BookingID) || tk.PriceAtPurchase != 950 {
				return false
			}
		}
		return ts[0].PassengerName == "John Doe" && ts[1].SeatID == "bus1_seat3"
	})).Return(nil)
	f.db.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderConfirmed && bookingIDPattern.MatchString(o.BookingID) && o.PaymentIntentID == "pay_1"
	})).Return(nil)
	f.locks.On("UnlockSeats", "bus1", "2025-07-15", []string{"bus1_seat1", "bus1_seat3"}, "order_1").Return(nil)
	f.events.On("Publish", kafka.TopicOrderConfirmed, "order_1", mock.Anything).Return(nil)

	res, err := f.service.VerifyPayment(context.Background(), "user001", models.PaymentVerification{OrderID: "order_1", PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.Regexp(t, bookingIDPattern, res.BookingID)
	assert.Equal(t, "confirmed", res.Status)

	f.db.AssertExpectations(t)
	f.locks.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestVerifyPayment_Guards(t *testing.T) {
	t.Run("other user", func(t *testing.T) {
		f := newFixture(nil)
		f.db.On("GetOrderByID", "order_1").Return(pendingOrder("user002"), nil)
		_, err := f.service.VerifyPayment(context.Background(), "user001", models.PaymentVerification{OrderID: "order_1"})
		assert.ErrorIs(t, err, order.ErrForbidden)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(nil)
		f.db.On("GetOrderByID", "order_x").Return(nil, db.ErrNotFound)
		_, err := f.service.VerifyPayment(context.Background(), "user001", models.PaymentVerification{OrderID: "order_x"})
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("expired order", func(t *testing.T) {
		f := newFixture(nil)
		o := pendingOrder("user001")
		o.Status = models.OrderCancelled
		f.db.On("GetOrderByID", "order_1").Return(o, nil)
		_, err := f.service.VerifyPayment(context.Background(), "user001", models.PaymentVerification{OrderID: "order_1"})
		assert.ErrorIs(t, err, order.ErrInvalidState)
	})

	t.Run("already confirmed", func(t *testing.T) {
		f := newFixture(nil)
		o := pendingOrder("user001")
		o.Status = models.OrderConfirmed
		o.BookingID = "RB123456789"
		f.db.On("GetOrderByID", "order_1").Return(o, nil)
		res, err := f.service.VerifyPayment(context.Background(), "user001", models.PaymentVerification{OrderID: "order_1"})
		require.NoError(t, err)
		assert.Equal(t, "RB123456789", res.BookingID)
		f.db.AssertNotCalled(t, "CreateTickets", mock.Anything)
	})

	t.Run("gateway rejects", func(t *testing.T) {
		gw := new(MockGateway)
		f := newFixture(gw)
		f.db.On("GetOrderByID", "order_1").Return(pendingOrder("user001"), nil)
		gw.On("Confirm", "order_1", mock.Anything).Return(errors.New("card declined"))
		_, err := f.service.VerifyPayment(context.Background(), "user001", models.PaymentVerification{OrderID: "order_1"})
		assert.ErrorIs(t, err, order.ErrPaymentFailed)
		f.db.AssertNotCalled(t, "UpdateOrder", mock.Anything)
	})
}

func TestCreatePaymentIntent(t *testing.T) {
	gw := new(MockGateway)
	f := newFixture(gw)
	f.db.On("GetOrderByID", "order_1").Return(pendingOrder("user001"), nil)
	gw.On("CreateIntent", "order_1").Return(&models.PaymentIntent{ID: "pi_123", OrderID: "order_1", Amount: 1900}, nil)
	f.db.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.PaymentIntentID == "pi_123" && o.Status == models.OrderPending
	})).Return(nil)

	intent, err := f.service.CreatePaymentIntent(context.Background(), "order_1", "user001")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	f.db.AssertExpectations(t)
}

func TestCancelBooking_RefundsNinetyPercent(t *testing.T) {
	f := newFixture(nil)
	o := pendingOrder("user001")
	o.Status = models.OrderConfirmed
	o.BookingID = "RB123456789"
	o.Price = 1200

	f.db.On("GetOrderByBookingID", "RB123456789").Return(o, nil)
	f.db.On("TransitionOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderCancelled && o.RefundAmount == 1080
	}), models.OrderConfirmed).Return(true, nil)
	f.db.On("CancelTickets", "order_1").Return(nil)
	f.events.On("Publish", kafka.TopicOrderCancelled, "order_1", mock.Anything).Return(nil)

	refund, err := f.service.CancelBooking(context.Background(), "user001", "RB123456789")
	require.NoError(t, err)
	assert.Equal(t, 1080.0, refund)
	f.db.AssertExpectations(t)
}

func TestCancelBooking_SecondCancelDoesNotRefund(t *testing.T) {
	gw := new(MockGateway)
	f := newFixture(gw)
	o := pendingOrder("user001")
	o.Status = models.OrderConfirmed
	o.BookingID = "RB123456789"

	// Both requests read the booking as confirmed; the other one flipped it first.
	f.db.On("GetOrderByBookingID", "RB123456789").Return(o, nil)
	f.db.On("TransitionOrder", mock.Anything, models.OrderConfirmed).Return(false, nil)

	_, err := f.service.CancelBooking(context.Background(), "user001", "RB123456789")
	assert.ErrorIs(t, err, order.ErrInvalidState)
	gw.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
	f.db.AssertNotCalled(t, "CancelTickets", mock.Anything)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelBooking_RefundFailureRestoresBooking(t *testing.T) {
	gw := new(MockGateway)
	f := newFixture(gw)
	o := pendingOrder("user001")
	o.Status = models.OrderConfirmed
	o.BookingID = "RB123456789"

	f.db.On("GetOrderByBookingID", "RB123456789").Return(o, nil)
	f.db.On("TransitionOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderCancelled
	}), models.OrderConfirmed).Return(true, nil)
	gw.On("Refund", "order_1", 1710.0).Return(errors.New("card declined"))
	f.db.On("TransitionOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderConfirmed && o.RefundAmount == 0
	}), models.OrderCancelled).Return(true, nil)

	_, err := f.service.CancelBooking(context.Background(), "user001", "RB123456789")
	assert.ErrorContains(t, err, "refund failed")
	f.db.AssertExpectations(t)
	f.db.AssertNotCalled(t, "CancelTickets", mock.Anything)
}

func TestCancelBooking_OnlyConfirmed(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderPending, models.OrderCompleted, models.OrderCancelled} {
		f := newFixture(nil)
		o := pendingOrder("user001")
		o.Status = status
		o.BookingID = "RB1"
		f.db.On("GetOrderByBookingID", "RB1").Return(o, nil)

		_, err := f.service.CancelBooking(context.Background(), "user001", "RB1")
		assert.ErrorIs(t, err, order.ErrInvalidState, string(status))
	}
}

func TestRefundAmount(t *testing.T) {
	assert.Equal(t, 1080.0, order.RefundAmount(1200))
	assert.Equal(t, 899.99, order.RefundAmount(999.99))
	assert.Zero(t, order.RefundAmount(0))
}

func TestDetails_FallsBackToOrderID(t *testing.T) {
	f := newFixture(nil)
	f.db.On("GetOrderByBookingID", "order_1").Return(nil, db.ErrNotFound)
	f.db.On("GetOrderByID", "order_1").Return(pendingOrder("user001"), nil)

	o, err := f.service.Details(context.Background(), "user001", "order_1")
	require.NoError(t, err)
	assert.Equal(t, "order_1", o.OrderID)

	_, err = f.service.Details(context.Background(), "user002", "order_1")
	assert.ErrorIs(t, err, order.ErrForbidden)
}

func TestHistory_Filters(t *testing.T) {
	f := newFixture(nil)
	orders := []models.Order{
		{OrderID: "o1", BookingID: "RB123456789", Source: "Delhi", Destination: "Jaipur", BusName: "Rajasthan Travels", Status: models.OrderConfirmed},
		{OrderID: "o2", BookingID: "RB987654321", Source: "Mumbai", Destination: "Pune", BusName: "Maharashtra Express", Status: models.OrderCompleted},
		{OrderID: "o3", BookingID: "RB555555555", Source: "Bangalore", Destination: "Chennai", BusName: "Chennai Travels", Status: models.OrderCancelled},
		{OrderID: "o4", Source: "Delhi", Destination: "Jaipur", Status: models.OrderPending},
	}
	f.db.On("GetOrdersByUser", "user001").Return(orders, nil)

	ids := func(filter order.HistoryFilter) []string {
		got, err := f.service.History(context.Background(), "user001", filter)
		require.NoError(t, err)
		out := []string{}
		for _, b := range got {
			out = append(out, b.ID)
		}
		return out
	}

	assert.Equal(t, []string{"RB123456789", "RB987654321", "RB555555555"}, ids(order.HistoryFilter{Status: order.FilterAll}))
	assert.Equal(t, []string{"RB123456789"}, ids(order.HistoryFilter{Status: order.FilterUpcoming}))
	assert.Equal(t, []string{"RB987654321"}, ids(order.HistoryFilter{Status: order.FilterCompleted}))
	assert.Equal(t, []string{"RB555555555"}, ids(order.HistoryFilter{Status: order.FilterCancelled}))
	assert.Equal(t, []string{"RB987654321"}, ids(order.HistoryFilter{Query: "pune"}))
	assert.Equal(t, []string{"RB123456789"}, ids(order.HistoryFilter{Query: "rajasthan"}))
	assert.Empty(t, ids(order.HistoryFilter{Status: order.FilterUpcoming, Query: "chennai"}))
}

func TestHandleSeatLockExpired(t *testing.T) {
	f := newFixture(nil)
	holding := *pendingOrder("user001")
	other := *pendingOrder("user002")
	other.OrderID = "order_2"
	other.SeatIDs = []string{"bus1_seat4"}

	f.db.On("GetPendingOrdersForBus", "bus1", "2025-07-15").Return([]models.Order{holding, other}, nil)
	f.db.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.OrderID == "order_1" && o.Status == models.OrderCancelled
	})).Return(nil)
	f.locks.On("UnlockSeats", "bus1", "2025-07-15", holding.SeatIDs, "order_1").Return(nil)
	f.events.On("Publish", kafka.TopicOrderCancelled, "order_1", mock.Anything).Return(nil)

	f.service.HandleSeatLockExpired(context.Background(), "bus1", "2025-07-15", "bus1_seat3")

	f.db.AssertNumberOfCalls(t, "UpdateOrder", 1)
	f.locks.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestTicketQR(t *testing.T) {
	f := newFixture(nil)
	o := pendingOrder("user001")
	o.Status = models.OrderConfirmed
	o.BookingID = "RB123456789"
	f.db.On("GetOrderByBookingID", "RB123456789").Return(o, nil)
	f.db.On("GetTicketsByOrder", "order_1").Return([]models.Ticket{
		{TicketID: "t1", SeatID: "bus1_seat1", QRCode: []byte("png-1")},
		{TicketID: "t2", SeatID: "bus1_seat3", QRCode: []byte("png-3")},
	}, nil)

	png, err := f.service.TicketQR(context.Background(), "user001", "RB123456789", "bus1_seat3")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-3"), png)

	_, err = f.service.TicketQR(context.Background(), "user001", "RB123456789", "bus1_seat9")
	assert.ErrorIs(t, err, order.ErrTicketNotFound)
}

func TestTakenSeats_MergesTicketsAndLocks(t *testing.T) {
	f := newFixture(nil)
	seats := []string{"bus1_seat1", "bus1_seat3", "bus1_seat4"}
	f.db.On("BookedSeats", "bus1", "2025-07-15", seats).Return([]string{"bus1_seat1"}, nil)
	f.locks.On("CheckSeatsAvailability", "bus1", "2025-07-15", seats).Return(false, []string{"bus1_seat1", "bus1_seat4"}, nil)

	taken, err := f.service.TakenSeats(context.Background(), "bus1", "2025-07-15", seats)
	require.NoError(t, err)
	assert.Equal(t, []string{"bus1_seat1", "bus1_seat4"}, taken)
}
