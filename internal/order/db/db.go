package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-busbooking/internal/models"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("record not found")

type DB struct {
	Bun *bun.DB
}

// CreateSchema creates the order tables when they are missing.
func (d *DB) CreateSchema(ctx context.Context) error {
	tables := []interface{}{(*models.Order)(nil), (*models.OrderPassenger)(nil), (*models.Ticket)(nil)}
	for _, m := range tables {
		if _, err := d.Bun.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ---------------- ORDERS ----------------

// CreateOrder → insert the order and its passengers in one transaction
func (d *DB) CreateOrder(ctx context.Context, order models.Order) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&order).Exec(ctx); err != nil {
			return err
		}
		if len(order.Passengers) == 0 {
			return nil
		}
		for i := range order.Passengers {
			order.Passengers[i].OrderID = order.OrderID
		}
		_, err := tx.NewInsert().Model(&order.Passengers).Exec(ctx)
		return err
	})
}

// GetOrderByID → fetch one order with its passengers
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return d.getOrder(ctx, "o.order_id = ?", id)
}

func (d *DB) GetOrderByBookingID(ctx context.Context, bookingID string) (*models.Order, error) {
	return d.getOrder(ctx, "o.booking_id = ?", bookingID)
}

func (d *DB) getOrder(ctx context.Context, where string, arg string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Relation("Passengers", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id ASC")
		}).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder → update mutable fields
func (d *DB) UpdateOrder(ctx context.Context, order models.Order) error {
	res, err := d.Bun.NewUpdate().
		Model(&order).
		Column("booking_id", "status", "payment_intent_id", "refund_amount", "updated_at").
		Where("order_id = ?", order.OrderID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionOrder → update an order only while it still has status from.
// Reports false when another writer moved it first.
func (d *DB) TransitionOrder(ctx context.Context, order models.Order, from models.OrderStatus) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model(&order).
		Column("booking_id", "status", "payment_intent_id", "refund_amount", "updated_at").
		Where("order_id = ?", order.OrderID).
		Where("status = ?", string(from)).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetOrdersByUser → all orders of a user, newest first
func (d *DB) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Relation("Passengers", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetPendingOrdersForBus → pending orders of one bus departure
func (d *DB) GetPendingOrdersForBus(ctx context.Context, busID, journeyDate string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("bus_id = ?", busID).
		Where("journey_date = ?", journeyDate).
		Where("status = ?", models.OrderPending).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ---------------- TICKETS ----------------

func (d *DB) CreateTickets(ctx context.Context, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&tickets).Exec(ctx)
	return err
}

func (d *DB) GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("order_id = ?", orderID).
		Order("seat_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// CancelTickets → release the seats held by an order's tickets
func (d *DB) CancelTickets(ctx context.Context, orderID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("cancelled = ?", true).
		Where("order_id = ?", orderID).
		Exec(ctx)
	return err
}

// BookedSeats → which of seatIDs already hold a live ticket on this departure
func (d *DB) BookedSeats(ctx context.Context, busID, journeyDate string, seatIDs []string) ([]string, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	var booked []string
	err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Column("seat_id").
		Where("bus_id = ?", busID).
		Where("journey_date = ?", journeyDate).
		Where("seat_id IN (?)", bun.In(seatIDs)).
		Where("cancelled = ?", false).
		Scan(ctx, &booked)
	if err != nil {
		return nil, err
	}
	return booked, nil
}
