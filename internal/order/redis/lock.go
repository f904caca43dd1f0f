package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-busbooking/internal/logger"

	"github.com/go-redis/redis/v8"
)

const (
	lockPrefix         = "seat_lock:"
	DefaultLockTTL     = 10 * time.Minute
	expiredKeyPattern  = "__keyevent@*__:expired"
	keyspaceEventsConf = "notify-keyspace-events"
)

// Redis holds seat locks for pending orders. A lock is keyed by departure
// (bus and journey date) and seat, and its value is the owning order id.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Redis{Client: client, TTL: ttl, Logger: log}
}

// SeatKey → redis key of one seat on one departure
func SeatKey(busID, journeyDate, seatID string) string {
	return fmt.Sprintf("%s%s:%s:%s", lockPrefix, busID, journeyDate, seatID)
}

// ParseSeatKey is the inverse of SeatKey.
func ParseSeatKey(key string) (busID, journeyDate, seatID string, ok bool) {
	rest, found := strings.CutPrefix(key, lockPrefix)
	if !found {
		return "", "", "", false
	}
	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// CheckSeatsAvailability reports which seats are currently locked, without locking them.
func (r *Redis) CheckSeatsAvailability(ctx context.Context, busID, journeyDate string, seatIDs []string) (bool, []string, error) {
	locked := []string{}
	for _, seatID := range seatIDs {
		n, err := r.Client.Exists(ctx, SeatKey(busID, journeyDate, seatID)).Result()
		if err != nil {
			return false, nil, err
		}
		if n > 0 {
			locked = append(locked, seatID)
		}
	}
	return len(locked) == 0, locked, nil
}

func (r *Redis) lockSeat(ctx context.Context, busID, journeyDate, seatID, orderID string) (bool, error) {
	return r.Client.SetNX(ctx, SeatKey(busID, journeyDate, seatID), orderID, r.TTL).Result()
}

func (r *Redis) unlockSeat(ctx context.Context, busID, journeyDate, seatID, orderID string) error {
	key := SeatKey(busID, journeyDate, seatID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already unlocked
	}
	if err != nil {
		return err
	}
	if val != orderID {
		return nil
	}
	return r.Client.Del(ctx, key).Err()
}

// LockSeats locks every seat for orderID or none of them.
func (r *Redis) LockSeats(ctx context.Context, busID, journeyDate string, seatIDs []string, orderID string) (bool, error) {
	locked := make([]string, 0, len(seatIDs))
	release := func() {
		for _, l := range locked {
			_ = r.unlockSeat(ctx, busID, journeyDate, l, orderID)
		}
	}

	for _, seatID := range seatIDs {
		ok, err := r.lockSeat(ctx, busID, journeyDate, seatID, orderID)
		if err != nil {
			release()
			return false, err
		}
		if !ok {
			release()
			r.Logger.Debug("REDIS", fmt.Sprintf("Seat %s on %s/%s already locked", seatID, busID, journeyDate))
			return false, nil
		}
		locked = append(locked, seatID)
	}
	return true, nil
}

// UnlockSeats releases the seats still owned by orderID. Locks taken by other
// orders are left alone.
func (r *Redis) UnlockSeats(ctx context.Context, busID, journeyDate string, seatIDs []string, orderID string) error {
	var firstErr error
	for _, seatID := range seatIDs {
		if err := r.unlockSeat(ctx, busID, journeyDate, seatID, orderID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ExpiredSeatHandler is called for every seat lock that expires.
type ExpiredSeatHandler func(ctx context.Context, busID, journeyDate, seatID string)

// SubscribeExpired listens for expired seat locks until ctx is done. Keyspace
// notifications are switched on for expiry events when the server allows it.
func (r *Redis) SubscribeExpired(ctx context.Context, handler ExpiredSeatHandler) error {
	if err := r.Client.ConfigSet(ctx, keyspaceEventsConf, "Ex").Err(); err != nil {
		r.Logger.Warn("REDIS", fmt.Sprintf("Could not enable keyspace notifications: %v", err))
	}

	pubsub := r.Client.PSubscribe(ctx, expiredKeyPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe to expired keys: %w", err)
	}
	r.Logger.Info("REDIS", "Subscribed to seat lock expiry notifications")

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				busID, journeyDate, seatID, ok := ParseSeatKey(msg.Payload)
				if !ok {
					continue
				}
				r.Logger.Info("SEAT_UNLOCK", fmt.Sprintf("Seat lock expired for %s on %s/%s", seatID, busID, journeyDate))
				handler(ctx, busID, journeyDate, seatID)
			}
		}
	}()
	return nil
}
