// Package seatlock maintains the per-showtime availability cache. The cache is a read-through
// view over the booking ledger: entries are merged on lock, reduced on release and rebuilt from
// the ledger whenever they are missing or unreadable.
package seatlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL    = 60 * time.Second
	defaultFillTTL    = 60 * time.Second
	defaultMaxRetries = 16

	// releaseMarkTTL bounds how long a ledger read may take and still be cached afterwards.
	releaseMarkTTL = 5 * time.Minute
)

var ErrContention = errors.New("seat lock entry kept changing, giving up")

// LedgerReader answers which seats are held by active bookings of a showtime.
type LedgerReader interface {
	GetLockedSeatIDs(ctx context.Context, showtimeID string) ([]int, error)
}

type Manager struct {
	client     redis.UniversalClient
	ledger     LedgerReader
	logger     *slog.Logger
	lockTTL    time.Duration
	fillTTL    time.Duration
	maxRetries int
}

type Option func(*Manager)

// WithLockTTL sets the lifetime an entry gets each time seats are locked into it.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithFillTTL sets the lifetime of an entry rebuilt from the ledger.
func WithFillTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.fillTTL = ttl
	}
}

func WithMaxRetries(n int) Option {
	return func(m *Manager) {
		m.maxRetries = n
	}
}

func NewManager(client redis.UniversalClient, ledger LedgerReader, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		client:     client,
		ledger:     ledger,
		logger:     logger,
		lockTTL:    defaultLockTTL,
		fillTTL:    defaultFillTTL,
		maxRetries: defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func Key(showtimeID string) string {
	return fmt.Sprintf("locked_seats:%s", showtimeID)
}

// ReleaseMarkKey counts releases of the showtime. A rebuild from the ledger is only written back
// when no release happened while the ledger was being read.
func ReleaseMarkKey(showtimeID string) string {
	return Key(showtimeID) + ":released"
}

// GetLockedSeats returns the cached set for the showtime. On a miss or a cache failure it reads
// the ledger and merges the result back into the cache. Only ledger failures are returned.
func (m *Manager) GetLockedSeats(ctx context.Context, showtimeID string) ([]int, error) {
	key := Key(showtimeID)

	seats, found, err := m.read(ctx, m.client, key)
	if err != nil {
		m.logger.Warn("locked seats cache read failed, using ledger", "showtime_id", showtimeID, "error", err)
	}

	if err == nil && found {
		return seats, nil
	}

	mark := ReleaseMarkKey(showtimeID)
	releases, markErr := m.releaseCount(ctx, m.client, mark)

	seats, err = m.ledger.GetLockedSeatIDs(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read locked seats from ledger: %w", err)
	}

	if markErr != nil {
		m.logger.Warn("skipping locked seats cache rebuild", "showtime_id", showtimeID, "error", markErr)
		return normalize(seats), nil
	}

	err = m.backfill(ctx, key, mark, releases, seats)
	if err != nil {
		m.logger.Warn("failed to repopulate locked seats cache", "showtime_id", showtimeID, "error", err)
	}

	return normalize(seats), nil
}

// LockSeats merges seatIDs into the showtime's entry and restarts its lifetime.
func (m *Manager) LockSeats(ctx context.Context, showtimeID string, seatIDs []int) error {
	return m.update(ctx, Key(showtimeID), func(current []int, _ bool) (entry, bool) {
		return entry{seats: union(current, seatIDs), ttl: m.lockTTL}, true
	})
}

// ReleaseSeats removes exactly seatIDs from the showtime's entry and keeps its remaining lifetime.
// Releasing from a missing entry, or releasing seats that are not present, leaves the entry as is.
// Every release bumps the showtime's release mark so a concurrent rebuild cannot write the
// released seats back.
func (m *Manager) ReleaseSeats(ctx context.Context, showtimeID string, seatIDs []int) error {
	mark := ReleaseMarkKey(showtimeID)

	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, mark)
		pipe.Expire(ctx, mark, releaseMarkTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark seat release: %w", err)
	}

	return m.update(ctx, Key(showtimeID), func(current []int, exists bool) (entry, bool) {
		if !exists {
			return entry{}, false
		}

		remaining := difference(current, seatIDs)
		if len(remaining) == len(current) {
			return entry{}, false
		}

		return entry{seats: remaining, keepTTL: true}, true
	})
}

// Invalidate drops the showtime's entry so the next read rebuilds it from the ledger.
func (m *Manager) Invalidate(ctx context.Context, showtimeID string) error {
	return m.client.Del(ctx, Key(showtimeID)).Err()
}

type entry struct {
	seats   []int
	ttl     time.Duration
	keepTTL bool
}

type mutation func(current []int, exists bool) (next entry, write bool)

// update applies fn as an optimistic compare-and-swap on key, retrying when another writer
// touched the key between the read and the write.
func (m *Manager) update(ctx context.Context, key string, fn mutation) error {
	return m.watch(ctx, func(tx *redis.Tx) error {
		current, exists, err := m.read(ctx, tx, key)
		if err != nil {
			return err
		}

		next, write := fn(current, exists)
		if !write {
			return nil
		}

		return m.write(ctx, tx, key, next)
	}, key)
}

// backfill merges ledger seats into key unless the release mark moved away from releases.
func (m *Manager) backfill(ctx context.Context, key, mark string, releases int64, seats []int) error {
	return m.watch(ctx, func(tx *redis.Tx) error {
		current, err := m.releaseCount(ctx, tx, mark)
		if err != nil {
			return err
		}

		if current != releases {
			m.logger.Debug("seats released during rebuild, not caching ledger read", "key", key)
			return nil
		}

		cached, exists, err := m.read(ctx, tx, key)
		if err != nil {
			return err
		}

		return m.write(ctx, tx, key, entry{seats: union(cached, seats), ttl: m.fillTTL, keepTTL: exists})
	}, key, mark)
}

func (m *Manager) write(ctx context.Context, tx *redis.Tx, key string, next entry) error {
	payload, err := json.Marshal(normalize(next.seats))
	if err != nil {
		return err
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if next.keepTTL {
			pipe.SetArgs(ctx, key, payload, redis.SetArgs{KeepTTL: true})
		} else {
			pipe.Set(ctx, key, payload, next.ttl)
		}
		return nil
	})

	return err
}

func (m *Manager) watch(ctx context.Context, txf func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		err := m.client.Watch(ctx, txf, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return err
	}

	return ErrContention
}

func (m *Manager) releaseCount(ctx context.Context, g getter, mark string) (int64, error) {
	n, err := g.Get(ctx, mark).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return n, err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// read decodes the entry at key. A value that cannot be decoded is treated as missing so that it
// gets rebuilt instead of blocking every write.
func (m *Manager) read(ctx context.Context, g getter, key string) ([]int, bool, error) {
	raw, err := g.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	var seats []int
	if err := json.Unmarshal(raw, &seats); err != nil {
		m.logger.Warn("discarding malformed locked seats entry", "key", key, "error", err)
		return nil, false, nil
	}

	return normalize(seats), true, nil
}

func union(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)

	return normalize(out)
}

func difference(a, remove []int) []int {
	out := make([]int, 0, len(a))
	for _, id := range a {
		if !slices.Contains(remove, id) {
			out = append(out, id)
		}
	}

	return out
}

// normalize returns a sorted, duplicate-free, non-nil copy.
func normalize(seats []int) []int {
	out := make([]int, len(seats))
	copy(out, seats)
	slices.Sort(out)

	return slices.Compact(out)
}
