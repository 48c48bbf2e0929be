package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ChairReports/internal/delivery"
	"ChairReports/internal/domain"
	"ChairReports/internal/ports"
)

// OrderSnapshot is every order loaded once for one invocation and shared by
// all items in it.
type OrderSnapshot struct {
	Orders   []domain.Order
	LoadedAt time.Time
}

// With returns a snapshot that also contains order, unless its id is already present.
func (s *OrderSnapshot) With(order domain.Order) *OrderSnapshot {
	out := &OrderSnapshot{}
	if s != nil {
		out.LoadedAt = s.LoadedAt
		out.Orders = append(out.Orders, s.Orders...)
	}
	for _, o := range out.Orders {
		if o.ID == order.ID {
			return out
		}
	}
	out.Orders = append(out.Orders, order)
	return out
}

// SnapshotLoader reads all orders. An empty id listing is retried a few
// times since the store may lag right after a write.
type SnapshotLoader struct {
	source   ports.OrderSource
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	logger   *slog.Logger
}

// NewSnapshotLoader builds a loader; attempts < 1 means a single listing.
func NewSnapshotLoader(source ports.OrderSource, attempts int, delay time.Duration, logger *slog.Logger) *SnapshotLoader {
	if attempts < 1 {
		attempts = 1
	}
	return &SnapshotLoader{
		source:   source,
		attempts: attempts,
		delay:    delay,
		sleep:    delivery.Sleep,
		now:      time.Now,
		logger:   logger,
	}
}

// WithSleep swaps the wait between empty listings.
func (l *SnapshotLoader) WithSleep(fn func(ctx context.Context, d time.Duration) error) *SnapshotLoader {
	l.sleep = fn
	return l
}

// Load lists ids and fetches every order. Unknown ids are skipped.
func (l *SnapshotLoader) Load(ctx context.Context) (*OrderSnapshot, error) {
	if l.source == nil {
		return nil, fmt.Errorf("order source is not configured")
	}

	var ids []string
	for attempt := 1; attempt <= l.attempts; attempt++ {
		var err error
		ids, err = l.source.ListOrderIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list order ids: %w", err)
		}
		if len(ids) > 0 || attempt == l.attempts {
			break
		}
		l.debug("empty order listing, retrying", "attempt", attempt, "delay", l.delay)
		if err := l.sleep(ctx, l.delay); err != nil {
			return nil, fmt.Errorf("wait for order listing: %w", err)
		}
	}

	snap := &OrderSnapshot{LoadedAt: l.now().UTC(), Orders: make([]domain.Order, 0, len(ids))}
	for _, id := range ids {
		order, err := l.source.GetOrder(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get order %s: %w", id, err)
		}
		if order == nil {
			continue
		}
		snap.Orders = append(snap.Orders, *order)
	}

	l.debug("order snapshot loaded", "ids", len(ids), "orders", len(snap.Orders))
	return snap, nil
}

func (l *SnapshotLoader) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

// lazySnapshot defers the full order scan until an item actually needs it.
type lazySnapshot struct {
	loader *SnapshotLoader
	once   sync.Once
	snap   *OrderSnapshot
	err    error
}

func (s *lazySnapshot) get(ctx context.Context) (*OrderSnapshot, error) {
	s.once.Do(func() {
		s.snap, s.err = s.loader.Load(ctx)
	})
	return s.snap, s.err
}
