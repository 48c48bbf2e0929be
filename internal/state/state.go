// Package state stores the scheduler's last-sent periods and the real-time
// dispatch markers on top of the KV port.
//
// Both are check-then-act without locking. Overlapping invocations can both
// pass the check before either writes, which yields a duplicate send; the
// guard narrows that window with ClaimDispatch where the store supports a
// conditional put.
package state

import (
	"context"
	"fmt"

	"ChairReports/internal/domain"
	"ChairReports/internal/ports"
)

const (
	periodPrefix = "report:last:"
	markerPrefix = "report:rt:"

	// MarkerPending is written by ClaimDispatch before the attempt.
	MarkerPending = "pending"
	// Final marker values written after the attempt.
	MarkerSent    = "sent"
	MarkerPartial = "partial"
	MarkerFailed  = "failed"
)

// Store implements ports.StateStore over a KV.
type Store struct {
	kv ports.KV
}

var _ ports.StateStore = (*Store)(nil)

// NewStore wraps kv.
func NewStore(kv ports.KV) *Store {
	return &Store{kv: kv}
}

// PeriodKey names the lastPeriodId slot for an item and frequency.
func PeriodKey(itemID string, freq domain.Frequency) string {
	return fmt.Sprintf("%s%s:%s", periodPrefix, itemID, freq)
}

// MarkerKey names the dispatch marker slot for an order.
func MarkerKey(orderID string) string {
	return markerPrefix + orderID
}

// PeriodState returns the last period id sent, or "" when nothing was sent yet.
func (s *Store) PeriodState(ctx context.Context, itemID string, freq domain.Frequency) (string, error) {
	v, _, err := s.kv.Get(ctx, PeriodKey(itemID, freq))
	if err != nil {
		return "", fmt.Errorf("get period state %s: %w", itemID, err)
	}
	return v, nil
}

// SetPeriodState records a successful send for periodID. The slot never expires.
func (s *Store) SetPeriodState(ctx context.Context, itemID string, freq domain.Frequency, periodID string) error {
	if err := s.kv.Set(ctx, PeriodKey(itemID, freq), periodID, 0); err != nil {
		return fmt.Errorf("set period state %s: %w", itemID, err)
	}
	return nil
}

// DispatchMarker returns the marker value for orderID, if present.
func (s *Store) DispatchMarker(ctx context.Context, orderID string) (string, bool, error) {
	v, found, err := s.kv.Get(ctx, MarkerKey(orderID))
	if err != nil {
		return "", false, fmt.Errorf("get dispatch marker %s: %w", orderID, err)
	}
	return v, found, nil
}

// ClaimDispatch writes a pending marker only if none exists. false means another
// invocation already holds or finished the order.
func (s *Store) ClaimDispatch(ctx context.Context, orderID string) (bool, error) {
	ok, err := s.kv.SetNX(ctx, MarkerKey(orderID), MarkerPending, 0)
	if err != nil {
		return false, fmt.Errorf("claim dispatch %s: %w", orderID, err)
	}
	return ok, nil
}

// SetDispatchMarker overwrites the marker with the final outcome.
func (s *Store) SetDispatchMarker(ctx context.Context, orderID, value string) error {
	if err := s.kv.Set(ctx, MarkerKey(orderID), value, 0); err != nil {
		return fmt.Errorf("set dispatch marker %s: %w", orderID, err)
	}
	return nil
}
