package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ChairReports/internal/domain"
	"ChairReports/internal/ports"
	"ChairReports/internal/state"
)

// MarkerPolicy names the real-time delivery guarantee: the marker is written
// after the attempt whatever its outcome, so a failed send is not retried by
// webhook redelivery.
const MarkerPolicy = "at-most-one-attempt"

// SkipItemNotConfigured is recorded for order lines whose item has no catalog entry.
const SkipItemNotConfigured = "item not configured"

// DispatchResult describes one MaybeDispatch call.
type DispatchResult struct {
	OrderID string
	Skipped bool
	Reason  string
	Marker  string
	Items   []domain.RunEntry
}

// DispatchGuardDeps wires the real-time dispatch guard.
type DispatchGuardDeps struct {
	Catalog *CatalogSource
	Loader  *SnapshotLoader
	State   ports.StateStore
	Sender  ReportSender
	Logger  *slog.Logger
}

// DispatchGuard sends lifetime catalog reports when an order completes.
type DispatchGuard struct {
	catalog *CatalogSource
	loader  *SnapshotLoader
	state   ports.StateStore
	sender  ReportSender
	logger  *slog.Logger
}

// NewDispatchGuard constructs the guard.
func NewDispatchGuard(deps DispatchGuardDeps) *DispatchGuard {
	return &DispatchGuard{
		catalog: deps.Catalog,
		loader:  deps.Loader,
		state:   deps.State,
		sender:  deps.Sender,
		logger:  deps.Logger,
	}
}

type eligibleLine struct {
	category string
	itemID   string
}

// EligibleItems returns the distinct catalog items referenced by order, in line order.
func EligibleItems(order domain.Order) []string {
	seen := map[eligibleLine]struct{}{}
	var ids []string
	for _, line := range order.Lines {
		if line.Category != domain.CategoryCatalog || line.ItemID == "" {
			continue
		}
		key := eligibleLine{category: line.Category, itemID: domain.BaseID(line.ItemID)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ids = append(ids, key.itemID)
	}
	return ids
}

// MaybeDispatch sends one report per distinct catalog item in order unless a
// marker for the order already exists.
func (g *DispatchGuard) MaybeDispatch(ctx context.Context, order domain.Order) (DispatchResult, error) {
	result := DispatchResult{OrderID: order.ID}
	if order.ID == "" {
		return result, fmt.Errorf("order has no id")
	}
	if g.catalog == nil || g.state == nil || g.sender == nil {
		return result, fmt.Errorf("dispatch guard is not fully configured")
	}

	marker, found, err := g.state.DispatchMarker(ctx, order.ID)
	if err != nil {
		return result, err
	}
	if found {
		g.debug("order already dispatched", "order", order.ID, "marker", marker)
		return g.skipped(result, "already dispatched", marker), nil
	}

	items := EligibleItems(order)
	if len(items) == 0 {
		return g.skipped(result, "no real-time items", ""), nil
	}

	claimed, err := g.state.ClaimDispatch(ctx, order.ID)
	if err != nil {
		return result, err
	}
	if !claimed {
		return g.skipped(result, "claimed by another invocation", state.MarkerPending), nil
	}

	snapshot := &OrderSnapshot{}
	if g.loader != nil {
		snapshot, err = g.loader.Load(ctx)
		if err != nil {
			return g.abort(ctx, result, fmt.Errorf("load order snapshot: %w", err))
		}
	}
	snapshot = snapshot.With(order)

	sent, failed := 0, 0
	for _, itemID := range items {
		cfg, ok, err := g.catalog.Lookup(ctx, domain.KindCatalog, itemID)
		if err != nil {
			return g.abort(ctx, result, err)
		}

		entry := domain.RunEntry{ItemID: itemID, Kind: domain.KindCatalog}
		if !ok {
			entry.Decision = domain.DecisionSkipped
			entry.Skipped = true
			entry.SkipReason = SkipItemNotConfigured
			result.Items = append(result.Items, entry)
			continue
		}

		entry.ItemName = cfg.Name
		entry.Frequency = cfg.Frequency()
		outcome, err := g.sender.Send(ctx, ReportRequest{
			Item:     cfg,
			Kind:     domain.MailKindRealtime,
			Snapshot: snapshot,
		})
		entry.Recipients = outcome.Recipients
		entry.Rows = outcome.Rows
		entry.Attempt = outcome.Attempt
		if err != nil {
			failed++
			entry.Decision = domain.DecisionError
			entry.Error = err.Error()
			g.warn("real-time report failed", "order", order.ID, "item", itemID, "error", err)
		} else {
			sent++
			entry.Decision = domain.DecisionSent
			entry.OK = true
		}
		result.Items = append(result.Items, entry)
	}

	switch {
	case failed == 0:
		result.Marker = state.MarkerSent
	case sent == 0:
		result.Marker = state.MarkerFailed
	default:
		result.Marker = state.MarkerPartial
	}
	if err := g.state.SetDispatchMarker(ctx, order.ID, result.Marker); err != nil {
		return result, err
	}

	g.debug("order dispatched", "order", order.ID, "marker", result.Marker, "sent", sent, "failed", failed, "policy", MarkerPolicy)
	return result, nil
}

func (g *DispatchGuard) skipped(result DispatchResult, reason, marker string) DispatchResult {
	result.Skipped = true
	result.Reason = reason
	result.Marker = marker
	return result
}

// abort finalizes a claimed order as failed and returns cause.
func (g *DispatchGuard) abort(ctx context.Context, result DispatchResult, cause error) (DispatchResult, error) {
	result.Marker = state.MarkerFailed
	if err := g.state.SetDispatchMarker(ctx, result.OrderID, state.MarkerFailed); err != nil {
		g.warn("write failed marker", "order", result.OrderID, "error", err)
	}
	return result, cause
}

func (g *DispatchGuard) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

func (g *DispatchGuard) warn(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
