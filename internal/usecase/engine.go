package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ChairReports/internal/domain"
	"ChairReports/internal/period"
	"ChairReports/internal/ports"
)

// EngineDeps wires the scheduling decision engine.
type EngineDeps struct {
	Catalog     *CatalogSource
	Loader      *SnapshotLoader
	State       ports.StateStore
	Sender      ReportSender
	Concurrency int
	Logger      *slog.Logger
}

// Engine decides, per item, whether a recurring report is due and sends it.
type Engine struct {
	catalog     *CatalogSource
	loader      *SnapshotLoader
	state       ports.StateStore
	sender      ReportSender
	concurrency int
	logger      *slog.Logger
	clock       func() time.Time
}

// NewEngine constructs the engine. Concurrency below 1 evaluates items one by one.
func NewEngine(deps EngineDeps) *Engine {
	concurrency := deps.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		catalog:     deps.Catalog,
		loader:      deps.Loader,
		state:       deps.State,
		sender:      deps.Sender,
		concurrency: concurrency,
		logger:      deps.Logger,
		clock:       time.Now,
	}
}

// Run evaluates every configured item at now. Per-item failures are recorded
// in the returned run; only failures to list items or orders are returned.
func (e *Engine) Run(ctx context.Context, now time.Time) (domain.ReportRun, error) {
	run := domain.ReportRun{ID: uuid.NewString(), StartedAt: now.UTC()}

	if e.catalog == nil || e.state == nil || e.sender == nil {
		return run, fmt.Errorf("engine is not fully configured")
	}

	items, err := e.catalog.Items(ctx)
	if err != nil {
		return run, fmt.Errorf("enumerate items: %w", err)
	}

	snap := &lazySnapshot{loader: e.loader}
	entries := make([]domain.RunEntry, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			entry, err := e.evaluate(gctx, item, now, snap)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return run, err
	}

	for _, entry := range entries {
		run.Add(entry)
	}
	run.FinishedAt = e.clock().UTC()

	e.info("report run finished", "run", run.ID, "sent", run.Sent, "skipped", run.Skipped, "errors", run.Errors)
	return run, nil
}

func (e *Engine) evaluate(ctx context.Context, item domain.ItemConfig, now time.Time, snap *lazySnapshot) (domain.RunEntry, error) {
	freq := item.Frequency()
	entry := domain.RunEntry{
		ItemID:     item.ID,
		ItemName:   item.Name,
		Kind:       item.Kind,
		Frequency:  freq,
		Recipients: len(item.Recipients()),
	}

	p, ok := period.Compute(freq, now)
	if ok {
		entry.PeriodID = p.ID
	}

	switch {
	case item.PublishStart != nil && now.Before(*item.PublishStart):
		return e.skip(entry, domain.SkipBeforePublishStart), nil
	case item.PublishEnd != nil && now.After(*item.PublishEnd):
		return e.skip(entry, domain.SkipAfterPublishEnd), nil
	case freq == domain.FrequencyNone:
		return e.skip(entry, domain.SkipFrequencyNone), nil
	case !ok || p.ID == "":
		return e.skip(entry, domain.SkipNoPeriod), nil
	}

	last, err := e.state.PeriodState(ctx, item.ID, freq)
	if err != nil {
		return e.fail(entry, err), nil
	}
	if last == p.ID {
		return e.skip(entry, domain.SkipAlreadySent), nil
	}

	var snapshot *OrderSnapshot
	if snap.loader != nil {
		snapshot, err = snap.get(ctx)
		if err != nil {
			return entry, fmt.Errorf("load order snapshot: %w", err)
		}
	}

	// period start through now, inclusive of now
	window := domain.Window{Start: p.Window.Start, End: now.UTC().Add(time.Nanosecond)}
	outcome, err := e.sender.Send(ctx, ReportRequest{
		Item:     item,
		Window:   &window,
		PeriodID: p.ID,
		Kind:     domain.MailKindScheduled,
		Snapshot: snapshot,
	})
	entry.Rows = outcome.Rows
	entry.Attempt = outcome.Attempt
	if err != nil {
		return e.fail(entry, err), nil
	}

	entry.Decision = domain.DecisionSent
	entry.OK = true
	if err := e.state.SetPeriodState(ctx, item.ID, freq, p.ID); err != nil {
		entry.Error = err.Error()
		e.warn("report sent but period state not saved", "item", item.ID, "period", p.ID, "error", err)
	}
	e.info("item evaluated", "item", item.ID, "period", p.ID, "decision", entry.Decision, "rows", entry.Rows, "attempt", entry.Attempt)
	return entry, nil
}

func (e *Engine) skip(entry domain.RunEntry, reason string) domain.RunEntry {
	entry.Decision = domain.DecisionSkipped
	entry.Skipped = true
	entry.SkipReason = reason
	e.info("item evaluated", "item", entry.ItemID, "period", entry.PeriodID, "decision", entry.Decision, "reason", reason)
	return entry
}

func (e *Engine) fail(entry domain.RunEntry, err error) domain.RunEntry {
	entry.Decision = domain.DecisionError
	entry.Error = err.Error()
	e.warn("item failed", "item", entry.ItemID, "period", entry.PeriodID, "error", err)
	return entry
}

func (e *Engine) info(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
