package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChairReports/internal/domain"
)

func gala(freq string) domain.ItemConfig {
	return domain.ItemConfig{
		ID:              "gala",
		Name:            "Awards Gala",
		ChairEmails:     []string{"chair@example.org"},
		ReportFrequency: freq,
	}
}

func banquetOrder(id, created string) domain.Order {
	return domain.Order{
		ID:        id,
		Created:   created,
		Purchaser: domain.Purchaser{Name: "Pat Buyer", Email: "pat@example.org"},
		Lines: []domain.Line{{
			ItemID:   "gala",
			ItemName: "Awards Gala",
			Category: domain.CategoryBanquet,
			Qty:      1,
			Meta:     domain.LineMeta{AttendeeName: "Pat Buyer"},
		}},
	}
}

func TestEngineMonthlyIdempotency(t *testing.T) {
	f := newFixture(
		map[domain.ItemKind][]domain.ItemConfig{domain.KindBanquet: {gala("monthly")}},
		banquetOrder("o1", "2025-03-02T10:00:00Z"),
	)
	engine := f.engine()
	ctx := context.Background()

	first, err := engine.Run(ctx, at("2025-03-05T09:00:00Z"))
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)
	assert.Equal(t, domain.DecisionSent, first.Entries[0].Decision)
	assert.Equal(t, "2025-03", first.Entries[0].PeriodID)
	assert.Equal(t, 1, first.Sent)

	second, err := engine.Run(ctx, at("2025-03-20T09:00:00Z"))
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.True(t, second.Entries[0].Skipped)
	assert.Equal(t, "already sent for this period", second.Entries[0].SkipReason)

	third, err := engine.Run(ctx, at("2025-04-01T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionSent, third.Entries[0].Decision)
	assert.Equal(t, "2025-04", third.Entries[0].PeriodID)

	assert.Equal(t, 2, f.mailer.callCount())
	last, err := f.store.PeriodState(ctx, "gala", domain.FrequencyMonthly)
	require.NoError(t, err)
	assert.Equal(t, "2025-04", last)
}

func TestEngineSkipReasons(t *testing.T) {
	now := at("2025-03-05T09:00:00Z")

	early := gala("monthly")
	early.ID = "early"
	early.PublishStart = ptr(at("2025-04-01T00:00:00Z"))

	late := gala("monthly")
	late.ID = "late"
	late.PublishEnd = ptr(at("2025-03-01T00:00:00Z"))

	never := gala("none")
	never.ID = "never"

	f := newFixture(map[domain.ItemKind][]domain.ItemConfig{
		domain.KindBanquet: {early, late, never},
	})

	run, err := f.engine().Run(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, run.Entries, 3)

	assert.Equal(t, domain.SkipBeforePublishStart, run.Entries[0].SkipReason)
	assert.Equal(t, domain.SkipAfterPublishEnd, run.Entries[1].SkipReason)
	assert.Equal(t, domain.SkipFrequencyNone, run.Entries[2].SkipReason)
	assert.Equal(t, 3, run.Skipped)
	assert.Zero(t, f.mailer.callCount())
	assert.Zero(t, f.orders.listCalls, "orders must not be loaded when nothing is due")
}

func TestEngineGarbageFrequencySendsMonthly(t *testing.T) {
	f := newFixture(map[domain.ItemKind][]domain.ItemConfig{domain.KindBanquet: {gala("fortnightly-ish")}})

	run, err := f.engine().Run(context.Background(), at("2025-03-05T09:00:00Z"))
	require.NoError(t, err)
	require.Len(t, run.Entries, 1)
	assert.Equal(t, domain.FrequencyMonthly, run.Entries[0].Frequency)
	assert.Equal(t, "2025-03", run.Entries[0].PeriodID)
	assert.Equal(t, domain.DecisionSent, run.Entries[0].Decision)
}

func TestEngineFailureDoesNotAdvanceState(t *testing.T) {
	broken := gala("monthly")
	broken.ID = "broken"
	broken.Name = "Broken"

	f := newFixture(map[domain.ItemKind][]domain.ItemConfig{domain.KindBanquet: {broken, gala("monthly")}})
	f.mailer.fail = func(email domain.Email) bool { return email.Subject == "[Convention] Broken report: 2025-03" }
	ctx := context.Background()

	run, err := f.engine().Run(ctx, at("2025-03-05T09:00:00Z"))
	require.NoError(t, err)
	require.Len(t, run.Entries, 2)

	assert.Equal(t, domain.DecisionError, run.Entries[0].Decision)
	assert.Equal(t, 3, run.Entries[0].Attempt)
	assert.Contains(t, run.Entries[0].Error, "provider unavailable")
	assert.Equal(t, domain.DecisionSent, run.Entries[1].Decision)
	assert.Equal(t, 1, run.Errors)
	assert.Equal(t, 1, run.Sent)

	last, err := f.store.PeriodState(ctx, "broken", domain.FrequencyMonthly)
	require.NoError(t, err)
	assert.Empty(t, last)

	f.mailer.fail = nil
	retry, err := f.engine().Run(ctx, at("2025-03-06T09:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionSent, retry.Entries[0].Decision)
	assert.True(t, retry.Entries[1].Skipped)
}

func TestEngineMissingRecipientsIsPerItem(t *testing.T) {
	orphan := gala("monthly")
	orphan.ID = "orphan"
	orphan.ChairEmails = []string{" "}

	f := newFixture(map[domain.ItemKind][]domain.ItemConfig{domain.KindBanquet: {orphan, gala("monthly")}})

	run, err := f.engine().Run(context.Background(), at("2025-03-05T09:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, ErrNoRecipients.Error(), run.Entries[0].Error)
	assert.Equal(t, domain.DecisionSent, run.Entries[1].Decision)
}

func TestEngineCatastrophicFailures(t *testing.T) {
	ctx := context.Background()
	now := at("2025-03-05T09:00:00Z")

	f := newFixture(map[domain.ItemKind][]domain.ItemConfig{domain.KindBanquet: {gala("monthly")}})
	f.orders.listErr = errors.New("connection refused")
	_, err := f.engine().Run(ctx, now)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")

	g := newFixture(nil)
	g.catalog.err = errors.New("catalog offline")
	_, err = g.engine().Run(ctx, now)
	require.Error(t, err)
	assert.ErrorContains(t, err, "catalog offline")
}

func TestEngineEnumerationOrderAndDuplicates(t *testing.T) {
	shared := gala("none")
	shared.ID = "shared"

	addon := gala("none")
	addon.ID = "parking"

	product := gala("none")
	product.ID = "tshirt"

	f := newFixture(map[domain.ItemKind][]domain.ItemConfig{
		domain.KindCatalog: {product, shared},
		domain.KindAddon:   {addon},
		domain.KindBanquet: {shared},
	})

	run, err := f.engine().Run(context.Background(), at("2025-03-05T09:00:00Z"))
	require.NoError(t, err)

	var ids []string
	for _, e := range run.Entries {
		ids = append(ids, e.ItemID)
	}
	assert.Equal(t, []string{"shared", "parking", "tshirt"}, ids)
	assert.Equal(t, domain.KindBanquet, run.Entries[0].Kind)
}

func TestEngineConcurrentKeepsOrder(t *testing.T) {
	var items []domain.ItemConfig
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		item := gala("daily")
		item.ID = id
		items = append(items, item)
	}
	f := newFixture(
		map[domain.ItemKind][]domain.ItemConfig{domain.KindBanquet: items},
		banquetOrder("o1", "2025-03-05T08:00:00Z"),
	)
	engine := NewEngine(EngineDeps{
		Catalog:     NewCatalogSource(f.catalog, nil),
		Loader:      f.loader,
		State:       f.store,
		Sender:      f.reporter,
		Concurrency: 3,
	})

	run, err := engine.Run(context.Background(), at("2025-03-05T09:00:00Z"))
	require.NoError(t, err)
	require.Len(t, run.Entries, 5)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, id, run.Entries[i].ItemID)
		assert.Equal(t, "2025-03-05", run.Entries[i].PeriodID)
	}
	assert.Equal(t, 5, run.Sent)
	assert.Equal(t, 1, f.orders.listCalls)
}

func TestEngineScopesRosterToCurrentPeriod(t *testing.T) {
	f := newFixture(
		map[domain.ItemKind][]domain.ItemConfig{domain.KindBanquet: {gala("monthly")}},
		banquetOrder("feb", "2025-02-20T10:00:00Z"),
		banquetOrder("mar", "2025-03-02T10:00:00Z"),
		banquetOrder("now", "2025-03-05T09:00:00Z"),
		banquetOrder("later", "2025-03-06T10:00:00Z"),
	)

	run, err := f.engine().Run(context.Background(), at("2025-03-05T09:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 2, run.Entries[0].Rows)
}

func TestEngineKeepsUndatedOrdersInPeriod(t *testing.T) {
	f := newFixture(
		map[domain.ItemKind][]domain.ItemConfig{domain.KindBanquet: {gala("monthly")}},
		banquetOrder("feb", "2025-02-20T10:00:00Z"),
		banquetOrder("undated", "sometime in march"),
		banquetOrder("mar", "2025-03-02T10:00:00Z"),
	)

	run, err := f.engine().Run(context.Background(), at("2025-03-05T09:00:00Z"))
	require.NoError(t, err)
	require.Len(t, run.Entries, 1)
	assert.Equal(t, domain.DecisionSent, run.Entries[0].Decision)
	assert.Equal(t, 2, run.Entries[0].Rows)
}
