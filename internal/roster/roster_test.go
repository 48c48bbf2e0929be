package roster

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChairReports/internal/domain"
)

func banquetLine(itemID, attendee string) domain.Line {
	return domain.Line{
		ItemID:    itemID,
		ItemName:  "Awards Banquet",
		Category:  domain.CategoryBanquet,
		Qty:       1,
		UnitPrice: decimal.RequireFromString("55.00"),
		Meta:      domain.LineMeta{AttendeeName: attendee},
	}
}

func order(id, created string, lines ...domain.Line) domain.Order {
	return domain.Order{
		ID:        id,
		Created:   created,
		Purchaser: domain.Purchaser{Name: "Pat Buyer", Email: "pat@example.org"},
		Lines:     lines,
	}
}

func TestWindowFilteringIsHalfOpen(t *testing.T) {
	t.Parallel()

	orders := []domain.Order{
		order("o1", "2025-03-01T00:00:00Z", banquetLine("gala", "A")),
		order("o2", "2025-03-15T00:00:00Z", banquetLine("gala", "B")),
		order("o3", "2025-04-01T00:00:00Z", banquetLine("gala", "C")),
	}
	w := domain.Window{
		Start: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	}

	rows := Build(orders, Query{ItemID: "gala", Category: domain.CategoryBanquet, Window: &w})
	require.Len(t, rows, 2)
	assert.Equal(t, "o1", rows[0].OrderID)
	assert.Equal(t, "o2", rows[1].OrderID)
}

func TestMatchesBaseIDAndCategory(t *testing.T) {
	t.Parallel()

	addon := domain.Line{ItemID: "gala", Category: domain.CategoryAddon, Qty: 1}
	orders := []domain.Order{
		order("o1", "2025-03-01T10:00:00Z",
			banquetLine("gala:vegetarian", "Veg Guest"),
			banquetLine("gala:standard", "Std Guest"),
			banquetLine("luncheon", "Other Event"),
			addon,
		),
	}

	rows := Build(orders, Query{ItemID: "gala:standard", Category: domain.CategoryBanquet})
	require.Len(t, rows, 2)
	assert.Equal(t, "Veg Guest", rows[0].Attendee)
	assert.Equal(t, "Std Guest", rows[1].Attendee)
}

func TestNameFallbackOnlyWithoutID(t *testing.T) {
	t.Parallel()

	noID := domain.Line{ItemName: "Club Polo Shirt (L)", Category: domain.CategoryCatalog, Qty: 2}
	withOtherID := domain.Line{ItemID: "mug", ItemName: "Polo Shirt mug", Category: domain.CategoryCatalog, Qty: 1}

	rows := Build([]domain.Order{order("o1", "2025-03-01T10:00:00Z", noID, withOtherID)},
		Query{ItemID: "polo", ItemName: "Polo Shirt", Category: domain.CategoryCatalog})
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Qty)
}

func TestSortAndCounter(t *testing.T) {
	t.Parallel()

	orders := []domain.Order{
		order("late", "2025-03-10T09:00:00Z", banquetLine("gala", "Late Guest")),
		order("bad", "not a date", banquetLine("gala", "Epoch Guest")),
		order("admin", "2025-03-05T09:00:00Z", banquetLine("gala", "")),
		order("early", "2025-03-02T09:00:00Z", banquetLine("gala", "Early Guest")),
	}

	rows := Build(orders, Query{ItemID: "gala", Category: domain.CategoryBanquet})
	require.Len(t, rows, 4)

	ids := []string{rows[0].OrderID, rows[1].OrderID, rows[2].OrderID, rows[3].OrderID}
	assert.Equal(t, []string{"bad", "early", "admin", "late"}, ids)
	assert.Equal(t, time.Unix(0, 0).UTC(), rows[0].OrderDate)

	assert.Equal(t, 1, rows[0].Counter)
	assert.Equal(t, 2, rows[1].Counter)
	assert.Equal(t, 0, rows[2].Counter)
	assert.Equal(t, 3, rows[3].Counter)

	_, hasCounter := rows[2].Values()["counter"]
	assert.False(t, hasCounter)
}

func TestUnparsableDateKeptInWindow(t *testing.T) {
	t.Parallel()

	orders := []domain.Order{
		order("march", "2025-03-04T09:00:00Z", banquetLine("gala", "March Guest")),
		order("bad", "not-a-date", banquetLine("gala", "Epoch Guest")),
		order("feb", "2025-02-10T09:00:00Z", banquetLine("gala", "February Guest")),
	}
	month := domain.Window{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	rows := Build(orders, Query{ItemID: "gala", Category: domain.CategoryBanquet, Window: &month})
	require.Len(t, rows, 2)
	assert.Equal(t, "bad", rows[0].OrderID)
	assert.Equal(t, time.Unix(0, 0).UTC(), rows[0].OrderDate)
	assert.Equal(t, "march", rows[1].OrderID)

	sinceZero := domain.Window{End: month.End}
	rows = Build(orders[1:2], Query{ItemID: "gala", Category: domain.CategoryBanquet, Window: &sinceZero})
	require.Len(t, rows, 1)
	assert.Equal(t, "bad", rows[0].OrderID)
}

func TestNotes(t *testing.T) {
	t.Parallel()

	b := banquetLine("gala", "Guest")
	b.Meta.AttendeeNotes = "table near stage"
	b.Meta.DietaryNote = "gluten free"
	b.Meta.ItemNote = "ignored for banquets"

	c := domain.Line{ItemID: "polo", Category: domain.CategoryCatalog, Qty: 1, Meta: domain.LineMeta{ItemNote: "size L"}}

	rows := Build([]domain.Order{order("o1", "2025-03-01", b)}, Query{ItemID: "gala", Category: domain.CategoryBanquet})
	require.Len(t, rows, 1)
	assert.Equal(t, "table near stage; Dietary: gluten free", rows[0].Notes)

	rows = Build([]domain.Order{order("o2", "2025-03-01", c)}, Query{ItemID: "polo", Category: domain.CategoryCatalog})
	require.Len(t, rows, 1)
	assert.Equal(t, "size L", rows[0].Notes)
}

func TestAddressOnlyWhenRequested(t *testing.T) {
	t.Parallel()

	o := order("o1", "2025-03-01T00:00:00Z", domain.Line{ItemID: "prereg", Category: domain.CategoryCatalog, Qty: 1})
	o.Purchaser.Address = domain.Address{Line1: "1 Main St", City: "Springfield"}

	rows := Build([]domain.Order{o}, Query{ItemID: "prereg", Category: domain.CategoryCatalog})
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Address)

	rows = Build([]domain.Order{o}, Query{ItemID: "prereg", Category: domain.CategoryCatalog, IncludeAddress: true})
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Address)
	assert.Equal(t, "Springfield", rows[0].Values()["city"])
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	rows := Build([]domain.Order{
		order("o1", "2025-03-01", banquetLine("gala", "A"), banquetLine("gala", "")),
	}, Query{ItemID: "gala", Category: domain.CategoryBanquet})

	s := Summarize(rows)
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, 1, s.Attendees)
	assert.Equal(t, 2, s.Quantity)
	assert.Equal(t, "110.00", s.Total)

	assert.Equal(t, "0.00", Summarize(nil).Total)
}
