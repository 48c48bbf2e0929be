// Package roster flattens orders into the per-item rows that chairs receive.
package roster

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ChairReports/internal/domain"
)

// Query selects which order lines belong to a roster.
type Query struct {
	ItemID         string
	ItemName       string
	Category       string
	Window         *domain.Window
	IncludeAddress bool
}

// Build returns the matching rows sorted by order date. Orders whose date can
// not be parsed sort at the Unix epoch and are never filtered by the window.
func Build(orders []domain.Order, q Query) []domain.RosterRow {
	base := domain.BaseID(q.ItemID)
	name := strings.ToLower(strings.TrimSpace(q.ItemName))

	var rows []domain.RosterRow
	for _, order := range orders {
		created, ok := order.CreatedAt()
		if !ok {
			created = time.Unix(0, 0).UTC()
		}
		if ok && q.Window != nil && !q.Window.Contains(created) {
			continue
		}

		for _, line := range order.Lines {
			if line.Category != q.Category || !matches(line, base, name) {
				continue
			}
			rows = append(rows, toRow(order, line, created, q))
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].OrderDate.Before(rows[j].OrderDate)
	})

	counter := 0
	for i := range rows {
		if rows[i].Attendee != "" {
			counter++
			rows[i].Counter = counter
		}
	}
	return rows
}

func matches(line domain.Line, base, name string) bool {
	if line.ItemID != "" {
		return base != "" && domain.BaseID(line.ItemID) == base
	}
	return name != "" && strings.Contains(strings.ToLower(line.ItemName), name)
}

func toRow(order domain.Order, line domain.Line, created time.Time, q Query) domain.RosterRow {
	row := domain.RosterRow{
		OrderID:        order.ID,
		OrderDate:      created,
		Purchaser:      strings.TrimSpace(order.Purchaser.Name),
		PurchaserEmail: strings.TrimSpace(order.Purchaser.Email),
		PurchaserPhone: strings.TrimSpace(order.Purchaser.Phone),
		Attendee:       strings.TrimSpace(line.Meta.AttendeeName),
		AttendeeEmail:  strings.TrimSpace(line.Meta.AttendeeEmail),
		Item:           line.ItemName,
		Qty:            line.Qty,
		UnitPrice:      line.UnitPrice,
		Total:          line.Total(),
		Notes:          notes(line),
	}

	if q.IncludeAddress {
		addr := order.Purchaser.Address
		if line.Meta.Address != nil {
			addr = *line.Meta.Address
		}
		row.Address = &addr
	}
	return row
}

func notes(line domain.Line) string {
	if line.Category != domain.CategoryBanquet {
		return strings.TrimSpace(line.Meta.ItemNote)
	}
	parts := make([]string, 0, 2)
	if v := strings.TrimSpace(line.Meta.AttendeeNotes); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(line.Meta.DietaryNote); v != "" {
		parts = append(parts, "Dietary: "+v)
	}
	return strings.Join(parts, "; ")
}

// Summary aggregates a roster for the email body.
type Summary struct {
	Rows      int
	Attendees int
	Quantity  int
	Total     string
}

// Summarize counts rows, attendees and quantity and sums the totals.
func Summarize(rows []domain.RosterRow) Summary {
	s := Summary{Rows: len(rows)}
	total := decimal.Zero
	for _, r := range rows {
		if r.Attendee != "" {
			s.Attendees++
		}
		s.Quantity += r.Qty
		total = total.Add(r.Total)
	}
	s.Total = total.StringFixed(2)
	return s
}
