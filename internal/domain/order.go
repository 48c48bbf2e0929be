package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Line categories as written by checkout. They match ItemKind values.
const (
	CategoryBanquet = string(KindBanquet)
	CategoryAddon   = string(KindAddon)
	CategoryCatalog = string(KindCatalog)
)

var orderDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Order is a completed purchase as persisted by checkout.
type Order struct {
	ID        string    `json:"id"`
	Created   string    `json:"created"`
	Status    string    `json:"status"`
	Purchaser Purchaser `json:"purchaser"`
	Lines     []Line    `json:"lines"`
}

// CreatedAt parses the stored creation timestamp.
func (o Order) CreatedAt() (time.Time, bool) {
	raw := strings.TrimSpace(o.Created)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Purchaser identifies who paid for the order.
type Purchaser struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

// Address is a postal address; every field is optional.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Line is a single purchased item within an order.
type Line struct {
	ItemID    string          `json:"itemId"`
	ItemName  string          `json:"itemName"`
	Category  string          `json:"category"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Meta      LineMeta        `json:"meta"`
}

// Total is qty × unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// LineMeta carries attendee and free-text fields captured at checkout.
type LineMeta struct {
	AttendeeName  string   `json:"attendeeName"`
	AttendeeEmail string   `json:"attendeeEmail"`
	AttendeePhone string   `json:"attendeePhone"`
	AttendeeNotes string   `json:"attendeeNotes"`
	DietaryNote   string   `json:"dietaryNote"`
	ItemNote      string   `json:"itemNote"`
	Address       *Address `json:"address,omitempty"`
}
