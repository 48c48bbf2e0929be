package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Period is one calendar period instance for a frequency.
type Period struct {
	ID        string
	Frequency Frequency
	Window    Window
}

// RosterRow is one line of a chair report.
type RosterRow struct {
	Counter        int
	OrderID        string
	OrderDate      time.Time
	Purchaser      string
	PurchaserEmail string
	PurchaserPhone string
	Attendee       string
	AttendeeEmail  string
	Item           string
	Qty            int
	UnitPrice      decimal.Decimal
	Total          decimal.Decimal
	Notes          string
	Address        *Address
}

// Values projects the row into column-keyed cells. Counter is blank when zero.
func (r RosterRow) Values() map[string]any {
	v := map[string]any{
		"order_id":        r.OrderID,
		"order_date":      r.OrderDate,
		"purchaser":       r.Purchaser,
		"purchaser_email": r.PurchaserEmail,
		"purchaser_phone": r.PurchaserPhone,
		"attendee":        r.Attendee,
		"attendee_email":  r.AttendeeEmail,
		"item":            r.Item,
		"qty":             r.Qty,
		"unit_price":      r.UnitPrice,
		"total":           r.Total,
		"notes":           r.Notes,
	}
	if r.Counter > 0 {
		v["counter"] = r.Counter
	}
	if r.Address != nil {
		v["address_line1"] = r.Address.Line1
		v["address_line2"] = r.Address.Line2
		v["city"] = r.Address.City
		v["state"] = r.Address.State
		v["postal_code"] = r.Address.PostalCode
		v["country"] = r.Address.Country
	}
	return v
}

// Decision is the scheduler's verdict for one item in one run.
type Decision string

const (
	DecisionSent    Decision = "sent"
	DecisionSkipped Decision = "skipped"
	DecisionError   Decision = "error"
)

// Skip reasons recorded in run entries.
const (
	SkipBeforePublishStart = "before publish start"
	SkipAfterPublishEnd    = "after publish end"
	SkipFrequencyNone      = "report frequency is none"
	SkipNoPeriod           = "no period id for frequency"
	SkipAlreadySent        = "already sent for this period"
)

// RunEntry records what happened to a single item.
type RunEntry struct {
	ItemID     string    `json:"itemId"`
	ItemName   string    `json:"itemName"`
	Kind       ItemKind  `json:"kind"`
	Frequency  Frequency `json:"frequency"`
	PeriodID   string    `json:"periodId,omitempty"`
	Decision   Decision  `json:"decision"`
	OK         bool      `json:"ok"`
	Skipped    bool      `json:"skipped"`
	SkipReason string    `json:"skipReason,omitempty"`
	Recipients int       `json:"recipients"`
	Rows       int       `json:"rows"`
	Attempt    int       `json:"attempt,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// ReportRun summarizes one invocation of the scheduling engine.
type ReportRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
	Sent       int        `json:"sent"`
	Skipped    int        `json:"skipped"`
	Errors     int        `json:"errors"`
	Entries    []RunEntry `json:"entries"`
}

// Add appends an entry and updates the counters.
func (r *ReportRun) Add(e RunEntry) {
	switch e.Decision {
	case DecisionSent:
		r.Sent++
	case DecisionSkipped:
		r.Skipped++
	case DecisionError:
		r.Errors++
	}
	r.Entries = append(r.Entries, e)
}
