package domain

import (
	"strings"
	"time"
)

// ItemKind groups catalog entries by how they are sold and reported.
type ItemKind string

const (
	KindBanquet ItemKind = "banquet"
	KindAddon   ItemKind = "addon"
	KindCatalog ItemKind = "catalog"
)

// EnumerationOrder is the order in which the scheduler visits item kinds.
var EnumerationOrder = []ItemKind{KindBanquet, KindAddon, KindCatalog}

// Frequency is the recurring report cadence configured per item.
type Frequency string

const (
	FrequencyNone     Frequency = "none"
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// NormalizeFrequency maps free-form config values onto a known Frequency.
// Anything unrecognized (including the empty string) becomes monthly.
func NormalizeFrequency(raw string) Frequency {
	switch Frequency(strings.ToLower(strings.TrimSpace(raw))) {
	case FrequencyNone:
		return FrequencyNone
	case FrequencyDaily:
		return FrequencyDaily
	case FrequencyWeekly:
		return FrequencyWeekly
	case FrequencyBiweekly:
		return FrequencyBiweekly
	default:
		return FrequencyMonthly
	}
}

// ItemConfig is the admin-managed configuration of one catalog entry.
type ItemConfig struct {
	ID              string
	Name            string
	Kind            ItemKind
	Layout          string
	ChairEmails     []string
	PublishStart    *time.Time
	PublishEnd      *time.Time
	ReportFrequency string
}

// Frequency returns the normalized report cadence.
func (c ItemConfig) Frequency() Frequency {
	return NormalizeFrequency(c.ReportFrequency)
}

// Recipients returns the trimmed, non-empty chair addresses in configured order.
func (c ItemConfig) Recipients() []string {
	out := make([]string, 0, len(c.ChairEmails))
	for _, addr := range c.ChairEmails {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// BaseID returns the portion of an item identifier before any ":variant" suffix.
func BaseID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}
