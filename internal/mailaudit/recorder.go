// Package mailaudit keeps a short-lived record of the last outbound email.
package mailaudit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ChairReports/internal/domain"
	"ChairReports/internal/ports"
)

const (
	// LastMailKey holds the most recent audit entry.
	LastMailKey = "mail:last"
	// LastMailTTL bounds how long the entry survives.
	LastMailTTL = time.Hour

	counterPrefix = "mail:count:"
	counterTTL    = 48 * time.Hour
)

// Recorder writes audit entries to the KV store. Every failure is swallowed.
type Recorder struct {
	kv     ports.KV
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.MailRecorder = (*Recorder)(nil)

// NewRecorder wires the KV store; a nil store makes Record a no-op.
func NewRecorder(kv ports.KV, logger *slog.Logger) *Recorder {
	return &Recorder{kv: kv, logger: logger, now: time.Now}
}

// Record stores entry under LastMailKey and bumps the daily send counter.
func (r *Recorder) Record(ctx context.Context, entry domain.MailAudit) {
	if r == nil || r.kv == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		r.debug("marshal mail audit", "error", err)
		return
	}
	if err := r.kv.Set(ctx, LastMailKey, string(raw), LastMailTTL); err != nil {
		r.debug("write mail audit", "error", err)
		return
	}

	key := CounterKey(entry.Timestamp)
	if _, err := r.kv.Incr(ctx, key); err != nil {
		r.debug("increment mail counter", "key", key, "error", err)
		return
	}
	if err := r.kv.Expire(ctx, key, counterTTL); err != nil {
		r.debug("expire mail counter", "key", key, "error", err)
	}
}

// Last returns the most recent audit entry, if one is still live.
func Last(ctx context.Context, kv ports.KV) (domain.MailAudit, bool, error) {
	raw, found, err := kv.Get(ctx, LastMailKey)
	if err != nil || !found {
		return domain.MailAudit{}, false, err
	}
	var entry domain.MailAudit
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return domain.MailAudit{}, false, err
	}
	return entry, true, nil
}

// CounterKey names the per-day send counter for t.
func CounterKey(t time.Time) string {
	return counterPrefix + t.UTC().Format("2006-01-02")
}

func (r *Recorder) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
