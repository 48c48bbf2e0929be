package ports

import (
	"context"
	"time"

	"ChairReports/internal/domain"
)

// OrderSource reads persisted orders. GetOrder returns nil, nil when the id is unknown.
type OrderSource interface {
	ListOrderIDs(ctx context.Context) ([]string, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

// CatalogStore exposes the admin-managed item configuration.
type CatalogStore interface {
	ItemConfigs(ctx context.Context, kind domain.ItemKind) ([]domain.ItemConfig, error)
}

// KV is a durable map with TTLs. Get reports found=false for missing keys.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// StateStore persists the scheduler and dispatch-guard idempotency trail.
type StateStore interface {
	PeriodState(ctx context.Context, itemID string, freq domain.Frequency) (string, error)
	SetPeriodState(ctx context.Context, itemID string, freq domain.Frequency, periodID string) error
	DispatchMarker(ctx context.Context, orderID string) (string, bool, error)
	ClaimDispatch(ctx context.Context, orderID string) (bool, error)
	SetDispatchMarker(ctx context.Context, orderID, value string) error
}

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, email domain.Email) (domain.SendResult, error)
}

// MailRecorder keeps the best-effort audit trail of outbound mail.
type MailRecorder interface {
	Record(ctx context.Context, entry domain.MailAudit)
}

// Scheduler controls when the recurring engine executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
