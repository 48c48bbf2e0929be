package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ChairReports/internal/config"
	"ChairReports/internal/delivery"
	"ChairReports/internal/domain"
	"ChairReports/internal/infrastructure/kv"
	"ChairReports/internal/infrastructure/mail"
	"ChairReports/internal/infrastructure/scheduler"
	"ChairReports/internal/infrastructure/storage"
	"ChairReports/internal/layout"
	"ChairReports/internal/logging"
	"ChairReports/internal/mailaudit"
	"ChairReports/internal/ports"
	"ChairReports/internal/state"
	"ChairReports/internal/usecase"
)

// Option overrides an adapter New would otherwise build from config.
type Option func(*Application)

// WithDB uses db for orders and catalog instead of opening the configured DSN.
func WithDB(db *sql.DB) Option {
	return func(a *Application) { a.db = db }
}

// WithKV uses store for state, markers and the mail audit.
func WithKV(store ports.KV) Option {
	return func(a *Application) { a.kv = store }
}

// WithMailer replaces the HTTP transport.
func WithMailer(m ports.Mailer) Option {
	return func(a *Application) { a.mailer = m }
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db      *sql.DB
	kv      ports.KV
	mailer  ports.Mailer
	closers []io.Closer

	orders    ports.OrderSource
	catalog   *usecase.CatalogSource
	loader    *usecase.SnapshotLoader
	reporter  *usecase.Reporter
	engine    *usecase.Engine
	guard     *usecase.DispatchGuard
	scheduler *usecase.Scheduler
}

// New builds the application from cfg. Adapters not supplied through opts are
// constructed from configuration.
func New(cfg config.Config, baseLogger *slog.Logger, opts ...Option) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger}
	for _, opt := range opts {
		opt(a)
	}

	if a.db == nil {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, db)
	}

	if a.kv == nil {
		store, closer, err := openKV(cfg.KV)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.kv = store
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}

	if a.mailer == nil && cfg.Mail.APIKey != "" {
		a.mailer = mail.NewTransport(mail.Options{
			Endpoint:      cfg.Mail.Endpoint,
			APIKey:        cfg.Mail.APIKey,
			RatePerSecond: cfg.Mail.RatePerSecond,
			Timeout:       cfg.Mail.Timeout,
		})
	}

	a.orders = storage.NewPostgresOrderSource(a.db)
	a.catalog = usecase.NewCatalogSource(storage.NewPostgresCatalog(a.db), logging.Component(baseLogger, "catalog"))
	a.loader = usecase.NewSnapshotLoader(a.orders, cfg.Reports.EnumerationRetries, cfg.Reports.EnumerationDelay,
		logging.Component(baseLogger, "snapshot"))

	stateStore := state.NewStore(a.kv)
	a.reporter = usecase.NewReporter(usecase.ReporterDeps{
		Layouts:  layout.Default(),
		Mailer:   a.mailer,
		Retrier:  delivery.NewRetrier(logging.Component(baseLogger, "delivery")),
		Recorder: mailaudit.NewRecorder(a.kv, logging.Component(baseLogger, "mailaudit")),
		From:     cfg.Mail.From,
		Bcc:      cfg.Mail.Bcc,
		SiteName: cfg.Reports.SiteName,
		Logger:   logging.Component(baseLogger, "reporter"),
	})

	a.engine = usecase.NewEngine(usecase.EngineDeps{
		Catalog:     a.catalog,
		Loader:      a.loader,
		State:       stateStore,
		Sender:      a.reporter,
		Concurrency: cfg.Reports.Concurrency,
		Logger:      logging.Component(baseLogger, "engine"),
	})

	a.guard = usecase.NewDispatchGuard(usecase.DispatchGuardDeps{
		Catalog: a.catalog,
		Loader:  a.loader,
		State:   stateStore,
		Sender:  a.reporter,
		Logger:  logging.Component(baseLogger, "dispatch"),
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	a.scheduler = usecase.NewScheduler(driver, a.engine, logging.Component(baseLogger, "scheduler"))

	return a, nil
}

func openKV(cfg config.KVConfig) (ports.KV, io.Closer, error) {
	switch cfg.Driver {
	case config.KVMemory:
		return kv.NewMemoryStore(), nil, nil
	case config.KVSQLite:
		store, err := kv.OpenSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite kv: %w", err)
		}
		return store, store, nil
	case config.KVRedis, "":
		store := kv.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown kv driver %q", cfg.Driver)
	}
}

// Tick performs a single engine run at now.
func (a *Application) Tick(ctx context.Context, now time.Time) (domain.ReportRun, error) {
	return a.engine.Run(ctx, now)
}

// Serve runs the engine on the configured cron expression until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	a.scheduler.OnRun(func(run domain.ReportRun) {
		a.logger.Info("scheduled run complete", "run", run.ID, "sent", run.Sent, "skipped", run.Skipped, "errors", run.Errors)
	})
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Dispatch loads orderID and runs the real-time dispatch guard for it.
func (a *Application) Dispatch(ctx context.Context, orderID string) (usecase.DispatchResult, error) {
	order, err := a.orders.GetOrder(ctx, orderID)
	if err != nil {
		return usecase.DispatchResult{OrderID: orderID}, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order == nil {
		return usecase.DispatchResult{OrderID: orderID}, fmt.Errorf("order %s not found", orderID)
	}
	return a.guard.MaybeDispatch(ctx, *order)
}

// Preview builds the lifetime workbook for itemID without sending it.
func (a *Application) Preview(ctx context.Context, itemID string) ([]byte, int, error) {
	items, err := a.catalog.Items(ctx)
	if err != nil {
		return nil, 0, err
	}

	var (
		item  domain.ItemConfig
		found bool
	)
	for _, cfg := range items {
		if cfg.ID == domain.BaseID(itemID) {
			item, found = cfg, true
			break
		}
	}
	if !found {
		return nil, 0, fmt.Errorf("item %s not configured", itemID)
	}

	snap, err := a.loader.Load(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, data, err := a.reporter.Build(usecase.ReportRequest{Item: item, Snapshot: snap})
	if err != nil {
		return nil, 0, err
	}
	return data, len(rows), nil
}

// LastMail returns the most recent mail audit entry, if still retained.
func (a *Application) LastMail(ctx context.Context) (domain.MailAudit, bool, error) {
	return mailaudit.Last(ctx, a.kv)
}

// Close releases connections opened by New.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
