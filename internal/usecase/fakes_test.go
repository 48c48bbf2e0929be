package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ChairReports/internal/delivery"
	"ChairReports/internal/domain"
	"ChairReports/internal/infrastructure/kv"
	"ChairReports/internal/state"
)

type fakeCatalog struct {
	items map[domain.ItemKind][]domain.ItemConfig
	err   error
}

func (f *fakeCatalog) ItemConfigs(_ context.Context, kind domain.ItemKind) ([]domain.ItemConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items[kind], nil
}

type fakeOrders struct {
	mu         sync.Mutex
	orders     []domain.Order
	listErr    error
	emptyFirst int
	listCalls  int
}

func (f *fakeOrders) ListOrderIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listCalls <= f.emptyFirst {
		return nil, nil
	}
	ids := make([]string, 0, len(f.orders))
	for _, o := range f.orders {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			order := o
			return &order, nil
		}
	}
	return nil, nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []domain.Email
	calls int
	fail  func(email domain.Email) bool
}

func (f *fakeMailer) Send(_ context.Context, email domain.Email) (domain.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil && f.fail(email) {
		return domain.SendResult{}, errors.New("provider unavailable")
	}
	f.sent = append(f.sent, email)
	return domain.SendResult{ID: "msg"}, nil
}

func (f *fakeMailer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []domain.MailAudit
}

func (f *fakeRecorder) Record(_ context.Context, entry domain.MailAudit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func noSleep(context.Context, time.Duration) error { return nil }

type fixture struct {
	catalog  *fakeCatalog
	orders   *fakeOrders
	mailer   *fakeMailer
	recorder *fakeRecorder
	store    *state.Store
	reporter *Reporter
	loader   *SnapshotLoader
}

func newFixture(items map[domain.ItemKind][]domain.ItemConfig, orders ...domain.Order) *fixture {
	f := &fixture{
		catalog:  &fakeCatalog{items: items},
		orders:   &fakeOrders{orders: orders},
		mailer:   &fakeMailer{},
		recorder: &fakeRecorder{},
		store:    state.NewStore(kv.NewMemoryStore()),
	}
	f.reporter = NewReporter(ReporterDeps{
		Mailer:   f.mailer,
		Retrier:  delivery.NewRetrier(nil).WithSleep(noSleep),
		Recorder: f.recorder,
		From:     "reports@example.org",
		SiteName: "Convention",
	})
	f.loader = NewSnapshotLoader(f.orders, 3, time.Second, nil).WithSleep(noSleep)
	return f
}

func (f *fixture) engine() *Engine {
	return NewEngine(EngineDeps{
		Catalog: NewCatalogSource(f.catalog, nil),
		Loader:  f.loader,
		State:   f.store,
		Sender:  f.reporter,
	})
}

func (f *fixture) guard() *DispatchGuard {
	return NewDispatchGuard(DispatchGuardDeps{
		Catalog: NewCatalogSource(f.catalog, nil),
		Loader:  f.loader,
		State:   f.store,
		Sender:  f.reporter,
	})
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }
