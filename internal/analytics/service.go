package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/parceldesk/parceldesk/internal/billing"
)

// BillingPort is the slice of the billing service the dashboard consumes.
type BillingPort interface {
	Summary(ctx context.Context) (billing.FinancialSummary, error)
	AgingReport(ctx context.Context) (billing.AgingReport, error)
	Invoices(ctx context.Context) ([]billing.Invoice, error)
}

// Dashboard aggregates everything the accounting landing page renders in
// one payload.
type Dashboard struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Summary     billing.FinancialSummary `json:"summary"`
	Aging       billing.AgingReport      `json:"aging"`
	StatusCount map[string]int           `json:"status_count"`
	OpenCount   int                      `json:"open_count"`
}

// Service computes dashboard figures, memoised through the versioned cache.
type Service struct {
	billing BillingPort
	cache   *Cache
	now     func() time.Time
}

// NewService builds Service instance. cache may be nil, in which case every
// read recomputes.
func NewService(billingPort BillingPort, cache *Cache) *Service {
	return &Service{billing: billingPort, cache: cache, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Dashboard returns the cached dashboard, computing it on miss. The three
// source reads fan out concurrently since each re-derives the invoice book
// independently.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "dashboard")
	if err != nil {
		return Dashboard{}, err
	}
	var dashboard Dashboard
	err = s.cache.FetchJSON(ctx, key, &dashboard, func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx)
	})
	return dashboard, err
}

// Invalidate drops all cached dashboard figures.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) compute(ctx context.Context) (Dashboard, error) {
	var (
		summary  billing.FinancialSummary
		aging    billing.AgingReport
		invoices []billing.Invoice
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.billing.Summary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		aging, err = s.billing.AgingReport(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = s.billing.Invoices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	statusCount := make(map[string]int)
	open := 0
	for _, inv := range invoices {
		statusCount[string(inv.Status)]++
		if inv.Open() {
			open++
		}
	}

	return Dashboard{
		GeneratedAt: s.now(),
		Summary:     summary,
		Aging:       aging,
		StatusCount: statusCount,
		OpenCount:   open,
	}, nil
}
