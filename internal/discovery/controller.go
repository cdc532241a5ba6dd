// Package discovery reconciles user intent (filters, search text, page) into fetch cycles
// against the catalog service and owns the resulting display state.
package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/catalogapi"
	"finitefield.org/catalog-client/internal/fallback"
	"finitefield.org/catalog-client/internal/pagination"
	"finitefield.org/catalog-client/internal/platform/observability"
)

const defaultTimeout = 10 * time.Second

var tracer = otel.Tracer("finitefield.org/catalog-client/internal/discovery")

// ErrClosed is returned by Wait once the controller has been closed.
var ErrClosed = errors.New("discovery: controller closed")

// Fetcher retrieves one page of the remote catalog.
type Fetcher interface {
	ListProducts(ctx context.Context, req catalogapi.ListRequest) (catalogapi.ListResponse, error)
}

// FetcherFunc adapts ordinary functions to Fetcher.
type FetcherFunc func(context.Context, catalogapi.ListRequest) (catalogapi.ListResponse, error)

// ListProducts calls f.
func (f FetcherFunc) ListProducts(ctx context.Context, req catalogapi.ListRequest) (catalogapi.ListResponse, error) {
	return f(ctx, req)
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for cycle diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout bounds each remote request.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithFallback replaces the sample products served when the service fails.
func WithFallback(products []catalog.Product) Option {
	return func(c *Controller) {
		if products != nil {
			c.fallback = catalog.CloneProducts(products)
		}
	}
}

// WithListener registers a callback receiving every display state change in order.
// The callback must not call back into the controller synchronously.
func WithListener(fn func(catalog.DisplayState)) Option {
	return func(c *Controller) {
		c.listener = fn
	}
}

// WithClock overrides the time source used for cycle identifiers and durations.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller owns the Query and the DisplayState. Every mutation schedules exactly one
// fetch cycle and only the most recently scheduled cycle may commit its result.
type Controller struct {
	fetcher  Fetcher
	logger   *zap.Logger
	timeout  time.Duration
	fallback []catalog.Product
	listener func(catalog.DisplayState)
	now      func() time.Time

	mu        sync.Mutex
	query     catalog.Query
	display   catalog.DisplayState
	seq       uint64
	committed uint64
	version   uint64
	cancel    context.CancelFunc
	changed   chan struct{}
	closed    bool
	wg        sync.WaitGroup

	notifyMu sync.Mutex
	notified uint64
}

type cycle struct {
	id       string
	seq      uint64
	query    catalog.Query
	reissued bool
}

// New constructs a Controller. No request is made until the first mutation or Refresh.
func New(fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher: fetcher,
		logger:  zap.NewNop(),
		timeout: defaultTimeout,
		now:     time.Now,
		query:   catalog.NewQuery(),
		display: catalog.DisplayState{
			Items:       []catalog.Product{},
			PageMarkers: []int{},
			CurrentPage: 1,
			PageSize:    pagination.PageSize,
		},
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.fallback == nil {
		c.fallback = fallback.Dataset()
	}
	c.logger = c.logger.Named("discovery")
	return c
}

// SetFilter constrains one facet; a blank value clears it. The page resets to 1.
func (c *Controller) SetFilter(facet catalog.Facet, value string) {
	c.mutate(func(q catalog.Query) catalog.Query { return q.WithFilter(facet, value) })
}

// SetSearch replaces the search text. The page resets to 1.
func (c *Controller) SetSearch(text string) {
	c.mutate(func(q catalog.Query) catalog.Query { return q.WithSearch(text) })
}

// SetPage moves to page n, keeping filters and search.
func (c *Controller) SetPage(n int) {
	c.mutate(func(q catalog.Query) catalog.Query { return q.WithPage(n) })
}

// ClearFilters drops every facet constraint and the search text. The page resets to 1.
func (c *Controller) ClearFilters() {
	c.mutate(func(q catalog.Query) catalog.Query { return q.WithoutFilters() })
}

// Refresh schedules a cycle for the current Query.
func (c *Controller) Refresh() {
	c.mutate(func(q catalog.Query) catalog.Query { return q })
}

// Query returns a snapshot of the current Query.
func (c *Controller) Query() catalog.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.Clone()
}

// Display returns a snapshot of the current DisplayState.
func (c *Controller) Display() catalog.DisplayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display.Clone()
}

// Nav returns the navigation state for the committed display.
func (c *Controller) Nav() pagination.Nav {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pagination.NewNav(c.display.CurrentPage, c.display.TotalPages)
}

// Wait blocks until the most recently scheduled cycle has committed and returns the
// resulting DisplayState.
func (c *Controller) Wait(ctx context.Context) (catalog.DisplayState, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return catalog.DisplayState{}, ErrClosed
		}
		if c.committed == c.seq && !c.display.Loading {
			state := c.display.Clone()
			c.mu.Unlock()
			return state, nil
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return catalog.DisplayState{}, ctx.Err()
		case <-changed:
		}
	}
}

// Close cancels in-flight work and waits for running cycles to finish. Later mutations
// are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.broadcastLocked()
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Controller) mutate(fn func(catalog.Query) catalog.Query) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("ignoring mutation on closed controller")
		return
	}
	c.query = fn(c.query.Clone())
	c.scheduleLocked(c.query, false)
	c.mu.Unlock()
	c.publish()
}

// scheduleLocked starts a cycle for q, superseding any cycle still in flight.
func (c *Controller) scheduleLocked(q catalog.Query, reissued bool) {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	cy := cycle{
		id:       ulid.MustNew(ulid.Timestamp(c.now()), ulid.DefaultEntropy()).String(),
		seq:      c.seq,
		query:    q.Clone(),
		reissued: reissued,
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.display = catalog.LoadingState(c.display, q.Page)
	c.version++
	c.broadcastLocked()

	c.wg.Add(1)
	go c.run(ctx, cy)
}

func (c *Controller) run(ctx context.Context, cy cycle) {
	defer c.wg.Done()

	scoped := c.logger.With(
		zap.Int("page", cy.query.Page),
		zap.String("search", observability.SanitizeText(cy.query.SearchText)),
		zap.Int("filters", len(cy.query.Filters.Active())),
	)
	// Downstream clients add the cycle field themselves from the context.
	ctx = observability.WithLogger(observability.WithCycleID(ctx, cy.id), scoped)
	logger := scoped.With(zap.String("cycle", cy.id))
	ctx, span := tracer.Start(ctx, "discovery.fetchCycle", trace.WithAttributes(
		attribute.String("cycle.id", cy.id),
		attribute.Int("catalog.page", cy.query.Page),
	))
	defer span.End()

	// Superseded before the request went out.
	if ctx.Err() != nil {
		span.SetAttributes(attribute.Bool("cycle.superseded", true))
		return
	}

	started := c.now()
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	resp, err := c.fetcher.ListProducts(reqCtx, catalogapi.ListRequestFromQuery(cy.query))
	cancel()

	var next catalog.DisplayState
	switch {
	case err != nil:
		if ctx.Err() != nil {
			span.SetAttributes(attribute.Bool("cycle.superseded", true))
			return
		}
		logger.Warn("catalog request failed, serving sample data",
			zap.Error(err),
			zap.Duration("elapsed", c.now().Sub(started)),
		)
		span.SetAttributes(attribute.Bool("catalog.fallback", true))
		next = fallback.FilterAndPaginate(c.fallback, cy.query)
	case needsReissue(cy, resp):
		c.reissue(cy, resp.TotalPages, logger)
		return
	default:
		next = displayFromResponse(resp)
	}

	c.commit(cy, next, logger)
}

// needsReissue reports a successful but empty page past the end that the service did
// not clamp itself.
func needsReissue(cy cycle, resp catalogapi.ListResponse) bool {
	return !cy.reissued &&
		len(resp.Items) == 0 &&
		resp.TotalPages > 0 &&
		cy.query.Page > resp.TotalPages &&
		resp.Page == cy.query.Page
}

func (c *Controller) reissue(cy cycle, lastPage int, logger *zap.Logger) {
	c.mu.Lock()
	if c.closed || cy.seq != c.seq {
		c.mu.Unlock()
		logger.Debug("discarding superseded cycle")
		return
	}
	logger.Info("requested page beyond last page, reissuing", zap.Int("last_page", lastPage))
	c.query = c.query.WithPage(lastPage)
	c.scheduleLocked(c.query, true)
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) commit(cy cycle, next catalog.DisplayState, logger *zap.Logger) {
	c.mu.Lock()
	if c.closed || cy.seq != c.seq {
		c.mu.Unlock()
		logger.Debug("discarding superseded cycle")
		return
	}
	if !next.SourceIsFallback && next.CurrentPage != c.query.Page {
		// The service clamped the page; adopt it without another request.
		c.query = c.query.WithPage(next.CurrentPage)
	}
	c.display = next
	c.committed = cy.seq
	c.cancel = nil
	c.version++
	c.broadcastLocked()
	c.mu.Unlock()

	logger.Debug("cycle committed",
		zap.Int("items", len(next.Items)),
		zap.Int("total_pages", next.TotalPages),
		zap.Bool("fallback", next.SourceIsFallback),
	)
	c.publish()
}

func (c *Controller) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// publish delivers the current display to the listener unless a newer one already was.
func (c *Controller) publish() {
	if c.listener == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	version, state := c.version, c.display.Clone()
	c.mu.Unlock()

	if version <= c.notified {
		return
	}
	c.notified = version
	c.listener(state)
}

func displayFromResponse(resp catalogapi.ListResponse) catalog.DisplayState {
	pages := make([]int, len(resp.Pages))
	copy(pages, resp.Pages)
	return catalog.DisplayState{
		Items:       catalog.CloneProducts(resp.Items),
		TotalPages:  resp.TotalPages,
		PageMarkers: pages,
		CurrentPage: resp.Page,
		PageSize:    resp.PageSize,
	}
}
