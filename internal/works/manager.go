// Package works is the read-only service over a work store: lookups,
// public and featured views, bulk retrieval, and grouping of an owner's
// works into deduplicated groups with merge suggestions.
package works

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/matsen/works/internal/bulk"
	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/grouping"
	"github.com/matsen/works/internal/visibility"
	"github.com/matsen/works/internal/work"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when a requested work does not exist.
var ErrNotFound = work.ErrNotFound

// DefaultConcurrency bounds GroupOwners fan-out.
const DefaultConcurrency = 4

// Store is the work store the manager reads from. FetchByIDs may omit
// missing ids and may return works in any order. FetchByID must return an
// error wrapping ErrNotFound for a missing work.
type Store interface {
	FetchByOwner(ctx context.Context, ownerID string) ([]work.Work, error)
	FetchByID(ctx context.Context, ownerID string, workID int64) (*work.Work, error)
	FetchByIDs(ctx context.Context, ownerID string, ids []int64) ([]work.Work, error)
}

// Manager answers read-only queries over a Store. It is safe for
// concurrent use and keeps no results between calls.
type Manager struct {
	store       Store
	bulk        *bulk.Assembler
	floor       float64
	concurrency int
	logger      zerolog.Logger
	meter       metric.MeterProvider
	metrics     *managerMetrics
	groupFlight singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger passed down to grouping and bulk resolution.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithSuggestionFloor sets the minimum suggestion confidence.
// Zero keeps grouping.DefaultFloor.
func WithSuggestionFloor(floor float64) Option {
	return func(m *Manager) {
		m.floor = floor
	}
}

// WithConcurrency bounds how many owners GroupOwners processes at once.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider. By default the
// global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(m *Manager) {
		m.meter = mp
	}
}

// New creates a Manager over store.
func New(store Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:       store,
		concurrency: DefaultConcurrency,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.meter == nil {
		m.meter = otel.GetMeterProvider()
	}

	metrics, err := newManagerMetrics(m.meter.Meter(meterName))
	if err != nil {
		return nil, fmt.Errorf("initializing metrics: %w", err)
	}
	m.metrics = metrics
	m.bulk = bulk.NewAssembler(store, m.logger)

	return m, nil
}

// FindWorks returns every work of an owner in store order.
func (m *Manager) FindWorks(ctx context.Context, ownerID string) ([]work.Work, error) {
	works, err := m.store.FetchByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("finding works for %s: %w", ownerID, err)
	}
	return works, nil
}

// FindPublicWorks returns the public works of an owner in store order.
func (m *Manager) FindPublicWorks(ctx context.Context, ownerID string) ([]work.Work, error) {
	works, err := m.FindWorks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return visibility.PublicWorks(works), nil
}

// HasPublicWorks reports whether an owner has at least one public work.
func (m *Manager) HasPublicWorks(ctx context.Context, ownerID string) (bool, error) {
	works, err := m.FindWorks(ctx, ownerID)
	if err != nil {
		return false, err
	}
	for _, w := range works {
		if visibility.IsPublic(w.Summary()) {
			return true, nil
		}
	}
	return false, nil
}

// GetWork returns one full work or an error wrapping ErrNotFound.
func (m *Manager) GetWork(ctx context.Context, ownerID string, workID int64) (*work.Work, error) {
	w, err := m.store.FetchByID(ctx, ownerID, workID)
	if err != nil {
		return nil, fmt.Errorf("getting work %d: %w", workID, err)
	}
	return w, nil
}

// GetWorkSummary returns the summary of one work.
func (m *Manager) GetWorkSummary(ctx context.Context, ownerID string, workID int64) (*work.Summary, error) {
	w, err := m.GetWork(ctx, ownerID, workID)
	if err != nil {
		return nil, err
	}
	s := w.Summary()
	return &s, nil
}

// SummaryList returns the summaries of an owner's works. With no ids it
// returns all of them in store order; otherwise only the given ids, in the
// given order, skipping ids that do not exist.
func (m *Manager) SummaryList(ctx context.Context, ownerID string, ids ...int64) ([]work.Summary, error) {
	if len(ids) == 0 {
		works, err := m.FindWorks(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return work.Summaries(works), nil
	}

	works, err := m.store.FetchByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("listing summaries for %s: %w", ownerID, err)
	}
	byID := make(map[int64]work.Work, len(works))
	for _, w := range works {
		byID[w.WorkID] = w
	}
	out := make([]work.Summary, 0, len(ids))
	for _, id := range ids {
		if w, ok := byID[id]; ok {
			out = append(out, w.Summary())
		}
	}
	return out, nil
}

// GroupWorks groups an explicit snapshot of summaries.
func (m *Manager) GroupWorks(ctx context.Context, summaries []work.Summary, publicOnly bool) (*grouping.Result, error) {
	start := time.Now()
	res, err := grouping.GroupWorks(summaries, grouping.Options{
		PublicOnly: publicOnly,
		Logger:     m.logger,
	})
	groups := 0
	if res != nil {
		groups = len(res.Groups)
	}
	m.metrics.recordGrouping(ctx, publicOnly, groups, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// WorksAsGroups fetches an owner's works and groups them. Concurrent calls
// for the same owner and visibility share one fetch and grouping run; each
// caller still receives its own copy of the result.
//
// The shared run is detached from any single caller's cancellation. A
// caller whose context ends stops waiting and gets ctx.Err(); the others
// keep waiting for the shared result.
func (m *Manager) WorksAsGroups(ctx context.Context, ownerID string, publicOnly bool) (*grouping.Result, error) {
	key := ownerID + "|" + strconv.FormatBool(publicOnly)
	runCtx := context.WithoutCancel(ctx)
	ch := m.groupFlight.DoChan(key, func() (any, error) {
		summaries, err := m.SummaryList(runCtx, ownerID)
		if err != nil {
			return nil, err
		}
		res, err := m.GroupWorks(runCtx, summaries, publicOnly)
		if err != nil {
			return nil, fmt.Errorf("grouping works for %s: %w", ownerID, err)
		}
		return res, nil
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("grouping works for %s: %w", ownerID, ctx.Err())
	case r = <-ch:
	}
	if r.Err != nil {
		return nil, r.Err
	}

	res := r.Val.(*grouping.Result)
	if r.Shared {
		m.logger.Debug().Str("owner", ownerID).Msg("shared in-flight grouping")
		return res.Clone(), nil
	}
	return res, nil
}

// GroupedWorks is the result of grouping plus merge suggestions.
type GroupedWorks struct {
	*grouping.Result
	Suggestions []grouping.Suggestion `json:"suggestions"`
}

// GroupAndSuggest groups an owner's works and proposes weak-evidence merges
// between the resulting groups.
func (m *Manager) GroupAndSuggest(ctx context.Context, ownerID string, publicOnly bool) (*GroupedWorks, error) {
	res, err := m.WorksAsGroups(ctx, ownerID, publicOnly)
	if err != nil {
		return nil, err
	}

	suggestions := grouping.Suggest(res, grouping.SuggestOptions{
		Floor:  m.floor,
		Logger: m.logger,
	})
	m.metrics.suggestionsPerRun.Record(ctx, int64(len(suggestions)))

	return &GroupedWorks{Result: res, Suggestions: suggestions}, nil
}

// FindWorkBulk resolves a comma-separated list of work ids in order.
// Missing and malformed entries are reported in the result.
func (m *Manager) FindWorkBulk(ctx context.Context, ownerID string, list string) (*bulk.Result, error) {
	res, err := m.bulk.Resolve(ctx, ownerID, bulk.ParseList(list))
	if err != nil {
		return nil, err
	}
	m.metrics.recordBulk(ctx, res)
	return res, nil
}

// FeaturedWorks returns the featured works of an owner in store order.
func (m *Manager) FeaturedWorks(ctx context.Context, ownerID string) ([]work.Work, error) {
	works, err := m.FindWorks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return visibility.SelectFeaturedWorks(works), nil
}

// AllExternalIDs returns the sorted, distinct normalized identifiers across
// an owner's works, under any relationship.
func (m *Manager) AllExternalIDs(ctx context.Context, ownerID string) ([]extid.Key, error) {
	works, err := m.FindWorks(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[extid.Key]bool)
	keys := []extid.Key{}
	for _, w := range works {
		for _, id := range w.Identifiers {
			k, ok := extid.Normalize(id)
			if !ok || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	extid.SortKeys(keys)
	return keys, nil
}

// GroupOwners groups several owners' works in parallel. The first error
// cancels the remaining owners and is returned.
func (m *Manager) GroupOwners(ctx context.Context, owners []string, publicOnly bool) (map[string]*grouping.Result, error) {
	results := make([]*grouping.Result, len(owners))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, owner := range owners {
		i, owner := i, owner
		g.Go(func() error {
			res, err := m.WorksAsGroups(gctx, owner, publicOnly)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*grouping.Result, len(owners))
	for i, owner := range owners {
		out[owner] = results[i]
	}
	return out, nil
}
