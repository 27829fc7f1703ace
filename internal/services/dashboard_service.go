package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"agronexus/internal/cache"
	"agronexus/internal/climate"
	"agronexus/internal/config"
	"agronexus/internal/dataset"
	"agronexus/internal/infrastructure"
	"agronexus/internal/market"
	ws "agronexus/internal/websocket"
)

// Source status values reported per data source.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
	SourceAbsent   = "absent"
)

// ClimateSource fetches daily climate history.
type ClimateSource interface {
	FetchHistory(ctx context.Context, from, to time.Time) (*climate.History, error)
	Ping(ctx context.Context) error
}

// QuoteSource fetches daily commodity quotes.
type QuoteSource interface {
	FetchQuotes(ctx context.Context, windowYears int) (*market.Quotes, error)
	Ping(ctx context.Context) error
}

// Query restricts a dashboard snapshot to selected years or a date range.
type Query struct {
	Years []int
	From  time.Time
	To    time.Time
}

// Snapshot is a merged, filtered dataset plus its summary metrics.
type Snapshot struct {
	Table     *dataset.Table    `json:"-"`
	Metrics   dataset.Metrics   `json:"metrics"`
	Sources   map[string]string `json:"sources"`
	Years     []int             `json:"years"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// DashboardService orchestrates the fetch, merge, filter and metrics
// pipeline behind the dashboard endpoints.
type DashboardService struct {
	climate ClimateSource
	quotes  QuoteSource

	sources config.SourcesConfig
	cache   *cache.Cache
	hub     *ws.Hub
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger

	seasonSeed uint64
	now        func() time.Time

	// serializes live refreshes so concurrent requests don't stampede
	refreshMu sync.Mutex
}

// NewDashboardService wires the dashboard pipeline
func NewDashboardService(
	climateSource ClimateSource,
	quoteSource QuoteSource,
	sources config.SourcesConfig,
	resultCache *cache.Cache,
	hub *ws.Hub,
	metrics *infrastructure.BusinessMetrics,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		climate:    climateSource,
		quotes:     quoteSource,
		sources:    sources,
		cache:      resultCache,
		hub:        hub,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "dashboard_service")),
		seasonSeed: 2024,
		now:        time.Now,
	}
}

// Dashboard returns a snapshot for the given query, serving from the
// result cache when the same argument tuple was computed recently.
func (s *DashboardService) Dashboard(ctx context.Context, q Query) (*Snapshot, error) {
	key := cache.Key("dashboard",
		s.sources.Latitude, s.sources.Longitude, s.sources.WindowYears,
		q.Years, q.From, q.To)

	if cached, ok := s.cache.Get(key); ok {
		if snap, ok := cached.(*Snapshot); ok {
			if s.metrics != nil {
				s.metrics.CacheHitsTotal.Add(ctx, 1)
			}
			return snap, nil
		}
	}
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.Add(ctx, 1)
	}

	base, err := s.baseTable(ctx)
	if err != nil {
		return nil, err
	}

	snap := s.snapshotFor(base, q)
	s.cache.Set(key, snap)
	return snap, nil
}

// Refresh drops caches, refetches all sources and notifies connected
// dashboards. It returns the unfiltered snapshot. In strict mode a live
// source failure is an error instead of a silent downgrade to fallback
// or absent data.
func (s *DashboardService) Refresh(ctx context.Context, strict bool) (*Snapshot, error) {
	s.cache.Clear()

	if s.hub != nil {
		s.hub.BroadcastProgress("refresh", 0, "refreshing data sources")
	}

	base, err := s.baseTable(ctx)
	if err == nil && strict {
		switch {
		case base.climateErr != nil:
			err = fmt.Errorf("%w: %s", ErrNoClimateData, base.climateErr)
		case base.quotesErr != nil:
			err = fmt.Errorf("%w: %s", ErrNoQuoteData, base.quotesErr)
		}
	}
	if err != nil {
		if s.hub != nil {
			s.hub.BroadcastError("refresh", err)
		}
		return nil, err
	}

	snap := s.snapshotFor(base, Query{})
	if s.hub != nil {
		s.hub.BroadcastRefresh(snap)
	}
	return snap, nil
}

// Season returns the synthetic phenology series for the current season.
// Deterministic for a running process so repeated calls chart identically.
func (s *DashboardService) Season(ctx context.Context) (*dataset.Table, error) {
	year := s.now().UTC().Year()
	key := cache.Key("season", year)

	if cached, ok := s.cache.Get(key); ok {
		if t, ok := cached.(*dataset.Table); ok {
			return t, nil
		}
	}

	gen := dataset.NewSeasonGenerator(s.seasonSeed)
	rain, ndvi := gen.Season(year)
	t := dataset.MergeByDate(rain, ndvi)

	s.cache.Set(key, t)
	return t, nil
}

// baseTable fetches and merges all sources over the configured window.
// Per-source failures degrade to fallback or absent columns rather than
// failing the whole pipeline, but an entirely empty result is an error.
func (s *DashboardService) baseTable(ctx context.Context) (*baseResult, error) {
	key := cache.Key("base",
		s.sources.Latitude, s.sources.Longitude, s.sources.WindowYears)
	if cached, ok := s.cache.Get(key); ok {
		if base, ok := cached.(*baseResult); ok {
			return base, nil
		}
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// another request may have rebuilt the table while we waited
	if cached, ok := s.cache.Get(key); ok {
		if base, ok := cached.(*baseResult); ok {
			return base, nil
		}
	}

	to := dataset.Day(s.now().UTC())
	from := to.AddDate(-s.sources.WindowYears, 0, 0)

	var (
		hist       *climate.History
		prices     *market.Quotes
		climateErr error
		quotesErr  error
	)
	statuses := struct {
		sync.Mutex
		m map[string]string
	}{m: make(map[string]string)}

	setStatus := func(source, status string) {
		statuses.Lock()
		statuses.m[source] = status
		statuses.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		h, err := s.climate.FetchHistory(gctx, from, to)
		if err != nil {
			s.logger.Warn("climate source unavailable, using fallback",
				slog.String("error", err.Error()))
			infrastructure.RecordSourceFetch(gctx, s.metrics, "climate", time.Since(start), false, true)

			gen := dataset.NewSeasonGenerator(s.seasonSeed)
			temp, rain := gen.ClimateFallback(from, to)
			h = &climate.History{TempMax: temp, Rainfall: rain, From: from, To: to}
			climateErr = err
			setStatus("climate", SourceFallback)
		} else {
			infrastructure.RecordSourceFetch(gctx, s.metrics, "climate", time.Since(start), true, false)
			setStatus("climate", SourceLive)
		}
		hist = h
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		q, err := s.quotes.FetchQuotes(gctx, s.sources.WindowYears)
		if err != nil {
			s.logger.Warn("quote source unavailable, price column absent",
				slog.String("error", err.Error()))
			infrastructure.RecordSourceFetch(gctx, s.metrics, "quotes", time.Since(start), false, false)
			quotesErr = err
			setStatus("quotes", SourceAbsent)
			return nil
		}
		infrastructure.RecordSourceFetch(gctx, s.metrics, "quotes", time.Since(start), true, false)
		setStatus("quotes", SourceLive)
		prices = q
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	gen := dataset.NewSeasonGenerator(s.seasonSeed)
	_, ndvi := gen.Season(to.Year())
	statuses.m["season"] = SourceFallback

	series := []*dataset.Series{hist.TempMax, hist.Rainfall, ndvi}
	if prices != nil {
		series = append(series, prices.Close)
	}

	t := dataset.MergeByDate(series...)
	if t.NumRows() == 0 {
		return nil, ErrDatasetEmpty
	}
	t.FillGaps()

	if s.metrics != nil {
		s.metrics.DatasetRowsMerged.Add(ctx, int64(t.NumRows()))
	}
	s.logger.Info("dataset merged",
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", len(t.ColumnNames())),
		slog.Any("sources", statuses.m))

	base := &baseResult{
		table:      t,
		sources:    statuses.m,
		fetchedAt:  s.now(),
		climateErr: climateErr,
		quotesErr:  quotesErr,
	}
	s.cache.Set(key, base)
	return base, nil
}

type baseResult struct {
	table     *dataset.Table
	sources   map[string]string
	fetchedAt time.Time

	// live-fetch failures that were degraded to fallback/absent
	climateErr error
	quotesErr  error
}

func (s *DashboardService) snapshotFor(base *baseResult, q Query) *Snapshot {
	t := base.table
	if len(q.Years) > 0 {
		t = t.FilterYears(q.Years)
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		t = t.FilterRange(q.From, q.To)
	}

	return &Snapshot{
		Table:     t,
		Metrics:   dataset.Summarize(t),
		Sources:   base.sources,
		Years:     base.table.Years(),
		FetchedAt: base.fetchedAt,
	}
}

// CheckSources probes both upstreams for the readiness endpoint.
func (s *DashboardService) CheckSources(ctx context.Context) map[string]error {
	results := make(map[string]error, 2)
	var mu sync.Mutex

	var wg sync.WaitGroup
	for name, ping := range map[string]func(context.Context) error{
		"climate": s.climate.Ping,
		"quotes":  s.quotes.Ping,
	} {
		wg.Add(1)
		go func(name string, ping func(context.Context) error) {
			defer wg.Done()
			err := ping(ctx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
		}(name, ping)
	}
	wg.Wait()
	return results
}
