// Package analysis runs zone queries against stored datasets, caching one
// analyzer per dataset and recording every answered query.
package analysis

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pable/go-cs-zones/internal/aggregator"
	"github.com/pable/go-cs-zones/internal/geometry"
	"github.com/pable/go-cs-zones/internal/metrics"
	"github.com/pable/go-cs-zones/internal/model"
	"github.com/pable/go-cs-zones/internal/telemetry"
)

// ErrDatasetNotFound is returned when no stored dataset matches an ID prefix.
var ErrDatasetNotFound = errors.New("dataset not found")

// Store is the subset of storage the service needs.
type Store interface {
	GetDatasetByPrefix(prefix string) (*model.Dataset, error)
	LoadSamples(datasetID string) ([]model.Sample, error)
	InsertRun(run model.AnalysisRun) (string, error)
}

// Loaded is a dataset with its in-memory frame and analyzer.
type Loaded struct {
	Dataset  model.Dataset
	Frame    *telemetry.Frame
	Analyzer *aggregator.Analyzer
}

// Service answers zone queries. It is safe for concurrent use.
type Service struct {
	store    Store
	poly     geometry.Polygon
	opts     []aggregator.Option
	metrics  *metrics.Manager
	log      zerolog.Logger
	noRecord bool

	mu    sync.Mutex
	cache map[string]*Loaded
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records query counts and latency on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithAnalyzerOptions passes options to every analyzer the service builds.
func WithAnalyzerOptions(opts ...aggregator.Option) Option {
	return func(s *Service) { s.opts = append(s.opts, opts...) }
}

// WithoutRecording disables writing analysis runs to the store.
func WithoutRecording() Option {
	return func(s *Service) { s.noRecord = true }
}

// NewService builds a Service over store using poly as the chokepoint.
func NewService(store Store, poly geometry.Polygon, opts ...Option) *Service {
	s := &Service{
		store: store,
		poly:  poly,
		log:   zerolog.Nop(),
		cache: make(map[string]*Loaded),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load resolves prefix to a dataset and returns its cached analyzer,
// building it from stored samples on first use.
func (s *Service) Load(prefix string) (*Loaded, error) {
	ds, err := s.store.GetDatasetByPrefix(prefix)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	if ds == nil {
		return nil, fmt.Errorf("%w: prefix %q", ErrDatasetNotFound, prefix)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.cache[ds.ID]; ok {
		return l, nil
	}

	start := time.Now()
	samples, err := s.store.LoadSamples(ds.ID)
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	frame := telemetry.NewFrame(samples)
	l := &Loaded{
		Dataset:  *ds,
		Frame:    frame,
		Analyzer: aggregator.New(frame, s.poly, s.opts...),
	}
	s.cache[ds.ID] = l

	if s.metrics != nil {
		s.metrics.IncAnalyzerBuilds()
		s.metrics.SetLoadedSamples(ds.ID, frame.Len())
	}
	s.log.Debug().Str("dataset", ds.ID).Int("samples", frame.Len()).
		Dur("took", time.Since(start)).Msg("analyzer built")
	return l, nil
}

// Evict drops a dataset's cached analyzer, e.g. after a re-import.
func (s *Service) Evict(datasetID string) {
	s.mu.Lock()
	delete(s.cache, datasetID)
	s.mu.Unlock()
}

// DominanceResult is the chokepoint winner with the full count table.
type DominanceResult struct {
	DatasetID string                `json:"dataset_id"`
	Winner    model.Key             `json:"winner"`
	Counts    []aggregator.KeyCount `json:"counts"`
}

// Dominance answers which (team, side) holds the chokepoint.
func (s *Service) Dominance(prefix string) (*DominanceResult, error) {
	start := time.Now()
	l, err := s.Load(prefix)
	if err != nil {
		s.observe(model.RunDominance, err, start)
		return nil, err
	}
	winner, err := l.Analyzer.Dominance()
	s.observe(model.RunDominance, err, start)
	s.record(l.Dataset.ID, model.RunDominance, "", "", "", winner.String(), err)
	if err != nil {
		return nil, err
	}
	return &DominanceResult{
		DatasetID: l.Dataset.ID,
		Winner:    winner,
		Counts:    l.Analyzer.DominanceCounts(),
	}, nil
}

// Query selects a (team, side, area) for entry time and heat centroid.
type Query struct {
	Team string     `json:"team"`
	Side model.Side `json:"side"`
	Area string     `json:"area"`
}

// EntryResult is the average entry time with the detail behind it.
type EntryResult struct {
	DatasetID   string                       `json:"dataset_id"`
	Query       Query                        `json:"query"`
	Average     int                          `json:"average_seconds"`
	Intervals   int                          `json:"intervals"`
	WithPartner int                          `json:"with_partner"`
	Players     []aggregator.PlayerIntervals `json:"players"`
	Detail      aggregator.EntryDetail       `json:"-"`
}

// EntryTime answers the average elapsed second at which q enters its area.
func (s *Service) EntryTime(prefix string, q Query) (*EntryResult, error) {
	start := time.Now()
	l, err := s.Load(prefix)
	if err != nil {
		s.observe(model.RunEntryTime, err, start)
		return nil, err
	}
	detail, avg, err := l.Analyzer.EntryTime(q.Team, q.Side, q.Area)
	s.observe(model.RunEntryTime, err, start)
	s.record(l.Dataset.ID, model.RunEntryTime, q.Team, q.Side, q.Area, fmt.Sprintf("%ds", avg), err)
	if err != nil {
		return nil, err
	}
	return &EntryResult{
		DatasetID:   l.Dataset.ID,
		Query:       q,
		Average:     avg,
		Intervals:   detail.Overlaps.Len(),
		WithPartner: detail.Overlaps.WithPartner(),
		Players:     detail.Players,
		Detail:      detail,
	}, nil
}

// HeatmapResult is the floored centroid of q's positions in its area.
type HeatmapResult struct {
	DatasetID string         `json:"dataset_id"`
	Query     Query          `json:"query"`
	Centroid  model.Centroid `json:"centroid"`
	Positions int            `json:"positions"`
}

// Heatmap answers where q tends to wait inside its area.
func (s *Service) Heatmap(prefix string, q Query) (*HeatmapResult, error) {
	start := time.Now()
	l, err := s.Load(prefix)
	if err != nil {
		s.observe(model.RunHeatmap, err, start)
		return nil, err
	}
	c, positions, err := l.Analyzer.HeatCentroid(q.Team, q.Side, q.Area)
	s.observe(model.RunHeatmap, err, start)
	s.record(l.Dataset.ID, model.RunHeatmap, q.Team, q.Side, q.Area, c.String(), err)
	if err != nil {
		return nil, err
	}
	return &HeatmapResult{
		DatasetID: l.Dataset.ID,
		Query:     q,
		Centroid:  c,
		Positions: len(positions),
	}, nil
}

// IsDomainError reports whether err is an expected "no answer" outcome
// rather than a failure.
func IsDomainError(err error) bool {
	return errors.Is(err, aggregator.ErrEmptyResult) || errors.Is(err, aggregator.ErrNoQualifyingEntry)
}

// Outcome classifies err for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case IsDomainError(err):
		return metrics.OutcomeEmpty
	case errors.Is(err, ErrDatasetNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

func (s *Service) observe(kind string, err error, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveQuery(kind, Outcome(err), time.Since(start))
	}
}

// record stores answered queries and domain errors. Other failures are not
// answers and are not recorded.
func (s *Service) record(datasetID, kind, team string, side model.Side, area, result string, err error) {
	if s.noRecord {
		return
	}
	run := model.AnalysisRun{
		DatasetID: datasetID,
		Kind:      kind,
		Team:      team,
		Side:      side.String(),
		Area:      area,
	}
	switch {
	case err == nil:
		run.Result = result
	case IsDomainError(err):
		run.Err = err.Error()
	default:
		return
	}
	if _, rerr := s.store.InsertRun(run); rerr != nil {
		s.log.Warn().Err(rerr).Str("kind", kind).Msg("record run")
	}
}
