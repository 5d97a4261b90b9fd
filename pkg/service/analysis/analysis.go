//nolint:whitespace //can't make both the linter and editor happy :(
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/partition"
	"github.com/mpapenbr/raceanalysis-service/pkg/provider"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/loadercache"
)

const (
	KindSpeedTrace     = "speed-trace"
	KindGearShifts     = "gear-shifts"
	KindTrackDominance = "track-dominance"
	KindRacePace       = "race-pace"
	KindTeamPace       = "team-pace"
	KindLapSections    = "lap-sections"
	KindLaps           = "laps"
)

var meter = otel.Meter("analysis-service")

type sessionRequest struct {
	key     model.SessionKey
	drivers string
}

// Service runs analyses on sessions delivered by a provider.
// Results are memoized in a Store, the raw session data is kept for a
// short time in memory.
type Service struct {
	provider   provider.Provider
	store      cache.Store
	proc       *processing.Processor
	sessions   cache.Cache[sessionRequest, model.SessionData]
	log        *log.Logger
	tracer     trace.Tracer
	sessionTTL time.Duration

	computeRecorder metric.Float64Histogram
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

type Option func(*Service)

func WithProvider(p provider.Provider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

func WithStore(st cache.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

func WithProcessor(p *processing.Processor) Option {
	return func(s *Service) {
		s.proc = p
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithSessionTTL sets how long raw session data is kept in memory.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		s.sessionTTL = d
	}
}

func NewService(opts ...Option) *Service {
	ret := &Service{
		store:      cache.Noop{},
		log:        log.Default().Named("service.analysis"),
		sessionTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("ras")
	}
	if ret.proc == nil {
		ret.proc = processing.NewProcessor()
	}
	ret.sessions = loadercache.New(
		loadercache.WithLoader(ret.loadSession),
		loadercache.WithExpiration[sessionRequest, model.SessionData](ret.sessionTTL),
		loadercache.WithMaxItems[sessionRequest, model.SessionData](32),
		loadercache.WithLogger[sessionRequest, model.SessionData](ret.log.Named("sessions")),
	)
	ret.computeRecorder, _ = meter.Float64Histogram("analysis_compute",
		metric.WithDescription("computation of an analysis result"),
		metric.WithUnit("s"))
	ret.cacheHits, _ = meter.Int64Counter("analysis_cache_hits",
		metric.WithDescription("analysis results served from the result store"))
	ret.cacheMisses, _ = meter.Int64Counter("analysis_cache_misses",
		metric.WithDescription("analysis results computed"))
	return ret
}

// CacheKey identifies an analysis result. Driver order is significant.
func CacheKey(key model.SessionKey, kind string, drivers []string, params string) string {
	return fmt.Sprintf("%s/%s/%s/%s", key, kind, strings.Join(drivers, ","), params)
}

func (s *Service) SpeedTrace(
	ctx context.Context,
	key model.SessionKey,
	drivers []string,
	axis model.Axis,
) (*model.SpeedTrace, error) {
	return run(ctx, s, KindSpeedTrace, key, drivers, string(axis), drivers,
		func(data *model.SessionData) (*model.SpeedTrace, error) {
			return s.proc.SpeedTrace(data, drivers, axis)
		})
}

func (s *Service) GearShifts(
	ctx context.Context,
	key model.SessionKey,
	driver string,
) (*model.GearShiftMap, error) {
	drivers := []string{driver}
	return run(ctx, s, KindGearShifts, key, drivers, "", drivers,
		func(data *model.SessionData) (*model.GearShiftMap, error) {
			return s.proc.GearShifts(data, driver)
		})
}

func (s *Service) TrackDominance(
	ctx context.Context,
	key model.SessionKey,
	drivers []string,
	cfg partition.Config,
) (*model.TrackDominance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return run(ctx, s, KindTrackDominance, key, drivers, cfg.String(), drivers,
		func(data *model.SessionData) (*model.TrackDominance, error) {
			return s.proc.TrackDominance(data, drivers, cfg)
		})
}

func (s *Service) RacePace(
	ctx context.Context,
	key model.SessionKey,
	drivers []string,
) (*model.RacePace, error) {
	return run(ctx, s, KindRacePace, key, drivers, "", nil,
		func(data *model.SessionData) (*model.RacePace, error) {
			return s.proc.RacePace(data, drivers)
		})
}

func (s *Service) TeamPace(ctx context.Context, key model.SessionKey) (*model.TeamPace, error) {
	return run(ctx, s, KindTeamPace, key, nil, "", nil, s.proc.TeamPace)
}

func (s *Service) LapSections(
	ctx context.Context,
	key model.SessionKey,
	drivers []string,
) (*model.LapSections, error) {
	th := s.proc.Config().Thresholds
	params := fmt.Sprintf("%g:%g", th.FullThrottle, th.CorneringSpeed)
	return run(ctx, s, KindLapSections, key, drivers, params, drivers,
		func(data *model.SessionData) (*model.LapSections, error) {
			return s.proc.LapSections(data, drivers)
		})
}

func (s *Service) Laps(ctx context.Context, key model.SessionKey) (*model.LapListing, error) {
	return run(ctx, s, KindLaps, key, nil, "", nil,
		func(data *model.SessionData) (*model.LapListing, error) {
			return s.proc.Laps(data), nil
		})
}

// run serves the result from the store or computes and stores it.
// Failures of the store are logged but never fail the request.
//
//nolint:funlen // ok
func run[T any](
	ctx context.Context,
	s *Service,
	kind string,
	key model.SessionKey,
	drivers []string,
	params string,
	traceDrivers []string,
	compute func(*model.SessionData) (*T, error),
) (*T, error) {
	ctx, span := s.tracer.Start(ctx, kind, trace.WithAttributes(
		attribute.String("session", key.String()),
		attribute.StringSlice("drivers", drivers),
		attribute.String("params", params),
	))
	defer span.End()
	kindAttr := metric.WithAttributes(attribute.String("analysis", kind))
	l := log.GetFromContext(ctx).Named("service.analysis")

	ck := CacheKey(key, kind, drivers, params)
	data, err := s.store.Get(ctx, ck)
	switch {
	case err == nil:
		var ret T
		if err := json.Unmarshal(data, &ret); err == nil {
			s.cacheHits.Add(ctx, 1, kindAttr)
			span.SetAttributes(attribute.Bool("cached", true))
			return &ret, nil
		}
		l.Warn("could not decode stored result", log.String("key", ck), log.ErrorField(err))
	case !errors.Is(err, cache.ErrCacheMiss):
		l.Warn("result store lookup failed", log.String("key", ck), log.ErrorField(err))
	}
	s.cacheMisses.Add(ctx, 1, kindAttr)

	session, err := s.sessions.Get(ctx, sessionRequest{key: key, drivers: strings.Join(traceDrivers, ",")})
	if err != nil {
		return nil, failed(span, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, failed(span, err)
	}
	start := time.Now()
	ret, err := compute(session)
	s.computeRecorder.Record(ctx, time.Since(start).Seconds(), kindAttr)
	if err != nil {
		l.Debug("analysis failed", log.String("key", ck), log.ErrorField(err))
		return nil, failed(span, err)
	}

	if data, err := json.Marshal(ret); err != nil {
		l.Warn("could not encode result", log.String("key", ck), log.ErrorField(err))
	} else if err := s.store.PutIfAbsent(ctx, ck, data); err != nil {
		l.Warn("could not store result", log.String("key", ck), log.ErrorField(err))
	}
	return ret, nil
}

func failed(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// provider failures are reported once as UpstreamDataError
func (s *Service) loadSession(ctx context.Context, req sessionRequest) (*model.SessionData, error) {
	if s.provider == nil {
		return nil, &model.UpstreamDataError{Session: req.key, Err: errors.New("no provider configured")}
	}
	var drivers []string
	if req.drivers != "" {
		drivers = strings.Split(req.drivers, ",")
	}
	data, err := s.provider.Load(ctx, req.key, drivers)
	if err != nil {
		var upstream *model.UpstreamDataError
		if errors.As(err, &upstream) {
			return nil, err
		}
		return nil, &model.UpstreamDataError{Session: req.key, Err: err}
	}
	return data, nil
}
