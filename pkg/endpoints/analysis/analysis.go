//nolint:whitespace // can't make both editor and linter happy
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/align"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/partition"
	"github.com/mpapenbr/raceanalysis-service/pkg/provider"
	"github.com/mpapenbr/raceanalysis-service/version"
)

const (
	raceSession     = "R"
	RequestIDHeader = "X-Request-Id"
)

var errBadRequest = errors.New("bad request")

// Analyzer is implemented by the analysis service
type Analyzer interface {
	SpeedTrace(ctx context.Context, key model.SessionKey, drivers []string,
		axis model.Axis) (*model.SpeedTrace, error)
	GearShifts(ctx context.Context, key model.SessionKey,
		driver string) (*model.GearShiftMap, error)
	TrackDominance(ctx context.Context, key model.SessionKey, drivers []string,
		cfg partition.Config) (*model.TrackDominance, error)
	RacePace(ctx context.Context, key model.SessionKey,
		drivers []string) (*model.RacePace, error)
	TeamPace(ctx context.Context, key model.SessionKey) (*model.TeamPace, error)
	LapSections(ctx context.Context, key model.SessionKey,
		drivers []string) (*model.LapSections, error)
	Laps(ctx context.Context, key model.SessionKey) (*model.LapListing, error)
}

type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type (
	resultFunc      func(r *http.Request) (any, error)
	endpointHandler struct {
		pattern string
		handler func(*Endpoints) resultFunc
	}
	Endpoints struct {
		svc       Analyzer
		partition partition.Config
		log       *log.Logger
	}
	Option func(*Endpoints)
)

var endpoints = []endpointHandler{
	{pattern: "/api/speed-trace/{year}/{race}/{session}/{d1}/{d2}", handler: speedTrace},
	{pattern: "/api/gear-shifts/{year}/{race}/{session}/{driver}", handler: gearShifts},
	{pattern: "/api/track-dominance/{year}/{race}/{session}", handler: trackDominance},
	{pattern: "/api/race-pace/{year}/{race}", handler: racePace},
	{pattern: "/api/team-pace/{year}/{race}", handler: teamPace},
	{pattern: "/api/lap-sections/{year}/{race}/{session}", handler: lapSections},
	{pattern: "/api/laps/{year}/{race}/{session}", handler: laps},
	{pattern: "/api/version", handler: getVersion},
}

// WithPartition sets the partition used when a request does not name one
func WithPartition(cfg partition.Config) Option {
	return func(e *Endpoints) {
		e.partition = cfg
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Endpoints) {
		e.log = l
	}
}

func New(svc Analyzer, opts ...Option) *Endpoints {
	ret := &Endpoints{
		svc:       svc,
		partition: partition.DefaultConfig(),
		log:       log.Default().Named("endpoints"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Register adds all GET routes to mux
func (e *Endpoints) Register(mux *http.ServeMux) {
	for _, ep := range endpoints {
		e.log.Debug("register endpoint", log.String("pattern", ep.pattern))
		mux.Handle("GET "+ep.pattern, e.wrap(ep.handler(e)))
	}
}

func (e *Endpoints) wrap(f resultFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := f(r)
		if err != nil {
			status := StatusFor(err)
			l := log.GetFromContext(r.Context())
			if status >= http.StatusInternalServerError {
				l.Error("request failed", log.String("path", r.URL.Path), log.ErrorField(err))
			} else {
				l.Debug("request rejected", log.String("path", r.URL.Path),
					log.Int("status", status), log.ErrorField(err))
			}
			writeJSON(w, status, envelope{
				Message: err.Error(),
				Errors:  errorList(err),
			})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
	})
}

// StatusFor maps analysis errors to http status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrInvalidPartitionConfig),
		errors.Is(err, align.ErrUnknownAxis):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrSessionNotFound),
		errors.Is(err, model.ErrNoEligibleEntity):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUpstreamData):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrInsufficientGeometryData),
		errors.Is(err, model.ErrEmptyTrace):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// errorList returns the single messages of an errors.Join result
func errorList(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return lo.Map(joined.Unwrap(), func(e error, _ int) string { return e.Error() })
	}
	return []string{err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn("could not write response", log.ErrorField(err))
	}
}

// RequestID attaches a request id and a logger carrying it to the request
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		l := log.Default().Named("http").With(log.String("requestId", id))
		next.ServeHTTP(w, r.WithContext(log.AddToContext(r.Context(), l)))
	})
}

func sessionKey(r *http.Request, session string) (model.SessionKey, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return model.SessionKey{}, fmt.Errorf("%w: year %q", errBadRequest, r.PathValue("year"))
	}
	if session == "" {
		session = r.PathValue("session")
	}
	return model.SessionKey{
		Year:    year,
		Race:    r.PathValue("race"),
		Session: strings.ToUpper(session),
	}, nil
}

// driverList parses "VER, ham,,LEC" into [VER HAM LEC]
func driverList(r *http.Request) []string {
	raw := r.URL.Query().Get("drivers")
	if raw == "" {
		return nil
	}
	return lo.Uniq(lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(s))
	})))
}

func speedTrace(e *Endpoints) resultFunc {
	return func(r *http.Request) (any, error) {
		key, err := sessionKey(r, "")
		if err != nil {
			return nil, err
		}
		axis := model.AxisDistance
		if a := r.URL.Query().Get("axis"); a != "" {
			axis = model.Axis(strings.ToLower(a))
		}
		drivers := []string{
			strings.ToUpper(r.PathValue("d1")),
			strings.ToUpper(r.PathValue("d2")),
		}
		return e.svc.SpeedTrace(r.Context(), key, drivers, axis)
	}
}

func gearShifts(e *Endpoints) resultFunc {
	return func(r *http.Request) (any, error) {
		key, err := sessionKey(r, "")
		if err != nil {
			return nil, err
		}
		return e.svc.GearShifts(r.Context(), key, strings.ToUpper(r.PathValue("driver")))
	}
}

func trackDominance(e *Endpoints) resultFunc {
	return func(r *http.Request) (any, error) {
		key, err := sessionKey(r, "")
		if err != nil {
			return nil, err
		}
		cfg := e.partition
		q := r.URL.Query()
		if s := q.Get("sectors"); s != "" {
			if cfg.Segments, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("%w: sectors %q", errBadRequest, s)
			}
		}
		if p := q.Get("policy"); p != "" {
			if cfg.Policy, err = model.ParsePartitionPolicy(p); err != nil {
				return nil, &model.InvalidPartitionConfigError{
					Count:  cfg.Segments,
					Policy: model.PartitionPolicy(p),
					Reason: "unknown policy",
				}
			}
		}
		return e.svc.TrackDominance(r.Context(), key, driverList(r), cfg)
	}
}

func racePace(e *Endpoints) resultFunc {
	return func(r *http.Request) (any, error) {
		key, err := sessionKey(r, raceSession)
		if err != nil {
			return nil, err
		}
		return e.svc.RacePace(r.Context(), key, driverList(r))
	}
}

func teamPace(e *Endpoints) resultFunc {
	return func(r *http.Request) (any, error) {
		key, err := sessionKey(r, raceSession)
		if err != nil {
			return nil, err
		}
		return e.svc.TeamPace(r.Context(), key)
	}
}

func lapSections(e *Endpoints) resultFunc {
	return func(r *http.Request) (any, error) {
		key, err := sessionKey(r, "")
		if err != nil {
			return nil, err
		}
		return e.svc.LapSections(r.Context(), key, driverList(r))
	}
}

func laps(e *Endpoints) resultFunc {
	return func(r *http.Request) (any, error) {
		key, err := sessionKey(r, "")
		if err != nil {
			return nil, err
		}
		return e.svc.Laps(r.Context(), key)
	}
}

func getVersion(e *Endpoints) resultFunc {
	return func(r *http.Request) (any, error) {
		return map[string]string{"ownVersion": version.Version}, nil
	}
}
