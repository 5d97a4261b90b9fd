package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/provider"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Provider reads session archives from a directory.
// Each session is stored in one file named <year>_<race>_<session> with
// extension .json, .yaml or .yml. Race names are lowercased, spaces are
// replaced by underscores.
// Parsed documents are kept until the file changes (see Watch).
type Provider struct {
	dir  string
	log  *log.Logger
	mu   sync.RWMutex
	docs map[string]map[string]any
}

type Option func(*Provider)

func WithLogger(l *log.Logger) Option {
	return func(p *Provider) {
		p.log = l
	}
}

func New(dir string, opts ...Option) *Provider {
	ret := &Provider{
		dir:  dir,
		log:  log.Default().Named("provider.file"),
		docs: map[string]map[string]any{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

var _ provider.Provider = (*Provider)(nil)

func FileName(key model.SessionKey) string {
	race := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key.Race)), " ", "_")
	return fmt.Sprintf("%d_%s_%s", key.Year, race, strings.ToLower(key.Session))
}

func (p *Provider) Load(
	ctx context.Context,
	key model.SessionKey,
	drivers []string,
) (*model.SessionData, error) {
	doc, err := p.document(key)
	if err != nil {
		return nil, err
	}
	selected := make(map[string]any, len(doc))
	for k, v := range doc {
		selected[k] = v
	}
	if len(drivers) > 0 {
		traces := []any{}
		for _, code := range drivers {
			t, err := selectTrace(doc, code)
			if err != nil {
				return nil, err
			}
			if t != nil {
				traces = append(traces, t)
			}
		}
		selected["traces"] = traces
	}

	var ret model.SessionData
	if err := json.Unmarshal([]byte(oj.JSON(selected)), &ret); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	if ret.Key.Year == 0 {
		ret.Key = key
	}
	for i := range ret.Laps {
		ret.Laps[i].Compound = model.ParseCompound(string(ret.Laps[i].Compound))
	}
	p.log.Debug("session loaded",
		log.String("session", key.String()),
		log.Int("traces", len(ret.Traces)),
		log.Int("laps", len(ret.Laps)))
	return &ret, nil
}

func selectTrace(doc map[string]any, code string) (any, error) {
	path, err := jp.ParseString(fmt.Sprintf(`$.traces[?(@.driver.code == %q)]`, code))
	if err != nil {
		return nil, err
	}
	res := path.Get(doc)
	if len(res) == 0 {
		return nil, nil
	}
	return res[0], nil
}

func (p *Provider) document(key model.SessionKey) (map[string]any, error) {
	name := FileName(key)
	p.mu.RLock()
	doc, ok := p.docs[name]
	p.mu.RUnlock()
	if ok {
		return doc, nil
	}

	for _, ext := range extensions {
		file := filepath.Join(p.dir, name+ext)
		data, err := os.ReadFile(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if doc, err = parse(ext, data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		p.log.Info("archive parsed", log.String("file", file))
		p.mu.Lock()
		p.docs[name] = doc
		p.mu.Unlock()
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %s", provider.ErrSessionNotFound, key)
}

func parse(ext string, data []byte) (map[string]any, error) {
	var raw any
	var err error
	if ext == ".json" {
		if raw, err = oj.Parse(data); err != nil {
			// archives written by pandas contain bare NaN/Infinity literals,
			// the yaml parser accepts them as plain scalars
			if yaml.Unmarshal(data, &raw) != nil {
				return nil, err
			}
			err = nil
		}
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, err
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("archive root must be an object, got %T", raw)
	}
	if err := scrub(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// nonFiniteLiterals are the spellings of NaN and Inf that reach us as strings
var nonFiniteLiterals = map[string]bool{
	"NaN": true, "nan": true, ".nan": true,
	"Infinity": true, "-Infinity": true, "+Infinity": true,
	"inf": true, "-inf": true,
}

// numericKeys are the json names of the optional numeric fields of samples,
// traces and laps
var numericKeys = map[string]bool{
	"time": true, "distance": true, "x": true, "y": true, "speed": true,
	"gear": true, "throttle": true, "lapTime": true, "sector1": true,
	"sector2": true, "sector3": true, "sector1Time": true, "sector2Time": true,
	"sector3Time": true, "stint": true, "tyreLife": true,
}

// scrub replaces NaN and Inf values with null so that a single broken
// reading only removes that value, not the whole session.
func scrub(doc map[string]any) error {
	var found []jp.Expr
	jp.Walk(doc, func(path jp.Expr, value any) {
		if nonFinite(path, value) {
			found = append(found, append(jp.Expr{}, path...))
		}
	}, true)
	for _, path := range found {
		if err := path.SetOne(doc, nil); err != nil {
			return fmt.Errorf("scrub %s: %w", path, err)
		}
	}
	return nil
}

func nonFinite(path jp.Expr, value any) bool {
	switch v := value.(type) {
	case float64:
		return math.IsNaN(v) || math.IsInf(v, 0)
	case float32:
		return math.IsNaN(float64(v)) || math.IsInf(float64(v), 0)
	case string:
		if !nonFiniteLiterals[v] || len(path) == 0 {
			return false
		}
		key, ok := path[len(path)-1].(jp.Child)
		return ok && numericKeys[string(key)]
	}
	return false
}

// Invalidate drops the parsed document of file name (without directory).
func (p *Provider) Invalidate(file string) {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.docs[name]; ok {
		p.log.Info("archive changed, dropping parsed data", log.String("file", file))
		delete(p.docs, name)
	}
}

// Watch drops parsed documents when their files change.
// Blocks until ctx is done.
func (p *Provider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(p.dir); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			p.log.Debug("context done, stopping archive watch")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			p.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				p.Invalidate(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Error("watcher error", log.ErrorField(err))
		}
	}
}
