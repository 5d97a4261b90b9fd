package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"moul.io/zapfilter"
)

// Config is read from the file given by --log-config.
//
// Example:
//
//	defaultLevel: info
//	format: json
//	filters:
//	  - "debug+:service.*"
//	  - "debug+:analysis.partition"
type Config struct {
	DefaultLevel string   `yaml:"defaultLevel"`
	Format       string   `yaml:"format"`
	Filters      []string `yaml:"filters"`
}

func LoadConfig(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse log config %s: %w", file, err)
	}
	return cfg, nil
}

// NewFromConfig creates a logger whose levels are controlled per logger name.
// Filter rules use the zapfilter syntax and are OR'ed, so they can only make a
// namespace more verbose than the default level (appended as catch-all rule).
func NewFromConfig(writer io.Writer, cfg *Config, opts ...Option) (*Logger, error) {
	level := InfoLevel
	if cfg.DefaultLevel != "" {
		var err error
		if level, err = ParseLevel(cfg.DefaultLevel); err != nil {
			return nil, err
		}
	}
	rules := append([]string{}, cfg.Filters...)
	rules = append(rules, fmt.Sprintf("%s+:*", level.String()))
	filter, err := zapfilter.ParseRules(strings.Join(rules, " "))
	if err != nil {
		return nil, fmt.Errorf("parse log filters: %w", err)
	}

	var enc zapcore.Encoder
	if cfg.Format == "json" {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.RFC3339TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	}
	// the filter decides, so the core itself must let everything through
	core := zapcore.NewCore(enc, zapcore.AddSync(writer), DebugLevel)
	return fromCore(zapfilter.NewFilteringCore(core, filter), level, opts...), nil
}
