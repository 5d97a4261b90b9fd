package util

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/pgx-contrib/pgxtrace"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/colors"
	"github.com/mpapenbr/raceanalysis-service/pkg/config"
	"github.com/mpapenbr/raceanalysis-service/pkg/db/postgres"
	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/partition"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/sections"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/factory"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/impl/memory"
	natsStore "github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/impl/nats"
	pgStore "github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/impl/postgres"
	redisStore "github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/impl/redis"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the process logger and installs it as default.
// A log config file takes precedence over level and format flags.
func SetupLogger() *log.Logger {
	var logger *log.Logger
	if config.LogConfig != "" {
		cfg, err := log.LoadConfig(config.LogConfig)
		if err == nil {
			logger, err = log.NewFromConfig(os.Stderr, cfg,
				log.WithCaller(true), log.AddCallerSkip(1))
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not use log config %s: %v\n", config.LogConfig, err)
		}
	}
	if logger == nil {
		switch config.LogFormat {
		case "json":
			logger = log.New(
				os.Stderr,
				ParseLogLevel(config.LogLevel, log.InfoLevel),
				log.WithCaller(true),
				log.AddCallerSkip(1))
		default:
			logger = log.DevLogger(
				os.Stderr,
				ParseLogLevel(config.LogLevel, log.DebugLevel),
				log.WithCaller(true),
				log.AddCallerSkip(1))
		}
	}
	log.ResetDefault(logger)
	return logger
}

// ProcessorConfig collects the analysis parameters from the config values
func ProcessorConfig() (processing.Config, error) {
	ret := processing.DefaultConfig()
	policy, err := model.ParsePartitionPolicy(config.PartitionPolicy)
	if err != nil {
		return ret, &model.InvalidPartitionConfigError{
			Count:  config.Segments,
			Policy: model.PartitionPolicy(config.PartitionPolicy),
			Reason: "unknown policy",
		}
	}
	ret.Partition = partition.Config{Policy: policy, Segments: config.Segments}
	if err := ret.Partition.Validate(); err != nil {
		return ret, err
	}
	ret.Thresholds = sections.Thresholds{
		FullThrottle:   config.FullThrottle,
		CorneringSpeed: config.CorneringSpeed,
	}
	return ret, nil
}

// NewProcessor uses the team and driver colors of the config file
// (keys team-colors and driver-colors) on top of the default palette.
func NewProcessor(cfg processing.Config) *processing.Processor {
	return processing.NewProcessor(
		processing.WithConfig(cfg),
		processing.WithColors(colors.NewStatic(
			colors.WithTeamColors(viper.GetStringMapString("team-colors")),
			colors.WithDriverColors(viper.GetStringMapString("driver-colors")),
		)),
		processing.WithLogger(log.Default().Named("analysis")),
	)
}

func ParseDuration(value string, defaultVal time.Duration) time.Duration {
	if value == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn("Invalid duration value. Using default",
			log.String("value", value),
			log.Duration("default", defaultVal),
			log.ErrorField(err))
		return defaultVal
	}
	return d
}

// WaitForRequiredServices blocks until the services of the configured
// cache backend accept tcp connections.
func WaitForRequiredServices(ctx context.Context) {
	timeout := ParseDuration(config.WaitForServices, 60*time.Second)

	var addr string
	switch factory.StoreType(config.CacheBackend) {
	case pgStore.StoreTypePostgres:
		addr = utils.ExtractFromDBURL(config.DB)
	case redisStore.StoreTypeRedis:
		addr = utils.ExtractFromServiceURL(config.RedisURL)
	case natsStore.StoreTypeNats:
		addr = utils.ExtractFromServiceURL(config.NatsURL)
	}
	if addr == "" {
		return
	}
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
	}()
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

// NewStore creates the result store of the configured backend.
// The returned func releases the connections of the store.
//
//nolint:funlen,cyclop // one case per backend
func NewStore(ctx context.Context, telemetry bool) (cache.Store, func(), error) {
	common := []cache.Option{cache.WithTTL(ParseDuration(config.CacheTTL, 0))}
	noop := func() {}
	storeType := factory.StoreType(config.CacheBackend)
	if config.CacheBackend == "" || config.CacheBackend == config.CacheNone {
		return cache.Noop{}, noop, nil
	}
	if !factory.Supported(storeType) {
		return nil, noop, fmt.Errorf("%w: %s", factory.ErrTypeNotSupported, storeType)
	}

	switch storeType {
	case memory.StoreTypeMemory:
		s, err := factory.New[cache.Store, memory.Option](storeType, common, nil)
		return s, noop, err

	case redisStore.StoreTypeRedis:
		opts, err := goredis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		client := goredis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, noop, err
		}
		s, err := factory.New[cache.Store, redisStore.Option](storeType, common,
			[]redisStore.Option{redisStore.WithClient(client)})
		return s, func() { client.Close() }, err

	case natsStore.StoreTypeNats:
		nc, err := nats.Connect(config.NatsURL, nats.Name("ras"))
		if err != nil {
			return nil, noop, err
		}
		s, err := factory.New[cache.Store, natsStore.Option](storeType, common,
			[]natsStore.Option{
				natsStore.WithNATS(nc),
				natsStore.WithBucket(config.NatsBucket),
			})
		return s, func() { nc.Close() }, err

	case pgStore.StoreTypePostgres:
		pool, err := newPool(ctx, telemetry)
		if err != nil {
			return nil, noop, err
		}
		s, err := factory.New[cache.Store, pgStore.Option](storeType, common,
			[]pgStore.Option{pgStore.WithPool(pool)})
		return s, pool.Close, err
	}
	return nil, noop, fmt.Errorf("%w: %s", factory.ErrTypeNotSupported, storeType)
}

func newPool(ctx context.Context, telemetry bool) (*pgxpool.Pool, error) {
	sqlLogger := log.Default().Named("sql").WithOptions(
		log.IncreaseLevel(ParseLogLevel(config.SQLLogLevel, log.DebugLevel)))
	pgTracer := pgxtrace.CompositeQueryTracer{
		postgres.NewLogTracer(sqlLogger),
	}
	if telemetry {
		pgTracer = append(pgTracer, postgres.NewOtlpTracer())
	}
	return postgres.InitWithURL(ctx, config.DB, postgres.WithTracer(pgTracer))
}
