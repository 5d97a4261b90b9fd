package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // profiling endpoint
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/cmd/util"
	"github.com/mpapenbr/raceanalysis-service/pkg/config"
	"github.com/mpapenbr/raceanalysis-service/pkg/endpoints/analysis"
	"github.com/mpapenbr/raceanalysis-service/pkg/provider/file"
	analysisService "github.com/mpapenbr/raceanalysis-service/pkg/service/analysis"
	natsStore "github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/impl/nats"
)

//nolint:funlen // flag definitions
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"server-addr",
		"a",
		"localhost:8080",
		"http server listen address")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (use stdout for console output)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().BoolVar(&config.WatchDataDir,
		"watch",
		true,
		"reload session archives when they change")
	cmd.Flags().StringVar(&config.CacheBackend,
		"cache-backend",
		config.CacheNone,
		"store for analysis results (none, memory, redis, nats, postgres)")
	cmd.Flags().StringVar(&config.CacheTTL,
		"cache-ttl",
		"0",
		"lifetime of stored analysis results (0: no expiration)")
	cmd.Flags().StringVar(&config.SessionTTL,
		"session-ttl",
		"10m",
		"how long loaded session data is kept in memory")
	cmd.Flags().StringVar(&config.RedisURL,
		"redis-url",
		"redis://localhost:6379/0",
		"redis url (cache-backend redis)")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"nats://localhost:4222",
		"nats url (cache-backend nats)")
	cmd.Flags().StringVar(&config.NatsBucket,
		"nats-bucket",
		natsStore.DefaultBucket,
		"name of the KV bucket (cache-backend nats)")
	return cmd
}

//nolint:funlen,cyclop // startup sequence
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := util.SetupLogger()
	var telemetry *config.Telemetry

	log.Debug("Config:",
		log.String("dataDir", config.DataDir),
		log.String("cacheBackend", config.CacheBackend),
		log.String("policy", config.PartitionPolicy),
		log.Int("segments", config.Segments),
	)

	procCfg, err := util.ProcessorConfig()
	if err != nil {
		log.Error("invalid analysis configuration", log.ErrorField(err))
		return err
	}

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // profiling endpoint
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	util.WaitForRequiredServices(ctx)

	telemetryEnabled := false
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err = config.SetupTelemetry(ctx); err == nil {
			telemetryEnabled = true
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	store, closeStore, err := util.NewStore(ctx, telemetryEnabled)
	if err != nil {
		log.Error("could not create result store", log.ErrorField(err))
		return err
	}
	defer closeStore()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	archive := file.New(config.DataDir, file.WithLogger(logger.Named("provider.file")))
	if config.WatchDataDir {
		go func() {
			if err := archive.Watch(watchCtx); err != nil {
				log.Warn("archive watch stopped", log.ErrorField(err))
			}
		}()
	}

	svc := analysisService.NewService(
		analysisService.WithProvider(archive),
		analysisService.WithStore(store),
		analysisService.WithProcessor(util.NewProcessor(procCfg)),
		analysisService.WithSessionTTL(util.ParseDuration(config.SessionTTL, 10*time.Minute)),
	)
	mux := http.NewServeMux()
	analysis.New(svc, analysis.WithPartition(procCfg.Partition)).Register(mux)

	handler := otelhttp.NewHandler(newCORS().Handler(analysis.RequestID(mux)), "ras")
	server := &http.Server{
		Addr:              config.ServerAddr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting http server", log.String("addr", config.ServerAddr))
		serverErr <- server.ListenAndServe()
	}()
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server could not be started", log.ErrorField(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", log.ErrorField(err))
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return nil
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func newCORS() *cors.Cors {
	// the api is read only and public
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Content-Encoding",
			analysis.RequestIDHeader,
		},
		// FF caps this value at 24h, Chrome at 2h
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
