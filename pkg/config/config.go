package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DataDir            string  // directory holding the session archives
	WatchDataDir       bool    // if true, changed archives are reloaded
	Segments           int     // number of mini sectors for track dominance
	PartitionPolicy    string  // distance, time or angle
	FullThrottle       float64 // throttle value (percent) treated as full throttle
	CorneringSpeed     float64 // speed (km/h) below which a sample counts as cornering
	CacheBackend       string  // none, memory, redis, nats, postgres
	CacheTTL           string  // lifetime of cached analysis results (0 = forever)
	SessionTTL         string  // lifetime of loaded session data in memory
	DB                 string  // connection string for the database (postgres cache)
	RedisURL           string  // redis url (redis cache)
	NatsURL            string  // nats url (nats cache)
	NatsBucket         string  // name of the KV bucket (nats cache)
	WaitForServices    string  // duration to wait for other services to be ready
	LogLevel           string  // sets the log level (zap log level values)
	SQLLogLevel        string  // sets the log level for sql subsystem
	LogFormat          string  // text vs json
	LogConfig          string  // path to log config file
	MigrationSourceURL string  // location of migration files
	EnableTelemetry    bool    // enable telemetry
	TelemetryEndpoint  string  // endpoint for telemetry (host:port or "stdout")
	ProfilingPort      int     // port for profiling
	ServerAddr         string  // listen addr for the http server
)

const (
	CacheNone = "none"
)
