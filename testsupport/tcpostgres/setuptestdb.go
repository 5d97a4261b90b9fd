//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/raceanalysis-service/pkg/db/migrate"
	database "github.com/mpapenbr/raceanalysis-service/pkg/db/postgres"
)

const (
	image    = "postgres:17"
	user     = "postgres"
	password = "password"
	dbName   = "raceanalysis"
)

type ContainerOption func(req *testcontainers.ContainerRequest)

func WithImage(img string) ContainerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Image = img
	}
}

// StartPostgres runs a reusable postgres container and returns the
// connection url of its database
func StartPostgres(ctx context.Context, opts ...ContainerOption) (string, error) {
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		return "", err
	}
	req := testcontainers.ContainerRequest{
		Image:        image,
		Name:         "raceanalysis-service-test",
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		Cmd: []string{"postgres", "-c", "fsync=off"},
		// the server restarts once after the init scripts
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}
	for _, opt := range opts {
		opt(&req)
	}
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            true,
		})
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		user, password, host, mapped.Port(), dbName), nil
}

// SetupTestDb creates a pg connection pool for the cache test database.
// If TESTDB_URL is set that database is used instead of a container,
// TESTDB_IMAGE replaces the default postgres image.
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	dbURL := os.Getenv("TESTDB_URL")
	if dbURL == "" {
		var opts []ContainerOption
		if img := os.Getenv("TESTDB_IMAGE"); img != "" {
			opts = append(opts, WithImage(img))
		}
		var err error
		if dbURL, err = StartPostgres(ctx, opts...); err != nil {
			log.Fatal(err)
		}
	}
	if err := migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithURL(ctx, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearCacheTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from analysis_cache")
}
