package testdb

import (
	"github.com/jackc/pgx/v5/pgxpool"

	tcpg "github.com/mpapenbr/raceanalysis-service/testsupport/tcpostgres"
)

func InitTestDb() *pgxpool.Pool {
	pool := tcpg.SetupTestDb()
	tcpg.ClearCacheTable(pool)
	return pool
}
