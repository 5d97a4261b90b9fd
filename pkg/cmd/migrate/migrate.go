package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/cmd/util"
	"github.com/mpapenbr/raceanalysis-service/pkg/config"
	dbMigrate "github.com/mpapenbr/raceanalysis-service/pkg/db/migrate"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils"
)

var statusOnly bool

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "creates or updates the tables of the postgres result store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&statusOnly,
		"status",
		false,
		"only print the current schema version")
	return cmd
}

func startMigration(ctx context.Context) error {
	util.SetupLogger()
	if ctx == nil {
		ctx = context.Background()
	}
	// wait for database
	timeout := util.ParseDuration(config.WaitForServices, 60*time.Second)
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if postgresAddr == "" {
		return fmt.Errorf("cannot extract database address from %q", config.DB)
	}
	if err := utils.WaitForTCP(ctx, postgresAddr, timeout); err != nil {
		log.Error("database not ready", log.ErrorField(err))
		return err
	}
	dbURL := prepareURLForDB(config.DB)

	if !statusOnly {
		if err := dbMigrate.MigrateDb(dbURL); err != nil {
			log.Error("migration failed", log.ErrorField(err))
			return err
		}
	}
	version, dirty, err := dbMigrate.Version(dbURL)
	if err != nil {
		return err
	}
	log.Info("Schema version", log.Int("version", int(version)), log.Bool("dirty", dirty))
	return nil
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
