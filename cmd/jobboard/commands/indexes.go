package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"jobboard/bootstrap"
	"jobboard/config"
	"jobboard/database"
	"jobboard/errors"
)

// IndexesCmd creates the MongoDB indexes, including the one-active-application constraint
var IndexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes",
	Long: `Create the indexes the API relies on. Safe to run repeatedly.

The unique partial index on applications (job_id, seeker_id where active) is what
keeps a seeker from holding two active applications for one job.`,
	RunE: runIndexes,
}

func runIndexes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.DriverMongo {
		return errors.Newf("indexes only apply to the mongo store, store.driver is %q", cfg.Store.Driver)
	}

	ctx := context.Background()
	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Disconnect(client)

	if err := bootstrap.EnsureIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to ensure indexes")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexes ensured on %s\n", cfg.Mongo.Database)
	return nil
}
