package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/idextract/internal/repository"
)

var dbhealthTimeout time.Duration

var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Ping the job database and report recent job counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.HealthCheck(ctx, dbhealthTimeout); err != nil {
			return fmt.Errorf("DB health: FAIL (%w)", err)
		}
		jobs, err := repository.NewExtractJobRepository(db, logger).List(ctx, repository.ListFilter{Limit: 100})
		if err != nil {
			return err
		}
		byStatus := map[string]int{}
		for _, j := range jobs {
			byStatus[j.Status]++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK (%s)\n", db.Dialect())
		fmt.Fprintf(cmd.OutOrStdout(), "last %d jobs: %v\n", len(jobs), byStatus)
		return nil
	},
}

func init() {
	dbhealthCmd.Flags().DurationVar(&dbhealthTimeout, "timeout", time.Second, "ping timeout")
	rootCmd.AddCommand(dbhealthCmd)
}
