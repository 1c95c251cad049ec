package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/geofeatures/internal/db"
)

var (
	waitTimeout  time.Duration
	waitInterval time.Duration
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database utilities",
}

var dbWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the database accepts connections",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		timeout := waitTimeout
		if timeout == 0 {
			timeout = time.Duration(cfg.Wait.TimeoutSecs) * time.Second
		}
		interval := waitInterval
		if interval == 0 {
			interval = time.Duration(cfg.Wait.IntervalSecs) * time.Second
		}

		elapsed, err := db.WaitReady(cmd.Context(), cfg.Store.DatabaseURL, interval, timeout, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "database ready after %s\n", elapsed.Round(time.Millisecond))
		return nil
	},
}

func init() {
	dbWaitCmd.Flags().DurationVar(&waitTimeout, "timeout", 0, "give up after this long (default from config)")
	dbWaitCmd.Flags().DurationVar(&waitInterval, "interval", 0, "delay between attempts (default from config)")
	dbCmd.AddCommand(dbWaitCmd)
	rootCmd.AddCommand(dbCmd)
}
