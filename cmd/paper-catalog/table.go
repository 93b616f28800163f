// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage the catalog table",
}

var tableCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision the table and its secondary indexes",
	Long: `Create provisions the DynamoDB table with its AuthorIndex, PaperIdIndex
and KeywordIndex global secondary indexes, then waits until the table is
active. An existing table is reported, not treated as an error. For the
SQLite backend the schema is created when the database is opened.`,
	Args: cobra.NoArgs,
	RunE: runTableCreate,
}

func runTableCreate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	wait, _ := cmd.Flags().GetDuration("wait")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := openTable(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer table.Close()

	return createTable(ctx, table, wait)
}

func init() {
	tableCreateCmd.Flags().Duration("wait", 5*time.Minute, "how long to wait for the table to become active (0 skips waiting)")

	tableCmd.AddCommand(tableCreateCmd)
	rootCmd.AddCommand(tableCmd)
}
