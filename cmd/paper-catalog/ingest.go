// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-catalog/internal/ingest"
	"github.com/pdiddy/paper-catalog/internal/normalize"
	"github.com/pdiddy/paper-catalog/internal/store"
	"github.com/pdiddy/paper-catalog/internal/store/dynamostore"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <papers.json>",
	Short: "Load papers into the catalog",
	Long: `Ingest reads a JSON or YAML file holding a list of paper records (or an
object with a "papers" list), normalizes each record and writes its
category, author, id and keyword projections to the table.

Records without an identifier are skipped and counted. Re-ingesting a
paper overwrites its items. A store failure stops the run; the report
shows the items already written.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := normalize.LoadRecords(args[0])
	if err != nil {
		return err
	}

	table, err := openTable(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer table.Close()

	if cfg.Ingest.CreateTable {
		if err := createTable(ctx, table, 5*time.Minute); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "Loading %d papers from %s...\n", len(records), args[0])

	writer := store.NewWriter(table,
		store.WithMaxRetries(cfg.Store.MaxRetries),
		store.WithLogger(logger))
	pipeline := ingest.NewPipeline(writer,
		ingest.WithKeywords(cfg.Ingest.Keywords),
		ingest.WithWorkers(cfg.Ingest.Workers),
		ingest.WithLogger(logger))

	report, err := pipeline.Run(ctx, records, os.Stdout)
	fmt.Fprintln(os.Stdout)
	report.Print(os.Stdout)
	if err != nil {
		logger.Error("ingestion failed", zap.String("run_id", report.RunID), zap.Error(err))
		return err
	}
	return nil
}

// createTable provisions the DynamoDB table; the SQLite schema already
// exists once the table is open.
func createTable(ctx context.Context, table store.Table, wait time.Duration) error {
	dt, ok := table.(*dynamostore.Table)
	if !ok {
		fmt.Fprintln(os.Stdout, "SQLite schema is created on open; nothing to provision.")
		return nil
	}
	created, err := dt.CreateTable(ctx, wait)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(os.Stdout, "Created DynamoDB table: %s\n", dt.Name())
	} else {
		fmt.Fprintf(os.Stdout, "Table %s already exists.\n", dt.Name())
	}
	return nil
}

func init() {
	ingestCmd.Flags().Int("workers", 0, "papers ingested concurrently (default 4)")
	ingestCmd.Flags().Int("keywords", 0, "keywords extracted per abstract (default 10)")
	ingestCmd.Flags().Bool("create-table", false, "provision the table before loading")

	mustBind(viper.BindPFlag("ingest.workers", ingestCmd.Flags().Lookup("workers")))
	mustBind(viper.BindPFlag("ingest.keywords", ingestCmd.Flags().Lookup("keywords")))
	mustBind(viper.BindPFlag("ingest.create_table", ingestCmd.Flags().Lookup("create-table")))

	rootCmd.AddCommand(ingestCmd)
}
