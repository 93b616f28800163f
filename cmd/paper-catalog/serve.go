// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-catalog/internal/metrics"
	"github.com/pdiddy/paper-catalog/internal/query"
	"github.com/pdiddy/paper-catalog/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query patterns over HTTP",
	Long: `Serve exposes the access patterns as JSON endpoints:

  GET /papers/recent?category=&limit=
  GET /papers/author/{author}
  GET /papers/{id}
  GET /papers/search?category=&start=&end=
  GET /papers/keyword/{keyword}?limit=

plus /metrics (Prometheus) and /healthz. With --lambda the same routes are
served behind the AWS Lambda runtime for API Gateway HTTP APIs.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := openTable(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer table.Close()

	collector := metrics.New()
	resolver := query.NewResolver(table,
		query.WithLogger(logger),
		query.WithMetrics(collector))
	srv := server.New(resolver,
		server.WithLogger(logger),
		server.WithMetrics(collector))

	if cfg.Serve.Lambda {
		logger.Info("starting lambda handler", zap.String("backend", string(cfg.Store.Backend)))
		lambda.StartWithOptions(srv.LambdaHandler(), lambda.WithContext(ctx))
		return nil
	}
	return srv.ListenAndServe(ctx, cfg.Serve.Addr)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("lambda", false, "run behind the AWS Lambda runtime")

	mustBind(viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr")))
	mustBind(viper.BindPFlag("serve.lambda", serveCmd.Flags().Lookup("lambda")))

	rootCmd.AddCommand(serveCmd)
}
