// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-catalog/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run one of the catalog's access patterns",
	Long: `Query resolves one access pattern with a single key-range lookup and
prints the result envelope {pattern, parameters, results, count, elapsed_ms}.

  recent <category>                      most recent papers in a category
  author <name>                          all papers by an author, oldest first
  get <arxiv-id>                         one paper by identifier
  daterange <category> <start> <end>     papers published between two dates
  keyword <keyword>                      most recent papers tagged with a keyword`,
}

func queryRunner(build func(args []string, limit int) query.Request) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		return runQuery(build(args, limit), format, os.Stdout)
	}
}

func runQuery(req query.Request, format string, w io.Writer) error {
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q: use json or yaml", format)
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	table, err := openTable(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer table.Close()

	res, err := query.NewResolver(table, query.WithLogger(logger)).Resolve(ctx, req)
	if err != nil {
		return err
	}
	return writeResult(w, res, format)
}

func writeResult(w io.Writer, res query.Result, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(res)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func init() {
	subcommands := []*cobra.Command{
		{
			Use:   "recent <category>",
			Short: "Most recent papers in a category",
			Args:  cobra.ExactArgs(1),
			RunE: queryRunner(func(args []string, limit int) query.Request {
				return query.Recent(args[0], limit)
			}),
		},
		{
			Use:   "author <name>",
			Short: "All papers by an author",
			Args:  cobra.ExactArgs(1),
			RunE: queryRunner(func(args []string, _ int) query.Request {
				return query.ByAuthor(args[0])
			}),
		},
		{
			Use:   "get <arxiv-id>",
			Short: "One paper by identifier",
			Args:  cobra.ExactArgs(1),
			RunE: queryRunner(func(args []string, _ int) query.Request {
				return query.ByID(args[0])
			}),
		},
		{
			Use:   "daterange <category> <start> <end>",
			Short: "Papers in a category published between two dates (inclusive)",
			Args:  cobra.ExactArgs(3),
			RunE: queryRunner(func(args []string, _ int) query.Request {
				return query.DateRange(args[0], args[1], args[2])
			}),
		},
		{
			Use:   "keyword <keyword>",
			Short: "Most recent papers tagged with a keyword",
			Args:  cobra.ExactArgs(1),
			RunE: queryRunner(func(args []string, limit int) query.Request {
				return query.ByKeyword(args[0], limit)
			}),
		},
	}

	queryCmd.PersistentFlags().Int("limit", query.DefaultLimit, "maximum results for recent and keyword")
	queryCmd.PersistentFlags().String("format", "json", "output format: json or yaml")
	queryCmd.AddCommand(subcommands...)
	rootCmd.AddCommand(queryCmd)
}
