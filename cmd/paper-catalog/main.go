// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-catalog CLI: ingestion
// into the single-table catalog, the five query patterns, the HTTP query
// service and table provisioning.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-catalog/internal/logging"
	"github.com/pdiddy/paper-catalog/internal/secrets"
	"github.com/pdiddy/paper-catalog/internal/store"
	"github.com/pdiddy/paper-catalog/internal/store/dynamostore"
	"github.com/pdiddy/paper-catalog/internal/store/sqlitestore"
	"github.com/pdiddy/paper-catalog/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the paper-catalog CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-catalog",
	Short: "Single-table paper catalog: ingest, query, serve",
	Long: `paper-catalog stores paper metadata in one denormalized table. Each paper
is written once per access pattern (by category, author, id and keyword) so
that every supported query is a single key-range lookup.

The table lives in a local SQLite file by default, or in DynamoDB with
--backend dynamodb.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-catalog.yaml or ~/.config/paper-catalog/paper-catalog.yaml)")
	pf.String("backend", "", "table backend: sqlite or dynamodb")
	pf.String("table", "", "DynamoDB table name")
	pf.String("sqlite-path", "", "SQLite database file")
	pf.String("region", "", "AWS region")
	pf.String("endpoint", "", "DynamoDB endpoint override (e.g. http://localhost:8000)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: json or console")

	for key, name := range map[string]string{
		"store.backend":     "backend",
		"store.table":       "table",
		"store.sqlite_path": "sqlite-path",
		"store.region":      "region",
		"store.endpoint":    "endpoint",
		"log.level":         "log-level",
		"log.format":        "log-format",
	} {
		mustBind(viper.BindPFlag(key, pf.Lookup(name)))
	}

	setDefaults(viper.GetViper())
}

// setDefaults registers the default value of every configuration key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", string(types.BackendSQLite))
	v.SetDefault("store.table", dynamostore.DefaultTable)
	v.SetDefault("store.sqlite_path", filepath.Join("catalog", "papers.db"))
	v.SetDefault("store.timeout", "30s")
	v.SetDefault("store.max_retries", 5)
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.keywords", 10)
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-catalog")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-catalog"))
		}
	}

	viper.SetEnvPrefix("PAPER_CATALOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// mustBind panics on a flag binding error, which only a misspelled flag
// name can cause.
func mustBind(err error) {
	if err != nil {
		panic(fmt.Sprintf("binding flag: %v", err))
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// loadConfig resolves the catalog configuration from defaults, config
// file, environment and flags, and validates it.
func loadConfig() (types.CatalogConfig, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.CatalogConfig, error) {
	var cfg types.CatalogConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup loads the configuration and builds the logger for a command.
func setup() (types.CatalogConfig, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

// openTable opens the configured backend. The caller closes it.
func openTable(ctx context.Context, cfg types.StoreConfig, logger *zap.Logger) (store.Table, error) {
	switch cfg.Backend {
	case types.BackendDynamoDB:
		return dynamostore.NewFromConfig(ctx, cfg, secrets.AWSCredentials(loadedSecrets), logger)
	case types.BackendSQLite, "":
		return sqlitestore.Open(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
