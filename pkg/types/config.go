package types

import "time"

// StoreBackend selects the single-table implementation.
type StoreBackend string

const (
	BackendSQLite   StoreBackend = "sqlite"
	BackendDynamoDB StoreBackend = "dynamodb"
)

// StoreConfig holds settings shared by every store backend.
type StoreConfig struct {
	// Backend selects the table implementation: sqlite or dynamodb.
	Backend StoreBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=sqlite dynamodb"`

	// Table is the DynamoDB table name (default "arxiv-papers").
	Table string `json:"table" yaml:"table" mapstructure:"table" validate:"required_if=Backend dynamodb"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path" mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`

	// Region is the AWS region. Empty uses the SDK default chain.
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`

	// Endpoint overrides the DynamoDB endpoint (e.g. DynamoDB Local).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint" validate:"omitempty,url"`

	// Timeout bounds each store call. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"min=0"`

	// MaxRetries is the number of retries on transient store errors (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"min=0"`
}

// IngestConfig holds settings for the ingestion pipeline.
type IngestConfig struct {
	// Workers is the number of papers ingested concurrently (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers" validate:"min=1"`

	// Keywords is the number of keywords extracted per abstract (default 10).
	Keywords int `json:"keywords" yaml:"keywords" mapstructure:"keywords" validate:"min=0"`

	// CreateTable provisions the table before loading when true.
	CreateTable bool `json:"create_table" yaml:"create_table" mapstructure:"create_table"`
}

// ServeConfig holds settings for the query service.
type ServeConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Lambda runs the router behind the AWS Lambda runtime instead of a listener.
	Lambda bool `json:"lambda" yaml:"lambda" mapstructure:"lambda"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format selects json or console output.
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// CatalogConfig groups all settings for the paper-catalog CLI.
type CatalogConfig struct {
	Store  StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Ingest IngestConfig `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Serve  ServeConfig  `json:"serve" yaml:"serve" mapstructure:"serve"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}
