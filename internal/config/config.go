// Package config defines the configuration model for checkpost.
//
// A Config is decoded from a JSON or YAML file (see Load), then overridden by
// environment variables and finally by command-line flags. Parser settings
// stay in a free-form Options bag so new parser knobs need no model change.
//
// Example (YAML):
//
//	job: checkpost
//	source:  { kind: file, file: { path: data/traffic_stops.csv } }
//	parser:  { kind: csv, options: { trim_space: true } }
//	storage:
//	  kind: mysql
//	  db: { dsn: "user:pass@tcp(localhost:3306)/police", table: checkpost_stops, pool_size: 5 }
//	server:  { addr: ":8080" }
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the top-level configuration object.
type Config struct {
	// Job labels metrics and log lines.
	Job string `json:"job" yaml:"job"`

	Source  Source  `json:"source" yaml:"source"`
	Parser  Parser  `json:"parser" yaml:"parser"`
	Storage Storage `json:"storage" yaml:"storage"`
	Runtime Runtime `json:"runtime" yaml:"runtime"`
	Server  Server  `json:"server" yaml:"server"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
}

// Source identifies where the input CSV comes from.
type Source struct {
	// Kind is one of "file", "http", "s3".
	Kind string     `json:"kind" yaml:"kind"`
	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
	S3   SourceS3   `json:"s3" yaml:"s3"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL            string `json:"url" yaml:"url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// SourceS3 holds configuration for the "s3" source kind.
type SourceS3 struct {
	Bucket string `json:"bucket" yaml:"bucket"`
	Key    string `json:"key" yaml:"key"`
	// Region falls back to AWS_REGION when empty.
	Region string `json:"region" yaml:"region"`
	// Endpoint targets an S3-compatible store such as MinIO.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// SetURI points the source at uri: s3://bucket/key, http(s)://... or a
// local path.
func (s *Source) SetURI(uri string) error {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		rest := strings.TrimPrefix(uri, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return fmt.Errorf("config: s3 uri %q must be s3://bucket/key", uri)
		}
		s.Kind = "s3"
		s.S3.Bucket, s.S3.Key = bucket, key
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		s.Kind = "http"
		s.HTTP.URL = uri
	default:
		s.Kind = "file"
		s.File.Path = uri
	}
	return nil
}

// Parser selects how raw bytes are turned into a frame.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser. For CSV: comma (string),
	// trim_space (bool), lazy_quotes (bool), fields_per_record (int),
	// encoding (string), na_values ([]string).
	Options Options `json:"options" yaml:"options"`
}

// Storage selects the relational sink.
type Storage struct {
	// Kind is one of "sqlite", "postgres", "mysql", "mssql".
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// Pool wait policies.
const (
	PoolWaitBlock    = "block"
	PoolWaitFailFast = "fail-fast"
)

// DBConfig configures the sink connection and the stops table.
type DBConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the stops table name. Loads stage into <table>__next.
	Table string `json:"table" yaml:"table"`

	// PoolSize bounds concurrent queries and open connections.
	PoolSize int `json:"pool_size" yaml:"pool_size"`

	// PoolWait is "block" or "fail-fast".
	PoolWait string `json:"pool_wait" yaml:"pool_wait"`

	// QueryTimeoutSeconds bounds each report query; 0 disables.
	QueryTimeoutSeconds int `json:"query_timeout_seconds" yaml:"query_timeout_seconds"`
}

// QueryTimeout returns the per-query timeout.
func (d DBConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutSeconds) * time.Second
}

// Runtime controls batching.
type Runtime struct {
	BatchSize     int `json:"batch_size" yaml:"batch_size"`
	ChannelBuffer int `json:"channel_buffer" yaml:"channel_buffer"`
}

// Server configures the dashboard.
type Server struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Metrics selects a metrics backend: "", "none", "pushgateway",
// "prometheus" (scrape endpoint) or "datadog".
type Metrics struct {
	Backend        string   `json:"backend" yaml:"backend"`
	PushGatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string   `json:"namespace" yaml:"namespace"`
	Tags           []string `json:"tags" yaml:"tags"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Job:    "checkpost",
		Source: Source{Kind: "file"},
		Parser: Parser{Kind: "csv", Options: Options{}},
		Storage: Storage{
			Kind: "sqlite",
			DB: DBConfig{
				DSN:      "checkpost.db",
				Table:    "checkpost_stops",
				PoolSize: 5,
				PoolWait: PoolWaitBlock,
			},
		},
		Runtime: Runtime{BatchSize: 1000, ChannelBuffer: 1000},
		Server:  Server{Addr: ":8080"},
	}
}
