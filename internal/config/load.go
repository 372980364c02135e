package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvDSN            = "CHECKPOST_DSN"
	EnvStorageKind    = "CHECKPOST_STORAGE_KIND"
	EnvTable          = "CHECKPOST_TABLE"
	EnvPoolSize       = "CHECKPOST_POOL_SIZE"
	EnvBatchSize      = "CHECKPOST_BATCH_SIZE"
	EnvAddr           = "CHECKPOST_ADDR"
	EnvMetricsBackend = "METRICS_BACKEND"
	EnvPushGatewayURL = "PUSHGATEWAY_URL"
	EnvDatadogAddr    = "DD_AGENT_ADDR"
)

// Load reads the config file at path over Default and applies environment
// overrides. An empty path yields Default plus environment. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Decode(b, filepath.Ext(path), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	ApplyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

// Decode unmarshals b into cfg. ext selects the format (".yaml", ".yml" or
// anything else for JSON). Unknown JSON fields are rejected.
func Decode(b []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return err
		}
	}
	if cfg.Parser.Options == nil {
		cfg.Parser.Options = Options{}
	}
	return nil
}

// ApplyEnv overrides cfg from the environment. lookup is os.LookupEnv in
// production and a map in tests. Malformed integers are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	pickString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	pickInt := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	pickString(EnvDSN, &cfg.Storage.DB.DSN)
	pickString(EnvStorageKind, &cfg.Storage.Kind)
	pickString(EnvTable, &cfg.Storage.DB.Table)
	pickInt(EnvPoolSize, &cfg.Storage.DB.PoolSize)
	pickInt(EnvBatchSize, &cfg.Runtime.BatchSize)
	pickString(EnvAddr, &cfg.Server.Addr)
	pickString(EnvMetricsBackend, &cfg.Metrics.Backend)
	pickString(EnvPushGatewayURL, &cfg.Metrics.PushGatewayURL)
	pickString(EnvDatadogAddr, &cfg.Metrics.DatadogAddr)
}
