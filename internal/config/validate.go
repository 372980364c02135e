package config

import (
	"fmt"
	"regexp"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into the
// config (e.g. "storage.db.pool_size").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Scope narrows validation to the sections a command uses.
type Scope int

const (
	// ScopeLoad checks source, parser, storage and runtime.
	ScopeLoad Scope = 1 << iota
	// ScopeServe checks storage and server.
	ScopeServe
	// ScopeAll checks everything.
	ScopeAll = ScopeLoad | ScopeServe
)

// ScopeStorage checks only the sections every command shares: job, storage
// and metrics.
const ScopeStorage Scope = 0

// tableName restricts the stops table to plain identifiers, optionally schema
// qualified, since it is interpolated into SQL.
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Validate performs static checks over cfg. It does not mutate cfg.
func Validate(cfg Config, scope Scope) []Issue {
	var issues []Issue
	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	if scope&ScopeLoad != 0 {
		issues = append(issues, validateSource(cfg.Source)...)
		issues = append(issues, validateParser(cfg.Parser)...)
		issues = append(issues, validateRuntime(cfg.Runtime)...)
	}
	issues = append(issues, validateStorage(cfg.Storage)...)
	if scope&ScopeServe != 0 {
		if strings.TrimSpace(cfg.Server.Addr) == "" {
			issues = append(issues, Issue{SeverityError, "server.addr", "server.addr must not be empty"})
		}
	}
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.file.path", "file source requires a non-empty path"})
		}
	case "http":
		u := s.HTTP.URL
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			issues = append(issues, Issue{SeverityError, "source.http.url", "http source requires an http(s) URL"})
		}
	case "s3":
		if s.S3.Bucket == "" || s.S3.Key == "" {
			issues = append(issues, Issue{SeverityError, "source.s3", "s3 source requires bucket and key"})
		}
	case "":
		issues = append(issues, Issue{SeverityError, "source.kind", "source.kind must not be empty"})
	default:
		issues = append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unknown source kind %q", s.Kind)})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	if p.Kind != "csv" {
		issues = append(issues, Issue{SeverityError, "parser.kind", fmt.Sprintf("unsupported parser kind %q; only csv is available", p.Kind)})
		return issues
	}
	if c := p.Options.String("comma", ","); len([]rune(c)) != 1 {
		issues = append(issues, Issue{SeverityError, "parser.options.comma", "comma must be a single character"})
	}
	switch strings.ToLower(p.Options.String("encoding", "utf-8")) {
	case "utf-8", "utf8", "windows-1252", "cp1252", "iso-8859-1", "latin1", "latin-1":
	default:
		issues = append(issues, Issue{SeverityError, "parser.options.encoding", "encoding must be utf-8, windows-1252 or iso-8859-1"})
	}
	if p.Options.Bool("lazy_quotes", false) {
		issues = append(issues, Issue{SeverityWarning, "parser.options.lazy_quotes", "lazy_quotes hides malformed rows instead of reporting them"})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	switch s.Kind {
	case "sqlite", "postgres", "mysql", "mssql":
	case "":
		issues = append(issues, Issue{SeverityError, "storage.kind", "storage.kind must not be empty"})
	default:
		issues = append(issues, Issue{SeverityError, "storage.kind", fmt.Sprintf("unknown storage kind %q", s.Kind)})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.dsn", "dsn must not be empty"})
	}
	if !tableName.MatchString(s.DB.Table) {
		issues = append(issues, Issue{SeverityError, "storage.db.table", fmt.Sprintf("table %q must be a plain identifier", s.DB.Table)})
	}
	if s.DB.PoolSize <= 0 {
		issues = append(issues, Issue{SeverityError, "storage.db.pool_size", "pool_size must be > 0"})
	}
	switch s.DB.PoolWait {
	case PoolWaitBlock, PoolWaitFailFast:
	default:
		issues = append(issues, Issue{SeverityError, "storage.db.pool_wait", fmt.Sprintf("pool_wait must be %q or %q", PoolWaitBlock, PoolWaitFailFast)})
	}
	if s.DB.QueryTimeoutSeconds < 0 {
		issues = append(issues, Issue{SeverityError, "storage.db.query_timeout_seconds", "query_timeout_seconds must be >= 0"})
	}
	return issues
}

func validateRuntime(r Runtime) []Issue {
	var issues []Issue
	if r.BatchSize <= 0 {
		issues = append(issues, Issue{SeverityError, "runtime.batch_size", "batch_size must be > 0"})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.channel_buffer", "channel_buffer must be >= 0"})
	}
	if r.BatchSize > 100_000 {
		issues = append(issues, Issue{SeverityWarning, "runtime.batch_size", "very large batch_size may exceed driver parameter limits"})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none", "prometheus":
	case "pushgateway":
		if m.PushGatewayURL == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires pushgateway_url"})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr"})
		}
	default:
		issues = append(issues, Issue{SeverityWarning, "metrics.backend", fmt.Sprintf("unknown metrics backend %q; metrics disabled", m.Backend)})
	}
	return issues
}
