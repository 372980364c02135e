// Package datasource opens the raw input bytes for a load: a local file, a
// single HTTP GET or an S3 object.
package datasource

import (
	"context"
	"fmt"
	"io"
	"time"

	"checkpost/internal/config"
	"checkpost/internal/datasource/file"
	"checkpost/internal/datasource/httpds"
	"checkpost/internal/datasource/s3ds"
)

// Source yields a fresh reader over the input on every Open. Callers close
// the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// String describes the source for logs.
	String() string
}

// FromConfig builds the Source selected by cfg.Kind.
func FromConfig(cfg config.Source) (Source, error) {
	switch cfg.Kind {
	case "file":
		return file.NewLocal(cfg.File.Path), nil
	case "http":
		return httpds.New(cfg.HTTP.URL, httpds.Config{
			Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		}), nil
	case "s3":
		return s3ds.New(s3ds.Config{
			Bucket:   cfg.S3.Bucket,
			Key:      cfg.S3.Key,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		})
	default:
		return nil, fmt.Errorf("datasource: unknown kind %q", cfg.Kind)
	}
}
