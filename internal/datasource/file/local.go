// Package file reads the stops CSV from local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotRegular is returned when the path names a directory or device.
var ErrNotRegular = errors.New("file: not a regular file")

// Local is a datasource.Source for one path. The zero value is unusable; use
// NewLocal.
type Local struct {
	path string
}

// NewLocal binds a source to path. Nothing is opened until Open.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

func (l *Local) String() string { return "file://" + l.path }

// Open returns the file positioned at the start. Errors wrap the os error,
// so errors.Is(err, fs.ErrNotExist) works.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("file: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, l.path)
	}
	adviseSequential(f)
	return f, nil
}
