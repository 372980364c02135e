package file

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stopsCSV = "stop_date,driver_gender,violation\n2020-01-03,F,Speeding\n"

func writeStops(t testing.TB) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "traffic_stops.csv")
	require.NoError(t, os.WriteFile(p, []byte(stopsCSV), 0o644))
	return p
}

func TestLocal_Open(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		ctx     context.Context
		wantErr error
	}{
		{name: "reads whole file", path: func(t *testing.T) string { return writeStops(t) }, ctx: context.Background()},
		{
			name:    "missing",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") },
			ctx:     context.Background(),
			wantErr: fs.ErrNotExist,
		},
		{
			name:    "directory",
			path:    func(t *testing.T) string { return t.TempDir() },
			ctx:     context.Background(),
			wantErr: ErrNotRegular,
		},
		{name: "cancelled before open", path: func(t *testing.T) string { return writeStops(t) }, ctx: cancelled, wantErr: context.Canceled},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rc, err := NewLocal(tt.path(t)).Open(tt.ctx)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, rc)
				return
			}
			require.NoError(t, err)
			defer rc.Close()

			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, stopsCSV, string(got))
		})
	}
}

func TestLocal_Names(t *testing.T) {
	t.Parallel()

	l := NewLocal("/data/traffic_stops.csv")
	assert.Equal(t, "/data/traffic_stops.csv", l.Path())
	assert.Equal(t, "file:///data/traffic_stops.csv", l.String())
}

func BenchmarkLocal_Open(b *testing.B) {
	src := NewLocal(writeStops(b))
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		rc.Close()
	}
}
