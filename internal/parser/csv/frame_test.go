package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkpost/internal/config"
)

const utf8BOM = "\uFEFF"

// fakeRC is an io.ReadCloser over a byte slice that records Close.
type fakeRC struct {
	*bytes.Reader
	closed bool
}

func newFakeRC(b []byte) *fakeRC { return &fakeRC{Reader: bytes.NewReader(b)} }
func (f *fakeRC) Close() error   { f.closed = true; return nil }

// makeCSV builds a CSV document with proper quoting.
func makeCSV(delim rune, header []string, rows [][]string) []byte {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	w.Comma = delim
	if header != nil {
		_ = w.Write(header)
	}
	for _, r := range rows {
		_ = w.Write(r)
	}
	w.Flush()
	return b.Bytes()
}

func TestReadFrame_Basic(t *testing.T) {
	t.Parallel()

	data := append([]byte(utf8BOM), makeCSV(',', []string{" Stop_Date ", "violation_raw", "is_arrested"}, [][]string{
		{"2020-01-01", "  Speeding ", "1"},
		{"2020-01-02", "", "NA"},
		{"2020-01-03"},
	})...)
	src := newFakeRC(data)

	f, err := ReadFrame(context.Background(), src, config.Options{}, nil, nil)
	require.NoError(t, err)
	assert.True(t, src.closed, "source must be closed")

	assert.Equal(t, []string{"Stop_Date", "violation_raw", "is_arrested"}, f.Header)
	require.Equal(t, 3, f.Len())
	assert.Equal(t, []any{"2020-01-01", "Speeding", "1"}, f.Rows[0])
	assert.Equal(t, []any{"2020-01-02", nil, nil}, f.Rows[1])
	assert.Nil(t, f.Cell(2, 2))
	assert.Equal(t, []int{2, 3, 4}, f.Lines)
}

func TestReadFrame_ByteOrderMark(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"quoted header", utf8BOM + "\"stop_date\",\"violation_raw\"\n2020-03-01,Speeding\n"},
		{"bare header", utf8BOM + "stop_date,violation_raw\n2020-03-01,Speeding\n"},
		{"no mark", "\"stop_date\",violation_raw\n2020-03-01,Speeding\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ReadFrame(context.Background(), newFakeRC([]byte(tt.in)), config.Options{}, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"stop_date", "violation_raw"}, f.Header)
			require.Equal(t, 1, f.Len())
			assert.Equal(t, []any{"2020-03-01", "Speeding"}, f.Rows[0])
		})
	}
}

func TestReadFrame_Options(t *testing.T) {
	t.Parallel()

	data := makeCSV(';', []string{"a", "b"}, [][]string{{" x ", "-"}})
	opt := config.Options{
		"comma":      ";",
		"trim_space": false,
		"na_values":  []any{"-"},
	}

	f, err := ReadFrame(context.Background(), newFakeRC(data), opt, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{" x ", nil}, f.Rows[0])
}

func TestReadFrame_Windows1252(t *testing.T) {
	t.Parallel()

	// 0xE9 is é in windows-1252.
	data := []byte("country_name\nR\xe9union\n")
	f, err := ReadFrame(context.Background(), newFakeRC(data), config.Options{"encoding": "windows-1252"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Réunion", f.Rows[0][0])

	_, err = ReadFrame(context.Background(), newFakeRC(data), config.Options{"encoding": "ebcdic"}, nil, nil)
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestReadFrame_SoftRowErrors(t *testing.T) {
	t.Parallel()

	data := []byte("a,b\n1,2\n3,x\"y\n5,6\n")
	var lines []int
	f, err := ReadFrame(context.Background(), newFakeRC(data), config.Options{}, nil, func(line int, err error) {
		lines = append(lines, line)
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, []any{"5", "6"}, f.Rows[1])
	assert.Equal(t, []int{3}, lines)
}

func TestReadFrame_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := ReadFrame(context.Background(), newFakeRC(nil), config.Options{}, nil, nil)
	assert.True(t, errors.Is(err, ErrNoHeader))
}

func TestReadFrame_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadFrame(ctx, newFakeRC(makeCSV(',', []string{"a"}, [][]string{{"1"}})), config.Options{}, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
