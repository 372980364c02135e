// Package csv reads delimited text into a records.Frame.
//
// The reader is tolerant: rows with a malformed quote or an unexpected field
// count are reported through onErr and skipped, never aborting the read. Only
// a missing or unreadable header is fatal.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"checkpost/internal/config"
	"checkpost/internal/records"
)

// ErrNoHeader is returned when the input is empty.
var ErrNoHeader = errors.New("csv: missing header row")

// DefaultNAValues are cell values read as missing.
var DefaultNAValues = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "None", "<NA>", "#N/A"}

const logEveryN = 50_000

// ReadFrame reads src to the end and returns its header and rows.
//
// Options (all optional):
//   - comma (string; first rune used; default ',')
//   - trim_space (bool; default true)
//   - lazy_quotes (bool; default false)
//   - fields_per_record (int; 0 = tolerant, >0 enforce)
//   - encoding (string; utf-8, windows-1252, iso-8859-1)
//   - na_values ([]string; default DefaultNAValues)
//
// Cells are returned as string or nil. onErr receives recoverable row errors.
func ReadFrame(
	ctx context.Context,
	src io.ReadCloser,
	opt config.Options,
	log *zap.Logger,
	onErr func(line int, err error),
) (records.Frame, error) {
	defer src.Close()
	if log == nil {
		log = zap.NewNop()
	}

	r, err := decoder(src, opt.String("encoding", "utf-8"))
	if err != nil {
		return records.Frame{}, err
	}

	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1
	if n := opt.Int("fields_per_record", 0); n > 0 {
		cr.FieldsPerRecord = n
	}
	trim := opt.Bool("trim_space", true)

	na := map[string]struct{}{}
	naList := opt.StringSlice("na_values")
	if naList == nil {
		naList = DefaultNAValues
	}
	for _, v := range naList {
		na[v] = struct{}{}
	}

	hdr, err := cr.Read()
	if err == io.EOF {
		return records.Frame{}, ErrNoHeader
	}
	if err != nil {
		return records.Frame{}, fmt.Errorf("csv: read header: %w", err)
	}
	header := make([]string, len(hdr))
	for i, h := range hdr {
		header[i] = strings.TrimSpace(h)
	}

	f := records.Frame{Header: header}
	for {
		if len(f.Rows)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return records.Frame{}, err
			}
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line, _ := cr.FieldPos(0)
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
			}
			if pe == nil {
				return records.Frame{}, fmt.Errorf("csv: read: %w", err)
			}
			continue
		}

		row := make([]any, len(rec))
		for i, v := range rec {
			if trim {
				v = strings.TrimSpace(v)
			}
			if _, missing := na[v]; missing {
				continue
			}
			row[i] = v
		}
		f.Rows = append(f.Rows, row)
		f.Lines = append(f.Lines, line)

		if len(f.Rows)%logEveryN == 0 {
			log.Debug("reader progress", zap.Int("line", line), zap.Int("rows", len(f.Rows)))
		}
	}
	return f, nil
}

// decoder wraps r so it yields UTF-8. A leading byte-order mark is consumed
// before the CSV reader sees it, so a quoted first header cell still parses.
func decoder(r io.Reader, enc string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin1", "latin-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("csv: unsupported encoding %q", enc)
	}
}
