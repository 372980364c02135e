package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"checkpost/internal/load"
	"checkpost/internal/report"
	"checkpost/internal/stops"
	"checkpost/internal/storage"
	_ "checkpost/internal/storage/sqlite"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func ptr[T any](v T) *T { return &v }

func records(n int) []stops.Record {
	genders := []string{"M", "F"}
	violations := []string{"Speeding", "DUI", "Seatbelt"}
	out := make([]stops.Record, n)
	for i := range out {
		day := civil.Date{Year: 2020, Month: time.January, Day: 1}.AddDays(i)
		out[i] = stops.Record{
			StopDate:         &day,
			StopTime:         &civil.Time{Hour: i % 24},
			CountryName:      "India",
			DriverGender:     genders[i%2],
			DriverAgeRaw:     ptr(int64(18 + i%40)),
			DriverAge:        ptr(int64(18 + i%40)),
			DriverRace:       "Asian",
			ViolationRaw:     violations[i%3],
			Violation:        violations[i%3],
			SearchConducted:  ptr(i%4 == 0),
			SearchType:       stops.Unknown,
			StopOutcome:      "Ticket",
			IsArrested:       ptr(i%5 == 0),
			StopDuration:     stops.Duration0to15,
			DrugsRelatedStop: ptr(false),
			VehicleNumber:    fmt.Sprintf("KA-%03d", i),
		}
	}
	return out
}

func newService(t *testing.T, n int) *report.Service {
	t.Helper()
	repo, err := storage.New(context.Background(), storage.Config{
		Kind:     "sqlite",
		DSN:      filepath.Join(t.TempDir(), "web.db"),
		PoolSize: 2,
	})
	require.NoError(t, err)
	if n > 0 {
		res := load.New(repo, load.Options{Table: "stops", BatchSize: 100}, nil).Load(context.Background(), records(n))
		require.NoError(t, res.Err)
	}
	svc := report.NewService(repo, report.Options{Table: "stops", PoolSize: 2}, zaptest.NewLogger(t))
	t.Cleanup(svc.Close)
	return svc
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestDashboard_EndToEnd(t *testing.T) {
	svc := newService(t, 300)
	h := NewServer(Config{}, svc, zaptest.NewLogger(t)).Handler()

	t.Run("index", func(t *testing.T) {
		w := get(t, h, "/")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Total stops<b>300</b>")
		assert.Contains(t, body, "Total arrests<b>60</b>")
		assert.Contains(t, body, `href="/reports/top-drug-vehicles"`)
		assert.Contains(t, body, "Demographic")
	})

	t.Run("summary api", func(t *testing.T) {
		w := get(t, h, "/api/summary")
		require.Equal(t, http.StatusOK, w.Code)
		var sum report.Summary
		decode(t, w, &sum)
		assert.Equal(t, int64(300), sum.TotalStops)
		assert.Equal(t, int64(60), sum.TotalArrests)
		require.NotNil(t, sum.AvgAge)
	})

	t.Run("catalog api", func(t *testing.T) {
		w := get(t, h, "/api/reports")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Categories []string       `json:"categories"`
			Reports    []report.Entry `json:"reports"`
		}
		decode(t, w, &body)
		assert.Len(t, body.Reports, 20)
		assert.Equal(t, []string{"vehicle", "demographic", "time", "violation", "location", "composite"}, body.Categories)
		assert.Len(t, body.Reports[0].Params, len(report.Params))
	})

	t.Run("report api with chart", func(t *testing.T) {
		w := get(t, h, "/api/reports/arrest-rate-by-age-group")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			ID      string       `json:"id"`
			Columns []string     `json:"columns"`
			Rows    [][]any      `json:"rows"`
			Bars    []report.Bar `json:"bars"`
		}
		decode(t, w, &body)
		assert.Equal(t, "arrest-rate-by-age-group", body.ID)
		assert.Equal(t, []string{"age_group", "total_stops", "arrest_rate"}, body.Columns)
		assert.NotEmpty(t, body.Rows)
		assert.Len(t, body.Bars, len(body.Rows))
	})

	t.Run("report page", func(t *testing.T) {
		w := get(t, h, "/reports/day-night-arrests?gender=F")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "<h1>Arrests by time of day</h1>")
		assert.Contains(t, body, `class="bar"`)
		assert.Contains(t, body, "<option selected>F</option>")
		assert.NotContains(t, body, `class="banner"`)
	})

	t.Run("browse", func(t *testing.T) {
		w := get(t, h, "/api/browse?violation=DUI")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Rows   [][]any           `json:"rows"`
			Groups []report.GroupBar `json:"violations_by_gender"`
		}
		decode(t, w, &body)
		assert.Len(t, body.Rows, 100)
		require.Len(t, body.Groups, 1)
		assert.Equal(t, "DUI", body.Groups[0].Label)
		assert.Equal(t, int64(100), body.Groups[0].Total)

		w = get(t, h, "/browse")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "200 rows (at most 200)")
	})

	t.Run("options", func(t *testing.T) {
		w := get(t, h, "/api/options/violation")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Values []string `json:"values"`
		}
		decode(t, w, &body)
		assert.Equal(t, []string{"DUI", "Seatbelt", "Speeding"}, body.Values)

		assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/options/vehicle_number").Code)
	})

	t.Run("client errors", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/reports/nope").Code)
		assert.Equal(t, http.StatusNotFound, get(t, h, "/reports/nope").Code)
		assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/browse?from=2021-01-01&to=2020-01-01").Code)
		assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/reports/stops-by-hour?searched=maybe").Code)
		assert.Equal(t, http.StatusBadRequest, get(t, h, "/browse?from=yesterday").Code)
		assert.Equal(t, http.StatusNotFound, get(t, h, "/nowhere").Code)
	})

	t.Run("healthz", func(t *testing.T) {
		w := get(t, h, "/healthz")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})
}

func TestDashboard_EmptyDatabase(t *testing.T) {
	svc := newService(t, 0)
	h := NewServer(Config{}, svc, zaptest.NewLogger(t)).Handler()

	w := get(t, h, "/reports/stops-by-hour")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `class="banner"`)

	w = get(t, h, "/api/reports/stops-by-hour")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body map[string]string
	decode(t, w, &body)
	assert.Contains(t, body["error"], "stops-by-hour")

	// Other reports keep being served.
	assert.Equal(t, http.StatusOK, get(t, h, "/api/reports").Code)
}

type stubReports struct {
	cat  *report.Catalog
	err  error
	ping error
	boom bool
}

func (s *stubReports) Catalog() *report.Catalog { return s.cat }

func (s *stubReports) Run(_ context.Context, id string, _ report.Filter) (report.Result, error) {
	if s.boom {
		panic("driver exploded")
	}
	if s.err != nil {
		return report.Result{}, fmt.Errorf("report: %s: %w", id, s.err)
	}
	e, _ := s.cat.Lookup(id)
	return report.Result{ID: id, Title: e.Title, Columns: e.Columns}, nil
}

func (s *stubReports) Browse(context.Context, report.Filter) (report.Result, error) {
	return report.Result{}, s.err
}

func (s *stubReports) Summary(context.Context) (report.Summary, error) {
	return report.Summary{TotalStops: 3}, s.err
}

func (s *stubReports) Distinct(context.Context, string) ([]string, error) {
	return nil, s.err
}

func (s *stubReports) Ping(context.Context) error { return s.ping }

func TestDashboard_ErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantPage int
		wantAPI  int
	}{
		{"query failure", errors.New("sqlite: query: no such column"), http.StatusOK, http.StatusBadGateway},
		{"pool exhausted", report.ErrPoolExhausted, http.StatusServiceUnavailable, http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusOK, http.StatusBadGateway},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stub := &stubReports{cat: report.NewCatalog(), err: tt.err}
			h := NewServer(Config{}, stub, zaptest.NewLogger(t)).Handler()

			w := get(t, h, "/reports/searches-by-country")
			assert.Equal(t, tt.wantPage, w.Code)
			assert.Contains(t, w.Body.String(), `role="alert"`)

			w = get(t, h, "/api/reports/searches-by-country")
			assert.Equal(t, tt.wantAPI, w.Code)
			assert.Equal(t, tt.wantAPI, get(t, h, "/api/summary").Code)
			assert.Equal(t, tt.wantPage, get(t, h, "/").Code)
		})
	}
}

func TestDashboard_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	stub := &stubReports{cat: report.NewCatalog(), boom: true}
	h := NewServer(Config{}, stub, zaptest.NewLogger(t)).Handler()

	w := get(t, h, "/api/reports/stops-by-hour")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())

	stub.boom = false
	assert.Equal(t, http.StatusOK, get(t, h, "/api/reports/stops-by-hour").Code)
}

func TestDashboard_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	stub := &stubReports{cat: report.NewCatalog(), ping: errors.New("connection refused")}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "etl_step_total 1")
	})

	h := NewServer(Config{Metrics: metrics}, stub, zaptest.NewLogger(t)).Handler()
	w := get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "etl_step_total"))

	bare := NewServer(Config{}, stub, zaptest.NewLogger(t)).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, bare, "/metrics").Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	stub := &stubReports{cat: report.NewCatalog()}
	s := NewServer(Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, stub, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
