package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	s := New("https://example.com/stops.csv", Config{InsecureSkipVerify: true})
	if s.client.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v, want 30s", s.client.Timeout)
	}
	tr, ok := s.client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport type = %T, want *http.Transport", s.client.Transport)
	}
	if tr.TLSClientConfig == nil || !tr.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("InsecureSkipVerify not applied: %#v", tr.TLSClientConfig)
	}
	if s.String() != "https://example.com/stops.csv" {
		t.Fatalf("String() = %q", s.String())
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	const body = "stop_date,violation\n2020-01-01,Speeding\n"

	tests := []struct {
		name       string
		status     int
		wantBody   string
		wantStatus int
	}{
		{name: "ok", status: http.StatusOK, wantBody: body},
		{name: "not found", status: http.StatusNotFound, wantStatus: http.StatusNotFound},
		{name: "server error is not retried", status: http.StatusServiceUnavailable, wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				if r.Method != http.MethodGet {
					t.Errorf("method = %s, want GET", r.Method)
				}
				if got := r.Header.Get("X-Token"); got != "abc" {
					t.Errorf("X-Token = %q", got)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, body)
			}))
			defer srv.Close()

			s := New(srv.URL+"/stops.csv", Config{Headers: http.Header{"X-Token": {"abc"}}})
			rc, err := s.Open(context.Background())

			if n := calls.Load(); n != 1 {
				t.Fatalf("server saw %d requests, want 1", n)
			}
			if tt.wantStatus != 0 {
				var se *StatusError
				if !errors.As(err, &se) {
					t.Fatalf("err = %v, want *StatusError", err)
				}
				if se.Status != tt.wantStatus {
					t.Fatalf("status = %d, want %d", se.Status, tt.wantStatus)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer rc.Close()
			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != tt.wantBody {
				t.Fatalf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestOpen_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL, Config{}).Open(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestOpen_EmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := New("", Config{}).Open(context.Background()); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestOpen_TLS(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	if _, err := New(srv.URL, Config{}).Open(context.Background()); err == nil {
		t.Fatal("expected certificate error without InsecureSkipVerify")
	}

	tr := srv.Client().Transport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // test server
	rc, err := New(srv.URL, Config{Transport: tr}).Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	rc.Close()
}
