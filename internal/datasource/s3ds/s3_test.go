package s3ds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *aws.Config {
	return aws.NewConfig().
		WithCredentials(credentials.NewStaticCredentials("AKID", "SECRET", "")).
		WithRegion("us-east-1")
}

func TestNew_RequiresBucketAndKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Bucket: "b"})
	assert.Error(t, err)
	_, err = New(Config{Key: "k"})
	assert.Error(t, err)
}

func TestOpen_PathStyleEndpoint(t *testing.T) {
	t.Parallel()

	const body = "stop_date,violation\n2020-01-01,DUI\n"
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	src, err := newSource(Config{Bucket: "police", Key: "2020/stops.csv", Endpoint: srv.URL}, testConfig())
	require.NoError(t, err)
	assert.Equal(t, "s3://police/2020/stops.csv", src.String())

	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Equal(t, body, string(got))
	assert.Equal(t, "/police/2020/stops.csv", gotPath)
}

func TestOpen_MissingObject(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>gone</Message></Error>`)
	}))
	defer srv.Close()

	src, err := newSource(Config{Bucket: "police", Key: "missing.csv", Endpoint: srv.URL}, testConfig())
	require.NoError(t, err)

	_, err = src.Open(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls, "no retries")
	assert.True(t, strings.Contains(err.Error(), "s3://police/missing.csv"))

	var aerr awserr.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, s3.ErrCodeNoSuchKey, aerr.Code())
}

type stubAPI struct {
	s3iface.S3API
	in *s3.GetObjectInput
}

func (s *stubAPI) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	s.in = in
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("x"))}, nil
}

func TestOpen_UsesBucketAndKey(t *testing.T) {
	t.Parallel()

	stub := &stubAPI{}
	src := &Source{bucket: "b", key: "k.csv", api: stub}
	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	rc.Close()

	assert.Equal(t, "b", aws.StringValue(stub.in.Bucket))
	assert.Equal(t, "k.csv", aws.StringValue(stub.in.Key))
}
