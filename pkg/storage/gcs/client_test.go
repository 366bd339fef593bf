package gcs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/angelmondragon/rentals-backend/pkg/config"
)

type fakeGCS struct {
	mu       sync.Mutex
	buckets  map[string]bool
	uploads  map[string]string
	failures int
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/storage/v1/b/"):
		name := strings.TrimPrefix(r.URL.Path, "/storage/v1/b/")
		if !f.buckets[name] {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"Not Found"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"name":"`+name+`"}`)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/b/photos/o"):
		if f.failures > 0 {
			f.failures--
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":403,"message":"denied"}}`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.uploads[r.URL.Path] = string(body)
		_, _ = io.WriteString(w, `{"name":"uploaded","bucket":"photos"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"unexpected path"}}`)
	}
}

func newTestClient(t *testing.T, fake *fakeGCS, bucket string) (*Client, error) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(context.Background(),
		config.GCSConfig{BucketName: bucket, PublicBaseURL: "https://cdn.example.com/", UploadTimeout: time.Second},
		config.GCPConfig{ProjectID: "p"},
		nil,
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
	)
}

func TestNewClientPingsBucket(t *testing.T) {
	fake := &fakeGCS{buckets: map[string]bool{"photos": true}, uploads: map[string]string{}}

	client, err := newTestClient(t, fake, "photos")
	require.NoError(t, err)
	assert.Equal(t, "photos", client.Bucket())

	_, err = newTestClient(t, fake, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `bucket "missing" does not exist`)
}

func TestNewClientRequiresBucket(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil)
	assert.Error(t, err)
}

func TestUploadReturnsPublicURL(t *testing.T) {
	fake := &fakeGCS{buckets: map[string]bool{"photos": true}, uploads: map[string]string{}}
	client, err := newTestClient(t, fake, "photos")
	require.NoError(t, err)

	got, err := client.Upload(context.Background(), "properties/1700000000000-front door.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photos/properties/1700000000000-front%20door.jpg", got)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.uploads, 1)
	for _, body := range fake.uploads {
		assert.Contains(t, body, "jpeg-bytes")
	}
}

func TestUploadSurfacesAPIErrors(t *testing.T) {
	fake := &fakeGCS{buckets: map[string]bool{"photos": true}, uploads: map[string]string{}, failures: 1}
	client, err := newTestClient(t, fake, "photos")
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), "properties/a.png", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	_, err := client.Upload(context.Background(), "x", "image/png", strings.NewReader("x"))
	assert.Error(t, err)

	var nilClient *Client
	assert.Error(t, nilClient.Ping(context.Background()))
	assert.Equal(t, "", nilClient.Bucket())
}
