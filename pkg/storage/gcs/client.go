package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/angelmondragon/rentals-backend/pkg/config"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

const (
	pingTimeout          = 5 * time.Second
	defaultUploadTimeout = 30 * time.Second
	defaultPublicBaseURL = "https://storage.googleapis.com"
	publicCacheControl   = "public, max-age=86400"
)

type Client struct {
	svc           *storage.Service
	bucket        string
	publicBaseURL string
	uploadTimeout time.Duration
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient builds a JSON API client for the photo bucket and checks the
// bucket is reachable. Without explicit credentials the ambient service
// account is used. Extra options are appended last.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger, extra ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	opts := []option.ClientOption{option.WithScopes(storage.DevstorageReadWriteScope)}
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	opts = append(opts, extra...)

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage service: %w", err)
	}

	client := &Client{
		svc:           svc,
		bucket:        cfg.BucketName,
		publicBaseURL: strings.TrimRight(firstNonEmpty(cfg.PublicBaseURL, defaultPublicBaseURL), "/"),
		uploadTimeout: cfg.UploadTimeout,
	}
	if client.uploadTimeout <= 0 {
		client.uploadTimeout = defaultUploadTimeout
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}

	return client, nil
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

func (c *Client) Close() error {
	return nil
}

// Ping fetches the bucket metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.svc.Buckets.Get(c.bucket).Fields("name").Context(ctx).Do(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return fmt.Errorf("bucket %q does not exist", c.bucket)
		}
		return err
	}
	return nil
}

// Upload writes r to object and returns the object's public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, r io.Reader) (string, error) {
	if c == nil || c.svc == nil {
		return "", errors.New("gcs client not initialized")
	}
	if strings.TrimSpace(object) == "" {
		return "", errors.New("object name is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	obj := &storage.Object{
		Name:         object,
		ContentType:  contentType,
		CacheControl: publicCacheControl,
	}
	if _, err := c.svc.Objects.Insert(c.bucket, obj).
		Media(r, googleapi.ContentType(contentType)).
		Context(ctx).
		Do(); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return c.PublicURL(object), nil
}

// PublicURL is where a public object of the bucket is served from.
func (c *Client) PublicURL(object string) string {
	segments := strings.Split(object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, url.PathEscape(c.bucket), strings.Join(segments, "/"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
