// Package photos validates listing photos and hands them to object storage.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/angelmondragon/rentals-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

const (
	objectPrefix  = "properties"
	sniffLen      = 3072
	maxNameLength = 120
)

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// Store is the object storage the uploader writes to.
type Store interface {
	Upload(ctx context.Context, object, contentType string, r io.Reader) (string, error)
}

// File is one uploaded photo. Open may be called more than once.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromMultipart adapts the files of a parsed multipart form.
func FromMultipart(headers []*multipart.FileHeader) []File {
	files := make([]File, 0, len(headers))
	for _, h := range headers {
		if h == nil {
			continue
		}
		header := h
		files = append(files, File{
			Name: header.Filename,
			Size: header.Size,
			Open: func() (io.ReadCloser, error) { return header.Open() },
		})
	}
	return files
}

type Uploader struct {
	store     Store
	maxPhotos int
	maxBytes  int64
	logg      *logger.Logger
	now       func() time.Time
}

func NewUploader(store Store, cfg config.GCSConfig, logg *logger.Logger) *Uploader {
	return &Uploader{
		store:     store,
		maxPhotos: cfg.MaxPhotos,
		maxBytes:  int64(cfg.MaxPhotoMB) << 20,
		logg:      logg,
		now:       time.Now,
	}
}

// Upload checks every file first and only then uploads them in order, so a
// rejected batch leaves nothing behind in the bucket. The returned URLs keep
// the order of files.
func (u *Uploader) Upload(ctx context.Context, files []File) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	if u == nil || u.store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "photo storage is not configured")
	}
	if u.maxPhotos > 0 && len(files) > u.maxPhotos {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d photos are allowed", u.maxPhotos)).
			WithDetails(map[string]any{"count": len(files), "max": u.maxPhotos})
	}

	contentTypes := make([]string, len(files))
	for i, f := range files {
		ct, err := u.check(f)
		if err != nil {
			return nil, err
		}
		contentTypes[i] = ct
	}

	stamp := u.now().UnixMilli()
	urls := make([]string, 0, len(files))
	for i, f := range files {
		object := ObjectName(stamp, f.Name)
		url, err := u.put(ctx, f, object, contentTypes[i])
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "photo upload failed").
				WithDetails(map[string]any{"file": f.Name})
		}
		urls = append(urls, url)
		if u.logg != nil {
			u.logg.Info(u.logg.WithField(ctx, "object", object), "photo uploaded")
		}
	}
	return urls, nil
}

func (u *Uploader) check(f File) (string, error) {
	reject := func(reason string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid photo").
			WithDetails(map[string]any{"file": f.Name, "reason": reason})
	}
	if f.Open == nil {
		return "", reject("file is empty")
	}
	if u.maxBytes > 0 && f.Size > u.maxBytes {
		return "", reject(fmt.Sprintf("file exceeds %d MB", u.maxBytes>>20))
	}

	rc, err := f.Open()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "photo could not be read")
	}
	defer rc.Close()

	head, err := readHead(rc)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "photo could not be read")
	}
	if len(head) == 0 {
		return "", reject("file is empty")
	}

	mt := mimetype.Detect(head)
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", reject(fmt.Sprintf("unsupported content type %s; allowed: %s", mt.String(), strings.Join(allowedImageTypes, ", ")))
}

func (u *Uploader) put(ctx context.Context, f File, object, contentType string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return u.store.Upload(ctx, object, contentType, rc)
}

func readHead(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, sniffLen); err != nil && err != io.EOF {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ObjectName is properties/<unix-ms>-<sanitised name>.
func ObjectName(unixMillis int64, name string) string {
	return fmt.Sprintf("%s/%d-%s", objectPrefix, unixMillis, SanitizeName(name))
}

// SanitizeName keeps the base name, replacing anything outside letters,
// digits, dot, dash, underscore and space with a dash.
func SanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	out := strings.Trim(b.String(), " .")
	if out == "" {
		return "photo"
	}
	if len(out) > maxNameLength {
		out = out[len(out)-maxNameLength:]
	}
	return out
}
