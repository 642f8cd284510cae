// Package storage handles catalog image files in the Cloud Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	cloudstorage "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnsupportedImageType is returned when an upload is not an image.
var ErrUnsupportedImageType = errors.New("unsupported image content type")

var extensionByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore uploads and deletes image objects. Objects are owned by the
// entity (store branding, item photo) that references them; deletion of a
// replaced object is best-effort and never blocks the metadata write.
type ImageStore struct {
	bucket     *cloudstorage.BucketHandle
	bucketName string
	logger     *zap.Logger
}

// NewImageStore creates an ImageStore over the given bucket.
func NewImageStore(bucket *cloudstorage.BucketHandle, bucketName string, logger *zap.Logger) *ImageStore {
	return &ImageStore{bucket: bucket, bucketName: bucketName, logger: logger}
}

// Upload writes an image under folder with a generated object name and
// returns its public URL. The caller is responsible for persisting the URL;
// an upload whose metadata write later fails is an accepted orphan.
func (s *ImageStore) Upload(ctx context.Context, folder, contentType string, r io.Reader) (string, error) {
	ext, ok := extensionByContentType[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImageType, contentType)
	}

	objectName := path.Join(folder, uuid.NewString()+ext)
	w := s.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		w.Close() // Best effort; the upload already failed
		return "", fmt.Errorf("failed to upload image '%s': %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize image upload '%s': %w", objectName, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, objectName), nil
}

// DeleteByURL removes the object behind a previously returned public URL.
// Failures are logged and swallowed: an orphaned file is an accepted leak,
// not a correctness violation.
func (s *ImageStore) DeleteByURL(ctx context.Context, imageURL string) {
	if imageURL == "" {
		return
	}
	objectName, ok := s.objectNameFromURL(imageURL)
	if !ok {
		s.logger.Warn("Skipping image deletion for foreign or malformed URL", zap.String("url", imageURL))
		return
	}
	if err := s.bucket.Object(objectName).Delete(ctx); err != nil && !errors.Is(err, cloudstorage.ErrObjectNotExist) {
		s.logger.Warn("Best-effort image deletion failed",
			zap.String("object", objectName),
			zap.Error(err),
		)
	}
}

// objectNameFromURL inverts the public URL format produced by Upload.
func (s *ImageStore) objectNameFromURL(imageURL string) (string, bool) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", false
	}
	prefix := "/" + s.bucketName + "/"
	if u.Host != "storage.googleapis.com" || !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u.Path, prefix), true
}
