// Package gcs stores account photos in a Google Cloud Storage bucket.
//
// The original image lives at accounts/<id>/photo/<uuid><ext>; size
// renditions generated by the image pipeline live under the object's
// renditions/ prefix. Deleting a photo removes the original and every
// rendition.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type PhotoStore struct {
	client *storage.Client
	bucket string
}

// NewClient creates a Google Cloud Storage client. If credsPath is
// empty, Application Default Credentials are used.
func NewClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

func NewPhotoStore(client *storage.Client, bucket string) *PhotoStore {
	return &PhotoStore{client: client, bucket: bucket}
}

// Store uploads a new original photo for the account and returns its
// object path.
func (s *PhotoStore) Store(ctx context.Context, accountID string, r io.Reader, filename, contentType string) (string, error) {
	if s.client == nil || s.bucket == "" {
		return "", errors.New("gcs not configured")
	}
	ext := strings.ToLower(path.Ext(filename))
	objectPath := path.Join("accounts", accountID, "photo", uuid.NewString()+ext)

	wc := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return objectPath, nil
}

// DeleteAll removes the original photo and all of its renditions. The
// deletes run synchronously and are not retried on partial failure.
func (s *PhotoStore) DeleteAll(ctx context.Context, objectPath string) error {
	if objectPath == "" {
		return nil
	}
	if s.client == nil || s.bucket == "" {
		return errors.New("gcs not configured")
	}
	if err := s.deleteRenditions(ctx, objectPath); err != nil {
		return err
	}
	return s.deleteObject(ctx, objectPath)
}

func (s *PhotoStore) deleteRenditions(ctx context.Context, objectPath string) error {
	prefix := RenditionPrefix(objectPath)
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.deleteObject(ctx, attrs.Name); err != nil {
			return err
		}
	}
}

func (s *PhotoStore) deleteObject(ctx context.Context, name string) error {
	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// RenditionPrefix is the object prefix under which all generated size
// variants of a photo live.
func RenditionPrefix(objectPath string) string {
	return path.Join(path.Dir(objectPath), "renditions", path.Base(objectPath)) + "/"
}

// PublicURL builds a public URL for an object (assuming public read
// access or signed URLs).
func (s *PhotoStore) PublicURL(objectPath string) string {
	if objectPath == "" {
		return ""
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectPath)
}
