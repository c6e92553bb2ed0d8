// Package reportstore writes exported advisor reports to object storage and
// reads them back.
package reportstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finance-insights/internal/domain"
)

// uploadTimeout bounds a single object write.
const uploadTimeout = 2 * time.Minute

// ObjectStore stores report bytes under an object name and returns its URI.
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte) (string, error)
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ObjectName is the location of a user's report. The user ID is escaped so
// it cannot introduce extra path segments.
func ObjectName(userID, jobID string) string {
	return fmt.Sprintf("reports/%s/%s.json", url.PathEscape(userID), url.PathEscape(jobID))
}

// ParseURI splits gs://bucket/path into bucket and object path.
func ParseURI(uri string) (string, string, error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// GCSStore stores reports in a Cloud Storage bucket using a shared client.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a storage client using Application Default Credentials.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSStore: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStore: create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Close closes the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Put implements ObjectStore.
func (s *GCSStore) Put(ctx context.Context, objectName string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Put: write object %s: %w", objectName, err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Put: finalize upload %s: %w", objectName, err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

// Fetch implements ObjectStore. Only objects in the store's bucket are readable.
func (s *GCSStore) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if bucket != s.bucket {
		return nil, domain.NotFoundError("object %s", uri)
	}

	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, domain.NotFoundError("object %s", uri)
	}
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// MemoryStore keeps objects in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
}

// NewMemoryStore returns an empty store that reports URIs under bucket.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: make(map[string][]byte)}
}

// Put implements ObjectStore.
func (m *MemoryStore) Put(_ context.Context, objectName string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = append([]byte(nil), data...)
	return fmt.Sprintf("gs://%s/%s", m.bucket, objectName), nil
}

// Fetch implements ObjectStore.
func (m *MemoryStore) Fetch(_ context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[object]
	if !ok || bucket != m.bucket {
		return nil, domain.NotFoundError("object %s", uri)
	}
	return append([]byte(nil), data...), nil
}
