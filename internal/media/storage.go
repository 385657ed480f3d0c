// Package media normalizes uploaded images and stores them in object storage.
package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage persists objects and knows their public URL.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	URL(key string) string
}

// MinioConfig configures an S3 compatible bucket.
type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	PublicBaseURL string
}

// MinioStorage stores objects in a MinIO/S3 bucket.
type MinioStorage struct {
	cfg    MinioConfig
	client *minio.Client
}

// NewMinioStorage builds a client. It does not contact the server.
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorage{cfg: cfg, client: cl}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
}

func (s *MinioStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *MinioStorage) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.cfg.PublicBaseURL, s.cfg.Bucket, key)
}

// MemoryStorage keeps objects in process. Used by tests and sqlite dev runs.
type MemoryStorage struct {
	BaseURL string
	// Err, when set, is returned from every Put.
	Err error

	mu      sync.Mutex
	objects map[string]StoredObject
}

// StoredObject is one object held by MemoryStorage.
type StoredObject struct {
	Data        []byte
	ContentType string
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{BaseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]StoredObject)}
}

func (m *MemoryStorage) Put(_ context.Context, key string, data []byte, contentType string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (m *MemoryStorage) URL(key string) string {
	return m.BaseURL + "/" + key
}

// Object returns a stored object by key.
func (m *MemoryStorage) Object(key string) (StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Keys lists the stored keys.
func (m *MemoryStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
