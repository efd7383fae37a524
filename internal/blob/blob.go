// Package blob stores uploaded document bytes. The backend treats contents
// as opaque and only keeps metadata in its own collections.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverMemory keeps blobs in process memory (default, tests).
	DriverMemory Driver = "memory"
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3"
)

// ErrNotFound is returned when a key has no blob.
var ErrNotFound = errors.New("blob not found")

// Info describes a stored blob.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store provides the minimal object-store surface the backend needs.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Driver() Driver
}

// Config selects and configures a driver.
type Config struct {
	Driver    string
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// Open constructs the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Driver(strings.ToLower(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, S3Config{Bucket: cfg.Bucket, Region: cfg.Region, Endpoint: cfg.Endpoint, PathStyle: cfg.PathStyle})
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
