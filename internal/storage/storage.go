package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// ObjectStore reads dataset files from object storage. An empty
// Location.Bucket selects the store's default bucket.
type ObjectStore interface {
	Get(ctx context.Context, location Location) (io.ReadCloser, error)
	Stat(ctx context.Context, location Location) (ObjectInfo, error)
}
