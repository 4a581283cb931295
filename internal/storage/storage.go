package storage

import (
	"context"
	"io"
)

// ArchiveOptions conveys where a board snapshot is written.
type ArchiveOptions struct {
	Bucket      string
	Key         string
	ContentType string
}

// Service stores board snapshots in remote object storage.
type Service interface {
	// Archive uploads body and returns its s3:// location.
	Archive(ctx context.Context, body io.Reader, opts ArchiveOptions) (string, error)
}
