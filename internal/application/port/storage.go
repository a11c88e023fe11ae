package port

import (
	"context"
	"io"
)

// EvidenceStore is the blob store for photo evidence
type EvidenceStore interface {
	// PutBlob stores content for ownerID and returns an opaque reference
	PutBlob(ctx context.Context, ownerID, filename string, content []byte) (string, error)

	// Open returns a reader for a reference previously returned by PutBlob
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Exists reports whether the reference resolves to a stored blob
	Exists(ctx context.Context, ref string) bool
}
