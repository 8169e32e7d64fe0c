package port

import (
	"context"
	"io"
)

// DocumentSink stores knowledge base source documents. Re-indexing happens
// downstream, outside this application.
type DocumentSink interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	DeleteAll(ctx context.Context) (int, error)
}

// SyncTrigger asks the knowledge base to re-sync its data source.
type SyncTrigger interface {
	TriggerSync(ctx context.Context) error
}
