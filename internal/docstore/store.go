package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

const CollectionUsers = "users"

var ErrNotFound = errors.New("document not found")

// Store is the document store boundary: schemaless records addressed by
// collection and key. The store owns the data; callers hold projections.
type Store interface {
	GetDocument(ctx context.Context, collection, key string) (json.RawMessage, error)
	SetDocument(ctx context.Context, collection, key string, value any) error
}
