// Package docstore is the document-database boundary. Backends store
// schemaless documents grouped in collections; Collection adds typed access on
// top of any backend.
package docstore

import (
	"context"

	"evaladmin/internal/apperr"
)

// ErrNotFound is returned by Get, Update and Delete for unknown ids.
var ErrNotFound = apperr.ErrNotFound

// Document is a stored record and its id.
type Document struct {
	ID   string
	Data map[string]any
}

// Backend is the shape every document store implements.
type Backend interface {
	GetAll(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// OnChange calls fn after the collection changes, until ctx is done.
	OnChange(ctx context.Context, collection string, fn func()) error
}
