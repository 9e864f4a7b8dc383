// Package store is the document database boundary: string-keyed documents
// grouped in collections, with a single-document transactional update.
package store

import (
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAborted is returned when a transaction could not commit. It is never retried.
	ErrAborted = errors.New("transaction aborted")
	// ErrAlreadyExists is returned by Create when the key is taken.
	ErrAlreadyExists = errors.New("document already exists")
)

// Document is the key-value shape of a stored record. Nested values are
// map[string]any, []any, string, bool, int64 or float64.
type Document map[string]any

// Snapshot is a document read together with its key.
type Snapshot struct {
	ID   string
	Data Document
}

// UpdateFunc receives the current document and returns the one to write.
type UpdateFunc func(current Document) (Document, error)

// Store is implemented by every document backend.
type Store interface {
	Get(ctx context.Context, collection, id string) (Snapshot, error)
	// List returns every document of the collection ordered by key.
	List(ctx context.Context, collection string) ([]Snapshot, error)
	// FindContaining returns documents whose array field contains value.
	FindContaining(ctx context.Context, collection, field, value string) ([]Snapshot, error)
	// Set writes the whole document, replacing any previous version.
	Set(ctx context.Context, collection, id string, data Document) error
	// Create writes the document only if no document has the key yet.
	Create(ctx context.Context, collection, id string, data Document) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Update runs a read-modify-write on one document inside a transaction.
	// A conflicting concurrent write aborts it with ErrAborted.
	Update(ctx context.Context, collection, id string, fn UpdateFunc) error
	Close(ctx context.Context) error
}

// Normalize converts backend-specific containers and number types into the
// plain shapes described on Document. It always returns a deep copy.
func Normalize(v any) any {
	switch t := v.(type) {
	case Document:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case bson.M:
		return normalizeMap(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = Normalize(e.Value)
		}
		return m
	case primitive.A:
		return normalizeSlice(t)
	case []any:
		return normalizeSlice(t)
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeMap(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case []float64:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

// NormalizeDocument is Normalize for a top-level document.
func NormalizeDocument(m map[string]any) Document {
	return Document(normalizeMap(m))
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}

func normalizeSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = Normalize(v)
	}
	return out
}

func sortSnapshots(s []Snapshot) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}

func arrayContains(v any, value string) bool {
	list, ok := v.([]any)
	if !ok {
		return false
	}
	for _, e := range list {
		if s, ok := e.(string); ok && s == value {
			return true
		}
	}
	return false
}
