package store

import (
	"context"
	"sync"
)

type memoryEntry struct {
	data    Document
	version uint64
}

// MemoryStore keeps documents in process. Documents are deep-copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]memoryEntry
	// clock hands out write versions; it never repeats, even across deletes.
	clock uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]memoryEntry)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.collections[collection][id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{ID: id, Data: NormalizeDocument(entry.data)}, nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	return s.filter(ctx, collection, func(Document) bool { return true })
}

func (s *MemoryStore) FindContaining(ctx context.Context, collection, field, value string) ([]Snapshot, error) {
	return s.filter(ctx, collection, func(d Document) bool { return arrayContains(d[field], value) })
}

func (s *MemoryStore) filter(ctx context.Context, collection string, keep func(Document) bool) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Snapshot
	for id, entry := range s.collections[collection] {
		if keep(entry.data) {
			out = append(out, Snapshot{ID: id, Data: NormalizeDocument(entry.data)})
		}
	}
	sortSnapshots(out)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(collection, id, data)
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, data Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; ok {
		return ErrAlreadyExists
	}
	s.put(collection, id, data)
	return nil
}

// put must be called with mu held.
func (s *MemoryStore) put(collection, id string, data Document) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]memoryEntry)
		s.collections[collection] = docs
	}
	s.clock++
	docs[id] = memoryEntry{data: NormalizeDocument(data), version: s.clock}
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

// Update reads the document, releases the lock while fn runs, and commits only
// if nobody wrote the document in between.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	entry, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	current := NormalizeDocument(entry.data)
	s.mu.Unlock()

	next, err := fn(current)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	latest, ok := s.collections[collection][id]
	if !ok || latest.version != entry.version {
		return ErrAborted
	}
	s.put(collection, id, next)
	return nil
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}
