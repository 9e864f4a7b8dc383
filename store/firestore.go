package store

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore maps collections and keys directly onto Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

func ConnectFirestore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore connection failed: %w", err)
	}
	log.Printf("Connected to Firestore project %s", projectID)
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	return fromFirestore(snap), nil
}

func (s *FirestoreStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	return s.all(ctx, s.client.Collection(collection).OrderBy(firestore.DocumentID, firestore.Asc))
}

func (s *FirestoreStore) FindContaining(ctx context.Context, collection, field, value string) ([]Snapshot, error) {
	snaps, err := s.all(ctx, s.client.Collection(collection).Where(field, "array-contains", value))
	if err != nil {
		return nil, err
	}
	sortSnapshots(snaps)
	return snaps, nil
}

func (s *FirestoreStore) all(ctx context.Context, q firestore.Query) ([]Snapshot, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromFirestore(doc))
	}
	return out, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data Document) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]any(data))
	return err
}

func (s *FirestoreStore) Create(ctx context.Context, collection, id string, data Document) error {
	_, err := s.client.Collection(collection).Doc(id).Create(ctx, map[string]any(data))
	if status.Code(err) == codes.AlreadyExists {
		return ErrAlreadyExists
	}
	return err
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

// Update runs a Firestore transaction limited to a single attempt.
func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fn UpdateFunc) error {
	ref := s.client.Collection(collection).Doc(id)
	var missing bool
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			missing = true
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		next, err := fn(fromFirestore(snap).Data)
		if err != nil {
			return err
		}
		return tx.Set(ref, map[string]any(next))
	}, firestore.MaxAttempts(1))
	switch {
	case err == nil:
		return nil
	case missing:
		return ErrNotFound
	case status.Code(err) == codes.Aborted:
		return fmt.Errorf("%w: %v", ErrAborted, err)
	default:
		return err
	}
}

func (s *FirestoreStore) Close(context.Context) error {
	return s.client.Close()
}

func fromFirestore(snap *firestore.DocumentSnapshot) Snapshot {
	return Snapshot{ID: snap.Ref.ID, Data: NormalizeDocument(snap.Data())}
}
