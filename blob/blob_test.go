package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "pictures/pin/a", strings.NewReader("jpeg")); err != nil {
		t.Fatal(err)
	}
	rc, err := s.Open(ctx, "pictures/pin/a")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpeg" {
		t.Fatalf("got %q", data)
	}

	if _, err := s.Open(ctx, "pictures/pin/b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing blob: got %v", err)
	}
}
