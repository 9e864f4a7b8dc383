package services

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"triptracker/blob"
	"triptracker/utils/errors"
)

const (
	ImageKindPin     = "pin"
	ImageKindProfile = "profile"
)

var ErrImageKind = errors.NewAPIError("INVALID_IMAGE_KIND", "Image kind must be pin or profile", http.StatusBadRequest)

type ImageService struct {
	blobs   blob.Store
	baseURL string
}

func NewImageService(blobs blob.Store, publicBaseURL string) *ImageService {
	return &ImageService{blobs: blobs, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Upload stores the picture under pictures/<kind>/<uuid> and returns its URL.
func (s *ImageService) Upload(ctx context.Context, kind string, r io.Reader) (string, error) {
	if kind != ImageKindPin && kind != ImageKindProfile {
		return "", ErrImageKind
	}
	key := "pictures/" + kind + "/" + uuid.New().String()
	if err := s.blobs.Put(ctx, key, r); err != nil {
		return "", errors.Wrap(err, "UPLOAD_ERROR", "Failed to store image", http.StatusInternalServerError)
	}
	return s.URL(key), nil
}

func (s *ImageService) URL(key string) string {
	return s.baseURL + "/images/" + key
}

func (s *ImageService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, "pictures/") {
		return nil, blob.ErrNotFound
	}
	return s.blobs.Open(ctx, key)
}
