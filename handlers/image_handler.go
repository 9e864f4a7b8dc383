package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"triptracker/middleware"
	"triptracker/services"
	"triptracker/utils/errors"
)

const maxImageSize = 10 << 20

type ImageHandler struct {
	imageService *services.ImageService
}

func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, errors.NewAPIError(errors.ErrInvalidInput.Code, "Missing file field", errors.ErrInvalidInput.Status, err.Error()))
		return
	}
	defer file.Close()

	url, err := h.imageService.Upload(r.Context(), mux.Vars(r)["kind"], file)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *ImageHandler) Download(w http.ResponseWriter, r *http.Request) {
	rc, err := h.imageService.Open(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("Failed to stream image: %v", err)
	}
}
