package handler

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/templui/promoproof/internal/service"
)

type MaterialHandler struct {
	catalogService *service.CatalogService
	maxUploadSize  int64
}

func NewMaterialHandler(catalogService *service.CatalogService, maxUploadSize int64) *MaterialHandler {
	return &MaterialHandler{
		catalogService: catalogService,
		maxUploadSize:  maxUploadSize,
	}
}

func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	slog.Info("fetching materials list")

	materials, err := h.catalogService.Materials(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load materials")
		return
	}

	writeJSON(w, http.StatusOK, materials)
}

// Asset streams the image (default) or text asset of a material.
func (h *MaterialHandler) Asset(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid material id")
		return
	}
	kind := r.URL.Query().Get("type")

	rc, name, err := h.catalogService.OpenAsset(r.Context(), id, kind)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch material", "material_id", id, "type", kind)
		return
	}

	slog.Info("sending material file", "material_id", id, "name", name)
	serveFile(w, rc, name)
}

// Register creates a material from a multipart form with name, type, an
// image file and an optional text file.
func (h *MaterialHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxUploadSize)

	err := r.ParseMultipartForm(h.maxUploadSize)
	if err != nil {
		slog.Warn("failed to parse material form", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	in := service.RegisterInput{
		Name: r.FormValue("name"),
		Type: r.FormValue("type"),
	}
	in.Image, err = formFile(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}
	in.Text, _ = formFile(r, "text")

	m, err := h.catalogService.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "Failed to register material", "name", in.Name)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

func formFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, fmt.Errorf("missing file %q", field)
	}
	return r.MultipartForm.File[field][0], nil
}
