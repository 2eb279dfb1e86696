package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/templui/promoproof/internal/service"
)

// formOverhead is the room left for the non-file fields of an upload form.
const formOverhead = 1 << 20

type EvidenceHandler struct {
	evidenceService *service.EvidenceService
	maxUploadSize   int64
}

func NewEvidenceHandler(evidenceService *service.EvidenceService, maxUploadSize int64) *EvidenceHandler {
	return &EvidenceHandler{
		evidenceService: evidenceService,
		maxUploadSize:   maxUploadSize,
	}
}

type submitResponse struct {
	Message    string `json:"message"`
	EvidenceID string `json:"evidence_id"`
}

type reviewRequest struct {
	Action string `json:"action"`
}

type reviewResponse struct {
	Message string `json:"message"`
	QRPath  string `json:"qr_path"`
}

// Submit accepts a multipart form with screenshot, url, comment and
// material_id.
func (h *EvidenceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)

	err := r.ParseMultipartForm(h.maxUploadSize)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("upload too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusBadRequest, "File too large")
			return
		}
		slog.Warn("failed to parse upload form", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("screenshot")
	if err != nil {
		slog.Error("no screenshot provided in request")
		writeError(w, http.StatusBadRequest, "No screenshot provided")
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	materialID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("material_id")), 10, 64)
	if err != nil {
		slog.Warn("invalid material id", "material_id", r.FormValue("material_id"))
		writeError(w, http.StatusBadRequest, "Invalid material_id")
		return
	}

	evidence, err := h.evidenceService.Submit(r.Context(), service.SubmitInput{
		Screenshot: file,
		MimeType:   header.Header.Get("Content-Type"),
		Size:       header.Size,
		URL:        r.FormValue("url"),
		Comment:    r.FormValue("comment"),
		MaterialID: materialID,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to submit evidence", "material_id", materialID)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Message:    "Evidence uploaded",
		EvidenceID: evidence.ID,
	})
}

func (h *EvidenceHandler) List(w http.ResponseWriter, r *http.Request) {
	slog.Info("fetching uploads list")

	evidence, err := h.evidenceService.Evidence(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load uploads")
		return
	}

	writeJSON(w, http.StatusOK, evidence)
}

func (h *EvidenceHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	evidence, err := h.evidenceService.ByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load evidence", "evidence_id", id)
		return
	}

	writeJSON(w, http.StatusOK, evidence)
}

func (h *EvidenceHandler) Screenshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rc, evidence, err := h.evidenceService.OpenScreenshot(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch screenshot", "evidence_id", id)
		return
	}

	serveFile(w, rc, evidence.Screenshot)
}

// Review applies {"action": "approve"|"reject"} to a pending record.
func (h *EvidenceHandler) Review(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req reviewRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, formOverhead)).Decode(&req)
	if err != nil {
		slog.Warn("invalid review request", "error", err, "evidence_id", id)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	slog.Info("reviewing evidence", "evidence_id", id, "action", req.Action)

	evidence, err := h.evidenceService.Review(r.Context(), id, req.Action)
	if err != nil {
		writeServiceError(w, r, err, "Failed to review evidence", "evidence_id", id, "action", req.Action)
		return
	}

	writeJSON(w, http.StatusOK, reviewResponse{
		Message: "Evidence " + string(evidence.Status),
		QRPath:  evidence.QRPath,
	})
}

// QR streams a reward image by evidence id or by its file name.
func (h *EvidenceHandler) QR(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	slog.Debug("requesting QR code", "ref", ref)

	rc, err := h.evidenceService.OpenQR(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, err, "QR code not found", "ref", ref)
		return
	}

	slog.Info("sending QR code", "ref", ref)
	serveFile(w, rc, qrName(ref))
}

func qrName(ref string) string {
	if strings.HasSuffix(ref, ".png") {
		return ref
	}
	return "qr_" + ref + ".png"
}
