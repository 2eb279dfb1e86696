package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/templui/promoproof/internal/metrics"
	"github.com/templui/promoproof/internal/model"
	"github.com/templui/promoproof/internal/qr"
	"github.com/templui/promoproof/internal/repository"
	"github.com/templui/promoproof/internal/storage"
	"github.com/templui/promoproof/internal/validation"
)

// QRGenerator renders and stores a reward code, returning the image name.
type QRGenerator interface {
	Generate(ctx context.Context, materialID int64, timestamp string) (string, error)
}

type EvidenceService struct {
	// mu serializes submissions (id allocation, screenshot write, append)
	// and reviews (QR render, conditional update), so same-second uploads
	// never share a screenshot and a losing approval never leaves a QR image.
	mu sync.Mutex

	repo          repository.EvidenceRepository
	storage       storage.Storage
	qr            QRGenerator
	maxUploadSize int64
	now           func() time.Time
}

func NewEvidenceService(
	repo repository.EvidenceRepository,
	storage storage.Storage,
	qr QRGenerator,
	maxUploadSize int64,
) *EvidenceService {
	return &EvidenceService{
		repo:          repo,
		storage:       storage,
		qr:            qr,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
	}
}

// SubmitInput is one evidence upload.
type SubmitInput struct {
	Screenshot io.Reader
	MimeType   string
	Size       int64
	URL        string
	Comment    string
	MaterialID int64
}

// Submit validates and stores a screenshot, then appends a pending evidence
// record. Nothing is written when validation fails, and the record is only
// appended once the screenshot is safely stored.
func (s *EvidenceService) Submit(ctx context.Context, in SubmitInput) (*model.Evidence, error) {
	err := s.validateSubmit(in)
	if err != nil {
		metrics.EvidenceSubmitted.WithLabelValues("invalid").Inc()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timestamp := s.now().Format(model.TimestampLayout)
	id, err := s.newEvidenceID(ctx, in.MaterialID, timestamp)
	if err != nil {
		return nil, err
	}

	filename := "evidence_" + id + ".png"
	key := path.Join(storage.PrefixUploads, filename)

	err = s.storage.Save(ctx, key, in.Screenshot)
	if err != nil {
		metrics.EvidenceSubmitted.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("%w: failed to save screenshot: %w", ErrStorage, err)
	}
	slog.Info("saved screenshot", "path", key)

	evidence := &model.Evidence{
		ID:         id,
		MaterialID: in.MaterialID,
		Screenshot: filename,
		URL:        in.URL,
		Comment:    in.Comment,
		Status:     model.EvidenceStatusPending,
		Timestamp:  timestamp,
	}

	err = s.repo.Create(ctx, evidence)
	if err != nil {
		// Don't leave an orphaned screenshot behind
		delErr := s.storage.Delete(ctx, key)
		if delErr != nil {
			slog.Error("failed to delete screenshot during cleanup", "error", delErr, "path", key)
		}
		metrics.EvidenceSubmitted.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("%w: failed to register evidence: %w", ErrStorage, err)
	}

	metrics.EvidenceSubmitted.WithLabelValues("accepted").Inc()
	slog.Info("evidence registered", "evidence_id", id, "material_id", in.MaterialID)
	return evidence, nil
}

func (s *EvidenceService) validateSubmit(in SubmitInput) error {
	if in.Screenshot == nil {
		return fmt.Errorf("%w: no screenshot provided", ErrInvalidInput)
	}
	err := validation.ValidateEvidenceURL(in.URL)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	err = validation.ValidateScreenshot(in.MimeType, in.Size, s.maxUploadSize)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return nil
}

// newEvidenceID returns "{materialID}_{timestamp}", with a random suffix when
// another upload for the same material already took that second.
func (s *EvidenceService) newEvidenceID(ctx context.Context, materialID int64, timestamp string) (string, error) {
	id := fmt.Sprintf("%d_%s", materialID, timestamp)

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return "", fmt.Errorf("%w: failed to check evidence id: %w", ErrStorage, err)
	}
	if !exists {
		return id, nil
	}

	suffixed := id + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	slog.Warn("evidence id collision, adding suffix", "evidence_id", id, "new_id", suffixed)
	return suffixed, nil
}

func (s *EvidenceService) Evidence(ctx context.Context) ([]*model.Evidence, error) {
	evidence, err := s.repo.Evidence(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load evidence: %w", ErrStorage, err)
	}
	return evidence, nil
}

func (s *EvidenceService) ByID(ctx context.Context, id string) (*model.Evidence, error) {
	e, err := s.repo.ByID(ctx, id)
	if errors.Is(err, repository.ErrEvidenceNotFound) {
		return nil, fmt.Errorf("%w: evidence %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load evidence %s: %w", ErrStorage, id, err)
	}
	return e, nil
}

// Review moves a pending record to approved or rejected. Approval renders
// the reward QR code first; the stored qr_path is the canonical retrieval
// path /qr/{id}.
func (s *EvidenceService) Review(ctx context.Context, id, rawAction string) (*model.Evidence, error) {
	action, err := model.ParseReviewAction(rawAction)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evidence, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !evidence.IsPending() {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyReviewed, id, evidence.Status)
	}

	update := repository.ReviewUpdate{Status: action.Status()}
	if action == model.ReviewActionApprove {
		qrFile, err := s.qr.Generate(ctx, evidence.MaterialID, evidence.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to generate QR code: %w", ErrStorage, err)
		}
		metrics.QRCodesGenerated.Inc()
		update.QRPath = "/qr/" + id
		update.QRFile = qrFile
	}

	reviewed, err := s.repo.Review(ctx, id, update)
	if err != nil && update.QRFile != "" {
		s.discardQR(ctx, update.QRFile)
	}
	switch {
	case errors.Is(err, repository.ErrEvidenceNotFound):
		return nil, fmt.Errorf("%w: evidence %s", ErrNotFound, id)
	case errors.Is(err, repository.ErrEvidenceNotPending):
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReviewed, id)
	case err != nil:
		return nil, fmt.Errorf("%w: failed to update evidence %s: %w", ErrStorage, id, err)
	}

	metrics.EvidenceReviewed.WithLabelValues(string(action)).Inc()
	slog.Info("evidence reviewed", "evidence_id", id, "action", action, "qr_file", reviewed.QRFile)
	return reviewed, nil
}

// OpenQR returns the reward image for an approved evidence id. For links
// minted before qr_path held /qr/{id}, a bare qr_reward_*.png name is
// accepted too.
func (s *EvidenceService) OpenQR(ctx context.Context, ref string) (io.ReadCloser, error) {
	filename, err := s.qrFilename(ctx, ref)
	if err != nil {
		return nil, err
	}

	key := qr.Key(filename)
	slog.Debug("checking QR code file", "path", key)
	rc, err := s.storage.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
		return nil, fmt.Errorf("%w: QR code %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open QR code %s: %w", ErrStorage, filename, err)
	}
	return rc, nil
}

func (s *EvidenceService) qrFilename(ctx context.Context, ref string) (string, error) {
	evidence, err := s.repo.ByID(ctx, ref)
	if err == nil {
		if evidence.Status != model.EvidenceStatusApproved || evidence.QRFile == "" {
			return "", fmt.Errorf("%w: evidence %s has no QR code", ErrNotFound, ref)
		}
		return evidence.QRFile, nil
	}
	if !errors.Is(err, repository.ErrEvidenceNotFound) {
		return "", fmt.Errorf("%w: failed to load evidence %s: %w", ErrStorage, ref, err)
	}

	if !strings.HasPrefix(ref, "qr_reward_") || !strings.HasSuffix(ref, ".png") || strings.ContainsAny(ref, `/\`) {
		return "", fmt.Errorf("%w: QR code %s", ErrNotFound, ref)
	}

	// A bare name is only served while an approved record owns it
	owned, err := s.qrFileOwned(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%w: failed to resolve QR code %s: %w", ErrStorage, ref, err)
	}
	if !owned {
		return "", fmt.Errorf("%w: QR code %s", ErrNotFound, ref)
	}
	return ref, nil
}

// qrFileOwned reports whether an approved record references filename.
// Same-second uploads for one material share a QR image name.
func (s *EvidenceService) qrFileOwned(ctx context.Context, filename string) (bool, error) {
	all, err := s.repo.Evidence(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range all {
		if e.Status == model.EvidenceStatusApproved && e.QRFile == filename {
			return true, nil
		}
	}
	return false, nil
}

// discardQR removes a rendered image whose approval did not go through,
// unless an approved record already points at it.
func (s *EvidenceService) discardQR(ctx context.Context, filename string) {
	owned, err := s.qrFileOwned(ctx, filename)
	if err != nil {
		slog.Error("failed to check QR code owner, keeping image", "error", err, "qr_file", filename)
		return
	}
	if owned {
		return
	}

	err = s.storage.Delete(ctx, qr.Key(filename))
	if err != nil {
		slog.Error("failed to delete QR code during cleanup", "error", err, "qr_file", filename)
		return
	}
	slog.Info("discarded QR code of failed approval", "qr_file", filename)
}

// OpenScreenshot returns the stored screenshot of an evidence record.
func (s *EvidenceService) OpenScreenshot(ctx context.Context, id string) (io.ReadCloser, *model.Evidence, error) {
	evidence, err := s.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	key := path.Join(storage.PrefixUploads, evidence.Screenshot)
	rc, err := s.storage.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
		return nil, nil, fmt.Errorf("%w: %s", ErrAssetMissing, key)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to open %s: %w", ErrStorage, key, err)
	}
	return rc, evidence, nil
}
