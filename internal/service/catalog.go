package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/templui/promoproof/internal/model"
	"github.com/templui/promoproof/internal/repository"
	"github.com/templui/promoproof/internal/storage"
	"github.com/templui/promoproof/internal/validation"
)

type CatalogService struct {
	repo    repository.MaterialRepository
	storage storage.Storage
}

func NewCatalogService(repo repository.MaterialRepository, storage storage.Storage) *CatalogService {
	return &CatalogService{
		repo:    repo,
		storage: storage,
	}
}

// RegisterInput describes a material uploaded through POST /materials.
type RegisterInput struct {
	Name  string
	Type  string
	Image *multipart.FileHeader
	Text  *multipart.FileHeader // Optional
}

func (s *CatalogService) Materials(ctx context.Context) ([]*model.Material, error) {
	materials, err := s.repo.Materials(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load materials: %w", ErrStorage, err)
	}
	return materials, nil
}

func (s *CatalogService) Material(ctx context.Context, id int64) (*model.Material, error) {
	m, err := s.repo.ByID(ctx, id)
	if errors.Is(err, repository.ErrMaterialNotFound) {
		return nil, fmt.Errorf("%w: material %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load material %d: %w", ErrStorage, id, err)
	}
	return m, nil
}

// AssetKey resolves the storage key of one of m's assets. An empty kind
// selects the image.
func (s *CatalogService) AssetKey(m *model.Material, kind string) (string, error) {
	if kind == "" {
		kind = model.AssetKindImage
	}
	if !model.ValidAssetKind(kind) {
		return "", fmt.Errorf("%w: unknown asset type %q", ErrInvalidInput, kind)
	}

	name := m.Asset(kind)
	if !validAssetName(name) {
		return "", fmt.Errorf("%w: material %d has no usable %s asset", ErrAssetMissing, m.ID, kind)
	}
	return path.Join(storage.PrefixMaterials, name), nil
}

// OpenAsset returns a reader for a material asset plus its file name. The
// caller closes the reader.
func (s *CatalogService) OpenAsset(ctx context.Context, id int64, kind string) (io.ReadCloser, string, error) {
	m, err := s.Material(ctx, id)
	if err != nil {
		return nil, "", err
	}

	key, err := s.AssetKey(m, kind)
	if err != nil {
		return nil, "", err
	}

	slog.Debug("looking for file", "path", key)
	rc, err := s.storage.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
		return nil, "", fmt.Errorf("%w: %s", ErrAssetMissing, key)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to open %s: %w", ErrStorage, key, err)
	}

	return rc, path.Base(key), nil
}

// Register stores the uploaded assets and appends a new material. The id
// comes from the store's sequence, not from the catalog size.
func (s *CatalogService) Register(ctx context.Context, in RegisterInput) (*model.Material, error) {
	err := validation.ValidateName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if in.Image == nil {
		return nil, fmt.Errorf("%w: image file is required", ErrInvalidInput)
	}
	err = validation.ValidateFile(in.Image, validation.ImageConstraints)
	if err != nil {
		return nil, fmt.Errorf("%w: image: %s", ErrInvalidInput, err)
	}
	if in.Text != nil {
		err = validation.ValidateFile(in.Text, validation.TextConstraints)
		if err != nil {
			return nil, fmt.Errorf("%w: text: %s", ErrInvalidInput, err)
		}
	}

	m := &model.Material{
		Name: strings.TrimSpace(in.Name),
		Type: cases.Lower(language.Und).String(strings.TrimSpace(in.Type)),
	}

	var saved []string
	cleanup := func() {
		for _, key := range saved {
			delErr := s.storage.Delete(ctx, key)
			if delErr != nil {
				slog.Error("failed to delete asset during cleanup", "error", delErr, "path", key)
			}
		}
	}

	m.Image, err = s.saveAsset(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	saved = append(saved, path.Join(storage.PrefixMaterials, m.Image))

	if in.Text != nil {
		m.Text, err = s.saveAsset(ctx, in.Text)
		if err != nil {
			cleanup()
			return nil, err
		}
		saved = append(saved, path.Join(storage.PrefixMaterials, m.Text))
	}

	err = s.repo.Create(ctx, m)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: failed to create material record: %w", ErrStorage, err)
	}

	slog.Info("material registered", "material_id", m.ID, "name", m.Name, "image", m.Image)
	return m, nil
}

func (s *CatalogService) saveAsset(ctx context.Context, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("%w: failed to read upload: %s", ErrInvalidInput, err)
	}
	defer func() { _ = file.Close() }()

	// Generate unique filename
	filename := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	key := path.Join(storage.PrefixMaterials, filename)

	err = s.storage.Save(ctx, key, file)
	if err != nil {
		return "", fmt.Errorf("%w: failed to save asset: %w", ErrStorage, err)
	}
	return filename, nil
}

// ImportResult summarizes a catalog import.
type ImportResult struct {
	Created int
	Skipped int
}

// Import loads materials from an out-of-band catalog, keeping their ids.
// Materials whose id already exists are skipped, so imports can be re-run.
func (s *CatalogService) Import(ctx context.Context, materials []*model.Material) (ImportResult, error) {
	var res ImportResult
	for _, m := range materials {
		if m.ID <= 0 {
			return res, fmt.Errorf("%w: material %q needs a positive id", ErrInvalidInput, m.Name)
		}

		err := s.repo.Create(ctx, m)
		if errors.Is(err, repository.ErrMaterialExists) {
			slog.Debug("material already in catalog", "material_id", m.ID)
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("%w: failed to import material %d: %w", ErrStorage, m.ID, err)
		}
		res.Created++
	}

	slog.Info("catalog imported", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

// ImportAsset copies a local asset file into catalog storage under name.
func (s *CatalogService) ImportAsset(ctx context.Context, name string, r io.Reader) error {
	if !validAssetName(name) {
		return fmt.Errorf("%w: invalid asset name %q", ErrInvalidInput, name)
	}
	err := s.storage.Save(ctx, path.Join(storage.PrefixMaterials, name), r)
	if err != nil {
		return fmt.Errorf("%w: failed to save asset %s: %w", ErrStorage, name, err)
	}
	return nil
}

// MissingAssets lists the asset names referenced by the catalog that are not
// in storage, as "<material id>/<name>".
func (s *CatalogService) MissingAssets(ctx context.Context) ([]string, error) {
	materials, err := s.Materials(ctx)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, m := range materials {
		for _, name := range []string{m.Image, m.Text} {
			if name == "" {
				continue
			}
			if !validAssetName(name) {
				missing = append(missing, fmt.Sprintf("%d/%s", m.ID, name))
				continue
			}
			ok, err := s.storage.Exists(ctx, path.Join(storage.PrefixMaterials, name))
			if err != nil {
				return nil, fmt.Errorf("%w: failed to check asset %s: %w", ErrStorage, name, err)
			}
			if !ok {
				missing = append(missing, fmt.Sprintf("%d/%s", m.ID, name))
			}
		}
	}
	return missing, nil
}

// validAssetName accepts relative, already-clean names that stay inside the
// catalog area.
func validAssetName(name string) bool {
	if name == "" || path.IsAbs(name) || name != path.Clean(name) {
		return false
	}
	return name != ".." && !strings.HasPrefix(name, "../")
}
