package repository

import (
	"context"
	"fmt"

	"github.com/templui/promoproof/internal/model"
)

type jsonMaterialRepository struct {
	doc *document[*model.Material]
}

// NewJSONMaterialRepository stores the catalog as a JSON array in path
// (materials.json), creating an empty catalog on first use.
func NewJSONMaterialRepository(path string) (MaterialRepository, error) {
	doc, err := openDocument[*model.Material](path)
	if err != nil {
		return nil, err
	}
	return &jsonMaterialRepository{doc: doc}, nil
}

// Create assigns max(id)+1 when m.ID is zero. Materials are never deleted,
// so ids are not reused.
func (r *jsonMaterialRepository) Create(_ context.Context, m *model.Material) error {
	return r.doc.update(func(materials []*model.Material) ([]*model.Material, error) {
		var maxID int64
		for _, existing := range materials {
			if m.ID != 0 && existing.ID == m.ID {
				return nil, fmt.Errorf("%w: %d", ErrMaterialExists, m.ID)
			}
			maxID = max(maxID, existing.ID)
		}
		if m.ID == 0 {
			m.ID = maxID + 1
		}

		created := *m
		return append(materials, &created), nil
	})
}

func (r *jsonMaterialRepository) ByID(_ context.Context, id int64) (*model.Material, error) {
	materials, err := r.doc.snapshot()
	if err != nil {
		return nil, err
	}

	for _, m := range materials {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, ErrMaterialNotFound
}

func (r *jsonMaterialRepository) Materials(_ context.Context) ([]*model.Material, error) {
	materials, err := r.doc.snapshot()
	if err != nil {
		return nil, err
	}
	if materials == nil {
		materials = []*model.Material{}
	}
	return materials, nil
}

func (r *jsonMaterialRepository) Count(ctx context.Context) (int, error) {
	materials, err := r.doc.snapshot()
	if err != nil {
		return 0, err
	}
	return len(materials), nil
}
