package repository

import (
	"context"
	"fmt"

	"github.com/templui/promoproof/internal/model"
)

type jsonEvidenceRepository struct {
	doc *document[*model.Evidence]
}

// NewJSONEvidenceRepository stores evidence as a JSON array in path
// (uploads.json), creating an empty document on first use.
func NewJSONEvidenceRepository(path string) (EvidenceRepository, error) {
	doc, err := openDocument[*model.Evidence](path)
	if err != nil {
		return nil, err
	}
	return &jsonEvidenceRepository{doc: doc}, nil
}

func (r *jsonEvidenceRepository) Create(_ context.Context, e *model.Evidence) error {
	return r.doc.update(func(evidence []*model.Evidence) ([]*model.Evidence, error) {
		for _, existing := range evidence {
			if existing.ID == e.ID {
				return nil, fmt.Errorf("%w: %s", ErrEvidenceExists, e.ID)
			}
		}

		created := *e
		return append(evidence, &created), nil
	})
}

func (r *jsonEvidenceRepository) ByID(_ context.Context, id string) (*model.Evidence, error) {
	evidence, err := r.doc.snapshot()
	if err != nil {
		return nil, err
	}

	for _, e := range evidence {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, ErrEvidenceNotFound
}

func (r *jsonEvidenceRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.ByID(ctx, id)
	if err == ErrEvidenceNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *jsonEvidenceRepository) Evidence(_ context.Context) ([]*model.Evidence, error) {
	evidence, err := r.doc.snapshot()
	if err != nil {
		return nil, err
	}
	if evidence == nil {
		evidence = []*model.Evidence{}
	}
	return evidence, nil
}

func (r *jsonEvidenceRepository) Review(_ context.Context, id string, u ReviewUpdate) (*model.Evidence, error) {
	var reviewed *model.Evidence

	err := r.doc.update(func(evidence []*model.Evidence) ([]*model.Evidence, error) {
		for _, e := range evidence {
			if e.ID != id {
				continue
			}
			if !e.IsPending() {
				return nil, fmt.Errorf("%w: %s", ErrEvidenceNotPending, id)
			}
			e.Status = u.Status
			e.QRPath = u.QRPath
			e.QRFile = u.QRFile
			copied := *e
			reviewed = &copied
			return evidence, nil
		}
		return nil, ErrEvidenceNotFound
	})
	if err != nil {
		return nil, err
	}

	return reviewed, nil
}
