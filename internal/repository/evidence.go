package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/promoproof/internal/model"
)

var (
	ErrEvidenceNotFound   = errors.New("evidence not found")
	ErrEvidenceExists     = errors.New("evidence already exists")
	ErrEvidenceNotPending = errors.New("evidence already reviewed")
)

// ReviewUpdate is the single mutation an evidence record ever receives.
type ReviewUpdate struct {
	Status model.EvidenceStatus
	QRPath string
	QRFile string
}

// EvidenceRepository is the evidence store. Records are appended by Create
// and changed once by Review; nothing is deleted.
type EvidenceRepository interface {
	Create(ctx context.Context, e *model.Evidence) error
	ByID(ctx context.Context, id string) (*model.Evidence, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Evidence returns every record in insertion order.
	Evidence(ctx context.Context) ([]*model.Evidence, error)
	// Review applies u to a pending record and returns the updated record.
	// Records that are no longer pending yield ErrEvidenceNotPending.
	Review(ctx context.Context, id string, u ReviewUpdate) (*model.Evidence, error)
}

const evidenceColumns = `id, material_id, screenshot, url, comment, status, qr_path, qr_file, "timestamp"`

type evidenceRepository struct {
	db *sqlx.DB
}

func NewEvidenceRepository(db *sqlx.DB) EvidenceRepository {
	return &evidenceRepository{db: db}
}

func (r *evidenceRepository) Create(ctx context.Context, e *model.Evidence) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	err = tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM evidence WHERE id = $1`, e.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ErrEvidenceExists, e.ID)
	}

	// seq keeps insertion order independent of the id format
	query := `INSERT INTO evidence (seq, ` + evidenceColumns + `)
	          VALUES ((SELECT COALESCE(MAX(seq), 0) + 1 FROM evidence), $1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = tx.ExecContext(ctx, query,
		e.ID,
		e.MaterialID,
		e.Screenshot,
		e.URL,
		e.Comment,
		e.Status,
		e.QRPath,
		e.QRFile,
		e.Timestamp,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *evidenceRepository) ByID(ctx context.Context, id string) (*model.Evidence, error) {
	e := &model.Evidence{}
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE id = $1`

	err := r.db.GetContext(ctx, e, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrEvidenceNotFound
	}

	return e, err
}

func (r *evidenceRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM evidence WHERE id = $1`, id)
	return n > 0, err
}

func (r *evidenceRepository) Evidence(ctx context.Context) ([]*model.Evidence, error) {
	evidence := []*model.Evidence{}
	query := `SELECT ` + evidenceColumns + ` FROM evidence ORDER BY seq`

	err := r.db.SelectContext(ctx, &evidence, query)
	if err != nil {
		return nil, err
	}

	return evidence, nil
}

func (r *evidenceRepository) Review(ctx context.Context, id string, u ReviewUpdate) (*model.Evidence, error) {
	query := `UPDATE evidence SET status = $1, qr_path = $2, qr_file = $3
	          WHERE id = $4 AND status = $5`

	res, err := r.db.ExecContext(ctx, query, u.Status, u.QRPath, u.QRFile, id, model.EvidenceStatusPending)
	if err != nil {
		return nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		_, err = r.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrEvidenceNotPending, id)
	}

	return r.ByID(ctx, id)
}
