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
	ErrMaterialNotFound = errors.New("material not found")
	ErrMaterialExists   = errors.New("material already exists")
)

// MaterialRepository is the catalog store. Materials are never updated or
// deleted once created.
type MaterialRepository interface {
	// Create inserts m. A zero m.ID is replaced by the next free id.
	Create(ctx context.Context, m *model.Material) error
	ByID(ctx context.Context, id int64) (*model.Material, error)
	// Materials returns every material in insertion (id) order.
	Materials(ctx context.Context) ([]*model.Material, error)
	Count(ctx context.Context) (int, error)
}

type materialRepository struct {
	db *sqlx.DB
}

func NewMaterialRepository(db *sqlx.DB) MaterialRepository {
	return &materialRepository{db: db}
}

// createLock returns the statement that serializes material creation on
// driver, or "" when the driver already runs one writer at a time.
// SHARE ROW EXCLUSIVE conflicts with itself and with plain INSERTs but not
// with reads, so concurrent creators cannot both see the same MAX(id).
func createLock(driver string) string {
	if driver == "pgx" {
		return `LOCK TABLE materials IN SHARE ROW EXCLUSIVE MODE`
	}
	return ""
}

func (r *materialRepository) Create(ctx context.Context, m *model.Material) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if lock := createLock(r.db.DriverName()); lock != "" {
		_, err = tx.ExecContext(ctx, lock)
		if err != nil {
			return fmt.Errorf("failed to lock materials: %w", err)
		}
	}

	if m.ID == 0 {
		var id int64
		err = tx.GetContext(ctx, &id, `SELECT COALESCE(MAX(id), 0) + 1 FROM materials`)
		if err != nil {
			return fmt.Errorf("failed to allocate material id: %w", err)
		}
		defer func() {
			if err != nil {
				m.ID = 0
			}
		}()
		m.ID = id
	} else {
		var n int
		err = tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM materials WHERE id = $1`, m.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d", ErrMaterialExists, m.ID)
		}
	}

	query := `INSERT INTO materials (id, name, type, image, text) VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.ExecContext(ctx, query, m.ID, m.Name, m.Type, m.Image, m.Text)
	if err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

func (r *materialRepository) ByID(ctx context.Context, id int64) (*model.Material, error) {
	m := &model.Material{}
	query := `SELECT id, name, type, image, text FROM materials WHERE id = $1`

	err := r.db.GetContext(ctx, m, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrMaterialNotFound
	}

	return m, err
}

func (r *materialRepository) Materials(ctx context.Context) ([]*model.Material, error) {
	materials := []*model.Material{}
	query := `SELECT id, name, type, image, text FROM materials ORDER BY id`

	err := r.db.SelectContext(ctx, &materials, query)
	if err != nil {
		return nil, err
	}

	return materials, nil
}

func (r *materialRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM materials`)
	return n, err
}
