package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/templui/promoproof/internal/config"
	"github.com/templui/promoproof/internal/db"
	"github.com/templui/promoproof/internal/qr"
	"github.com/templui/promoproof/internal/repository"
	"github.com/templui/promoproof/internal/service"
	"github.com/templui/promoproof/internal/storage"
)

// Names of the JSON documents under DATA_DIR.
const (
	MaterialsDocument = "materials.json"
	UploadsDocument   = "uploads.json"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB // nil for the json store
	Storage         storage.Storage
	CatalogService  *service.CatalogService
	EvidenceService *service.EvidenceService
	StatusService   *service.StatusService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Cfg: cfg}

	// Repositories
	materialRepository, evidenceRepository, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}
	a.Storage = fileStorage

	// Services
	qrGenerator := qr.NewGenerator(fileStorage)
	a.CatalogService = service.NewCatalogService(materialRepository, fileStorage)
	a.EvidenceService = service.NewEvidenceService(evidenceRepository, fileStorage, qrGenerator, cfg.MaxUploadSize)
	a.StatusService = service.NewStatusService(materialRepository, evidenceRepository)

	return a, nil
}

// openStores selects the record store from STORE_DRIVER: JSON documents in
// DATA_DIR, or a SQL database that is migrated on startup.
func (a *App) openStores(ctx context.Context) (repository.MaterialRepository, repository.EvidenceRepository, error) {
	cfg := a.Cfg

	switch cfg.StoreDriver {
	case "json", "":
		materials, err := repository.NewJSONMaterialRepository(filepath.Join(cfg.DataDir, MaterialsDocument))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open materials document: %v", err)
		}
		evidence, err := repository.NewJSONEvidenceRepository(filepath.Join(cfg.DataDir, UploadsDocument))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open uploads document: %v", err)
		}
		slog.Info("using json store", "dir", cfg.DataDir)
		return materials, evidence, nil

	case "sqlite", "pgx":
		database, err := db.Init(cfg.StoreDriver, cfg.DBConnection)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %v", err)
		}
		a.DB = database

		// Run database migrations
		err = db.RunMigrations(ctx, database.DB, cfg.StoreDriver)
		if err != nil {
			_ = a.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %v", err)
		}
		return repository.NewMaterialRepository(database), repository.NewEvidenceRepository(database), nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
