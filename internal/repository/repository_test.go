package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/promoproof/internal/db"
	"github.com/templui/promoproof/internal/model"
)

type stores struct {
	materials MaterialRepository
	evidence  EvidenceRepository
}

// backends returns a fresh instance of every store implementation.
func backends(t *testing.T) map[string]func(t *testing.T) stores {
	return map[string]func(t *testing.T) stores{
		"json": func(t *testing.T) stores {
			dir := t.TempDir()
			m, err := NewJSONMaterialRepository(filepath.Join(dir, "materials.json"))
			require.NoError(t, err)
			e, err := NewJSONEvidenceRepository(filepath.Join(dir, "uploads.json"))
			require.NoError(t, err)
			return stores{materials: m, evidence: e}
		},
		"sqlite": func(t *testing.T) stores {
			database, err := db.Init("sqlite", ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = database.Close() })
			require.NoError(t, db.RunMigrations(context.Background(), database.DB, "sqlite"))
			return stores{
				materials: NewMaterialRepository(database),
				evidence:  NewEvidenceRepository(database),
			}
		},
	}
}

func newEvidence(id string, materialID int64) *model.Evidence {
	return &model.Evidence{
		ID:         id,
		MaterialID: materialID,
		Screenshot: "evidence_" + id + ".png",
		URL:        "https://example.com/post/" + id,
		Comment:    "posted ✓ <b>",
		Status:     model.EvidenceStatusPending,
		Timestamp:  "20250101_120000",
	}
}

func TestMaterialRepository(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			all, err := s.materials.Materials(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.NotNil(t, all)

			seeded := &model.Material{ID: 5, Name: "Poster", Type: "poster", Image: "poster.png", Text: "poster.txt"}
			require.NoError(t, s.materials.Create(ctx, seeded))

			auto := &model.Material{Name: "Flyer", Type: "flyer", Image: "flyer.png"}
			require.NoError(t, s.materials.Create(ctx, auto))
			assert.Equal(t, int64(6), auto.ID)

			err = s.materials.Create(ctx, &model.Material{ID: 5, Name: "dup"})
			assert.ErrorIs(t, err, ErrMaterialExists)

			got, err := s.materials.ByID(ctx, 5)
			require.NoError(t, err)
			assert.Equal(t, *seeded, *got)

			_, err = s.materials.ByID(ctx, 999)
			assert.ErrorIs(t, err, ErrMaterialNotFound)

			all, err = s.materials.Materials(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, int64(5), all[0].ID)
			assert.Equal(t, int64(6), all[1].ID)

			n, err := s.materials.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

func TestMaterialConcurrentAutoIDs(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			const writers = 20
			ids := make([]int64, writers)
			var wg sync.WaitGroup
			for i := range writers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					m := &model.Material{Name: fmt.Sprintf("material %d", i)}
					assert.NoError(t, s.materials.Create(ctx, m))
					ids[i] = m.ID
				}(i)
			}
			wg.Wait()

			seen := make(map[int64]bool, writers)
			for _, id := range ids {
				assert.False(t, seen[id], "id %d allocated twice", id)
				seen[id] = true
				assert.True(t, id >= 1 && id <= writers, "id %d", id)
			}

			n, err := s.materials.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, writers, n)
		})
	}
}

func TestCreateLock(t *testing.T) {
	assert.Equal(t, "LOCK TABLE materials IN SHARE ROW EXCLUSIVE MODE", createLock("pgx"))
	assert.Empty(t, createLock("sqlite"))
}

func TestEvidenceRoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			const n = 25
			var want []*model.Evidence
			for i := 0; i < n; i++ {
				e := newEvidence(fmt.Sprintf("%d_20250101_1200%02d", i%3, i), int64(i%3))
				require.NoError(t, s.evidence.Create(ctx, e))
				want = append(want, e)
			}

			got, err := s.evidence.Evidence(ctx)
			require.NoError(t, err)
			require.Len(t, got, n)
			for i := range want {
				assert.Equal(t, *want[i], *got[i])
			}
		})
	}
}

func TestEvidenceCreateDuplicate(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			require.NoError(t, s.evidence.Create(ctx, newEvidence("7_20250101_120000", 7)))
			err := s.evidence.Create(ctx, newEvidence("7_20250101_120000", 7))
			assert.ErrorIs(t, err, ErrEvidenceExists)

			ok, err := s.evidence.Exists(ctx, "7_20250101_120000")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.evidence.Exists(ctx, "nope")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestEvidenceReview(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			require.NoError(t, s.evidence.Create(ctx, newEvidence("7_20250101_120000", 7)))
			require.NoError(t, s.evidence.Create(ctx, newEvidence("8_20250101_120000", 8)))

			approved, err := s.evidence.Review(ctx, "7_20250101_120000", ReviewUpdate{
				Status: model.EvidenceStatusApproved,
				QRPath: "/qr/7_20250101_120000",
				QRFile: "qr_reward_7_20250101_120000.png",
			})
			require.NoError(t, err)
			assert.Equal(t, model.EvidenceStatusApproved, approved.Status)
			assert.Equal(t, "/qr/7_20250101_120000", approved.QRPath)

			rejected, err := s.evidence.Review(ctx, "8_20250101_120000", ReviewUpdate{Status: model.EvidenceStatusRejected})
			require.NoError(t, err)
			assert.Equal(t, model.EvidenceStatusRejected, rejected.Status)
			assert.Empty(t, rejected.QRPath)

			// One-shot transitions
			_, err = s.evidence.Review(ctx, "8_20250101_120000", ReviewUpdate{Status: model.EvidenceStatusApproved, QRPath: "/qr/x"})
			assert.ErrorIs(t, err, ErrEvidenceNotPending)

			_, err = s.evidence.Review(ctx, "missing", ReviewUpdate{Status: model.EvidenceStatusRejected})
			assert.ErrorIs(t, err, ErrEvidenceNotFound)

			stored, err := s.evidence.ByID(ctx, "8_20250101_120000")
			require.NoError(t, err)
			assert.Equal(t, model.EvidenceStatusRejected, stored.Status)
			assert.Empty(t, stored.QRPath)
		})
	}
}

func TestJSONEvidenceConcurrentCreate(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewJSONEvidenceRepository(filepath.Join(dir, "uploads.json"))
	require.NoError(t, err)
	ctx := context.Background()

	const writers = 40
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.Create(ctx, newEvidence(fmt.Sprintf("%d_20250101_120000", i), int64(i))))
		}(i)
	}
	wg.Wait()

	all, err := repo.Evidence(ctx)
	require.NoError(t, err)
	assert.Len(t, all, writers)
}

func TestJSONDocumentFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "uploads.json")
	repo, err := NewJSONEvidenceRepository(path)
	require.NoError(t, err)

	// Reopening an existing document keeps its contents
	require.NoError(t, repo.Create(context.Background(), newEvidence("1_20250101_120000", 1)))
	reopened, err := NewJSONEvidenceRepository(path)
	require.NoError(t, err)

	all, err := reopened.Evidence(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "posted ✓ <b>", all[0].Comment)

	d, err := openDocument[map[string]any](path)
	require.NoError(t, err)
	raw, err := d.snapshot()
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.NotContains(t, raw[0], "qr_path", "qr_path only appears once approved")
	assert.Equal(t, "pending", raw[0]["status"])
}

func TestJSONEvidenceRejectsUnknownStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploads.json")
	doc := `[{"id":"1_20250101_120000","material_id":1,"status":"archived","timestamp":"20250101_120000"}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	repo, err := NewJSONEvidenceRepository(path)
	require.NoError(t, err)

	_, err = repo.Evidence(context.Background())
	assert.ErrorContains(t, err, `unknown evidence status "archived"`)

	_, err = repo.ByID(context.Background(), "1_20250101_120000")
	assert.Error(t, err)
}
