package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/templui/promoproof/internal/model"
	"github.com/templui/promoproof/internal/repository"
)

type StatusService struct {
	materials repository.MaterialRepository
	evidence  repository.EvidenceRepository
	now       func() time.Time
}

func NewStatusService(materials repository.MaterialRepository, evidence repository.EvidenceRepository) *StatusService {
	return &StatusService{
		materials: materials,
		evidence:  evidence,
		now:       time.Now,
	}
}

// Status loads both stores and counts evidence by status. Nothing is cached.
func (s *StatusService) Status(ctx context.Context) (*model.ServerStatus, error) {
	var (
		materialsCount int
		evidence       []*model.Evidence
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := s.materials.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count materials: %w", err)
		}
		materialsCount = n
		return nil
	})
	eg.Go(func() error {
		all, err := s.evidence.Evidence(ctx)
		if err != nil {
			return fmt.Errorf("failed to load evidence: %w", err)
		}
		evidence = all
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	counts := model.CountByStatus(evidence)
	return &model.ServerStatus{
		Server:         "running",
		MaterialsCount: materialsCount,
		UploadsCount:   counts.Total,
		PendingCount:   counts.Pending,
		ApprovedCount:  counts.Approved,
		RejectedCount:  counts.Rejected,
		Timestamp:      s.now().Format(time.RFC3339),
	}, nil
}
