package service

import (
	"context"
	"fmt"
	"sort"

	repository "github.com/ds124wfegd/fleet-insight/internal/database/warehouse"
	"github.com/ds124wfegd/fleet-insight/internal/entity"
)

type insightService struct {
	repo repository.InsightRepository
}

func NewInsightService(repo repository.InsightRepository) InsightService {
	return &insightService{repo: repo}
}

// TopVehicles returns at most limit rows ordered by descending total distance.
// An empty slice with a nil error means the warehouse had no data.
func (s *insightService) TopVehicles(ctx context.Context, limit int) ([]entity.VehicleMetric, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", entity.ErrInvalidInput)
	}

	rows, err := s.repo.TopVehiclesByDistance(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top vehicles: %w", err)
	}
	if rows == nil {
		rows = []entity.VehicleMetric{}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalDistance > rows[j].TotalDistance
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return rows, nil
}

func (s *insightService) FleetSummary(ctx context.Context) (*entity.FleetSummary, error) {
	summary, err := s.repo.FleetSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get fleet summary: %w", err)
	}

	return summary, nil
}
