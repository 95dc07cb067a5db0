package district

import (
	"context"
	"time"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/core/tx"
)

// Service provides business logic for the district and plot catalogs.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new district service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// CreateDistrict validates and persists a new district.
func (s *Service) CreateDistrict(ctx context.Context, d *District) error {
	if err := d.Validate(ctx); err != nil {
		return err
	}
	if existing, err := s.repo.GetDistrictByCode(ctx, d.Code); err != nil {
		return err
	} else if existing != nil {
		return apperror.NewDuplicate("district", "code", d.Code)
	}

	now := time.Now().UTC()
	d.ID = id.New()
	d.Version = 1
	d.IsActive = true
	d.CreatedAt = now
	d.UpdatedAt = now

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateDistrict(ctx, d)
	})
}

// GetByCode retrieves a district by its short code.
func (s *Service) GetByCode(ctx context.Context, code string) (*District, error) {
	d, err := s.repo.GetDistrictByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperror.NewNotFound("district", code)
	}
	return d, nil
}

// List retrieves all districts.
func (s *Service) List(ctx context.Context) ([]District, error) {
	return s.repo.ListDistricts(ctx)
}

// CreatePlot validates and persists a new plot in a district.
func (s *Service) CreatePlot(ctx context.Context, p *Plot) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if d, err := s.repo.GetDistrict(ctx, p.DistrictID); err != nil {
		return err
	} else if d == nil {
		return apperror.NewNotFound("district", p.DistrictID)
	}

	now := time.Now().UTC()
	p.ID = id.New()
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreatePlot(ctx, p)
	})
}

// ListPlots retrieves a district's plots.
func (s *Service) ListPlots(ctx context.Context, districtID id.ID) ([]Plot, error) {
	return s.repo.ListPlots(ctx, districtID)
}
