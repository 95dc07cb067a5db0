package application

import (
	"context"
	"time"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/core/tx"
	"kgv/internal/domain/records"
	"kgv/internal/domain/waitinglist"
	"kgv/pkg/logger"
)

// Service provides business logic for applications.
type Service struct {
	repo      Repository
	factory   *records.Factory
	ranker    *waitinglist.Ranker
	txManager tx.Manager
}

// NewService creates a new application service.
func NewService(repo Repository, factory *records.Factory, ranker *waitinglist.Ranker, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		factory:   factory,
		ranker:    ranker,
		txManager: txManager,
	}
}

// RegisterParams carries the intake data for a new application.
type RegisterParams struct {
	Application *Application

	// Lists the application should join immediately (usually "32"/"33").
	Lists []string

	// Attributes feed the lists' eligibility rules.
	Attributes map[string]any
}

// Register performs intake of a new application: issues the entry number and
// file reference for the district/year of submission, persists the record
// and joins the requested waiting lists.
//
// Number issuance happens before the application transaction - a failed
// intake leaves both numbers retired, never reissued (the sequence issuer's
// contract). The office tolerates gaps; it does not tolerate duplicates.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Application, error) {
	app := params.Application
	if app == nil {
		return nil, apperror.NewValidation("application is required")
	}
	if app.ApplicationDate.IsZero() {
		app.ApplicationDate = time.Now().UTC()
	}
	if err := app.Validate(ctx); err != nil {
		return nil, err
	}

	year := app.ApplicationDate.Year()

	entry, err := s.factory.CreateEntryNumber(ctx, app.DistrictCode, year)
	if err != nil {
		return nil, err
	}
	fileRef, err := s.factory.CreateFileReference(ctx, app.DistrictCode, year)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app.ID = id.New()
	app.Version = 1
	app.EntryNumber = entry.Reference()
	app.FileReference = fileRef.Reference()
	app.IsActive = true
	app.CreatedAt = now
	app.UpdatedAt = now

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, app); err != nil {
			return err
		}
		for _, list := range params.Lists {
			_, err := s.ranker.Join(ctx, waitinglist.JoinParams{
				ApplicationID: app.ID,
				ListName:      list,
				ReferenceDate: app.ApplicationDate,
				Attributes:    params.Attributes,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "application registered",
		"application_id", app.ID,
		"file_reference", app.FileReference,
		"entry_number", app.EntryNumber,
		"lists", params.Lists,
	)
	return app, nil
}

// Get retrieves an application by ID.
func (s *Service) Get(ctx context.Context, applicationID id.ID) (*Application, error) {
	app, err := s.repo.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperror.NewNotFound("application", applicationID)
	}
	return app, nil
}

// List retrieves applications matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Application, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// Update modifies an application's contact data. The file reference, entry
// number, district code and application date are immutable after intake: the
// issued identifiers embed all three.
func (s *Service) Update(ctx context.Context, app *Application) error {
	existing, err := s.Get(ctx, app.ID)
	if err != nil {
		return err
	}
	app.FileReference = existing.FileReference
	app.EntryNumber = existing.EntryNumber
	app.DistrictCode = existing.DistrictCode
	app.ApplicationDate = existing.ApplicationDate
	if err := app.Validate(ctx); err != nil {
		return err
	}
	app.UpdatedAt = time.Now().UTC()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, app)
	})
}

// Deactivate withdraws an application: removes it from every production
// waiting list it is still on and marks the record inactive.
func (s *Service) Deactivate(ctx context.Context, applicationID id.ID) error {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return err
	}
	if !app.IsActive {
		return apperror.NewConflict("application is already inactive").
			WithDetail("application_id", applicationID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, list := range []string{waitinglist.ListDistrict32, waitinglist.ListDistrict33} {
			if err := s.ranker.Remove(ctx, applicationID, list); err != nil {
				if apperror.IsNotFound(err) {
					continue // was never on this list
				}
				return err
			}
		}
		return s.repo.Deactivate(ctx, applicationID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "application deactivated", "application_id", applicationID)
	return nil
}
