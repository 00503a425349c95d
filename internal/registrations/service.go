package registrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/classpilot/classpilot-backend/pkg/db/models"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
	"github.com/classpilot/classpilot-backend/pkg/logger"
)

type fetcher interface {
	Fetch(ctx context.Context) ([]ExternalRecord, error)
}

var validate = validator.New()

// SyncResult summarizes one sync cycle.
type SyncResult struct {
	Fetched int `json:"fetched"`
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
}

// ServiceParams configures the registration sync service.
type ServiceParams struct {
	Repo    Repository
	Fetcher fetcher
	Logger  *logger.Logger
}

// Service syncs registration rows from the external school site into the
// local database.
type Service struct {
	repo    Repository
	fetcher fetcher
	logg    *logger.Logger
}

// NewService wires a registration sync service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "registration repo required")
	}
	if params.Fetcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "registration fetcher required")
	}
	return &Service{repo: params.Repo, fetcher: params.Fetcher, logg: params.Logger}, nil
}

// Sync pulls the collaborator's rows and upserts them by external id. A bad
// row skips, a failed upsert is collected, and the cycle keeps going; the
// aggregated error is returned alongside the partial result.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	records, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Fetched: len(records)}
	now := time.Now().UTC()

	var errs error
	for _, record := range records {
		row, err := toModel(record, now)
		if err != nil {
			result.Skipped++
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("skipping registration %q: %v", record.ID, err))
			}
			continue
		}
		if err := s.repo.UpsertByExternalID(ctx, row); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("registration %s: %w", record.ID, err))
			continue
		}
		result.Synced++
	}

	if errs != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "sync registrations")
	}
	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("registration sync completed: fetched=%d synced=%d skipped=%d",
			result.Fetched, result.Synced, result.Skipped))
	}
	return result, nil
}

// List returns registrations joined with organization names for the admin
// dashboard.
func (s *Service) List(ctx context.Context, limit int) ([]RegistrationWithOrg, error) {
	rows, err := s.repo.ListWithOrganization(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list registrations")
	}
	return rows, nil
}

func toModel(record ExternalRecord, syncedAt time.Time) (*models.Registration, error) {
	if err := validate.Struct(record); err != nil {
		return nil, err
	}
	orgID, err := uuid.Parse(record.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id %q", record.OrganizationID)
	}
	status := strings.ToLower(strings.TrimSpace(record.Status))
	if status == "" {
		status = "pending"
	}
	return &models.Registration{
		ID:             uuid.New(),
		ExternalID:     strings.TrimSpace(record.ID),
		OrganizationID: orgID,
		StudentName:    record.StudentName,
		ParentEmail:    record.ParentEmail,
		Grade:          record.Grade,
		Status:         status,
		SubmittedAt:    record.SubmittedAt,
		SyncedAt:       syncedAt,
	}, nil
}
