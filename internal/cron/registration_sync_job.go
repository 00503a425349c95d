package cron

import (
	"context"
	"fmt"

	"github.com/classpilot/classpilot-backend/internal/registrations"
	"github.com/classpilot/classpilot-backend/pkg/logger"
)

type registrationSyncer interface {
	Sync(ctx context.Context) (*registrations.SyncResult, error)
}

// RegistrationSyncJobParams configure the registration sync job.
type RegistrationSyncJobParams struct {
	Logger *logger.Logger
	Syncer registrationSyncer
}

// NewRegistrationSyncJob builds the job that pulls registrations from the
// school site every cycle.
func NewRegistrationSyncJob(params RegistrationSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("registration syncer required")
	}
	return &registrationSyncJob{logg: params.Logger, syncer: params.Syncer}, nil
}

type registrationSyncJob struct {
	logg   *logger.Logger
	syncer registrationSyncer
}

func (j *registrationSyncJob) Name() string { return "registration-sync" }

// Run executes one sync. Failures are reported to the scheduler; the next
// cycle retries from scratch.
func (j *registrationSyncJob) Run(ctx context.Context) error {
	result, err := j.syncer.Sync(ctx)
	if err != nil {
		if result != nil {
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"success": false,
				"fetched": result.Fetched,
				"synced":  result.Synced,
				"skipped": result.Skipped,
			})
			j.logg.Warn(logCtx, "registration sync partially failed")
		}
		return fmt.Errorf("registration sync: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"success": true,
		"fetched": result.Fetched,
		"synced":  result.Synced,
		"skipped": result.Skipped,
	})
	j.logg.Info(logCtx, "registration sync complete")
	return nil
}
