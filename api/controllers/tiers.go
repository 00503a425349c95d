package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classpilot/classpilot-backend/api/responses"
	"github.com/classpilot/classpilot-backend/internal/tiers"
	"github.com/classpilot/classpilot-backend/pkg/db/models"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
	"github.com/classpilot/classpilot-backend/pkg/logger"
)

// TierReader serves the dashboard's tier and quota reads.
type TierReader interface {
	CurrentTier(ctx context.Context, userID uuid.UUID) (*models.UserTier, error)
	UsageWithLimits(ctx context.Context, userID uuid.UUID) (*models.UserUsage, tiers.Limits, error)
}

type tierPayload struct {
	UserID         string `json:"user_id"`
	ProductTier    string `json:"product_tier"`
	CapabilityTier string `json:"capability_tier"`
	IsActive       bool   `json:"is_active"`
}

type usagePayload struct {
	UserID       string       `json:"user_id"`
	CurrentTier  string       `json:"current_tier"`
	RequestsUsed int64        `json:"requests_used"`
	TokensUsed   int64        `json:"tokens_used"`
	Limits       tiers.Limits `json:"limits"`
}

// TierCurrent returns the user's persisted tier, defaulting to free.
func TierCurrent(svc TierReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		tier, err := svc.CurrentTier(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, tierPayload{
			UserID:         userID.String(),
			ProductTier:    tier.ProductTier.String(),
			CapabilityTier: tier.CapabilityTier.String(),
			IsActive:       tier.IsActive,
		})
	}
}

// TierUsage returns the user's usage counters beside their tier limits.
func TierUsage(svc TierReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		usage, limits, err := svc.UsageWithLimits(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, usagePayload{
			UserID:       userID.String(),
			CurrentTier:  usage.CurrentTier.String(),
			RequestsUsed: usage.RequestsUsed,
			TokensUsed:   usage.TokensUsed,
			Limits:       limits,
		})
	}
}
