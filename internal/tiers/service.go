package tiers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/classpilot/classpilot-backend/internal/payfast"
	"github.com/classpilot/classpilot-backend/pkg/db/models"
	"github.com/classpilot/classpilot-backend/pkg/enums"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
	"github.com/classpilot/classpilot-backend/pkg/logger"
)

// Reconciliation step names reported in warnings and logs.
const (
	StepUpsertTier  = "upsert_user_tier"
	StepUpsertUsage = "upsert_user_usage"
	StepClearTrial  = "clear_trial_flag"
	StepAppendAudit = "append_subscription_log"
)

// StepWarning records a non-fatal failure in one reconciliation step. The
// payment is still acknowledged when only warnings occurred.
type StepWarning struct {
	Step   string `json:"step"`
	Detail string `json:"detail"`
}

// Result reports what a payment notification did to the user's tier state.
// Skipped notifications carry the status instead of a tier.
type Result struct {
	Applied        bool                 `json:"applied"`
	Status         enums.PaymentStatus  `json:"status"`
	ProductTier    enums.ProductTier    `json:"product_tier,omitempty"`
	CapabilityTier enums.CapabilityTier `json:"capability_tier,omitempty"`
	Warnings       []StepWarning        `json:"warnings,omitempty"`
}

type trialFlagStore interface {
	Del(ctx context.Context, keys ...string) error
	TrialKey(userID string) string
}

// ServiceParams configures the tier reconciliation service.
type ServiceParams struct {
	Repo            Repository
	TrialFlags      trialFlagStore
	Logger          *logger.Logger
	AuditLogEnabled bool
}

// Service reconciles gateway payment notifications into tier state.
type Service struct {
	repo            Repository
	trialFlags      trialFlagStore
	logg            *logger.Logger
	auditLogEnabled bool
}

// NewService wires a reconciliation service. The trial flag store is
// optional; without it the trial-clearing step is skipped with a warning.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tier repo required")
	}
	return &Service{
		repo:            params.Repo,
		trialFlags:      params.TrialFlags,
		logg:            params.Logger,
		auditLogEnabled: params.AuditLogEnabled,
	}, nil
}

// ApplyPayment reconciles one notification. Non-COMPLETE statuses are
// acknowledged without touching any state. For COMPLETE payments the tier
// upsert is the only fatal step; usage sync, trial-flag clearing and audit
// logging degrade to warnings so a flaky side channel never triggers a
// gateway retry storm.
func (s *Service) ApplyPayment(ctx context.Context, n *payfast.Notification) (*Result, error) {
	if n == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification required")
	}
	if !n.PaymentStatus.IsComplete() {
		if n.PaymentStatus.IsTerminalFailure() {
			s.info(ctx, fmt.Sprintf("payment %s acknowledged without tier change", n.PaymentStatus))
		} else {
			s.info(ctx, fmt.Sprintf("non-terminal payment status %s ignored", n.PaymentStatus))
		}
		return &Result{Applied: false, Status: n.PaymentStatus}, nil
	}

	userID, err := uuid.Parse(n.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}

	product := enums.ProductTier(n.ProductTier)
	capability := MapProductTier(product)
	if !product.IsValid() {
		s.warn(ctx, fmt.Sprintf("unknown product tier %q mapped to free", n.ProductTier))
		product = enums.ProductTierFree
	}

	result := &Result{Applied: true, Status: n.PaymentStatus, ProductTier: product, CapabilityTier: capability}

	previous := enums.ProductTierFree
	if prior, err := s.repo.FindTierByUser(ctx, userID); err == nil && prior != nil {
		previous = prior.ProductTier
	}

	metadata, _ := json.Marshal(map[string]string{
		"pf_payment_id":    n.PfPaymentID,
		"m_payment_id":     n.MPaymentID,
		"item_name":        n.ItemName,
		"product_tier_raw": n.ProductTier,
	})

	tier := &models.UserTier{
		UserID:         userID,
		ProductTier:    product,
		CapabilityTier: capability,
		IsActive:       true,
		AssignedReason: fmt.Sprintf("payfast_payment:%s", n.PfPaymentID),
		Metadata:       metadata,
	}
	if err := s.repo.UpsertUserTier(ctx, tier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert user tier")
	}

	now := time.Now().UTC()
	usage := &models.UserUsage{
		UserID:         userID,
		CurrentTier:    capability,
		PeriodStartsAt: &now,
	}
	if err := s.repo.UpsertUserUsage(ctx, usage); err != nil {
		result.Warnings = append(result.Warnings, StepWarning{Step: StepUpsertUsage, Detail: err.Error()})
		s.warnErr(ctx, "upsert user usage failed", err)
	}

	if s.trialFlags == nil {
		result.Warnings = append(result.Warnings, StepWarning{Step: StepClearTrial, Detail: "trial flag store unavailable"})
	} else if err := s.trialFlags.Del(ctx, s.trialFlags.TrialKey(userID.String())); err != nil {
		result.Warnings = append(result.Warnings, StepWarning{Step: StepClearTrial, Detail: err.Error()})
		s.warnErr(ctx, "clear trial flag failed", err)
	}

	if s.auditLogEnabled {
		logRow := &models.SubscriptionLog{
			UserID:        userID,
			ProductTier:   product,
			AmountGross:   n.AmountGross,
			PaymentID:     n.MPaymentID,
			PfPaymentID:   n.PfPaymentID,
			PaymentStatus: n.PaymentStatus.String(),
			Metadata:      metadata,
		}
		if err := s.repo.InsertSubscriptionLog(ctx, logRow); err != nil {
			result.Warnings = append(result.Warnings, StepWarning{Step: StepAppendAudit, Detail: err.Error()})
			s.warnErr(ctx, "append subscription log failed", err)
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":         userID.String(),
			"previous_tier":   previous.String(),
			"product_tier":    product.String(),
			"capability_tier": capability.String(),
		})
		s.logg.Info(logCtx, "tier.updated")
	}
	return result, nil
}

// CurrentTier returns the persisted tier row for a user, or the implicit
// free tier when no payment has ever been reconciled.
func (s *Service) CurrentTier(ctx context.Context, userID uuid.UUID) (*models.UserTier, error) {
	tier, err := s.repo.FindTierByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user tier")
	}
	if tier == nil {
		return &models.UserTier{
			UserID:         userID,
			ProductTier:    enums.ProductTierFree,
			CapabilityTier: enums.CapabilityTierFree,
		}, nil
	}
	return tier, nil
}

// UsageWithLimits pairs the user's usage counters with the limits of their
// current capability tier.
func (s *Service) UsageWithLimits(ctx context.Context, userID uuid.UUID) (*models.UserUsage, Limits, error) {
	usage, err := s.repo.FindUsageByUser(ctx, userID)
	if err != nil {
		return nil, Limits{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user usage")
	}
	if usage == nil {
		usage = &models.UserUsage{UserID: userID, CurrentTier: enums.CapabilityTierFree}
	}
	return usage, LimitsFor(usage.CurrentTier), nil
}

func (s *Service) info(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}

func (s *Service) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}

func (s *Service) warnErr(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("%s: %v", msg, err))
	}
}
