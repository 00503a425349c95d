package tiers

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/classpilot/classpilot-backend/internal/payfast"
	"github.com/classpilot/classpilot-backend/pkg/db/models"
	"github.com/classpilot/classpilot-backend/pkg/enums"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
)

type stubRepo struct {
	tiers  []*models.UserTier
	usages []*models.UserUsage
	logs   []*models.SubscriptionLog

	tierErr  error
	usageErr error
	logErr   error
	findTier *models.UserTier
}

func (s *stubRepo) UpsertUserTier(ctx context.Context, tier *models.UserTier) error {
	if s.tierErr != nil {
		return s.tierErr
	}
	s.tiers = append(s.tiers, tier)
	return nil
}

func (s *stubRepo) UpsertUserUsage(ctx context.Context, usage *models.UserUsage) error {
	if s.usageErr != nil {
		return s.usageErr
	}
	s.usages = append(s.usages, usage)
	return nil
}

func (s *stubRepo) InsertSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error {
	if s.logErr != nil {
		return s.logErr
	}
	s.logs = append(s.logs, log)
	return nil
}

func (s *stubRepo) FindTierByUser(ctx context.Context, userID uuid.UUID) (*models.UserTier, error) {
	return s.findTier, nil
}

func (s *stubRepo) FindUsageByUser(ctx context.Context, userID uuid.UUID) (*models.UserUsage, error) {
	if len(s.usages) == 0 {
		return nil, nil
	}
	return s.usages[len(s.usages)-1], nil
}

type stubTrialStore struct {
	deleted []string
	err     error
}

func (s *stubTrialStore) Del(ctx context.Context, keys ...string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, keys...)
	return nil
}

func (s *stubTrialStore) TrialKey(userID string) string {
	return "cp:trial:" + userID
}

func notificationFor(status, userID, productTier string) *payfast.Notification {
	return payfast.ParseNotification(url.Values{
		"merchant_id":    {"10000100"},
		"m_payment_id":   {"ORDER-1"},
		"pf_payment_id":  {"123456"},
		"payment_status": {status},
		"amount_gross":   {"99.00"},
		"custom_str1":    {userID},
		"custom_str2":    {productTier},
		"signature":      {"abc"},
	})
}

func newTestService(t *testing.T, repo *stubRepo, trial *stubTrialStore, audit bool) *Service {
	t.Helper()
	var store trialFlagStore
	if trial != nil {
		store = trial
	}
	svc, err := NewService(ServiceParams{Repo: repo, TrialFlags: store, AuditLogEnabled: audit})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestApplyPaymentComplete(t *testing.T) {
	repo := &stubRepo{}
	trial := &stubTrialStore{}
	svc := newTestService(t, repo, trial, true)
	userID := uuid.New()

	result, err := svc.ApplyPayment(context.Background(), notificationFor("COMPLETE", userID.String(), "parent_plus"))
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if !result.Applied {
		t.Fatal("expected payment to be applied")
	}
	if result.CapabilityTier != enums.CapabilityTierPremium {
		t.Fatalf("capability tier = %s", result.CapabilityTier)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", result.Warnings)
	}
	if len(repo.tiers) != 1 || repo.tiers[0].UserID != userID || !repo.tiers[0].IsActive {
		t.Fatalf("tier upsert wrong: %+v", repo.tiers)
	}
	if len(repo.usages) != 1 || repo.usages[0].CurrentTier != enums.CapabilityTierPremium {
		t.Fatalf("usage upsert wrong: %+v", repo.usages)
	}
	if len(repo.logs) != 1 || repo.logs[0].PfPaymentID != "123456" {
		t.Fatalf("audit log wrong: %+v", repo.logs)
	}
	if len(trial.deleted) != 1 || trial.deleted[0] != "cp:trial:"+userID.String() {
		t.Fatalf("trial flag not cleared: %v", trial.deleted)
	}
}

func TestApplyPaymentNonCompleteIsNoOp(t *testing.T) {
	for _, status := range []string{"CANCELLED", "FAILED", "PENDING"} {
		repo := &stubRepo{}
		trial := &stubTrialStore{}
		svc := newTestService(t, repo, trial, true)

		result, err := svc.ApplyPayment(context.Background(), notificationFor(status, uuid.NewString(), "parent_plus"))
		if err != nil {
			t.Fatalf("%s: %v", status, err)
		}
		if result.Applied {
			t.Fatalf("%s: payment applied", status)
		}
		if len(repo.tiers)+len(repo.usages)+len(repo.logs)+len(trial.deleted) != 0 {
			t.Fatalf("%s: state mutated", status)
		}
	}
}

func TestApplyPaymentUnknownTierFallsBackToFree(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubTrialStore{}, true)

	result, err := svc.ApplyPayment(context.Background(), notificationFor("COMPLETE", uuid.NewString(), "mystery_tier"))
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if result.ProductTier != enums.ProductTierFree || result.CapabilityTier != enums.CapabilityTierFree {
		t.Fatalf("unknown tier mapped to %s/%s", result.ProductTier, result.CapabilityTier)
	}

	// The raw label still lands in the audit metadata.
	if len(repo.logs) != 1 {
		t.Fatalf("expected one audit row, got %d", len(repo.logs))
	}
	var meta map[string]string
	if err := json.Unmarshal(repo.logs[0].Metadata, &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta["product_tier_raw"] != "mystery_tier" {
		t.Fatalf("raw tier lost from metadata: %v", meta)
	}
}

func TestApplyPaymentInvalidUserID(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubTrialStore{}, true)

	_, err := svc.ApplyPayment(context.Background(), notificationFor("COMPLETE", "not-a-uuid", "parent_plus"))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.tiers) != 0 {
		t.Fatal("tier mutated for invalid user id")
	}
}

func TestApplyPaymentTierUpsertFailureIsFatal(t *testing.T) {
	repo := &stubRepo{tierErr: errors.New("db down")}
	svc := newTestService(t, repo, &stubTrialStore{}, true)

	_, err := svc.ApplyPayment(context.Background(), notificationFor("COMPLETE", uuid.NewString(), "parent_plus"))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(repo.logs) != 0 {
		t.Fatal("audit log written after fatal step")
	}
}

func TestApplyPaymentSideStepFailuresBecomeWarnings(t *testing.T) {
	repo := &stubRepo{usageErr: errors.New("usage down"), logErr: errors.New("log down")}
	trial := &stubTrialStore{err: errors.New("redis down")}
	svc := newTestService(t, repo, trial, true)

	result, err := svc.ApplyPayment(context.Background(), notificationFor("COMPLETE", uuid.NewString(), "school_pro"))
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if !result.Applied {
		t.Fatal("payment not applied")
	}
	steps := map[string]bool{}
	for _, w := range result.Warnings {
		steps[w.Step] = true
	}
	for _, step := range []string{StepUpsertUsage, StepClearTrial, StepAppendAudit} {
		if !steps[step] {
			t.Errorf("missing warning for %s", step)
		}
	}
}

func TestApplyPaymentAuditLogDisabled(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubTrialStore{}, false)

	result, err := svc.ApplyPayment(context.Background(), notificationFor("COMPLETE", uuid.NewString(), "parent_plus"))
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if len(repo.logs) != 0 {
		t.Fatal("audit log written while disabled")
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", result.Warnings)
	}
}

func TestApplyPaymentDuplicateDeliveryAppendsAuditRow(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubTrialStore{}, true)
	n := notificationFor("COMPLETE", uuid.NewString(), "parent_plus")

	for i := 0; i < 2; i++ {
		if _, err := svc.ApplyPayment(context.Background(), n); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if len(repo.tiers) != 2 {
		t.Fatalf("expected two tier upserts, got %d", len(repo.tiers))
	}
	if len(repo.logs) != 2 {
		t.Fatalf("expected two audit rows, got %d", len(repo.logs))
	}
}

func TestCurrentTierDefaultsToFree(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, nil, true)

	tier, err := svc.CurrentTier(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("current tier: %v", err)
	}
	if tier.CapabilityTier != enums.CapabilityTierFree {
		t.Fatalf("default tier = %s", tier.CapabilityTier)
	}
}

func TestUsageWithLimits(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubTrialStore{}, true)
	userID := uuid.New()

	if _, err := svc.ApplyPayment(context.Background(), notificationFor("COMPLETE", userID.String(), "school_pro")); err != nil {
		t.Fatalf("apply payment: %v", err)
	}

	usage, limits, err := svc.UsageWithLimits(context.Background(), userID)
	if err != nil {
		t.Fatalf("usage with limits: %v", err)
	}
	if usage.CurrentTier != enums.CapabilityTierEnterprise {
		t.Fatalf("current tier = %s", usage.CurrentTier)
	}
	if limits != LimitsFor(enums.CapabilityTierEnterprise) {
		t.Fatalf("limits = %+v", limits)
	}
}
