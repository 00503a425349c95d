package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classpilot/classpilot-backend/internal/tiers"
	"github.com/classpilot/classpilot-backend/pkg/db/models"
	"github.com/classpilot/classpilot-backend/pkg/enums"
)

type fakeTierReader struct {
	tier  *models.UserTier
	usage *models.UserUsage
}

func (f *fakeTierReader) CurrentTier(ctx context.Context, userID uuid.UUID) (*models.UserTier, error) {
	if f.tier != nil {
		return f.tier, nil
	}
	return &models.UserTier{UserID: userID, ProductTier: enums.ProductTierFree, CapabilityTier: enums.CapabilityTierFree}, nil
}

func (f *fakeTierReader) UsageWithLimits(ctx context.Context, userID uuid.UUID) (*models.UserUsage, tiers.Limits, error) {
	usage := f.usage
	if usage == nil {
		usage = &models.UserUsage{UserID: userID, CurrentTier: enums.CapabilityTierFree}
	}
	return usage, tiers.LimitsFor(usage.CurrentTier), nil
}

func tierRequest(handler http.HandlerFunc, path, userID string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get(path, handler)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tiers/"+userID, nil)
	if path == "/api/v1/tiers/{userId}/usage" {
		req = httptest.NewRequest(http.MethodGet, "/api/v1/tiers/"+userID+"/usage", nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestTierCurrent(t *testing.T) {
	userID := uuid.New()
	reader := &fakeTierReader{tier: &models.UserTier{
		UserID:         userID,
		ProductTier:    enums.ProductTierSchoolPremium,
		CapabilityTier: enums.CapabilityTierPremium,
		IsActive:       true,
	}}

	rec := tierRequest(TierCurrent(reader, nil), "/api/v1/tiers/{userId}", userID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data tierPayload `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.CapabilityTier != "premium" || !envelope.Data.IsActive {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestTierCurrentInvalidUserID(t *testing.T) {
	rec := tierRequest(TierCurrent(&fakeTierReader{}, nil), "/api/v1/tiers/{userId}", "not-a-uuid")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTierUsageIncludesLimits(t *testing.T) {
	userID := uuid.New()
	reader := &fakeTierReader{usage: &models.UserUsage{
		UserID:       userID,
		CurrentTier:  enums.CapabilityTierStarter,
		RequestsUsed: 7,
	}}

	rec := tierRequest(TierUsage(reader, nil), "/api/v1/tiers/{userId}/usage", userID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data usagePayload `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.RequestsUsed != 7 {
		t.Fatalf("requests used = %d", envelope.Data.RequestsUsed)
	}
	if envelope.Data.Limits != tiers.LimitsFor(enums.CapabilityTierStarter) {
		t.Fatalf("limits = %+v", envelope.Data.Limits)
	}
}
