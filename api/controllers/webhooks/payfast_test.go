package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/classpilot/classpilot-backend/internal/payfast"
	"github.com/classpilot/classpilot-backend/internal/tiers"
	"github.com/classpilot/classpilot-backend/pkg/config"
	"github.com/classpilot/classpilot-backend/pkg/enums"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
)

type fakeReconciler struct {
	result *tiers.Result
	err    error
	calls  int
	last   *payfast.Notification
}

func (f *fakeReconciler) ApplyPayment(ctx context.Context, n *payfast.Notification) (*tiers.Result, error) {
	f.calls++
	f.last = n
	return f.result, f.err
}

func itnConfig() config.PayFastConfig {
	return config.PayFastConfig{
		MerchantID: "10000100",
		Passphrase: "s3cret!",
		Mode:       config.PayFastModeSandbox,
	}
}

func signedForm(t *testing.T, cfg config.PayFastConfig, overrides map[string]string) url.Values {
	t.Helper()
	fields := map[string]string{
		"merchant_id":    "10000100",
		"m_payment_id":   "ORDER-1",
		"pf_payment_id":  "123456",
		"payment_status": "COMPLETE",
		"amount_gross":   "99.00",
		"item_name":      "Parent Plus",
		"custom_str1":    uuid.NewString(),
		"custom_str2":    "parent_plus",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	fields["signature"] = payfast.Sign(fields, cfg.SigningPassphrase())

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	return form
}

func postITN(handler http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payfast", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPayFastITNAppliesCompletePayment(t *testing.T) {
	cfg := itnConfig()
	svc := &fakeReconciler{result: &tiers.Result{
		Applied:        true,
		Status:         enums.PaymentStatusComplete,
		ProductTier:    enums.ProductTierParentPlus,
		CapabilityTier: enums.CapabilityTierPremium,
	}}
	handler := PayFastITN(svc, cfg, nil, nil)

	rec := postITN(handler, signedForm(t, cfg, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("reconciler called %d times", svc.calls)
	}

	var ack itnAck
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Success || ack.Result == nil || ack.Result.CapabilityTier != enums.CapabilityTierPremium {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestPayFastITNAcksNonCompleteWithoutTier(t *testing.T) {
	cfg := itnConfig()
	svc := &fakeReconciler{result: &tiers.Result{Applied: false, Status: enums.PaymentStatusCancelled}}
	handler := PayFastITN(svc, cfg, nil, nil)

	rec := postITN(handler, signedForm(t, cfg, map[string]string{"payment_status": "CANCELLED"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var ack itnAck
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Success || ack.Result != nil || ack.Status != "CANCELLED" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestPayFastITNRejectsMissingRequiredFields(t *testing.T) {
	cfg := itnConfig()
	for _, missing := range []string{"custom_str1", "custom_str2", "signature"} {
		svc := &fakeReconciler{}
		handler := PayFastITN(svc, cfg, nil, nil)

		form := signedForm(t, cfg, nil)
		form.Del(missing)
		rec := postITN(handler, form)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", missing, rec.Code)
		}
		if svc.calls != 0 {
			t.Fatalf("%s: reconciler invoked on invalid request", missing)
		}
	}
}

func TestPayFastITNRejectsBadSignature(t *testing.T) {
	cfg := itnConfig()
	svc := &fakeReconciler{}
	handler := PayFastITN(svc, cfg, nil, nil)

	form := signedForm(t, cfg, nil)
	form.Set("signature", "00000000000000000000000000000000")
	rec := postITN(handler, form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(pkgerrors.CodeSignature)) {
		t.Fatalf("expected signature error code, got %s", rec.Body.String())
	}
	if svc.calls != 0 {
		t.Fatal("reconciler invoked on bad signature")
	}
}

func TestPayFastITNRejectsWrongMerchantDistinctly(t *testing.T) {
	cfg := itnConfig()
	svc := &fakeReconciler{}
	handler := PayFastITN(svc, cfg, nil, nil)

	rec := postITN(handler, signedForm(t, cfg, map[string]string{"merchant_id": "20000200"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, string(pkgerrors.CodeMerchant)) {
		t.Fatalf("expected merchant error code, got %s", body)
	}
	if strings.Contains(body, string(pkgerrors.CodeSignature)) {
		t.Fatalf("merchant failure reported as signature failure: %s", body)
	}
	if svc.calls != 0 {
		t.Fatal("reconciler invoked on wrong merchant")
	}
}

func TestPayFastITNReconcileFailureIs500(t *testing.T) {
	cfg := itnConfig()
	svc := &fakeReconciler{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "upsert user tier")}
	handler := PayFastITN(svc, cfg, nil, nil)

	rec := postITN(handler, signedForm(t, cfg, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var ack itnAck
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Success {
		t.Fatalf("failure answered with success=true: %+v", ack)
	}
	if ack.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %q", ack.Code)
	}
	if !strings.Contains(ack.Message, "db down") {
		t.Fatalf("storage detail missing from message %q", ack.Message)
	}
}

func TestPayFastITNRejectionsKeepAckShape(t *testing.T) {
	cfg := itnConfig()
	handler := PayFastITN(&fakeReconciler{}, cfg, nil, nil)

	form := signedForm(t, cfg, nil)
	form.Set("signature", "00000000000000000000000000000000")
	rec := postITN(handler, form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var ack itnAck
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Success {
		t.Fatalf("rejection answered with success=true: %+v", ack)
	}
	if ack.Code != string(pkgerrors.CodeSignature) || ack.Message == "" {
		t.Fatalf("unexpected rejection ack: %+v", ack)
	}
}

func TestPayFastITNProductionModeSignsWithPassphrase(t *testing.T) {
	cfg := itnConfig()
	cfg.Mode = config.PayFastModeProduction

	svc := &fakeReconciler{result: &tiers.Result{Applied: true, Status: enums.PaymentStatusComplete}}
	handler := PayFastITN(svc, cfg, nil, nil)

	// Signed with the passphrase, as production gateways do.
	rec := postITN(handler, signedForm(t, cfg, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	// The same fields signed without the passphrase must be rejected.
	sandbox := itnConfig()
	rec = postITN(handler, signedForm(t, sandbox, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for passphrase-less signature, got %d", rec.Code)
	}
}

func TestPayFastITNMalformedBody(t *testing.T) {
	cfg := itnConfig()
	handler := PayFastITN(&fakeReconciler{}, cfg, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payfast", strings.NewReader("%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
