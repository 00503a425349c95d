package payfast

import (
	"net/url"
	"testing"

	"github.com/classpilot/classpilot-backend/pkg/enums"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
)

func sampleForm() url.Values {
	return url.Values{
		"merchant_id":    {"10000100"},
		"m_payment_id":   {"ORDER-1"},
		"pf_payment_id":  {"123456"},
		"payment_status": {"complete"},
		"amount_gross":   {"99.00"},
		"item_name":      {"Parent Plus"},
		"custom_str1":    {" user-1 "},
		"custom_str2":    {"parent_plus"},
		"signature":      {"abc"},
	}
}

func TestParseNotification(t *testing.T) {
	n := ParseNotification(sampleForm())

	if n.MerchantID != "10000100" {
		t.Fatalf("merchant id = %q", n.MerchantID)
	}
	if n.PaymentStatus != enums.PaymentStatusComplete {
		t.Fatalf("payment status = %q", n.PaymentStatus)
	}
	if n.UserID != "user-1" {
		t.Fatalf("user id not trimmed: %q", n.UserID)
	}
	if n.ProductTier != "parent_plus" {
		t.Fatalf("product tier = %q", n.ProductTier)
	}
	if got := n.AmountGross.StringFixed(2); got != "99.00" {
		t.Fatalf("amount gross = %s", got)
	}
	if n.Fields["item_name"] != "Parent Plus" {
		t.Fatal("raw fields not preserved")
	}
}

func TestParseNotificationBadAmountZero(t *testing.T) {
	form := sampleForm()
	form.Set("amount_gross", "not-a-number")
	n := ParseNotification(form)
	if !n.AmountGross.IsZero() {
		t.Fatalf("expected zero amount, got %s", n.AmountGross)
	}
}

func TestValidateRequired(t *testing.T) {
	cases := []struct {
		name  string
		strip string
	}{
		{"missing user id", "custom_str1"},
		{"missing product tier", "custom_str2"},
		{"missing signature", "signature"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := sampleForm()
			form.Del(tc.strip)
			err := ParseNotification(form).ValidateRequired()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	if err := ParseNotification(sampleForm()).ValidateRequired(); err != nil {
		t.Fatalf("complete payload rejected: %v", err)
	}
}

func TestVerifyMerchant(t *testing.T) {
	n := ParseNotification(sampleForm())
	if err := n.VerifyMerchant("10000100"); err != nil {
		t.Fatalf("matching merchant rejected: %v", err)
	}

	err := n.VerifyMerchant("20000200")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeMerchant {
		t.Fatalf("expected merchant error, got %v", err)
	}
}
