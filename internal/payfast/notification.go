package payfast

import (
	"net/url"
	"strings"

	"github.com/classpilot/classpilot-backend/pkg/enums"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Form field names used by the PayFast ITN payload.
const (
	FieldSignature     = "signature"
	FieldMerchantID    = "merchant_id"
	FieldPaymentStatus = "payment_status"
	FieldPfPaymentID   = "pf_payment_id"
	FieldMPaymentID    = "m_payment_id"
	FieldItemName      = "item_name"
	FieldAmountGross   = "amount_gross"
	FieldUserID        = "custom_str1"
	FieldProductTier   = "custom_str2"
)

// Notification is a parsed PayFast instant transaction notification.
// Fields keeps the raw form values so the signature can be recomputed
// over exactly what the gateway sent.
type Notification struct {
	MerchantID    string
	PaymentStatus enums.PaymentStatus
	PfPaymentID   string
	MPaymentID    string
	ItemName      string
	AmountGross   decimal.Decimal
	UserID        string
	ProductTier   string
	Signature     string

	Fields map[string]string
}

// ParseNotification flattens the posted form into a Notification. Repeated
// keys keep the first value, matching how the gateway serializes the body.
func ParseNotification(form url.Values) *Notification {
	fields := make(map[string]string, len(form))
	for k, vs := range form {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}

	n := &Notification{
		MerchantID:    fields[FieldMerchantID],
		PaymentStatus: enums.PaymentStatus(strings.ToUpper(strings.TrimSpace(fields[FieldPaymentStatus]))),
		PfPaymentID:   fields[FieldPfPaymentID],
		MPaymentID:    fields[FieldMPaymentID],
		ItemName:      fields[FieldItemName],
		UserID:        strings.TrimSpace(fields[FieldUserID]),
		ProductTier:   strings.TrimSpace(fields[FieldProductTier]),
		Signature:     fields[FieldSignature],
		Fields:        fields,
	}
	if raw := strings.TrimSpace(fields[FieldAmountGross]); raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			n.AmountGross = amount
		}
	}
	return n
}

// ValidateRequired enforces the fields the downstream reconciler cannot
// proceed without. Merchant identity is checked separately so its failure
// mode stays distinct from a bad signature.
func (n *Notification) ValidateRequired() error {
	if n.UserID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing custom_str1 (user id)")
	}
	if n.ProductTier == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing custom_str2 (product tier)")
	}
	if n.Signature == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing signature")
	}
	return nil
}

// VerifyMerchant checks the notification was produced for our merchant
// account. It never reports a signature problem.
func (n *Notification) VerifyMerchant(merchantID string) error {
	if n.MerchantID != merchantID {
		return pkgerrors.New(pkgerrors.CodeMerchant, "invalid merchant id")
	}
	return nil
}
