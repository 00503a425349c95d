package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/classpilot/classpilot-backend/internal/payfast"
	"github.com/classpilot/classpilot-backend/internal/tiers"
	"github.com/classpilot/classpilot-backend/pkg/config"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
	"github.com/classpilot/classpilot-backend/pkg/logger"
	"github.com/classpilot/classpilot-backend/pkg/metrics"
)

const gatewayPayFast = "payfast"

// Reconciler applies a verified notification to tier state.
type Reconciler interface {
	ApplyPayment(ctx context.Context, n *payfast.Notification) (*tiers.Result, error)
}

// itnAck is the gateway-facing wire shape. Every answer, including
// rejections, carries the success flag; the gateway only inspects the
// HTTP status but the shape is kept stable for log scrapers.
type itnAck struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Code     string              `json:"code,omitempty"`
	Result   *tiers.Result       `json:"result,omitempty"`
	Status   string              `json:"status,omitempty"`
	Warnings []tiers.StepWarning `json:"warnings,omitempty"`
}

// PayFastITN handles PayFast instant transaction notifications. The pipeline
// is parse, required fields, signature, merchant, reconcile; the first
// failing stage answers and nothing downstream runs.
func PayFastITN(svc Reconciler, cfg config.PayFastConfig, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		finish := func(outcome string) {
			if m != nil {
				m.IncOutcome(gatewayPayFast, outcome)
				m.ObserveDuration(gatewayPayFast, time.Since(start))
			}
			if logg != nil {
				logCtx := logg.WithFields(ctx, map[string]any{
					"outcome":    outcome,
					"elapsed_ms": time.Since(start).Milliseconds(),
				})
				logg.Info(logCtx, "payfast itn handled")
			}
		}

		reject := func(err error, outcome string) {
			appErr := pkgerrors.As(err)
			if appErr == nil {
				appErr = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "internal error")
			}
			status := pkgerrors.MetadataFor(appErr.Code()).HTTPStatus
			detail := appErr.Message()
			if cause := appErr.Unwrap(); cause != nil {
				detail = fmt.Sprintf("%s: %v", detail, cause)
			}
			if logg != nil {
				if status >= http.StatusInternalServerError {
					logg.Error(ctx, "payfast itn failed", appErr)
				} else {
					logg.Warn(ctx, fmt.Sprintf("payfast itn rejected: %v", appErr))
				}
			}
			writeAck(w, status, itnAck{
				Success: false,
				Code:    string(appErr.Code()),
				Message: detail,
			})
			finish(outcome)
		}

		if svc == nil {
			reject(pkgerrors.New(pkgerrors.CodeInternal, "reconciler unavailable"), "internal_error")
			return
		}

		if err := r.ParseForm(); err != nil {
			reject(pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed form body"), "malformed_body")
			return
		}

		n := payfast.ParseNotification(r.PostForm)
		if n.PfPaymentID != "" && logg != nil {
			ctx = logg.WithPaymentID(ctx, n.PfPaymentID)
		}

		if err := n.ValidateRequired(); err != nil {
			reject(err, "missing_fields")
			return
		}

		ok, expected, received := payfast.VerifySignature(n.Fields, cfg.SigningPassphrase())
		if !ok {
			if logg != nil {
				logCtx := logg.WithFields(ctx, map[string]any{
					"expected_signature": expected,
					"received_signature": received,
				})
				logg.Warn(logCtx, "payfast signature mismatch")
			}
			reject(pkgerrors.New(pkgerrors.CodeSignature, "signature mismatch"), "invalid_signature")
			return
		}

		if err := n.VerifyMerchant(cfg.MerchantID); err != nil {
			reject(err, "invalid_merchant")
			return
		}

		result, err := svc.ApplyPayment(ctx, n)
		if err != nil {
			reject(err, "reconcile_failed")
			return
		}

		ack := itnAck{Success: true, Status: result.Status.String(), Warnings: result.Warnings}
		if result.Applied {
			ack.Message = "tier updated"
			ack.Result = result
			writeAck(w, http.StatusOK, ack)
			finish("applied")
			return
		}
		ack.Message = "payment acknowledged"
		writeAck(w, http.StatusOK, ack)
		finish("skipped")
	}
}

func writeAck(w http.ResponseWriter, status int, ack itnAck) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ack); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode itn ack","err":"%v"}`, err)
	}
}
