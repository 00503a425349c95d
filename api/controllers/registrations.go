package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/classpilot/classpilot-backend/api/responses"
	"github.com/classpilot/classpilot-backend/internal/registrations"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
	"github.com/classpilot/classpilot-backend/pkg/logger"
)

// RegistrationLister serves the admin registrations listing.
type RegistrationLister interface {
	List(ctx context.Context, limit int) ([]registrations.RegistrationWithOrg, error)
}

type registrationPayload struct {
	ID               string `json:"id"`
	ExternalID       string `json:"external_id"`
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name,omitempty"`
	StudentName      string `json:"student_name"`
	ParentEmail      string `json:"parent_email"`
	Grade            string `json:"grade,omitempty"`
	Status           string `json:"status"`
	SubmittedAt      string `json:"submitted_at,omitempty"`
}

// AdminRegistrations lists synced registrations joined with their
// organization names.
func AdminRegistrations(svc RegistrationLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid limit"))
				return
			}
			limit = parsed
		}

		rows, err := svc.List(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := make([]registrationPayload, 0, len(rows))
		for _, row := range rows {
			item := registrationPayload{
				ID:               row.ID.String(),
				ExternalID:       row.ExternalID,
				OrganizationID:   row.OrganizationID.String(),
				OrganizationName: row.OrganizationName,
				StudentName:      row.StudentName,
				ParentEmail:      row.ParentEmail,
				Grade:            row.Grade,
				Status:           row.Status,
			}
			if row.SubmittedAt != nil {
				item.SubmittedAt = row.SubmittedAt.UTC().Format(time.RFC3339)
			}
			payload = append(payload, item)
		}
		responses.WriteSuccess(w, payload)
	}
}
