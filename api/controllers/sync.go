package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/classpilot/classpilot-backend/internal/registrations"
	"github.com/classpilot/classpilot-backend/pkg/logger"
)

// RegistrationSyncer runs one registration sync cycle on demand.
type RegistrationSyncer interface {
	Sync(ctx context.Context) (*registrations.SyncResult, error)
}

type syncResponse struct {
	Success bool                      `json:"success"`
	Result  *registrations.SyncResult `json:"result,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

// SyncRegistrations triggers a registration sync. The response shape
// ({success, result} / {success, error}) is what the scheduling side
// already consumes, so it bypasses the standard envelope.
func SyncRegistrations(svc RegistrationSyncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		result, err := svc.Sync(ctx)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "registration sync failed", err)
			}
			writeSyncJSON(w, http.StatusInternalServerError, syncResponse{Success: false, Error: err.Error()})
			return
		}
		writeSyncJSON(w, http.StatusOK, syncResponse{Success: true, Result: result})
	}
}

func writeSyncJSON(w http.ResponseWriter, status int, payload syncResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode sync response","err":"%v"}`, err)
	}
}
