package registrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/classpilot/classpilot-backend/pkg/config"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
)

// ExternalRecord is one registration row as published by the school-site
// collaborator. Rows failing validation are skipped during sync.
type ExternalRecord struct {
	ID             string     `json:"id" validate:"required"`
	OrganizationID string     `json:"organization_id" validate:"required,uuid"`
	StudentName    string     `json:"student_name" validate:"required"`
	ParentEmail    string     `json:"parent_email" validate:"required,email"`
	Grade          string     `json:"grade"`
	Status         string     `json:"status"`
	SubmittedAt    *time.Time `json:"submitted_at"`
}

type fetchResponse struct {
	Registrations []ExternalRecord `json:"registrations"`
}

// Client pulls registration rows from the external school site over an
// authenticated internal call.
type Client struct {
	httpClient *http.Client
	url        string
	serviceKey string
}

// NewClient validates the sync configuration and builds the collaborator
// client.
func NewClient(cfg config.SyncConfig) (*Client, error) {
	if strings.TrimSpace(cfg.RegistrationsURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "registrations url required")
	}
	if strings.TrimSpace(cfg.ServiceKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sync service key required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.RegistrationsURL,
		serviceKey: cfg.ServiceKey,
	}, nil
}

// Fetch returns the collaborator's current registration rows.
func (c *Client) Fetch(ctx context.Context) ([]ExternalRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build registrations request")
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch registrations")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("registrations endpoint returned %d", resp.StatusCode))
	}

	var payload fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode registrations response")
	}
	return payload.Registrations, nil
}
