package webhooks

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/classpilot/classpilot-backend/api/responses"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
	"github.com/classpilot/classpilot-backend/pkg/logger"
)

const proxyTimeout = 30 * time.Second

// PayFastProxy keeps the legacy webhook path alive by forwarding the raw
// gateway notification to the current ITN endpoint and mirroring whatever it
// answers. The sending client's address travels in x-forwarded-for and
// x-real-ip so the target still sees the origin.
func PayFastProxy(targetURL string, client *http.Client, logg *logger.Logger) http.HandlerFunc {
	if client == nil {
		client = &http.Client{Timeout: proxyTimeout}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, strings.NewReader(string(body)))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build proxy request"))
			return
		}
		req.Header.Set("Content-Type", r.Header.Get("Content-Type"))

		clientAddr := r.Header.Get("x-forwarded-for")
		if clientAddr == "" {
			clientAddr = r.RemoteAddr
		}
		req.Header.Set("x-forwarded-for", clientAddr)
		req.Header.Set("x-real-ip", clientAddr)

		resp, err := client.Do(req)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "forward notification"))
			return
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil && logg != nil {
			logg.Warn(ctx, "proxy response copy truncated: "+err.Error())
		}
	}
}
