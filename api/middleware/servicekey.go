package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/classpilot/classpilot-backend/api/responses"
	pkgerrors "github.com/classpilot/classpilot-backend/pkg/errors"
	"github.com/classpilot/classpilot-backend/pkg/logger"
)

// ServiceKey guards internal endpoints with a shared service-role bearer
// key. It is not a user auth scheme.
func ServiceKey(key string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeInternal, "service key not configured"))
				return
			}
			presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid service key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
