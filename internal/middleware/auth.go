package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/models"

	"github.com/sirupsen/logrus"
)

type identityKey struct{}

// Authenticator resolves an API token to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity set by Auth.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

// Auth requires a bearer token and stores the resolved identity in the
// request context.
func Auth(authn Authenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Missing token")
				return
			}

			id, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if apperr.KindOf(err) == apperr.KindInternal {
					log.WithError(err).Error("authentication failed")
				}
				writeError(w, apperr.HTTPStatus(err), apperr.PublicMessage(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin rejects callers below the team admin level. It must run
// after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		if !id.AdminLevel.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
