package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/craftedby/marketplace/internal/apperr"
	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/http/apierr"
	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/pkg/zerror"
)

// Authenticate verifies the Bearer token and attaches the principal to the
// request context.
func Authenticate(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, apperr.UnauthenticatedErr)
				return
			}

			principal, err := tokens.Verify(token)
			if err != nil {
				writeError(w, apperr.UnauthenticatedErr.WrapParent(err))
				return
			}

			r = r.WithContext(auth.NewContext(r.Context(), principal))
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles rejects authenticated principals whose role is not in the
// allowed set. Must be mounted after Authenticate.
func RequireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.FromContext(r.Context())
			if !ok {
				writeError(w, apperr.UnauthenticatedErr)
				return
			}

			if _, ok := allowed[principal.Role]; !ok {
				writeError(w, zerror.NewForbidden("ROLE_FORBIDDEN", "access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	//nolint:errcheck
	json.NewEncoder(w).Encode(res)
}
