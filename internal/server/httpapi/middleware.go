package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/cdsvote/cdsvote/internal/common"
)

type contextKey string

const adminNameKey contextKey = "admin_name"

func adminFromContext(ctx context.Context) string {
	name, _ := ctx.Value(adminNameKey).(string)
	return name
}

// requireAdmin verifies the bearer token and stashes the admin name in the
// request context.
func (h *handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(common.AuthHeaderName)
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		name, err := h.admin.VerifyToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), adminNameKey, name)))
	}
}
