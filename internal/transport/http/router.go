package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	jwttoken "reserveguard/internal/jwt_token"
	"reserveguard/pkg/platform/httputil"
	authmw "reserveguard/pkg/platform/middleware/auth"
	"reserveguard/pkg/platform/middleware/request"
)

// NewRouter wires every endpoint. metrics may be nil.
func NewRouter(h *Handler, validator authmw.JWTValidator, metrics http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Context)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(validator, jwttoken.RoleAdmin, logger))
		h.RegisterAdmin(r)
	})
	return r
}
