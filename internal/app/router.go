package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/psweb/psweb/internal/embarcacoes"
	"github.com/psweb/psweb/internal/fiscais"
	"github.com/psweb/psweb/internal/identity"
	"github.com/psweb/psweb/internal/observability"
	"github.com/psweb/psweb/internal/ps"
	"github.com/psweb/psweb/internal/shared"
	"github.com/psweb/psweb/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	Identity           identity.Middleware
	AuthHandler        *identity.Handler
	PSHandler          *ps.Handler
	EmbarcacoesHandler *embarcacoes.Handler
	FiscaisHandler     *fiscais.Handler
	ReportHandler      *report.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the application defaults. The
// reference CRUD and the PS lifecycle sit behind an authenticated group;
// write access to the reference entities additionally requires the
// administrator role.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Identity.Resolve)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.Identity.RequireUser)

		r.Route("/ps", params.PSHandler.MountRoutes)

		r.Route("/embarcacoes", params.EmbarcacoesHandler.MountReadRoutes)
		r.Route("/fiscais", params.FiscaisHandler.MountReadRoutes)

		if params.ReportHandler != nil {
			r.Route("/relatorios", params.ReportHandler.MountRoutes)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(params.Identity.RequireAdmin)

		r.Route("/admin/ps", params.PSHandler.MountAdminRoutes)
		r.Route("/admin/embarcacoes", params.EmbarcacoesHandler.MountWriteRoutes)
		r.Route("/admin/fiscais", params.FiscaisHandler.MountWriteRoutes)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
