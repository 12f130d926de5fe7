package report

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler serves document retrieval and the Gotenberg health probe.
type Handler struct {
	client  *Client
	docsDir string
	logger  *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, docsDir string, logger *slog.Logger) *Handler {
	return &Handler{client: client, docsDir: docsDir, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/documentos/{nome}", h.documento)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// documento streams a stored handover PDF. The name is confined to a single
// path element under docsDir; anything with separators is rejected outright.
func (h *Handler) documento(w http.ResponseWriter, r *http.Request) {
	nome := chi.URLParam(r, "nome")
	if nome == "" || strings.ContainsAny(nome, `/\`) || nome != filepath.Base(nome) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	caminho := filepath.Join(h.docsDir, nome)
	if _, err := os.Stat(caminho); err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+nome)
	http.ServeFile(w, r, caminho)
}
