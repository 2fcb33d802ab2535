package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"grouprelay/internal/config"
	"grouprelay/internal/handler/ws"
	middlewarePkg "grouprelay/internal/middleware"
	"grouprelay/internal/registry"
)

// NewRouter wires the socket endpoint, the REST lobby mirror, and static UI
// delivery onto one chi router.
func NewRouter(cfg *config.Config, reg *registry.Registry, wsHandler *ws.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	wsHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		// REST mirror of the list-public-groups event, so the lobby can be
		// polled without holding a socket open.
		api.Get("/groups", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, reg.ListPublicGroups())
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[api] failed to encode response: %v", err)
	}
}
