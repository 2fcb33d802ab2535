package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grouprelay/internal/config"
	"grouprelay/internal/handler/ws"
	"grouprelay/internal/registry"
	"grouprelay/internal/session"
)

func setupRouter(t *testing.T) (http.Handler, *registry.Registry) {
	t.Helper()
	cfg := &config.Config{
		Port:            "0",
		StaticDir:       t.TempDir(),
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendQueueSize:   8,
		PingInterval:    30 * time.Second,
		ReadTimeout:     time.Minute,
		WriteTimeout:    5 * time.Second,
	}
	reg := registry.New()
	hub := ws.NewHub()
	coordinator := session.NewCoordinator(reg, hub)
	wsHandler := ws.NewHandler(cfg, hub, coordinator)
	return NewRouter(cfg, reg, wsHandler), reg
}

func TestHealthz(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestListGroupsEndpoint(t *testing.T) {
	r, reg := setupRouter(t)
	reg.CreateGroup("Team", false, "")
	reg.CreateGroup("Hidden", true, "pw")

	req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var list []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 public group, got %d", len(list))
	}
	if list[0].Name != "Team" {
		t.Fatalf("unexpected group name %q", list[0].Name)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/groups", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}
