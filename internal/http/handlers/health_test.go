package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graph-api/internal/graph"
)

func newHealthRouter(t *testing.T, provider GraphProvider) *gin.Engine {
	t.Helper()
	h := NewHealthHandler(testLogger(t), provider, nil)
	r := gin.New()
	r.GET("/healthcheck", h.Liveness)
	r.GET("/health/", h.Check)
	return r
}

func TestLiveness(t *testing.T) {
	r := newHealthRouter(t, &fakeProvider{})
	w := serve(r, http.MethodGet, "/healthcheck")
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", w.Code)
	}
}

func TestHealthCheckHealthy(t *testing.T) {
	provider := &fakeProvider{exec: execFunc(func(context.Context, string, map[string]any) (*graph.QueryResult, error) {
		return &graph.QueryResult{Keys: []string{"status"}, Rows: []graph.Row{{"status": "healthy"}}}, nil
	})}
	r := newHealthRouter(t, provider)

	w := serve(r, http.MethodGet, "/health/")
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "healthy" {
		t.Fatalf("status field: got=%v", body["status"])
	}
}

func TestHealthCheckGraphDown(t *testing.T) {
	provider := &fakeProvider{exec: execFunc(func(context.Context, string, map[string]any) (*graph.QueryResult, error) {
		return nil, errors.New("connection refused")
	})}
	r := newHealthRouter(t, provider)

	w := serve(r, http.MethodGet, "/health/")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "unhealthy" {
		t.Fatalf("status field: got=%v", body["status"])
	}
	deps := body["dependencies"].(map[string]any)
	neo := deps["neo4j"].(map[string]any)
	if neo["status"] != "unhealthy" {
		t.Fatalf("neo4j dependency: got=%v", neo)
	}
}
