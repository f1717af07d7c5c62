package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/graph-api/internal/platform/logger"
)

func configTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(configTestLogger(t))

	if cfg.Port != "8000" {
		t.Fatalf("port default: got=%q", cfg.Port)
	}
	if cfg.Neo4j.QueryTimeout != 30*time.Second {
		t.Fatalf("query timeout default: got=%v", cfg.Neo4j.QueryTimeout)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("rate limit defaults: got=%+v", cfg.RateLimit)
	}
}

func TestLoadConfigEnvWins(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("NEO4J_QUERY_TIMEOUT_SECONDS", "5")
	t.Setenv("DB_PASSWORD", "hunter2")

	cfg := LoadConfig(configTestLogger(t))

	if cfg.Port != "9100" {
		t.Fatalf("port: got=%q", cfg.Port)
	}
	if cfg.Neo4j.Address != "bolt://graph:7687" {
		t.Fatalf("neo4j address: got=%q", cfg.Neo4j.Address)
	}
	if cfg.Neo4j.QueryTimeout != 5*time.Second {
		t.Fatalf("query timeout: got=%v", cfg.Neo4j.QueryTimeout)
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Fatalf("db password not applied")
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("port: \"9200\"\nneo4j:\n  database: medical\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GRAPH_API_CONFIG", path)

	cfg := LoadConfig(configTestLogger(t))
	if cfg.Port != "9200" {
		t.Fatalf("yaml port: got=%q", cfg.Port)
	}
	if cfg.Neo4j.Database != "medical" {
		t.Fatalf("yaml neo4j database: got=%q", cfg.Neo4j.Database)
	}

	// Env still beats the file.
	t.Setenv("PORT", "9300")
	cfg = LoadConfig(configTestLogger(t))
	if cfg.Port != "9300" {
		t.Fatalf("env over yaml: got=%q", cfg.Port)
	}
}

func TestPostgresDSN(t *testing.T) {
	pg := PostgresConfig{Host: "db", Port: "5432", User: "graph", Password: "pw", Name: "tokens"}
	want := "postgres://graph:pw@db:5432/tokens?sslmode=disable"
	if got := pg.DSN(); got != want {
		t.Fatalf("dsn: want=%q got=%q", want, got)
	}
}
