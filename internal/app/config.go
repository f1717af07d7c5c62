package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/graph-api/internal/platform/envutil"
	"github.com/yungbote/graph-api/internal/platform/logger"
	"github.com/yungbote/graph-api/internal/platform/neo4jdb"
)

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Name)
}

type Neo4jConfig struct {
	Address        string        `yaml:"address"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Database       string        `yaml:"database"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MaxPoolSize    int           `yaml:"max_pool_size"`
}

func (n Neo4jConfig) Params() neo4jdb.ConnParams {
	return neo4jdb.ConnParams{
		Address:  n.Address,
		Username: n.Username,
		Password: n.Password,
		Database: n.Database,
	}
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Config is built once at process start and handed to constructors; nothing
// reads the environment after Load returns.
type Config struct {
	Environment string          `yaml:"environment"`
	Port        string          `yaml:"port"`
	Postgres    PostgresConfig  `yaml:"postgres"`
	Neo4j       Neo4jConfig     `yaml:"neo4j"`
	RedisAddr   string          `yaml:"redis_addr"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Environment: "local",
		Port:        "8000",
		Postgres: PostgresConfig{
			Host: "localhost",
			Port: "5432",
			User: "graph",
			Name: "graph",
		},
		Neo4j: Neo4jConfig{
			Username:       "neo4j",
			QueryTimeout:   30 * time.Second,
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    50,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
	}

	// Optional YAML overlay, then env on top. Env always wins.
	if path := envutil.Str("GRAPH_API_CONFIG", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warn("config file unreadable, using env only", "path", path, "error", err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Warn("config file invalid, using env only", "path", path, "error", err)
		}
	}

	cfg.Environment = envutil.Str("ENVIRONMENT", cfg.Environment)
	cfg.Port = envutil.Str("PORT", cfg.Port)

	cfg.Postgres.Host = envutil.Str("DB_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = envutil.Str("DB_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = envutil.Str("DB_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envutil.Str("DB_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Name = envutil.Str("DB_NAME", cfg.Postgres.Name)

	cfg.Neo4j.Address = envutil.Str("NEO4J_URI", cfg.Neo4j.Address)
	cfg.Neo4j.Username = envutil.Str("NEO4J_USERNAME", cfg.Neo4j.Username)
	cfg.Neo4j.Password = envutil.Str("NEO4J_PASSWORD", cfg.Neo4j.Password)
	cfg.Neo4j.Database = envutil.Str("NEO4J_DATABASE", cfg.Neo4j.Database)
	cfg.Neo4j.QueryTimeout = envutil.Seconds("NEO4J_QUERY_TIMEOUT_SECONDS", cfg.Neo4j.QueryTimeout)
	cfg.Neo4j.ConnectTimeout = envutil.Seconds("NEO4J_TIMEOUT_SECONDS", cfg.Neo4j.ConnectTimeout)
	cfg.Neo4j.MaxPoolSize = envutil.Int("NEO4J_MAX_POOL_SIZE", cfg.Neo4j.MaxPoolSize)

	cfg.RedisAddr = envutil.Str("REDIS_ADDR", cfg.RedisAddr)
	cfg.RateLimit.Requests = envutil.Int("RATE_LIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = envutil.Seconds("RATE_LIMIT_WINDOW", cfg.RateLimit.Window)

	return cfg
}

func (c Config) IsProduction() bool { return c.Environment == "prod" }
