package neo4jdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/graph-api/internal/platform/logger"
)

// ConnParams is the resolved 4-tuple every graph query needs. All four fields
// must be non-empty before a driver call is attempted.
type ConnParams struct {
	Address  string
	Username string
	Password string
	Database string
}

func (p ConnParams) Missing() []string {
	var missing []string
	if strings.TrimSpace(p.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(p.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(p.Password) == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(p.Database) == "" {
		missing = append(missing, "database")
	}
	return missing
}

// Overrides are optional per-request replacements merged over the process
// defaults. Empty fields keep the default.
type Overrides struct {
	Address  string
	Username string
	Password string
	Database string
}

func (o Overrides) IsZero() bool {
	return o.Address == "" && o.Username == "" && o.Password == "" && o.Database == ""
}

func (o Overrides) apply(p ConnParams) ConnParams {
	if o.Address != "" {
		p.Address = o.Address
	}
	if o.Username != "" {
		p.Username = o.Username
	}
	if o.Password != "" {
		p.Password = o.Password
	}
	if o.Database != "" {
		p.Database = o.Database
	}
	return p
}

type Config struct {
	Params         ConnParams
	ConnectTimeout time.Duration
	MaxPoolSize    int
}

type Client struct {
	Driver neo4j.DriverWithContext
	Params ConnParams
	log    *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("neo4jdb: logger required")
	}
	if missing := cfg.Params.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("neo4jdb: missing connection parameters: %s", strings.Join(missing, ", "))
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPool := cfg.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 50
	}

	auth := neo4j.BasicAuth(cfg.Params.Username, cfg.Params.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.Params.Address, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = maxPool
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: init driver: %w", err)
	}

	return &Client{
		Driver: driver,
		Params: cfg.Params,
		log:    log.With("client", "Neo4jDB"),
	}, nil
}

func (c *Client) Verify(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return fmt.Errorf("neo4jdb: client not initialized")
	}
	return c.Driver.VerifyConnectivity(ctx)
}

// Resolve merges request overrides over the client's defaults. Without
// overrides the shared driver is reused and the release func is a no-op; with
// overrides an ephemeral driver is dialed and release closes it.
func (c *Client) Resolve(overrides Overrides) (*Client, func(context.Context), error) {
	if overrides.IsZero() {
		return c, func(context.Context) {}, nil
	}
	params := overrides.apply(c.Params)
	ephemeral, err := NewClient(Config{Params: params}, c.log)
	if err != nil {
		return nil, nil, err
	}
	release := func(ctx context.Context) {
		if err := ephemeral.Close(ctx); err != nil {
			c.log.Warn("closing ephemeral neo4j driver failed", "error", err)
		}
	}
	return ephemeral, release, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}
