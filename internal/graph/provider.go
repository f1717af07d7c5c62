package graph

import (
	"context"
	"net/http"
	"time"

	"github.com/yungbote/graph-api/internal/platform/apierr"
	"github.com/yungbote/graph-api/internal/platform/logger"
	"github.com/yungbote/graph-api/internal/platform/neo4jdb"
)

// Provider hands out executors bound to resolved connection parameters.
// Requests without overrides share the process driver; overridden requests
// get an ephemeral driver the release func tears down.
type Provider struct {
	client  *neo4jdb.Client
	log     *logger.Logger
	timeout time.Duration
}

func NewProvider(client *neo4jdb.Client, log *logger.Logger, timeout time.Duration) *Provider {
	return &Provider{client: client, log: log, timeout: timeout}
}

func (p *Provider) Executor(overrides neo4jdb.Overrides) (Executor, func(context.Context), error) {
	// A provider without a process driver still serves requests that carry a
	// complete set of overrides; anything less fails as a configuration error
	// inside the executor.
	if p.client == nil {
		if overrides.IsZero() {
			return NewExecutor(nil, p.log, p.timeout), func(context.Context) {}, nil
		}
		params := neo4jdb.ConnParams{
			Address:  overrides.Address,
			Username: overrides.Username,
			Password: overrides.Password,
			Database: overrides.Database,
		}
		client, err := neo4jdb.NewClient(neo4jdb.Config{Params: params}, p.log)
		if err != nil {
			return nil, nil, apierr.New(http.StatusInternalServerError, apierr.CodeConfiguration, err)
		}
		release := func(ctx context.Context) {
			if cerr := client.Close(ctx); cerr != nil {
				p.log.Warn("closing ephemeral neo4j driver failed", "error", cerr)
			}
		}
		return NewExecutor(client, p.log, p.timeout), release, nil
	}

	client, release, err := p.client.Resolve(overrides)
	if err != nil {
		return nil, nil, apierr.New(http.StatusInternalServerError, apierr.CodeConfiguration, err)
	}
	return NewExecutor(client, p.log, p.timeout), release, nil
}

// Default returns the shared-driver executor for callers with no overrides.
func (p *Provider) Default() Executor {
	return NewExecutor(p.client, p.log, p.timeout)
}
