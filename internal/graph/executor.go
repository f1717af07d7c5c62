package graph

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/graph-api/internal/platform/apierr"
	"github.com/yungbote/graph-api/internal/platform/logger"
	"github.com/yungbote/graph-api/internal/platform/neo4jdb"
)

// Row is one record of a query result, keyed by return column.
type Row map[string]any

// QueryResult is the uniform tabular result of a single Cypher execution.
// Zero rows is a valid outcome, distinct from an execution failure.
type QueryResult struct {
	Keys []string
	Rows []Row
}

func (r *QueryResult) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// Executor runs one parameterized read query against the graph store.
type Executor interface {
	ReadCypher(ctx context.Context, query string, params map[string]any) (*QueryResult, error)
}

type executor struct {
	client  *neo4jdb.Client
	log     *logger.Logger
	timeout time.Duration
}

func NewExecutor(client *neo4jdb.Client, log *logger.Logger, timeout time.Duration) Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &executor{
		client:  client,
		log:     log.With("component", "CypherExecutor"),
		timeout: timeout,
	}
}

func (e *executor) ReadCypher(ctx context.Context, query string, params map[string]any) (*QueryResult, error) {
	if e.client == nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeConfiguration,
			fmt.Errorf("graph client not configured"))
	}
	if missing := e.client.Params.Missing(); len(missing) > 0 {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeConfiguration,
			fmt.Errorf("missing graph connection parameters: %v", missing))
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	session := e.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: e.client.Params.Database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		keys, err := res.Keys()
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(records))
		for _, rec := range records {
			rows = append(rows, Row(rec.AsMap()))
		}
		return &QueryResult{Keys: keys, Rows: rows}, nil
	})
	if err != nil {
		e.log.Error("cypher read failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"query", query,
			"error", err,
		)
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeQueryExecution,
			fmt.Errorf("cypher query %q failed: %w", query, err))
	}

	result := out.(*QueryResult)
	e.log.Info("cypher read completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"rows", len(result.Rows),
	)
	return result, nil
}
