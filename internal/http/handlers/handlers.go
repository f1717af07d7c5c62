package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graph-api/internal/graph"
	"github.com/yungbote/graph-api/internal/platform/neo4jdb"
)

// GraphProvider hands out query executors bound to the request's connection
// parameters. The release func must be called once the executor is done.
type GraphProvider interface {
	Executor(overrides neo4jdb.Overrides) (graph.Executor, func(context.Context), error)
}

// connOverrides lifts optional per-request connection parameters off the
// query string. Absent values fall back to the configured connection.
func connOverrides(c *gin.Context) neo4jdb.Overrides {
	return neo4jdb.Overrides{
		Address:  strings.TrimSpace(c.Query("uri")),
		Database: strings.TrimSpace(c.Query("database")),
		Username: strings.TrimSpace(c.Query("username")),
		Password: strings.TrimSpace(c.Query("password")),
	}
}
