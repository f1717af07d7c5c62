package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graph-api/internal/graph"
	"github.com/yungbote/graph-api/internal/platform/logger"
	"github.com/yungbote/graph-api/internal/platform/neo4jdb"
)

func init() { gin.SetMode(gin.TestMode) }

type execFunc func(ctx context.Context, query string, params map[string]any) (*graph.QueryResult, error)

func (f execFunc) ReadCypher(ctx context.Context, query string, params map[string]any) (*graph.QueryResult, error) {
	return f(ctx, query, params)
}

type fakeProvider struct {
	exec     graph.Executor
	err      error
	released int
}

func (p *fakeProvider) Executor(neo4jdb.Overrides) (graph.Executor, func(context.Context), error) {
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.exec, func(context.Context) { p.released++ }, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return body
}

func serve(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func errCodeOf(t *testing.T, body map[string]any) string {
	t.Helper()
	envelope, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error envelope in %v", body)
	}
	code, _ := envelope["code"].(string)
	return code
}

func TestConnOverridesFromQuery(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet,
		"/x?uri=bolt://other:7687&database=alt&username=reader&password=s3cret", nil)

	got := connOverrides(c)
	want := neo4jdb.Overrides{
		Address:  "bolt://other:7687",
		Database: "alt",
		Username: "reader",
		Password: "s3cret",
	}
	if got != want {
		t.Fatalf("overrides: want=%+v got=%+v", want, got)
	}

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	if !connOverrides(c2).IsZero() {
		t.Fatal("no query params must yield zero overrides")
	}
}
