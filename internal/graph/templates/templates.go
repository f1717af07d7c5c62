// Package templates owns the Cypher query text shipped with the service.
// Callers get back a final query string; patient identifiers are never
// interpolated here, they travel as bound driver parameters.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed queries/*.cypher
var queryFS embed.FS

var (
	parseOnce sync.Once
	parsed    *template.Template
	parseErr  error
)

func load() (*template.Template, error) {
	parseOnce.Do(func() {
		parsed, parseErr = template.ParseFS(queryFS, "queries/*.cypher")
	})
	return parsed, parseErr
}

// Render produces the final query for a named template. Most templates take
// no data; the argument exists for templates that shape clauses structurally.
func Render(name string, data any) (string, error) {
	t, err := load()
	if err != nil {
		return "", fmt.Errorf("parsing cypher templates: %w", err)
	}
	if !strings.HasSuffix(name, ".cypher") {
		name += ".cypher"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering cypher template %q: %w", name, err)
	}
	return buf.String(), nil
}
