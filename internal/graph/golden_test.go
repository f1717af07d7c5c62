package graph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/graph-api/internal/platform/apierr"
	"github.com/yungbote/graph-api/internal/platform/logger"
)

// fakeExecutor answers catalog queries from a canned map keyed by the query's
// trailing column alias, and tracks how many executions run at once.
type fakeExecutor struct {
	mu        sync.Mutex
	inFlight  int
	maxSeen   int
	calls     int
	delay     time.Duration
	responses map[string]*QueryResult
	failures  map[string]error
}

func lastAlias(query string) string {
	idx := strings.LastIndex(query, " AS ")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(query[idx+len(" AS "):])
}

func (f *fakeExecutor) ReadCypher(_ context.Context, query string, _ map[string]any) (*QueryResult, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	key := lastAlias(query)
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	if res, ok := f.responses[key]; ok {
		return res, nil
	}
	return &QueryResult{Keys: []string{key}, Rows: nil}, nil
}

func columnResult(key string, blobs ...any) *QueryResult {
	return &QueryResult{
		Keys: []string{key},
		Rows: []Row{{key: blobs}},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestAssembleRejectsEmptyPatientID(t *testing.T) {
	exec := &fakeExecutor{}
	ga := NewGoldenAssembler(exec, testLogger(t))

	_, err := ga.Assemble(context.Background(), "")
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeValidation {
		t.Fatalf("want validation error, got %v", err)
	}
	if exec.calls != 0 {
		t.Fatalf("no queries may run for an empty patient id, got %d", exec.calls)
	}
}

func TestAssembleCollectsEveryDataType(t *testing.T) {
	responses := map[string]*QueryResult{}
	for _, key := range GoldenDataTypes() {
		responses[key] = columnResult(key, fmt.Sprintf(`{"type":%q}`, key))
	}
	exec := &fakeExecutor{responses: responses, delay: 5 * time.Millisecond}
	ga := NewGoldenAssembler(exec, testLogger(t))

	golden, err := ga.Assemble(context.Background(), "1234567890")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if exec.calls != len(GoldenDataTypes()) {
		t.Fatalf("calls: want=%d got=%d", len(GoldenDataTypes()), exec.calls)
	}
	if len(golden.Data) != len(GoldenDataTypes()) {
		t.Fatalf("data types: want=%d got=%d", len(GoldenDataTypes()), len(golden.Data))
	}
	if len(golden.Failed) != 0 {
		t.Fatalf("no failures expected, got %v", golden.Failed)
	}
	if exec.maxSeen > goldenMaxInFlight {
		t.Fatalf("in-flight executions: cap=%d saw=%d", goldenMaxInFlight, exec.maxSeen)
	}
	items, ok := golden.Data["condition"]
	if !ok || len(items) != 1 {
		t.Fatalf("condition payload: got=%v", items)
	}
	decoded, ok := items[0].(map[string]any)
	if !ok || decoded["type"] != "condition" {
		t.Fatalf("decoded blob: got=%v", items[0])
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	responses := map[string]*QueryResult{}
	for i, key := range GoldenDataTypes() {
		responses[key] = columnResult(key,
			fmt.Sprintf(`{"type":%q,"seq":%d}`, key, i),
			fmt.Sprintf(`{"type":%q,"seq":%d}`, key, i+100),
		)
	}
	exec := &fakeExecutor{responses: responses, delay: 2 * time.Millisecond}
	ga := NewGoldenAssembler(exec, testLogger(t))

	first, err := ga.Assemble(context.Background(), "1234567890")
	if err != nil {
		t.Fatalf("first Assemble: %v", err)
	}
	second, err := ga.Assemble(context.Background(), "1234567890")
	if err != nil {
		t.Fatalf("second Assemble: %v", err)
	}
	if !reflect.DeepEqual(first.Data, second.Data) {
		t.Fatalf("identical upstream data must aggregate identically:\nfirst=%v\nsecond=%v", first.Data, second.Data)
	}
	if !reflect.DeepEqual(first.Failed, second.Failed) {
		t.Fatalf("failed lists differ: %v vs %v", first.Failed, second.Failed)
	}
	for _, key := range GoldenDataTypes() {
		if len(first.Data[key]) != 2 {
			t.Fatalf("%s: want=2 items got=%d", key, len(first.Data[key]))
		}
	}
}

func TestAssembleSkipsTypesWithNoRows(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]*QueryResult{
		"condition": columnResult("condition", `{"code":"E11"}`),
	}}
	ga := NewGoldenAssembler(exec, testLogger(t))

	golden, err := ga.Assemble(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(golden.Data) != 1 {
		t.Fatalf("only condition should be present, got %v", golden.AllTypes())
	}
	if _, ok := golden.Data["condition"]; !ok {
		t.Fatal("condition missing from aggregate")
	}
}

func TestAssembleSurfacesQueryFailures(t *testing.T) {
	responses := map[string]*QueryResult{}
	for _, key := range GoldenDataTypes() {
		responses[key] = columnResult(key, `{"ok":true}`)
	}
	exec := &fakeExecutor{
		responses: responses,
		failures: map[string]error{
			"observation": errors.New("connection reset"),
			"careTeam":    errors.New("connection reset"),
		},
	}
	ga := NewGoldenAssembler(exec, testLogger(t))

	golden, err := ga.Assemble(context.Background(), "p2")
	if err != nil {
		t.Fatalf("one failing query must not fail the aggregation: %v", err)
	}
	if len(golden.Failed) != 2 || golden.Failed[0] != "careTeam" || golden.Failed[1] != "observation" {
		t.Fatalf("failed list: got=%v", golden.Failed)
	}
	if !golden.Incomplete() {
		t.Fatal("aggregate with failures must report incomplete")
	}
	if _, ok := golden.Data["observation"]; ok {
		t.Fatal("failed type must not appear in data")
	}
	if len(golden.Data) != len(GoldenDataTypes())-2 {
		t.Fatalf("surviving types: want=%d got=%d", len(GoldenDataTypes())-2, len(golden.Data))
	}
}

func TestAssembleSurfacesDecodeFailures(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]*QueryResult{
		"condition":   columnResult("condition", "not valid json"),
		"observation": columnResult("observation", 42),
	}}
	ga := NewGoldenAssembler(exec, testLogger(t))

	golden, err := ga.Assemble(context.Background(), "p3")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(golden.Failed) != 2 {
		t.Fatalf("both bad payloads must be surfaced, got %v", golden.Failed)
	}
}

func TestAssembleSkipsNilContentBlobs(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]*QueryResult{
		"practitionerRole": columnResult("practitionerRole", nil, `{"role":"gp"}`, nil),
	}}
	ga := NewGoldenAssembler(exec, testLogger(t))

	golden, err := ga.Assemble(context.Background(), "p4")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	items := golden.Data["practitionerRole"]
	if len(items) != 1 {
		t.Fatalf("nil blobs must be dropped, got %v", items)
	}
}

func TestGoldenDataTypesStable(t *testing.T) {
	first := GoldenDataTypes()
	second := GoldenDataTypes()
	if len(first) != 19 {
		t.Fatalf("catalog size: want=19 got=%d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("catalog order changed at %d: %q vs %q", i, first[i], second[i])
		}
	}
	if first[0] != "patientStatement" {
		t.Fatalf("catalog must start with the patient statement, got %q", first[0])
	}
}
