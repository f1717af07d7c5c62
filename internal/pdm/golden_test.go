package pdm

import (
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/graph-api/internal/platform/apierr"
)

func sampleGolden() *Golden {
	return &Golden{
		PatientID: "p1",
		Data: map[string][]any{
			"condition":   {map[string]any{"code": "E11"}, map[string]any{"code": "I10"}},
			"observation": {map[string]any{"loinc": "1234-5"}},
			"allergy":     {},
		},
	}
}

func TestDropEmpty(t *testing.T) {
	g := sampleGolden().DropEmpty()
	if _, ok := g.Data["allergy"]; ok {
		t.Fatal("empty data type must be dropped")
	}
	if len(g.Data) != 2 {
		t.Fatalf("remaining types: want=2 got=%d", len(g.Data))
	}
	// Original untouched.
	if _, ok := sampleGolden().Data["allergy"]; !ok {
		t.Fatal("DropEmpty must not mutate the source")
	}
}

func TestCountsAndTotals(t *testing.T) {
	g := sampleGolden()
	counts := g.Counts()
	if counts["condition"] != 2 || counts["observation"] != 1 || counts["allergy"] != 0 {
		t.Fatalf("counts: got=%v", counts)
	}
	if g.TotalItems() != 3 {
		t.Fatalf("total items: want=3 got=%d", g.TotalItems())
	}
}

func TestAvailableAndAllTypes(t *testing.T) {
	g := sampleGolden()
	available := g.AvailableTypes()
	if len(available) != 2 || available[0] != "condition" || available[1] != "observation" {
		t.Fatalf("available types: got=%v", available)
	}
	all := g.AllTypes()
	if len(all) != 3 || all[0] != "allergy" {
		t.Fatalf("all types: got=%v", all)
	}
}

func TestTypeLookup(t *testing.T) {
	g := sampleGolden()
	items, err := g.Type("condition")
	if err != nil {
		t.Fatalf("Type: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("condition items: want=2 got=%d", len(items))
	}

	_, err = g.Type("medicationEvent")
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeNotFound {
		t.Fatalf("want not_found error, got %v", err)
	}
	if !strings.Contains(apiErr.Error(), "condition") {
		t.Fatalf("rejection should name the available types: %q", apiErr.Error())
	}
}

func TestSummary(t *testing.T) {
	g := sampleGolden()
	s := g.Summary()
	if s.PatientID != "p1" || !s.HasData || s.TotalDataTypes != 3 || s.TotalRecords != 3 {
		t.Fatalf("summary: got=%+v", s)
	}
	if s.Incomplete {
		t.Fatal("no failures, summary must not be incomplete")
	}

	g.Failed = []string{"careTeam"}
	s = g.Summary()
	if !s.Incomplete || len(s.FailedTypes) != 1 {
		t.Fatalf("degraded summary: got=%+v", s)
	}
}

func TestEmptyGolden(t *testing.T) {
	g := &Golden{PatientID: "p2", Data: map[string][]any{}}
	s := g.Summary()
	if s.HasData {
		t.Fatal("empty record must report has_data=false")
	}
	if g.Incomplete() {
		t.Fatal("empty without failures is complete")
	}
}
