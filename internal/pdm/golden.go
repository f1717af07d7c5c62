// Package pdm holds the composite patient record assembled from the graph and
// the thin views the API serves over it.
package pdm

import (
	"fmt"
	"sort"

	"github.com/yungbote/graph-api/internal/platform/apierr"
)

// Golden is one patient's merged multi-source record: data-type name to the
// decoded content objects that type's query returned. Built per request,
// never cached. Failed lists the data types whose queries did not complete;
// a non-empty Failed means the record is a documented partial, never a
// silent one.
type Golden struct {
	PatientID string
	Data      map[string][]any
	Failed    []string
}

func (g *Golden) Incomplete() bool { return len(g.Failed) > 0 }

// DropEmpty returns a copy without data types whose sequence is empty.
func (g *Golden) DropEmpty() *Golden {
	filtered := make(map[string][]any, len(g.Data))
	for key, values := range g.Data {
		if len(values) > 0 {
			filtered[key] = values
		}
	}
	return &Golden{PatientID: g.PatientID, Data: filtered, Failed: g.Failed}
}

func (g *Golden) Counts() map[string]int {
	counts := make(map[string]int, len(g.Data))
	for key, values := range g.Data {
		counts[key] = len(values)
	}
	return counts
}

func (g *Golden) TotalItems() int {
	total := 0
	for _, values := range g.Data {
		total += len(values)
	}
	return total
}

// AvailableTypes lists data types with at least one item, sorted for stable
// responses.
func (g *Golden) AvailableTypes() []string {
	var available []string
	for key, values := range g.Data {
		if len(values) > 0 {
			available = append(available, key)
		}
	}
	sort.Strings(available)
	return available
}

// AllTypes lists every present data type regardless of item count.
func (g *Golden) AllTypes() []string {
	keys := make([]string, 0, len(g.Data))
	for key := range g.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Type returns one data type's sequence, or a not-found rejection naming the
// available types.
func (g *Golden) Type(name string) ([]any, error) {
	values, ok := g.Data[name]
	if !ok {
		return nil, apierr.NotFound(
			fmt.Errorf("data type %q not found, available types: %v", name, g.AllTypes()))
	}
	return values, nil
}

type Summary struct {
	PatientID          string         `json:"patient_id"`
	DataTypesAvailable []string       `json:"data_types_available"`
	RecordCounts       map[string]int `json:"record_counts"`
	TotalDataTypes     int            `json:"total_data_types"`
	TotalRecords       int            `json:"total_records"`
	HasData            bool           `json:"has_data"`
	Incomplete         bool           `json:"incomplete,omitempty"`
	FailedTypes        []string       `json:"failed_types,omitempty"`
}

func (g *Golden) Summary() Summary {
	return Summary{
		PatientID:          g.PatientID,
		DataTypesAvailable: g.AllTypes(),
		RecordCounts:       g.Counts(),
		TotalDataTypes:     len(g.Data),
		TotalRecords:       g.TotalItems(),
		HasData:            len(g.Data) > 0,
		Incomplete:         g.Incomplete(),
		FailedTypes:        g.Failed,
	}
}
