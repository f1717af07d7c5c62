package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/graph-api/internal/pdm"
	"github.com/yungbote/graph-api/internal/platform/apierr"
	"github.com/yungbote/graph-api/internal/platform/logger"
)

const (
	// goldenBatchSize queries are dispatched together; the next batch waits
	// for the whole previous one.
	goldenBatchSize = 5
	// goldenMaxInFlight caps simultaneous executions across the entire
	// aggregation, so at most this many graph connections are ever open.
	goldenMaxInFlight = 5
)

type goldenQuery struct {
	Key    string
	Cypher string
}

// goldenCatalog is the fixed, ordered set of queries a golden record is
// assembled from. Each returns a single column named after its data type,
// holding the collected JSON content blobs.
var goldenCatalog = []goldenQuery{
	{"patientStatement", `MATCH (n:Patient) WHERE n.id = $patient_id RETURN collect(n.content) AS patientStatement`},
	{"condition", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_CONDITION]->(c:Condition) RETURN collect(c.content) AS condition`},
	{"observation", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_OBSERVATION]->(o:Observation) RETURN collect(o.content) AS observation`},
	{"documentReference", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_DOCUMENT_REFERENCE]->(d:DocumentReference) RETURN collect(d.content) AS documentReference`},
	{"diagnosticReport", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_DIAGNOSTIC_REPORT]->(dr:DiagnosticReport) RETURN collect(dr.content) AS diagnosticReport`},
	{"procedure", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_PROCEDURE]->(p:Procedure) RETURN collect(p.content) AS procedure`},
	{"encounter", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_ENCOUNTER]->(e:Encounter) RETURN collect(e.content) AS encounter`},
	{"contactPerson", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_CONTACT]->(c:ContactPerson) RETURN collect(c.content) AS contactPerson`},
	{"medicationEvent", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_MEDICATION_EVENT]->(me:MedicationEvent) RETURN collect(me.content) AS medicationEvent`},
	{"practitioner", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_PRACTITIONER]->(p:Practitioner) RETURN collect(p.content) AS practitioner`},
	{"allergy", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_ALLERGY]->(a:Allergy) RETURN collect(a.content) AS allergy`},
	{"familyMemberHistory", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_FAMILY_MEMBER_HISTORY]->(f:FamilyMemberHistory) RETURN collect(f.content) AS familyMemberHistory`},
	{"composition", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_COMPOSITION]->(c:Composition) RETURN collect(c.content) AS composition`},
	{"serviceRequest", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_SERVICE_REQUEST]->(sr:ServiceRequest) RETURN collect(sr.content) AS serviceRequest`},
	{"careTeam", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_CARE_TEAM]->(ct:CareTeam) RETURN collect(ct.content) AS careTeam`},
	{"carePlan", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:HAS_CARE_PLAN]->(cp:CarePlan) RETURN collect(cp.content) AS carePlan`},
	{"organization", `MATCH (n:Patient) WHERE n.id = $patient_id OPTIONAL MATCH (n)-[:INTERACTS_WITH]->(o:Organization) RETURN collect(o.content) AS organization`},
	{"location", `MATCH (n:Patient) WHERE n.id = $patient_id
CALL (n) {
    WITH n
    OPTIONAL MATCH (n)-[:INTERACTS_WITH]->(o:Organization)
    OPTIONAL MATCH (o)<-[:MANAGED_BY]-(l:Location)
    RETURN l.content AS content
    UNION
    OPTIONAL MATCH (n)-[:HAS_ENCOUNTER]->(e:Encounter)
    OPTIONAL MATCH (e)-[:TAKES_PLACE]->(l:Location)
    RETURN l.content AS content
}
RETURN collect(DISTINCT content) AS location`},
	{"practitionerRole", `MATCH (n:Patient) WHERE n.id = $patient_id
OPTIONAL MATCH (n)-[:HAS_PRACTITIONER]->(p:Practitioner)
OPTIONAL MATCH (p)-[:HAS_ROLE]->(pr:PractitionerRole)
RETURN collect(pr.content) AS practitionerRole`},
}

// GoldenDataTypes lists the catalog keys in catalog order.
func GoldenDataTypes() []string {
	keys := make([]string, 0, len(goldenCatalog))
	for _, q := range goldenCatalog {
		keys = append(keys, q.Key)
	}
	return keys
}

// GoldenAssembler fans the catalog out in bounded batches and merges the
// partial results into one golden record. A single query's failure never
// poisons the others; it is logged and surfaced on the record's Failed list.
type GoldenAssembler struct {
	exec Executor
	log  *logger.Logger
}

func NewGoldenAssembler(exec Executor, log *logger.Logger) *GoldenAssembler {
	return &GoldenAssembler{exec: exec, log: log.With("component", "GoldenAssembler")}
}

func (ga *GoldenAssembler) Assemble(ctx context.Context, patientID string) (*pdm.Golden, error) {
	if patientID == "" {
		return nil, apierr.Validation(errors.New("patient id cannot be empty"))
	}

	start := time.Now()
	params := map[string]any{"patient_id": patientID}

	type slot struct {
		result *QueryResult
		err    error
	}
	slots := make([]slot, len(goldenCatalog))

	// One weighted semaphore for the whole aggregation: together with the
	// batch grouping it keeps at most goldenMaxInFlight executions open.
	sem := semaphore.NewWeighted(goldenMaxInFlight)

	for batchStart := 0; batchStart < len(goldenCatalog); batchStart += goldenBatchSize {
		batchEnd := batchStart + goldenBatchSize
		if batchEnd > len(goldenCatalog) {
			batchEnd = len(goldenCatalog)
		}

		var g errgroup.Group
		for i := batchStart; i < batchEnd; i++ {
			i := i
			g.Go(func() error {
				if err := sem.Acquire(ctx, 1); err != nil {
					slots[i].err = err
					return nil
				}
				defer sem.Release(1)
				slots[i].result, slots[i].err = ga.exec.ReadCypher(ctx, goldenCatalog[i].Cypher, params)
				return nil
			})
		}
		_ = g.Wait()
	}

	golden := &pdm.Golden{
		PatientID: patientID,
		Data:      make(map[string][]any, len(goldenCatalog)),
	}
	for i, q := range goldenCatalog {
		if slots[i].err != nil {
			ga.log.Error("golden query failed, continuing without its data type",
				"data_type", q.Key, "patient_id", patientID, "error", slots[i].err)
			golden.Failed = append(golden.Failed, q.Key)
			continue
		}
		values, ok, err := decodeGoldenColumn(slots[i].result, q.Key)
		if err != nil {
			ga.log.Error("golden payload decode failed, continuing without its data type",
				"data_type", q.Key, "patient_id", patientID, "error", err)
			golden.Failed = append(golden.Failed, q.Key)
			continue
		}
		if ok {
			golden.Data[q.Key] = values
		}
	}
	sort.Strings(golden.Failed)

	ga.log.Info("golden record assembled",
		"patient_id", patientID,
		"data_types", len(golden.Data),
		"failed_types", len(golden.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return golden, nil
}

// decodeGoldenColumn takes the single named column's first-row value, a list
// of JSON-text blobs, and decodes each blob individually. ok is false when
// the query matched nothing or the value is absent; that data type then
// contributes no key at all.
func decodeGoldenColumn(result *QueryResult, key string) ([]any, bool, error) {
	if result.Empty() {
		return nil, false, nil
	}
	raw, present := result.Rows[0][key]
	if !present || raw == nil {
		return nil, false, nil
	}
	blobs, ok := raw.([]any)
	if !ok {
		return nil, false, fmt.Errorf("column %q is not a content list", key)
	}
	values := make([]any, 0, len(blobs))
	for _, blob := range blobs {
		if blob == nil {
			continue
		}
		text, ok := blob.(string)
		if !ok {
			return nil, false, fmt.Errorf("column %q holds a non-text content blob", key)
		}
		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return nil, false, fmt.Errorf("decoding %q content blob: %w", key, err)
		}
		values = append(values, decoded)
	}
	return values, true, nil
}
