package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graph-api/internal/graph/templates"
	"github.com/yungbote/graph-api/internal/http/response"
	"github.com/yungbote/graph-api/internal/platform/apierr"
	"github.com/yungbote/graph-api/internal/platform/logger"
)

// InfoSpec describes one per-type patient endpoint: the route segment, the
// cypher template behind it, and the columns projected into each record.
type InfoSpec struct {
	DataType string
	Route    string
	Template string
	Fields   []string
}

var infoSpecs = []InfoSpec{
	{
		DataType: "medications",
		Route:    "medications",
		Template: "get_patient_medications",
		Fields: []string{
			"startDate", "endDate", "medication", "medicationCode", "codeSystem",
			"medicationStatus", "route", "dosage", "associatedCondition",
			"associatedConditionSystem", "associatedConditionCode", "associatedConditionStatus",
		},
	},
	{
		DataType: "conditions",
		Route:    "conditions",
		Template: "get_patient_conditions",
		Fields: []string{
			"condition", "conditionCode", "codeSystem", "conditionStatus", "onsetDate", "abatementDate",
		},
	},
	{
		DataType: "procedures",
		Route:    "procedures",
		Template: "get_patient_procedures",
		Fields: []string{
			"startDate", "procedure", "procedureCode", "codeSystem", "procedureStatus",
			"associatedCondition", "associatedConditionSystem", "associatedConditionCode",
			"associatedConditionStatus",
		},
	},
	{
		DataType: "observations",
		Route:    "observations",
		Template: "get_patient_observations",
		Fields: []string{
			"startDate", "endDate", "diagnosticReport", "observationType", "observation",
			"observationCode", "codeSystem", "valueText", "valueQuantity", "category",
		},
	},
	{
		DataType: "allergies",
		Route:    "allergies",
		Template: "get_patient_allergies",
		Fields: []string{
			"allergyRecordedDate", "allergy", "allergyCode", "codeSystem", "allergyType",
			"reactionRecordedDate", "reactionSeverity",
		},
	},
	{
		DataType: "immunizations",
		Route:    "immunizations",
		Template: "get_patient_immunizations",
		Fields: []string{
			"recordedDate", "status", "immunization", "immunizationCode", "codeSystem",
		},
	},
	{
		DataType: "providers",
		Route:    "providers",
		Template: "get_patient_providers",
		Fields: []string{
			"providerType", "name", "telecom", "address", "city", "state", "postalCode",
		},
	},
	{
		DataType: "clinical_notes",
		Route:    "clinical-notes",
		Template: "get_patient_clinical_notes",
		Fields: []string{
			"noteType", "content",
		},
	},
	{
		DataType: "encounters",
		Route:    "encounters",
		Template: "get_patient_encounters",
		Fields: []string{
			"startDate", "endDate", "encounterClassification", "encounterType",
		},
	},
}

// InfoSpecs returns the endpoint table in registration order.
func InfoSpecs() []InfoSpec { return infoSpecs }

type InfoHandler struct {
	log      *logger.Logger
	provider GraphProvider
}

func NewInfoHandler(log *logger.Logger, provider GraphProvider) *InfoHandler {
	return &InfoHandler{log: log.With("handler", "InfoHandler"), provider: provider}
}

// Get builds the handler for one data type from its spec entry.
func (h *InfoHandler) Get(spec InfoSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		patientID := strings.TrimSpace(c.Param("patientId"))
		if patientID == "" {
			response.RespondAPIError(c, apierr.Validation(errors.New("patient id must not be empty")))
			return
		}

		exec, release, err := h.provider.Executor(connOverrides(c))
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		defer release(ctx)

		query, err := templates.Render(spec.Template, nil)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		result, err := exec.ReadCypher(ctx, query, map[string]any{"patient_id": patientID})
		if err != nil {
			h.log.Error("patient query failed", "data_type", spec.DataType, "patient_id", patientID, "error", err)
			response.RespondAPIError(c, err)
			return
		}

		records := make([]map[string]any, 0, len(result.Rows))
		for _, row := range result.Rows {
			rec := make(map[string]any, len(spec.Fields))
			for _, f := range spec.Fields {
				rec[f] = row[f]
			}
			records = append(records, rec)
		}
		response.RespondOK(c, gin.H{
			"patient_id": patientID,
			"data_type":  spec.DataType,
			"data":       records,
			"count":      len(records),
		})
	}
}

// ServiceInfo lists the per-type endpoints this service exposes.
func (h *InfoHandler) ServiceInfo(c *gin.Context) {
	endpoints := make([]gin.H, 0, len(infoSpecs))
	for _, spec := range infoSpecs {
		endpoints = append(endpoints, gin.H{
			"data_type": spec.DataType,
			"path":      "/api/v1/info/" + spec.Route + "/{patient_id}",
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"service":   "patient-info",
		"endpoints": endpoints,
	})
}
