package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graph-api/internal/graph"
	"github.com/yungbote/graph-api/internal/http/response"
	"github.com/yungbote/graph-api/internal/pdm"
	"github.com/yungbote/graph-api/internal/platform/apierr"
	"github.com/yungbote/graph-api/internal/platform/logger"
)

type PDMHandler struct {
	log      *logger.Logger
	provider GraphProvider
}

func NewPDMHandler(log *logger.Logger, provider GraphProvider) *PDMHandler {
	return &PDMHandler{log: log.With("handler", "PDMHandler"), provider: provider}
}

func (h *PDMHandler) assemble(c *gin.Context, patientID string) (*pdm.Golden, error) {
	exec, release, err := h.provider.Executor(connOverrides(c))
	if err != nil {
		return nil, err
	}
	defer release(c.Request.Context())
	assembler := graph.NewGoldenAssembler(exec, h.log)
	return assembler.Assemble(c.Request.Context(), patientID)
}

// Golden returns the full aggregated record for a patient. Empty data types
// are dropped unless include_empty=true is set.
func (h *PDMHandler) Golden(c *gin.Context) {
	patientID := strings.TrimSpace(c.Param("patientId"))
	golden, err := h.assemble(c, patientID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if c.Query("include_empty") != "true" {
		golden = golden.DropEmpty()
	}
	if len(golden.Data) == 0 {
		response.RespondAPIError(c, apierr.NotFound(fmt.Errorf("no golden PDM data found for patient %s", patientID)))
		return
	}
	body := gin.H{
		"patient_id":    golden.PatientID,
		"data":          golden.Data,
		"total_records": golden.TotalItems(),
		"record_counts": golden.Counts(),
	}
	if golden.Incomplete() {
		body["incomplete"] = true
		body["failed_types"] = golden.Failed
	}
	response.RespondOK(c, body)
}

// Summary returns counts without the record payloads.
func (h *PDMHandler) Summary(c *gin.Context) {
	patientID := strings.TrimSpace(c.Param("patientId"))
	golden, err := h.assemble(c, patientID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, golden.Summary())
}

// Type returns a single data type out of the aggregate.
func (h *PDMHandler) Type(c *gin.Context) {
	patientID := strings.TrimSpace(c.Param("patientId"))
	dataType := strings.TrimSpace(c.Param("dataType"))
	if dataType == "" {
		response.RespondAPIError(c, apierr.Validation(errors.New("data type must not be empty")))
		return
	}
	golden, err := h.assemble(c, patientID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	items, err := golden.Type(dataType)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	body := gin.H{
		"patient_id": golden.PatientID,
		"data_type":  dataType,
		"data":       items,
		"count":      len(items),
	}
	if golden.Incomplete() {
		body["incomplete"] = true
	}
	response.RespondOK(c, body)
}

// Types lists the data types that came back non-empty for a patient.
func (h *PDMHandler) Types(c *gin.Context) {
	patientID := strings.TrimSpace(c.Param("patientId"))
	golden, err := h.assemble(c, patientID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	available := golden.AvailableTypes()
	body := gin.H{
		"patient_id":           golden.PatientID,
		"available_data_types": available,
		"total_types":          len(available),
		"all_possible_types":   golden.AllTypes(),
	}
	if golden.Incomplete() {
		body["incomplete"] = true
		body["failed_types"] = golden.Failed
	}
	response.RespondOK(c, body)
}

// ServiceInfo describes the aggregate endpoints.
func (h *PDMHandler) ServiceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "golden-pdm",
		"endpoints": []string{
			"/api/v1/pdm/golden/{patient_id}",
			"/api/v1/pdm/golden/{patient_id}/summary",
			"/api/v1/pdm/golden/{patient_id}/type/{data_type}",
			"/api/v1/pdm/golden/{patient_id}/types",
		},
		"data_types": graph.GoldenDataTypes(),
	})
}
