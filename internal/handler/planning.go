package handler

import (
	"fmt"
	"net/http"

	"distillery/internal/dto"
	"distillery/internal/planning"
	"distillery/internal/service"

	"github.com/gin-gonic/gin"
)

type PlanningHandler struct{ svc service.PlanningService }

func NewPlanningHandler(svc service.PlanningService) *PlanningHandler {
	return &PlanningHandler{svc: svc}
}

// Requirements godoc
// @Summary Materials one batch needs, graded against current stock
// @Tags planning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RequirementsRequest true "Batch"
// @Success 200 {object} dto.RequirementsResponse
// @Router /v1/planning/requirements [post]
func (h *PlanningHandler) Requirements(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	var req dto.RequirementsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	reqs, err := h.svc.Requirements(c.Request.Context(), org, req.Batch.ToBatch())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RequirementsResponse{Requirements: reqs})
}

// Projection godoc
// @Summary Project stock across a production schedule
// @Description Starts from the ledger's on-hand, overridden per material by the request snapshot. Never fails on negative stock.
// @Tags planning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ScheduleRequest true "Schedule"
// @Success 200 {object} dto.ProjectionResponse
// @Router /v1/planning/projection [post]
func (h *PlanningHandler) Projection(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	var req dto.ScheduleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	pr, err := h.svc.Project(c.Request.Context(), org, req.ToBatches(), req.Snapshot)
	if err != nil {
		writeError(c, err)
		return
	}

	runsOut := make([]string, 0)
	for _, t := range pr.RunningOut() {
		runsOut = append(runsOut, t.Material)
	}
	c.JSON(http.StatusOK, dto.ProjectionResponse{
		Batches:   pr.Batches,
		Timelines: pr.Timelines,
		RunsOut:   runsOut,
		Months:    planning.MonthlyStats(pr.Batches),
	})
}

// Shortages godoc
// @Summary Purchasing list for a schedule
// @Tags planning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ShortagesRequest true "Schedule and filters"
// @Success 200 {object} dto.ShortagesResponse
// @Router /v1/planning/shortages [post]
func (h *PlanningHandler) Shortages(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	var req dto.ShortagesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	lines, err := h.svc.Shortages(c.Request.Context(), org, toQuery(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ShortagesResponse{Lines: lines})
}

// RequestExport godoc
// @Summary Queue a purchasing list workbook
// @Tags planning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ShortagesRequest true "Schedule and filters"
// @Success 202 {object} dto.ExportResponse
// @Router /v1/planning/exports [post]
func (h *PlanningHandler) RequestExport(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	var req dto.ShortagesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	st, err := h.svc.RequestExport(c.Request.Context(), org, toQuery(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.ExportResponse{ID: st.ID.String(), Status: st.Status})
}

// DownloadExport godoc
// @Summary Download a finished workbook, or poll its status
// @Tags planning
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path string true "Export ID"
// @Success 200 {file} binary
// @Success 202 {object} dto.ExportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/planning/exports/{id} [get]
func (h *PlanningHandler) DownloadExport(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.svc.ExportStatus(c.Request.Context(), org, id)
	if err != nil {
		writeError(c, err)
		return
	}
	switch st.Status {
	case service.ExportDone:
		c.FileAttachment(st.Path, fmt.Sprintf("purchasing-%s.xlsx", st.ID))
	case service.ExportPending:
		c.JSON(http.StatusAccepted, dto.ExportResponse{ID: st.ID.String(), Status: st.Status})
	default:
		c.JSON(http.StatusOK, dto.ExportResponse{ID: st.ID.String(), Status: st.Status, Error: st.Error})
	}
}

func toQuery(req dto.ShortagesRequest) service.ShortageQuery {
	return service.ShortageQuery{
		Batches:  req.ToBatches(),
		Snapshot: req.Snapshot,
		Month:    req.Month,
		Category: req.Category,
	}
}
