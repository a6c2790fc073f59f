package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emu-ics/report-portal-api/internal/dto"
	"github.com/emu-ics/report-portal-api/internal/models"
	appErrors "github.com/emu-ics/report-portal-api/pkg/errors"
	"github.com/emu-ics/report-portal-api/pkg/response"
)

type submissionService interface {
	Create(ctx context.Context, req dto.CreateSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error)
	List(ctx context.Context, query dto.SubmissionQuery, actor *models.JWTClaims) ([]models.Submission, error)
	Details(ctx context.Context, id string, actor *models.JWTClaims) (*dto.SubmissionDetail, error)
	ExportPDF(ctx context.Context, id string, actor *models.JWTClaims) ([]byte, string, error)
	ExportStoredCSV(ctx context.Context, reportTypeID string, actor *models.JWTClaims) ([]byte, string, error)
	Dashboard(ctx context.Context) (*dto.DashboardSummary, error)
}

// SubmissionHandler exposes submission intake, listing and export.
type SubmissionHandler struct {
	submissions submissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(submissions submissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Create godoc
// @Summary      Submit rows
// @Description  Validates and stores one batch of rows as a pending submission. Validation is all-or-nothing.
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.CreateSubmissionRequest  true  "submission"
// @Success      201      {object}  response.Envelope{data=models.Submission}
// @Failure      400      {object}  response.Envelope
// @Failure      403      {object}  response.Envelope
// @Failure      404      {object}  response.Envelope
// @Router       /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	submission, err := h.submissions.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// List godoc
// @Summary      List submissions
// @Description  Office users see their own office's submissions; admins see all.
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        status          query     string  false  "comma separated statuses"
// @Param        office          query     string  false  "office filter (admin only)"
// @Param        campus          query     string  false  "campus filter"
// @Param        report_type_id  query     string  false  "report type filter"
// @Param        limit           query     int     false  "page size"
// @Param        offset          query     int     false  "page offset"
// @Success      200             {object}  response.Envelope{data=[]models.Submission}
// @Router       /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	var query dto.SubmissionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	submissions, err := h.submissions.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// Details godoc
// @Summary      Submission details
// @Description  Returns one submission with its decoded rows in column order.
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "submission id"
// @Success      200  {object}  response.Envelope{data=dto.SubmissionDetail}
// @Failure      403  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope
// @Router       /submissions/{id} [get]
func (h *SubmissionHandler) Details(c *gin.Context) {
	detail, err := h.submissions.Details(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ExportPDF godoc
// @Summary      Export submission as PDF
// @Tags         submissions
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path  string  true  "submission id"
// @Success      200
// @Failure      404  {object}  response.Envelope
// @Router       /submissions/{id}/pdf [get]
func (h *SubmissionHandler) ExportPDF(c *gin.Context) {
	payload, filename, err := h.submissions.ExportPDF(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// ExportStoredCSV godoc
// @Summary      Export stored rows as CSV
// @Description  Exports the approved rows of one report type. Office users get their own office's rows.
// @Tags         report-types
// @Produce      text/csv
// @Security     BearerAuth
// @Param        id  path  string  true  "report type id"
// @Success      200
// @Failure      404  {object}  response.Envelope
// @Router       /report-types/{id}/export [get]
func (h *SubmissionHandler) ExportStoredCSV(c *gin.Context) {
	payload, filename, err := h.submissions.ExportStoredCSV(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// Dashboard godoc
// @Summary      Review dashboard summary
// @Description  Aggregated submission counts, cached briefly.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope{data=dto.DashboardSummary}
// @Router       /dashboard/summary [get]
func (h *SubmissionHandler) Dashboard(c *gin.Context) {
	summary, err := h.submissions.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
