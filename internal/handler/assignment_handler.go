package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emu-ics/report-portal-api/internal/dto"
	"github.com/emu-ics/report-portal-api/internal/models"
	appErrors "github.com/emu-ics/report-portal-api/pkg/errors"
	"github.com/emu-ics/report-portal-api/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, req dto.CreateAssignmentRequest, actor *models.JWTClaims) (*models.Assignment, error)
	List(ctx context.Context, query dto.AssignmentQuery, actor *models.JWTClaims) ([]models.Assignment, error)
	Deactivate(ctx context.Context, id string, actor *models.JWTClaims) error
}

// AssignmentHandler exposes assignment management.
type AssignmentHandler struct {
	assignments assignmentService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(assignments assignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Create godoc
// @Summary      Create assignment
// @Description  Grants a report type to an office. The assignment starts active.
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.CreateAssignmentRequest  true  "assignment"
// @Success      201      {object}  response.Envelope{data=models.Assignment}
// @Failure      400      {object}  response.Envelope
// @Failure      404      {object}  response.Envelope
// @Router       /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	assignment, err := h.assignments.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// List godoc
// @Summary      List assignments
// @Description  Office users see their own active assignments; admins can filter freely.
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        office            query     string  false  "office filter (admin only)"
// @Param        report_type_id    query     string  false  "report type filter"
// @Param        include_inactive  query     bool    false  "include inactive (admin only)"
// @Success      200               {object}  response.Envelope{data=[]models.Assignment}
// @Router       /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	var query dto.AssignmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	assignments, err := h.assignments.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Deactivate godoc
// @Summary      Deactivate assignment
// @Description  Retires an assignment. Assignments are never deleted.
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "assignment id"
// @Success      204
// @Failure      404  {object}  response.Envelope
// @Failure      409  {object}  response.Envelope
// @Router       /assignments/{id} [delete]
func (h *AssignmentHandler) Deactivate(c *gin.Context) {
	if err := h.assignments.Deactivate(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
