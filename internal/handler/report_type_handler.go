package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emu-ics/report-portal-api/internal/dto"
	"github.com/emu-ics/report-portal-api/internal/models"
	"github.com/emu-ics/report-portal-api/internal/service"
	"github.com/emu-ics/report-portal-api/pkg/response"
)

type schemaRegistry interface {
	List() []dto.ReportTypeItem
	GetSchema(reportTypeID string) (*models.ReportTypeSchema, error)
}

type templateBuilder interface {
	BuildRowTemplate(schema *models.ReportTypeSchema) models.RowTemplate
}

// ReportTypeHandler serves the schema registry and row templates.
type ReportTypeHandler struct {
	schemas   schemaRegistry
	templates templateBuilder
}

// NewReportTypeHandler constructs the handler.
func NewReportTypeHandler(schemas schemaRegistry, templates *service.TemplateService) *ReportTypeHandler {
	return &ReportTypeHandler{schemas: schemas, templates: templates}
}

// List godoc
// @Summary      List report types
// @Description  Returns every registered report type with its resolved columns.
// @Tags         report-types
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope{data=[]dto.ReportTypeItem}
// @Router       /report-types [get]
func (h *ReportTypeHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.schemas.List(), nil)
}

// Template godoc
// @Summary      Row template
// @Description  Returns the ordered widget layout for entering one row of the report type.
// @Tags         report-types
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "report type id"
// @Success      200  {object}  response.Envelope{data=models.RowTemplate}
// @Failure      404  {object}  response.Envelope
// @Router       /report-types/{id}/template [get]
func (h *ReportTypeHandler) Template(c *gin.Context) {
	schema, err := h.schemas.GetSchema(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.templates.BuildRowTemplate(schema), nil)
}
