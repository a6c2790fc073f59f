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

type reviewService interface {
	Review(ctx context.Context, id string, req dto.ReviewSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error)
}

// ReviewHandler exposes the admin review decision endpoint.
type ReviewHandler struct {
	reviews reviewService
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(reviews reviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Review godoc
// @Summary      Review submission
// @Description  Approves or rejects a pending submission. Approval provisions the report table and stores the rows atomically.
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "submission id"
// @Param        request  body      dto.ReviewSubmissionRequest  true  "decision"
// @Success      200      {object}  response.Envelope{data=models.Submission}
// @Failure      400      {object}  response.Envelope
// @Failure      404      {object}  response.Envelope
// @Failure      409      {object}  response.Envelope
// @Router       /submissions/{id}/review [post]
func (h *ReviewHandler) Review(c *gin.Context) {
	var req dto.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	submission, err := h.reviews.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
