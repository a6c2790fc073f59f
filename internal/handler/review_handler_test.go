package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emu-ics/report-portal-api/internal/dto"
	"github.com/emu-ics/report-portal-api/internal/models"
	appErrors "github.com/emu-ics/report-portal-api/pkg/errors"
)

type fakeReviewSrv struct {
	result  *models.Submission
	err     error
	lastID  string
	lastReq dto.ReviewSubmissionRequest
}

func (f *fakeReviewSrv) Review(_ context.Context, id string, req dto.ReviewSubmissionRequest, _ *models.JWTClaims) (*models.Submission, error) {
	f.lastID = id
	f.lastReq = req
	return f.result, f.err
}

func TestReviewHandlerApprove(t *testing.T) {
	srv := &fakeReviewSrv{result: &models.Submission{ID: "s1", Status: models.SubmissionStatusApproved}}
	handler := NewReviewHandler(srv)

	c, rec := testContext(t, http.MethodPost, "/submissions/s1/review", `{"status":"APPROVED","note":"fine"}`)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	withClaims(c, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Review(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", srv.lastID)
	require.Equal(t, models.SubmissionStatusApproved, srv.lastReq.Status)
	assert.Equal(t, "fine", srv.lastReq.Note)
}

func TestReviewHandlerConflictWhenNoLongerPending(t *testing.T) {
	srv := &fakeReviewSrv{err: appErrors.ErrIllegalTransition}
	handler := NewReviewHandler(srv)

	c, rec := testContext(t, http.MethodPost, "/submissions/s1/review", `{"status":"REJECTED"}`)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	withClaims(c, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Review(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReviewHandlerMalformedBody(t *testing.T) {
	handler := NewReviewHandler(&fakeReviewSrv{})

	c, rec := testContext(t, http.MethodPost, "/submissions/s1/review", "{")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	withClaims(c, &models.JWTClaims{Role: models.RoleAdmin})

	handler.Review(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
