package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emu-ics/report-portal-api/internal/dto"
	"github.com/emu-ics/report-portal-api/internal/models"
	"github.com/emu-ics/report-portal-api/internal/repository"
	appErrors "github.com/emu-ics/report-portal-api/pkg/errors"
)

// stubProvisioner mimics the transactional approve: the first caller claims
// the submission, every later caller gets sql.ErrNoRows.
type stubProvisioner struct {
	mu         sync.Mutex
	claimed    map[string]bool
	storedRows int
	calls      int
	failWith   error
}

func newStubProvisioner() *stubProvisioner {
	return &stubProvisioner{claimed: make(map[string]bool)}
}

func (s *stubProvisioner) StoreApproved(_ context.Context, params repository.StoreApprovedParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failWith != nil {
		return s.failWith
	}
	if s.claimed[params.Submission.ID] {
		return sql.ErrNoRows
	}
	s.claimed[params.Submission.ID] = true
	s.storedRows += len(params.Rows)
	return nil
}

type reviewStoreAdapter struct {
	*stubSubmissionStore
	mu        sync.Mutex
	updateErr error
	updates   []models.SubmissionStatus
}

// GetByID returns a copy so concurrent reviewers never share a pointer.
func (a *reviewStoreAdapter) GetByID(_ context.Context, id string) (*models.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	submission, ok := a.submissions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *submission
	return &copied, nil
}

func (a *reviewStoreAdapter) UpdateStatus(_ context.Context, id string, status models.SubmissionStatus, reviewedBy string, reviewedAt time.Time, note *string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.updateErr != nil {
		return a.updateErr
	}
	submission, ok := a.submissions[id]
	if !ok || submission.Status != models.SubmissionStatusPending {
		return sql.ErrNoRows
	}
	submission.Status = status
	submission.ReviewedBy = &reviewedBy
	submission.ReviewedAt = &reviewedAt
	submission.Note = note
	a.updates = append(a.updates, status)
	return nil
}

func pendingSubmission(t *testing.T, id string) *models.Submission {
	t.Helper()
	payload, err := json.Marshal([]models.RowRecord{completeAdmissionRow(), completeAdmissionRow()})
	require.NoError(t, err)
	return &models.Submission{
		ID:           id,
		ReportTypeID: "admissiondata",
		Office:       "Registrar",
		Campus:       "Main Campus",
		Status:       models.SubmissionStatusPending,
		RecordCount:  2,
		Payload:      payload,
	}
}

func newReviewService(store *reviewStoreAdapter, tables *stubProvisioner) *ReviewService {
	return NewReviewService(store, tables, newStubSchemas(), &stubCache{}, &stubAudit{}, nil, zap.NewNop())
}

func TestReviewServiceApproveStoresRows(t *testing.T) {
	store := &reviewStoreAdapter{stubSubmissionStore: newStubSubmissionStore()}
	store.submissions["s1"] = pendingSubmission(t, "s1")
	tables := newStubProvisioner()
	svc := newReviewService(store, tables)

	submission, err := svc.Review(context.Background(), "s1", dto.ReviewSubmissionRequest{
		Status: models.SubmissionStatusApproved,
		Note:   "checked",
	}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, submission.Status)
	assert.Equal(t, 2, tables.storedRows)
	require.NotNil(t, submission.ReviewedBy)
	assert.Equal(t, "admin-1", *submission.ReviewedBy)
}

func TestReviewServiceRejectSkipsProvisioning(t *testing.T) {
	store := &reviewStoreAdapter{stubSubmissionStore: newStubSubmissionStore()}
	store.submissions["s1"] = pendingSubmission(t, "s1")
	tables := newStubProvisioner()
	svc := newReviewService(store, tables)

	submission, err := svc.Review(context.Background(), "s1", dto.ReviewSubmissionRequest{
		Status: models.SubmissionStatusRejected,
		Note:   "numbers do not add up",
	}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusRejected, submission.Status)
	assert.Equal(t, 0, tables.calls)
	assert.Equal(t, 0, tables.storedRows)
}

func TestReviewServiceRejectsInvalidDecision(t *testing.T) {
	store := &reviewStoreAdapter{stubSubmissionStore: newStubSubmissionStore()}
	svc := newReviewService(store, newStubProvisioner())

	_, err := svc.Review(context.Background(), "s1", dto.ReviewSubmissionRequest{
		Status: models.SubmissionStatusPending,
	}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceTerminalSubmissionIsIllegalTransition(t *testing.T) {
	store := &reviewStoreAdapter{stubSubmissionStore: newStubSubmissionStore()}
	submission := pendingSubmission(t, "s1")
	submission.Status = models.SubmissionStatusApproved
	store.submissions["s1"] = submission
	svc := newReviewService(store, newStubProvisioner())

	_, err := svc.Review(context.Background(), "s1", dto.ReviewSubmissionRequest{
		Status: models.SubmissionStatusRejected,
	}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceConcurrentApproveOnlyOneWins(t *testing.T) {
	store := &reviewStoreAdapter{stubSubmissionStore: newStubSubmissionStore()}
	store.submissions["s1"] = pendingSubmission(t, "s1")
	tables := newStubProvisioner()
	svc := newReviewService(store, tables)

	// Both reviewers read the submission while it is still PENDING, so both
	// reach the provisioner; the conditional claim decides the winner.
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Review(context.Background(), "s1", dto.ReviewSubmissionRequest{
				Status: models.SubmissionStatusApproved,
			}, adminClaims())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		if appErrors.FromError(err).Code == appErrors.ErrIllegalTransition.Code {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 2, tables.storedRows, "rows must be stored exactly once")
}

func TestReviewServiceProvisioningFailureLeavesPending(t *testing.T) {
	store := &reviewStoreAdapter{stubSubmissionStore: newStubSubmissionStore()}
	store.submissions["s1"] = pendingSubmission(t, "s1")
	tables := newStubProvisioner()
	tables.failWith = errors.New("relation could not be created")
	svc := newReviewService(store, tables)

	_, err := svc.Review(context.Background(), "s1", dto.ReviewSubmissionRequest{
		Status: models.SubmissionStatusApproved,
	}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProvisioningFailure.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.SubmissionStatusPending, store.submissions["s1"].Status)
}

func TestReviewServiceApproveDanglingSchemaIsIntegrityDefect(t *testing.T) {
	store := &reviewStoreAdapter{stubSubmissionStore: newStubSubmissionStore()}
	submission := pendingSubmission(t, "s1")
	submission.ReportTypeID = "removedreport"
	store.submissions["s1"] = submission
	svc := newReviewService(store, newStubProvisioner())

	_, err := svc.Review(context.Background(), "s1", dto.ReviewSubmissionRequest{
		Status: models.SubmissionStatusApproved,
	}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIntegrityDefect.Code, appErrors.FromError(err).Code)
}
