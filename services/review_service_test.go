package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code-review-market/models"
	"code-review-market/services"
	"code-review-market/testutil"
)

func fullScores(sec, arch, perf, maint int) models.ReviewUpdate {
	return models.ReviewUpdate{
		SecurityScore:        intPtr(sec),
		ArchitectureScore:    intPtr(arch),
		PerformanceScore:     intPtr(perf),
		MaintainabilityScore: intPtr(maint),
	}
}

func TestReviewService_DraftKeepsRequestInProgress(t *testing.T) {
	e := newEnv(t)
	_, reviewer, req, review := paidRequest(t, e)

	_, err := e.svc.Reviews.SaveDraft(e.ctx, reviewer, review.ID, models.ReviewUpdate{
		SecurityScore: intPtr(6),
		SecurityNotes: strPtr("Tokens are stored in localStorage."),
	})
	require.NoError(t, err)

	updated, err := e.svc.Reviews.SaveDraft(e.ctx, reviewer, review.ID, models.ReviewUpdate{
		SecurityScore: intPtr(4),
		Summary:       strPtr("Work in progress"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, *updated.SecurityScore)
	assert.Equal(t, "Tokens are stored in localStorage.", updated.SecurityNotes)
	assert.Nil(t, updated.OverallScore)

	var stored models.Review
	require.NoError(t, e.db.First(&stored, review.ID).Error)
	assert.Equal(t, 4, *stored.SecurityScore)
	assert.Equal(t, "Work in progress", stored.Summary)
	assert.Nil(t, stored.OverallScore)
	assert.Equal(t, models.RequestStatusInProgress, reloadRequest(t, e.db, req.ID).Status)
}

func TestReviewService_ScoreValidation(t *testing.T) {
	e := newEnv(t)
	_, reviewer, _, review := paidRequest(t, e)

	for _, bad := range []int{0, 11, -3} {
		_, err := e.svc.Reviews.SaveDraft(e.ctx, reviewer, review.ID, models.ReviewUpdate{PerformanceScore: intPtr(bad)})
		requireKind(t, err, services.KindInvalidInput)
	}

	_, err := e.svc.Reviews.Submit(e.ctx, reviewer, review.ID, models.ReviewUpdate{
		SecurityScore:        intPtr(5),
		ArchitectureScore:    intPtr(5),
		PerformanceScore:     intPtr(5),
		MaintainabilityScore: intPtr(5),
		OverallScore:         intPtr(12),
	})
	requireKind(t, err, services.KindInvalidInput)

	var stored models.Review
	require.NoError(t, e.db.First(&stored, review.ID).Error)
	assert.Nil(t, stored.PerformanceScore)
	assert.Nil(t, stored.OverallScore)
}

func TestReviewService_ScoreErrorNamesFirstBadField(t *testing.T) {
	e := newEnv(t)
	_, reviewer, _, review := paidRequest(t, e)

	in := models.ReviewUpdate{
		SecurityScore:     intPtr(0),
		PerformanceScore:  intPtr(11),
		OverallScore:      intPtr(-1),
		ArchitectureScore: intPtr(20),
	}
	for i := 0; i < 20; i++ {
		_, err := e.svc.Reviews.SaveDraft(e.ctx, reviewer, review.ID, in)
		requireKind(t, err, services.KindInvalidInput)
		assert.Contains(t, err.Error(), "security_score must be between 1 and 10")
	}
}

func TestReviewService_OnlyAssignedReviewerWrites(t *testing.T) {
	e := newEnv(t)
	builder, _, _, review := paidRequest(t, e)
	outsider := testutil.CreateUser(t, e.db, models.RoleReviewer)

	_, err := e.svc.Reviews.SaveDraft(e.ctx, outsider, review.ID, models.ReviewUpdate{Summary: strPtr("hi")})
	requireKind(t, err, services.KindForbidden)

	_, err = e.svc.Reviews.SaveDraft(e.ctx, builder, review.ID, models.ReviewUpdate{Summary: strPtr("hi")})
	requireKind(t, err, services.KindForbidden)

	_, err = e.svc.Reviews.SaveDraft(e.ctx, nil, review.ID, models.ReviewUpdate{})
	requireKind(t, err, services.KindUnauthorized)
}

func TestReviewService_SubmitComputesOverall(t *testing.T) {
	e := newEnv(t)
	builder, reviewer, req, review := paidRequest(t, e)

	submitted, err := e.svc.Reviews.Submit(e.ctx, reviewer, review.ID, fullScores(8, 7, 9, 6))
	require.NoError(t, err)
	require.NotNil(t, submitted.OverallScore)
	assert.Equal(t, 8, *submitted.OverallScore)
	assert.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, models.RequestStatusCompleted, reloadRequest(t, e.db, req.ID).Status)

	notices := e.rec.forUser(builder.ID)
	require.NotEmpty(t, notices)
	assert.Equal(t, models.NotifyReviewSubmitted, notices[len(notices)-1].Kind)
}

func TestReviewService_SubmitUsesDraftScores(t *testing.T) {
	e := newEnv(t)
	_, reviewer, _, review := paidRequest(t, e)

	_, err := e.svc.Reviews.SaveDraft(e.ctx, reviewer, review.ID, models.ReviewUpdate{
		SecurityScore:     intPtr(3),
		ArchitectureScore: intPtr(4),
	})
	require.NoError(t, err)

	submitted, err := e.svc.Reviews.Submit(e.ctx, reviewer, review.ID, models.ReviewUpdate{
		PerformanceScore:     intPtr(4),
		MaintainabilityScore: intPtr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, *submitted.OverallScore)
}

func TestReviewService_ExplicitOverallMayDiverge(t *testing.T) {
	e := newEnv(t)
	_, reviewer, _, review := paidRequest(t, e)

	in := fullScores(2, 2, 2, 2)
	in.OverallScore = intPtr(9)
	submitted, err := e.svc.Reviews.Submit(e.ctx, reviewer, review.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 9, *submitted.OverallScore)
}

func TestReviewService_SubmitNeedsAllCategories(t *testing.T) {
	e := newEnv(t)
	_, reviewer, req, review := paidRequest(t, e)

	_, err := e.svc.Reviews.Submit(e.ctx, reviewer, review.ID, models.ReviewUpdate{
		SecurityScore: intPtr(7),
		OverallScore:  intPtr(7),
	})
	requireKind(t, err, services.KindInvalidInput)

	var stored models.Review
	require.NoError(t, e.db.First(&stored, review.ID).Error)
	assert.Nil(t, stored.SecurityScore)
	assert.Equal(t, models.RequestStatusInProgress, reloadRequest(t, e.db, req.ID).Status)
}

func TestReviewService_NoWritesAfterSubmit(t *testing.T) {
	e := newEnv(t)
	_, reviewer, _, review := paidRequest(t, e)

	_, err := e.svc.Reviews.Submit(e.ctx, reviewer, review.ID, fullScores(5, 6, 7, 8))
	require.NoError(t, err)

	_, err = e.svc.Reviews.SaveDraft(e.ctx, reviewer, review.ID, models.ReviewUpdate{SecurityScore: intPtr(1)})
	requireKind(t, err, services.KindInvalidState)

	_, err = e.svc.Reviews.Submit(e.ctx, reviewer, review.ID, fullScores(1, 1, 1, 1))
	requireKind(t, err, services.KindInvalidState)

	var stored models.Review
	require.NoError(t, e.db.First(&stored, review.ID).Error)
	assert.Equal(t, 5, *stored.SecurityScore)
}

func TestReviewService_NoWritesOnCancelledRequest(t *testing.T) {
	e := newEnv(t)
	builder, reviewer, req, review := paidRequest(t, e)

	_, err := e.svc.Requests.Cancel(e.ctx, builder, req.ID)
	require.NoError(t, err)

	_, err = e.svc.Reviews.SaveDraft(e.ctx, reviewer, review.ID, models.ReviewUpdate{Summary: strPtr("late")})
	requireKind(t, err, services.KindInvalidState)
}

func TestReviewService_Visibility(t *testing.T) {
	e := newEnv(t)
	builder, reviewer, req, review := paidRequest(t, e)

	got, err := e.svc.Reviews.Get(e.ctx, builder, review.ID)
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)

	got, err = e.svc.Reviews.ForRequest(e.ctx, reviewer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)

	_, err = e.svc.Reviews.Get(e.ctx, testutil.CreateUser(t, e.db, models.RoleReviewer), review.ID)
	requireKind(t, err, services.KindNotFound)
}

func TestOverallScore(t *testing.T) {
	r := &models.Review{}
	_, ok := services.OverallScore(r)
	assert.False(t, ok)

	r.SecurityScore, r.ArchitectureScore, r.PerformanceScore, r.MaintainabilityScore = intPtr(8), intPtr(7), intPtr(9), intPtr(6)
	score, ok := services.OverallScore(r)
	assert.True(t, ok)
	assert.Equal(t, 8, score)

	r.SecurityScore, r.ArchitectureScore, r.PerformanceScore, r.MaintainabilityScore = intPtr(1), intPtr(1), intPtr(1), intPtr(2)
	score, _ = services.OverallScore(r)
	assert.Equal(t, 1, score)
}
