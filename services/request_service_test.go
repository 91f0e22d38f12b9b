package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code-review-market/lifecycle"
	"code-review-market/models"
	"code-review-market/services"
	"code-review-market/testutil"
)

func TestRequestService_Create(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)

	req, err := e.svc.Requests.Create(e.ctx, builder, models.ReviewRequestCreate{
		Title:     "  Review my payments service  ",
		RepoURL:   "https://github.com/acme/payments",
		BudgetMin: 100,
		BudgetMax: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, "Review my payments service", req.Title)
	assert.Equal(t, models.RequestStatusOpen, req.Status)

	_, err = e.svc.Requests.Create(e.ctx, reviewer, models.ReviewRequestCreate{Title: "x"})
	requireKind(t, err, services.KindForbidden)

	_, err = e.svc.Requests.Create(e.ctx, builder, models.ReviewRequestCreate{Title: " "})
	requireKind(t, err, services.KindInvalidInput)

	_, err = e.svc.Requests.Create(e.ctx, builder, models.ReviewRequestCreate{Title: "x", BudgetMin: 500, BudgetMax: 100})
	requireKind(t, err, services.KindInvalidInput)
}

func TestRequestService_GetComputesProgressPerViewer(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)

	view, err := e.svc.Requests.Get(e.ctx, builder, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StagePosted, view.Progress.StageIndex)
	assert.Equal(t, lifecycle.ToneWaiting, view.Progress.Tone)
	assert.Len(t, view.Stages, 5)

	testutil.CreateQuote(t, e.db, req.ID, reviewer.ID, models.QuoteStatusPending)
	view, err = e.svc.Requests.Get(e.ctx, reviewer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StageQuoted, view.Progress.StageIndex)
	assert.Equal(t, lifecycle.ActorBuilder, view.Progress.NextActor)

	_, err = e.svc.Requests.Get(e.ctx, testutil.CreateUser(t, e.db, models.RoleBuilder), req.ID)
	requireKind(t, err, services.KindNotFound)
}

func TestRequestService_ProgressFollowsLifecycle(t *testing.T) {
	e := newEnv(t)
	builder, reviewer, req, review := paidRequest(t, e)

	view, err := e.svc.Requests.Get(e.ctx, builder, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StageInReview, view.Progress.StageIndex)

	_, err = e.svc.Reviews.Submit(e.ctx, reviewer, review.ID, fullScores(6, 6, 6, 6))
	require.NoError(t, err)

	view, err = e.svc.Requests.Get(e.ctx, builder, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StageCompleted, view.Progress.StageIndex)
	assert.Equal(t, lifecycle.ToneComplete, view.Progress.Tone)
}

func TestRequestService_Lists(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)
	quoted := testutil.CreateRequest(t, e.db, builder.ID)
	testutil.CreateRequest(t, e.db, builder.ID)
	testutil.CreateQuote(t, e.db, quoted.ID, reviewer.ID, models.QuoteStatusPending)

	mine, err := e.svc.Requests.ListMine(e.ctx, builder)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := e.svc.Requests.ListMine(e.ctx, reviewer)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, quoted.ID, theirs[0].Request.ID)

	open, err := e.svc.Requests.ListOpen(e.ctx, reviewer, 20, 0)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	_, err = e.svc.Requests.ListOpen(e.ctx, builder, 20, 0)
	requireKind(t, err, services.KindForbidden)
}

func TestRequestService_Cancel(t *testing.T) {
	e := newEnv(t)
	builder, reviewer, req, _ := paidRequest(t, e)

	_, err := e.svc.Requests.Cancel(e.ctx, testutil.CreateUser(t, e.db, models.RoleBuilder), req.ID)
	requireKind(t, err, services.KindForbidden)

	cancelled, err := e.svc.Requests.Cancel(e.ctx, builder, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, cancelled.Status)
	assert.Equal(t, models.RequestStatusCancelled, reloadRequest(t, e.db, req.ID).Status)

	notices := e.rec.forUser(reviewer.ID)
	require.NotEmpty(t, notices)
	assert.Equal(t, models.NotifyRequestCancelled, notices[len(notices)-1].Kind)

	_, err = e.svc.Requests.Cancel(e.ctx, builder, req.ID)
	requireKind(t, err, services.KindInvalidState)

	view, err := e.svc.Requests.Get(e.ctx, builder, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ToneAttention, view.Progress.Tone)
	assert.Equal(t, lifecycle.ActorNone, view.Progress.NextActor)
}

func TestRequestService_CancelCompletedIsInvalid(t *testing.T) {
	e := newEnv(t)
	builder, reviewer, req, review := paidRequest(t, e)
	_, err := e.svc.Reviews.Submit(e.ctx, reviewer, review.ID, fullScores(7, 7, 7, 7))
	require.NoError(t, err)

	_, err = e.svc.Requests.Cancel(e.ctx, builder, req.ID)
	requireKind(t, err, services.KindInvalidState)
	assert.Equal(t, models.RequestStatusCompleted, reloadRequest(t, e.db, req.ID).Status)
}

func TestRequestService_Edit(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	req := testutil.CreateRequest(t, e.db, builder.ID)

	updated, err := e.svc.Requests.Edit(e.ctx, builder, req.ID, models.ReviewRequestUpdate{
		Title:     strPtr("Tighter scope"),
		BudgetMax: floatPtr(400),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tighter scope", updated.Title)

	stored := reloadRequest(t, e.db, req.ID)
	assert.Equal(t, "Tighter scope", stored.Title)
	assert.Equal(t, 400.0, stored.BudgetMax)
	assert.Equal(t, req.Description, stored.Description)

	_, err = e.svc.Requests.Edit(e.ctx, builder, req.ID, models.ReviewRequestUpdate{Title: strPtr("")})
	requireKind(t, err, services.KindInvalidInput)

	_, err = e.svc.Requests.Edit(e.ctx, builder, req.ID, models.ReviewRequestUpdate{BudgetMin: floatPtr(1000)})
	requireKind(t, err, services.KindInvalidInput)

	_, err = e.svc.Requests.Edit(e.ctx, testutil.CreateUser(t, e.db, models.RoleBuilder), req.ID, models.ReviewRequestUpdate{Title: strPtr("mine now")})
	requireKind(t, err, services.KindForbidden)
}

func TestRequestService_EditGuardTracksCurrentAcceptedQuote(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	q := testutil.CreateQuote(t, e.db, req.ID, reviewer.ID, models.QuoteStatusPending)

	_, err := e.svc.Quotes.Accept(e.ctx, builder, req.ID, q.ID)
	require.NoError(t, err)

	_, err = e.svc.Requests.Edit(e.ctx, builder, req.ID, models.ReviewRequestUpdate{Title: strPtr("changed terms")})
	requireKind(t, err, services.KindInvalidState)
	assert.NotEqual(t, "changed terms", reloadRequest(t, e.db, req.ID).Title)

	// Some other path takes the acceptance back.
	require.NoError(t, e.db.Model(&models.Quote{}).Where("id = ?", q.ID).
		Update("status", models.QuoteStatusRejected).Error)

	_, err = e.svc.Requests.Edit(e.ctx, builder, req.ID, models.ReviewRequestUpdate{Title: strPtr("changed terms")})
	require.NoError(t, err)
	assert.Equal(t, "changed terms", reloadRequest(t, e.db, req.ID).Title)
}

func TestRequestService_EditRequiresOpen(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	_, err := e.svc.Requests.Cancel(e.ctx, builder, req.ID)
	require.NoError(t, err)

	_, err = e.svc.Requests.Edit(e.ctx, builder, req.ID, models.ReviewRequestUpdate{Title: strPtr("again")})
	requireKind(t, err, services.KindInvalidState)
}
