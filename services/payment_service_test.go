package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code-review-market/models"
	"code-review-market/services"
	"code-review-market/testutil"
)

func TestPaymentService_Pay(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	q := testutil.CreateQuote(t, e.db, req.ID, reviewer.ID, models.QuoteStatusPending)

	_, err := e.svc.Quotes.Accept(e.ctx, builder, req.ID, q.ID)
	require.NoError(t, err)

	res, err := e.svc.Payments.Pay(e.ctx, builder, req.ID)
	require.NoError(t, err)

	stored := reloadQuote(t, e.db, q.ID)
	assert.True(t, stored.Paid)
	assert.NotNil(t, stored.PaidAt)
	assert.Equal(t, models.RequestStatusInProgress, reloadRequest(t, e.db, req.ID).Status)

	require.NotNil(t, res.Review)
	assert.Equal(t, q.ID, res.Review.QuoteID)
	assert.Equal(t, reviewer.ID, res.Review.ReviewerID)
	assert.Nil(t, res.Review.OverallScore)
	assert.Nil(t, res.Review.SecurityScore)
	assert.EqualValues(t, 1, countReviews(t, e.db, req.ID))

	notices := e.rec.forUser(reviewer.ID)
	require.NotEmpty(t, notices)
	assert.Equal(t, models.NotifyPaymentReceived, notices[len(notices)-1].Kind)
}

func TestPaymentService_PayTwiceIsAlreadyProcessed(t *testing.T) {
	e := newEnv(t)
	builder, _, req, _ := paidRequest(t, e)
	before := len(e.rec.all())

	_, err := e.svc.Payments.Pay(e.ctx, builder, req.ID)
	requireKind(t, err, services.KindAlreadyProcessed)

	assert.EqualValues(t, 1, countReviews(t, e.db, req.ID))
	assert.Equal(t, models.RequestStatusInProgress, reloadRequest(t, e.db, req.ID).Status)
	assert.Len(t, e.rec.all(), before)
}

func TestPaymentService_PayRejections(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)

	t.Run("no accepted quote", func(t *testing.T) {
		testutil.CreateQuote(t, e.db, req.ID, reviewer.ID, models.QuoteStatusPending)
		_, err := e.svc.Payments.Pay(e.ctx, builder, req.ID)
		requireKind(t, err, services.KindNotFound)
	})

	t.Run("missing request", func(t *testing.T) {
		_, err := e.svc.Payments.Pay(e.ctx, builder, 4242)
		requireKind(t, err, services.KindNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		_, err := e.svc.Payments.Pay(e.ctx, testutil.CreateUser(t, e.db, models.RoleBuilder), req.ID)
		requireKind(t, err, services.KindForbidden)
	})

	t.Run("reviewer cannot pay", func(t *testing.T) {
		_, err := e.svc.Payments.Pay(e.ctx, reviewer, req.ID)
		requireKind(t, err, services.KindForbidden)
	})
}

func TestPaymentService_CancelledRequestCannotBePaid(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	q := testutil.CreateQuote(t, e.db, req.ID, reviewer.ID, models.QuoteStatusPending)

	_, err := e.svc.Quotes.Accept(e.ctx, builder, req.ID, q.ID)
	require.NoError(t, err)
	_, err = e.svc.Requests.Cancel(e.ctx, builder, req.ID)
	require.NoError(t, err)

	_, err = e.svc.Payments.Pay(e.ctx, builder, req.ID)
	requireKind(t, err, services.KindInvalidState)
	assert.False(t, reloadQuote(t, e.db, q.ID).Paid)
	assert.EqualValues(t, 0, countReviews(t, e.db, req.ID))
}
