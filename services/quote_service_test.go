package services_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code-review-market/models"
	"code-review-market/repository"
	"code-review-market/services"
	"code-review-market/testutil"
)

func TestQuoteService_Submit(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)

	quote, err := e.svc.Quotes.Submit(e.ctx, reviewer, req.ID, models.QuoteCreate{
		Price:          100,
		TurnaroundDays: 3,
		Note:           "Happy to dig into the auth flow.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusPending, quote.Status)
	assert.False(t, quote.Paid)

	notices := e.rec.forUser(builder.ID)
	require.Len(t, notices, 1)
	assert.Equal(t, models.NotifyQuoteReceived, notices[0].Kind)
}

func TestQuoteService_SubmitRejections(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	valid := models.QuoteCreate{Price: 80, TurnaroundDays: 2}

	t.Run("no session", func(t *testing.T) {
		_, err := e.svc.Quotes.Submit(e.ctx, nil, req.ID, valid)
		requireKind(t, err, services.KindUnauthorized)
	})

	t.Run("builder cannot quote", func(t *testing.T) {
		_, err := e.svc.Quotes.Submit(e.ctx, builder, req.ID, valid)
		requireKind(t, err, services.KindForbidden)
	})

	t.Run("bad price", func(t *testing.T) {
		_, err := e.svc.Quotes.Submit(e.ctx, reviewer, req.ID, models.QuoteCreate{Price: 0, TurnaroundDays: 2})
		requireKind(t, err, services.KindInvalidInput)
	})

	t.Run("bad turnaround", func(t *testing.T) {
		_, err := e.svc.Quotes.Submit(e.ctx, reviewer, req.ID, models.QuoteCreate{Price: 50, TurnaroundDays: -1})
		requireKind(t, err, services.KindInvalidInput)
	})

	t.Run("missing request", func(t *testing.T) {
		_, err := e.svc.Quotes.Submit(e.ctx, reviewer, 9999, valid)
		requireKind(t, err, services.KindNotFound)
	})

	t.Run("duplicate quote", func(t *testing.T) {
		_, err := e.svc.Quotes.Submit(e.ctx, reviewer, req.ID, valid)
		require.NoError(t, err)
		_, err = e.svc.Quotes.Submit(e.ctx, reviewer, req.ID, valid)
		requireKind(t, err, services.KindConflict)
	})

	t.Run("cancelled request", func(t *testing.T) {
		other := testutil.CreateRequest(t, e.db, builder.ID)
		_, err := e.svc.Requests.Cancel(e.ctx, builder, other.ID)
		require.NoError(t, err)

		_, err = e.svc.Quotes.Submit(e.ctx, reviewer, other.ID, valid)
		requireKind(t, err, services.KindInvalidState)
	})
}

func TestQuoteService_SubmitAfterAcceptIsConflict(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	first := testutil.CreateUser(t, e.db, models.RoleReviewer)
	late := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	q := testutil.CreateQuote(t, e.db, req.ID, first.ID, models.QuoteStatusPending)

	_, err := e.svc.Quotes.Accept(e.ctx, builder, req.ID, q.ID)
	require.NoError(t, err)

	_, err = e.svc.Quotes.Submit(e.ctx, late, req.ID, models.QuoteCreate{Price: 90, TurnaroundDays: 1})
	requireKind(t, err, services.KindConflict)

	var count int64
	require.NoError(t, e.db.Model(&models.Quote{}).Where("request_id = ?", req.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestQuoteService_AcceptRejectsSiblings(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	r1 := testutil.CreateUser(t, e.db, models.RoleReviewer)
	r2 := testutil.CreateUser(t, e.db, models.RoleReviewer)
	r3 := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	q1 := testutil.CreateQuote(t, e.db, req.ID, r1.ID, models.QuoteStatusPending)
	q2 := testutil.CreateQuote(t, e.db, req.ID, r2.ID, models.QuoteStatusPending)
	q3 := testutil.CreateQuote(t, e.db, req.ID, r3.ID, models.QuoteStatusPending)

	accepted, err := e.svc.Quotes.Accept(e.ctx, builder, req.ID, q2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusAccepted, accepted.Status)

	assert.Equal(t, models.QuoteStatusRejected, reloadQuote(t, e.db, q1.ID).Status)
	assert.Equal(t, models.QuoteStatusAccepted, reloadQuote(t, e.db, q2.ID).Status)
	assert.Equal(t, models.QuoteStatusRejected, reloadQuote(t, e.db, q3.ID).Status)
	assert.Equal(t, models.RequestStatusOpen, reloadRequest(t, e.db, req.ID).Status)

	require.Len(t, e.rec.forUser(r2.ID), 1)
	assert.Equal(t, models.NotifyQuoteAccepted, e.rec.forUser(r2.ID)[0].Kind)
	assert.Equal(t, models.NotifyQuoteRejected, e.rec.forUser(r1.ID)[0].Kind)
	assert.Equal(t, models.NotifyQuoteRejected, e.rec.forUser(r3.ID)[0].Kind)
}

func TestQuoteService_AcceptRejections(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	stranger := testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	other := testutil.CreateRequest(t, e.db, builder.ID)
	q := testutil.CreateQuote(t, e.db, req.ID, reviewer.ID, models.QuoteStatusPending)
	foreign := testutil.CreateQuote(t, e.db, other.ID, reviewer.ID, models.QuoteStatusPending)
	rejected := testutil.CreateQuote(t, e.db, req.ID, testutil.CreateUser(t, e.db, models.RoleReviewer).ID, models.QuoteStatusRejected)

	_, err := e.svc.Quotes.Accept(e.ctx, stranger, req.ID, q.ID)
	requireKind(t, err, services.KindForbidden)

	_, err = e.svc.Quotes.Accept(e.ctx, reviewer, req.ID, q.ID)
	requireKind(t, err, services.KindForbidden)

	_, err = e.svc.Quotes.Accept(e.ctx, builder, req.ID, foreign.ID)
	requireKind(t, err, services.KindNotFound)

	_, err = e.svc.Quotes.Accept(e.ctx, builder, req.ID, rejected.ID)
	requireKind(t, err, services.KindConflict)

	_, err = e.svc.Requests.Cancel(e.ctx, builder, req.ID)
	require.NoError(t, err)
	_, err = e.svc.Quotes.Accept(e.ctx, builder, req.ID, q.ID)
	requireKind(t, err, services.KindInvalidState)
	assert.Equal(t, models.QuoteStatusPending, reloadQuote(t, e.db, q.ID).Status)
}

func TestQuoteService_ConcurrentAcceptsLeaveOneWinner(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	r1 := testutil.CreateUser(t, e.db, models.RoleReviewer)
	r2 := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	q1 := testutil.CreateQuote(t, e.db, req.ID, r1.ID, models.QuoteStatusPending)
	q2 := testutil.CreateQuote(t, e.db, req.ID, r2.ID, models.QuoteStatusPending)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uint{q1.ID, q2.ID} {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = e.svc.Quotes.Accept(e.ctx, builder, req.ID, id)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, services.KindConflict, services.KindOf(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	var accepted int64
	require.NoError(t, e.db.Model(&models.Quote{}).
		Where("request_id = ? AND status = ?", req.ID, models.QuoteStatusAccepted).
		Count(&accepted).Error)
	assert.EqualValues(t, 1, accepted)
}

func TestQuotes_StorageRejectsSecondAccepted(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	testutil.CreateQuote(t, e.db, req.ID, testutil.CreateUser(t, e.db, models.RoleReviewer).ID, models.QuoteStatusAccepted)
	q2 := testutil.CreateQuote(t, e.db, req.ID, testutil.CreateUser(t, e.db, models.RoleReviewer).ID, models.QuoteStatusPending)

	// Bypasses the service guards to hit the index directly.
	ok, err := e.repo.Quotes.Accept(e.ctx, q2.ID)
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, repository.IsUniqueViolation(err), "unexpected error: %v", err)
}

func TestQuoteService_ListForRequest(t *testing.T) {
	e := newEnv(t)
	builder := testutil.CreateUser(t, e.db, models.RoleBuilder)
	r1 := testutil.CreateUser(t, e.db, models.RoleReviewer)
	r2 := testutil.CreateUser(t, e.db, models.RoleReviewer)
	req := testutil.CreateRequest(t, e.db, builder.ID)
	testutil.CreateQuote(t, e.db, req.ID, r1.ID, models.QuoteStatusPending)
	testutil.CreateQuote(t, e.db, req.ID, r2.ID, models.QuoteStatusPending)

	all, err := e.svc.Quotes.ListForRequest(e.ctx, builder, req.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := e.svc.Quotes.ListForRequest(e.ctx, r1, req.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, r1.ID, own[0].ReviewerID)

	_, err = e.svc.Quotes.ListForRequest(e.ctx, testutil.CreateUser(t, e.db, models.RoleBuilder), req.ID)
	requireKind(t, err, services.KindNotFound)
}
