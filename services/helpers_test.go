package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"code-review-market/models"
	"code-review-market/repository"
	"code-review-market/services"
	"code-review-market/testutil"
)

type recorder struct {
	mu      sync.Mutex
	notices []services.Notice
}

func (r *recorder) Notify(_ context.Context, n services.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recorder) all() []services.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]services.Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func (r *recorder) forUser(id uint) []services.Notice {
	var out []services.Notice
	for _, n := range r.all() {
		if n.UserID == id {
			out = append(out, n)
		}
	}
	return out
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, services.Notice) error {
	return errors.New("smtp: connection refused")
}

type env struct {
	ctx  context.Context
	db   *gorm.DB
	repo *repository.Repository
	svc  *services.Services
	rec  *recorder
}

func newEnv(t *testing.T, extra ...services.Notifier) *env {
	t.Helper()
	return newEnvFrom(t, testutil.SetupTestDB(t), extra...)
}

func newEnvFrom(t *testing.T, db *gorm.DB, extra ...services.Notifier) *env {
	t.Helper()

	repo := repository.New(db)
	rec := &recorder{}
	notifiers := append([]services.Notifier{rec}, extra...)

	svc := services.New(repo, zap.NewNop(), services.Options{
		JWTSecret:      "test-secret",
		JWTExpiryHours: 1,
		Dispatcher:     services.NewDispatcher(zap.NewNop(), notifiers...),
	})
	return &env{ctx: context.Background(), db: db, repo: repo, svc: svc, rec: rec}
}

func requireKind(t *testing.T, err error, kind services.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, services.KindOf(err), "unexpected error: %v", err)
}

func reloadRequest(t *testing.T, db *gorm.DB, id uint) models.ReviewRequest {
	t.Helper()
	var req models.ReviewRequest
	require.NoError(t, db.First(&req, id).Error)
	return req
}

func reloadQuote(t *testing.T, db *gorm.DB, id uint) models.Quote {
	t.Helper()
	var q models.Quote
	require.NoError(t, db.First(&q, id).Error)
	return q
}

func countReviews(t *testing.T, db *gorm.DB, requestID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Review{}).Where("request_id = ?", requestID).Count(&n).Error)
	return n
}

// paidRequest builds a request whose quote from reviewer has been accepted and paid.
func paidRequest(t *testing.T, e *env) (builder, reviewer *models.User, req *models.ReviewRequest, review *models.Review) {
	t.Helper()

	builder = testutil.CreateUser(t, e.db, models.RoleBuilder)
	reviewer = testutil.CreateUser(t, e.db, models.RoleReviewer)
	req = testutil.CreateRequest(t, e.db, builder.ID)
	quote := testutil.CreateQuote(t, e.db, req.ID, reviewer.ID, models.QuoteStatusPending)

	_, err := e.svc.Quotes.Accept(e.ctx, builder, req.ID, quote.ID)
	require.NoError(t, err)
	res, err := e.svc.Payments.Pay(e.ctx, builder, req.ID)
	require.NoError(t, err)
	return builder, reviewer, req, res.Review
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }
