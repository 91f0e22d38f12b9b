package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jaswdr/faker"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"code-review-market/database"
	"code-review-market/models"
)

var dbSeq atomic.Uint64

// SetupTestDB opens an in-memory sqlite database private to t and runs the
// production migrations against it. The pool holds a single connection, so
// concurrent transactions run one after another. Every call gets a fresh
// database, even when a test calls it more than once.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get test sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

var fake = faker.New()

// CreateUser inserts an active user with the given role and a random identity.
func CreateUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	person := fake.Person()
	user := &models.User{
		Email:        fmt.Sprintf("%s.%d@example.test", strings.ToLower(person.FirstName()), fake.RandomNumber(9)),
		FullName:     person.Name(),
		PasswordHash: "not-a-real-hash",
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateRequest inserts an open review request owned by builderID.
func CreateRequest(t *testing.T, db *gorm.DB, builderID uint) *models.ReviewRequest {
	t.Helper()

	req := &models.ReviewRequest{
		BuilderID:   builderID,
		Title:       fake.Lorem().Sentence(5),
		Description: fake.Lorem().Paragraph(2),
		RepoURL:     "https://github.com/example/" + strings.ToLower(fake.Lorem().Word()),
		Stack:       "Go, Postgres",
		BudgetMin:   50,
		BudgetMax:   200,
		Status:      models.RequestStatusOpen,
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("failed to create test request: %v", err)
	}
	return req
}

// CreateQuote inserts a quote in the given status.
func CreateQuote(t *testing.T, db *gorm.DB, requestID, reviewerID uint, status models.QuoteStatus) *models.Quote {
	t.Helper()

	quote := &models.Quote{
		RequestID:      requestID,
		ReviewerID:     reviewerID,
		Price:          120,
		TurnaroundDays: 3,
		Note:           fake.Lorem().Sentence(8),
		Status:         status,
	}
	if err := db.Create(quote).Error; err != nil {
		t.Fatalf("failed to create test quote: %v", err)
	}
	return quote
}
