package main

import (
	"context"
	"fmt"

	"github.com/jaswdr/faker"
	"go.uber.org/zap"

	"code-review-market/models"
	"code-review-market/services"
)

const demoPassword = "demo-password"

// seedDemoData registers one builder and two reviewers and walks a handful of
// requests through different lifecycle stages. Running it twice is a no-op.
func seedDemoData(ctx context.Context, svc *services.Services, log *zap.Logger) error {
	fake := faker.New()

	builder, err := svc.Auth.Register(ctx, models.RegisterRequest{
		Email:    "builder@demo.local",
		FullName: fake.Person().Name(),
		Password: demoPassword,
		Role:     models.RoleBuilder,
	})
	if services.KindOf(err) == services.KindConflict {
		log.Info("demo data already present, skipping seed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("register demo builder: %w", err)
	}

	var reviewers []*models.User
	for i := 1; i <= 2; i++ {
		r, err := svc.Auth.Register(ctx, models.RegisterRequest{
			Email:    fmt.Sprintf("reviewer%d@demo.local", i),
			FullName: fake.Person().Name(),
			Password: demoPassword,
			Role:     models.RoleReviewer,
			Headline: fake.Lorem().Sentence(6),
		})
		if err != nil {
			return fmt.Errorf("register demo reviewer: %w", err)
		}
		reviewers = append(reviewers, r.User)
	}

	stacks := []string{"Go, Postgres", "TypeScript, React", "Python, Django", "Rust, Tokio"}
	var requests []*models.ReviewRequest
	for i, stack := range stacks {
		low := float64(fake.IntBetween(50, 150))
		req, err := svc.Requests.Create(ctx, builder.User, models.ReviewRequestCreate{
			Title:       fmt.Sprintf("Review of %s", fake.App().Name()),
			Description: fake.Lorem().Paragraph(2),
			RepoURL:     fmt.Sprintf("https://github.com/demo/project-%d", i+1),
			Stack:       stack,
			Concerns:    fake.Lorem().Sentence(10),
			Category:    "backend",
			BudgetMin:   low,
			BudgetMax:   low + 100,
		})
		if err != nil {
			return fmt.Errorf("create demo request: %w", err)
		}
		requests = append(requests, req)
	}

	// requests[0] stays posted; the rest collect quotes.
	for _, req := range requests[1:] {
		for _, r := range reviewers {
			if _, err := svc.Quotes.Submit(ctx, r, req.ID, models.QuoteCreate{
				Price:          req.BudgetMin + float64(fake.IntBetween(0, 100)),
				TurnaroundDays: fake.IntBetween(1, 7),
				Note:           fake.Lorem().Sentence(8),
			}); err != nil {
				return fmt.Errorf("submit demo quote: %w", err)
			}
		}
	}

	// requests[2] is paid and in review, requests[3] is completed.
	for _, req := range requests[2:] {
		quotes, err := svc.Quotes.ListForRequest(ctx, builder.User, req.ID)
		if err != nil {
			return err
		}
		if _, err := svc.Quotes.Accept(ctx, builder.User, req.ID, quotes[0].ID); err != nil {
			return fmt.Errorf("accept demo quote: %w", err)
		}
		if _, err := svc.Payments.Pay(ctx, builder.User, req.ID); err != nil {
			return fmt.Errorf("pay demo quote: %w", err)
		}
	}

	last := requests[3]
	review, err := svc.Reviews.ForRequest(ctx, builder.User, last.ID)
	if err != nil {
		return err
	}
	var assigned *models.User
	for _, r := range reviewers {
		if r.ID == review.ReviewerID {
			assigned = r
		}
	}
	score := func() *int { v := fake.IntBetween(6, 10); return &v }
	summary := fake.Lorem().Paragraph(1)
	if _, err := svc.Reviews.Submit(ctx, assigned, review.ID, models.ReviewUpdate{
		SecurityScore:        score(),
		ArchitectureScore:    score(),
		PerformanceScore:     score(),
		MaintainabilityScore: score(),
		Summary:              &summary,
	}); err != nil {
		return fmt.Errorf("submit demo review: %w", err)
	}
	if _, err := svc.Ratings.Rate(ctx, builder.User, review.ID, models.RatingCreate{
		Stars:   fake.IntBetween(4, 5),
		Comment: fake.Lorem().Sentence(8),
	}); err != nil {
		return fmt.Errorf("rate demo review: %w", err)
	}

	log.Info("seeded demo data",
		zap.Int("requests", len(requests)),
		zap.Int("reviewers", len(reviewers)),
	)
	return nil
}
