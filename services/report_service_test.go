package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eteeap-portfolio-api/models"
)

func TestReportWithNoDataReturnsZeros(t *testing.T) {
	db := newTestDB(t)
	seedCriteria(t, db, "Relevance", 10)

	r, err := NewReportService(db).Build(context.Background())
	require.NoError(t, err)

	assert.Len(t, r.StatusCounts, len(models.AllPortfolioStatuses))
	for _, sc := range r.StatusCounts {
		assert.Zero(t, sc.Count, sc.Status)
	}
	assert.Zero(t, r.TotalPortfolios)
	assert.Zero(t, r.SubmittedEvaluations)
	assert.Zero(t, r.AveragePercentage)
	require.Len(t, r.Criteria, 1)
	assert.Zero(t, r.Criteria[0].AverageScore)
	assert.Zero(t, r.Criteria[0].Percentage)
	assert.Len(t, r.Recommendations, len(models.AllRecommendations))
	assert.Len(t, r.Monthly, reportMonths)
	assert.Empty(t, r.Workload)
}

func TestReportAggregatesSubmittedEvaluationsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	crit := seedCriteria(t, f.db, "Relevance", 10)

	_, a := f.underReview(t)
	_, err := f.evaluations.Submit(ctx, actorOf(f.evaluator), a.AssignmentID, EvaluationInput{
		Scores:          []ScoreInput{{CriteriaID: crit.CriteriaID, Score: 8}},
		OverallComments: strPtr("Good"),
		Recommendation:  recPtr(models.RecommendApprove),
	})
	require.NoError(t, err)

	// A second evaluator only saves a draft, which must not move the averages.
	second := seedUser(t, f.db, models.RoleEvaluator, "second@example.com")
	p2 := seedPortfolio(t, f.db, f.applicant.UserID, models.PortfolioSubmitted)
	a2, err := f.assignments.Assign(ctx, actorOf(f.admin), p2.PortfolioID, AssignInput{EvaluatorID: second.UserID})
	require.NoError(t, err)
	_, err = f.evaluations.SaveDraft(ctx, actorOf(second), a2.AssignmentID, EvaluationInput{
		Scores: []ScoreInput{{CriteriaID: crit.CriteriaID, Score: 2}},
	})
	require.NoError(t, err)
	seedPortfolio(t, f.db, f.applicant.UserID, models.PortfolioDraft)

	r, err := NewReportService(f.db).Build(ctx)
	require.NoError(t, err)

	counts := make(map[models.PortfolioStatus]int64)
	for _, sc := range r.StatusCounts {
		counts[sc.Status] = sc.Count
	}
	assert.EqualValues(t, 1, counts[models.PortfolioEvaluated])
	assert.EqualValues(t, 1, counts[models.PortfolioUnderReview])
	assert.EqualValues(t, 1, counts[models.PortfolioDraft])
	assert.EqualValues(t, 3, r.TotalPortfolios)
	assert.EqualValues(t, 2, r.SubmittedPortfolios)

	assert.EqualValues(t, 1, r.SubmittedEvaluations)
	assert.Equal(t, 80.0, r.AveragePercentage)
	require.Len(t, r.Criteria, 1)
	assert.Equal(t, 8.0, r.Criteria[0].AverageScore)
	assert.Equal(t, 80.0, r.Criteria[0].Percentage)
	assert.EqualValues(t, 1, r.Criteria[0].ScoreCount)

	recs := make(map[models.Recommendation]int64)
	for _, rc := range r.Recommendations {
		recs[rc.Recommendation] = rc.Count
	}
	assert.EqualValues(t, 1, recs[models.RecommendApprove])
	assert.Zero(t, recs[models.RecommendReject])

	require.Len(t, r.Workload, 2)
	byID := make(map[uint]EvaluatorWorkload)
	for _, w := range r.Workload {
		byID[w.EvaluatorID] = w
	}
	assert.EqualValues(t, 1, byID[f.evaluator.UserID].Completed)
	assert.Zero(t, byID[f.evaluator.UserID].Active)
	assert.EqualValues(t, 1, byID[second.UserID].Active)
}

func TestMonthlySubmissionsWindow(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, models.RoleApplicant, "applicant@example.com")
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.Local)

	stamp := func(status models.PortfolioStatus, at time.Time) {
		p := seedPortfolio(t, db, owner.UserID, status)
		require.NoError(t, db.Model(&p).Update("submitted_at", at).Error)
	}
	stamp(models.PortfolioSubmitted, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.Local))
	stamp(models.PortfolioApproved, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.Local))
	stamp(models.PortfolioEvaluated, time.Date(2025, time.October, 20, 9, 0, 0, 0, time.Local))
	stamp(models.PortfolioRejected, time.Date(2025, time.September, 30, 9, 0, 0, 0, time.Local))
	stamp(models.PortfolioDraft, time.Date(2026, time.February, 1, 9, 0, 0, 0, time.Local))

	svc := NewReportService(db)
	svc.now = func() time.Time { return now }
	r, err := svc.Build(context.Background())
	require.NoError(t, err)

	want := []MonthlyCount{
		{Month: "2025-10", Count: 1},
		{Month: "2025-11"},
		{Month: "2025-12"},
		{Month: "2026-01"},
		{Month: "2026-02"},
		{Month: "2026-03", Count: 2},
	}
	assert.Equal(t, want, r.Monthly)
}
