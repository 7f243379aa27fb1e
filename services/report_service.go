package services

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
)

// reportMonths is the length of the trailing submission window.
const reportMonths = 6

type StatusCount struct {
	Status models.PortfolioStatus `json:"status"`
	Label  string                 `json:"label"`
	Count  int64                  `json:"count"`
}

type EvaluatorWorkload struct {
	EvaluatorID uint   `json:"evaluator_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Active      int64  `json:"active"`
	Completed   int64  `json:"completed"`
	Total       int64  `json:"total"`
}

type CriterionAverage struct {
	CriteriaID   uint    `json:"criteria_id"`
	Name         string  `json:"name"`
	MaxScore     int     `json:"max_score"`
	IsActive     bool    `json:"is_active"`
	ScoreCount   int64   `json:"score_count"`
	AverageScore float64 `json:"average_score"`
	Percentage   float64 `json:"percentage"`
}

type RecommendationCount struct {
	Recommendation models.Recommendation `json:"recommendation"`
	Count          int64                 `json:"count"`
}

type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// Report is the admin dashboard aggregate. Only submitted evaluations count.
type Report struct {
	StatusCounts         []StatusCount         `json:"status_counts"`
	TotalPortfolios      int64                 `json:"total_portfolios"`
	SubmittedPortfolios  int64                 `json:"submitted_portfolios"`
	SubmittedEvaluations int64                 `json:"submitted_evaluations"`
	AveragePercentage    float64               `json:"average_percentage"`
	Workload             []EvaluatorWorkload   `json:"evaluator_workload"`
	Criteria             []CriterionAverage    `json:"criteria_averages"`
	Recommendations      []RecommendationCount `json:"recommendations"`
	Monthly              []MonthlyCount        `json:"monthly_submissions"`
	GeneratedAt          time.Time             `json:"generated_at"`
}

type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	if db == nil {
		db = config.DB
	}
	return &ReportService{db: db, now: time.Now}
}

// Build computes every report section.
func (s *ReportService) Build(ctx context.Context) (*Report, error) {
	db := s.db.WithContext(ctx)
	r := &Report{GeneratedAt: s.now()}

	var err error
	if r.StatusCounts, r.TotalPortfolios, r.SubmittedPortfolios, err = statusCounts(db); err != nil {
		return nil, err
	}
	if r.Workload, err = evaluatorWorkload(db); err != nil {
		return nil, err
	}
	if r.Criteria, err = criterionAverages(db); err != nil {
		return nil, err
	}
	if r.Recommendations, r.SubmittedEvaluations, err = recommendationCounts(db); err != nil {
		return nil, err
	}
	if r.AveragePercentage, err = averagePercentage(db); err != nil {
		return nil, err
	}
	if r.Monthly, err = monthlySubmissions(db, r.GeneratedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func statusCounts(db *gorm.DB) ([]StatusCount, int64, int64, error) {
	var rows []struct {
		Status models.PortfolioStatus
		N      int64
	}
	if err := db.Model(&models.Portfolio{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, 0, 0, errors.Wrap(err, "count portfolios by status")
	}
	byStatus := make(map[models.PortfolioStatus]int64, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row.N
	}

	var total, submitted int64
	out := make([]StatusCount, 0, len(models.AllPortfolioStatuses))
	for _, st := range models.AllPortfolioStatuses {
		n := byStatus[st]
		total += n
		if st != models.PortfolioDraft {
			submitted += n
		}
		out = append(out, StatusCount{Status: st, Label: st.Label(), Count: n})
	}
	return out, total, submitted, nil
}

func evaluatorWorkload(db *gorm.DB) ([]EvaluatorWorkload, error) {
	var evaluators []models.User
	if err := db.Where("role = ?", models.RoleEvaluator).Order("name ASC, user_id ASC").Find(&evaluators).Error; err != nil {
		return nil, errors.Wrap(err, "load evaluators")
	}
	var rows []struct {
		EvaluatorID uint
		Status      models.AssignmentStatus
		N           int64
	}
	if err := db.Model(&models.PortfolioAssignment{}).
		Select("evaluator_id, status, COUNT(*) AS n").
		Group("evaluator_id, status").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "count assignments")
	}

	out := make([]EvaluatorWorkload, len(evaluators))
	index := make(map[uint]int, len(evaluators))
	for i, u := range evaluators {
		out[i] = EvaluatorWorkload{EvaluatorID: u.UserID, Name: u.Name, Email: u.Email}
		index[u.UserID] = i
	}
	for _, row := range rows {
		i, ok := index[row.EvaluatorID]
		if !ok {
			continue
		}
		if row.Status.IsActive() {
			out[i].Active += row.N
		} else {
			out[i].Completed += row.N
		}
		out[i].Total += row.N
	}
	return out, nil
}

func criterionAverages(db *gorm.DB) ([]CriterionAverage, error) {
	var criteria []models.RubricCriteria
	if err := db.Order("sort_order ASC, criteria_id ASC").Find(&criteria).Error; err != nil {
		return nil, errors.Wrap(err, "load rubric")
	}
	var rows []struct {
		RubricCriteriaID uint
		Average          float64
		N                int64
	}
	if err := db.Model(&models.EvaluationScore{}).
		Select("evaluation_scores.rubric_criteria_id, AVG(evaluation_scores.score) AS average, COUNT(*) AS n").
		Joins("JOIN evaluations ON evaluations.evaluation_id = evaluation_scores.evaluation_id").
		Where("evaluations.status = ?", models.EvaluationSubmitted).
		Group("evaluation_scores.rubric_criteria_id").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "average scores")
	}
	type agg struct {
		avg float64
		n   int64
	}
	byCriteria := make(map[uint]agg, len(rows))
	for _, row := range rows {
		byCriteria[row.RubricCriteriaID] = agg{avg: row.Average, n: row.N}
	}

	out := make([]CriterionAverage, 0, len(criteria))
	for _, c := range criteria {
		a := byCriteria[c.CriteriaID]
		avg := round2(a.avg)
		out = append(out, CriterionAverage{
			CriteriaID:   c.CriteriaID,
			Name:         c.Name,
			MaxScore:     c.MaxScore,
			IsActive:     c.IsActive,
			ScoreCount:   a.n,
			AverageScore: avg,
			Percentage:   models.ScorePercentage(a.avg, float64(c.MaxScore)),
		})
	}
	return out, nil
}

func recommendationCounts(db *gorm.DB) ([]RecommendationCount, int64, error) {
	var rows []struct {
		Recommendation models.Recommendation
		N              int64
	}
	if err := db.Model(&models.Evaluation{}).
		Select("recommendation, COUNT(*) AS n").
		Where("status = ? AND recommendation IS NOT NULL", models.EvaluationSubmitted).
		Group("recommendation").
		Scan(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count recommendations")
	}
	byRec := make(map[models.Recommendation]int64, len(rows))
	for _, row := range rows {
		byRec[row.Recommendation] = row.N
	}

	var submitted int64
	if err := db.Model(&models.Evaluation{}).Where("status = ?", models.EvaluationSubmitted).Count(&submitted).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count evaluations")
	}

	out := make([]RecommendationCount, 0, len(models.AllRecommendations))
	for _, rec := range models.AllRecommendations {
		out = append(out, RecommendationCount{Recommendation: rec, Count: byRec[rec]})
	}
	return out, submitted, nil
}

// averagePercentage is the overall score share across submitted evaluations.
func averagePercentage(db *gorm.DB) (float64, error) {
	var sums struct {
		Total    float64
		MaxScore float64
	}
	if err := db.Model(&models.Evaluation{}).
		Select("COALESCE(SUM(total_score), 0) AS total, COALESCE(SUM(max_possible_score), 0) AS max_score").
		Where("status = ?", models.EvaluationSubmitted).
		Scan(&sums).Error; err != nil {
		return 0, errors.Wrap(err, "sum evaluation scores")
	}
	return models.ScorePercentage(sums.Total, sums.MaxScore), nil
}

// monthlySubmissions buckets non-draft submissions into the trailing months
// ending with the month of now, oldest first.
func monthlySubmissions(db *gorm.DB, now time.Time) ([]MonthlyCount, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(reportMonths - 1), 0)

	var stamps []time.Time
	if err := db.Model(&models.Portfolio{}).
		Where("submitted_at IS NOT NULL AND submitted_at >= ? AND status <> ?", start, models.PortfolioDraft).
		Pluck("submitted_at", &stamps).Error; err != nil {
		return nil, errors.Wrap(err, "load submissions")
	}

	out := make([]MonthlyCount, reportMonths)
	index := make(map[string]int, reportMonths)
	for i := 0; i < reportMonths; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		out[i] = MonthlyCount{Month: key}
		index[key] = i
	}
	for _, t := range stamps {
		if i, ok := index[t.In(now.Location()).Format("2006-01")]; ok {
			out[i].Count++
		}
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
