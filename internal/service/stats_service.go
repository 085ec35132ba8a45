package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
)

const chartDays = 30

type StatsService struct {
	BusinessRepo repository.BusinessRepositoryInterface
	RequestRepo  repository.ReviewRequestRepositoryInterface
	ClickRepo    repository.ClickRepositoryInterface
	Now          func() time.Time
}

func (s *StatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Dashboard computes month-to-date counters and the 30-day outcome chart.
// Dates are bucketed in UTC.
func (s *StatsService) Dashboard(ctx context.Context, businessID uuid.UUID) (*model.DashboardStats, error) {
	b, err := s.BusinessRepo.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	chartStart := startOfDay(now).AddDate(0, 0, -(chartDays - 1))

	since := monthStart
	if chartStart.Before(since) {
		since = chartStart
	}
	requests, err := s.RequestRepo.ListCreatedSince(ctx, businessID, since)
	if err != nil {
		return nil, err
	}

	stats := &model.DashboardStats{
		SMSUsed:   b.MonthlySMSUsed,
		SMSLimit:  b.MonthlySMSLimit,
		ChartData: make([]model.DailyOutcome, chartDays),
	}

	index := make(map[string]int, chartDays)
	for i := 0; i < chartDays; i++ {
		day := chartStart.AddDate(0, 0, i).Format("2006-01-02")
		stats.ChartData[i] = model.DailyOutcome{Date: day}
		index[day] = i
	}

	var monthIDs []uuid.UUID
	for _, r := range requests {
		if !r.CreatedAt.Before(monthStart) {
			monthIDs = append(monthIDs, r.ID)
			switch r.Status {
			case model.StatusPending, model.StatusFailed:
			default:
				stats.TotalRequestsSent++
			}
			switch r.Status {
			case model.StatusClicked, model.StatusFeedback:
				stats.Clicked++
			case model.StatusReviewed:
				stats.Clicked++
				stats.GoogleReviewsObtained++
			}
		}

		switch r.Status {
		case model.StatusReviewed:
			if i, ok := index[outcomeDay(r.ReviewedAt, r.CreatedAt)]; ok {
				stats.ChartData[i].Reviews++
			}
		case model.StatusFeedback:
			if i, ok := index[outcomeDay(r.ClickedAt, r.CreatedAt)]; ok {
				stats.ChartData[i].Feedbacks++
			}
		}
	}

	if stats.TotalRequestsSent > 0 {
		stats.ClickRate = int(math.Round(float64(stats.Clicked) * 100 / float64(stats.TotalRequestsSent)))
	}

	if len(monthIDs) > 0 {
		clicks, err := s.ClickRepo.ListByRequests(ctx, monthIDs)
		if err != nil {
			return nil, err
		}
		if len(clicks) > 0 {
			sum := 0
			for _, c := range clicks {
				sum += c.SatisfactionScore
			}
			stats.AverageScore = math.Round(float64(sum)/float64(len(clicks))*10) / 10
		}
	}
	return stats, nil
}

func outcomeDay(at *time.Time, fallback time.Time) string {
	if at != nil {
		return at.UTC().Format("2006-01-02")
	}
	return fallback.UTC().Format("2006-01-02")
}
