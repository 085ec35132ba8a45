// internal/model/stats.go
package model

// DailyOutcome is one bucket of the dashboard chart.
type DailyOutcome struct {
	Date      string `json:"date"`
	Reviews   int    `json:"reviews"`
	Feedbacks int    `json:"feedbacks"`
}

type DashboardStats struct {
	TotalRequestsSent     int            `json:"total_requests_sent"`
	Clicked               int            `json:"clicked"`
	ClickRate             int            `json:"click_rate"`
	GoogleReviewsObtained int            `json:"google_reviews_obtained"`
	AverageScore          float64        `json:"average_score"`
	SMSUsed               int            `json:"sms_used"`
	SMSLimit              int            `json:"sms_limit"`
	ChartData             []DailyOutcome `json:"chart_data"`
}
