package models

import "time"

// Alert severities. Mapped onto log levels when alerts are emitted.
const (
	AlertLevelWarning  = "warning"
	AlertLevelCritical = "critical"
)

// Alert kinds raised by the monitor.
const (
	AlertLowMatchRate   = "low_match_rate"
	AlertLowAvgScore    = "low_avg_score"
	AlertLowHighQuality = "low_high_quality_ratio"
	AlertDownwardTrend  = "downward_trend"
)

// HealthSnapshot is one monitor cycle's view of the store.
type HealthSnapshot struct {
	TotalJobs        int       `json:"total_jobs"`
	TotalMatches     int       `json:"total_matches"`
	MatchRate        float64   `json:"match_rate"`
	AvgScore         float64   `json:"avg_score"`
	HighQualityCount int       `json:"high_quality_count"`
	TakenAt          time.Time `json:"taken_at"`
}

// Alert is one raised condition with the observed value and its threshold.
type Alert struct {
	Level     string    `json:"level"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
}
