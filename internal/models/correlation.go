package models

import (
	"time"

	"github.com/google/uuid"
)

// Timeframe is the lookback window for gut-brain correlation analysis.
type Timeframe string

const (
	TimeframeWeek    Timeframe = "week"
	TimeframeMonth   Timeframe = "month"
	TimeframeQuarter Timeframe = "quarter"
)

// Days returns the lookback window length. Unknown timeframes default to a month.
func (t Timeframe) Days() int {
	switch t {
	case TimeframeWeek:
		return 7
	case TimeframeQuarter:
		return 90
	default:
		return 30
	}
}

// ConfidenceLevel grades a correlation by sample size and magnitude.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Correlation is one metric pair's Pearson coefficient with its confidence.
type Correlation struct {
	Coefficient float64         `json:"coefficient"`
	SampleSize  int             `json:"sample_size"`
	Confidence  ConfidenceLevel `json:"confidence"`
}

// MicrobiomeMoodCorrelation is the gut-brain axis analysis result: Pearson
// correlations between microbiome metrics and the mood time series, plus
// derived guidance. A derived value object with no persistence of its own.
type MicrobiomeMoodCorrelation struct {
	UserID        uuid.UUID `json:"user_id"`
	Timeframe     Timeframe `json:"timeframe"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
	PairedSamples int       `json:"paired_samples"`

	DiversityMood    Correlation `json:"diversity_mood"`
	DiversityStress  Correlation `json:"diversity_stress"`
	DiversityAnxiety Correlation `json:"diversity_anxiety"`
	InflammationMood Correlation `json:"inflammation_mood"`

	// Per-taxon correlations, keyed by beneficial taxon name.
	BacteriaMood map[string]Correlation `json:"bacteria_mood,omitempty"`

	// Smoothed mood series over the window, for charting callers.
	MoodTrend []float64 `json:"mood_trend,omitempty"`

	Recommendations []string `json:"recommendations"`
	RiskFactors     []string `json:"risk_factors"`
}

// AvailabilityTier grades estimated neurotransmitter precursor availability.
type AvailabilityTier string

const (
	AvailabilityHigh   AvailabilityTier = "high"
	AvailabilityMedium AvailabilityTier = "medium"
	AvailabilityLow    AvailabilityTier = "low"
)

// PrecursorAnalysis is a heuristic 0-100 scoring of how well the latest
// microbiome composition supports production of one neurotransmitter.
type PrecursorAnalysis struct {
	Neurotransmitter string           `json:"neurotransmitter"`
	PotentialScore   float64          `json:"potential_score"` // 0-100
	Availability     AvailabilityTier `json:"availability"`
	KeyBacteria      []string         `json:"key_bacteria"`
	Recommendations  []string         `json:"recommendations"`
}
