package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vitalia-health/vitalia-ai-go/internal/config"
	"github.com/vitalia-health/vitalia-ai-go/internal/models"
	"github.com/vitalia-health/vitalia-ai-go/internal/referencedata"
)

// insufficientDataGuidance is returned instead of an error when fewer than
// two paired data points exist in the window.
const insufficientDataGuidance = "Not enough paired microbiome and mood data in this window for correlation analysis. Log your mood regularly and add at least two microbiome tests to unlock gut-brain insights."

// GutBrainService statistically correlates microbiome metrics against a
// user's mood/stress time series. Data sparsity degrades the result rather
// than failing it: these analytics are advisory, and a low-confidence
// result is more useful to the caller than a hard error.
type GutBrainService struct {
	repo   HistoryRepository
	ref    *referencedata.ReferenceData
	cfg    config.AnalyticsConfig
	logger *logrus.Logger
	tracer trace.Tracer
}

// NewGutBrainService creates a new gut-brain axis correlator.
func NewGutBrainService(repo HistoryRepository, ref *referencedata.ReferenceData, cfg config.AnalyticsConfig, logger *logrus.Logger) *GutBrainService {
	return &GutBrainService{
		repo:   repo,
		ref:    ref,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("vitalia.services.gutbrain"),
	}
}

// pairedSample is one microbiome result matched to its nearest mood
// observation within the pairing window.
type pairedSample struct {
	result models.MicrobiomeResult
	mood   models.MoodObservation
}

// AnalyzeCorrelations gathers microbiome results and mood observations in
// the lookback window and computes Pearson correlations between them.
func (s *GutBrainService) AnalyzeCorrelations(ctx context.Context, userID uuid.UUID, timeframe models.Timeframe) (*models.MicrobiomeMoodCorrelation, error) {
	spanCtx, span := s.tracer.Start(ctx, "GutBrainService.AnalyzeCorrelations")
	defer span.End()

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -timeframe.Days())

	results, err := s.repo.MicrobiomeResults(spanCtx, userID, from, now)
	if err != nil {
		return nil, fmt.Errorf("loading microbiome history: %w", err)
	}
	moods, err := s.repo.MoodObservations(spanCtx, userID, from, now)
	if err != nil {
		return nil, fmt.Errorf("loading mood history: %w", err)
	}

	analysis := &models.MicrobiomeMoodCorrelation{
		UserID:     userID,
		Timeframe:  timeframe,
		AnalyzedAt: now,
	}

	pairs := s.pair(results, moods)
	analysis.PairedSamples = len(pairs)
	analysis.MoodTrend = smoothMoodSeries(moods, s.cfg.MoodSmoothingWindow)

	if len(pairs) < 2 {
		analysis.Recommendations = []string{insufficientDataGuidance}
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"pairs":   len(pairs),
		}).Info("Insufficient paired data for gut-brain correlation")
		return analysis, nil
	}

	diversity := make([]float64, len(pairs))
	inflammation := make([]float64, len(pairs))
	mood := make([]float64, len(pairs))
	stress := make([]float64, len(pairs))
	anxiety := make([]float64, len(pairs))
	for i, p := range pairs {
		diversity[i] = p.result.ShannonDiversity
		inflammation[i] = p.result.InflammationRisk
		mood[i] = float64(p.mood.Mood)
		stress[i] = float64(p.mood.Stress)
		anxiety[i] = float64(p.mood.Anxiety)
	}

	analysis.DiversityMood = s.correlate(diversity, mood)
	analysis.DiversityStress = s.correlate(diversity, stress)
	analysis.DiversityAnxiety = s.correlate(diversity, anxiety)
	analysis.InflammationMood = s.correlate(inflammation, mood)

	if len(pairs) >= s.cfg.BacteriaMinSamples {
		analysis.BacteriaMood = s.correlateBacteria(pairs, mood)
	}

	analysis.Recommendations, analysis.RiskFactors = s.interpret(analysis)

	s.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"pairs":          len(pairs),
		"diversity_mood": analysis.DiversityMood.Coefficient,
	}).Debug("Gut-brain correlation computed")

	return analysis, nil
}

// pair matches each microbiome result to its nearest mood observation by
// absolute date distance, discarding pairs farther apart than the pairing
// window so stale mood data is never correlated with a test.
func (s *GutBrainService) pair(results []models.MicrobiomeResult, moods []models.MoodObservation) []pairedSample {
	maxGap := time.Duration(s.cfg.PairingWindowDays) * 24 * time.Hour
	pairs := make([]pairedSample, 0, len(results))
	for _, r := range results {
		best := -1
		bestGap := maxGap
		for i, m := range moods {
			gap := r.TestDate.Sub(m.Date)
			if gap < 0 {
				gap = -gap
			}
			if gap <= bestGap {
				best = i
				bestGap = gap
			}
		}
		if best >= 0 {
			pairs = append(pairs, pairedSample{result: r, mood: moods[best]})
		}
	}
	return pairs
}

func (s *GutBrainService) correlate(x, y []float64) models.Correlation {
	r := pearsonCorrelation(x, y)
	return models.Correlation{
		Coefficient: models.Round2(r),
		SampleSize:  len(x),
		Confidence:  confidenceFor(len(x), r),
	}
}

// correlateBacteria computes per-taxon correlations against mood,
// independently per bacterium.
func (s *GutBrainService) correlateBacteria(pairs []pairedSample, mood []float64) map[string]models.Correlation {
	taxa := map[string]func(*models.MicrobiomeResult) float64{
		"akkermansia_muciniphila": func(r *models.MicrobiomeResult) float64 { return r.AkkermansiaMuciniphila },
		"bifidobacterium":         func(r *models.MicrobiomeResult) float64 { return r.Bifidobacterium },
		"lactobacillus":           func(r *models.MicrobiomeResult) float64 { return r.Lactobacillus },
		"faecalibacterium":        func(r *models.MicrobiomeResult) float64 { return r.Faecalibacterium },
	}
	out := make(map[string]models.Correlation, len(taxa))
	for name, extract := range taxa {
		series := make([]float64, len(pairs))
		for i := range pairs {
			series[i] = extract(&pairs[i].result)
		}
		out[name] = s.correlate(series, mood)
	}
	return out
}

// interpret applies the threshold-based textual rules to the computed
// correlations.
func (s *GutBrainService) interpret(a *models.MicrobiomeMoodCorrelation) (recommendations, riskFactors []string) {
	switch {
	case a.DiversityMood.Coefficient > 0.5:
		recommendations = append(recommendations, "Strong positive link between microbiome diversity and mood. Continue your current dietary pattern and fiber intake.")
	case a.DiversityMood.Coefficient < -0.3:
		recommendations = append(recommendations, "Mood tracks lower with reduced microbiome diversity. Increase dietary diversity: aim for 30+ different plant foods per week.")
	}

	if a.DiversityStress.Coefficient < -0.3 {
		recommendations = append(recommendations, "Higher stress coincides with lower diversity. Pair stress-management practice with prebiotic-rich meals.")
	}
	if a.DiversityAnxiety.Coefficient < -0.3 {
		recommendations = append(recommendations, "Anxiety appears linked to reduced diversity. Consider fermented foods and discuss probiotic options with your clinician.")
	}
	if a.InflammationMood.Coefficient < -0.3 {
		recommendations = append(recommendations, "Mood dips align with higher gut inflammation markers. Emphasize anti-inflammatory foods such as oily fish, leafy greens, and berries.")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "No strong gut-brain correlations detected in this window. Keep logging mood alongside microbiome tests to improve signal.")
	}

	if a.DiversityMood.Coefficient < -0.5 {
		riskFactors = append(riskFactors, "Strong negative diversity-mood correlation")
	}
	if a.InflammationMood.Coefficient < -0.5 {
		riskFactors = append(riskFactors, "Strong negative inflammation-mood correlation")
	}
	return recommendations, riskFactors
}

// smoothMoodSeries computes a simple moving average over the mood series for
// charting callers. Short series shrink the window rather than emptying the
// output.
func smoothMoodSeries(moods []models.MoodObservation, window int) []float64 {
	if len(moods) == 0 {
		return nil
	}
	ordered := make([]models.MoodObservation, len(moods))
	copy(ordered, moods)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	series := make([]float64, len(ordered))
	for i, m := range ordered {
		series[i] = float64(m.Mood)
	}

	if window <= 0 {
		window = 7
	}
	if window > len(series) {
		window = len(series)
	}
	sma := trend.NewSmaWithPeriod[float64](window)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(series)))
}

// pearsonCorrelation is the standard product-moment formula, defined as 0
// when the denominator is 0 or fewer than 2 points are supplied.
func pearsonCorrelation(x, y []float64) float64 {
	n := len(x)
	if n < 2 || len(y) != n {
		return 0
	}
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	fn := float64(n)
	denominator := math.Sqrt((fn*sumX2 - sumX*sumX) * (fn*sumY2 - sumY*sumY))
	if denominator == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denominator
}

func confidenceFor(n int, r float64) models.ConfidenceLevel {
	abs := math.Abs(r)
	switch {
	case n >= 8 && abs >= 0.5:
		return models.ConfidenceHigh
	case n >= 4 && abs >= 0.3:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
