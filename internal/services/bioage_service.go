package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vitalia-health/vitalia-ai-go/internal/models"
	"github.com/vitalia-health/vitalia-ai-go/internal/referencedata"
	"github.com/vitalia-health/vitalia-ai-go/internal/utils"
)

// BioAgeService estimates biological age from a blood biomarker panel using
// a fixed mortality-hazard model standardized against population baselines.
type BioAgeService struct {
	ref    *referencedata.ReferenceData
	logger *logrus.Logger
	tracer trace.Tracer
}

// NewBioAgeService creates a new biological age estimator bound to a
// reference data table set.
func NewBioAgeService(ref *referencedata.ReferenceData, logger *logrus.Logger) *BioAgeService {
	return &BioAgeService{
		ref:    ref,
		logger: logger,
		tracer: otel.Tracer("vitalia.services.bioage"),
	}
}

// CalculateBiologicalAge converts a biomarker panel into a biological age
// estimate with risk factor breakdown and recommendations. Trajectory is
// classified from the single snapshot; see CalculateWithHistory for the
// trend-based variant.
func (s *BioAgeService) CalculateBiologicalAge(ctx context.Context, panel models.BiomarkerPanel, chronologicalAge float64, sex models.Sex) (*models.BiologicalAgeResult, error) {
	return s.CalculateWithHistory(ctx, panel, chronologicalAge, sex, nil)
}

// CalculateWithHistory is CalculateBiologicalAge with optional prior results.
// When at least one prior result is supplied the trajectory is derived from
// the aging-acceleration trend instead of the single-snapshot heuristic.
func (s *BioAgeService) CalculateWithHistory(ctx context.Context, panel models.BiomarkerPanel, chronologicalAge float64, sex models.Sex, prior []models.BiologicalAgeResult) (*models.BiologicalAgeResult, error) {
	_, span := s.tracer.Start(ctx, "BioAgeService.CalculateBiologicalAge")
	defer span.End()

	if err := s.validatePanel(panel, chronologicalAge, sex); err != nil {
		return nil, err
	}

	z := s.standardize(panel, sex)
	hazard := s.predictHazardRatio(z)

	biologicalAge := models.Round1(chronologicalAge * math.Pow(hazard, 1.0/s.ref.Model.AgeExponentDivisor))
	acceleration := biologicalAge - chronologicalAge

	riskFactors := s.rankRiskFactors(panel, z)
	trajectory := s.classifyTrajectory(riskFactors, acceleration, prior)
	recommendations := s.buildRecommendations(acceleration, riskFactors)

	s.logger.WithFields(logrus.Fields{
		"markers_supplied": len(panel),
		"hazard_ratio":     hazard,
		"biological_age":   biologicalAge,
		"trajectory":       trajectory,
	}).Debug("Biological age calculated")

	return &models.BiologicalAgeResult{
		BiologicalAge:     biologicalAge,
		ChronologicalAge:  chronologicalAge,
		AgingAcceleration: acceleration,
		AgeRange: models.AgeRange{
			Min:        models.Round1(biologicalAge - 5),
			Max:        models.Round1(biologicalAge + 5),
			Confidence: "95%",
		},
		ModelConfidence: models.ModelConfidence{
			CIndex:         s.ref.Model.CIndex,
			Interpretation: s.ref.Model.CIndexInterpretation,
		},
		RiskFactors:     riskFactors,
		Recommendations: recommendations,
		Trajectory:      trajectory,
		CalculatedAt:    time.Now().UTC(),
	}, nil
}

// validatePanel rejects unknown markers and values outside the declared
// physiological ranges. Out-of-range values are never clamped.
func (s *BioAgeService) validatePanel(panel models.BiomarkerPanel, chronologicalAge float64, sex models.Sex) error {
	if sex != models.SexMale && sex != models.SexFemale {
		return utils.NewValidationError(`sex must be "M" or "F"`)
	}
	if chronologicalAge <= 0 || chronologicalAge > 120 {
		return utils.NewValidationErrorf("chronological age %.1f outside supported range (0, 120]", chronologicalAge)
	}
	for key, value := range panel {
		ref, ok := s.ref.Biomarker(key)
		if !ok {
			return utils.NewValidationErrorf("unknown biomarker %q", key)
		}
		if value < ref.Min || value > ref.Max {
			return utils.NewValidationErrorf("%s value %.2f %s outside physiological range [%.2f, %.2f]",
				ref.DisplayName, value, ref.Unit, ref.Min, ref.Max)
		}
	}
	return nil
}

// standardize computes a z-score per reference biomarker. Missing markers
// impute to the standardized population median (z = 0), biasing the result
// toward the population baseline rather than toward zero risk.
func (s *BioAgeService) standardize(panel models.BiomarkerPanel, sex models.Sex) map[string]float64 {
	z := make(map[string]float64, len(s.ref.Biomarkers))
	for _, ref := range s.ref.Biomarkers {
		value, ok := panel[ref.Key]
		if !ok {
			z[ref.Key] = 0
			continue
		}
		z[ref.Key] = (value - ref.Mean(sex)) / ref.Std
	}
	return z
}

// predictHazardRatio is the weighted linear combination of standardized
// features, clamped to avoid implausible extrapolation.
func (s *BioAgeService) predictHazardRatio(z map[string]float64) float64 {
	hazard := s.ref.Model.BaselineHazard
	for _, ref := range s.ref.Biomarkers {
		hazard += ref.Weight * z[ref.Key]
	}
	return clamp(hazard, s.ref.Model.HazardMin, s.ref.Model.HazardMax)
}

// rankRiskFactors computes a population percentile and risk tier for every
// supplied biomarker, sorted descending by percentile. The z-score is
// direction-adjusted by the model weight's sign so that low values of
// protective markers rank as high risk.
func (s *BioAgeService) rankRiskFactors(panel models.BiomarkerPanel, z map[string]float64) []models.RiskFactor {
	factors := make([]models.RiskFactor, 0, len(panel))
	for _, ref := range s.ref.Biomarkers {
		value, ok := panel[ref.Key]
		if !ok {
			continue
		}
		adjusted := z[ref.Key]
		if ref.Weight < 0 {
			adjusted = -adjusted
		}
		percentile := s.percentile(adjusted)
		factors = append(factors, models.RiskFactor{
			Biomarker:  ref.Key,
			Value:      value,
			Percentile: percentile,
			Risk:       riskTier(percentile),
		})
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Percentile > factors[j].Percentile
	})
	return factors
}

func (s *BioAgeService) percentile(z float64) float64 {
	for _, band := range s.ref.PercentileBands {
		if z < band.ZMax {
			return band.Percentile
		}
	}
	return s.ref.PercentileTop
}

func riskTier(percentile float64) models.RiskTier {
	switch {
	case percentile > 75:
		return models.RiskHigh
	case percentile > 50:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// classifyTrajectory uses the aging-acceleration trend when prior results
// exist, otherwise falls back to the single-snapshot high-risk count.
func (s *BioAgeService) classifyTrajectory(factors []models.RiskFactor, acceleration float64, prior []models.BiologicalAgeResult) models.Trajectory {
	if len(prior) > 0 {
		latest := prior[len(prior)-1]
		switch {
		case acceleration < latest.AgingAcceleration-0.5:
			return models.TrajectoryImproving
		case acceleration > latest.AgingAcceleration+0.5:
			return models.TrajectoryDeclining
		default:
			return models.TrajectoryStable
		}
	}

	highCount := 0
	for _, f := range factors {
		if f.Risk == models.RiskHigh {
			highCount++
		}
	}
	switch {
	case highCount > 3:
		return models.TrajectoryDeclining
	case highCount > 1:
		return models.TrajectoryStable
	default:
		return models.TrajectoryImproving
	}
}

func (s *BioAgeService) buildRecommendations(acceleration float64, factors []models.RiskFactor) []models.Recommendation {
	recommendations := make([]models.Recommendation, 0, 5)

	switch {
	case acceleration > 5:
		recommendations = append(recommendations, models.Recommendation{
			Priority:      models.PriorityCritical,
			Category:      "general",
			Action:        "Biological age exceeds chronological age by more than 5 years. Schedule a comprehensive medical review and repeat the panel within 3 months.",
			Citation:      "Levine et al., Aging 2018: an epigenetic biomarker of aging for lifespan and healthspan",
			EvidenceLevel: "A",
		})
	case acceleration > 2:
		recommendations = append(recommendations, models.Recommendation{
			Priority:      models.PriorityHigh,
			Category:      "general",
			Action:        "Aging acceleration above 2 years. Prioritize sleep, regular aerobic exercise, and the marker-specific actions below.",
			Citation:      "Levine et al., Aging 2018: an epigenetic biomarker of aging for lifespan and healthspan",
			EvidenceLevel: "A",
		})
	}

	added := 0
	for _, f := range factors {
		if f.Risk != models.RiskHigh || added >= 3 {
			continue
		}
		guidance, ok := s.ref.MarkerGuidance[f.Biomarker]
		if !ok {
			guidance = s.ref.GenericGuidance
		}
		recommendations = append(recommendations, models.Recommendation{
			Priority:      models.PriorityHigh,
			Category:      guidance.Category,
			Action:        guidance.Action,
			Citation:      guidance.Citation,
			EvidenceLevel: guidance.EvidenceLevel,
		})
		added++
	}

	return recommendations
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
