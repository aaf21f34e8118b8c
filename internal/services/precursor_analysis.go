package services

import (
	"fmt"
	"strings"

	"github.com/vitalia-health/vitalia-ai-go/internal/models"
)

// AnalyzeSerotoninPrecursors scores how well the latest microbiome
// composition supports serotonin precursor availability. Deterministic rule
// table, not a statistical fit; it reads a single result, not a series.
func (s *GutBrainService) AnalyzeSerotoninPrecursors(result *models.MicrobiomeResult) *models.PrecursorAnalysis {
	return s.analyzePrecursors("serotonin", result)
}

// AnalyzeDopaminePrecursors scores how well the latest microbiome
// composition supports dopamine precursor availability.
func (s *GutBrainService) AnalyzeDopaminePrecursors(result *models.MicrobiomeResult) *models.PrecursorAnalysis {
	return s.analyzePrecursors("dopamine", result)
}

func (s *GutBrainService) analyzePrecursors(neurotransmitter string, result *models.MicrobiomeResult) *models.PrecursorAnalysis {
	ruleSet, ok := s.ref.Precursor(neurotransmitter)
	if !ok {
		return &models.PrecursorAnalysis{
			Neurotransmitter: neurotransmitter,
			Availability:     models.AvailabilityLow,
			Recommendations:  []string{fmt.Sprintf("No rule table available for %s.", neurotransmitter)},
		}
	}

	score := ruleSet.BaseScore
	var recommendations []string
	for _, rule := range ruleSet.Rules {
		value, ok := precursorField(result, rule.Field)
		if !ok {
			continue
		}
		fired := false
		switch rule.Op {
		case "lt":
			fired = value < rule.Threshold
		default:
			fired = value > rule.Threshold
		}
		switch {
		case fired && rule.Delta < 0:
			score += rule.Delta
			recommendations = append(recommendations, "Address: "+rule.Note+".")
		case fired:
			score += rule.Delta
		case rule.Delta > 0 && isTaxonField(rule.Field):
			recommendations = append(recommendations, "Build up: "+rule.Note+".")
		}
	}
	score = clamp(score, 0, 100)

	return &models.PrecursorAnalysis{
		Neurotransmitter: neurotransmitter,
		PotentialScore:   models.Round1(score),
		Availability:     availabilityFor(score),
		KeyBacteria:      ruleSet.KeyBacteria,
		Recommendations:  recommendations,
	}
}

// precursorField maps a rule table field name onto the result metric it
// reads. Unknown fields are skipped rather than failing the analysis so a
// newer rule table stays compatible with an older binary.
func precursorField(result *models.MicrobiomeResult, field string) (float64, bool) {
	switch field {
	case "akkermansia_muciniphila":
		return result.AkkermansiaMuciniphila, true
	case "bifidobacterium":
		return result.Bifidobacterium, true
	case "lactobacillus":
		return result.Lactobacillus, true
	case "faecalibacterium":
		return result.Faecalibacterium, true
	case "shannon_diversity":
		return result.ShannonDiversity, true
	case "inflammation_risk":
		return result.InflammationRisk, true
	case "gut_permeability_risk":
		return result.GutPermeabilityRisk, true
	case "digestion_score":
		return result.DigestionScore, true
	default:
		return 0, false
	}
}

func isTaxonField(field string) bool {
	return !strings.HasSuffix(field, "_risk") && field != "shannon_diversity" && field != "digestion_score"
}

func availabilityFor(score float64) models.AvailabilityTier {
	switch {
	case score >= 70:
		return models.AvailabilityHigh
	case score >= 40:
		return models.AvailabilityMedium
	default:
		return models.AvailabilityLow
	}
}
