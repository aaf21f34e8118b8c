package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"github.com/vitalia-health/vitalia-ai-go/internal/models"
	"github.com/vitalia-health/vitalia-ai-go/internal/referencedata"
	"github.com/vitalia-health/vitalia-ai-go/internal/utils"
)

// MicrobiomeService normalizes heterogeneous lab-provider payloads into a
// canonical composition/diversity result with derived health-risk scores.
type MicrobiomeService struct {
	ref    *referencedata.ReferenceData
	logger *logrus.Logger
	tracer trace.Tracer
}

// NewMicrobiomeService creates a new microbiome analyzer bound to a
// reference data table set.
func NewMicrobiomeService(ref *referencedata.ReferenceData, logger *logrus.Logger) *MicrobiomeService {
	return &MicrobiomeService{
		ref:    ref,
		logger: logger,
		tracer: otel.Tracer("vitalia.services.microbiome"),
	}
}

// foldName case-folds a taxon name for comparison. A Caser is stateful and
// not goroutine-safe, so one is created per fold.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// ParseTestData dispatches the sample to the vendor's typed parser and runs
// the shared composition pipeline. Manual entries pass through with zero
// defaulting and no recomputation. An unrecognized source tag fails with
// UnsupportedSourceError.
func (s *MicrobiomeService) ParseTestData(ctx context.Context, sample models.MicrobiomeSample) (*models.MicrobiomeResult, error) {
	_, span := s.tracer.Start(ctx, "MicrobiomeService.ParseTestData")
	defer span.End()

	if sample.Source == models.SourceManual {
		return s.parseManual(sample)
	}

	parser, ok := parserFor(sample.Source)
	if !ok {
		return nil, utils.NewUnsupportedSourceError(string(sample.Source))
	}

	species := sample.Species
	var rawPathogens []rawPathogen
	if len(species) == 0 {
		var err error
		species, rawPathogens, err = parser.Parse(sample.RawPayload)
		if err != nil {
			return nil, fmt.Errorf("parsing %s sample: %w", sample.Source, err)
		}
	}

	result := s.compute(sample, species)
	for _, p := range rawPathogens {
		result.Pathogens = append(result.Pathogens, p.normalize(s.ref.PathogenLevels))
	}

	s.logger.WithFields(logrus.Fields{
		"source":   sample.Source,
		"species":  result.SpeciesRichness,
		"shannon":  result.ShannonDiversity,
		"user_id":  sample.UserID,
		"test_day": sample.TestDate.Format("2006-01-02"),
	}).Debug("Microbiome sample analyzed")

	return result, nil
}

func (s *MicrobiomeService) parseManual(sample models.MicrobiomeSample) (*models.MicrobiomeResult, error) {
	var entry manualEntry
	if len(sample.RawPayload) > 0 {
		if err := json.Unmarshal(sample.RawPayload, &entry); err != nil {
			return nil, fmt.Errorf("parsing manual entry: %w", err)
		}
	}
	return &models.MicrobiomeResult{
		ID:                        uuid.New(),
		UserID:                    sample.UserID,
		Source:                    models.SourceManual,
		TestDate:                  sample.TestDate,
		ShannonDiversity:          entry.ShannonDiversity,
		SimpsonDiversity:          entry.SimpsonDiversity,
		SpeciesRichness:           entry.SpeciesRichness,
		FirmicutesPercentage:      entry.FirmicutesPercentage,
		BacteroidetesPercentage:   entry.BacteroidetesPercentage,
		ActinobacteriaPercentage:  entry.ActinobacteriaPercentage,
		ProteobacteriaPercentage:  entry.ProteobacteriaPercentage,
		VerrucomicrobiaPercentage: entry.VerrucomicrobiaPercentage,
		OtherPercentage:           entry.OtherPercentage,
		AkkermansiaMuciniphila:    entry.AkkermansiaMuciniphila,
		Bifidobacterium:           entry.Bifidobacterium,
		Lactobacillus:             entry.Lactobacillus,
		Faecalibacterium:          entry.Faecalibacterium,
		InflammationRisk:          entry.InflammationRisk,
		GutPermeabilityRisk:       entry.GutPermeabilityRisk,
		DigestionScore:            entry.DigestionScore,
		Pathogens:                 entry.Pathogens,
		CreatedAt:                 time.Now().UTC(),
	}, nil
}

// compute runs the shared pipeline: diversity indices, phylum distribution,
// beneficial taxa extraction, and derived risk scores.
func (s *MicrobiomeService) compute(sample models.MicrobiomeSample, species []models.SpeciesAbundance) *models.MicrobiomeResult {
	result := &models.MicrobiomeResult{
		ID:        uuid.New(),
		UserID:    sample.UserID,
		Source:    sample.Source,
		TestDate:  sample.TestDate,
		CreatedAt: time.Now().UTC(),
	}

	total := 0.0
	for _, sp := range species {
		if sp.Abundance > 0 {
			total += sp.Abundance
		}
	}

	result.ShannonDiversity, result.SimpsonDiversity, result.SpeciesRichness = s.diversity(species, total)
	s.distributePhyla(result, species, total)
	s.extractBeneficial(result, species, total)
	s.scoreRisks(result)
	return result
}

// diversity computes Shannon, Simpson, and richness over normalized
// proportions. Empty or all-zero input yields zero indices, a degenerate
// but valid case.
func (s *MicrobiomeService) diversity(species []models.SpeciesAbundance, total float64) (shannon, simpson float64, richness int) {
	richness = len(species)
	if total <= 0 {
		return 0, 0, richness
	}
	sumSquares := 0.0
	for _, sp := range species {
		if sp.Abundance <= 0 {
			continue
		}
		p := sp.Abundance / total
		shannon -= p * math.Log(p)
		sumSquares += p * p
	}
	simpson = 1 - sumSquares
	return shannon, simpson, richness
}

// distributePhyla sums abundances into the six phylum buckets, expressed as
// percentages of total abundance. Unrecognized phyla fold into Other.
func (s *MicrobiomeService) distributePhyla(result *models.MicrobiomeResult, species []models.SpeciesAbundance, total float64) {
	if total <= 0 {
		return
	}
	sums := make(map[string]float64, len(s.ref.PhylumBuckets)+1)
	for _, sp := range species {
		if sp.Abundance <= 0 {
			continue
		}
		bucket := "Other"
		for _, known := range s.ref.PhylumBuckets {
			if strings.EqualFold(sp.Phylum, known) {
				bucket = known
				break
			}
		}
		sums[bucket] += sp.Abundance
	}
	pct := func(bucket string) float64 {
		return models.Round1(sums[bucket] / total * 100)
	}
	result.FirmicutesPercentage = pct("Firmicutes")
	result.BacteroidetesPercentage = pct("Bacteroidetes")
	result.ActinobacteriaPercentage = pct("Actinobacteria")
	result.ProteobacteriaPercentage = pct("Proteobacteria")
	result.VerrucomicrobiaPercentage = pct("Verrucomicrobia")
	result.OtherPercentage = pct("Other")
}

// extractBeneficial sums relative abundances of taxa whose names match the
// reference variant lists. Matching is case-folded substring comparison.
func (s *MicrobiomeService) extractBeneficial(result *models.MicrobiomeResult, species []models.SpeciesAbundance, total float64) {
	if total <= 0 {
		return
	}
	sums := make(map[string]float64, len(s.ref.BeneficialTaxa))
	for _, sp := range species {
		if sp.Abundance <= 0 {
			continue
		}
		folded := foldName(sp.Name)
		for canonical, variants := range s.ref.BeneficialTaxa {
			for _, variant := range variants {
				if strings.Contains(folded, foldName(variant)) {
					sums[canonical] += sp.Abundance / total
					break
				}
			}
		}
	}
	result.AkkermansiaMuciniphila = sums["akkermansia_muciniphila"]
	result.Bifidobacterium = sums["bifidobacterium"]
	result.Lactobacillus = sums["lactobacillus"]
	result.Faecalibacterium = sums["faecalibacterium"]
}

// scoreRisks derives the heuristic risk scores. These are directional
// indicators, not clinically validated measurements.
func (s *MicrobiomeService) scoreRisks(result *models.MicrobiomeResult) {
	proteoRatio := result.ProteobacteriaPercentage / 100
	beneficial := result.BeneficialRatio()

	result.InflammationRisk = models.Round1(clamp(5+3*(proteoRatio*10)-2*(beneficial*10), 0, 10))
	result.GutPermeabilityRisk = models.Round1(clamp(5-2*(result.AkkermansiaMuciniphila*10), 0, 10))
	result.DigestionScore = models.Round1(clamp(50+10*result.ShannonDiversity+2*(beneficial*100), 0, 100))
}

// ClassifySCFAProducers tags each species with the short-chain fatty acids
// its genus is known to produce. Species matching no genus list are omitted.
func (s *MicrobiomeService) ClassifySCFAProducers(species []models.SpeciesAbundance) []models.SCFAProducer {
	producers := make([]models.SCFAProducer, 0, len(species))
	for _, sp := range species {
		folded := foldName(sp.Name)
		var produces []models.SCFAType
		for _, scfa := range []models.SCFAType{models.SCFAButyrate, models.SCFAPropionate, models.SCFAAcetate} {
			for _, genus := range s.ref.SCFAProducers[string(scfa)] {
				if strings.Contains(folded, foldName(genus)) {
					produces = append(produces, scfa)
					break
				}
			}
		}
		if len(produces) > 0 {
			producers = append(producers, models.SCFAProducer{
				Species:   sp.Name,
				Abundance: sp.Abundance,
				Produces:  produces,
			})
		}
	}
	return producers
}
