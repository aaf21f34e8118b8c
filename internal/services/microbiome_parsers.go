package services

import (
	"encoding/json"
	"fmt"

	"github.com/vitalia-health/vitalia-ai-go/internal/models"
	"github.com/vitalia-health/vitalia-ai-go/internal/referencedata"
)

// sampleParser normalizes one vendor's raw payload into the shared species
// and pathogen representation. One typed implementation per supported lab
// provider; selection happens by source tag in the analyzer.
type sampleParser interface {
	Parse(raw json.RawMessage) ([]models.SpeciesAbundance, []rawPathogen, error)
}

// parserFor returns the parser registered for a source, or false for
// unrecognized vendors. The manual source has no parser; it is a
// pass-through handled directly by the analyzer.
func parserFor(source models.TestSource) (sampleParser, bool) {
	switch source {
	case models.SourceViome:
		return viomeParser{}, true
	case models.SourceOmbre:
		return ombreParser{}, true
	case models.SourceBiomesight:
		return biomesightParser{}, true
	case models.SourceTinyHealth:
		return tinyHealthParser{}, true
	default:
		return nil, false
	}
}

// viomeParser handles Viome exports, which nest taxa under "taxa" with
// relative abundances already expressed as fractions.
type viomeParser struct{}

type viomePayload struct {
	Taxa []struct {
		TaxonName         string  `json:"taxon_name"`
		RelativeAbundance float64 `json:"relative_abundance"`
		Phylum            string  `json:"phylum"`
	} `json:"taxa"`
	Pathogens []struct {
		Name     string  `json:"name"`
		Detected bool    `json:"detected"`
		Level    string  `json:"level"`
		Quantity float64 `json:"quantity"`
	} `json:"pathogens"`
}

func (viomeParser) Parse(raw json.RawMessage) ([]models.SpeciesAbundance, []rawPathogen, error) {
	var payload viomePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode viome payload: %w", err)
	}
	species := make([]models.SpeciesAbundance, 0, len(payload.Taxa))
	for _, t := range payload.Taxa {
		species = append(species, models.SpeciesAbundance{
			Name:      t.TaxonName,
			Abundance: t.RelativeAbundance,
			Phylum:    t.Phylum,
		})
	}
	pathogens := make([]rawPathogen, 0, len(payload.Pathogens))
	for _, p := range payload.Pathogens {
		pathogens = append(pathogens, rawPathogen{
			name:      p.Name,
			presence:  p.Detected,
			hasFlag:   true,
			level:     p.Level,
			abundance: p.Quantity,
		})
	}
	return species, pathogens, nil
}

// ombreParser handles Ombre (formerly Thryve) exports, which report
// percentages under "bacteria".
type ombreParser struct{}

type ombrePayload struct {
	Bacteria []struct {
		Name            string  `json:"name"`
		AbundancePct    float64 `json:"abundance_percent"`
		Phylum          string  `json:"phylum"`
		PotentialThreat bool    `json:"potential_threat"`
	} `json:"bacteria"`
}

func (ombreParser) Parse(raw json.RawMessage) ([]models.SpeciesAbundance, []rawPathogen, error) {
	var payload ombrePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode ombre payload: %w", err)
	}
	species := make([]models.SpeciesAbundance, 0, len(payload.Bacteria))
	var pathogens []rawPathogen
	for _, b := range payload.Bacteria {
		abundance := b.AbundancePct / 100
		species = append(species, models.SpeciesAbundance{
			Name:      b.Name,
			Abundance: abundance,
			Phylum:    b.Phylum,
		})
		if b.PotentialThreat {
			pathogens = append(pathogens, rawPathogen{
				name:      b.Name,
				abundance: abundance,
			})
		}
	}
	return species, pathogens, nil
}

// biomesightParser handles Biomesight exports, which use a flat "species"
// array and report pathogens with explicit levels.
type biomesightParser struct{}

type biomesightPayload struct {
	Species []struct {
		Species   string  `json:"species"`
		Abundance float64 `json:"abundance"`
		Phylum    string  `json:"phylum"`
	} `json:"species"`
	Pathogens []struct {
		Name      string  `json:"name"`
		Detected  bool    `json:"detected"`
		Level     string  `json:"level"`
		Abundance float64 `json:"abundance"`
	} `json:"pathogens"`
}

func (biomesightParser) Parse(raw json.RawMessage) ([]models.SpeciesAbundance, []rawPathogen, error) {
	var payload biomesightPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode biomesight payload: %w", err)
	}
	species := make([]models.SpeciesAbundance, 0, len(payload.Species))
	for _, s := range payload.Species {
		species = append(species, models.SpeciesAbundance{
			Name:      s.Species,
			Abundance: s.Abundance,
			Phylum:    s.Phylum,
		})
	}
	pathogens := make([]rawPathogen, 0, len(payload.Pathogens))
	for _, p := range payload.Pathogens {
		pathogens = append(pathogens, rawPathogen{
			name:      p.Name,
			presence:  p.Detected,
			hasFlag:   true,
			level:     p.Level,
			abundance: p.Abundance,
		})
	}
	return species, pathogens, nil
}

// tinyHealthParser handles Tiny Health exports, which nest taxonomy under
// each organism entry.
type tinyHealthParser struct{}

type tinyHealthPayload struct {
	Organisms []struct {
		Organism          string  `json:"organism"`
		RelativeAbundance float64 `json:"relative_abundance"`
		Taxonomy          struct {
			Phylum string `json:"phylum"`
		} `json:"taxonomy"`
		Pathogenic bool `json:"pathogenic"`
	} `json:"organisms"`
}

func (tinyHealthParser) Parse(raw json.RawMessage) ([]models.SpeciesAbundance, []rawPathogen, error) {
	var payload tinyHealthPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode tinyhealth payload: %w", err)
	}
	species := make([]models.SpeciesAbundance, 0, len(payload.Organisms))
	var pathogens []rawPathogen
	for _, o := range payload.Organisms {
		species = append(species, models.SpeciesAbundance{
			Name:      o.Organism,
			Abundance: o.RelativeAbundance,
			Phylum:    o.Taxonomy.Phylum,
		})
		if o.Pathogenic {
			pathogens = append(pathogens, rawPathogen{
				name:      o.Organism,
				abundance: o.RelativeAbundance,
			})
		}
	}
	return species, pathogens, nil
}

// manualEntry is the pass-through payload for manually entered results:
// pre-aggregated values are trusted as-is, with unset numeric fields
// defaulting to zero.
type manualEntry struct {
	ShannonDiversity          float64           `json:"shannon_diversity"`
	SimpsonDiversity          float64           `json:"simpson_diversity"`
	SpeciesRichness           int               `json:"species_richness"`
	FirmicutesPercentage      float64           `json:"firmicutes_percentage"`
	BacteroidetesPercentage   float64           `json:"bacteroidetes_percentage"`
	ActinobacteriaPercentage  float64           `json:"actinobacteria_percentage"`
	ProteobacteriaPercentage  float64           `json:"proteobacteria_percentage"`
	VerrucomicrobiaPercentage float64           `json:"verrucomicrobia_percentage"`
	OtherPercentage           float64           `json:"other_percentage"`
	AkkermansiaMuciniphila    float64           `json:"akkermansia_muciniphila"`
	Bifidobacterium           float64           `json:"bifidobacterium"`
	Lactobacillus             float64           `json:"lactobacillus"`
	Faecalibacterium          float64           `json:"faecalibacterium"`
	InflammationRisk          float64           `json:"inflammation_risk"`
	GutPermeabilityRisk       float64           `json:"gut_permeability_risk"`
	DigestionScore            float64           `json:"digestion_score"`
	Pathogens                 []models.Pathogen `json:"pathogens"`
}

// rawPathogen carries a vendor pathogen entry before level defaulting.
type rawPathogen struct {
	name      string
	presence  bool
	hasFlag   bool
	level     string
	abundance float64
}

// normalize applies the shared presence/level defaulting: presence falls
// back to abundance > 0 and missing levels are graded by the reference
// abundance thresholds.
func (p rawPathogen) normalize(levels referencedata.PathogenLevels) models.Pathogen {
	presence := p.presence
	if !p.hasFlag {
		presence = p.abundance > 0
	}
	level := models.PathogenLevel(p.level)
	switch level {
	case models.PathogenLevelHigh, models.PathogenLevelMedium, models.PathogenLevelLow:
	default:
		switch {
		case p.abundance > levels.HighThreshold:
			level = models.PathogenLevelHigh
		case p.abundance > levels.MediumThreshold:
			level = models.PathogenLevelMedium
		default:
			level = models.PathogenLevelLow
		}
	}
	return models.Pathogen{Name: p.name, Presence: presence, Level: level}
}
