package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TestSource identifies the lab provider a microbiome sample came from.
type TestSource string

const (
	SourceViome      TestSource = "viome"
	SourceOmbre      TestSource = "ombre"
	SourceBiomesight TestSource = "biomesight"
	SourceTinyHealth TestSource = "tinyhealth"
	SourceManual     TestSource = "manual"
)

// SpeciesAbundance is a single taxon reading from a lab report. Abundances
// are non-negative and need not sum to 1; they are normalized by total
// abundance before any index is computed.
type SpeciesAbundance struct {
	Name      string  `json:"name"`
	Abundance float64 `json:"abundance"`
	Phylum    string  `json:"phylum,omitempty"`
}

// MicrobiomeSample is the raw input to the microbiome analyzer: an opaque
// per-vendor payload plus optionally a pre-parsed species list.
type MicrobiomeSample struct {
	UserID     uuid.UUID          `json:"user_id"`
	Source     TestSource         `json:"source"`
	SourceID   string             `json:"source_id,omitempty"`
	TestDate   time.Time          `json:"test_date"`
	RawPayload json.RawMessage    `json:"raw_payload,omitempty"`
	Species    []SpeciesAbundance `json:"species,omitempty"`
}

// PathogenLevel grades a detected pathogen's abundance.
type PathogenLevel string

const (
	PathogenLevelHigh   PathogenLevel = "high"
	PathogenLevelMedium PathogenLevel = "medium"
	PathogenLevelLow    PathogenLevel = "low"
)

// Pathogen is a reported potentially pathogenic taxon.
type Pathogen struct {
	Name     string        `json:"name"`
	Presence bool          `json:"presence"`
	Level    PathogenLevel `json:"level"`
}

// MicrobiomeResult is the canonical composition/diversity result computed
// once per sample ingestion. Persistence is owned by the caller; the
// correlator later consumes stored results as historical input.
type MicrobiomeResult struct {
	ID       uuid.UUID  `json:"id" db:"id"`
	UserID   uuid.UUID  `json:"user_id" db:"user_id"`
	Source   TestSource `json:"source" db:"source"`
	TestDate time.Time  `json:"test_date" db:"test_date"`

	ShannonDiversity float64 `json:"shannon_diversity" db:"shannon_diversity"`
	SimpsonDiversity float64 `json:"simpson_diversity" db:"simpson_diversity"`
	SpeciesRichness  int     `json:"species_richness" db:"species_richness"`

	// Phylum percentages sum to 100 (within rounding) for non-empty samples.
	FirmicutesPercentage      float64 `json:"firmicutes_percentage" db:"firmicutes_percentage"`
	BacteroidetesPercentage   float64 `json:"bacteroidetes_percentage" db:"bacteroidetes_percentage"`
	ActinobacteriaPercentage  float64 `json:"actinobacteria_percentage" db:"actinobacteria_percentage"`
	ProteobacteriaPercentage  float64 `json:"proteobacteria_percentage" db:"proteobacteria_percentage"`
	VerrucomicrobiaPercentage float64 `json:"verrucomicrobia_percentage" db:"verrucomicrobia_percentage"`
	OtherPercentage           float64 `json:"other_percentage" db:"other_percentage"`

	// Beneficial taxon relative abundances (fraction of total abundance).
	AkkermansiaMuciniphila float64 `json:"akkermansia_muciniphila" db:"akkermansia_muciniphila"`
	Bifidobacterium        float64 `json:"bifidobacterium" db:"bifidobacterium"`
	Lactobacillus          float64 `json:"lactobacillus" db:"lactobacillus"`
	Faecalibacterium       float64 `json:"faecalibacterium" db:"faecalibacterium"`

	Pathogens []Pathogen `json:"pathogens,omitempty" db:"-"`

	InflammationRisk    float64 `json:"inflammation_risk" db:"inflammation_risk"`         // 0-10
	GutPermeabilityRisk float64 `json:"gut_permeability_risk" db:"gut_permeability_risk"` // 0-10
	DigestionScore      float64 `json:"digestion_score" db:"digestion_score"`             // 0-100

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BeneficialRatio is the summed relative abundance of tracked beneficial taxa.
func (r *MicrobiomeResult) BeneficialRatio() float64 {
	return r.AkkermansiaMuciniphila + r.Bifidobacterium + r.Lactobacillus + r.Faecalibacterium
}

// SCFAType names a short-chain fatty acid production pathway.
type SCFAType string

const (
	SCFAButyrate   SCFAType = "butyrate"
	SCFAPropionate SCFAType = "propionate"
	SCFAAcetate    SCFAType = "acetate"
)

// SCFAProducer tags one species with the short-chain fatty acids its genus
// is known to produce.
type SCFAProducer struct {
	Species   string     `json:"species"`
	Abundance float64    `json:"abundance"`
	Produces  []SCFAType `json:"produces"`
}
