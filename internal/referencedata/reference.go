// Package referencedata holds the versioned population baseline tables the
// analytics services are standardized against: biomarker ranges, means and
// model weights, microbiome taxonomy buckets, and precursor rule tables.
// Defaults are embedded; deployments can override them with a JSON file so
// the baseline can be updated without redeploying logic.
package referencedata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vitalia-health/vitalia-ai-go/internal/models"

	_ "embed"
)

//go:embed defaults.json
var defaultsJSON []byte

// ModelParams are the fixed parameters of the hazard-to-age conversion.
// The exponent divisor and weight vector are simplified placeholders for a
// full Cox survival model and should be revalidated before clinical use.
type ModelParams struct {
	BaselineHazard       float64 `json:"baseline_hazard"`
	HazardMin            float64 `json:"hazard_min"`
	HazardMax            float64 `json:"hazard_max"`
	AgeExponentDivisor   float64 `json:"age_exponent_divisor"`
	CIndex               float64 `json:"c_index"`
	CIndexInterpretation string  `json:"c_index_interpretation"`
}

// PercentileBand maps a z-score upper bound to a population percentile.
type PercentileBand struct {
	ZMax       float64 `json:"z_max"`
	Percentile float64 `json:"percentile"`
}

// BiomarkerRef is the population baseline for one biomarker: physiological
// range, sex-specific mean, standard deviation, and hazard model weight.
// Negative weights mark protective markers where higher values lower risk.
type BiomarkerRef struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"display_name"`
	Unit        string  `json:"unit"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	MeanMale    float64 `json:"mean_male"`
	MeanFemale  float64 `json:"mean_female"`
	Std         float64 `json:"std"`
	Weight      float64 `json:"weight"`
}

// Mean returns the sex-specific population mean.
func (b BiomarkerRef) Mean(sex models.Sex) float64 {
	if sex == models.SexFemale {
		return b.MeanFemale
	}
	return b.MeanMale
}

// MarkerGuidance is the recommendation template attached to a high-risk marker.
type MarkerGuidance struct {
	Category      string `json:"category"`
	Action        string `json:"action"`
	Citation      string `json:"citation"`
	EvidenceLevel string `json:"evidence_level"`
}

// PathogenLevels are the abundance thresholds used to grade pathogens when a
// vendor does not report an explicit level.
type PathogenLevels struct {
	HighThreshold   float64 `json:"high_threshold"`
	MediumThreshold float64 `json:"medium_threshold"`
}

// PrecursorRule is one deterministic adjustment in a precursor rule table.
type PrecursorRule struct {
	Field     string  `json:"field"`
	Op        string  `json:"op"` // "gt" or "lt"
	Threshold float64 `json:"threshold"`
	Delta     float64 `json:"delta"`
	Note      string  `json:"note"`
}

// PrecursorRuleSet is the full rule table for one neurotransmitter.
type PrecursorRuleSet struct {
	Neurotransmitter string          `json:"neurotransmitter"`
	BaseScore        float64         `json:"base_score"`
	KeyBacteria      []string        `json:"key_bacteria"`
	Rules            []PrecursorRule `json:"rules"`
}

// ReferenceData is the complete versioned baseline table set injected into
// the analytics services at construction.
type ReferenceData struct {
	Version string `json:"version"`

	Model           ModelParams      `json:"model"`
	PercentileBands []PercentileBand `json:"percentile_bands"`
	PercentileTop   float64          `json:"percentile_top"`

	// Biomarkers are in decreasing importance order; the order is part of
	// the model definition, not cosmetic.
	Biomarkers      []BiomarkerRef            `json:"biomarkers"`
	MarkerGuidance  map[string]MarkerGuidance `json:"marker_guidance"`
	GenericGuidance MarkerGuidance            `json:"generic_guidance"`

	PhylumBuckets  []string            `json:"phylum_buckets"`
	BeneficialTaxa map[string][]string `json:"beneficial_taxa"`
	PathogenLevels PathogenLevels      `json:"pathogen_levels"`
	SCFAProducers  map[string][]string `json:"scfa_producers"`

	PrecursorRules []PrecursorRuleSet `json:"precursor_rules"`
}

// Biomarker looks up one biomarker's baseline by canonical key.
func (r *ReferenceData) Biomarker(key string) (BiomarkerRef, bool) {
	for _, b := range r.Biomarkers {
		if b.Key == key {
			return b, true
		}
	}
	return BiomarkerRef{}, false
}

// Precursor returns the rule table for a neurotransmitter.
func (r *ReferenceData) Precursor(neurotransmitter string) (PrecursorRuleSet, bool) {
	for _, p := range r.PrecursorRules {
		if p.Neurotransmitter == neurotransmitter {
			return p, true
		}
	}
	return PrecursorRuleSet{}, false
}

func (r *ReferenceData) validate() error {
	if r.Version == "" {
		return fmt.Errorf("reference data missing version")
	}
	if len(r.Biomarkers) == 0 {
		return fmt.Errorf("reference data has no biomarkers")
	}
	for _, b := range r.Biomarkers {
		if b.Std <= 0 {
			return fmt.Errorf("biomarker %s has non-positive std", b.Key)
		}
		if b.Min >= b.Max {
			return fmt.Errorf("biomarker %s has invalid range [%v, %v]", b.Key, b.Min, b.Max)
		}
	}
	if r.Model.HazardMin >= r.Model.HazardMax {
		return fmt.Errorf("invalid hazard clamp [%v, %v]", r.Model.HazardMin, r.Model.HazardMax)
	}
	if r.Model.AgeExponentDivisor <= 0 {
		return fmt.Errorf("age exponent divisor must be positive")
	}
	return nil
}

// Default returns the embedded baseline tables.
func Default() (*ReferenceData, error) {
	return parse(defaultsJSON)
}

// MustDefault returns the embedded baseline tables and panics when the
// embedded file is malformed, which is a build defect rather than a runtime
// condition.
func MustDefault() *ReferenceData {
	ref, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded reference data invalid: %v", err))
	}
	return ref
}

// LoadFile reads an override table set from disk, falling back on validation
// semantics identical to the embedded defaults.
func LoadFile(path string) (*ReferenceData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data %s: %w", path, err)
	}
	return parse(raw)
}

func parse(raw []byte) (*ReferenceData, error) {
	var ref ReferenceData
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}
	if err := ref.validate(); err != nil {
		return nil, err
	}
	return &ref, nil
}
