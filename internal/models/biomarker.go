package models

import "time"

// Sex selects the sex-specific population baseline used during standardization.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// Canonical biomarker keys for BiomarkerPanel. Values are expected in the
// units listed in the reference data tables.
const (
	BiomarkerCystatinC           = "cystatin_c"
	BiomarkerRDW                 = "rdw"
	BiomarkerAlbumin             = "albumin"
	BiomarkerGlucose             = "glucose"
	BiomarkerCreatinine          = "creatinine"
	BiomarkerCRP                 = "crp"
	BiomarkerLymphocytePercent   = "lymphocyte_percent"
	BiomarkerMCV                 = "mcv"
	BiomarkerAlkalinePhosphatase = "alkaline_phosphatase"
	BiomarkerWBC                 = "wbc"
	BiomarkerHbA1c               = "hba1c"
	BiomarkerTotalCholesterol    = "total_cholesterol"
	BiomarkerHDL                 = "hdl"
	BiomarkerLDL                 = "ldl"
	BiomarkerTriglycerides       = "triglycerides"
	BiomarkerALT                 = "alt"
	BiomarkerAST                 = "ast"
	BiomarkerGGT                 = "ggt"
	BiomarkerBilirubin           = "bilirubin"
	BiomarkerHemoglobin          = "hemoglobin"
	BiomarkerPlatelets           = "platelets"
	BiomarkerSodium              = "sodium"
	BiomarkerPotassium           = "potassium"
	BiomarkerCalcium             = "calcium"
	BiomarkerBUN                 = "bun"
)

// BiomarkerPanel is a sparse mapping of canonical biomarker keys to measured
// values. Missing markers are imputed at the population median during
// standardization; present values must fall inside the physiological range
// declared in the reference data or the whole panel is rejected.
type BiomarkerPanel map[string]float64

// RiskTier classifies a biomarker's contribution to mortality risk.
type RiskTier string

const (
	RiskHigh     RiskTier = "HIGH"
	RiskModerate RiskTier = "MODERATE"
	RiskLow      RiskTier = "LOW"
)

// Trajectory describes the direction the user's biological aging is heading.
type Trajectory string

const (
	TrajectoryImproving Trajectory = "IMPROVING"
	TrajectoryStable    Trajectory = "STABLE"
	TrajectoryDeclining Trajectory = "DECLINING"
)

// RecommendationPriority orders recommendations by urgency.
type RecommendationPriority string

const (
	PriorityCritical RecommendationPriority = "CRITICAL"
	PriorityHigh     RecommendationPriority = "HIGH"
	PriorityModerate RecommendationPriority = "MODERATE"
)

// RiskFactor is one biomarker's population percentile and risk classification.
type RiskFactor struct {
	Biomarker  string   `json:"biomarker"`
	Value      float64  `json:"value"`
	Percentile float64  `json:"percentile"`
	Risk       RiskTier `json:"risk"`
}

// Recommendation is a single tiered lifestyle/clinical action with its
// supporting citation and evidence grade.
type Recommendation struct {
	Priority      RecommendationPriority `json:"priority"`
	Category      string                 `json:"category"`
	Action        string                 `json:"action"`
	Citation      string                 `json:"citation"`
	EvidenceLevel string                 `json:"evidence_level"` // A, B or C
}

// AgeRange is the presentation interval around the biological age estimate.
// The confidence label is a fixed display convention, not a derived interval.
type AgeRange struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Confidence string  `json:"confidence"`
}

// ModelConfidence reports the fixed concordance index of the underlying
// hazard model together with a plain-language interpretation.
type ModelConfidence struct {
	CIndex         float64 `json:"c_index"`
	Interpretation string  `json:"interpretation"`
}

// BiologicalAgeResult is the immutable output of the biological age
// estimator. It is created fresh per invocation and owned by the caller.
type BiologicalAgeResult struct {
	BiologicalAge     float64          `json:"biological_age"`
	ChronologicalAge  float64          `json:"chronological_age"`
	AgingAcceleration float64          `json:"aging_acceleration"`
	AgeRange          AgeRange         `json:"age_range"`
	ModelConfidence   ModelConfidence  `json:"model_confidence"`
	RiskFactors       []RiskFactor     `json:"risk_factors"`
	Recommendations   []Recommendation `json:"recommendations"`
	Trajectory        Trajectory       `json:"trajectory"`
	CalculatedAt      time.Time        `json:"calculated_at"`
}
