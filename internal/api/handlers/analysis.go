package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vitalia-health/vitalia-ai-go/internal/cache"
	"github.com/vitalia-health/vitalia-ai-go/internal/database"
	"github.com/vitalia-health/vitalia-ai-go/internal/models"
	"github.com/vitalia-health/vitalia-ai-go/internal/services"
	"github.com/vitalia-health/vitalia-ai-go/internal/utils"
)

// AnalysisHandler exposes the biological age, microbiome, and gut-brain
// analyses over HTTP.
type AnalysisHandler struct {
	bioAge     *services.BioAgeService
	microbiome *services.MicrobiomeService
	gutBrain   *services.GutBrainService
	repo       *database.HistoryRepository
	cache      *cache.CorrelationCache
	logger     *logrus.Logger
}

// NewAnalysisHandler wires the analysis services into an HTTP handler.
func NewAnalysisHandler(bioAge *services.BioAgeService, microbiome *services.MicrobiomeService, gutBrain *services.GutBrainService, repo *database.HistoryRepository, resultCache *cache.CorrelationCache, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		bioAge:     bioAge,
		microbiome: microbiome,
		gutBrain:   gutBrain,
		repo:       repo,
		cache:      resultCache,
		logger:     logger,
	}
}

type biologicalAgeRequest struct {
	ChronologicalAge float64                      `json:"chronological_age" binding:"required"`
	Sex              models.Sex                   `json:"sex" binding:"required"`
	Biomarkers       models.BiomarkerPanel        `json:"biomarkers"`
	PriorResults     []models.BiologicalAgeResult `json:"prior_results,omitempty"`
}

// CalculateBiologicalAge runs the hazard-ratio model on a biomarker panel.
func (h *AnalysisHandler) CalculateBiologicalAge(c *gin.Context) {
	var req biologicalAgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.bioAge.CalculateWithHistory(c.Request.Context(), req.Biomarkers, req.ChronologicalAge, req.Sex, req.PriorResults)
	if err != nil {
		var validationErr *utils.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
			return
		}
		h.logger.WithError(err).Error("Biological age calculation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate biological age"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// AnalyzeMicrobiome parses a vendor test payload, computes the composition
// result, and persists it for later gut-brain correlation.
func (h *AnalysisHandler) AnalyzeMicrobiome(c *gin.Context) {
	var sample models.MicrobiomeSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if sample.UserID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if sample.TestDate.IsZero() {
		sample.TestDate = time.Now().UTC()
	}

	result, err := h.microbiome.ParseTestData(c.Request.Context(), sample)
	if err != nil {
		var unsupportedErr *utils.UnsupportedSourceError
		var validationErr *utils.ValidationError
		switch {
		case errors.As(err, &unsupportedErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": unsupportedErr.Error()})
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
		default:
			h.logger.WithError(err).Error("Microbiome analysis failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze microbiome sample"})
		}
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveMicrobiomeResult(c.Request.Context(), result); err != nil {
			h.logger.WithError(err).Error("Failed to persist microbiome result")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store microbiome result"})
			return
		}
		// New data changes every cached correlation for this user.
		h.cache.Invalidate(c.Request.Context(), result.UserID)
	}

	c.JSON(http.StatusOK, result)
}

type scfaRequest struct {
	Species []models.SpeciesAbundance `json:"species" binding:"required"`
}

type scfaResponse struct {
	Producers []models.SCFAProducer `json:"producers"`
	Count     int                   `json:"count"`
}

// ClassifySCFAProducers tags species with the short-chain fatty acids their
// genus produces.
func (h *AnalysisHandler) ClassifySCFAProducers(c *gin.Context) {
	var req scfaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	producers := h.microbiome.ClassifySCFAProducers(req.Species)
	c.JSON(http.StatusOK, scfaResponse{Producers: producers, Count: len(producers)})
}

type gutBrainResponse struct {
	Correlation *models.MicrobiomeMoodCorrelation `json:"correlation"`
	Serotonin   *models.PrecursorAnalysis         `json:"serotonin,omitempty"`
	Dopamine    *models.PrecursorAnalysis         `json:"dopamine,omitempty"`
	Cached      bool                              `json:"cached"`
}

// AnalyzeGutBrain computes microbiome-mood correlations for a user over the
// requested timeframe. Correlation results are cached per user and timeframe;
// precursor analyses are recomputed from the latest result on every call.
func (h *AnalysisHandler) AnalyzeGutBrain(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	timeframe := models.Timeframe(c.DefaultQuery("timeframe", string(models.TimeframeMonth)))
	switch timeframe {
	case models.TimeframeWeek, models.TimeframeMonth, models.TimeframeQuarter:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe must be one of: week, month, quarter"})
		return
	}

	resp := gutBrainResponse{}
	if analysis, ok := h.cache.Get(c.Request.Context(), userID, timeframe); ok {
		resp.Correlation = analysis
		resp.Cached = true
	} else {
		analysis, err := h.gutBrain.AnalyzeCorrelations(c.Request.Context(), userID, timeframe)
		if err != nil {
			h.logger.WithError(err).Error("Gut-brain correlation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze gut-brain correlations"})
			return
		}
		h.cache.Set(c.Request.Context(), analysis)
		resp.Correlation = analysis
	}

	if latest := h.latestResult(c, userID, timeframe); latest != nil {
		resp.Serotonin = h.gutBrain.AnalyzeSerotoninPrecursors(latest)
		resp.Dopamine = h.gutBrain.AnalyzeDopaminePrecursors(latest)
	}

	c.JSON(http.StatusOK, resp)
}

// latestResult fetches the most recent microbiome result in the window, or
// nil when none exists. Failures here only suppress the precursor section.
func (h *AnalysisHandler) latestResult(c *gin.Context, userID uuid.UUID, timeframe models.Timeframe) *models.MicrobiomeResult {
	if h.repo == nil {
		return nil
	}
	now := time.Now().UTC()
	results, err := h.repo.MicrobiomeResults(c.Request.Context(), userID, now.AddDate(0, 0, -timeframe.Days()), now)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load microbiome history for precursor analysis")
		return nil
	}
	if len(results) == 0 {
		return nil
	}
	return &results[len(results)-1]
}
