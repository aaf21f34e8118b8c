package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vitalia-health/vitalia-ai-go/internal/cache"
	"github.com/vitalia-health/vitalia-ai-go/internal/database"
	"github.com/vitalia-health/vitalia-ai-go/internal/models"
)

// MoodHandler ingests the self-reported mood observations the gut-brain
// correlator later consumes.
type MoodHandler struct {
	repo   *database.HistoryRepository
	cache  *cache.CorrelationCache
	logger *logrus.Logger
}

// NewMoodHandler creates a mood ingestion handler.
func NewMoodHandler(repo *database.HistoryRepository, resultCache *cache.CorrelationCache, logger *logrus.Logger) *MoodHandler {
	return &MoodHandler{
		repo:   repo,
		cache:  resultCache,
		logger: logger,
	}
}

type moodRequest struct {
	UserID            uuid.UUID `json:"user_id" binding:"required"`
	Date              time.Time `json:"date"`
	Mood              int       `json:"mood" binding:"required,min=1,max=10"`
	Stress            int       `json:"stress" binding:"required,min=1,max=10"`
	Anxiety           int       `json:"anxiety" binding:"required,min=1,max=10"`
	Energy            int       `json:"energy" binding:"required,min=1,max=10"`
	CognitiveFunction *int      `json:"cognitive_function,omitempty" binding:"omitempty,min=1,max=10"`
}

// LogMood stores one mood observation and invalidates the user's cached
// correlations.
func (h *MoodHandler) LogMood(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}

	observation := &models.MoodObservation{
		ID:                uuid.New(),
		UserID:            req.UserID,
		Date:              req.Date,
		Mood:              req.Mood,
		Stress:            req.Stress,
		Anxiety:           req.Anxiety,
		Energy:            req.Energy,
		CognitiveFunction: req.CognitiveFunction,
	}
	if err := h.repo.SaveMoodObservation(c.Request.Context(), observation); err != nil {
		h.logger.WithError(err).Error("Failed to persist mood observation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store mood observation"})
		return
	}
	h.cache.Invalidate(c.Request.Context(), req.UserID)

	c.JSON(http.StatusCreated, observation)
}
