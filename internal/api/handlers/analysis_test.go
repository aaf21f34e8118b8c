package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalia-health/vitalia-ai-go/internal/config"
	"github.com/vitalia-health/vitalia-ai-go/internal/models"
	"github.com/vitalia-health/vitalia-ai-go/internal/referencedata"
	"github.com/vitalia-health/vitalia-ai-go/internal/services"
)

type stubHistoryRepository struct {
	results []models.MicrobiomeResult
	moods   []models.MoodObservation
}

func (s *stubHistoryRepository) MicrobiomeResults(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MicrobiomeResult, error) {
	return s.results, nil
}

func (s *stubHistoryRepository) MoodObservations(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MoodObservation, error) {
	return s.moods, nil
}

func newTestRouter(t *testing.T, repo services.HistoryRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	ref := referencedata.MustDefault()
	analyticsCfg := config.AnalyticsConfig{PairingWindowDays: 7, BacteriaMinSamples: 4, MoodSmoothingWindow: 7}

	handler := NewAnalysisHandler(
		services.NewBioAgeService(ref, logger),
		services.NewMicrobiomeService(ref, logger),
		services.NewGutBrainService(repo, ref, analyticsCfg, logger),
		nil, // no persistence in handler tests
		nil, // cache disabled; nil-safe
		logger,
	)

	router := gin.New()
	v1 := router.Group("/api/v1/analysis")
	v1.POST("/biological-age", handler.CalculateBiologicalAge)
	v1.POST("/microbiome", handler.AnalyzeMicrobiome)
	v1.POST("/microbiome/scfa", handler.ClassifySCFAProducers)
	v1.GET("/gut-brain/:userId", handler.AnalyzeGutBrain)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCalculateBiologicalAgeEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubHistoryRepository{})

	body := `{
		"chronological_age": 40,
		"sex": "M",
		"biomarkers": {"glucose": 95, "cystatin_c": 0.9, "albumin": 4.2, "creatinine": 1.0}
	}`
	w := doJSON(t, router, http.MethodPost, "/api/v1/analysis/biological-age", body)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.BiologicalAgeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.InDelta(t, 40.0, result.BiologicalAge, 0.2)
	assert.Len(t, result.RiskFactors, 4)
}

func TestCalculateBiologicalAgeEndpoint_ValidationFailure(t *testing.T) {
	router := newTestRouter(t, &stubHistoryRepository{})

	body := `{"chronological_age": 40, "sex": "M", "biomarkers": {"glucose": 1000}}`
	w := doJSON(t, router, http.MethodPost, "/api/v1/analysis/biological-age", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "outside physiological range")
}

func TestCalculateBiologicalAgeEndpoint_MalformedBody(t *testing.T) {
	router := newTestRouter(t, &stubHistoryRepository{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/analysis/biological-age", `{"chronological_age":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeMicrobiomeEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubHistoryRepository{})

	body := `{
		"user_id": "` + uuid.NewString() + `",
		"source": "viome",
		"test_date": "2025-08-01T00:00:00Z",
		"raw_payload": {
			"taxa": [
				{"taxon_name": "Akkermansia muciniphila", "relative_abundance": 0.05, "phylum": "Verrucomicrobia"},
				{"taxon_name": "Bacteroides vulgatus", "relative_abundance": 0.95, "phylum": "Bacteroidetes"}
			]
		}
	}`
	w := doJSON(t, router, http.MethodPost, "/api/v1/analysis/microbiome", body)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.MicrobiomeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.SpeciesRichness)
	assert.InDelta(t, 0.05, result.AkkermansiaMuciniphila, 1e-9)
}

func TestAnalyzeMicrobiomeEndpoint_UnsupportedSource(t *testing.T) {
	router := newTestRouter(t, &stubHistoryRepository{})

	body := `{"user_id": "` + uuid.NewString() + `", "source": "ubiome", "raw_payload": {}}`
	w := doJSON(t, router, http.MethodPost, "/api/v1/analysis/microbiome", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported microbiome test source")
}

func TestAnalyzeMicrobiomeEndpoint_MissingUser(t *testing.T) {
	router := newTestRouter(t, &stubHistoryRepository{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/analysis/microbiome", `{"source": "viome"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassifySCFAProducersEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubHistoryRepository{})

	body := `{"species": [
		{"name": "Faecalibacterium prausnitzii", "abundance": 0.2},
		{"name": "Escherichia coli", "abundance": 0.1}
	]}`
	w := doJSON(t, router, http.MethodPost, "/api/v1/analysis/microbiome/scfa", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp scfaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Producers, 1)
	assert.Equal(t, "Faecalibacterium prausnitzii", resp.Producers[0].Species)
}

func TestAnalyzeGutBrainEndpoint(t *testing.T) {
	userID := uuid.New()
	day := time.Now().UTC().AddDate(0, 0, -10)
	repo := &stubHistoryRepository{
		results: []models.MicrobiomeResult{
			{ID: uuid.New(), UserID: userID, TestDate: day, ShannonDiversity: 2.0},
			{ID: uuid.New(), UserID: userID, TestDate: day.AddDate(0, 0, 3), ShannonDiversity: 2.6, Bifidobacterium: 0.04},
		},
		moods: []models.MoodObservation{
			{ID: uuid.New(), UserID: userID, Date: day, Mood: 4, Stress: 6, Anxiety: 5},
			{ID: uuid.New(), UserID: userID, Date: day.AddDate(0, 0, 3), Mood: 7, Stress: 3, Anxiety: 3},
		},
	}
	router := newTestRouter(t, repo)

	w := doJSON(t, router, http.MethodGet, "/api/v1/analysis/gut-brain/"+userID.String()+"?timeframe=month", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp gutBrainResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Correlation)
	assert.Equal(t, 2, resp.Correlation.PairedSamples)
	assert.False(t, resp.Cached)
	// Precursor analyses only appear when the handler can load history, and
	// the handler repo is nil here.
	assert.Nil(t, resp.Serotonin)
}

func TestAnalyzeGutBrainEndpoint_InvalidInputs(t *testing.T) {
	router := newTestRouter(t, &stubHistoryRepository{})

	w := doJSON(t, router, http.MethodGet, "/api/v1/analysis/gut-brain/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/analysis/gut-brain/"+uuid.NewString()+"?timeframe=decade", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
