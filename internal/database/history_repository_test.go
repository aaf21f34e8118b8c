package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalia-health/vitalia-ai-go/internal/models"
)

var microbiomeColumns = []string{
	"id", "user_id", "source", "test_date",
	"shannon_diversity", "simpson_diversity", "species_richness",
	"firmicutes_percentage", "bacteroidetes_percentage", "actinobacteria_percentage",
	"proteobacteria_percentage", "verrucomicrobia_percentage", "other_percentage",
	"akkermansia_muciniphila", "bifidobacterium", "lactobacillus", "faecalibacterium",
	"inflammation_risk", "gut_permeability_risk", "digestion_score", "created_at",
}

func TestMicrobiomeResults(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	userID := uuid.New()
	resultID := uuid.New()
	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	testDate := from.AddDate(0, 0, 10)

	mockPool.ExpectQuery("SELECT (.+) FROM microbiome_results").
		WithArgs(userID, from, to).
		WillReturnRows(pgxmock.NewRows(microbiomeColumns).AddRow(
			resultID, userID, models.SourceViome, testDate,
			3.1, 0.9, 120,
			45.0, 40.0, 6.0,
			5.0, 2.0, 2.0,
			0.02, 0.05, 0.01, 0.08,
			3.0, 4.0, 78.0, testDate,
		))

	repo := NewHistoryRepositoryWithQuerier(mockPool)
	results, err := repo.MicrobiomeResults(context.Background(), userID, from, to)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, resultID, results[0].ID)
	assert.Equal(t, models.SourceViome, results[0].Source)
	assert.Equal(t, 3.1, results[0].ShannonDiversity)
	assert.Equal(t, 120, results[0].SpeciesRichness)
	assert.Equal(t, 0.02, results[0].AkkermansiaMuciniphila)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestMicrobiomeResults_QueryError(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectQuery("SELECT (.+) FROM microbiome_results").
		WillReturnError(errors.New("connection refused"))

	repo := NewHistoryRepositoryWithQuerier(mockPool)
	_, err = repo.MicrobiomeResults(context.Background(), uuid.New(), time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
}

func TestMoodObservations(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	userID := uuid.New()
	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)
	cognitive := 7

	mockPool.ExpectQuery("SELECT (.+) FROM mood_observations").
		WithArgs(userID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "date", "mood", "stress", "anxiety", "energy", "cognitive_function",
		}).
			AddRow(uuid.New(), userID, from.AddDate(0, 0, 1), 7, 3, 2, 8, &cognitive).
			AddRow(uuid.New(), userID, from.AddDate(0, 0, 2), 5, 6, 5, 4, (*int)(nil)))

	repo := NewHistoryRepositoryWithQuerier(mockPool)
	observations, err := repo.MoodObservations(context.Background(), userID, from, to)
	require.NoError(t, err)

	require.Len(t, observations, 2)
	assert.Equal(t, 7, observations[0].Mood)
	require.NotNil(t, observations[0].CognitiveFunction)
	assert.Equal(t, 7, *observations[0].CognitiveFunction)
	assert.Nil(t, observations[1].CognitiveFunction)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveMicrobiomeResult(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	result := &models.MicrobiomeResult{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Source:    models.SourceOmbre,
		TestDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Now().UTC(),
	}

	mockPool.ExpectExec("INSERT INTO microbiome_results").
		WithArgs(
			result.ID, result.UserID, result.Source, result.TestDate,
			result.ShannonDiversity, result.SimpsonDiversity, result.SpeciesRichness,
			result.FirmicutesPercentage, result.BacteroidetesPercentage, result.ActinobacteriaPercentage,
			result.ProteobacteriaPercentage, result.VerrucomicrobiaPercentage, result.OtherPercentage,
			result.AkkermansiaMuciniphila, result.Bifidobacterium, result.Lactobacillus, result.Faecalibacterium,
			result.InflammationRisk, result.GutPermeabilityRisk, result.DigestionScore, result.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewHistoryRepositoryWithQuerier(mockPool)
	require.NoError(t, repo.SaveMicrobiomeResult(context.Background(), result))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveMoodObservation(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	observation := &models.MoodObservation{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		Date:    time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
		Mood:    6,
		Stress:  4,
		Anxiety: 3,
		Energy:  7,
	}

	mockPool.ExpectExec("INSERT INTO mood_observations").
		WithArgs(
			observation.ID, observation.UserID, observation.Date,
			observation.Mood, observation.Stress, observation.Anxiety,
			observation.Energy, observation.CognitiveFunction,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewHistoryRepositoryWithQuerier(mockPool)
	require.NoError(t, repo.SaveMoodObservation(context.Background(), observation))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
