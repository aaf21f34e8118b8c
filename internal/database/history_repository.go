package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vitalia-health/vitalia-ai-go/internal/models"
)

// HistoryQuerier defines the database operations the history repository
// needs; satisfied by *pgxpool.Pool and by pgxmock in tests.
type HistoryQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// HistoryRepository stores and loads the per-user analysis history the
// gut-brain correlator consumes: computed microbiome results and mood
// observations.
type HistoryRepository struct {
	db HistoryQuerier
}

// NewHistoryRepository creates a repository over a Postgres pool.
func NewHistoryRepository(db *PostgresDB) *HistoryRepository {
	return &HistoryRepository{db: db.Pool}
}

// NewHistoryRepositoryWithQuerier creates a repository with a custom querier (for tests).
func NewHistoryRepositoryWithQuerier(q HistoryQuerier) *HistoryRepository {
	return &HistoryRepository{db: q}
}

// MicrobiomeResults returns stored results for a user within [from, to],
// oldest first.
func (r *HistoryRepository) MicrobiomeResults(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MicrobiomeResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, source, test_date,
			shannon_diversity, simpson_diversity, species_richness,
			firmicutes_percentage, bacteroidetes_percentage, actinobacteria_percentage,
			proteobacteria_percentage, verrucomicrobia_percentage, other_percentage,
			akkermansia_muciniphila, bifidobacterium, lactobacillus, faecalibacterium,
			inflammation_risk, gut_permeability_risk, digestion_score, created_at
		FROM microbiome_results
		WHERE user_id = $1 AND test_date BETWEEN $2 AND $3
		ORDER BY test_date ASC`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying microbiome results: %w", err)
	}
	defer rows.Close()

	var results []models.MicrobiomeResult
	for rows.Next() {
		var m models.MicrobiomeResult
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.Source, &m.TestDate,
			&m.ShannonDiversity, &m.SimpsonDiversity, &m.SpeciesRichness,
			&m.FirmicutesPercentage, &m.BacteroidetesPercentage, &m.ActinobacteriaPercentage,
			&m.ProteobacteriaPercentage, &m.VerrucomicrobiaPercentage, &m.OtherPercentage,
			&m.AkkermansiaMuciniphila, &m.Bifidobacterium, &m.Lactobacillus, &m.Faecalibacterium,
			&m.InflammationRisk, &m.GutPermeabilityRisk, &m.DigestionScore, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning microbiome result: %w", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// MoodObservations returns mood log entries for a user within [from, to],
// oldest first.
func (r *HistoryRepository) MoodObservations(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MoodObservation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, date, mood, stress, anxiety, energy, cognitive_function
		FROM mood_observations
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying mood observations: %w", err)
	}
	defer rows.Close()

	var observations []models.MoodObservation
	for rows.Next() {
		var m models.MoodObservation
		if err := rows.Scan(&m.ID, &m.UserID, &m.Date, &m.Mood, &m.Stress, &m.Anxiety, &m.Energy, &m.CognitiveFunction); err != nil {
			return nil, fmt.Errorf("scanning mood observation: %w", err)
		}
		observations = append(observations, m)
	}
	return observations, rows.Err()
}

// SaveMicrobiomeResult persists a computed result for later correlation.
func (r *HistoryRepository) SaveMicrobiomeResult(ctx context.Context, m *models.MicrobiomeResult) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO microbiome_results (
			id, user_id, source, test_date,
			shannon_diversity, simpson_diversity, species_richness,
			firmicutes_percentage, bacteroidetes_percentage, actinobacteria_percentage,
			proteobacteria_percentage, verrucomicrobia_percentage, other_percentage,
			akkermansia_muciniphila, bifidobacterium, lactobacillus, faecalibacterium,
			inflammation_risk, gut_permeability_risk, digestion_score, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		m.ID, m.UserID, m.Source, m.TestDate,
		m.ShannonDiversity, m.SimpsonDiversity, m.SpeciesRichness,
		m.FirmicutesPercentage, m.BacteroidetesPercentage, m.ActinobacteriaPercentage,
		m.ProteobacteriaPercentage, m.VerrucomicrobiaPercentage, m.OtherPercentage,
		m.AkkermansiaMuciniphila, m.Bifidobacterium, m.Lactobacillus, m.Faecalibacterium,
		m.InflammationRisk, m.GutPermeabilityRisk, m.DigestionScore, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving microbiome result: %w", err)
	}
	return nil
}

// SaveMoodObservation persists one mood log entry.
func (r *HistoryRepository) SaveMoodObservation(ctx context.Context, m *models.MoodObservation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO mood_observations (id, user_id, date, mood, stress, anxiety, energy, cognitive_function)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.UserID, m.Date, m.Mood, m.Stress, m.Anxiety, m.Energy, m.CognitiveFunction,
	)
	if err != nil {
		return fmt.Errorf("saving mood observation: %w", err)
	}
	return nil
}
