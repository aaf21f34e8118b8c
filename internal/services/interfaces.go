package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vitalia-health/vitalia-ai-go/internal/models"
)

// HistoryRepository is the lookup collaborator the gut-brain correlator
// depends on. The core is agnostic to the backing store; the Postgres
// implementation lives in internal/database.
type HistoryRepository interface {
	MicrobiomeResults(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MicrobiomeResult, error)
	MoodObservations(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MoodObservation, error)
}
