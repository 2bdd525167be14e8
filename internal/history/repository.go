package history

import (
	"context"

	"github.com/mrcode/glucopredict/internal/models"
)

// Repository persists history and the user profile.
// Save methods receive the complete current collection.
type Repository interface {
	Load(ctx context.Context) (State, error)
	SaveReadings(ctx context.Context, readings []models.GlucoseReading) error
	SaveMeals(ctx context.Context, meals []models.MealRecord) error
	LoadProfile(ctx context.Context) (models.UserProfile, error)
	SaveProfile(ctx context.Context, profile models.UserProfile) error
}
