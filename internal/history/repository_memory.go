package history

import (
	"context"
	"sync"

	"github.com/mrcode/glucopredict/internal/models"
)

// MemoryRepository keeps everything in process memory
type MemoryRepository struct {
	mu      sync.RWMutex
	state   State
	profile *models.UserProfile
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(_ context.Context) (State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return State{
		Readings: append([]models.GlucoseReading(nil), r.state.Readings...),
		Meals:    append([]models.MealRecord(nil), r.state.Meals...),
	}, nil
}

func (r *MemoryRepository) SaveReadings(_ context.Context, readings []models.GlucoseReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Readings = append([]models.GlucoseReading(nil), readings...)
	return nil
}

func (r *MemoryRepository) SaveMeals(_ context.Context, meals []models.MealRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Meals = append([]models.MealRecord(nil), meals...)
	return nil
}

func (r *MemoryRepository) LoadProfile(_ context.Context) (models.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.profile == nil {
		return models.UserProfile{}, ErrNotFound
	}
	return *r.profile, nil
}

func (r *MemoryRepository) SaveProfile(_ context.Context, profile models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profile = &profile
	return nil
}
