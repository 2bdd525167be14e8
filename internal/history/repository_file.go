package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mrcode/glucopredict/internal/models"
)

// fileDocument is the on-disk layout of a FileRepository
type fileDocument struct {
	Version  int                     `json:"version"`
	Readings []models.GlucoseReading `json:"readings"`
	Meals    []models.MealRecord     `json:"meals"`
	Profile  *models.UserProfile     `json:"profile,omitempty"`
}

const fileVersion = 1

// FileRepository stores everything in a single JSON file
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository creates a repository backed by path. The file is created on first save.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path returns the backing file path
func (r *FileRepository) Path() string {
	return r.path
}

func (r *FileRepository) read() (fileDocument, error) {
	var doc fileDocument

	data, err := os.ReadFile(r.path) //nolint:gosec // Path comes from settings or configuration
	if err != nil {
		if os.IsNotExist(err) {
			return fileDocument{Version: fileVersion}, nil
		}
		return doc, fmt.Errorf("failed to read history: %w", err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode history: %w", err)
	}
	return doc, nil
}

// write replaces the file atomically
func (r *FileRepository) write(doc fileDocument) error {
	doc.Version = fileVersion

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}

func (r *FileRepository) update(fn func(doc *fileDocument)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}
	fn(&doc)
	return r.write(doc)
}

func (r *FileRepository) Load(_ context.Context) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return State{}, err
	}
	return State{Readings: doc.Readings, Meals: doc.Meals}, nil
}

func (r *FileRepository) SaveReadings(_ context.Context, readings []models.GlucoseReading) error {
	return r.update(func(doc *fileDocument) {
		doc.Readings = readings
	})
}

func (r *FileRepository) SaveMeals(_ context.Context, meals []models.MealRecord) error {
	return r.update(func(doc *fileDocument) {
		doc.Meals = meals
	})
}

func (r *FileRepository) LoadProfile(_ context.Context) (models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return models.UserProfile{}, err
	}
	if doc.Profile == nil {
		return models.UserProfile{}, ErrNotFound
	}
	return *doc.Profile, nil
}

func (r *FileRepository) SaveProfile(_ context.Context, profile models.UserProfile) error {
	return r.update(func(doc *fileDocument) {
		doc.Profile = &profile
	})
}

// DefaultPath returns history.json inside the application config directory
func DefaultPath() (string, error) {
	dir, err := models.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}
