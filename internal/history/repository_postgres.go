package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mrcode/glucopredict/internal/models"
)

// ConnectPostgres opens a connection pool and makes sure the schema exists
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("database url is empty")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return pool, nil
}

func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS glucose_readings (
			id TEXT PRIMARY KEY,
			value DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			source VARCHAR(32) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS glucose_readings_recorded_at_idx ON glucose_readings (recorded_at)`,
		`CREATE TABLE IF NOT EXISTS meal_records (
			id TEXT PRIMARY KEY,
			eaten_at TIMESTAMPTZ NOT NULL,
			meal_type VARCHAR(32) NOT NULL,
			meal_order VARCHAR(32) NOT NULL,
			foods TEXT[] NOT NULL DEFAULT '{}',
			initial_glucose DOUBLE PRECISION NOT NULL,
			predicted_peak DOUBLE PRECISION NOT NULL,
			glycemic_load DOUBLE PRECISION NOT NULL,
			carbs DOUBLE PRECISION NOT NULL,
			dose DOUBLE PRECISION NULL,
			actual_peak DOUBLE PRECISION NULL,
			effectiveness VARCHAR(32) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_profile (
			id INTEGER PRIMARY KEY,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// PostgresRepository stores history in PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository wraps an open pool
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Load(ctx context.Context) (State, error) {
	readings, err := r.loadReadings(ctx)
	if err != nil {
		return State{}, err
	}
	meals, err := r.loadMeals(ctx)
	if err != nil {
		return State{}, err
	}
	return State{Readings: readings, Meals: meals}, nil
}

func (r *PostgresRepository) loadReadings(ctx context.Context) ([]models.GlucoseReading, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, value, recorded_at, source
		FROM glucose_readings
		ORDER BY recorded_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []models.GlucoseReading
	for rows.Next() {
		var rd models.GlucoseReading
		if err := rows.Scan(&rd.ID, &rd.Value, &rd.Time, &rd.Source); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, rd)
	}
	return readings, rows.Err()
}

func (r *PostgresRepository) loadMeals(ctx context.Context) ([]models.MealRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, eaten_at, meal_type, meal_order, foods, initial_glucose,
		       predicted_peak, glycemic_load, carbs, dose, actual_peak, effectiveness
		FROM meal_records
		ORDER BY eaten_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []models.MealRecord
	for rows.Next() {
		var m models.MealRecord
		if err := rows.Scan(
			&m.ID, &m.Time, &m.MealType, &m.Order, &m.Foods, &m.InitialGlucose,
			&m.PredictedPeak, &m.GlycemicLoad, &m.Carbs, &m.Dose, &m.ActualPeak, &m.Effectiveness,
		); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// SaveReadings upserts the readings and removes rows no longer in the collection
func (r *PostgresRepository) SaveReadings(ctx context.Context, readings []models.GlucoseReading) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		ids := make([]string, 0, len(readings))
		for _, rd := range readings {
			ids = append(ids, rd.ID)
			batch.Queue(`
				INSERT INTO glucose_readings (id, value, recorded_at, source)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE
				SET value = EXCLUDED.value, recorded_at = EXCLUDED.recorded_at, source = EXCLUDED.source
			`, rd.ID, rd.Value, rd.Time, string(rd.Source))
		}
		batch.Queue(`DELETE FROM glucose_readings WHERE NOT (id = ANY($1))`, ids)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save readings: %w", err)
		}
		return nil
	})
}

// SaveMeals upserts the meals and removes rows no longer in the collection
func (r *PostgresRepository) SaveMeals(ctx context.Context, meals []models.MealRecord) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		ids := make([]string, 0, len(meals))
		for _, m := range meals {
			ids = append(ids, m.ID)
			foods := m.Foods
			if foods == nil {
				foods = []string{}
			}
			batch.Queue(`
				INSERT INTO meal_records (id, eaten_at, meal_type, meal_order, foods, initial_glucose,
					predicted_peak, glycemic_load, carbs, dose, actual_peak, effectiveness)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (id) DO UPDATE
				SET actual_peak = EXCLUDED.actual_peak, effectiveness = EXCLUDED.effectiveness
			`, m.ID, m.Time, string(m.MealType), string(m.Order), foods, m.InitialGlucose,
				m.PredictedPeak, m.GlycemicLoad, m.Carbs, m.Dose, m.ActualPeak, string(m.Effectiveness))
		}
		batch.Queue(`DELETE FROM meal_records WHERE NOT (id = ANY($1))`, ids)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save meals: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) LoadProfile(ctx context.Context) (models.UserProfile, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM user_profile WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}

func (r *PostgresRepository) SaveProfile(ctx context.Context, profile models.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO user_profile (id, data, updated_at)
		VALUES (1, $1::jsonb, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, string(data))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
