// Command lifelog-seed fills a SQLite database with a small realistic
// dataset so the views have something to show during development.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"lifelog/internal/config"
	applog "lifelog/internal/log"
	"lifelog/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seed(ctx, repo); err != nil {
		logger.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Seeded database", "path", cfg.SQLiteDBPath)
}

func seed(ctx context.Context, repo *storage.SQLiteRepository) error {
	// The currency measurement goes in first so it gets id 1, matching the
	// default CURRENCY_UNIT_ID.
	euro, err := repo.CreateMeasurement(ctx, "EUR")
	if err != nil {
		return err
	}
	km, err := repo.CreateMeasurement(ctx, "km")
	if err != nil {
		return err
	}

	food, err := repo.CreateCategory(ctx, "Food & Drink", false)
	if err != nil {
		return err
	}
	sport, err := repo.CreateCategory(ctx, "Sport", false)
	if err != nil {
		return err
	}
	health, err := repo.CreateCategory(ctx, "Health", true)
	if err != nil {
		return err
	}

	anna, err := repo.CreatePerson(ctx, "Anna")
	if err != nil {
		return err
	}
	marco, err := repo.CreatePerson(ctx, "Marco")
	if err != nil {
		return err
	}

	trattoria, err := repo.CreateLocation(ctx, "Trattoria da Gino", "Via Roma 12")
	if err != nil {
		return err
	}
	park, err := repo.CreateLocation(ctx, "Parco Nord", "")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	events := []storage.NewEvent{
		{
			Title:         "Dinner with Anna",
			Description:   "Long overdue catch-up",
			Date:          now.AddDate(0, 0, -1),
			Amount:        amount(42.50),
			MeasurementID: &euro,
			CategoryID:    &food,
			LocationID:    &trattoria,
			Positive:      rated(true),
			AttendeeIDs:   []int64{anna},
		},
		{
			Title:         "Morning run",
			Date:          now.AddDate(0, 0, -1),
			Amount:        amount(7.2),
			MeasurementID: &km,
			CategoryID:    &sport,
			LocationID:    &park,
			Positive:      rated(true),
		},
		{
			Title:         "Lunch with Anna and Marco",
			Date:          now.AddDate(0, 0, -3),
			Amount:        amount(28),
			MeasurementID: &euro,
			CategoryID:    &food,
			LocationID:    &trattoria,
			WithPartner:   true,
			AttendeeIDs:   []int64{anna, marco},
		},
		{
			Title:         "Dentist appointment",
			Date:          now.AddDate(0, 0, -5),
			Amount:        amount(90),
			MeasurementID: &euro,
			CategoryID:    &health,
			Positive:      rated(false),
		},
	}

	for _, ev := range events {
		if _, err := repo.CreateEvent(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func amount(v float64) *float64 { return &v }
func rated(v bool) *bool        { return &v }
