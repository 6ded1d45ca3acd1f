package db

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSeed reads a list of cars from a YAML or JSON file. JSON is a subset
// of YAML, so one decoder handles both.
func LoadSeed(path string) ([]Car, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("db: read seed %q: %w", path, err)
	}
	var cars []Car
	if err := yaml.Unmarshal(data, &cars); err != nil {
		return nil, fmt.Errorf("db: parse seed %q: %w", path, err)
	}
	return cars, nil
}

// Seed inserts cars when the table is empty and returns how many were
// inserted. A non-empty table is left untouched. Seeding is all or nothing:
// if any car is invalid or any insert fails, no row is written.
func (d *DB) Seed(ctx context.Context, cars []Car) (n int, err error) {
	for i, c := range cars {
		if err := c.Validate(); err != nil {
			return 0, fmt.Errorf("db: seed car %d: %w", i, err)
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("db: seed: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	existing, err := countCars(ctx, tx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, tx.Commit()
	}

	for i, c := range cars {
		if _, err := insertCar(ctx, tx, c); err != nil {
			return 0, fmt.Errorf("db: seed car %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("db: seed: commit: %w", err)
	}
	return len(cars), nil
}
