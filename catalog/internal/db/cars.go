package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a car does not exist.
var ErrNotFound = errors.New("db: car not found")

// Car is one row of the cars table.
type Car struct {
	ID        int64     `json:"id" yaml:"id"`
	Model     string    `json:"model" yaml:"model"`
	Make      string    `json:"make" yaml:"make"`
	Price     int64     `json:"price" yaml:"price"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Validate checks the fields a client supplies.
func (c Car) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Model) == "" {
		problems = append(problems, "model is required")
	}
	if strings.TrimSpace(c.Make) == "" {
		problems = append(problems, "make is required")
	}
	if c.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidationError lists every rejected field of a car.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid car: " + strings.Join(e.Problems, ", ")
}

// ListCars returns every car in id order. The result is never nil.
func (d *DB) ListCars(ctx context.Context) ([]Car, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, model, make, price, created_at, updated_at FROM cars ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db: list cars: %w", err)
	}
	defer rows.Close()

	cars := []Car{}
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: list cars: %w", err)
	}
	return cars, nil
}

// GetCar returns the car with id, or ErrNotFound.
func (d *DB) GetCar(ctx context.Context, id int64) (Car, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, model, make, price, created_at, updated_at FROM cars WHERE id = ?`, id)
	c, err := scanCar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Car{}, ErrNotFound
	}
	return c, err
}

// CreateCar validates c, inserts it and returns the stored row.
func (d *DB) CreateCar(ctx context.Context, c Car) (Car, error) {
	if err := c.Validate(); err != nil {
		return Car{}, err
	}
	return insertCar(ctx, d.db, c)
}

// CountCars returns the number of rows.
func (d *DB) CountCars(ctx context.Context) (int, error) {
	return countCars(ctx, d.db)
}

// querier is the part of *sql.DB and *sql.Tx the car queries use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertCar(ctx context.Context, q querier, c Car) (Car, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := q.ExecContext(ctx,
		`INSERT INTO cars (model, make, price, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.Model, c.Make, c.Price, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return Car{}, fmt.Errorf("db: insert car: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Car{}, fmt.Errorf("db: insert car: %w", err)
	}
	c.ID, c.CreatedAt, c.UpdatedAt = id, now, now
	return c, nil
}

func countCars(ctx context.Context, q querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM cars`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db: count cars: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCar(s scanner) (Car, error) {
	var (
		c                Car
		created, updated string
	)
	if err := s.Scan(&c.ID, &c.Model, &c.Make, &c.Price, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Car{}, err
		}
		return Car{}, fmt.Errorf("db: scan car: %w", err)
	}
	var err error
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Car{}, fmt.Errorf("db: car %d created_at: %w", c.ID, err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return Car{}, fmt.Errorf("db: car %d updated_at: %w", c.ID, err)
	}
	return c, nil
}
