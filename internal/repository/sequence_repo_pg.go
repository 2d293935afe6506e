package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PGSequenceRepository struct {
	db *pgxpool.Pool
}

func NewSequenceRepository(db *pgxpool.Pool) SequenceRepository {
	return &PGSequenceRepository{db: db}
}

// Next bumps the counter of prefix and returns the new value. It runs on
// the pool, outside any open transaction, so the counter row is not held
// until the caller commits.
func (r *PGSequenceRepository) Next(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `INSERT INTO number_sequences (prefix, value) VALUES ($1, 1)
		ON CONFLICT (prefix) DO UPDATE SET value = number_sequences.value + 1
		RETURNING value`, prefix).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next %s number: %w", prefix, err)
	}
	return n, nil
}
