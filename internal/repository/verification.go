package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

type VerificationRepository struct {
	pool PgxPool
}

func NewVerificationRepository(pool PgxPool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

func (r *VerificationRepository) Create(ctx context.Context, v *domain.Verification) error {
	query := `
		INSERT INTO verifications (id, success, similarity, confidence, is_match, threshold, error_code, processing_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	var errorCode *string
	if v.ErrorCode != "" {
		errorCode = &v.ErrorCode
	}

	err := r.pool.QueryRow(ctx, query,
		v.ID,
		v.Success,
		v.Similarity,
		v.Confidence,
		v.IsMatch,
		v.Threshold,
		errorCode,
		v.ProcessingMs,
	).Scan(&v.CreatedAt)

	if err != nil {
		return fmt.Errorf("create verification: %w", err)
	}

	return nil
}

func (r *VerificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	query := `
		SELECT id, success, similarity, confidence, is_match, threshold, error_code, processing_ms, created_at
		FROM verifications
		WHERE id = $1
	`

	var v domain.Verification
	var errorCode *string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.Success,
		&v.Similarity,
		&v.Confidence,
		&v.IsMatch,
		&v.Threshold,
		&errorCode,
		&v.ProcessingMs,
		&v.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound.WithMessage("verification not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get verification by id: %w", err)
	}

	if errorCode != nil {
		v.ErrorCode = *errorCode
	}
	return &v, nil
}
