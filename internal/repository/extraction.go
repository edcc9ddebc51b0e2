package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// ExtractionRepository stores document extractions. Fields go in as jsonb.
type ExtractionRepository struct {
	pool PgxPool
}

func NewExtractionRepository(pool PgxPool) *ExtractionRepository {
	return &ExtractionRepository{pool: pool}
}

func (r *ExtractionRepository) Create(ctx context.Context, e *domain.DocumentExtraction) error {
	query := `
		INSERT INTO document_extractions (id, format, fields, overall_confidence, quality_score, degraded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	fields := e.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal extraction fields: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		e.ID,
		e.Format,
		fieldsJSON,
		e.Confidence,
		e.QualityScore,
		e.Degraded,
	).Scan(&e.CreatedAt)

	if err != nil {
		return fmt.Errorf("create document extraction: %w", err)
	}

	return nil
}

func (r *ExtractionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentExtraction, error) {
	query := `
		SELECT id, format, fields, overall_confidence, quality_score, degraded, created_at
		FROM document_extractions
		WHERE id = $1
	`

	var e domain.DocumentExtraction
	var fieldsJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.Format,
		&fieldsJSON,
		&e.Confidence,
		&e.QualityScore,
		&e.Degraded,
		&e.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound.WithMessage("document extraction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get document extraction by id: %w", err)
	}

	if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal extraction fields: %w", err)
	}
	return &e, nil
}
