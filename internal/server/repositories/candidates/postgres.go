package candidates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cdsvote/cdsvote/internal/common"
	"github.com/cdsvote/cdsvote/internal/dbx"
	"github.com/cdsvote/cdsvote/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetApproved(ctx context.Context, id string) (*models.Candidate, error) {
	query :=
		`SELECT c.id, c.position_id, c.full_name, c.mantra, c.status, c.created_at
		 FROM candidates c
		 JOIN positions p ON p.id = c.position_id
		 WHERE c.id = $1 AND c.status = 'approved' AND p.active
		 `

	c := &models.Candidate{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.PositionID, &c.FullName, &c.Mantra, &c.Status, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) ListApproved(ctx context.Context) ([]*models.Candidate, error) {
	query :=
		`SELECT c.id, c.position_id, c.full_name, c.mantra, c.status, c.created_at
		 FROM candidates c
		 JOIN positions p ON p.id = c.position_id
		 WHERE c.status = 'approved' AND p.active
		 ORDER BY p.election_order, c.created_at, c.id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Candidate
	for rows.Next() {
		c := &models.Candidate{}
		if err := rows.Scan(&c.ID, &c.PositionID, &c.FullName, &c.Mantra, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
