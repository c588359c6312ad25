package members

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

// GetByStateCode looks up a member by the already-normalized state code.
func (r *PostgresRepository) GetByStateCode(ctx context.Context, stateCode string) (*models.Member, error) {
	query :=
		`SELECT state_code, full_name, batch, is_committee, eligible, ineligible_reason, created_at
		 FROM members
		 WHERE state_code = $1
		 `

	member := &models.Member{}
	var reason sql.NullString
	err := r.db.QueryRowContext(ctx, query, stateCode).Scan(
		&member.StateCode, &member.FullName, &member.Batch,
		&member.IsCommittee, &member.Eligible, &reason, &member.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	member.IneligibleReason = reason.String
	return member, nil
}

// CountEligible counts directory members who may vote, for turnout reporting.
func (r *PostgresRepository) CountEligible(ctx context.Context) (int64, error) {
	query :=
		`SELECT COUNT(*) FROM members
		 WHERE eligible AND NOT is_committee
		 `

	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}
