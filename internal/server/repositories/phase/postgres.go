package phase

import (
	"context"
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

func (r *PostgresRepository) Get(ctx context.Context) (*models.Phase, error) {
	query :=
		`SELECT applications_open, voting_open, updated_at
		 FROM election_phase
		 WHERE id = 1
		 `

	p := &models.Phase{}
	err := r.db.QueryRowContext(ctx, query).Scan(&p.ApplicationsOpen, &p.VotingOpen, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

// Set updates one switch; the CASE clause force-closes the opposite phase
// whenever a phase is opened, keeping the transition atomic.
func (r *PostgresRepository) Set(ctx context.Context, key models.PhaseKey, open bool) (*models.Phase, error) {

	var query string
	switch key {
	case models.PhaseApplications:
		query =
			`UPDATE election_phase
			 SET applications_open = $1,
			     voting_open = CASE WHEN $1 THEN FALSE ELSE voting_open END,
			     updated_at = now()
			 WHERE id = 1
			 RETURNING applications_open, voting_open, updated_at
			 `
	case models.PhaseVoting:
		query =
			`UPDATE election_phase
			 SET voting_open = $1,
			     applications_open = CASE WHEN $1 THEN FALSE ELSE applications_open END,
			     updated_at = now()
			 WHERE id = 1
			 RETURNING applications_open, voting_open, updated_at
			 `
	default:
		return nil, fmt.Errorf("%w: unknown phase %q", common.ErrorValidation, key)
	}

	p := &models.Phase{}
	err := r.db.QueryRowContext(ctx, query, open).Scan(&p.ApplicationsOpen, &p.VotingOpen, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}
