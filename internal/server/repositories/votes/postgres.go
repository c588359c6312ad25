package votes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cdsvote/cdsvote/internal/common"
	"github.com/cdsvote/cdsvote/internal/dbx"
	"github.com/cdsvote/cdsvote/internal/server/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, vote *models.Vote) error {

	query :=
		`INSERT INTO votes (id, voter_token, position_id, candidate_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		vote.ID, vote.VoterToken, vote.PositionID, vote.CandidateID).Scan(&vote.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorDuplicateVote
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListPositionIDsByToken(ctx context.Context, voterToken string) ([]string, error) {
	query :=
		`SELECT position_id FROM votes
		 WHERE voter_token = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, voterToken)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

// TallyRows counts ledger rows per approved candidate. Candidates and
// positions with no votes still appear with a zero count so the live board
// shows the whole ballot.
func (r *PostgresRepository) TallyRows(ctx context.Context, positionID string) ([]TallyRow, error) {
	query :=
		`SELECT p.id, p.name, p.election_order, c.id, c.full_name, COUNT(v.id)
		 FROM positions p
		 JOIN candidates c ON c.position_id = p.id AND c.status = 'approved'
		 LEFT JOIN votes v ON v.candidate_id = c.id AND v.position_id = p.id
		 WHERE p.active AND ($1 = '' OR p.id::text = $1)
		 GROUP BY p.id, p.name, p.election_order, c.id, c.full_name, c.created_at
		 ORDER BY p.election_order, p.id, COUNT(v.id) DESC, c.created_at, c.id
		 `

	rows, err := r.db.QueryContext(ctx, query, positionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []TallyRow
	for rows.Next() {
		var tr TallyRow
		if err := rows.Scan(&tr.PositionID, &tr.PositionName, &tr.ElectionOrder,
			&tr.CandidateID, &tr.CandidateName, &tr.Votes); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Vote, error) {
	query :=
		`SELECT id, voter_token, position_id, candidate_id, created_at
		 FROM votes
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Vote
	for rows.Next() {
		v := &models.Vote{}
		if err := rows.Scan(&v.ID, &v.VoterToken, &v.PositionID, &v.CandidateID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
