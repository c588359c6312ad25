package votes

import (
	"context"

	"github.com/cdsvote/cdsvote/internal/server/models"
)

// TallyRow is one (position, candidate) count produced by the grouped tally
// query. Rows arrive contiguous per position (election order, then position
// id), then votes descending, then candidate creation time as the
// tie-break. Positions may share an election_order; the id keeps each
// position's rows together.
type TallyRow struct {
	PositionID    string
	PositionName  string
	ElectionOrder int
	CandidateID   string
	CandidateName string
	Votes         int64
}

// Repository owns the append-only vote ledger. There is no update or delete.
type Repository interface {
	// Insert commits one vote atomically. A violation of the
	// (voter_token, position_id) unique index is reported as
	// common.ErrorDuplicateVote; this is the only duplicate check.
	Insert(ctx context.Context, vote *models.Vote) error

	// ListPositionIDsByToken returns the positions a token has voted for.
	ListPositionIDsByToken(ctx context.Context, voterToken string) ([]string, error)

	// TallyRows aggregates the ledger, optionally for one position
	// (empty positionID means all active positions).
	TallyRows(ctx context.Context, positionID string) ([]TallyRow, error)

	// CountAll returns the total number of ledger rows.
	CountAll(ctx context.Context) (int64, error)

	// ListAll streams every ledger row for export, oldest first.
	ListAll(ctx context.Context) ([]*models.Vote, error)
}
