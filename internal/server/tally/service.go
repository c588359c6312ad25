// Package tally aggregates the vote ledger into live result snapshots.
package tally

import (
	"context"
	"fmt"
	"time"

	"github.com/cdsvote/cdsvote/internal/logging"
	"github.com/cdsvote/cdsvote/internal/server/models"
	"github.com/cdsvote/cdsvote/internal/server/repositories/members"
	"github.com/cdsvote/cdsvote/internal/server/repositories/votes"
)

// Snapshot is one point-in-time aggregation of the ledger. Positions keep
// election order; within a position candidates are sorted by votes
// descending with earlier-approved candidates winning exact ties. The same
// shape serves both one-shot reads and the live stream.
type Snapshot struct {
	GeneratedAt    time.Time
	EligibleVoters int64
	TotalVotes     int64
	Positions      []*models.PositionTally
}

type Service struct {
	votes   votes.Repository
	members members.Repository
	logger  logging.Logger
}

func NewService(votesRepo votes.Repository, membersRepo members.Repository, logger logging.Logger) *Service {
	return &Service{
		votes:   votesRepo,
		members: membersRepo,
		logger:  logger.With("module", "tally"),
	}
}

// Build aggregates the ledger. An empty positionID covers all active
// positions; a non-empty one narrows the snapshot to that position.
// Candidates with zero votes still appear so the ballot shape is visible.
func (s *Service) Build(ctx context.Context, positionID string) (*Snapshot, error) {

	rows, err := s.votes.TallyRows(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("tally query: %w", err)
	}

	eligible, err := s.members.CountEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("eligible count: %w", err)
	}

	snap := &Snapshot{
		GeneratedAt:    time.Now().UTC(),
		EligibleVoters: eligible,
	}

	// group by position id, keeping first-seen order. Keying on the id
	// rather than detecting breaks means a position is emitted exactly
	// once even if its rows were not contiguous.
	byPosition := make(map[string]*models.PositionTally, len(rows))
	for _, r := range rows {
		pt, ok := byPosition[r.PositionID]
		if !ok {
			pt = &models.PositionTally{
				PositionID:   r.PositionID,
				PositionName: r.PositionName,
			}
			byPosition[r.PositionID] = pt
			snap.Positions = append(snap.Positions, pt)
		}
		ct := models.CandidateTally{
			CandidateID: r.CandidateID,
			FullName:    r.CandidateName,
			Votes:       r.Votes,
		}
		pt.Candidates = append(pt.Candidates, ct)
		pt.TotalVotes += r.Votes
		snap.TotalVotes += r.Votes
	}

	// the first candidate of a position is the leader, but only once a
	// vote exists; an untouched position has no leader to declare
	for _, p := range snap.Positions {
		if p.TotalVotes > 0 {
			leader := p.Candidates[0]
			p.Leader = &leader
		}
	}

	return snap, nil
}

// Turnout reports ledger volume against the eligible electorate.
func (s *Service) Turnout(ctx context.Context) (castVotes, eligibleVoters int64, err error) {

	castVotes, err = s.votes.CountAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("ledger count: %w", err)
	}

	eligibleVoters, err = s.members.CountEligible(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("eligible count: %w", err)
	}

	return castVotes, eligibleVoters, nil
}
