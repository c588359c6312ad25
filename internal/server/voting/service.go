// Package voting implements the vote casting engine: phase gating,
// eligibility re-checks, candidate validation, and the atomic ledger insert
// that makes duplicate casts impossible.
package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/cdsvote/cdsvote/internal/common"
	"github.com/cdsvote/cdsvote/internal/logging"
	"github.com/cdsvote/cdsvote/internal/server/eligibility"
	"github.com/cdsvote/cdsvote/internal/server/identity"
	"github.com/cdsvote/cdsvote/internal/server/models"
	"github.com/cdsvote/cdsvote/internal/server/repositories/candidates"
	"github.com/cdsvote/cdsvote/internal/server/repositories/phase"
	"github.com/cdsvote/cdsvote/internal/server/repositories/positions"
	"github.com/cdsvote/cdsvote/internal/server/repositories/votes"
)

// insert retry policy for transient storage failures. Constraint violations
// are terminal and never retried.
const (
	insertRetryBase = 100 * time.Millisecond
	insertRetryMax  = 2
)

// Resolver re-checks eligibility; satisfied by *eligibility.Service.
type Resolver interface {
	Resolve(ctx context.Context, rawCredential string) (*eligibility.Result, error)
}

// Notifier is poked after every committed vote so live consumers can refresh.
type Notifier interface {
	Publish()
}

// CastResult is the outcome of one cast attempt. Rejections carry a stable
// Status plus a human-readable Reason; infrastructure failures surface as
// errors instead.
type CastResult struct {
	Status Status
	Reason string
}

// Verification is the response to a voter identity check: the eligibility
// outcome plus enough resumable state for a returning voter to continue
// where they stopped.
type Verification struct {
	Status     Status
	Reason     string
	VoterToken string
	// Voted holds position ids this token has already voted for.
	Voted []string
	// Remaining holds positions without a recorded vote, in election order.
	// Skipped positions stay here until voted; skipping is never terminal.
	Remaining []*models.Position
	Complete  bool
}

// BallotPosition is one position with its approved candidates.
type BallotPosition struct {
	Position   *models.Position
	Candidates []*models.Candidate
}

type Service struct {
	phase      phase.Repository
	resolver   Resolver
	positions  positions.Repository
	candidates candidates.Repository
	votes      votes.Repository
	notifier   Notifier
	logger     logging.Logger
}

func NewService(
	phaseRepo phase.Repository,
	resolver Resolver,
	positionsRepo positions.Repository,
	candidatesRepo candidates.Repository,
	votesRepo votes.Repository,
	notifier Notifier,
	logger logging.Logger,
) *Service {
	return &Service{
		phase:      phaseRepo,
		resolver:   resolver,
		positions:  positionsRepo,
		candidates: candidatesRepo,
		votes:      votesRepo,
		notifier:   notifier,
		logger:     logger.With("module", "voting"),
	}
}

// VerifyVoter resolves eligibility for a raw state code and, when eligible,
// returns the voter's resumable state: positions already voted and the ones
// still open, in election order.
func (s *Service) VerifyVoter(ctx context.Context, rawCredential string) (*Verification, error) {

	if !identity.ValidCredential(rawCredential) {
		return nil, fmt.Errorf("%w: state code too short", common.ErrorValidation)
	}

	res, err := s.resolver.Resolve(ctx, rawCredential)
	if err != nil {
		return nil, err
	}
	if res.Status != eligibility.Eligible {
		return &Verification{Status: statusFromEligibility(res.Status), Reason: res.Reason}, nil
	}

	token := identity.Anonymize(rawCredential)

	votedIDs, err := s.votes.ListPositionIDsByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	voted := make(map[string]struct{}, len(votedIDs))
	for _, id := range votedIDs {
		voted[id] = struct{}{}
	}

	active, err := s.positions.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var remaining []*models.Position
	for _, p := range active {
		if _, ok := voted[p.ID]; !ok {
			remaining = append(remaining, p)
		}
	}

	return &Verification{
		Status:     StatusOk,
		VoterToken: token,
		Voted:      votedIDs,
		Remaining:  remaining,
		Complete:   len(remaining) == 0 && len(active) > 0,
	}, nil
}

// CastVote runs the full validation chain and commits one vote.
//
// Order matters and is load-bearing: phase first (read fresh, never
// cached), then eligibility (re-checked even if the voter verified a moment
// ago), then candidate validity, and only then the insert. Every rejection
// leaves the ledger untouched; the unique index on (voter_token,
// position_id) is the sole duplicate check, so two racing casts for the
// same pair cannot both land.
func (s *Service) CastVote(ctx context.Context, rawCredential, positionID, candidateID string) (*CastResult, error) {

	if !identity.ValidCredential(rawCredential) {
		return nil, fmt.Errorf("%w: state code too short", common.ErrorValidation)
	}
	if positionID == "" || candidateID == "" {
		return nil, fmt.Errorf("%w: position and candidate are required", common.ErrorValidation)
	}

	ph, err := s.phase.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ph.VotingOpen {
		return &CastResult{Status: StatusVotingClosed, Reason: "voting is not open"}, nil
	}

	res, err := s.resolver.Resolve(ctx, rawCredential)
	if err != nil {
		return nil, err
	}
	if res.Status != eligibility.Eligible {
		return &CastResult{Status: statusFromEligibility(res.Status), Reason: res.Reason}, nil
	}

	cand, err := s.candidates.GetApproved(ctx, candidateID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &CastResult{Status: StatusInvalidCandidate, Reason: "candidate is not on the ballot"}, nil
		}
		return nil, err
	}
	if cand.PositionID != positionID {
		return &CastResult{Status: StatusInvalidCandidate, Reason: "candidate is not running for this position"}, nil
	}

	vote := &models.Vote{
		ID:          uuid.NewString(),
		VoterToken:  identity.Anonymize(rawCredential),
		PositionID:  positionID,
		CandidateID: candidateID,
	}

	backoff := retry.WithMaxRetries(insertRetryMax, retry.NewExponential(insertRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		insertErr := s.votes.Insert(ctx, vote)
		if insertErr == nil || errors.Is(insertErr, common.ErrorDuplicateVote) {
			return insertErr
		}
		return retry.RetryableError(insertErr)
	})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateVote) {
			return &CastResult{Status: StatusAlreadyVoted, Reason: "you have already voted for this position"}, nil
		}
		return nil, fmt.Errorf("ledger insert: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Publish()
	}

	s.logger.Info(ctx, "vote committed", "position_id", positionID, "vote_id", vote.ID)

	return &CastResult{Status: StatusOk}, nil
}

// Ballot returns active positions in election order, each with its approved
// candidates (earliest approved first).
func (s *Service) Ballot(ctx context.Context) ([]BallotPosition, error) {

	active, err := s.positions.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	approved, err := s.candidates.ListApproved(ctx)
	if err != nil {
		return nil, err
	}

	byPosition := make(map[string][]*models.Candidate, len(active))
	for _, c := range approved {
		byPosition[c.PositionID] = append(byPosition[c.PositionID], c)
	}

	ballot := make([]BallotPosition, 0, len(active))
	for _, p := range active {
		ballot = append(ballot, BallotPosition{Position: p, Candidates: byPosition[p.ID]})
	}

	return ballot, nil
}

// Phase exposes the current phase switches for read-only consumers.
func (s *Service) Phase(ctx context.Context) (*models.Phase, error) {
	return s.phase.Get(ctx)
}
