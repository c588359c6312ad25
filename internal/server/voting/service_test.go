package voting

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cdsvote/cdsvote/internal/common"
	"github.com/cdsvote/cdsvote/internal/logging"
	"github.com/cdsvote/cdsvote/internal/server/eligibility"
	"github.com/cdsvote/cdsvote/internal/server/identity"
	"github.com/cdsvote/cdsvote/internal/server/models"
	"github.com/cdsvote/cdsvote/internal/server/repositories/votes"
)

// ---- test logger ----

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

// ---- fakes ----

type fakePhase struct {
	mu       sync.Mutex
	phase    models.Phase
	err      error
	getCalls int
}

func (f *fakePhase) Get(ctx context.Context) (*models.Phase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	p := f.phase
	return &p, nil
}

func (f *fakePhase) Set(ctx context.Context, key models.PhaseKey, open bool) (*models.Phase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch key {
	case models.PhaseVoting:
		f.phase.VotingOpen = open
		if open {
			f.phase.ApplicationsOpen = false
		}
	case models.PhaseApplications:
		f.phase.ApplicationsOpen = open
		if open {
			f.phase.VotingOpen = false
		}
	}
	p := f.phase
	return &p, nil
}

type fakeResolver struct {
	result *eligibility.Result
	err    error
}

func (f *fakeResolver) Resolve(ctx context.Context, raw string) (*eligibility.Result, error) {
	return f.result, f.err
}

type fakePositions struct {
	active []*models.Position
	err    error
}

func (f *fakePositions) ListActive(ctx context.Context) ([]*models.Position, error) {
	return f.active, f.err
}

type fakeCandidates struct {
	byID map[string]*models.Candidate
}

func (f *fakeCandidates) GetApproved(ctx context.Context, id string) (*models.Candidate, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeCandidates) ListApproved(ctx context.Context) ([]*models.Candidate, error) {
	var all []*models.Candidate
	for _, c := range f.byID {
		all = append(all, c)
	}
	return all, nil
}

// ledgerFake mimics the storage-level uniqueness constraint: the mutex plus
// the seen map make exactly one racing insert win, like the unique index.
type ledgerFake struct {
	mu        sync.Mutex
	seen      map[[2]string]struct{}
	rows      []*models.Vote
	failTimes int // transient failures before inserts succeed
}

func newLedgerFake() *ledgerFake {
	return &ledgerFake{seen: map[[2]string]struct{}{}}
}

func (l *ledgerFake) Insert(ctx context.Context, v *models.Vote) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failTimes > 0 {
		l.failTimes--
		return errors.New("connection reset")
	}
	key := [2]string{v.VoterToken, v.PositionID}
	if _, dup := l.seen[key]; dup {
		return common.ErrorDuplicateVote
	}
	l.seen[key] = struct{}{}
	l.rows = append(l.rows, v)
	return nil
}

func (l *ledgerFake) ListPositionIDsByToken(ctx context.Context, token string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []string
	for _, v := range l.rows {
		if v.VoterToken == token {
			ids = append(ids, v.PositionID)
		}
	}
	return ids, nil
}

func (l *ledgerFake) TallyRows(ctx context.Context, positionID string) ([]votes.TallyRow, error) {
	return nil, nil
}

func (l *ledgerFake) CountAll(ctx context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(len(l.rows)), nil
}

func (l *ledgerFake) ListAll(ctx context.Context) ([]*models.Vote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*models.Vote(nil), l.rows...), nil
}

type countingNotifier struct {
	mu sync.Mutex
	n  int
}

func (c *countingNotifier) Publish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// ---- helpers ----

const (
	stateCode   = "KN/24A/0001"
	secretaryID = "pos-secretary"
	treasurerID = "pos-treasurer"
	candX       = "cand-x"
	candY       = "cand-y"
)

type deps struct {
	phase      *fakePhase
	resolver   *fakeResolver
	positions  *fakePositions
	candidates *fakeCandidates
	ledger     *ledgerFake
	notifier   *countingNotifier
}

func newDeps() *deps {
	return &deps{
		phase:    &fakePhase{phase: models.Phase{VotingOpen: true}},
		resolver: &fakeResolver{result: &eligibility.Result{Status: eligibility.Eligible}},
		positions: &fakePositions{active: []*models.Position{
			{ID: secretaryID, Name: "Secretary", ElectionOrder: 1, Active: true},
			{ID: treasurerID, Name: "Treasurer", ElectionOrder: 2, Active: true},
		}},
		candidates: &fakeCandidates{byID: map[string]*models.Candidate{
			candX: {ID: candX, PositionID: secretaryID, Status: models.CandidateApproved},
			candY: {ID: candY, PositionID: treasurerID, Status: models.CandidateApproved},
		}},
		ledger:   newLedgerFake(),
		notifier: &countingNotifier{},
	}
}

func newService(d *deps) *Service {
	return NewService(d.phase, d.resolver, d.positions, d.candidates, d.ledger, d.notifier, nopLogger{})
}

// ---- tests ----

func TestCastVote_OkThenAlreadyVoted(t *testing.T) {
	d := newDeps()
	s := newService(d)
	ctx := context.Background()

	res, err := s.CastVote(ctx, stateCode, secretaryID, candX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusOk {
		t.Fatalf("want ok, got %s (%s)", res.Status, res.Reason)
	}

	// exact same triple again
	res, err = s.CastVote(ctx, stateCode, secretaryID, candX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusAlreadyVoted {
		t.Fatalf("want already_voted, got %s", res.Status)
	}
	if len(d.ledger.rows) != 1 {
		t.Fatalf("ledger must hold exactly one row, got %d", len(d.ledger.rows))
	}
}

func TestCastVote_SameVoterDifferentCasingIsDuplicate(t *testing.T) {
	d := newDeps()
	s := newService(d)
	ctx := context.Background()

	if res, _ := s.CastVote(ctx, stateCode, secretaryID, candX); res.Status != StatusOk {
		t.Fatalf("first cast failed: %s", res.Status)
	}
	res, err := s.CastVote(ctx, "  kn/24a/0001 ", secretaryID, candX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusAlreadyVoted {
		t.Fatalf("casing variant must map to same token, got %s", res.Status)
	}
}

func TestCastVote_CandidateBoundToOtherPosition(t *testing.T) {
	d := newDeps()
	s := newService(d)

	res, err := s.CastVote(context.Background(), stateCode, secretaryID, candY)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusInvalidCandidate {
		t.Fatalf("want invalid_candidate, got %s", res.Status)
	}
	if len(d.ledger.rows) != 0 {
		t.Fatal("rejection must not touch the ledger")
	}
}

func TestCastVote_UnknownCandidate(t *testing.T) {
	d := newDeps()
	s := newService(d)

	res, err := s.CastVote(context.Background(), stateCode, secretaryID, "cand-ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusInvalidCandidate {
		t.Fatalf("want invalid_candidate, got %s", res.Status)
	}
}

func TestCastVote_CommitteeMemberBarred(t *testing.T) {
	d := newDeps()
	d.resolver.result = &eligibility.Result{Status: eligibility.CommitteeMember, Reason: "electoral committee members cannot vote"}
	s := newService(d)

	res, err := s.CastVote(context.Background(), stateCode, secretaryID, candX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusCommitteeMember {
		t.Fatalf("want committee_member, got %s", res.Status)
	}
	if res.Reason == "" {
		t.Fatal("reason must be surfaced verbatim")
	}
}

func TestCastVote_VotingClosedWinsOverEverything(t *testing.T) {
	d := newDeps()
	d.phase.phase = models.Phase{ApplicationsOpen: true}
	// even an ineligible voter with a bad candidate sees VotingClosed
	d.resolver.result = &eligibility.Result{Status: eligibility.NotRegistered}
	s := newService(d)

	res, err := s.CastVote(context.Background(), stateCode, secretaryID, "cand-ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusVotingClosed {
		t.Fatalf("want voting_closed, got %s", res.Status)
	}
	if len(d.ledger.rows) != 0 {
		t.Fatal("ledger must be unchanged")
	}
}

func TestCastVote_PhaseReadFreshEachAttempt(t *testing.T) {
	d := newDeps()
	s := newService(d)
	ctx := context.Background()

	if res, _ := s.CastVote(ctx, stateCode, secretaryID, candX); res.Status != StatusOk {
		t.Fatal("expected first cast to succeed")
	}

	// admin closes voting between requests
	if _, err := d.phase.Set(ctx, models.PhaseVoting, false); err != nil {
		t.Fatalf("set phase: %v", err)
	}

	res, err := s.CastVote(ctx, stateCode, treasurerID, candY)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusVotingClosed {
		t.Fatalf("closure must take effect immediately, got %s", res.Status)
	}
	if d.phase.getCalls < 2 {
		t.Fatalf("phase must be read per attempt, got %d reads", d.phase.getCalls)
	}
}

func TestCastVote_MalformedCredentialIsValidationError(t *testing.T) {
	d := newDeps()
	s := newService(d)

	_, err := s.CastVote(context.Background(), " x ", secretaryID, candX)
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want ErrorValidation, got %v", err)
	}
	if len(d.ledger.rows) != 0 {
		t.Fatal("validation failure must not touch the ledger")
	}
}

func TestCastVote_TransientInsertFailureIsRetried(t *testing.T) {
	d := newDeps()
	d.ledger.failTimes = 1
	s := newService(d)

	res, err := s.CastVote(context.Background(), stateCode, secretaryID, candX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusOk {
		t.Fatalf("want ok after retry, got %s", res.Status)
	}
	if d.notifier.count() != 1 {
		t.Fatalf("want exactly one publish, got %d", d.notifier.count())
	}
}

func TestCastVote_PersistentInsertFailureSurfacesError(t *testing.T) {
	d := newDeps()
	d.ledger.failTimes = 10
	s := newService(d)

	_, err := s.CastVote(context.Background(), stateCode, secretaryID, candX)
	if err == nil {
		t.Fatal("want infra error after bounded retries")
	}
	if d.notifier.count() != 0 {
		t.Fatal("failed cast must not publish")
	}
}

func TestCastVote_ConcurrentDuplicatesExactlyOneWins(t *testing.T) {
	d := newDeps()
	s := newService(d)

	const n = 32
	results := make([]Status, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			res, err := s.CastVote(context.Background(), stateCode, secretaryID, candX)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = res.Status
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, st := range results {
		switch st {
		case StatusOk:
			ok++
		case StatusAlreadyVoted:
			dup++
		}
	}
	if ok != 1 || dup != n-1 {
		t.Fatalf("want exactly one winner, got ok=%d dup=%d", ok, dup)
	}
	if len(d.ledger.rows) != 1 {
		t.Fatalf("ledger must hold one row, got %d", len(d.ledger.rows))
	}
	if d.notifier.count() != 1 {
		t.Fatalf("only the winning cast may publish, got %d", d.notifier.count())
	}
}

func TestVerifyVoter_ResumeState(t *testing.T) {
	d := newDeps()
	s := newService(d)
	ctx := context.Background()

	if res, _ := s.CastVote(ctx, stateCode, secretaryID, candX); res.Status != StatusOk {
		t.Fatal("seed cast failed")
	}

	v, err := s.VerifyVoter(ctx, stateCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != StatusOk {
		t.Fatalf("want ok, got %s", v.Status)
	}
	if v.VoterToken != identity.Anonymize(stateCode) {
		t.Fatal("token mismatch")
	}
	if len(v.Voted) != 1 || v.Voted[0] != secretaryID {
		t.Fatalf("unexpected voted set: %v", v.Voted)
	}
	if len(v.Remaining) != 1 || v.Remaining[0].ID != treasurerID {
		t.Fatalf("unexpected remaining: %+v", v.Remaining)
	}
	if v.Complete {
		t.Fatal("voter with open positions must not be complete")
	}
}

func TestVerifyVoter_CompleteWhenAllPositionsCovered(t *testing.T) {
	d := newDeps()
	s := newService(d)
	ctx := context.Background()

	if res, _ := s.CastVote(ctx, stateCode, secretaryID, candX); res.Status != StatusOk {
		t.Fatal("seed cast failed")
	}
	if res, _ := s.CastVote(ctx, stateCode, treasurerID, candY); res.Status != StatusOk {
		t.Fatal("seed cast failed")
	}

	v, err := s.VerifyVoter(ctx, stateCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Complete || len(v.Remaining) != 0 {
		t.Fatalf("want complete, got %+v", v)
	}
}

func TestVerifyVoter_IneligibleGetsNoResumeState(t *testing.T) {
	d := newDeps()
	d.resolver.result = &eligibility.Result{Status: eligibility.AdminIneligible, Reason: "dues unpaid"}
	s := newService(d)

	v, err := s.VerifyVoter(context.Background(), stateCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != StatusAdminIneligible || v.Reason != "dues unpaid" {
		t.Fatalf("unexpected verification: %+v", v)
	}
	if v.VoterToken != "" || v.Remaining != nil {
		t.Fatal("ineligible voters must not receive resume state")
	}
}

func TestBallot_GroupsCandidatesInPositionOrder(t *testing.T) {
	d := newDeps()
	s := newService(d)

	ballot, err := s.Ballot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ballot) != 2 {
		t.Fatalf("want 2 positions, got %d", len(ballot))
	}
	if ballot[0].Position.ID != secretaryID || len(ballot[0].Candidates) != 1 {
		t.Fatalf("unexpected first entry: %+v", ballot[0])
	}
	if ballot[1].Position.ID != treasurerID {
		t.Fatalf("positions out of order: %+v", ballot[1])
	}
}
