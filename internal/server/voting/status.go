package voting

import "github.com/cdsvote/cdsvote/internal/server/eligibility"

// Status is the stable reason code returned to callers of the voting
// surface. Presentation layers switch on these values, never on message
// text.
type Status string

const (
	StatusOk               Status = "ok"
	StatusVotingClosed     Status = "voting_closed"
	StatusNotRegistered    Status = "not_registered"
	StatusCommitteeMember  Status = "committee_member"
	StatusAdminIneligible  Status = "admin_ineligible"
	StatusInvalidCandidate Status = "invalid_candidate"
	StatusAlreadyVoted     Status = "already_voted"
)

// statusFromEligibility maps resolver outcomes onto the shared reason codes.
func statusFromEligibility(st eligibility.Status) Status {
	switch st {
	case eligibility.NotRegistered:
		return StatusNotRegistered
	case eligibility.CommitteeMember:
		return StatusCommitteeMember
	case eligibility.AdminIneligible:
		return StatusAdminIneligible
	default:
		return StatusOk
	}
}
