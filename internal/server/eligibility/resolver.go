// Package eligibility decides whether a state code may vote.
package eligibility

import (
	"context"
	"errors"
	"fmt"

	"github.com/cdsvote/cdsvote/internal/common"
	"github.com/cdsvote/cdsvote/internal/server/identity"
	"github.com/cdsvote/cdsvote/internal/server/repositories/members"
)

// Status is the outcome of an eligibility check.
type Status string

const (
	Eligible        Status = "eligible"
	NotRegistered   Status = "not_registered"
	CommitteeMember Status = "committee_member"
	AdminIneligible Status = "admin_ineligible"
)

// defaultIneligibleReason is shown when a member was flagged without one.
const defaultIneligibleReason = "marked ineligible by the electoral committee"

// Result carries the status plus a human-readable reason for the
// ineligible outcomes.
type Result struct {
	Status Status
	Reason string
}

type Service struct {
	members members.Repository
}

func NewService(repo members.Repository) *Service {
	return &Service{members: repo}
}

// Resolve checks the member directory for the holder of a raw state code.
// Committee membership bars voting categorically and takes precedence over
// the eligible flag. The check is read-only and must be re-run at cast time;
// eligibility can change between verification and casting.
func (s *Service) Resolve(ctx context.Context, rawCredential string) (*Result, error) {

	member, err := s.members.GetByStateCode(ctx, identity.Normalize(rawCredential))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &Result{
				Status: NotRegistered,
				Reason: "state code not found in the members list",
			}, nil
		}
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	if member.IsCommittee {
		return &Result{
			Status: CommitteeMember,
			Reason: "electoral committee members cannot vote",
		}, nil
	}

	if !member.Eligible {
		reason := member.IneligibleReason
		if reason == "" {
			reason = defaultIneligibleReason
		}
		return &Result{Status: AdminIneligible, Reason: reason}, nil
	}

	return &Result{Status: Eligible}, nil
}
