package models

import "time"

// Vote is one append-only ledger row. VoterToken is the anonymized identity;
// the raw state code is never stored. At most one Vote may exist per
// (VoterToken, PositionID) pair, enforced by a database unique index.
type Vote struct {
	ID          string
	VoterToken  string
	PositionID  string
	CandidateID string
	CreatedAt   time.Time
}
