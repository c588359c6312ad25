package models

// CandidateTally is one candidate's count within a position.
type CandidateTally struct {
	CandidateID string
	FullName    string
	Votes       int64
}

// PositionTally aggregates the ledger for one position. Candidates are
// sorted by votes descending; exact ties keep the earlier-approved candidate
// first. Leader is nil while TotalVotes is zero.
type PositionTally struct {
	PositionID   string
	PositionName string
	TotalVotes   int64
	Candidates   []CandidateTally
	Leader       *CandidateTally
}
