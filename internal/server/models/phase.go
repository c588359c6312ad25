package models

import "time"

// Phase is the election-wide singleton of mutually exclusive switches.
// The write path guarantees ApplicationsOpen and VotingOpen are never both
// true; a CHECK constraint backs this up in the database.
type Phase struct {
	ApplicationsOpen bool
	VotingOpen       bool
	UpdatedAt        time.Time
}

// PhaseKey names one of the two switches for administrative updates.
type PhaseKey string

const (
	PhaseApplications PhaseKey = "applications"
	PhaseVoting       PhaseKey = "voting"
)
