package models

import "time"

type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateApproved CandidateStatus = "approved"
	CandidateRejected CandidateStatus = "rejected"
)

// Candidate is an application for a position. Only approved candidates are
// valid ballot entries; the review workflow that flips Status is external.
type Candidate struct {
	ID         string
	PositionID string
	FullName   string
	Mantra     string
	Status     CandidateStatus
	CreatedAt  time.Time
}
