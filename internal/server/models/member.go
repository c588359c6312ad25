// Package models contains the persistent entities of the election service.
package models

import "time"

// Member is one row of the member directory. The voting core never writes
// members; directory management is an administrative concern.
type Member struct {
	StateCode        string
	FullName         string
	Batch            string
	IsCommittee      bool
	Eligible         bool
	IneligibleReason string
	CreatedAt        time.Time
}
