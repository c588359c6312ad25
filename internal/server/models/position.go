package models

import "time"

// Position is a contested office on the ballot. ElectionOrder fixes the
// order positions are presented to a voter.
type Position struct {
	ID            string
	Name          string
	ElectionOrder int
	Active        bool
	CreatedAt     time.Time
}
