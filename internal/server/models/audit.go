package models

import "time"

// AuditEntry records one administrative action. Details is a JSON document
// whose shape depends on Action.
type AuditEntry struct {
	ID        string
	AdminName string
	Action    string
	Details   []byte
	CreatedAt time.Time
}
