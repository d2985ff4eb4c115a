// Package model defines domain entities for the application.
package model

import "time"

// Ref is an id+name snapshot of a user at the time an entry was written.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AuditLogEntry records one administrative action. Entries are never modified.
type AuditLogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Ref       `json:"actor"`
	Action    string    `json:"action"`
	Target    Ref       `json:"target"`
	Details   string    `json:"details"`
}
