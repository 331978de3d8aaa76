package domain

import "time"

// AuditEvent records a completed account mutation for the audit trail.
type AuditEvent struct {
	Actor     string    // login that performed the mutation
	Action    string    // e.g. "account.register", "role.add"
	Target    string    // login the mutation applied to
	Detail    string    // optional, e.g. the role name
	Timestamp time.Time
}
