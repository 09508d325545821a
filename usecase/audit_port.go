package usecase

import "context"

// AuditRecorder abstracts the security journal so use cases stay
// storage-agnostic. Implementations must never fail the calling request.
type AuditRecorder interface {
	RecordEvent(ctx context.Context, eventType, subject, detail string)
}
