package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskforge/backend/internal/infrastructure/audit"
	"github.com/taskforge/backend/pkg/httpcontext"
	"github.com/taskforge/backend/usecase"
)

type auditRecorder struct {
	journal *audit.Journal
	logger  *zap.Logger
}

// NewAuditRecorder bridges use cases to the journal. Journal write failures
// are logged and swallowed so auditing never changes a request outcome.
func NewAuditRecorder(journal *audit.Journal, logger *zap.Logger) usecase.AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditRecorder{journal: journal, logger: logger}
}

func (r *auditRecorder) RecordEvent(ctx context.Context, eventType, subject, detail string) {
	if r.journal == nil {
		return
	}
	event := audit.Event{
		Type:       eventType,
		Subject:    subject,
		Detail:     detail,
		RemoteAddr: httpcontext.RemoteAddr(ctx),
	}
	if err := r.journal.Record(event); err != nil {
		r.logger.Error("audit event dropped",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
