package events

import (
	"context"

	"go.uber.org/zap"
)

// AuditLog returns a handler that records every write in the log.
func AuditLog(logger *zap.Logger) Handler[RecordWritten] {
	return func(_ context.Context, event *RecordWritten) error {
		action := "updated"
		if event.Created {
			action = "created"
		}

		logger.Info("record "+action,
			zap.Int64("id", event.ID),
			zap.String("name", event.Name),
			zap.Time("writtenAt", event.WrittenAt),
			zap.String("requestId", event.RequestID),
			zap.String("clientIp", event.ClientIP),
		)

		return nil
	}
}
