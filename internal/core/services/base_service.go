package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/schoolbooks/internal/audit"
	"github.com/SscSPs/schoolbooks/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Audit audit.Sink
	// Now returns the current time; tests pin it.
	Now func() time.Time
}

func newBaseService(sink audit.Sink) BaseService {
	if sink == nil {
		sink = audit.NewSlogSink(nil)
	}
	return BaseService{Audit: sink, Now: func() time.Time { return time.Now().UTC() }}
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// RecordAudit forwards an event to the audit sink. Failures are logged and
// swallowed: the ledger change being audited has already committed.
func (s *BaseService) RecordAudit(ctx context.Context, event, userID string, fields map[string]any) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, event, userID, fields); err != nil {
		s.LogWarn(ctx, "Failed to record audit event", slog.String("event", event), slog.String("error", err.Error()))
	}
}

func (s *BaseService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}
