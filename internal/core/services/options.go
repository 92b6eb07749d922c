package services

import (
	"time"

	"github.com/SscSPs/schoolbooks/internal/audit"
)

// ServiceOption is a functional option shared by the ledger services.
type ServiceOption func(*BaseService)

// WithAuditSink routes audit events to sink.
func WithAuditSink(sink audit.Sink) ServiceOption {
	return func(s *BaseService) {
		if sink != nil {
			s.Audit = sink
		}
	}
}

// WithClock overrides the time source used for audit fields.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *BaseService) {
		if now != nil {
			s.Now = now
		}
	}
}

func applyOptions(options []ServiceOption) BaseService {
	base := newBaseService(nil)
	for _, option := range options {
		option(&base)
	}
	return base
}
