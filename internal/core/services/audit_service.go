package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/adapters/persistence/repositories"
)

// AuditService writes the audit trail of operator actions. Records are written
// after the backend call succeeded and a write failure never fails the action
// itself.
type AuditService struct {
	auditRepo repositories.AuditRepository
	log       *zap.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repositories.AuditRepository, log *zap.Logger) *AuditService {
	return &AuditService{auditRepo: auditRepo, log: log}
}

// Record writes one audit record, best-effort
func (s *AuditService) Record(ctx context.Context, operatorID uint, action, resourceID, detail, ip string) {
	record := &models.AuditRecord{
		OperatorID: operatorID,
		Action:     action,
		ResourceID: resourceID,
		Detail:     detail,
		IPAddress:  ip,
	}

	if err := s.auditRepo.Create(ctx, record); err != nil {
		s.log.Warn("audit record write failed",
			zap.String("action", action),
			zap.String("resourceId", resourceID),
			zap.Error(err),
		)
	}
}

// History lists the audit trail of one backend resource
func (s *AuditService) History(ctx context.Context, resourceID string, limit int) ([]*models.AuditRecord, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.auditRepo.ListByResource(ctx, resourceID, limit)
}

// OperatorHistory lists the actions one operator performed
func (s *AuditService) OperatorHistory(ctx context.Context, operatorID uint, page, limit int) ([]*models.AuditRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.auditRepo.ListByOperator(ctx, operatorID, (page-1)*limit, limit)
}
