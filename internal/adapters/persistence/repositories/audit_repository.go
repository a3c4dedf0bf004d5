package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/phol232/Financiera/internal/adapters/persistence/models"
)

// auditRepository implements AuditRepository interface
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit record repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create creates a new audit record
func (r *auditRepository) Create(ctx context.Context, record *models.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListByOperator lists audit records for one operator, newest first
func (r *auditRepository) ListByOperator(ctx context.Context, operatorID uint, offset, limit int) ([]*models.AuditRecord, int64, error) {
	var records []*models.AuditRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AuditRecord{}).Where("operator_id = ?", operatorID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByResource lists audit records for one backend resource, newest first
func (r *auditRepository) ListByResource(ctx context.Context, resourceID string, limit int) ([]*models.AuditRecord, error) {
	var records []*models.AuditRecord
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
