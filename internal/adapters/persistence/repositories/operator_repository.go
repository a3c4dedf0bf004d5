package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/phol232/Financiera/internal/adapters/persistence/models"
)

// operatorRepository implements OperatorRepository interface
type operatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository creates a new operator repository
func NewOperatorRepository(db *gorm.DB) OperatorRepository {
	return &operatorRepository{db: db}
}

// Create creates a new operator
func (r *operatorRepository) Create(ctx context.Context, operator *models.Operator) error {
	return r.db.WithContext(ctx).Create(operator).Error
}

// GetByID gets an operator by ID
func (r *operatorRepository) GetByID(ctx context.Context, id uint) (*models.Operator, error) {
	var operator models.Operator
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&operator).Error
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

// GetByUID gets an operator by backend UID
func (r *operatorRepository) GetByUID(ctx context.Context, uid string) (*models.Operator, error) {
	var operator models.Operator
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&operator).Error
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

// GetByEmail gets an operator by email
func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	var operator models.Operator
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&operator).Error
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

// Update updates an operator
func (r *operatorRepository) Update(ctx context.Context, operator *models.Operator) error {
	return r.db.WithContext(ctx).Save(operator).Error
}

// UpdateStatus updates only the moderation status of an operator
func (r *operatorRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Operator{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete soft deletes an operator
func (r *operatorRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Operator{}, id).Error
}

// List lists operators with pagination, optionally filtered by status
func (r *operatorRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Operator, int64, error) {
	var operators []*models.Operator
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Operator{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&operators).Error; err != nil {
		return nil, 0, err
	}

	return operators, total, nil
}

// ExistsByEmail checks if email exists
func (r *operatorRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Operator{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// ExistsByUID checks if backend UID exists
func (r *operatorRepository) ExistsByUID(ctx context.Context, uid string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Operator{}).Where("uid = ?", uid).Count(&count).Error
	return count > 0, err
}
