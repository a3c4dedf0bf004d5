package repositories

import (
	"context"

	"github.com/phol232/Financiera/internal/adapters/persistence/models"
)

// OperatorRepository defines operator repository interface
type OperatorRepository interface {
	Create(ctx context.Context, operator *models.Operator) error
	GetByID(ctx context.Context, id uint) (*models.Operator, error)
	GetByUID(ctx context.Context, uid string) (*models.Operator, error)
	GetByEmail(ctx context.Context, email string) (*models.Operator, error)
	Update(ctx context.Context, operator *models.Operator) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, status string, offset, limit int) ([]*models.Operator, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUID(ctx context.Context, uid string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByOperatorID(ctx context.Context, operatorID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
	CountActiveByOperatorID(ctx context.Context, operatorID uint) (int64, error)
}

// AuditRepository defines audit record repository interface
type AuditRepository interface {
	Create(ctx context.Context, record *models.AuditRecord) error
	ListByOperator(ctx context.Context, operatorID uint, offset, limit int) ([]*models.AuditRecord, int64, error)
	ListByResource(ctx context.Context, resourceID string, limit int) ([]*models.AuditRecord, error)
}
