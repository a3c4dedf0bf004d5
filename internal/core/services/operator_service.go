package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/adapters/persistence/repositories"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/pkg/statuscache"
)

// OperatorService handles admin management of console operator accounts
type OperatorService struct {
	operatorRepo     repositories.OperatorRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	statusCache      statuscache.Cache
	log              *zap.Logger
}

// NewOperatorService creates a new operator service
func NewOperatorService(
	operatorRepo repositories.OperatorRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	statusCache statuscache.Cache,
	log *zap.Logger,
) *OperatorService {
	return &OperatorService{
		operatorRepo:     operatorRepo,
		refreshTokenRepo: refreshTokenRepo,
		statusCache:      statusCache,
		log:              log,
	}
}

// OperatorListOutput represents a page of operators
type OperatorListOutput struct {
	Operators []*models.OperatorResponse `json:"operators"`
	Total     int64                      `json:"total"`
	Page      int                        `json:"page"`
	Limit     int                        `json:"limit"`
}

// List lists operators, optionally filtered by approval status
func (s *OperatorService) List(ctx context.Context, status string, page, limit int) (*OperatorListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	operators, total, err := s.operatorRepo.List(ctx, status, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.OperatorResponse, 0, len(operators))
	for _, op := range operators {
		responses = append(responses, op.ToResponse())
	}

	return &OperatorListOutput{
		Operators: responses,
		Total:     total,
		Page:      page,
		Limit:     limit,
	}, nil
}

// Get gets one operator by ID
func (s *OperatorService) Get(ctx context.Context, id uint) (*models.OperatorResponse, error) {
	operator, err := s.operatorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOperatorNotFound
		}
		return nil, err
	}
	return operator.ToResponse(), nil
}

// Approve marks a pending operator as approved
func (s *OperatorService) Approve(ctx context.Context, id uint) (*models.OperatorResponse, error) {
	return s.setStatus(ctx, id, domain.OperatorApproved)
}

// Reject marks an operator as rejected and kills its sessions
func (s *OperatorService) Reject(ctx context.Context, id uint) (*models.OperatorResponse, error) {
	operator, err := s.setStatus(ctx, id, domain.OperatorRejected)
	if err != nil {
		return nil, err
	}
	if err := s.refreshTokenRepo.RevokeAllByOperatorID(ctx, id); err != nil {
		s.log.Warn("revoking sessions of rejected operator failed",
			zap.Uint("operatorId", id),
			zap.Error(err),
		)
	}
	return operator, nil
}

// setStatus updates the status and drops the cached value so the guard picks
// up the change on the operator's next request.
func (s *OperatorService) setStatus(ctx context.Context, id uint, status string) (*models.OperatorResponse, error) {
	operator, err := s.operatorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOperatorNotFound
		}
		return nil, err
	}

	if err := s.operatorRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	operator.Status = status

	if err := s.statusCache.Clear(ctx, operator.UID); err != nil {
		s.log.Warn("status cache clear failed", zap.String("uid", operator.UID), zap.Error(err))
	}

	s.log.Info("operator status changed",
		zap.String("email", operator.Email),
		zap.String("status", status),
	)

	return operator.ToResponse(), nil
}
