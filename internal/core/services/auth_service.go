package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/adapters/persistence/repositories"
	"github.com/phol232/Financiera/internal/config"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/pkg/jwt"
	"github.com/phol232/Financiera/internal/pkg/password"
	"github.com/phol232/Financiera/internal/pkg/statuscache"
)

// AuthService handles authentication business logic
type AuthService struct {
	operatorRepo     repositories.OperatorRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	statusCache      statuscache.Cache
	cfg              *config.Config
	log              *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	operatorRepo repositories.OperatorRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	statusCache statuscache.Cache,
	cfg *config.Config,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		operatorRepo:     operatorRepo,
		refreshTokenRepo: refreshTokenRepo,
		statusCache:      statusCache,
		cfg:              cfg,
		log:              log,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required,min=3,max=100"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role" validate:"required,oneof=analyst employee"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Operator     *models.OperatorResponse `json:"operator"`
	AccessToken  string                   `json:"access_token"`
	RefreshToken string                   `json:"refresh_token"`
}

// Register creates a new operator account in pending status. No tokens are
// issued; an admin has to approve the account before it can log in.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*models.OperatorResponse, error) {
	role := domain.Role(input.Role)
	if role != domain.RoleAnalyst && role != domain.RoleEmployee {
		return nil, domain.ErrInvalidRole
	}

	if !password.ValidatePassword(input.Password) {
		return nil, domain.ErrWeakPassword
	}

	exists, err := s.operatorRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrOperatorAlreadyExists
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	operator := &models.Operator{
		UID:         uuid.New().String(),
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Password:    hashedPassword,
		Role:        string(role),
		Status:      domain.OperatorPending,
	}

	if err := s.operatorRepo.Create(ctx, operator); err != nil {
		return nil, err
	}

	s.log.Info("operator registered, awaiting approval",
		zap.String("email", operator.Email),
		zap.String("role", operator.Role),
	)

	return operator.ToResponse(), nil
}

// Login authenticates an approved operator
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	operator, err := s.operatorRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, operator.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	if operator.Status != domain.OperatorApproved {
		return nil, domain.ErrOperatorNotApproved
	}

	tokens, err := s.generateTokens(operator)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, operator.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	// Warm the status cache so the guard skips the first lookup.
	if err := s.statusCache.Set(ctx, operator.UID, operator.Status); err != nil {
		s.log.Warn("status cache set failed", zap.Error(err))
	}

	s.log.Info("operator logged in", zap.String("email", operator.Email))

	return &AuthResponse{
		Operator:     operator.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// RefreshToken refreshes the access token using refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	tokenHash := password.HashToken(refreshToken)

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	if storedToken.IsRevoked() {
		return nil, domain.ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	operator, err := s.operatorRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrOperatorNotFound
	}

	if operator.Status != domain.OperatorApproved {
		return nil, domain.ErrOperatorNotApproved
	}

	// Token rotation: the presented refresh token is single-use.
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(operator)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, operator.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	return &AuthResponse{
		Operator:     operator.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Logout revokes the refresh token and drops the cached account status
func (s *AuthService) Logout(ctx context.Context, uid, refreshToken string) error {
	tokenHash := password.HashToken(refreshToken)

	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, tokenHash); err != nil {
		return err
	}

	if err := s.statusCache.Clear(ctx, uid); err != nil {
		s.log.Warn("status cache clear failed", zap.String("uid", uid), zap.Error(err))
	}

	s.log.Info("operator logged out", zap.String("uid", uid))
	return nil
}

// LogoutAll revokes all refresh tokens for an operator
func (s *AuthService) LogoutAll(ctx context.Context, operatorID uint, uid string) error {
	if err := s.refreshTokenRepo.RevokeAllByOperatorID(ctx, operatorID); err != nil {
		return err
	}

	if err := s.statusCache.Clear(ctx, uid); err != nil {
		s.log.Warn("status cache clear failed", zap.String("uid", uid), zap.Error(err))
	}

	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetOperatorByID gets an operator by ID
func (s *AuthService) GetOperatorByID(ctx context.Context, operatorID uint) (*models.Operator, error) {
	return s.operatorRepo.GetByID(ctx, operatorID)
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(operator *models.Operator) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		operator.ID,
		operator.UID,
		operator.Email,
		operator.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()

	refreshToken, err := jwt.GenerateRefreshToken(
		operator.ID,
		tokenID,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, operatorID uint, refreshToken string) error {
	token := &models.RefreshToken{
		OperatorID: operatorID,
		TokenHash:  password.HashToken(refreshToken),
		ExpiresAt:  jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}

	return s.refreshTokenRepo.Create(ctx, token)
}
