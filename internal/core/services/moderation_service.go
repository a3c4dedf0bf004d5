package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/phol232/Financiera/internal/adapters/backend"
	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/permissions"
)

// ModerationService proxies account and card moderation to the core-banking
// backend, enforcing the console role tables in front of every call.
type ModerationService struct {
	client  *backend.Client
	perms   *permissions.Evaluator
	audit   *AuditService
	microID string
	log     *zap.Logger
}

// NewModerationService creates a new moderation service
func NewModerationService(
	client *backend.Client,
	perms *permissions.Evaluator,
	audit *AuditService,
	microID string,
	log *zap.Logger,
) *ModerationService {
	return &ModerationService{
		client:  client,
		perms:   perms,
		audit:   audit,
		microID: microID,
		log:     log,
	}
}

var accountStatusActions = map[string]string{
	"active":  permissions.ActionAccountsActivate,
	"blocked": permissions.ActionAccountsBlock,
	"closed":  permissions.ActionAccountsClose,
}

// ListAccounts lists the microfinanciera's customer accounts with optional
// filters
func (s *ModerationService) ListAccounts(ctx context.Context, op Operator, filters backend.AccountFilters) ([]domain.CustomerAccount, error) {
	if !s.perms.CanPerform(permissions.ActionAccountsView, op.Role, "", op.UID) {
		return nil, domain.ErrPermissionDenied
	}
	return s.client.ListAccounts(ctx, s.microID, filters)
}

// GetAccount fetches one customer account
func (s *ModerationService) GetAccount(ctx context.Context, op Operator, accountID string) (*domain.CustomerAccount, error) {
	if !s.perms.CanPerform(permissions.ActionAccountsView, op.Role, "", op.UID) {
		return nil, domain.ErrPermissionDenied
	}
	return s.client.GetAccount(ctx, s.microID, accountID)
}

// ListCards lists the microfinanciera's customer cards with optional filters
func (s *ModerationService) ListCards(ctx context.Context, op Operator, filters backend.CardFilters) ([]domain.Card, error) {
	if !s.perms.CanPerform(permissions.ActionCardsView, op.Role, "", op.UID) {
		return nil, domain.ErrPermissionDenied
	}
	return s.client.ListCards(ctx, s.microID, filters)
}

// GetCard fetches one customer card
func (s *ModerationService) GetCard(ctx context.Context, op Operator, cardID string) (*domain.Card, error) {
	if !s.perms.CanPerform(permissions.ActionCardsView, op.Role, "", op.UID) {
		return nil, domain.ErrPermissionDenied
	}
	return s.client.GetCard(ctx, s.microID, cardID)
}

// ApproveAccount approves a pending customer account
func (s *ModerationService) ApproveAccount(ctx context.Context, op Operator, accountID string) error {
	if !s.perms.CanPerform(permissions.ActionAccountsActivate, op.Role, "", op.UID) {
		return domain.ErrPermissionDenied
	}
	if err := s.client.ApproveAccount(ctx, s.microID, accountID); err != nil {
		return err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionAccountModerate, accountID, "approve", op.IP)
	return nil
}

// RejectAccount rejects a pending customer account; a reason is required
func (s *ModerationService) RejectAccount(ctx context.Context, op Operator, accountID, reason string) error {
	if !s.perms.CanPerform(permissions.ActionAccountsActivate, op.Role, "", op.UID) {
		return domain.ErrPermissionDenied
	}
	if strings.TrimSpace(reason) == "" {
		return domain.ErrReasonRequired
	}
	if err := s.client.RejectAccount(ctx, s.microID, accountID, reason); err != nil {
		return err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionAccountModerate, accountID, "reject: "+reason, op.IP)
	return nil
}

// ChangeAccountStatus changes the status of an active customer account. The
// required permission depends on the target status; blocking and closing
// require a reason.
func (s *ModerationService) ChangeAccountStatus(ctx context.Context, op Operator, accountID, status, reason string) error {
	action, ok := accountStatusActions[status]
	if !ok {
		return domain.ErrInvalidInput
	}
	if !s.perms.CanPerform(action, op.Role, "", op.UID) {
		return domain.ErrPermissionDenied
	}
	if status != "active" && strings.TrimSpace(reason) == "" {
		return domain.ErrReasonRequired
	}
	if err := s.client.ChangeAccountStatus(ctx, s.microID, accountID, status, reason); err != nil {
		return err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionAccountModerate, accountID,
		fmt.Sprintf("status %s", status), op.IP)
	return nil
}

// ApproveCard approves a pending card
func (s *ModerationService) ApproveCard(ctx context.Context, op Operator, cardID string) error {
	if !s.perms.CanPerform(permissions.ActionCardsActivate, op.Role, "", op.UID) {
		return domain.ErrPermissionDenied
	}
	if err := s.client.ApproveCard(ctx, s.microID, cardID); err != nil {
		return err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionCardModerate, cardID, "approve", op.IP)
	return nil
}

// RejectCard rejects a pending card; a reason is required
func (s *ModerationService) RejectCard(ctx context.Context, op Operator, cardID, reason, evidence string) error {
	if !s.perms.CanPerform(permissions.ActionCardsActivate, op.Role, "", op.UID) {
		return domain.ErrPermissionDenied
	}
	if strings.TrimSpace(reason) == "" {
		return domain.ErrReasonRequired
	}
	if err := s.client.RejectCard(ctx, s.microID, cardID, reason, evidence); err != nil {
		return err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionCardModerate, cardID, "reject: "+reason, op.IP)
	return nil
}

// SuspendCard suspends an active card; a reason is required
func (s *ModerationService) SuspendCard(ctx context.Context, op Operator, cardID, reason, evidence string) error {
	if !s.perms.CanPerform(permissions.ActionCardsSuspend, op.Role, "", op.UID) {
		return domain.ErrPermissionDenied
	}
	if strings.TrimSpace(reason) == "" {
		return domain.ErrReasonRequired
	}
	if err := s.client.SuspendCard(ctx, s.microID, cardID, reason, evidence); err != nil {
		return err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionCardModerate, cardID, "suspend: "+reason, op.IP)
	return nil
}

// ReactivateCard reactivates a suspended card
func (s *ModerationService) ReactivateCard(ctx context.Context, op Operator, cardID string) error {
	if !s.perms.CanPerform(permissions.ActionCardsActivate, op.Role, "", op.UID) {
		return domain.ErrPermissionDenied
	}
	if err := s.client.ReactivateCard(ctx, s.microID, cardID); err != nil {
		return err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionCardModerate, cardID, "reactivate", op.IP)
	return nil
}

// CloseCard permanently closes a card; a reason is required
func (s *ModerationService) CloseCard(ctx context.Context, op Operator, cardID, reason, evidence string) error {
	if !s.perms.CanPerform(permissions.ActionCardsClose, op.Role, "", op.UID) {
		return domain.ErrPermissionDenied
	}
	if strings.TrimSpace(reason) == "" {
		return domain.ErrReasonRequired
	}
	if err := s.client.CloseCard(ctx, s.microID, cardID, reason, evidence); err != nil {
		return err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionCardModerate, cardID, "close: "+reason, op.IP)
	return nil
}
