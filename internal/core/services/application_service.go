package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/phol232/Financiera/internal/adapters/backend"
	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/permissions"
	"github.com/phol232/Financiera/internal/core/workflow"
)

// ApplicationService drives the credit-application workflow for console
// operators. Each operator gets one workflow.Controller session, created
// lazily and kept until logout; the session holds the open application and its
// local overrides.
type ApplicationService struct {
	client  *backend.Client
	perms   *permissions.Evaluator
	audit   *AuditService
	microID string
	log     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*workflow.Controller
}

// NewApplicationService creates a new application workflow service
func NewApplicationService(
	client *backend.Client,
	perms *permissions.Evaluator,
	audit *AuditService,
	microID string,
	log *zap.Logger,
) *ApplicationService {
	return &ApplicationService{
		client:   client,
		perms:    perms,
		audit:    audit,
		microID:  microID,
		log:      log,
		sessions: make(map[string]*workflow.Controller),
	}
}

// Operator identifies the caller of every workflow operation
type Operator struct {
	ID   uint
	UID  string
	Role domain.Role
	IP   string
}

func (s *ApplicationService) actor(op Operator) workflow.Actor {
	return workflow.Actor{ID: op.UID, Role: op.Role}
}

// session returns the operator's workflow controller, creating it on first use
func (s *ApplicationService) session(op Operator) *workflow.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, ok := s.sessions[op.UID]
	if !ok {
		ctrl = workflow.NewController(s.client, s.perms, s.microID, s.actor(op), s.log)
		s.sessions[op.UID] = ctrl
	}
	return ctrl
}

// EndSession discards the operator's workflow session, called on logout
func (s *ApplicationService) EndSession(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctrl, ok := s.sessions[uid]; ok {
		ctrl.Close()
		delete(s.sessions, uid)
	}
}

// ApplicationActions are the gating flags the detail view renders buttons from
type ApplicationActions struct {
	CanCalculateScore bool `json:"canCalculateScore"`
	CanEvaluate       bool `json:"canEvaluate"`
	CanDisburse       bool `json:"canDisburse"`
}

// ApplicationView is an application as the detail view sees it: the effective
// merged state plus the action gating for the calling operator
type ApplicationView struct {
	Application *domain.Application `json:"application"`
	Actions     ApplicationActions  `json:"actions"`
}

func (s *ApplicationService) view(ctrl *workflow.Controller) *ApplicationView {
	eff := ctrl.Effective()
	if eff == nil {
		return nil
	}
	return &ApplicationView{
		Application: eff,
		Actions: ApplicationActions{
			CanCalculateScore: ctrl.CanCalculateScore(),
			CanEvaluate:       ctrl.CanEvaluate(),
			CanDisburse:       ctrl.CanDisburse(),
		},
	}
}

// List lists applications with optional filters. Analysts only see the list
// already filtered by the backend; ownership scoping applies to actions, not
// to viewing.
func (s *ApplicationService) List(ctx context.Context, op Operator, filters backend.ApplicationFilters) ([]domain.Application, error) {
	if !s.perms.CanPerform(permissions.ActionApplicationsView, op.Role, "", op.UID) {
		return nil, domain.ErrPermissionDenied
	}
	return s.client.ListApplications(ctx, s.microID, filters)
}

// Open selects an application into the operator's session and returns the
// detail view
func (s *ApplicationService) Open(ctx context.Context, op Operator, applicationID string) (*ApplicationView, error) {
	if !s.perms.CanPerform(permissions.ActionApplicationsView, op.Role, "", op.UID) {
		return nil, domain.ErrPermissionDenied
	}
	ctrl := s.session(op)
	if _, err := ctrl.Select(ctx, applicationID); err != nil {
		return nil, err
	}
	return s.view(ctrl), nil
}

// Current returns the detail view of the operator's open application, or nil
func (s *ApplicationService) Current(op Operator) *ApplicationView {
	return s.view(s.session(op))
}

// CloseDetail closes the operator's detail view, discarding overrides
func (s *ApplicationService) CloseDetail(op Operator) {
	s.session(op).Close()
}

// Assign assigns an analyst to an application
func (s *ApplicationService) Assign(ctx context.Context, op Operator, applicationID, analystID string) error {
	if !s.perms.CanPerform(permissions.ActionApplicationsAssign, op.Role, "", op.UID) {
		return domain.ErrPermissionDenied
	}
	if err := s.client.AssignAnalyst(ctx, s.microID, applicationID, analystID); err != nil {
		return err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionAssign, applicationID,
		fmt.Sprintf("assigned to %s", analystID), op.IP)
	return nil
}

// CalculateScore runs scoring for the open application
func (s *ApplicationService) CalculateScore(ctx context.Context, op Operator) (*domain.Scoring, *ApplicationView, error) {
	ctrl := s.session(op)
	scoring, err := ctrl.CalculateScore(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionCalculateScore, ctrl.SelectedID(),
		fmt.Sprintf("score %.0f", scoring.Score), op.IP)
	return scoring, s.view(ctrl), nil
}

// Decide submits a manual approve/reject decision for the open application
func (s *ApplicationService) Decide(ctx context.Context, op Operator, decisionType, comments string) (*ApplicationView, error) {
	ctrl := s.session(op)
	if err := ctrl.Evaluate(ctx, decisionType, comments); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionDecision, ctrl.SelectedID(), decisionType, op.IP)
	return s.view(ctrl), nil
}

// DisbursementAccounts loads the eligible destination accounts for the open
// application and opens the disbursement dialog
func (s *ApplicationService) DisbursementAccounts(ctx context.Context, op Operator) ([]domain.CustomerAccount, error) {
	return s.session(op).OpenDisbursementDialog(ctx)
}

// Disburse releases the approved funds of the open application
func (s *ApplicationService) Disburse(ctx context.Context, op Operator, accountID string) (*ApplicationView, error) {
	ctrl := s.session(op)
	if err := ctrl.Disburse(ctx, accountID); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, op.ID, models.AuditActionDisburse, ctrl.SelectedID(),
		fmt.Sprintf("account %s", accountID), op.IP)
	return s.view(ctrl), nil
}

// Analysts searches the backend's credit analysts, used by the assign dialog
func (s *ApplicationService) Analysts(ctx context.Context, op Operator, search string) ([]domain.Analyst, error) {
	if !s.perms.CanPerform(permissions.ActionApplicationsAssign, op.Role, "", op.UID) {
		return nil, domain.ErrPermissionDenied
	}
	return s.client.SearchAnalysts(ctx, s.microID, search)
}

// ScoringConfig returns the backend's scoring configuration, admin only
func (s *ApplicationService) ScoringConfig(ctx context.Context, op Operator) (json.RawMessage, error) {
	if !s.perms.CanAccessPage("/settings", op.Role) {
		return nil, domain.ErrPermissionDenied
	}
	return s.client.GetScoringConfig(ctx, s.microID)
}

// ScoringMetrics returns the backend's scoring metrics for a date range, admin
// only
func (s *ApplicationService) ScoringMetrics(ctx context.Context, op Operator, startDate, endDate string) (json.RawMessage, error) {
	if !s.perms.CanAccessPage("/settings", op.Role) {
		return nil, domain.ErrPermissionDenied
	}
	return s.client.GetScoringMetrics(ctx, s.microID, startDate, endDate)
}
