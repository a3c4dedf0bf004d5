package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/permissions"
)

// RemoteService is the subset of the core-banking backend the workflow
// controller drives. Every call is a single fallible operation; the controller
// treats each as at-most-once when deciding whether to write an override.
type RemoteService interface {
	GetApplication(ctx context.Context, microID, applicationID string) (*domain.Application, error)
	CalculateScore(ctx context.Context, microID, applicationID string) (*domain.ScoringResult, error)
	GetScoring(ctx context.Context, microID, applicationID string) (*domain.ScoringResult, error)
	SubmitDecision(ctx context.Context, microID, applicationID, result, comments string) error
	Disburse(ctx context.Context, microID, applicationID, accountID, requestID, branchID string) error
	ListCustomerAccounts(ctx context.Context, microID, userID string) ([]domain.CustomerAccount, error)
}

// Actor identifies the operator driving a workflow session. ID is the
// operator's identity in the backend, the value application assignments refer
// to.
type Actor struct {
	ID   string
	Role domain.Role
}

// Controller tracks one detail-view session over a credit application: the
// last fetched snapshot, the local overrides applied on top of it, and the
// gating of the score/evaluate/disburse actions. Snapshots are never mutated;
// every local outcome goes through an Override and is visible only via
// Effective.
type Controller struct {
	mu     sync.Mutex
	remote RemoteService
	perms  *permissions.Evaluator
	log    *zap.Logger
	now    func() time.Time

	microID string
	actor   Actor

	selected  *domain.Application
	overrides map[string]*domain.Override

	accounts       []domain.CustomerAccount
	accountsLoaded bool

	calculatedScoring      *domain.Scoring
	scoringDialogOpen      bool
	disbursementDialogOpen bool
}

// NewController creates a workflow controller for one operator session.
func NewController(remote RemoteService, perms *permissions.Evaluator, microID string, actor Actor, log *zap.Logger) *Controller {
	return &Controller{
		remote:    remote,
		perms:     perms,
		log:       log,
		now:       time.Now,
		microID:   microID,
		actor:     actor,
		overrides: make(map[string]*domain.Override),
	}
}

// Select opens the detail view for an application, fetching a fresh snapshot.
// Selecting a different application discards the previous session's overrides
// and cached accounts.
func (c *Controller) Select(ctx context.Context, applicationID string) (*domain.Application, error) {
	app, err := c.remote.GetApplication(ctx, c.microID, applicationID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected != nil && c.selected.ID != applicationID {
		c.resetSessionLocked()
	}
	c.selected = app
	return c.effectiveLocked(), nil
}

// Close ends the detail-view session and discards all overrides.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
	c.resetSessionLocked()
}

// SelectedID returns the id of the open application, or empty.
func (c *Controller) SelectedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return ""
	}
	return c.selected.ID
}

// Effective returns the merged view of the open application: the server
// snapshot with the local override applied. Nil when nothing is selected.
func (c *Controller) Effective() *domain.Application {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effectiveLocked()
}

// CalculatedScoring returns the last scoring payload, shown in the scoring
// result dialog.
func (c *Controller) CalculatedScoring() *domain.Scoring {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calculatedScoring
}

// ScoringDialogOpen reports whether the scoring result dialog is open.
func (c *Controller) ScoringDialogOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scoringDialogOpen
}

// CloseScoringDialog closes the scoring result dialog.
func (c *Controller) CloseScoringDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scoringDialogOpen = false
}

// DisbursementDialogOpen reports whether the disbursement dialog is open.
func (c *Controller) DisbursementDialogOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disbursementDialogOpen
}

// OpenDisbursementDialog opens the disbursement dialog, loading the owning
// customer's eligible accounts.
func (c *Controller) OpenDisbursementDialog(ctx context.Context) ([]domain.CustomerAccount, error) {
	c.mu.Lock()
	eff := c.effectiveLocked()
	c.mu.Unlock()

	if eff == nil {
		return nil, domain.ErrNoApplicationSelected
	}

	accounts, err := c.remote.ListCustomerAccounts(ctx, c.microID, eff.UserID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = accounts
	c.accountsLoaded = true
	c.disbursementDialogOpen = true
	return accounts, nil
}

// CloseDisbursementDialog closes the disbursement dialog.
func (c *Controller) CloseDisbursementDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disbursementDialogOpen = false
}

// CanCalculateScore reports whether the score action is currently legal:
// role-permitted and the application is not already approved.
func (c *Controller) CanCalculateScore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := c.effectiveLocked()
	if eff == nil {
		return false
	}
	if !c.perms.CanPerform(permissions.ActionApplicationsCalculateScore, c.actor.Role, "", c.actor.ID) {
		return false
	}
	return eff.Status != domain.StatusApproved
}

// CanEvaluate reports whether a manual decision is currently legal: role-
// permitted (ownership-scoped for analysts), scoring present, and the
// application neither approved nor disbursed.
func (c *Controller) CanEvaluate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := c.effectiveLocked()
	if eff == nil {
		return false
	}
	if !c.perms.CanPerform(permissions.ActionApplicationsEvaluate, c.actor.Role, eff.AssignedUserID, c.actor.ID) {
		return false
	}
	if eff.Scoring == nil {
		return false
	}
	return eff.Status != domain.StatusApproved && eff.Status != domain.StatusDisbursed
}

// CanDisburse reports whether disbursement is currently legal: role-permitted
// (ownership-scoped for analysts) and the application is approved.
func (c *Controller) CanDisburse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := c.effectiveLocked()
	if eff == nil {
		return false
	}
	if !c.perms.CanPerform(permissions.ActionApplicationsEvaluate, c.actor.Role, eff.AssignedUserID, c.actor.ID) {
		return false
	}
	return eff.Status == domain.StatusApproved
}

// CalculateScore runs the scoring sequence for the open application: trigger
// the calculation, normalize the result, confirm it against the persisted
// scoring, and commit scoring/decision/provisional-status into the override.
// On any calculation failure nothing is written. If only the confirmatory
// read fails, the unconfirmed calculation result is still committed; the next
// full refresh reconciles it.
func (c *Controller) CalculateScore(ctx context.Context) (*domain.Scoring, error) {
	c.mu.Lock()
	eff := c.effectiveLocked()
	c.mu.Unlock()

	if eff == nil {
		return nil, domain.ErrNoApplicationSelected
	}
	if !c.perms.CanPerform(permissions.ActionApplicationsCalculateScore, c.actor.Role, "", c.actor.ID) {
		return nil, domain.ErrPermissionDenied
	}

	result, err := c.remote.CalculateScore(ctx, c.microID, eff.ID)
	if err != nil {
		return nil, err
	}

	scoring := normalizeScoring(result.Scoring)
	decision := result.Decision

	// The persisted scoring is authoritative: a decision stored concurrently
	// with the calculation would be missing from the calculation response.
	confirmed, err := c.remote.GetScoring(ctx, c.microID, eff.ID)
	if err != nil {
		c.log.Warn("confirmatory scoring read failed, committing unconfirmed result",
			zap.String("applicationId", eff.ID),
			zap.Error(err),
		)
	} else if confirmed != nil && confirmed.Scoring != nil {
		scoring = normalizeScoring(confirmed.Scoring)
		if confirmed.Decision != nil {
			decision = confirmed.Decision
		}
	}

	status := deriveProvisionalStatus(eff.Status, decision)

	c.mu.Lock()
	defer c.mu.Unlock()

	ov := c.ensureOverrideLocked(eff.ID)
	ov.Scoring = scoring
	if decision != nil {
		ov.Decision = decision
	}
	if status != eff.Status {
		ov.Status = status
	}
	c.calculatedScoring = scoring
	c.scoringDialogOpen = true

	return scoring, nil
}

// Evaluate submits a manual approve/reject decision for the open application.
// decisionType is "approve" or "reject"; a reject requires a non-empty
// comment. On success the decision and resulting status are committed to the
// override; closing the detail view is the caller's choice.
func (c *Controller) Evaluate(ctx context.Context, decisionType, comments string) error {
	c.mu.Lock()
	eff := c.effectiveLocked()
	c.mu.Unlock()

	if eff == nil {
		return domain.ErrNoApplicationSelected
	}

	var result string
	switch decisionType {
	case "approve":
		result = domain.DecisionApproved
	case "reject":
		result = domain.DecisionRejected
		if strings.TrimSpace(comments) == "" {
			return domain.ErrDecisionReasonRequired
		}
	default:
		return domain.ErrInvalidDecisionType
	}

	if eff.Scoring == nil {
		return domain.ErrScoringRequired
	}
	if eff.Status == domain.StatusApproved {
		return domain.ErrAlreadyApproved
	}
	if eff.Status == domain.StatusDisbursed {
		return domain.ErrAlreadyDisbursed
	}
	if !c.perms.CanPerform(permissions.ActionApplicationsEvaluate, c.actor.Role, eff.AssignedUserID, c.actor.ID) {
		return domain.ErrPermissionDenied
	}

	if err := c.remote.SubmitDecision(ctx, c.microID, eff.ID, result, comments); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ov := c.ensureOverrideLocked(eff.ID)
	ov.Status = domain.ApplicationStatus(result)
	ov.Decision = &domain.Decision{Result: result, IsAutomatic: false, Comments: comments}
	return nil
}

// Disburse releases the approved funds to a destination account owned by the
// customer. The application id doubles as the idempotency key, so a repeated
// confirmation cannot double-disburse. The disbursement summary is built
// locally from the selected account and the loan amount; the backend call
// returns only an acknowledgement.
func (c *Controller) Disburse(ctx context.Context, accountID string) error {
	c.mu.Lock()
	eff := c.effectiveLocked()
	accounts := c.accounts
	accountsLoaded := c.accountsLoaded
	c.mu.Unlock()

	if eff == nil {
		return domain.ErrNoApplicationSelected
	}
	if eff.Status != domain.StatusApproved {
		return domain.ErrNotApproved
	}

	amount := eff.LoanAmount()
	if amount <= 0 {
		return domain.ErrInvalidLoanAmount
	}

	if !c.perms.CanPerform(permissions.ActionApplicationsEvaluate, c.actor.Role, eff.AssignedUserID, c.actor.ID) {
		return domain.ErrPermissionDenied
	}

	if !accountsLoaded {
		fetched, err := c.remote.ListCustomerAccounts(ctx, c.microID, eff.UserID)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.accounts = fetched
		c.accountsLoaded = true
		c.mu.Unlock()
		accounts = fetched
	}
	if len(accounts) == 0 {
		return domain.ErrNoEligibleAccounts
	}
	if accountID == "" {
		return domain.ErrNoAccountSelected
	}

	var destination *domain.CustomerAccount
	for i := range accounts {
		if accounts[i].ID == accountID {
			destination = &accounts[i]
			break
		}
	}
	if destination == nil {
		return domain.ErrAccountNotEligible
	}

	branchID := eff.BranchID()
	if err := c.remote.Disburse(ctx, c.microID, eff.ID, accountID, eff.ID, branchID); err != nil {
		return err
	}

	details := &domain.DisbursementDetails{
		AccountID:     destination.ID,
		AccountNumber: destination.AccountNumber,
		BankName:      destination.BankName,
		BranchID:      branchID,
		Amount:        amount,
		ProcessedAt:   c.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ov := c.ensureOverrideLocked(eff.ID)
	ov.Status = domain.StatusDisbursed
	ov.DisbursementDetails = details
	c.disbursementDialogOpen = false
	return nil
}

func (c *Controller) effectiveLocked() *domain.Application {
	if c.selected == nil {
		return nil
	}
	return domain.Merge(c.selected, c.overrides[c.selected.ID])
}

func (c *Controller) ensureOverrideLocked(applicationID string) *domain.Override {
	ov, ok := c.overrides[applicationID]
	if !ok {
		ov = &domain.Override{}
		c.overrides[applicationID] = ov
	}
	return ov
}

func (c *Controller) resetSessionLocked() {
	c.overrides = make(map[string]*domain.Override)
	c.accounts = nil
	c.accountsLoaded = false
	c.calculatedScoring = nil
	c.scoringDialogOpen = false
	c.disbursementDialogOpen = false
}

// normalizeScoring cross-populates Score and TotalScore from whichever is
// present, defaulting both to 0. A nil scoring yields a zero-valued one.
func normalizeScoring(s *domain.Scoring) *domain.Scoring {
	if s == nil {
		return &domain.Scoring{}
	}
	out := *s
	if out.Score == 0 && out.TotalScore != 0 {
		out.Score = out.TotalScore
	}
	if out.TotalScore == 0 && out.Score != 0 {
		out.TotalScore = out.Score
	}
	return &out
}

// deriveProvisionalStatus maps a scoring decision to the status shown until
// the next authoritative refresh. A rejected or observed decision takes the
// matching status immediately; any other decision leaves the application
// waiting for confirmation. A disbursed application never moves backwards.
func deriveProvisionalStatus(current domain.ApplicationStatus, decision *domain.Decision) domain.ApplicationStatus {
	if current == domain.StatusDisbursed {
		return domain.StatusDisbursed
	}
	if decision == nil {
		return current
	}
	switch decision.Result {
	case domain.DecisionRejected:
		return domain.StatusRejected
	case domain.DecisionObserved:
		return domain.StatusObserved
	default:
		return domain.StatusDecisionPending
	}
}
