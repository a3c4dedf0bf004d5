package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/permissions"
)

type disburseCall struct {
	applicationID string
	accountID     string
	requestID     string
	branchID      string
}

// fakeRemote implements RemoteService with pluggable behavior per operation.
type fakeRemote struct {
	getApplicationFn func(applicationID string) (*domain.Application, error)
	calculateScoreFn func(applicationID string) (*domain.ScoringResult, error)
	getScoringFn     func(applicationID string) (*domain.ScoringResult, error)
	submitDecisionFn func(applicationID, result, comments string) error
	disburseFn       func(call disburseCall) error
	listAccountsFn   func(userID string) ([]domain.CustomerAccount, error)

	decisionCalls  int
	disburseCalls  []disburseCall
	calculateCalls int
	listCalls      int
}

func (f *fakeRemote) GetApplication(_ context.Context, _, applicationID string) (*domain.Application, error) {
	if f.getApplicationFn == nil {
		return nil, errors.New("unexpected GetApplication")
	}
	return f.getApplicationFn(applicationID)
}

func (f *fakeRemote) CalculateScore(_ context.Context, _, applicationID string) (*domain.ScoringResult, error) {
	f.calculateCalls++
	if f.calculateScoreFn == nil {
		return nil, errors.New("unexpected CalculateScore")
	}
	return f.calculateScoreFn(applicationID)
}

func (f *fakeRemote) GetScoring(_ context.Context, _, applicationID string) (*domain.ScoringResult, error) {
	if f.getScoringFn == nil {
		return nil, errors.New("scoring not found")
	}
	return f.getScoringFn(applicationID)
}

func (f *fakeRemote) SubmitDecision(_ context.Context, _, applicationID, result, comments string) error {
	f.decisionCalls++
	if f.submitDecisionFn == nil {
		return nil
	}
	return f.submitDecisionFn(applicationID, result, comments)
}

func (f *fakeRemote) Disburse(_ context.Context, _, applicationID, accountID, requestID, branchID string) error {
	call := disburseCall{applicationID: applicationID, accountID: accountID, requestID: requestID, branchID: branchID}
	f.disburseCalls = append(f.disburseCalls, call)
	if f.disburseFn == nil {
		return nil
	}
	return f.disburseFn(call)
}

func (f *fakeRemote) ListCustomerAccounts(_ context.Context, _, userID string) ([]domain.CustomerAccount, error) {
	f.listCalls++
	if f.listAccountsFn == nil {
		return nil, nil
	}
	return f.listAccountsFn(userID)
}

func baseApplication(status domain.ApplicationStatus) *domain.Application {
	return &domain.Application{
		ID:             "app-1",
		Status:         status,
		UserID:         "cust-1",
		AssignedUserID: "analyst-1",
		FinancialInfo:  &domain.FinancialInfo{LoanAmount: 1500},
		Routing:        &domain.Routing{BranchID: "branch-7"},
	}
}

func testAccounts() []domain.CustomerAccount {
	return []domain.CustomerAccount{
		{ID: "acc-1", AccountNumber: "001-123", BankName: "BCP"},
		{ID: "acc-2", AccountNumber: "002-456", BankName: "Interbank"},
	}
}

func newTestController(t *testing.T, remote *fakeRemote, actor Actor) *Controller {
	t.Helper()
	return NewController(remote, permissions.NewEvaluator(), "mf-test", actor, zap.NewNop())
}

func selectApplication(t *testing.T, c *Controller, remote *fakeRemote, app *domain.Application) {
	t.Helper()
	remote.getApplicationFn = func(id string) (*domain.Application, error) {
		require.Equal(t, app.ID, id)
		return app, nil
	}
	_, err := c.Select(context.Background(), app.ID)
	require.NoError(t, err)
}

var adminActor = Actor{ID: "admin-1", Role: domain.RoleAdmin}

func TestGating_PendingWithoutScoring(t *testing.T) {
	remote := &fakeRemote{}
	c := newTestController(t, remote, Actor{ID: "analyst-1", Role: domain.RoleAnalyst})
	selectApplication(t, c, remote, baseApplication(domain.StatusPending))

	assert.True(t, c.CanCalculateScore())
	assert.False(t, c.CanEvaluate())
	assert.False(t, c.CanDisburse())
}

func TestGating_EvaluateAndDisburseNeverBothTrue(t *testing.T) {
	statuses := []domain.ApplicationStatus{
		domain.StatusPending, domain.StatusInEvaluation, domain.StatusInReview,
		domain.StatusConditioned, domain.StatusApproved, domain.StatusRejected,
		domain.StatusDisbursed, domain.StatusObserved, domain.StatusDecisionPending,
	}
	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			remote := &fakeRemote{}
			c := newTestController(t, remote, adminActor)
			app := baseApplication(status)
			app.Scoring = &domain.Scoring{Score: 700, TotalScore: 700}
			selectApplication(t, c, remote, app)

			canEvaluate := c.CanEvaluate()
			canDisburse := c.CanDisburse()
			assert.False(t, canEvaluate && canDisburse)
			if canDisburse {
				assert.Equal(t, domain.StatusApproved, c.Effective().Status)
			}
			if canEvaluate {
				assert.NotNil(t, c.Effective().Scoring)
				assert.NotContains(t, []domain.ApplicationStatus{domain.StatusApproved, domain.StatusDisbursed}, c.Effective().Status)
			}
		})
	}
}

func TestGating_AnalystOwnership(t *testing.T) {
	remote := &fakeRemote{}
	c := newTestController(t, remote, Actor{ID: "analyst-2", Role: domain.RoleAnalyst})
	app := baseApplication(domain.StatusApproved)
	app.Scoring = &domain.Scoring{Score: 700, TotalScore: 700}
	selectApplication(t, c, remote, app) // assigned to analyst-1

	assert.False(t, c.CanEvaluate())
	assert.False(t, c.CanDisburse())

	adminRemote := &fakeRemote{}
	admin := newTestController(t, adminRemote, adminActor)
	selectApplication(t, admin, adminRemote, app)
	assert.True(t, admin.CanDisburse())
}

func TestCalculateScore_NormalizesScoreFields(t *testing.T) {
	tests := []struct {
		name    string
		scoring *domain.Scoring
		want    float64
	}{
		{"only totalScore", &domain.Scoring{TotalScore: 720}, 720},
		{"only score", &domain.Scoring{Score: 650}, 650},
		{"neither", &domain.Scoring{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{
				calculateScoreFn: func(string) (*domain.ScoringResult, error) {
					return &domain.ScoringResult{Scoring: tt.scoring}, nil
				},
			}
			c := newTestController(t, remote, adminActor)
			selectApplication(t, c, remote, baseApplication(domain.StatusPending))

			scoring, err := c.CalculateScore(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, scoring.Score)
			assert.Equal(t, tt.want, scoring.TotalScore)

			eff := c.Effective()
			require.NotNil(t, eff.Scoring)
			assert.Equal(t, tt.want, eff.Scoring.Score)
			assert.Equal(t, tt.want, eff.Scoring.TotalScore)
		})
	}
}

func TestCalculateScore_AutomaticApprovalStaysProvisional(t *testing.T) {
	// An automatic "approved" decision must not jump the status to approved;
	// only the decision-pending sentinel is shown until the server confirms.
	remote := &fakeRemote{
		calculateScoreFn: func(string) (*domain.ScoringResult, error) {
			return &domain.ScoringResult{
				Scoring:  &domain.Scoring{Score: 680},
				Decision: &domain.Decision{Result: domain.DecisionApproved, IsAutomatic: true},
			}, nil
		},
	}
	c := newTestController(t, remote, adminActor)
	selectApplication(t, c, remote, baseApplication(domain.StatusPending))

	_, err := c.CalculateScore(context.Background())
	require.NoError(t, err)

	eff := c.Effective()
	assert.Equal(t, domain.StatusDecisionPending, eff.Status)
	assert.True(t, c.CanEvaluate())
	assert.True(t, c.ScoringDialogOpen())
}

func TestCalculateScore_RejectedAndObservedApplyImmediately(t *testing.T) {
	tests := []struct {
		result string
		want   domain.ApplicationStatus
	}{
		{domain.DecisionRejected, domain.StatusRejected},
		{domain.DecisionObserved, domain.StatusObserved},
	}
	for _, tt := range tests {
		t.Run(tt.result, func(t *testing.T) {
			remote := &fakeRemote{
				calculateScoreFn: func(string) (*domain.ScoringResult, error) {
					return &domain.ScoringResult{
						Scoring:  &domain.Scoring{Score: 400},
						Decision: &domain.Decision{Result: tt.result, IsAutomatic: true},
					}, nil
				},
			}
			c := newTestController(t, remote, adminActor)
			selectApplication(t, c, remote, baseApplication(domain.StatusInEvaluation))

			_, err := c.CalculateScore(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Effective().Status)
		})
	}
}

func TestCalculateScore_ConfirmatoryReadWins(t *testing.T) {
	remote := &fakeRemote{
		calculateScoreFn: func(string) (*domain.ScoringResult, error) {
			return &domain.ScoringResult{Scoring: &domain.Scoring{Score: 500}}, nil
		},
		getScoringFn: func(string) (*domain.ScoringResult, error) {
			return &domain.ScoringResult{
				Scoring:  &domain.Scoring{TotalScore: 710, Band: "B"},
				Decision: &domain.Decision{Result: domain.DecisionRejected, IsAutomatic: true},
			}, nil
		},
	}
	c := newTestController(t, remote, adminActor)
	selectApplication(t, c, remote, baseApplication(domain.StatusInEvaluation))

	scoring, err := c.CalculateScore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(710), scoring.Score)
	assert.Equal(t, float64(710), scoring.TotalScore)
	assert.Equal(t, "B", scoring.Band)

	eff := c.Effective()
	assert.Equal(t, domain.StatusRejected, eff.Status)
	require.NotNil(t, eff.Decision)
	assert.Equal(t, domain.DecisionRejected, eff.Decision.Result)
}

func TestCalculateScore_CommitsUnconfirmedOnReadFailure(t *testing.T) {
	remote := &fakeRemote{
		calculateScoreFn: func(string) (*domain.ScoringResult, error) {
			return &domain.ScoringResult{Scoring: &domain.Scoring{Score: 655}}, nil
		},
		getScoringFn: func(string) (*domain.ScoringResult, error) {
			return nil, errors.New("scoring service unavailable")
		},
	}
	c := newTestController(t, remote, adminActor)
	selectApplication(t, c, remote, baseApplication(domain.StatusPending))

	scoring, err := c.CalculateScore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(655), scoring.Score)
	assert.Equal(t, float64(655), c.Effective().Scoring.TotalScore)
}

func TestCalculateScore_FailureWritesNothing(t *testing.T) {
	remote := &fakeRemote{
		calculateScoreFn: func(string) (*domain.ScoringResult, error) {
			return nil, errors.New("scoring engine down")
		},
	}
	c := newTestController(t, remote, adminActor)
	selectApplication(t, c, remote, baseApplication(domain.StatusPending))

	_, err := c.CalculateScore(context.Background())
	require.Error(t, err)

	eff := c.Effective()
	assert.Nil(t, eff.Scoring)
	assert.Equal(t, domain.StatusPending, eff.Status)
	assert.False(t, c.ScoringDialogOpen())
}

func TestCalculateScore_NeverDowngradesDisbursed(t *testing.T) {
	remote := &fakeRemote{
		calculateScoreFn: func(string) (*domain.ScoringResult, error) {
			return &domain.ScoringResult{
				Scoring:  &domain.Scoring{Score: 300},
				Decision: &domain.Decision{Result: domain.DecisionRejected, IsAutomatic: true},
			}, nil
		},
	}
	c := newTestController(t, remote, adminActor)
	selectApplication(t, c, remote, baseApplication(domain.StatusDisbursed))

	_, err := c.CalculateScore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisbursed, c.Effective().Status)
}

func TestEvaluate_RejectRequiresReason(t *testing.T) {
	remote := &fakeRemote{}
	c := newTestController(t, remote, adminActor)
	app := baseApplication(domain.StatusInEvaluation)
	app.Scoring = &domain.Scoring{Score: 600, TotalScore: 600}
	selectApplication(t, c, remote, app)

	err := c.Evaluate(context.Background(), "reject", "   ")
	assert.ErrorIs(t, err, domain.ErrDecisionReasonRequired)
	assert.Equal(t, 0, remote.decisionCalls)
	assert.Equal(t, domain.StatusInEvaluation, c.Effective().Status)
}

func TestEvaluate_RequiresScoring(t *testing.T) {
	remote := &fakeRemote{}
	c := newTestController(t, remote, adminActor)
	selectApplication(t, c, remote, baseApplication(domain.StatusPending))

	err := c.Evaluate(context.Background(), "approve", "")
	assert.ErrorIs(t, err, domain.ErrScoringRequired)
	assert.Equal(t, 0, remote.decisionCalls)
}

func TestEvaluate_ApproveMakesDisbursable(t *testing.T) {
	remote := &fakeRemote{}
	c := newTestController(t, remote, adminActor)
	app := baseApplication(domain.StatusDecisionPending)
	app.Scoring = &domain.Scoring{Score: 680, TotalScore: 680}
	selectApplication(t, c, remote, app)

	require.NoError(t, c.Evaluate(context.Background(), "approve", ""))
	assert.Equal(t, 1, remote.decisionCalls)

	eff := c.Effective()
	assert.Equal(t, domain.StatusApproved, eff.Status)
	require.NotNil(t, eff.Decision)
	assert.False(t, eff.Decision.IsAutomatic)
	assert.True(t, c.CanDisburse())
	assert.False(t, c.CanEvaluate())
}

func TestEvaluate_ServerErrorLeavesStateUnchanged(t *testing.T) {
	remote := &fakeRemote{
		submitDecisionFn: func(string, string, string) error {
			return errors.New("decision conflict")
		},
	}
	c := newTestController(t, remote, adminActor)
	app := baseApplication(domain.StatusInEvaluation)
	app.Scoring = &domain.Scoring{Score: 600, TotalScore: 600}
	selectApplication(t, c, remote, app)

	err := c.Evaluate(context.Background(), "reject", "insufficient income")
	require.Error(t, err)
	assert.Equal(t, domain.StatusInEvaluation, c.Effective().Status)
}

func TestEvaluate_InvalidDecisionType(t *testing.T) {
	remote := &fakeRemote{}
	c := newTestController(t, remote, adminActor)
	app := baseApplication(domain.StatusInEvaluation)
	app.Scoring = &domain.Scoring{Score: 600, TotalScore: 600}
	selectApplication(t, c, remote, app)

	assert.ErrorIs(t, c.Evaluate(context.Background(), "condition", ""), domain.ErrInvalidDecisionType)
	assert.Equal(t, 0, remote.decisionCalls)
}

func TestDisburse_HappyPath(t *testing.T) {
	remote := &fakeRemote{
		listAccountsFn: func(userID string) ([]domain.CustomerAccount, error) {
			assert.Equal(t, "cust-1", userID)
			return testAccounts(), nil
		},
	}
	c := newTestController(t, remote, adminActor)
	selectApplication(t, c, remote, baseApplication(domain.StatusApproved))

	fixed := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	accounts, err := c.OpenDisbursementDialog(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.True(t, c.DisbursementDialogOpen())

	require.NoError(t, c.Disburse(context.Background(), "acc-2"))

	require.Len(t, remote.disburseCalls, 1)
	call := remote.disburseCalls[0]
	assert.Equal(t, "app-1", call.requestID, "idempotency key is the application id")
	assert.Equal(t, "branch-7", call.branchID)

	eff := c.Effective()
	assert.Equal(t, domain.StatusDisbursed, eff.Status)
	require.NotNil(t, eff.DisbursementDetails)
	assert.Equal(t, "acc-2", eff.DisbursementDetails.AccountID)
	assert.Equal(t, "002-456", eff.DisbursementDetails.AccountNumber)
	assert.Equal(t, "Interbank", eff.DisbursementDetails.BankName)
	assert.Equal(t, float64(1500), eff.DisbursementDetails.Amount)
	assert.Equal(t, fixed, eff.DisbursementDetails.ProcessedAt)
	assert.False(t, c.DisbursementDialogOpen())
	assert.False(t, c.CanDisburse())
}

func TestDisburse_SameRequestIDAcrossRetries(t *testing.T) {
	attempts := 0
	remote := &fakeRemote{
		listAccountsFn: func(string) ([]domain.CustomerAccount, error) { return testAccounts(), nil },
		disburseFn: func(disburseCall) error {
			attempts++
			if attempts == 1 {
				return errors.New("network timeout")
			}
			return nil
		},
	}
	c := newTestController(t, remote, adminActor)
	selectApplication(t, c, remote, baseApplication(domain.StatusApproved))

	err := c.Disburse(context.Background(), "acc-1")
	require.Error(t, err)
	// Failed call leaves status untouched, so the retry is still legal.
	assert.Equal(t, domain.StatusApproved, c.Effective().Status)

	require.NoError(t, c.Disburse(context.Background(), "acc-1"))
	require.Len(t, remote.disburseCalls, 2)
	assert.Equal(t, remote.disburseCalls[0].requestID, remote.disburseCalls[1].requestID)
}

func TestDisburse_Preconditions(t *testing.T) {
	t.Run("not approved", func(t *testing.T) {
		remote := &fakeRemote{}
		c := newTestController(t, remote, adminActor)
		selectApplication(t, c, remote, baseApplication(domain.StatusPending))
		assert.ErrorIs(t, c.Disburse(context.Background(), "acc-1"), domain.ErrNotApproved)
		assert.Empty(t, remote.disburseCalls)
	})

	t.Run("zero loan amount", func(t *testing.T) {
		remote := &fakeRemote{}
		c := newTestController(t, remote, adminActor)
		app := baseApplication(domain.StatusApproved)
		app.FinancialInfo.LoanAmount = 0
		selectApplication(t, c, remote, app)
		assert.ErrorIs(t, c.Disburse(context.Background(), "acc-1"), domain.ErrInvalidLoanAmount)
		assert.Empty(t, remote.disburseCalls)
	})

	t.Run("no eligible accounts", func(t *testing.T) {
		remote := &fakeRemote{
			listAccountsFn: func(string) ([]domain.CustomerAccount, error) { return nil, nil },
		}
		c := newTestController(t, remote, adminActor)
		selectApplication(t, c, remote, baseApplication(domain.StatusApproved))
		assert.ErrorIs(t, c.Disburse(context.Background(), "acc-1"), domain.ErrNoEligibleAccounts)
		assert.Empty(t, remote.disburseCalls)
	})

	t.Run("no account selected", func(t *testing.T) {
		remote := &fakeRemote{
			listAccountsFn: func(string) ([]domain.CustomerAccount, error) { return testAccounts(), nil },
		}
		c := newTestController(t, remote, adminActor)
		selectApplication(t, c, remote, baseApplication(domain.StatusApproved))
		assert.ErrorIs(t, c.Disburse(context.Background(), ""), domain.ErrNoAccountSelected)
		assert.Empty(t, remote.disburseCalls)
	})

	t.Run("ownership denial makes no network call", func(t *testing.T) {
		remote := &fakeRemote{
			listAccountsFn: func(string) ([]domain.CustomerAccount, error) { return testAccounts(), nil },
		}
		c := newTestController(t, remote, Actor{ID: "analyst-2", Role: domain.RoleAnalyst})
		selectApplication(t, c, remote, baseApplication(domain.StatusApproved))
		remote.listCalls = 0

		assert.ErrorIs(t, c.Disburse(context.Background(), "acc-1"), domain.ErrPermissionDenied)
		assert.Zero(t, remote.listCalls)
		assert.Empty(t, remote.disburseCalls)
	})

	t.Run("account not in eligible list", func(t *testing.T) {
		remote := &fakeRemote{
			listAccountsFn: func(string) ([]domain.CustomerAccount, error) { return testAccounts(), nil },
		}
		c := newTestController(t, remote, adminActor)
		selectApplication(t, c, remote, baseApplication(domain.StatusApproved))
		assert.ErrorIs(t, c.Disburse(context.Background(), "acc-99"), domain.ErrAccountNotEligible)
		assert.Empty(t, remote.disburseCalls)
	})
}

func TestSelect_DifferentApplicationClearsOverrides(t *testing.T) {
	remote := &fakeRemote{
		calculateScoreFn: func(string) (*domain.ScoringResult, error) {
			return &domain.ScoringResult{Scoring: &domain.Scoring{Score: 700}}, nil
		},
	}
	c := newTestController(t, remote, adminActor)
	first := baseApplication(domain.StatusPending)
	selectApplication(t, c, remote, first)

	_, err := c.CalculateScore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c.Effective().Scoring)

	second := baseApplication(domain.StatusPending)
	second.ID = "app-2"
	selectApplication(t, c, remote, second)

	// Coming back to the first application starts from a clean snapshot.
	selectApplication(t, c, remote, first)
	assert.Nil(t, c.Effective().Scoring)
}

func TestClose_DiscardsSession(t *testing.T) {
	remote := &fakeRemote{
		calculateScoreFn: func(string) (*domain.ScoringResult, error) {
			return &domain.ScoringResult{Scoring: &domain.Scoring{Score: 700}}, nil
		},
	}
	c := newTestController(t, remote, adminActor)
	selectApplication(t, c, remote, baseApplication(domain.StatusPending))

	_, err := c.CalculateScore(context.Background())
	require.NoError(t, err)

	c.Close()
	assert.Nil(t, c.Effective())
	assert.Empty(t, c.SelectedID())
	assert.False(t, c.ScoringDialogOpen())
	assert.Nil(t, c.CalculatedScoring())
}

func TestDeriveProvisionalStatus(t *testing.T) {
	tests := []struct {
		name     string
		current  domain.ApplicationStatus
		decision *domain.Decision
		want     domain.ApplicationStatus
	}{
		{"no decision keeps status", domain.StatusInEvaluation, nil, domain.StatusInEvaluation},
		{"rejected applies", domain.StatusPending, &domain.Decision{Result: domain.DecisionRejected}, domain.StatusRejected},
		{"observed applies", domain.StatusPending, &domain.Decision{Result: domain.DecisionObserved}, domain.StatusObserved},
		{"approved stays pending confirmation", domain.StatusPending, &domain.Decision{Result: domain.DecisionApproved}, domain.StatusDecisionPending},
		{"disbursed never downgrades", domain.StatusDisbursed, &domain.Decision{Result: domain.DecisionRejected}, domain.StatusDisbursed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveProvisionalStatus(tt.current, tt.decision))
		})
	}
}
