package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_NilOverrideReturnsCopy(t *testing.T) {
	base := &Application{ID: "app-1", Status: StatusPending, UserID: "cust-1"}

	merged := Merge(base, nil)
	require.NotNil(t, merged)
	assert.Equal(t, *base, *merged)
	assert.NotSame(t, base, merged)
}

func TestMerge_OverrideFieldsReplaceBase(t *testing.T) {
	base := &Application{
		ID:      "app-1",
		Status:  StatusPending,
		Scoring: &Scoring{Score: 500, TotalScore: 500},
	}
	ov := &Override{
		Status:   StatusApproved,
		Scoring:  &Scoring{Score: 720, TotalScore: 720, Band: "A"},
		Decision: &Decision{Result: DecisionApproved, Comments: "manual"},
		DisbursementDetails: &DisbursementDetails{
			AccountID: "acc-1",
			Amount:    1500,
		},
	}

	merged := Merge(base, ov)
	assert.Equal(t, StatusApproved, merged.Status)
	assert.Equal(t, float64(720), merged.Scoring.Score)
	assert.Equal(t, "A", merged.Scoring.Band)
	assert.Equal(t, DecisionApproved, merged.Decision.Result)
	assert.Equal(t, float64(1500), merged.DisbursementDetails.Amount)

	// The base snapshot stays untouched.
	assert.Equal(t, StatusPending, base.Status)
	assert.Equal(t, float64(500), base.Scoring.Score)
	assert.Nil(t, base.Decision)
}

func TestMerge_EmptyOverrideFieldsKeepBase(t *testing.T) {
	processedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	base := &Application{
		ID:                  "app-1",
		Status:              StatusDisbursed,
		Scoring:             &Scoring{Score: 700, TotalScore: 700},
		Decision:            &Decision{Result: DecisionApproved},
		DisbursementDetails: &DisbursementDetails{AccountID: "acc-1", ProcessedAt: processedAt},
	}

	merged := Merge(base, &Override{Scoring: &Scoring{Score: 710, TotalScore: 710}})
	assert.Equal(t, StatusDisbursed, merged.Status)
	assert.Equal(t, float64(710), merged.Scoring.Score)
	assert.Equal(t, DecisionApproved, merged.Decision.Result)
	assert.Equal(t, processedAt, merged.DisbursementDetails.ProcessedAt)
}

func TestMerge_Idempotent(t *testing.T) {
	base := &Application{ID: "app-1", Status: StatusInEvaluation}
	ov := &Override{
		Status:  StatusApproved,
		Scoring: &Scoring{Score: 680, TotalScore: 680},
	}

	once := Merge(base, ov)
	twice := Merge(once, ov)
	assert.Equal(t, *once, *twice)
}

func TestApplicationHelpers(t *testing.T) {
	app := &Application{}
	assert.Equal(t, float64(0), app.LoanAmount())
	assert.Equal(t, "", app.BranchID())

	app.FinancialInfo = &FinancialInfo{LoanAmount: 2500}
	app.Routing = &Routing{BranchID: "branch-3"}
	assert.Equal(t, float64(2500), app.LoanAmount())
	assert.Equal(t, "branch-3", app.BranchID())
}
