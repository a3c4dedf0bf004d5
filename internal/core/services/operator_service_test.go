package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/pkg/password"
	"github.com/phol232/Financiera/internal/pkg/statuscache"
)

func newTestOperatorService() (*OperatorService, *fakeOperatorRepo, *fakeRefreshTokenRepo, *statuscache.MemoryCache) {
	operators := newFakeOperatorRepo()
	tokens := newFakeRefreshTokenRepo()
	cache := statuscache.NewMemoryCache(5 * time.Minute)
	svc := NewOperatorService(operators, tokens, cache, zap.NewNop())
	return svc, operators, tokens, cache
}

func TestApproveOperator(t *testing.T) {
	svc, operators, _, cache := newTestOperatorService()
	op := seedOperator(t, operators, "ana@financiera.pe", "s3cret-password", "analyst", domain.OperatorPending)
	require.NoError(t, cache.Set(context.Background(), op.UID, domain.OperatorPending))

	resp, err := svc.Approve(context.Background(), op.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OperatorApproved, resp.Status)

	stored, err := operators.GetByID(context.Background(), op.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OperatorApproved, stored.Status)

	// The stale cached status is dropped so the guard re-reads it.
	_, found, err := cache.Get(context.Background(), op.UID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRejectOperatorKillsSessions(t *testing.T) {
	svc, operators, tokens, cache := newTestOperatorService()
	op := seedOperator(t, operators, "ana@financiera.pe", "s3cret-password", "analyst", domain.OperatorApproved)
	require.NoError(t, cache.Set(context.Background(), op.UID, domain.OperatorApproved))

	for i := 0; i < 2; i++ {
		require.NoError(t, tokens.Create(context.Background(), &models.RefreshToken{
			OperatorID: op.ID,
			TokenHash:  password.HashToken(uuid.NewString()),
			ExpiresAt:  time.Now().Add(24 * time.Hour),
		}))
	}

	resp, err := svc.Reject(context.Background(), op.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OperatorRejected, resp.Status)

	// Every live session of the rejected operator is revoked.
	active, err := tokens.CountActiveByOperatorID(context.Background(), op.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), active)

	_, found, err := cache.Get(context.Background(), op.UID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOperatorStatusChangeNotFound(t *testing.T) {
	svc, _, _, _ := newTestOperatorService()

	_, err := svc.Approve(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrOperatorNotFound)

	_, err = svc.Reject(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrOperatorNotFound)

	_, err = svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrOperatorNotFound)
}

func TestListOperatorsClampsPagination(t *testing.T) {
	svc, operators, _, _ := newTestOperatorService()
	seedOperator(t, operators, "ana@financiera.pe", "s3cret-password", "analyst", domain.OperatorPending)
	seedOperator(t, operators, "luis@financiera.pe", "s3cret-password", "employee", domain.OperatorApproved)

	out, err := svc.List(context.Background(), "", 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)
	assert.Equal(t, int64(2), out.Total)

	pending, err := svc.List(context.Background(), domain.OperatorPending, 1, 20)
	require.NoError(t, err)
	require.Len(t, pending.Operators, 1)
	assert.Equal(t, "ana@financiera.pe", pending.Operators[0].Email)
}
