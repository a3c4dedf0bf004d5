package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phol232/Financiera/internal/adapters/backend"
	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/permissions"
)

type fakeAuditRepo struct {
	records []*models.AuditRecord
}

func (r *fakeAuditRepo) Create(_ context.Context, record *models.AuditRecord) error {
	r.records = append(r.records, record)
	return nil
}

func (r *fakeAuditRepo) ListByOperator(_ context.Context, operatorID uint, offset, limit int) ([]*models.AuditRecord, int64, error) {
	var out []*models.AuditRecord
	for _, rec := range r.records {
		if rec.OperatorID == operatorID {
			out = append(out, rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) ListByResource(_ context.Context, resourceID string, limit int) ([]*models.AuditRecord, error) {
	var out []*models.AuditRecord
	for _, rec := range r.records {
		if rec.ResourceID == resourceID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type backendCall struct {
	method string
	path   string
	body   map[string]string
}

// newTestModerationService wires the service against a recording backend so
// tests can assert which calls reached the wire and with what body.
func newTestModerationService(t *testing.T) (*ModerationService, *fakeAuditRepo, *[]backendCall) {
	t.Helper()

	calls := &[]backendCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		*calls = append(*calls, backendCall{method: r.Method, path: r.URL.Path, body: body})
		w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)

	client := backend.NewClient(srv.URL, backend.NewStaticTokenProvider("test-token"), 5*time.Second, zap.NewNop())
	audit := &fakeAuditRepo{}
	svc := NewModerationService(client, permissions.NewEvaluator(), NewAuditService(audit, zap.NewNop()), "mf1", zap.NewNop())
	return svc, audit, calls
}

var (
	adminOp    = Operator{ID: 1, UID: "uid-admin", Role: domain.RoleAdmin, IP: "10.0.0.1"}
	employeeOp = Operator{ID: 2, UID: "uid-employee", Role: domain.RoleEmployee, IP: "10.0.0.2"}
	analystOp  = Operator{ID: 3, UID: "uid-analyst", Role: domain.RoleAnalyst, IP: "10.0.0.3"}
)

func TestRejectAccountRequiresReason(t *testing.T) {
	svc, audit, calls := newTestModerationService(t)

	err := svc.RejectAccount(context.Background(), adminOp, "acc-1", "   ")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)

	// The backend must not be reached and nothing is audited.
	assert.Empty(t, *calls)
	assert.Empty(t, audit.records)
}

func TestCardActionsRequireReason(t *testing.T) {
	svc, _, calls := newTestModerationService(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"reject", func() error { return svc.RejectCard(context.Background(), adminOp, "card-1", "", "") }},
		{"suspend", func() error { return svc.SuspendCard(context.Background(), adminOp, "card-1", " ", "") }},
		{"close", func() error { return svc.CloseCard(context.Background(), adminOp, "card-1", "", "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), domain.ErrReasonRequired)
			assert.Empty(t, *calls)
		})
	}
}

func TestChangeAccountStatusPermissionPerStatus(t *testing.T) {
	tests := []struct {
		name    string
		op      Operator
		status  string
		reason  string
		wantErr error
	}{
		{"employee may activate", employeeOp, "active", "", nil},
		{"employee may not block", employeeOp, "blocked", "fraude detectado", domain.ErrPermissionDenied},
		{"employee may not close", employeeOp, "closed", "solicitud del cliente", domain.ErrPermissionDenied},
		{"analyst may not activate", analystOp, "active", "", domain.ErrPermissionDenied},
		{"admin may block", adminOp, "blocked", "fraude detectado", nil},
		{"admin may close", adminOp, "closed", "solicitud del cliente", nil},
		{"unknown status", adminOp, "frozen", "", domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, calls := newTestModerationService(t)

			err := svc.ChangeAccountStatus(context.Background(), tt.op, "acc-1", tt.status, tt.reason)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, *calls)
				return
			}
			require.NoError(t, err)
			require.Len(t, *calls, 1)
			assert.Equal(t, "/api/accounts/mf1/acc-1/status", (*calls)[0].path)
		})
	}
}

func TestChangeAccountStatusReasonOnlyForActive(t *testing.T) {
	svc, _, calls := newTestModerationService(t)

	// Blocking without a reason is refused before any call goes out.
	err := svc.ChangeAccountStatus(context.Background(), adminOp, "acc-1", "blocked", "")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)
	assert.Empty(t, *calls)

	// Reactivating needs no reason and sends none.
	require.NoError(t, svc.ChangeAccountStatus(context.Background(), adminOp, "acc-1", "active", ""))
	require.Len(t, *calls, 1)
	assert.Equal(t, "active", (*calls)[0].body["status"])
	_, hasReason := (*calls)[0].body["reason"]
	assert.False(t, hasReason)
}

func TestCardEvidencePassthrough(t *testing.T) {
	svc, _, calls := newTestModerationService(t)

	require.NoError(t, svc.SuspendCard(context.Background(), adminOp, "card-1", "uso sospechoso", "https://evidence.example/123"))
	require.Len(t, *calls, 1)
	assert.Equal(t, "/api/cards/mf1/card-1/suspend", (*calls)[0].path)
	assert.Equal(t, "uso sospechoso", (*calls)[0].body["reason"])
	assert.Equal(t, "https://evidence.example/123", (*calls)[0].body["evidence"])

	// Empty evidence is omitted from the body entirely.
	require.NoError(t, svc.RejectCard(context.Background(), adminOp, "card-2", "documento ilegible", ""))
	require.Len(t, *calls, 2)
	_, hasEvidence := (*calls)[1].body["evidence"]
	assert.False(t, hasEvidence)
}

func TestModerationPermissionDenied(t *testing.T) {
	svc, _, calls := newTestModerationService(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"analyst approve account", func() error { return svc.ApproveAccount(context.Background(), analystOp, "acc-1") }},
		{"analyst approve card", func() error { return svc.ApproveCard(context.Background(), analystOp, "card-1") }},
		{"employee suspend card", func() error {
			return svc.SuspendCard(context.Background(), employeeOp, "card-1", "uso sospechoso", "")
		}},
		{"employee close card", func() error {
			return svc.CloseCard(context.Background(), employeeOp, "card-1", "solicitud del cliente", "")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), domain.ErrPermissionDenied)
			assert.Empty(t, *calls)
		})
	}
}

func TestBrowsePermissions(t *testing.T) {
	svc, _, calls := newTestModerationService(t)

	// Every console role may browse accounts and cards.
	_, err := svc.ListAccounts(context.Background(), analystOp, backend.AccountFilters{Status: "pending"})
	require.NoError(t, err)
	_, err = svc.GetCard(context.Background(), employeeOp, "card-1")
	require.NoError(t, err)
	assert.Len(t, *calls, 2)

	// Unknown roles are denied without touching the backend.
	_, err = svc.ListCards(context.Background(), Operator{ID: 9, UID: "uid-x", Role: domain.Role("viewer")}, backend.CardFilters{})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.Len(t, *calls, 2)
}

func TestModerationWritesAuditTrail(t *testing.T) {
	svc, audit, _ := newTestModerationService(t)

	require.NoError(t, svc.ApproveAccount(context.Background(), employeeOp, "acc-1"))
	require.NoError(t, svc.CloseCard(context.Background(), adminOp, "card-1", "solicitud del cliente", ""))

	require.Len(t, audit.records, 2)
	assert.Equal(t, models.AuditActionAccountModerate, audit.records[0].Action)
	assert.Equal(t, employeeOp.ID, audit.records[0].OperatorID)
	assert.Equal(t, "acc-1", audit.records[0].ResourceID)
	assert.Equal(t, employeeOp.IP, audit.records[0].IPAddress)
	assert.Equal(t, models.AuditActionCardModerate, audit.records[1].Action)
	assert.Equal(t, "close: solicitud del cliente", audit.records[1].Detail)
}
