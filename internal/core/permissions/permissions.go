package permissions

import (
	"strings"

	"github.com/phol232/Financiera/internal/core/domain"
)

// Gated actions known to the console. Unknown actions are denied.
const (
	ActionAccountsView     = "accounts:view"
	ActionAccountsActivate = "accounts:activate"
	ActionAccountsBlock    = "accounts:block"
	ActionAccountsClose    = "accounts:close"

	ActionCardsView     = "cards:view"
	ActionCardsActivate = "cards:activate"
	ActionCardsSuspend  = "cards:suspend"
	ActionCardsClose    = "cards:close"

	ActionApplicationsView           = "applications:view"
	ActionApplicationsAssign         = "applications:assign"
	ActionApplicationsEvaluate       = "applications:evaluate"
	ActionApplicationsApprove        = "applications:approve"
	ActionApplicationsReject         = "applications:reject"
	ActionApplicationsCondition      = "applications:condition"
	ActionApplicationsCalculateScore = "applications:calculate-score"

	ActionProductsView   = "products:view"
	ActionProductsCreate = "products:create"
	ActionProductsUpdate = "products:update"

	ActionUsersView = "users:view"
)

const applicationsNamespace = "applications:"

// Evaluator answers "can this role perform this action, optionally scoped to a
// resource owner". It is a pure lookup over static role tables; there is no
// per-request state.
type Evaluator struct {
	actions map[string][]domain.Role
	pages   map[string][]domain.Role
}

// NewEvaluator builds the evaluator with the console's role tables.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		actions: map[string][]domain.Role{
			ActionAccountsView:     {domain.RoleAdmin, domain.RoleEmployee, domain.RoleAnalyst},
			ActionAccountsActivate: {domain.RoleAdmin, domain.RoleEmployee},
			ActionAccountsBlock:    {domain.RoleAdmin},
			ActionAccountsClose:    {domain.RoleAdmin},

			ActionCardsView:     {domain.RoleAdmin, domain.RoleEmployee, domain.RoleAnalyst},
			ActionCardsActivate: {domain.RoleAdmin, domain.RoleEmployee},
			ActionCardsSuspend:  {domain.RoleAdmin},
			ActionCardsClose:    {domain.RoleAdmin},

			ActionApplicationsView:           {domain.RoleAdmin, domain.RoleAnalyst, domain.RoleEmployee},
			ActionApplicationsAssign:         {domain.RoleAdmin, domain.RoleEmployee},
			ActionApplicationsEvaluate:       {domain.RoleAdmin, domain.RoleAnalyst},
			ActionApplicationsApprove:        {domain.RoleAdmin, domain.RoleAnalyst},
			ActionApplicationsReject:         {domain.RoleAdmin, domain.RoleAnalyst},
			ActionApplicationsCondition:      {domain.RoleAdmin, domain.RoleAnalyst},
			ActionApplicationsCalculateScore: {domain.RoleAdmin, domain.RoleAnalyst},

			ActionProductsView:   {domain.RoleAdmin},
			ActionProductsCreate: {domain.RoleAdmin},
			ActionProductsUpdate: {domain.RoleAdmin},

			ActionUsersView: {domain.RoleAdmin},
		},
		pages: map[string][]domain.Role{
			"/":             {domain.RoleAdmin, domain.RoleAnalyst, domain.RoleEmployee},
			"/accounts":     {domain.RoleAdmin, domain.RoleEmployee, domain.RoleAnalyst},
			"/cards":        {domain.RoleAdmin, domain.RoleEmployee, domain.RoleAnalyst},
			"/applications": {domain.RoleAdmin, domain.RoleAnalyst, domain.RoleEmployee},
			"/settings":     {domain.RoleAdmin},
			"/products":     {domain.RoleAdmin},
			"/users":        {domain.RoleAdmin},
			"/workers":      {domain.RoleAdmin},
		},
	}
}

// CanPerform reports whether the role may perform the action. Unknown actions
// are denied. Analysts acting inside the applications namespace are
// additionally restricted to resources assigned to them when a resource owner
// id is supplied; no other role is ownership-scoped.
func (e *Evaluator) CanPerform(action string, role domain.Role, resourceOwnerID, callerID string) bool {
	allowed, ok := e.actions[action]
	if !ok {
		return false
	}
	if !containsRole(allowed, role) {
		return false
	}
	if role == domain.RoleAnalyst && strings.HasPrefix(action, applicationsNamespace) && resourceOwnerID != "" {
		return resourceOwnerID == callerID
	}
	return true
}

// CanAccessPage reports whether the role may access the console page. Pages
// not present in the table are allowed, matching the route guard the console
// UI uses.
func (e *Evaluator) CanAccessPage(path string, role domain.Role) bool {
	allowed, ok := e.pages[path]
	if !ok {
		return true
	}
	return containsRole(allowed, role)
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
