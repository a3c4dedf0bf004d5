package domain

import "errors"

// Common domain errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Workflow precondition errors. These are detected before any backend call and
// never leave a partial override behind.
var (
	ErrNoApplicationSelected  = errors.New("no application selected")
	ErrPermissionDenied       = errors.New("action not permitted for this role")
	ErrScoringRequired        = errors.New("scoring must be calculated first")
	ErrAlreadyApproved        = errors.New("application is already approved")
	ErrAlreadyDisbursed       = errors.New("application is already disbursed")
	ErrNotApproved            = errors.New("application is not approved")
	ErrInvalidDecisionType    = errors.New("decision type must be approve or reject")
	ErrDecisionReasonRequired = errors.New("a reason is required to reject")
	ErrInvalidLoanAmount      = errors.New("loan amount must be greater than 0")
	ErrNoEligibleAccounts     = errors.New("customer has no eligible accounts")
	ErrNoAccountSelected      = errors.New("a destination account must be selected")
	ErrAccountNotEligible     = errors.New("selected account is not eligible for disbursement")
	ErrReasonRequired         = errors.New("a reason is required for this action")
)

// Operator errors
var (
	ErrOperatorNotFound      = errors.New("operator not found")
	ErrOperatorAlreadyExists = errors.New("operator already exists")
	ErrOperatorNotApproved   = errors.New("operator account is not approved")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidRole           = errors.New("role must be analyst or employee")
	ErrWeakPassword          = errors.New("password must be at least 8 characters")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalid          = errors.New("token invalid")
	ErrTokenRevoked          = errors.New("token revoked")
)
