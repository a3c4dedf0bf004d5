package domain

import "time"

// ApplicationStatus represents the lifecycle status of a credit application.
// The backend is authoritative; StatusDecisionPending is a console-local
// provisional value used between "score calculated" and "decision fetched".
type ApplicationStatus string

const (
	StatusPending         ApplicationStatus = "pending"
	StatusInEvaluation    ApplicationStatus = "in_evaluation"
	StatusInReview        ApplicationStatus = "in_review"
	StatusConditioned     ApplicationStatus = "conditioned"
	StatusApproved        ApplicationStatus = "approved"
	StatusRejected        ApplicationStatus = "rejected"
	StatusDisbursed       ApplicationStatus = "disbursed"
	StatusObserved        ApplicationStatus = "observed"
	StatusDecisionPending ApplicationStatus = "decision_pending"
)

// Decision results
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
	DecisionObserved = "observed"
)

// ScoringDetails holds the contributing-factor breakdown of a score.
type ScoringDetails struct {
	IncomeScore        float64 `json:"incomeScore,omitempty"`
	DebtToIncomeScore  float64 `json:"debtToIncomeScore,omitempty"`
	EmploymentScore    float64 `json:"employmentScore,omitempty"`
	CreditHistoryScore float64 `json:"creditHistoryScore,omitempty"`
}

// Scoring represents a creditworthiness assessment. The backend may populate
// either Score or TotalScore; the workflow controller guarantees both are
// cross-populated before a scoring value reaches any override.
type Scoring struct {
	Score       float64         `json:"score"`
	TotalScore  float64         `json:"totalScore"`
	Band        string          `json:"band,omitempty"`
	Details     *ScoringDetails `json:"details,omitempty"`
	ReasonCodes []string        `json:"reasonCodes,omitempty"`
}

// Decision represents the approve/reject/observe outcome for an application.
type Decision struct {
	Result      string `json:"result"`
	IsAutomatic bool   `json:"isAutomatic"`
	Comments    string `json:"comments,omitempty"`
}

// DisbursementDetails summarizes a completed disbursement. Present only once
// the application status reaches disbursed.
type DisbursementDetails struct {
	AccountID     string    `json:"accountId"`
	AccountNumber string    `json:"accountNumber"`
	BankName      string    `json:"bankName"`
	BranchID      string    `json:"branchId,omitempty"`
	Amount        float64   `json:"amount"`
	ProcessedAt   time.Time `json:"processedAt"`
}

// PersonalInfo holds the applicant's identity data.
type PersonalInfo struct {
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	DocumentType   string `json:"documentType,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
}

// ContactInfo holds the applicant's contact data.
type ContactInfo struct {
	Email       string `json:"email,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty"`
	Address     string `json:"address,omitempty"`
}

// FinancialInfo holds the financial figures of the request.
type FinancialInfo struct {
	MonthlyIncome  float64 `json:"monthlyIncome,omitempty"`
	LoanAmount     float64 `json:"loanAmount"`
	LoanTermMonths int     `json:"loanTermMonths,omitempty"`
	LoanPurpose    string  `json:"loanPurpose,omitempty"`
}

// Routing holds branch routing data used by the disbursement call.
type Routing struct {
	BranchID string `json:"branchId,omitempty"`
}

// Application represents one credit application under review. Instances
// fetched from the backend are treated as immutable snapshots; local changes
// are expressed exclusively through an Override.
type Application struct {
	ID                  string               `json:"id"`
	Status              ApplicationStatus    `json:"status"`
	UserID              string               `json:"userId"`
	AssignedUserID      string               `json:"assignedUserId,omitempty"`
	Zone                string               `json:"zone,omitempty"`
	ProductID           string               `json:"productId,omitempty"`
	PersonalInfo        *PersonalInfo        `json:"personalInfo,omitempty"`
	ContactInfo         *ContactInfo         `json:"contactInfo,omitempty"`
	FinancialInfo       *FinancialInfo       `json:"financialInfo,omitempty"`
	Routing             *Routing             `json:"routing,omitempty"`
	Scoring             *Scoring             `json:"scoring,omitempty"`
	Decision            *Decision            `json:"decision,omitempty"`
	DisbursementDetails *DisbursementDetails `json:"disbursementDetails,omitempty"`
	CreatedAt           time.Time            `json:"createdAt,omitempty"`
	UpdatedAt           time.Time            `json:"updatedAt,omitempty"`
}

// LoanAmount returns the requested amount, or 0 when financial info is absent.
func (a *Application) LoanAmount() float64 {
	if a.FinancialInfo == nil {
		return 0
	}
	return a.FinancialInfo.LoanAmount
}

// BranchID returns the routing branch, or empty when routing is absent.
func (a *Application) BranchID() string {
	if a.Routing == nil {
		return ""
	}
	return a.Routing.BranchID
}

// Override is a client-only patch of an application's mutable workflow fields,
// keyed by application id and held only for the duration of a detail-view
// session. Nil/zero fields mean "no override for this field".
type Override struct {
	Scoring             *Scoring
	Decision            *Decision
	Status              ApplicationStatus
	DisbursementDetails *DisbursementDetails
}

// Merge returns the effective application: the base snapshot with the four
// override-able fields replaced field-by-field where the override sets them.
// The base is never mutated.
func Merge(base *Application, ov *Override) *Application {
	if base == nil {
		return nil
	}
	eff := *base
	if ov == nil {
		return &eff
	}
	if ov.Scoring != nil {
		eff.Scoring = ov.Scoring
	}
	if ov.Decision != nil {
		eff.Decision = ov.Decision
	}
	if ov.Status != "" {
		eff.Status = ov.Status
	}
	if ov.DisbursementDetails != nil {
		eff.DisbursementDetails = ov.DisbursementDetails
	}
	return &eff
}

// ScoringResult is the payload of the calculate-score and fetch-scoring
// backend operations. The decision is present when scoring produced an
// automatic one.
type ScoringResult struct {
	Scoring  *Scoring  `json:"scoring,omitempty"`
	Decision *Decision `json:"decision,omitempty"`
}

// CustomerAccount represents an eligible destination account for a
// disbursement.
type CustomerAccount struct {
	ID              string  `json:"id"`
	AccountNumber   string  `json:"accountNumber"`
	BankName        string  `json:"bankName"`
	AccountType     string  `json:"accountType,omitempty"`
	Status          string  `json:"status,omitempty"`
	Balance         float64 `json:"balance,omitempty"`
	Currency        string  `json:"currency,omitempty"`
	HolderFirstName string  `json:"holderFirstName,omitempty"`
	HolderLastName  string  `json:"holderLastName,omitempty"`
	HolderEmail     string  `json:"holderEmail,omitempty"`
	HolderDNI       string  `json:"holderDni,omitempty"`
}

// Card represents a customer card as the moderation pages list it.
type Card struct {
	ID              string `json:"id"`
	CardType        string `json:"cardType,omitempty"`
	CardBrand       string `json:"cardBrand,omitempty"`
	Status          string `json:"status"`
	HolderFirstName string `json:"holderFirstName,omitempty"`
	HolderLastName  string `json:"holderLastName,omitempty"`
	HolderDNI       string `json:"holderDni,omitempty"`
}

// Analyst represents a credit analyst as listed by the backend worker search.
type Analyst struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	DNI         string `json:"dni,omitempty"`
}
