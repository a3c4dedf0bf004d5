package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/phol232/Financiera/internal/core/domain"
)

// Operator represents the operators table: the console's own accounts for the
// back-office staff. UID is the operator's identity in the core-banking
// backend and is what application assignments refer to.
type Operator struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UID         string         `gorm:"uniqueIndex;size:64;not null" json:"uid"`
	Email       string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	DisplayName string         `gorm:"size:100;not null" json:"display_name"`
	Password    string         `gorm:"size:255;not null" json:"-"`
	Role        string         `gorm:"size:20;default:'employee'" json:"role"`
	Status      string         `gorm:"size:20;default:'pending';index" json:"status"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Operator) TableName() string {
	return "operators"
}

// ToDomain converts the stored operator to its domain form.
func (o *Operator) ToDomain() *domain.Operator {
	return &domain.Operator{
		ID:          o.ID,
		UID:         o.UID,
		Email:       o.Email,
		DisplayName: o.DisplayName,
		Password:    o.Password,
		Role:        domain.Role(o.Role),
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// OperatorFromDomain converts a domain operator to its stored form.
func OperatorFromDomain(op *domain.Operator) *Operator {
	return &Operator{
		ID:          op.ID,
		UID:         op.UID,
		Email:       op.Email,
		DisplayName: op.DisplayName,
		Password:    op.Password,
		Role:        string(op.Role),
		Status:      op.Status,
	}
}

// OperatorResponse DTO
type OperatorResponse struct {
	ID          uint      `json:"id"`
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (o *Operator) ToResponse() *OperatorResponse {
	return &OperatorResponse{
		ID:          o.ID,
		UID:         o.UID,
		Email:       o.Email,
		DisplayName: o.DisplayName,
		Role:        o.Role,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	OperatorID uint       `gorm:"index;not null" json:"operator_id"`
	TokenHash  string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt  *time.Time `gorm:"index" json:"revoked_at"`
	Operator   Operator   `gorm:"foreignKey:OperatorID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// AuditRecord represents the audit_records table: one row per workflow or
// moderation action an operator performed against the backend. Written
// best-effort after the backend call succeeds.
type AuditRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OperatorID uint      `gorm:"not null;index" json:"operator_id"`
	Action     string    `gorm:"size:50;not null;index" json:"action"`
	ResourceID string    `gorm:"size:64;index" json:"resource_id"`
	Detail     string    `gorm:"type:text" json:"detail"`
	IPAddress  string    `gorm:"size:50" json:"ip_address"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Operator *Operator `gorm:"foreignKey:OperatorID" json:"operator,omitempty"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}

// Audit actions
const (
	AuditActionLogin           = "LOGIN"
	AuditActionAssign          = "ASSIGN"
	AuditActionCalculateScore  = "CALCULATE_SCORE"
	AuditActionDecision        = "DECISION"
	AuditActionDisburse        = "DISBURSE"
	AuditActionAccountModerate = "ACCOUNT_MODERATE"
	AuditActionCardModerate    = "CARD_MODERATE"
	AuditActionOperatorApprove = "OPERATOR_APPROVE"
	AuditActionOperatorReject  = "OPERATOR_REJECT"
)

// AutoMigrate runs auto migration for the console's own tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Operator{},
		&RefreshToken{},
		&AuditRecord{},
	)
}
