package config

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/pkg/password"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminOperator(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminOperator seeds the default admin operator.
// This is for development/testing only. In production, create the
// admin through a secure process and change the password immediately.
func (s *Seeder) seedAdminOperator() error {
	var count int64
	s.db.Model(&models.Operator{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash(getEnv("SEED_ADMIN_PASSWORD", "admin123456"))
	if err != nil {
		return err
	}

	admin := &models.Operator{
		UID:         uuid.New().String(),
		Email:       getEnv("SEED_ADMIN_EMAIL", "admin@financiera.pe"),
		DisplayName: "Administrador",
		Password:    hashedPassword,
		Role:        string(domain.RoleAdmin),
		Status:      string(domain.OperatorApproved),
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin operator created: %s", admin.Email)
	return nil
}
