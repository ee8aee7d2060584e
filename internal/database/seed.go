package database

import (
	"backend/internal/model"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed creates a default department and super admin on an empty database so
// the first login is possible. It is a no-op once any user exists.
func Seed(db *gorm.DB) error {
	var userCount int64
	if err := db.Model(&model.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	dept := model.Department{
		Code:        "ADMIN",
		Name:        "Administration",
		Description: "System administration",
		IsActive:    true,
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dept).Error; err != nil {
			return err
		}
		admin := model.User{
			Email:        "admin@workflowbridge.local",
			Name:         "System Administrator",
			Password:     string(hashed),
			Role:         model.RoleSuperAdmin,
			DepartmentID: dept.ID,
			IsActive:     true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		log.WithField("email", admin.Email).Info("Seeded default super admin")
		return nil
	})
}
