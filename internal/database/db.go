package database

import (
	"backend/internal/model"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, migrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if migrate {
		// Auto-migrate core models
		err = db.AutoMigrate(
			&model.Department{},
			&model.User{},
			&model.FormTemplate{},
			&model.Request{},
			&model.Approval{},
			&model.Notification{},
			&model.AuditLog{},
		)
		if err != nil {
			log.WithError(err).Warn("Failed to auto-migrate models")
		}
	}

	return db, nil
}
