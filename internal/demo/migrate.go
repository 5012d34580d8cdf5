package demo

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the demo schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "demo.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying demo schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&Demo{}, &Section{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("demo schema migration failed")
		}
		return eris.Wrap(err, "auto migrating demo schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("demo schema migration complete")
	}

	return nil
}
