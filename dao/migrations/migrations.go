package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/hris-lab/trainflow/dao/model"
)

// Migrate applies all pending migrations in order.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, list)
	return m.Migrate()
}

var list = []*gormigrate.Migration{
	{
		ID: "202501100001_init",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&model.User{},
				&model.TrainingRequest{},
				&model.ApprovalSlot{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&model.ApprovalSlot{},
				&model.TrainingRequest{},
				&model.User{},
			)
		},
	},
	{
		ID: "202501100002_audit",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.ApprovalHistory{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&model.ApprovalHistory{})
		},
	},
	{
		ID: "202502140001_notification_records",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.NotificationRecord{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&model.NotificationRecord{})
		},
	},
}
