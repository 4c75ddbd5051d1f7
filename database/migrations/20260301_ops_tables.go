package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

func init() {
	migration.Register("20260301000000_create_storefront_failed_jobs_table", &CreateFailedJobsTable{})
	migration.Register("20260301000001_create_rating_repairs_table", &CreateRatingRepairsTable{})
}

type CreateFailedJobsTable struct{}

func (m *CreateFailedJobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJobRecord{})
}

func (m *CreateFailedJobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&queue.FailedJobRecord{})
}

// rating_repairs is the audit trail of every average recomputation.
type CreateRatingRepairsTable struct{}

func (m *CreateRatingRepairsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.RatingRepair{})
}

func (m *CreateRatingRepairsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.RatingRepair{})
}
