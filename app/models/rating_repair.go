package models

import "time"

// RatingRepair is an audit row written whenever a cached average is
// recomputed. Stored in the relational ops database.
type RatingRepair struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	ProductID  string    `gorm:"size:24;not null;index"    json:"product_id"`
	Source     string    `gorm:"size:20;not null"          json:"source"`
	OldAverage float64   `gorm:"not null"                  json:"old_average"`
	NewAverage float64   `gorm:"not null"                  json:"new_average"`
	Total      int64     `gorm:"not null"                  json:"total_ratings"`
	Count      int64     `gorm:"not null"                  json:"review_count"`
	RepairedAt time.Time `gorm:"autoCreateTime;index"      json:"repaired_at"`
}

func (RatingRepair) TableName() string { return "rating_repairs" }
