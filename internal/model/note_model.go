package model

import (
	"time"

	"gorm.io/datatypes"
)

// Note mirrors the Supabase "notes" table. Column names follow the mobile client schema.
// Timestamps are written explicitly by the repository, never by gorm.
type Note struct {
	Id              string         `gorm:"type:uuid;primaryKey"`
	UserId          string         `gorm:"type:uuid;not null;index"`
	Title           string         `gorm:"type:varchar(255);not null"`
	Content         string         `gorm:"type:text;not null"`
	Summary         *string        `gorm:"type:text"`
	Tags            datatypes.JSON `gorm:"type:jsonb;not null"`
	IsFavorite      bool           `gorm:"not null"`
	IsFromInterview bool           `gorm:"not null"`
	InterviewId     *string        `gorm:"type:varchar(255)"`
	CreatedAt       time.Time      `gorm:"not null;autoCreateTime:false"`
	UpdatedAt       time.Time      `gorm:"not null;index;autoUpdateTime:false"`
}

func (Note) TableName() string {
	return "notes"
}
