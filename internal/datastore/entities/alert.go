// Package entities defines the persisted data model.
package entities

import "time"

// Alert is one detected event persisted in the local history.
// Date is stored as an RFC3339 UTC string so lexicographic order matches
// chronological order. The read flag only ever transitions false→true.
type Alert struct {
	ID            uint    `gorm:"primaryKey;column:id" json:"id"`
	Type          string  `gorm:"size:50;not null;column:type" json:"type"`
	Message       string  `gorm:"size:2000;not null;column:message" json:"message"`
	Date          string  `gorm:"size:40;not null;index;column:date" json:"date"`
	VideoURI      *string `gorm:"size:500;column:videoUri" json:"videoUri"`
	ScreenshotURI *string `gorm:"size:500;column:screenshotUri" json:"screenshotUri"`
	Read          bool    `gorm:"not null;default:false;column:read" json:"read"`
}

// TableName returns the table name for GORM.
func (Alert) TableName() string {
	return "alerts"
}

// Timestamp formats t as the canonical stored date string.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Now returns the canonical stored date string for the current time.
func Now() string {
	return Timestamp(time.Now())
}
