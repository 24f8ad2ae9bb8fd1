package model

import "time"

type SecurityEvent struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	EventType  string    `json:"event_type" gorm:"not null;index;size:64"`
	Severity   string    `json:"severity" gorm:"not null;size:16"`
	Identifier string    `json:"identifier" gorm:"index;size:255"`
	ResourceID string    `json:"resource_id" gorm:"index;size:64"`
	Details    string    `json:"details" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;index"`
}
