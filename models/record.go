package models

import (
	"time"

	"gorm.io/gorm"
)

// Assessment record kinds.
const (
	RecordKindInterview  = "interview"
	RecordKindDiscussion = "gd"
)

// Assessment record statuses.
const (
	RecordInProgress = "in_progress"
	RecordCompleted  = "completed"
)

// AssessmentRecord is the durable snapshot of an interview or group
// discussion session. The in-memory session store is authoritative while a
// session is active; once completed, this record (with Results set) is the
// only source of truth.
type AssessmentRecord struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string         `gorm:"not null;index" json:"user_id"`
	Kind        string         `gorm:"not null;check:kind IN ('interview', 'gd')" json:"kind"`
	Category    string         `gorm:"size:50" json:"interview_type,omitempty"`
	Mode        string         `gorm:"size:50" json:"mode"`
	Topic       string         `gorm:"type:text" json:"topic,omitempty"`
	Status      string         `gorm:"not null;default:'in_progress';check:status IN ('in_progress', 'completed')" json:"status"`
	Snapshot    string         `gorm:"type:jsonb" json:"snapshot,omitempty"` // serialized live-session state
	Results     string         `gorm:"type:jsonb" json:"results,omitempty"`  // serialized final evaluation, empty until completed
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
