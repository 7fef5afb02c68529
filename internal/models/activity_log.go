package models

import "time"

type ActivityAction string

const (
	ActionProjectCreated ActivityAction = "PROJECT_CREATED"
	ActionProjectUpdated ActivityAction = "PROJECT_UPDATED"
	ActionProjectDeleted ActivityAction = "PROJECT_DELETED"
	ActionTaskCreated    ActivityAction = "TASK_CREATED"
	ActionTaskUpdated    ActivityAction = "TASK_UPDATED"
	ActionTaskDeleted    ActivityAction = "TASK_DELETED"
)

// ActivityLog rows are immutable once written. ProjectID and TaskID are
// plain indexed columns, not foreign keys: a DB-level cascade would erase
// the PROJECT_DELETED entry together with the project it names.
type ActivityLog struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ProjectID uint  `gorm:"not null;index"`
	TaskID    *uint `gorm:"index"`

	Action  ActivityAction `gorm:"size:50;not null"`
	Message string         `gorm:"type:text;not null"`
}
