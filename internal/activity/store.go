package activity

import (
	"log"

	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/gorm"
)

// Store is the append-only activity log. Entries are never updated or
// deleted through it.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) Append(projectID uint, taskID *uint, action models.ActivityAction, message string) error {
	entry := models.ActivityLog{
		ProjectID: projectID,
		TaskID:    taskID,
		Action:    action,
		Message:   message,
	}
	return s.db.Create(&entry).Error
}

// AppendBestEffort is used on delete paths, where the entry is written
// before the destructive call. A failed write must never fail the delete;
// it is only reported to the operational log.
func (s *Store) AppendBestEffort(projectID uint, taskID *uint, action models.ActivityAction, message string) {
	if err := s.Append(projectID, taskID, action, message); err != nil {
		log.Printf("Failed to write %s activity entry for project %d: %v", action, projectID, err)
	}
}

// ListByProject pages through a project's entries, newest first. It does
// not require the project to still exist, so the trail of a deleted
// project remains readable.
func (s *Store) ListByProject(projectID uint, page, pageSize int) ([]models.ActivityLog, int64, error) {
	var total int64

	if err := s.db.Model(&models.ActivityLog{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog

	err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error

	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// OwnerEntry is an activity entry annotated with its project's display name
// for the cross-project feed.
type OwnerEntry struct {
	models.ActivityLog
	ProjectName string
}

// ListByOwner pages through entries across all projects owned by ownerID,
// newest first. The inner join means entries of already-deleted projects
// drop out of the feed.
func (s *Store) ListByOwner(ownerID uint, page, pageSize int) ([]OwnerEntry, int64, error) {
	base := s.db.Table("activity_logs").
		Joins("JOIN projects ON projects.id = activity_logs.project_id").
		Where("projects.owner_id = ?", ownerID)

	var total int64

	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []OwnerEntry

	err := base.Session(&gorm.Session{}).
		Select("activity_logs.*, projects.name AS project_name").
		Order("activity_logs.created_at DESC, activity_logs.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&entries).Error

	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
