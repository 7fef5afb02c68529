package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/activity"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/utils"
)

const (
	defaultProjectActivityPageSize = 20
	// The cross-project feed intentionally defaults wider than the
	// per-project view.
	defaultGlobalActivityPageSize = 50
)

type ActivityEntryResponse struct {
	ID          uint                  `json:"id"`
	ProjectID   uint                  `json:"projectId"`
	TaskID      *uint                 `json:"taskId"`
	Action      models.ActivityAction `json:"action"`
	Message     string                `json:"message"`
	CreatedAt   time.Time             `json:"createdAt"`
	ProjectName string                `json:"projectName,omitempty"`
}

// ProjectActivity pages a project's trail, newest first. It deliberately
// skips the project-existence check so the trail of a deleted project,
// including its PROJECT_DELETED entry, stays readable.
func ProjectActivity(ctx *gin.Context) {
	if _, err := utils.GetCurrentUser(ctx); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	projectID, ok := projectIDParam(ctx)
	if !ok {
		return
	}

	page := utils.ParsePage(ctx.Query("page"))
	pageSize := utils.ParsePageSize(ctx.Query("pageSize"), defaultProjectActivityPageSize)

	store := activity.NewStore(db.DB)
	entries, total, err := store.ListByProject(projectID, page, pageSize)

	if err != nil {
		respondInternal(ctx, "fetch activity log", err)
		return
	}

	items := make([]ActivityEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ActivityEntryResponse{
			ID:        entry.ID,
			ProjectID: entry.ProjectID,
			TaskID:    entry.TaskID,
			Action:    entry.Action,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GlobalActivity is the cross-project feed, scoped to the caller's owned
// projects and annotated with each project's display name.
func GlobalActivity(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	page := utils.ParsePage(ctx.Query("page"))
	pageSize := utils.ParsePageSize(ctx.Query("pageSize"), defaultGlobalActivityPageSize)

	store := activity.NewStore(db.DB)
	entries, total, err := store.ListByOwner(user.ID, page, pageSize)

	if err != nil {
		respondInternal(ctx, "fetch activity log", err)
		return
	}

	items := make([]ActivityEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ActivityEntryResponse{
			ID:          entry.ID,
			ProjectID:   entry.ProjectID,
			TaskID:      entry.TaskID,
			Action:      entry.Action,
			Message:     entry.Message,
			CreatedAt:   entry.CreatedAt,
			ProjectName: entry.ProjectName,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}
