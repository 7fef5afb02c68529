package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/activity"
	"github.com/taskflow-dev/taskflow/internal/authz"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/utils"
	"gorm.io/gorm"
)

const defaultTaskPageSize = 10

type TaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

type TaskResponse struct {
	ID          uint                `json:"id"`
	ProjectID   uint                `json:"projectId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"dueDate"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func taskResponse(t models.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// parseDueDate accepts an RFC 3339 instant or a bare date. An empty string
// clears the due date.
func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func validateTask(body TaskRequest, titleRequired bool) (map[string][]string, *time.Time) {
	details := make(map[string][]string)

	if titleRequired && body.Title == nil {
		details["title"] = append(details["title"], "Task title is required")
	}
	if body.Title != nil {
		if *body.Title == "" {
			details["title"] = append(details["title"], "Task title is required")
		} else if len([]rune(*body.Title)) > 255 {
			details["title"] = append(details["title"], "Title too long")
		}
	}
	if body.Description != nil && len([]rune(*body.Description)) > 2000 {
		details["description"] = append(details["description"], "Description too long")
	}
	if body.Status != nil && !models.ValidTaskStatus(models.TaskStatus(*body.Status)) {
		details["status"] = append(details["status"], "Invalid status")
	}
	if body.Priority != nil && !models.ValidTaskPriority(models.TaskPriority(*body.Priority)) {
		details["priority"] = append(details["priority"], "Invalid priority")
	}

	var dueDate *time.Time
	if body.DueDate != nil {
		parsed, err := parseDueDate(*body.DueDate)
		if err != nil {
			details["dueDate"] = append(details["dueDate"], "Invalid due date")
		}
		dueDate = parsed
	}

	if len(details) == 0 {
		return nil, dueDate
	}
	return details, dueDate
}

func loadProject(ctx *gin.Context) (models.Project, bool) {
	projectID, ok := projectIDParam(ctx)
	if !ok {
		return models.Project{}, false
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			respondInternal(ctx, "fetch project", err)
		}
		return models.Project{}, false
	}

	return project, true
}

func loadTask(ctx *gin.Context, projectID uint) (models.Task, bool) {
	taskID, err := strconv.ParseUint(ctx.Param("task_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return models.Task{}, false
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND project_id = ?", taskID, projectID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			respondInternal(ctx, "fetch task", err)
		}
		return models.Task{}, false
	}

	return task, true
}

func CreateTask(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	project, ok := loadProject(ctx)
	if !ok {
		return
	}

	// Task authorization always resolves through the parent project's
	// owner; tasks carry no owner of their own.
	if err := authz.Authorize(&user, project.OwnerID, authz.OpCreate); err != nil {
		respondAuthzError(ctx, err, "create tasks")
		return
	}

	var body TaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	details, dueDate := validateTask(body, true)
	if details != nil {
		respondValidation(ctx, details)
		return
	}

	task := models.Task{
		ProjectID: project.ID,
		Title:     *body.Title,
		Status:    models.StatusTodo,
		Priority:  models.PriorityMedium,
		DueDate:   dueDate,
	}
	if body.Description != nil {
		task.Description = *body.Description
	}
	if body.Status != nil {
		task.Status = models.TaskStatus(*body.Status)
	}
	if body.Priority != nil {
		task.Priority = models.TaskPriority(*body.Priority)
	}

	if err := db.DB.Create(&task).Error; err != nil {
		respondInternal(ctx, "create task", err)
		return
	}

	store := activity.NewStore(db.DB)
	if err := store.Append(project.ID, &task.ID, models.ActionTaskCreated, activity.TaskCreatedMessage(task)); err != nil {
		respondInternal(ctx, "create task", err)
		return
	}

	ctx.JSON(http.StatusCreated, taskResponse(task))
}

// ListTasks filters, sorts and pages a project's tasks. Filter values are
// comma-separated allow-lists; unknown values are dropped silently rather
// than erroring.
func ListTasks(ctx *gin.Context) {
	if _, err := utils.GetCurrentUser(ctx); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	project, ok := loadProject(ctx)
	if !ok {
		return
	}

	query := db.DB.Model(&models.Task{}).Where("project_id = ?", project.ID)

	if statuses := filterValues(ctx.Query("status"), func(v string) bool {
		return models.ValidTaskStatus(models.TaskStatus(v))
	}); len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	if priorities := filterValues(ctx.Query("priority"), func(v string) bool {
		return models.ValidTaskPriority(models.TaskPriority(v))
	}); len(priorities) > 0 {
		query = query.Where("priority IN ?", priorities)
	}

	if search := ctx.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		respondInternal(ctx, "fetch tasks", err)
		return
	}

	page := utils.ParsePage(ctx.Query("page"))
	pageSize := utils.ParsePageSize(ctx.Query("pageSize"), defaultTaskPageSize)

	var tasks []models.Task

	err := query.Order(taskOrderClause(ctx.Query("sortBy"), ctx.Query("sortOrder"))).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tasks).Error

	if err != nil {
		respondInternal(ctx, "fetch tasks", err)
		return
	}

	items := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, taskResponse(task))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func filterValues(raw string, valid func(string) bool) []string {
	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v != "" && valid(v) {
			values = append(values, v)
		}
	}
	return values
}

func taskOrderClause(sortBy, sortOrder string) string {
	columns := map[string]string{
		"createdAt": "created_at",
		"dueDate":   "due_date",
		"priority":  "priority",
		"status":    "status",
	}

	column, ok := columns[sortBy]
	if !ok {
		column = "created_at"
	}

	direction := "DESC"
	if sortOrder == "asc" {
		direction = "ASC"
	}

	return column + " " + direction + ", id " + direction
}

func GetTask(ctx *gin.Context) {
	if _, err := utils.GetCurrentUser(ctx); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	projectID, ok := projectIDParam(ctx)
	if !ok {
		return
	}

	task, ok := loadTask(ctx, projectID)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(task))
}

func UpdateTask(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	project, ok := loadProject(ctx)
	if !ok {
		return
	}

	task, ok := loadTask(ctx, project.ID)
	if !ok {
		return
	}

	if err := authz.Authorize(&user, project.OwnerID, authz.OpUpdate); err != nil {
		respondAuthzError(ctx, err, "update tasks")
		return
	}

	var body TaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	details, dueDate := validateTask(body, false)
	if details != nil {
		respondValidation(ctx, details)
		return
	}

	before := task
	upd := activity.TaskUpdate{
		Title:       body.Title,
		Description: body.Description,
		DueDateSet:  body.DueDate != nil,
		DueDate:     dueDate,
	}
	if body.Status != nil {
		status := models.TaskStatus(*body.Status)
		upd.Status = &status
	}
	if body.Priority != nil {
		priority := models.TaskPriority(*body.Priority)
		upd.Priority = &priority
	}

	if body.Title != nil {
		task.Title = *body.Title
	}
	if body.Description != nil {
		task.Description = *body.Description
	}
	if upd.Status != nil {
		task.Status = *upd.Status
	}
	if upd.Priority != nil {
		task.Priority = *upd.Priority
	}
	if upd.DueDateSet {
		task.DueDate = dueDate
	}

	if err := db.DB.Save(&task).Error; err != nil {
		respondInternal(ctx, "update task", err)
		return
	}

	// Unlike project updates, a task update whose diff set is empty
	// writes no activity entry at all.
	clauses := activity.TaskClauses(before, upd)

	if len(clauses) > 0 {
		store := activity.NewStore(db.DB)
		if err := store.Append(project.ID, &task.ID, models.ActionTaskUpdated, activity.TaskUpdatedMessage(task, clauses)); err != nil {
			respondInternal(ctx, "update task", err)
			return
		}
	}

	ctx.JSON(http.StatusOK, taskResponse(task))
}

func DeleteTask(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	project, ok := loadProject(ctx)
	if !ok {
		return
	}

	task, ok := loadTask(ctx, project.ID)
	if !ok {
		return
	}

	if err := authz.Authorize(&user, project.OwnerID, authz.OpDelete); err != nil {
		respondAuthzError(ctx, err, "delete tasks")
		return
	}

	// Log before destroy, best-effort.
	store := activity.NewStore(db.DB)
	store.AppendBestEffort(project.ID, &task.ID, models.ActionTaskDeleted, activity.TaskDeletedMessage(task))

	if err := db.DB.Delete(&task).Error; err != nil {
		respondInternal(ctx, "delete task", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}
