// Package activity renders and stores the append-only activity log. The
// rendering half is deliberately literal-minded: API consumers and tests
// assert on the exact message text, so every format below is a contract.
package activity

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskflow-dev/taskflow/internal/models"
)

const (
	// Old/new string values in a diff clause are cut to this many runes.
	// No ellipsis is added; the bare prefix is the documented format.
	diffPrefixLen = 30
	// Description values in create/delete summaries are cut to this many
	// runes, with "..." appended when anything was cut.
	summaryPrefixLen = 50

	emptyToken  = "(empty)"
	noDateToken = "(none)"

	dueDateLayout = "2006-01-02"
)

// ProjectUpdate carries the fields a project PATCH actually included.
// A nil pointer means the field was absent from the request and must not
// contribute a clause, even if the stored value happens to differ.
type ProjectUpdate struct {
	Name        *string
	Description *string
}

// TaskUpdate carries the fields a task PATCH actually included. DueDateSet
// distinguishes "clear the due date" (set, nil value) from "untouched".
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDateSet  bool
	DueDate     *time.Time
}

// ProjectClauses lists the human-readable changes a project update makes,
// in declared field order.
func ProjectClauses(before models.Project, upd ProjectUpdate) []string {
	var clauses []string

	if upd.Name != nil && *upd.Name != "" && *upd.Name != before.Name {
		clauses = append(clauses, fmt.Sprintf("Name: %q → %q", before.Name, *upd.Name))
	}
	if upd.Description != nil && *upd.Description != before.Description {
		clauses = append(clauses, descriptionClause(before.Description, *upd.Description))
	}

	return clauses
}

// TaskClauses lists the human-readable changes a task update makes, in
// declared field order: title, description, status, priority, due date.
func TaskClauses(before models.Task, upd TaskUpdate) []string {
	var clauses []string

	if upd.Title != nil && *upd.Title != "" && *upd.Title != before.Title {
		clauses = append(clauses, fmt.Sprintf("Title: %q → %q", before.Title, *upd.Title))
	}
	if upd.Description != nil && *upd.Description != before.Description {
		clauses = append(clauses, descriptionClause(before.Description, *upd.Description))
	}
	if upd.Status != nil && *upd.Status != before.Status {
		clauses = append(clauses, fmt.Sprintf("Status: %s → %s", before.Status, *upd.Status))
	}
	if upd.Priority != nil && *upd.Priority != before.Priority {
		clauses = append(clauses, fmt.Sprintf("Priority: %s → %s", before.Priority, *upd.Priority))
	}
	if upd.DueDateSet && !sameInstant(before.DueDate, upd.DueDate) {
		clauses = append(clauses, fmt.Sprintf("Due Date: %s → %s", formatDate(before.DueDate), formatDate(upd.DueDate)))
	}

	return clauses
}

func ProjectCreatedMessage(p models.Project) string {
	if p.Description == "" {
		return fmt.Sprintf("Project %q created", p.Name)
	}
	return fmt.Sprintf("Project %q created (Description: %s)", p.Name, summaryPrefix(p.Description))
}

// ProjectUpdatedMessage renders with or without clauses; project updates
// always log, even when nothing detectably changed.
func ProjectUpdatedMessage(p models.Project, clauses []string) string {
	if len(clauses) == 0 {
		return fmt.Sprintf("Project %q updated", p.Name)
	}
	return fmt.Sprintf("Project %q updated - %s", p.Name, strings.Join(clauses, "; "))
}

func ProjectDeletedMessage(p models.Project) string {
	if p.Description == "" {
		return fmt.Sprintf("Project %q deleted", p.Name)
	}
	return fmt.Sprintf("Project %q deleted (Description: %s)", p.Name, summaryPrefix(p.Description))
}

func TaskCreatedMessage(t models.Task) string {
	return fmt.Sprintf("Task %q created (%s)", t.Title, strings.Join(taskSummary(t, true), ", "))
}

// TaskUpdatedMessage requires at least one clause; a task update with an
// empty diff set writes no activity entry at all.
func TaskUpdatedMessage(t models.Task, clauses []string) string {
	return fmt.Sprintf("Task %q updated - %s. Current: %s",
		t.Title, strings.Join(clauses, "; "), strings.Join(taskSummary(t, false), ", "))
}

func TaskDeletedMessage(t models.Task) string {
	return fmt.Sprintf("Task %q deleted (%s)", t.Title, strings.Join(taskSummary(t, true), ", "))
}

// taskSummary lists the task's current interesting fields. The description
// only appears in create/delete summaries, never in the update trailer.
func taskSummary(t models.Task, includeDescription bool) []string {
	summary := []string{
		fmt.Sprintf("Status: %s", t.Status),
		fmt.Sprintf("Priority: %s", t.Priority),
	}
	if t.DueDate != nil {
		summary = append(summary, fmt.Sprintf("Due Date: %s", t.DueDate.Format(dueDateLayout)))
	}
	if includeDescription && t.Description != "" {
		summary = append(summary, fmt.Sprintf("Description: %s", summaryPrefix(t.Description)))
	}
	return summary
}

func descriptionClause(oldVal, newVal string) string {
	return fmt.Sprintf("Description: %q → %q", diffRepr(oldVal), diffRepr(newVal))
}

func diffRepr(s string) string {
	if s == "" {
		return emptyToken
	}
	return runePrefix(s, diffPrefixLen)
}

func summaryPrefix(s string) string {
	if len([]rune(s)) <= summaryPrefixLen {
		return s
	}
	return runePrefix(s, summaryPrefixLen) + "..."
}

func runePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatDate(t *time.Time) string {
	if t == nil {
		return noDateToken
	}
	return t.Format(dueDateLayout)
}

// sameInstant treats two absent dates as equal and compares present dates
// by their instant, not their rendering.
func sameInstant(a, b *time.Time) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Equal(*b)
}
