package activity

import (
	"testing"

	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	// A pooled second connection would see its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&models.User{}, &models.Project{}, &models.Task{}, &models.ActivityLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return NewStore(gdb), gdb
}

func TestListByProjectNewestFirst(t *testing.T) {
	store, _ := setupStore(t)

	for _, msg := range []string{"first", "second", "third"} {
		if err := store.Append(1, nil, models.ActionProjectUpdated, msg); err != nil {
			t.Fatalf("append %q: %v", msg, err)
		}
	}

	entries, total, err := store.ListByProject(1, 1, 2)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Message != "third" || entries[1].Message != "second" {
		t.Fatalf("entries out of order: %q, %q", entries[0].Message, entries[1].Message)
	}

	entries, _, err = store.ListByProject(1, 2, 2)
	if err != nil {
		t.Fatalf("ListByProject page 2: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "first" {
		t.Fatalf("page 2 = %v, want [first]", entries)
	}
}

func TestListByOwnerScopesAndAnnotates(t *testing.T) {
	store, gdb := setupStore(t)

	owner := models.User{Email: "owner@example.com", PasswordHash: "x", Role: models.RoleEditor}
	other := models.User{Email: "other@example.com", PasswordHash: "x", Role: models.RoleEditor}
	if err := gdb.Create(&owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	if err := gdb.Create(&other).Error; err != nil {
		t.Fatalf("create other: %v", err)
	}

	mine := models.Project{Name: "Mine", OwnerID: owner.ID}
	theirs := models.Project{Name: "Theirs", OwnerID: other.ID}
	if err := gdb.Create(&mine).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := gdb.Create(&theirs).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}

	if err := store.Append(mine.ID, nil, models.ActionProjectCreated, "mine created"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(theirs.ID, nil, models.ActionProjectCreated, "theirs created"); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, total, err := store.ListByOwner(owner.ID, 1, 50)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("total = %d, len = %d, want 1 and 1", total, len(entries))
	}
	if entries[0].Message != "mine created" {
		t.Fatalf("message = %q, want %q", entries[0].Message, "mine created")
	}
	if entries[0].ProjectName != "Mine" {
		t.Fatalf("ProjectName = %q, want %q", entries[0].ProjectName, "Mine")
	}
}

func TestAppendBestEffortSwallowsFailure(t *testing.T) {
	store, gdb := setupStore(t)

	if err := gdb.Migrator().DropTable(&models.ActivityLog{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	// Must not panic and must not surface the error.
	store.AppendBestEffort(1, nil, models.ActionProjectDeleted, `Project "X" deleted`)

	if err := store.Append(1, nil, models.ActionProjectDeleted, "x"); err == nil {
		t.Fatal("expected Append to fail against the dropped table")
	}
}
