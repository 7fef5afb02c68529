package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/auth"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/router"
	"github.com/taskflow-dev/taskflow/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))

	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("init JWT secret: %v", err)
	}

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

	db.DB = gdb

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return router.NewRouter()
}

func doJSON(t *testing.T, r http.Handler, method, path, body, cookie string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: types.AuthCookieName, Value: cookie})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// register creates a user through the API and returns its session token.
func register(t *testing.T, r http.Handler, email string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", `{"email":"`+email+`","password":"password123"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", email, w.Code, w.Body.String())
	}

	for _, c := range w.Result().Cookies() {
		if c.Name == types.AuthCookieName {
			return c.Value
		}
	}

	t.Fatalf("register %s: no auth cookie in response", email)
	return ""
}

func dbExec(t *testing.T, sql string) error {
	t.Helper()
	return db.DB.Exec(sql).Error
}

func makeReadOnly(t *testing.T, email string) {
	t.Helper()
	err := db.DB.Model(&models.User{}).Where("email = ?", email).Update("role", models.RoleReadOnly).Error
	if err != nil {
		t.Fatalf("set read-only role: %v", err)
	}
}

type projectJSON struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `json:"ownerId"`
	TaskCount   int64  `json:"taskCount"`
}

type taskJSON struct {
	ID          uint    `json:"id"`
	ProjectID   uint    `json:"projectId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

type activityEntryJSON struct {
	ID          uint   `json:"id"`
	ProjectID   uint   `json:"projectId"`
	TaskID      *uint  `json:"taskId"`
	Action      string `json:"action"`
	Message     string `json:"message"`
	ProjectName string `json:"projectName"`
}

type pageJSON struct {
	Items    []activityEntryJSON `json:"items"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

type taskPageJSON struct {
	Items    []taskJSON `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}

func createProject(t *testing.T, r http.Handler, cookie, body string) projectJSON {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/projects", body, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: status %d, body %s", w.Code, w.Body.String())
	}

	var project projectJSON
	decode(t, w, &project)
	return project
}

func createTask(t *testing.T, r http.Handler, cookie string, projectID uint, body string) taskJSON {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, projectPath(projectID)+"/tasks", body, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("create task: status %d, body %s", w.Code, w.Body.String())
	}

	var task taskJSON
	decode(t, w, &task)
	return task
}

func projectPath(id uint) string {
	return "/api/projects/" + strconv.Itoa(int(id))
}

func projectActivity(t *testing.T, r http.Handler, cookie string, projectID uint, query string) pageJSON {
	t.Helper()

	w := doJSON(t, r, http.MethodGet, projectPath(projectID)+"/activity"+query, "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("project activity: status %d, body %s", w.Code, w.Body.String())
	}

	var page pageJSON
	decode(t, w, &page)
	return page
}
