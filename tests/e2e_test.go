package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard-api/internal/auth"
	"github.com/BuzzLyutic/taskboard-api/internal/handler"
	"github.com/BuzzLyutic/taskboard-api/internal/model"
	"github.com/BuzzLyutic/taskboard-api/internal/repo"
	"github.com/BuzzLyutic/taskboard-api/internal/service"
)

// newTestServer собирает тот же роутер, что и main, поверх тестовой БД.
func newTestServer(t *testing.T, pool *pgxpool.Pool) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	userRepo := repo.NewUserRepo(pool)
	taskRepo := repo.NewTaskRepo(pool)

	tokens := auth.NewTokenManager("e2e-test-secret", time.Hour)
	cookie := auth.CookieConfig{Name: "token", SameSite: http.SameSiteStrictMode}

	authService := service.NewAuthService(userRepo, tokens, 4)
	taskService := service.NewTaskService(taskRepo, userRepo)

	authHandler := handler.NewAuthHandler(authService, cookie, time.Hour, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	authMW := auth.NewMiddleware(tokens, userRepo, cookie, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/v2/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)
			r.Post("/logout", authHandler.Logout)
			r.Get("/profile", authHandler.Profile)
		})
	})

	r.Route("/api/v2/tasks", func(r chi.Router) {
		r.Use(authMW.Authenticate)
		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)
		r.With(authMW.RequireAdmin).Get("/stats", taskHandler.Stats)
		r.Get("/{id}", taskHandler.Get)
		r.Put("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// newClient возвращает клиент с cookie jar, чтобы токен жил между запросами.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
	Type    string          `json:"type"`
}

func doJSON(t *testing.T, client *http.Client, method, url string, body interface{}) (int, apiEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestE2E_AuthAndTaskLifecycle(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	srv := newTestServer(t, pool)
	client := newClient(t)

	// Регистрация ставит cookie сразу
	code, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/v2/auth/register", map[string]string{
		"name":     "Alice Smith",
		"email":    "Alice@Example.com",
		"password": TestPassword,
	})
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	assert.Equal(t, "Account created successfully! Welcome aboard.", env.Message)

	var registered struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	assert.Equal(t, "alice@example.com", registered.User.Email)
	assert.NotEmpty(t, registered.Token)

	// Профиль доступен по cookie
	code, env = doJSON(t, client, http.MethodGet, srv.URL+"/api/v2/auth/profile", nil)
	require.Equal(t, http.StatusOK, code)

	var profile struct {
		User model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Alice Smith", profile.User.Name)

	// Создание задачи
	due := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	code, env = doJSON(t, client, http.MethodPost, srv.URL+"/api/v2/tasks/", map[string]interface{}{
		"title":       "Write quarterly report",
		"description": "Summarize the team results for Q3",
		"priority":    "high",
		"dueDate":     due,
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Task created successfully", env.Message)

	var created struct {
		Task model.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, model.StatusPending, created.Task.Status)
	assert.Equal(t, registered.User.ID, created.Task.CreatedBy)
	assert.Equal(t, registered.User.ID, created.Task.AssignedTo)

	taskURL := fmt.Sprintf("%s/api/v2/tasks/%d", srv.URL, created.Task.ID)

	// Чтение
	code, env = doJSON(t, client, http.MethodGet, taskURL, nil)
	require.Equal(t, http.StatusOK, code)

	// Частичное обновление: только статус
	code, env = doJSON(t, client, http.MethodPut, taskURL, map[string]string{
		"status": "in-progress",
	})
	require.Equal(t, http.StatusOK, code)

	var updated struct {
		Task model.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, model.StatusInProgress, updated.Task.Status)
	assert.Equal(t, "Write quarterly report", updated.Task.Title)

	// Список
	code, env = doJSON(t, client, http.MethodGet, srv.URL+"/api/v2/tasks/?status=in-progress", nil)
	require.Equal(t, http.StatusOK, code)

	var listed struct {
		Tasks      []model.Task `json:"tasks"`
		Pagination struct {
			TotalTasks int `json:"totalTasks"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed.Tasks, 1)
	assert.Equal(t, 1, listed.Pagination.TotalTasks)

	// Удаление, затем 404
	code, env = doJSON(t, client, http.MethodDelete, taskURL, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Task deleted successfully", env.Message)

	code, _ = doJSON(t, client, http.MethodGet, taskURL, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Logout гасит cookie, дальше 401
	code, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/v2/auth/logout", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = doJSON(t, client, http.MethodGet, srv.URL+"/api/v2/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
}

func TestE2E_LoginFlow(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	srv := newTestServer(t, pool)

	SeedUser(t, pool, "Bob Jones", "bob@example.com", model.RoleUser)

	// Неизвестный email
	code, env := doJSON(t, newClient(t), http.MethodPost, srv.URL+"/api/v2/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": TestPassword,
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "USER_NOT_FOUND", env.Type)

	// Неверный пароль
	code, env = doJSON(t, newClient(t), http.MethodPost, srv.URL+"/api/v2/auth/login", map[string]string{
		"email":    "bob@example.com",
		"password": "Wrongpass1",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "WRONG_PASSWORD", env.Type)

	// Успешный вход
	client := newClient(t)
	code, env = doJSON(t, client, http.MethodPost, srv.URL+"/api/v2/auth/login", map[string]string{
		"email":    "BOB@example.com",
		"password": TestPassword,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Welcome back, Bob Jones!", env.Message)

	code, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/v2/auth/profile", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestE2E_DeactivatedAccount(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	srv := newTestServer(t, pool)
	client := newClient(t)

	id := SeedUser(t, pool, "Gone User", "gone@example.com", model.RoleUser)

	code, _ := doJSON(t, client, http.MethodPost, srv.URL+"/api/v2/auth/login", map[string]string{
		"email":    "gone@example.com",
		"password": TestPassword,
	})
	require.Equal(t, http.StatusOK, code)

	_, err := pool.Exec(context.Background(), "UPDATE users SET is_active = FALSE WHERE id = $1", id)
	require.NoError(t, err)

	// Живой токен, но выключенный аккаунт
	code, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/v2/auth/profile", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "ACCOUNT_DEACTIVATED", env.Type)

	// И залогиниться заново тоже нельзя
	code, env = doJSON(t, client, http.MethodPost, srv.URL+"/api/v2/auth/login", map[string]string{
		"email":    "gone@example.com",
		"password": TestPassword,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "ACCOUNT_DEACTIVATED", env.Type)
}

func TestE2E_CrossUserIsolation(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	srv := newTestServer(t, pool)

	aliceID := SeedUser(t, pool, "Alice Smith", "alice@example.com", model.RoleUser)
	SeedUser(t, pool, "Bob Jones", "bob@example.com", model.RoleUser)
	taskIDs := SeedTasks(t, pool, 1, aliceID, aliceID)

	bob := newClient(t)
	code, _ := doJSON(t, bob, http.MethodPost, srv.URL+"/api/v2/auth/login", map[string]string{
		"email":    "bob@example.com",
		"password": TestPassword,
	})
	require.Equal(t, http.StatusOK, code)

	// Чужая задача выглядит как несуществующая
	taskURL := fmt.Sprintf("%s/api/v2/tasks/%d", srv.URL, taskIDs[0])
	code, env := doJSON(t, bob, http.MethodGet, taskURL, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Task not found", env.Message)

	code, _ = doJSON(t, bob, http.MethodPut, taskURL, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, bob, http.MethodDelete, taskURL, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// И в списке её нет
	code, env = doJSON(t, bob, http.MethodGet, srv.URL+"/api/v2/tasks/", nil)
	require.Equal(t, http.StatusOK, code)

	var listed struct {
		Tasks []model.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Empty(t, listed.Tasks)
}

func TestE2E_AdminStats(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	srv := newTestServer(t, pool)

	userID := SeedUser(t, pool, "Plain User", "user@example.com", model.RoleUser)
	SeedUser(t, pool, "Admin User", "admin@example.com", model.RoleAdmin)
	SeedTasks(t, pool, 3, userID, userID)

	// Обычному пользователю статистика закрыта
	user := newClient(t)
	code, _ := doJSON(t, user, http.MethodPost, srv.URL+"/api/v2/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": TestPassword,
	})
	require.Equal(t, http.StatusOK, code)

	code, env := doJSON(t, user, http.MethodGet, srv.URL+"/api/v2/tasks/stats", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Type)

	admin := newClient(t)
	code, _ = doJSON(t, admin, http.MethodPost, srv.URL+"/api/v2/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": TestPassword,
	})
	require.Equal(t, http.StatusOK, code)

	code, env = doJSON(t, admin, http.MethodGet, srv.URL+"/api/v2/tasks/stats", nil)
	require.Equal(t, http.StatusOK, code)

	var stats struct {
		TotalTasks int            `json:"totalTasks"`
		ByStatus   map[string]int `json:"byStatus"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 3, stats.ByStatus["pending"])

	// Админ видит задачи всех пользователей
	code, env = doJSON(t, admin, http.MethodGet, srv.URL+"/api/v2/tasks/", nil)
	require.Equal(t, http.StatusOK, code)

	var listed struct {
		Tasks []model.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed.Tasks, 3)
}

func TestE2E_RegisterDuplicateEmail(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	srv := newTestServer(t, pool)

	body := map[string]string{
		"name":     "First One",
		"email":    "taken@example.com",
		"password": TestPassword,
	}

	code, _ := doJSON(t, newClient(t), http.MethodPost, srv.URL+"/api/v2/auth/register", body)
	require.Equal(t, http.StatusCreated, code)

	body["name"] = "Second One"
	code, env := doJSON(t, newClient(t), http.MethodPost, srv.URL+"/api/v2/auth/register", body)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "USER_EXISTS", env.Type)
}
