package v1_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskhub/configs"
	v1 "taskhub/internal/api/v1"
	"taskhub/internal/api/v1/handlers"
	"taskhub/internal/auth"
	"taskhub/internal/cache"
	"taskhub/internal/middleware"
	"taskhub/internal/repository"
	myws "taskhub/internal/websocket"
)

var (
	testDB     *sql.DB
	testRedis  *redis.Client
	testIssuer *auth.TokenIssuer
)

// TestMain menyalakan Postgres dan Redis lewat dockertest supaya suite
// integrasi tidak bergantung pada database lokal.
func TestMain(m *testing.M) {
	os.Setenv("GO_ENV", "test")

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct docker pool: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to docker: %v", err)
	}
	pool.MaxWait = 2 * time.Minute

	pg, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=taskhub",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=taskhub_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start postgres container: %v", err)
	}

	rd, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start redis container: %v", err)
	}

	if err := pool.Retry(func() error {
		psqlconn := fmt.Sprintf(
			"host=localhost port=%s user=taskhub password=secret dbname=taskhub_test sslmode=disable",
			pg.GetPort("5432/tcp"))
		testDB, err = sql.Open("postgres", psqlconn)
		if err != nil {
			return err
		}
		return testDB.Ping()
	}); err != nil {
		log.Fatalf("Could not connect to postgres: %v", err)
	}

	if err := pool.Retry(func() error {
		testRedis = redis.NewClient(&redis.Options{
			Addr: "localhost:" + rd.GetPort("6379/tcp"),
		})
		return testRedis.Ping(testRedis.Context()).Err()
	}); err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	if err := repository.CreateTableIfNotExists(testDB); err != nil {
		log.Fatalf("Could not create tables: %v", err)
	}

	testIssuer, err = auth.NewTokenIssuer(configs.Config{
		JWTSecret:      "integration-test-secret",
		JWTAlgorithm:   "HS256",
		JWTExpiryHours: 24,
	})
	if err != nil {
		log.Fatalf("Could not create token issuer: %v", err)
	}

	code := m.Run()

	if err := repository.DeleteAllTable(testDB); err != nil {
		log.Printf("Could not drop tables: %v", err)
	}
	_ = testDB.Close()
	_ = testRedis.Close()
	if err := pool.Purge(pg); err != nil {
		log.Printf("Could not purge postgres container: %v", err)
	}
	if err := pool.Purge(rd); err != nil {
		log.Printf("Could not purge redis container: %v", err)
	}

	os.Exit(code)
}

// createTestApp menginisialisasi aplikasi Fiber lengkap dengan route yang
// akan di-test. Bcrypt memakai MinCost supaya suite tetap cepat.
func createTestApp() *fiber.App {
	validate := validator.New()
	userRepo := repository.NewUserRepo(testDB)
	taskRepo := repository.NewTaskRepo(testDB)
	taskCache := cache.NewTaskCache(testRedis)

	hub := myws.NewHub()
	go hub.Run()

	deps := v1.Deps{
		Auth:   handlers.NewAuthHandler(userRepo, testIssuer, validate, bcrypt.MinCost),
		Task:   handlers.NewTaskHandler(taskRepo, taskCache, hub, validate),
		User:   handlers.NewUserHandler(userRepo),
		Issuer: testIssuer,
		Hub:    hub,
	}

	app := fiber.New()
	app.Use(middleware.ErrorHandler())
	v1.RegisterRoutes(app, deps)
	return app
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@example.com", prefix, time.Now().UnixNano())
}

// doJSON mengirim request JSON (dengan bearer token opsional) dan
// mengembalikan response-nya.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func decodeRaw(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &result))
	return result
}

// registerUser mendaftarkan user baru dan mengembalikan id-nya.
func registerUser(t *testing.T, app *fiber.App, email, password string) int {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, 201, resp.StatusCode)

	result := decodeBody(t, resp)
	data, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "expected data field in register response")
	id, ok := data["id"].(float64)
	require.True(t, ok, "expected id in register response")
	return int(id)
}

// loginUser melakukan login dan mengembalikan access token.
func loginUser(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, 200, resp.StatusCode)

	result := decodeBody(t, resp)
	data, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "expected data field in login response")
	token, ok := data["access_token"].(string)
	require.True(t, ok, "expected access_token in login response")
	require.NotEmpty(t, token)
	return token
}

// createTask membuat task dan mengembalikan representasinya.
func createTask(t *testing.T, app *fiber.App, token string, body map[string]interface{}) map[string]interface{} {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/v1/tasks/", token, body)
	require.Equal(t, 201, resp.StatusCode)

	result := decodeBody(t, resp)
	task, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "expected data field in create task response")
	return task
}
