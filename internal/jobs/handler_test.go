package jobs

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	h := NewHandler(NewStore(sqlx.NewDb(raw, "mysql")), newTestQueue(t))
	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/queries", h.CreateQuery)
	api.Post("/disputes", h.CreateDispute)
	api.Post("/posts", h.CreatePost)
	api.Get("/jobs/:id", h.GetJob)
	return app, mock
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return resp.StatusCode, out
}

func TestCreateQueryAccepted(t *testing.T) {
	app, mock := newTestApp(t)
	mock.ExpectExec("INSERT INTO jobs").WillReturnResult(sqlmock.NewResult(0, 1))

	code, body := postJSON(t, app, "/api/v1/queries", `{"query": "Did it rain in Paris on 2024-01-15?"}`)

	assert.Equal(t, fiber.StatusAccepted, code)
	assert.Equal(t, "pending", body["status"])
	assert.NotEmpty(t, body["id"])
}

func TestCreateQueryTooShort(t *testing.T) {
	app, _ := newTestApp(t)
	code, body := postJSON(t, app, "/api/v1/queries", `{"query": "short"}`)

	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body["error"], "between 10 and 256")
}

func TestCreateQueryInvalidCharset(t *testing.T) {
	app, _ := newTestApp(t)
	code, body := postJSON(t, app, "/api/v1/queries", `{"query": "is this fine <script>alert(1)</script>"}`)

	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body["error"], "invalid characters")
}

func TestCreateDisputeRequiresBothFields(t *testing.T) {
	app, _ := newTestApp(t)
	code, _ := postJSON(t, app, "/api/v1/disputes", `{"contract": "x"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = postJSON(t, app, "/api/v1/disputes", `{"dispute_details": "x"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestCreateDisputeAccepted(t *testing.T) {
	app, mock := newTestApp(t)
	mock.ExpectExec("INSERT INTO jobs").WillReturnResult(sqlmock.NewResult(0, 1))

	code, body := postJSON(t, app, "/api/v1/disputes",
		`{"contract": "A delivers by Friday.", "dispute_details": "A delivered on Monday.", "payer_address": "0xabc", "tx_hash": "0xdef", "network": "base"}`)

	assert.Equal(t, fiber.StatusAccepted, code)
	assert.NotEmpty(t, body["id"])
}

func TestCreatePostURLValidation(t *testing.T) {
	app, _ := newTestApp(t)

	for _, bad := range []string{
		`{"post_url": "https://example.com/u/status/1"}`,
		`{"post_url": "https://x.com/u/profile"}`,
		`{"post_url": "not a url"}`,
	} {
		code, _ := postJSON(t, app, "/api/v1/posts", bad)
		assert.Equal(t, fiber.StatusBadRequest, code)
	}
}

func TestCreatePostAccepted(t *testing.T) {
	app, mock := newTestApp(t)
	mock.ExpectExec("INSERT INTO jobs").WillReturnResult(sqlmock.NewResult(0, 1))

	code, _ := postJSON(t, app, "/api/v1/posts", `{"post_url": "https://x.com/someone/status/1234567890"}`)
	assert.Equal(t, fiber.StatusAccepted, code)
}

func TestGetJobInvalidID(t *testing.T) {
	app, _ := newTestApp(t)
	req := httptest.NewRequest("GET", "/api/v1/jobs/not-a-uuid", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetJobReturnsResultDocument(t *testing.T) {
	app, mock := newTestApp(t)

	id := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	rows := sqlmock.NewRows([]string{"id", "query_type", "query", "status", "attempts", "result", "payer_address"}).
		AddRow(id, "factual", "did it rain in Paris", "completed", 1, `{"final_decision":"yes"}`, "0xabc")
	mock.ExpectQuery("SELECT \\* FROM jobs WHERE id=\\?").WithArgs(id).WillReturnRows(rows)

	req := httptest.NewRequest("GET", "/api/v1/jobs/"+id, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "completed", doc["status"])
	assert.Equal(t, "0xabc", doc["payer_address"])
	result, ok := doc["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "yes", result["final_decision"])
}

func TestGetJobNotFound(t *testing.T) {
	app, mock := newTestApp(t)
	id := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	mock.ExpectQuery("SELECT \\* FROM jobs WHERE id=\\?").WithArgs(id).WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest("GET", "/api/v1/jobs/"+id, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
