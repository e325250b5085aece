package resolvers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/writewithwrabit/calorietrack/dashboard"
	"github.com/writewithwrabit/calorietrack/db"
	"github.com/writewithwrabit/calorietrack/logging"
	"github.com/writewithwrabit/calorietrack/models"
	"github.com/writewithwrabit/calorietrack/store"
)

func newTestServer(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "calories.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = conn.ApplyMigrations(ctx)
	require.NoError(t, err)

	entries := store.New(conn, time.UTC)
	resolver := New(entries, dashboard.New(entries, nil), time.UTC, nil)
	resolver.now = func() time.Time { return time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC) }

	router := NewRouter(Options{UserID: "1", AllowedOrigins: []string{"*"}}, resolver)
	return router, entries
}

func newMockServer(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { conn.Close() })

	entries := store.New(db.Wrap(conn, db.Postgres, nil), time.UTC)
	resolver := New(entries, dashboard.New(entries, nil), time.UTC, nil)
	return NewRouter(Options{UserID: "1"}, resolver), mock
}

func do(h http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func form(values url.Values) *bytes.Buffer {
	return bytes.NewBufferString(values.Encode())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

const formType = "application/x-www-form-urlencoded"

func TestCreateEntryFromForm(t *testing.T) {
	h, entries := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/records", form(url.Values{
		"label":    {"Sushi"},
		"calories": {"500"},
		"datetime": {"2025-05-16T12:00"},
	}), formType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Entry
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Sushi", created.Label)
	assert.Equal(t, 500, created.Calories)
	assert.Equal(t, models.Intake, created.Kind)
	assert.Equal(t, "1", created.UserID)

	stored, err := entries.Get(context.Background(), models.Intake, "1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sushi", stored.Label)
}

func TestCreateEntryFromMultipartWithLegacyField(t *testing.T) {
	h, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Running"))
	require.NoError(t, mw.WriteField("calories", "300"))
	require.NoError(t, mw.WriteField("datetime", "2025-05-16T07:00"))
	require.NoError(t, mw.Close())

	rec := do(h, http.MethodPost, "/api/exercises", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Entry
	decode(t, rec, &created)
	assert.Equal(t, "Running", created.Label)
	assert.Equal(t, models.Exertion, created.Kind)
}

func TestCreateEntryFromJSON(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/exercises",
		bytes.NewBufferString(`{"label":"Swimming","calories":450,"datetime":"2025-05-17T18:15"}`),
		"application/json; charset=utf-8")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Entry
	decode(t, rec, &created)
	assert.Equal(t, 450, created.Calories)
}

func TestCreateEntryRejectsInvalidInput(t *testing.T) {
	h, entries := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/records", form(url.Values{
		"label":    {""},
		"calories": {"5001"},
		"datetime": {"2025-13-01T10:00"},
	}), formType)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	decode(t, rec, &body)
	assert.Equal(t, []string{"label is required"}, body.Errors["label"])
	assert.Equal(t, []string{"calories must be 5000 or less"}, body.Errors["calories"])
	assert.Equal(t, []string{"datetime must be a valid date and time"}, body.Errors["datetime"])

	list, err := entries.List(context.Background(), models.Intake, "1")
	require.NoError(t, err)
	assert.Empty(t, list, "nothing is persisted on validation failure")
}

func TestCreateEntryRejectsBrokenJSON(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/records", bytes.NewBufferString(`{"label":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid input"}`, rec.Body.String())
}

func TestEntryLifecycle(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/exercises", form(url.Values{
		"label": {"Yoga"}, "calories": {"150"}, "datetime": {"2025-05-10T06:30"},
	}), formType)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Entry
	decode(t, rec, &created)

	rec = do(h, http.MethodGet, "/api/exercises/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPut, "/api/exercises/"+created.ID, form(url.Values{
		"label": {"Hot yoga"}, "calories": {"250"}, "datetime": {"2025-05-10T07:00"},
	}), formType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Entry
	decode(t, rec, &updated)
	assert.Equal(t, "Hot yoga", updated.Label)
	assert.Equal(t, 250, updated.Calories)

	rec = do(h, http.MethodGet, "/api/exercises", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Entry
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Hot yoga", list[0].Label)

	rec = do(h, http.MethodDelete, "/api/exercises/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"deleted"}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/exercises/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestMissingEntryIsNotFound(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodPut, "/api/records/nope", form(url.Values{
		"label": {"Sushi"}, "calories": {"500"}, "datetime": {"2025-05-16T12:00"},
	}), formType)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodDelete, "/api/records/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateValidatesBeforeTouchingStore(t *testing.T) {
	h, mock := newMockServer(t)

	rec := do(h, http.MethodPut, "/api/records/a1", form(url.Values{
		"label": {"Sushi"}, "calories": {"-1"}, "datetime": {"2025-05-16T12:00"},
	}), formType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "calories must be 0 or more")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFailureIsOpaque(t *testing.T) {
	h, mock := newMockServer(t)
	mock.ExpectQuery("SELECT id, user_id, label, calories, occurred_at FROM intake_entries").
		WillReturnError(errors.New(`pq: relation "intake_entries" does not exist`))

	rec := do(h, http.MethodGet, "/api/records", nil, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"server error"}`, rec.Body.String())
	assert.False(t, strings.Contains(rec.Body.String(), "relation"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/records", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
