package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/auth"
	"github.com/Celag1/logicqp-sub003/internal/database"
	"github.com/Celag1/logicqp-sub003/internal/fetch"
	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/Celag1/logicqp-sub003/internal/render"
	"github.com/Celag1/logicqp-sub003/internal/report"
	"github.com/Celag1/logicqp-sub003/internal/schedule"
	"github.com/Celag1/logicqp-sub003/internal/scheduler"
	"github.com/Celag1/logicqp-sub003/internal/store"
	"github.com/Celag1/logicqp-sub003/internal/track"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type testServer struct {
	server    *Server
	db        *gorm.DB
	templates *store.TemplateStore
	schedules *store.ScheduleStore
	tracker   *track.Tracker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	calc := schedule.NewCalculator(schedule.NewCronEvaluator())
	templates := store.NewTemplateStore(db)
	schedules := store.NewScheduleStore(db, calc)
	tracker := track.NewTracker(db)

	artifacts, err := render.NewArtifactStore(t.TempDir(), "/reports")
	require.NoError(t, err)
	executor := scheduler.NewExecutor(templates, schedules, tracker,
		fetch.NewRegistry(db), render.NewRegistry(), artifacts, calc, nil, time.Minute)

	dashboard := report.NewDashboard(db, time.UTC)

	return &testServer{
		server:    NewServer(templates, schedules, tracker, dashboard, executor, testSecret),
		db:        db,
		templates: templates,
		schedules: schedules,
		tracker:   tracker,
	}
}

func (ts *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) createTemplate(t *testing.T) *models.ReportTemplate {
	t.Helper()
	template := &models.ReportTemplate{
		Name:   "Ventas",
		Type:   models.ReportTypeSales,
		Format: models.FormatCSV,
	}
	require.NoError(t, ts.templates.Create(template))
	return template
}

func TestHealthzNeedsNoAuth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/templates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/templates", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTemplateAdminOnly(t *testing.T) {
	ts := newTestServer(t)
	body := gin.H{"name": "Ventas", "type": "sales", "format": "csv"}

	rec := ts.request(t, http.MethodPost, "/api/v1/templates", token(t, "user-1", "user"), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/v1/templates", token(t, "admin-1", "admin"), body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/templates", token(t, "user-1", "user"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var templates []models.ReportTemplate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &templates))
	require.Len(t, templates, 1)
	assert.Equal(t, "Ventas", templates[0].Name)
}

func TestDeleteTemplateInUse(t *testing.T) {
	ts := newTestServer(t)
	template := ts.createTemplate(t)

	body := gin.H{
		"name":        "Reporte de ventas",
		"template_id": template.ID,
		"schedule":    gin.H{"frequency": "daily", "hour": 2, "timezone": "UTC"},
	}
	rec := ts.request(t, http.MethodPost, "/api/v1/scheduled-reports", token(t, "user-1", "user"), body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.request(t, http.MethodDelete, "/api/v1/templates/"+template.ID, token(t, "admin-1", "admin"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateScheduledReport(t *testing.T) {
	ts := newTestServer(t)
	template := ts.createTemplate(t)

	body := gin.H{
		"name":        "Reporte de ventas",
		"template_id": template.ID,
		"schedule":    gin.H{"frequency": "daily", "hour": 2, "timezone": "UTC"},
		"recipients":  []string{"gerencia@logicqp.ec"},
	}
	rec := ts.request(t, http.MethodPost, "/api/v1/scheduled-reports", token(t, "user-1", "user"), body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.ScheduledReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "user-1", created.UserID)
	assert.True(t, created.Enabled)
	assert.False(t, created.NextRun.IsZero())

	// Listing is scoped to the caller.
	rec = ts.request(t, http.MethodGet, "/api/v1/scheduled-reports", token(t, "user-2", "user"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var others []models.ScheduledReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &others))
	assert.Empty(t, others)
}

func TestCreateScheduledReportBadSchedule(t *testing.T) {
	ts := newTestServer(t)
	template := ts.createTemplate(t)

	body := gin.H{
		"name":        "Reporte",
		"template_id": template.ID,
		"schedule":    gin.H{"frequency": "daily", "hour": 25, "timezone": "UTC"},
	}
	rec := ts.request(t, http.MethodPost, "/api/v1/scheduled-reports", token(t, "user-1", "user"), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateScheduledReportUnknownTemplate(t *testing.T) {
	ts := newTestServer(t)

	body := gin.H{
		"name":        "Reporte",
		"template_id": "missing",
		"schedule":    gin.H{"frequency": "daily", "hour": 2, "timezone": "UTC"},
	}
	rec := ts.request(t, http.MethodPost, "/api/v1/scheduled-reports", token(t, "user-1", "user"), body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchScheduledReport(t *testing.T) {
	ts := newTestServer(t)
	template := ts.createTemplate(t)

	report := &models.ScheduledReport{
		Name:       "Reporte",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule:   models.Schedule{Frequency: models.FrequencyDaily, Hour: 2, Timezone: "UTC"},
		Enabled:    true,
	}
	require.NoError(t, ts.schedules.Create(report))

	body := gin.H{"enabled": false}
	rec := ts.request(t, http.MethodPatch, "/api/v1/scheduled-reports/"+report.ID, token(t, "user-1", "user"), body)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.ScheduledReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.False(t, updated.Enabled)

	rec = ts.request(t, http.MethodPatch, "/api/v1/scheduled-reports/missing", token(t, "user-1", "user"), body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunNowConflictsWithRunningExecution(t *testing.T) {
	ts := newTestServer(t)
	template := ts.createTemplate(t)

	report := &models.ScheduledReport{
		Name:       "Reporte",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule:   models.Schedule{Frequency: models.FrequencyDaily, Hour: 2, Timezone: "UTC"},
		Enabled:    true,
	}
	require.NoError(t, ts.schedules.Create(report))

	_, err := ts.tracker.Begin(report.ID, nil)
	require.NoError(t, err)

	rec := ts.request(t, http.MethodPost, fmt.Sprintf("/api/v1/scheduled-reports/%s/run", report.ID), token(t, "user-1", "user"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/v1/scheduled-reports/missing/run", token(t, "user-1", "user"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecutionHistoryLimitValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/scheduled-reports/some-id/executions?limit=abc", token(t, "user-1", "user"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/scheduled-reports/some-id/executions?limit=5", token(t, "user-1", "user"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDueReports(t *testing.T) {
	ts := newTestServer(t)
	template := ts.createTemplate(t)

	report := &models.ScheduledReport{
		Name:       "Reporte",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule:   models.Schedule{Frequency: models.FrequencyDaily, Hour: 2, Timezone: "UTC"},
		Enabled:    true,
	}
	require.NoError(t, ts.schedules.Create(report))

	original := timeNow
	timeNow = func() time.Time { return report.NextRun.Add(time.Minute) }
	defer func() { timeNow = original }()

	rec := ts.request(t, http.MethodGet, "/api/v1/reports/due", token(t, "user-1", "user"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var due []models.ScheduledReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &due))
	require.Len(t, due, 1)
	assert.Equal(t, report.ID, due[0].ID)
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/dashboard", token(t, "user-1", "user"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats report.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalScheduledReports)
}
