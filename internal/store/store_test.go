package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/database"
	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/Celag1/logicqp-sub003/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTemplate(t *testing.T, db *gorm.DB) *models.ReportTemplate {
	t.Helper()
	template := &models.ReportTemplate{
		Name:   "Ventas Diarias",
		Type:   models.ReportTypeSales,
		Format: models.FormatCSV,
	}
	require.NoError(t, NewTemplateStore(db).Create(template))
	return template
}

func dailySchedule(hour, minute int) models.Schedule {
	return models.Schedule{
		Frequency: models.FrequencyDaily,
		Hour:      hour,
		Minute:    minute,
		Timezone:  "UTC",
	}
}

func TestTemplateCreateValidation(t *testing.T) {
	templates := NewTemplateStore(testDB(t))

	err := templates.Create(&models.ReportTemplate{Type: models.ReportTypeSales, Format: models.FormatCSV})
	assert.Error(t, err)

	err = templates.Create(&models.ReportTemplate{Name: "x", Type: "bogus", Format: models.FormatCSV})
	assert.Error(t, err)

	err = templates.Create(&models.ReportTemplate{Name: "x", Type: models.ReportTypeSales, Format: "docx"})
	assert.Error(t, err)
}

func TestTemplateDeleteInUse(t *testing.T) {
	db := testDB(t)
	templates := NewTemplateStore(db)
	template := createTemplate(t, db)

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	schedules := NewScheduleStoreWithClock(db, schedule.NewCalculator(nil), func() time.Time { return now })
	report := &models.ScheduledReport{
		Name:       "Reporte de ventas",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule:   dailySchedule(2, 0),
		Enabled:    true,
	}
	require.NoError(t, schedules.Create(report))

	err := templates.Delete(template.ID)
	assert.ErrorIs(t, err, ErrTemplateInUse)

	require.NoError(t, schedules.Delete(report.ID))
	require.NoError(t, templates.Delete(template.ID))

	err = templates.Delete(template.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleCreateComputesNextRun(t *testing.T) {
	db := testDB(t)
	template := createTemplate(t, db)

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	schedules := NewScheduleStoreWithClock(db, schedule.NewCalculator(nil), func() time.Time { return now })

	report := &models.ScheduledReport{
		Name:       "Reporte de ventas",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule:   dailySchedule(2, 0),
		Enabled:    true,
	}
	require.NoError(t, schedules.Create(report))

	assert.Equal(t, time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC), report.NextRun.UTC())
	assert.Nil(t, report.LastRun)
}

func TestScheduleCreateRejectsBadConfig(t *testing.T) {
	db := testDB(t)
	template := createTemplate(t, db)
	schedules := NewScheduleStore(db, schedule.NewCalculator(nil))

	report := &models.ScheduledReport{
		Name:       "Reporte",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule: models.Schedule{
			Frequency: models.FrequencyDaily,
			Hour:      25,
			Timezone:  "UTC",
		},
	}
	err := schedules.Create(report)
	var cfgErr *schedule.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	var count int64
	require.NoError(t, db.Model(&models.ScheduledReport{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestScheduleCreateUnknownTemplate(t *testing.T) {
	schedules := NewScheduleStore(testDB(t), schedule.NewCalculator(nil))

	err := schedules.Create(&models.ScheduledReport{
		Name:       "Reporte",
		UserID:     "user-1",
		TemplateID: "missing",
		Schedule:   dailySchedule(2, 0),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleUpdateRecomputesNextRun(t *testing.T) {
	db := testDB(t)
	template := createTemplate(t, db)

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	schedules := NewScheduleStoreWithClock(db, schedule.NewCalculator(nil), func() time.Time { return now })

	report := &models.ScheduledReport{
		Name:       "Reporte",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule:   dailySchedule(2, 0),
		Enabled:    true,
	}
	require.NoError(t, schedules.Create(report))

	newName := "Reporte semanal"
	updated, err := schedules.Update(report.ID, UpdatePatch{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Reporte semanal", updated.Name)
	// A patch without a schedule change keeps next_run as is.
	assert.Equal(t, report.NextRun.UTC(), updated.NextRun.UTC())

	weekly := models.Schedule{Frequency: models.FrequencyWeekly, Hour: 6, Minute: 30, Timezone: "UTC"}
	updated, err = schedules.Update(report.ID, UpdatePatch{Schedule: &weekly})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 22, 6, 30, 0, 0, time.UTC), updated.NextRun.UTC())
}

func TestDueOrdering(t *testing.T) {
	db := testDB(t)
	template := createTemplate(t, db)
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	schedules := NewScheduleStoreWithClock(db, schedule.NewCalculator(nil), func() time.Time { return now })

	mk := func(name string, enabled bool, nextRun time.Time) *models.ScheduledReport {
		report := &models.ScheduledReport{
			Name:       name,
			UserID:     "user-1",
			TemplateID: template.ID,
			Schedule:   dailySchedule(2, 0),
			Enabled:    enabled,
		}
		require.NoError(t, schedules.Create(report))
		require.NoError(t, db.Model(report).Update("next_run", nextRun).Error)
		return report
	}

	mk("stale", true, now.Add(-2*time.Hour))
	mk("fresh", true, now.Add(-time.Minute))
	mk("disabled", false, now.Add(-3*time.Hour))
	mk("future", true, now.Add(time.Hour))

	due, err := schedules.Due(now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "stale", due[0].Name)
	assert.Equal(t, "fresh", due[1].Name)
	require.NotNil(t, due[0].Template)
	assert.Equal(t, template.ID, due[0].Template.ID)
}

func TestAdvanceRun(t *testing.T) {
	db := testDB(t)
	template := createTemplate(t, db)
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	schedules := NewScheduleStoreWithClock(db, schedule.NewCalculator(nil), func() time.Time { return now })

	report := &models.ScheduledReport{
		Name:       "Reporte",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule:   dailySchedule(2, 0),
		Enabled:    true,
	}
	require.NoError(t, schedules.Create(report))

	next := time.Date(2024, 1, 17, 2, 0, 0, 0, time.UTC)

	// A failed run advances next_run without recording a last run.
	require.NoError(t, schedules.AdvanceRun(report.ID, nil, next))
	got, err := schedules.Get(report.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastRun)
	assert.Equal(t, next, got.NextRun.UTC())

	finished := now.Add(time.Minute)
	require.NoError(t, schedules.AdvanceRun(report.ID, &finished, next.AddDate(0, 0, 1)))
	got, err = schedules.Get(report.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRun)
	assert.Equal(t, finished, got.LastRun.UTC())

	assert.ErrorIs(t, schedules.AdvanceRun("missing", nil, next), ErrNotFound)
}

func TestListByUser(t *testing.T) {
	db := testDB(t)
	template := createTemplate(t, db)
	schedules := NewScheduleStore(db, schedule.NewCalculator(nil))

	for _, user := range []string{"user-1", "user-1", "user-2"} {
		require.NoError(t, schedules.Create(&models.ScheduledReport{
			Name:       "Reporte",
			UserID:     user,
			TemplateID: template.ID,
			Schedule:   dailySchedule(2, 0),
		}))
	}

	mine, err := schedules.ListByUser("user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := schedules.ListByUser("user-2")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestUpdateWritesOnlyPatchedColumns(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	schedules := NewScheduleStoreWithClock(testDB(t), schedule.NewCalculator(nil), func() time.Time { return now })

	name := "Reporte"
	updates, err := schedules.patchUpdates(UpdatePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "Reporte"}, updates)

	weekly := models.Schedule{Frequency: models.FrequencyWeekly, Hour: 6, Timezone: "UTC"}
	updates, err = schedules.patchUpdates(UpdatePatch{Schedule: &weekly})
	require.NoError(t, err)
	assert.Contains(t, updates, "next_run")
	assert.Contains(t, updates, "schedule_frequency")
	assert.NotContains(t, updates, "last_run")
}

func TestUpdateKeepsAdvancedRunColumns(t *testing.T) {
	db := testDB(t)
	template := createTemplate(t, db)
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	schedules := NewScheduleStoreWithClock(db, schedule.NewCalculator(nil), func() time.Time { return now })

	report := &models.ScheduledReport{
		Name:       "Reporte",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule:   dailySchedule(2, 0),
		Enabled:    true,
	}
	require.NoError(t, schedules.Create(report))

	// A run finishes and advances the pair; a name patch must not rewrite it.
	finished := now.Add(time.Minute)
	next := time.Date(2024, 1, 17, 2, 0, 0, 0, time.UTC)
	require.NoError(t, schedules.AdvanceRun(report.ID, &finished, next))

	newName := "Reporte renombrado"
	updated, err := schedules.Update(report.ID, UpdatePatch{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Reporte renombrado", updated.Name)
	require.NotNil(t, updated.LastRun)
	assert.Equal(t, finished, updated.LastRun.UTC())
	assert.Equal(t, next, updated.NextRun.UTC())
}

func TestDisable(t *testing.T) {
	db := testDB(t)
	template := createTemplate(t, db)
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	schedules := NewScheduleStoreWithClock(db, schedule.NewCalculator(nil), func() time.Time { return now })

	report := &models.ScheduledReport{
		Name:       "Reporte",
		UserID:     "user-1",
		TemplateID: template.ID,
		Schedule:   dailySchedule(2, 0),
		Enabled:    true,
	}
	require.NoError(t, schedules.Create(report))

	finished := now.Add(time.Minute)
	require.NoError(t, schedules.Disable(report.ID, &finished))

	got, err := schedules.Get(report.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	require.NotNil(t, got.LastRun)
	assert.Equal(t, finished, got.LastRun.UTC())

	assert.ErrorIs(t, schedules.Disable("missing", nil), ErrNotFound)
}

func TestGetNotFound(t *testing.T) {
	schedules := NewScheduleStore(testDB(t), schedule.NewCalculator(nil))

	_, err := schedules.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
