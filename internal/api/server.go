package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/auth"
	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/Celag1/logicqp-sub003/internal/report"
	"github.com/Celag1/logicqp-sub003/internal/schedule"
	"github.com/Celag1/logicqp-sub003/internal/scheduler"
	"github.com/Celag1/logicqp-sub003/internal/store"
	"github.com/Celag1/logicqp-sub003/internal/track"
	"github.com/gin-gonic/gin"
)

type Server struct {
	templates *store.TemplateStore
	schedules *store.ScheduleStore
	tracker   *track.Tracker
	dashboard *report.Dashboard
	executor  *scheduler.Executor
	jwtSecret string
	router    *gin.Engine
}

func NewServer(
	templates *store.TemplateStore,
	schedules *store.ScheduleStore,
	tracker *track.Tracker,
	dashboard *report.Dashboard,
	executor *scheduler.Executor,
	jwtSecret string,
) *Server {
	server := &Server{
		templates: templates,
		schedules: schedules,
		tracker:   tracker,
		dashboard: dashboard,
		executor:  executor,
		jwtSecret: jwtSecret,
		router:    gin.Default(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1")
	api.Use(auth.Middleware(s.jwtSecret))

	api.GET("/templates", s.listTemplates)
	api.POST("/templates", auth.RequireRole("admin"), s.createTemplate)
	api.DELETE("/templates/:id", auth.RequireRole("admin"), s.deleteTemplate)

	reports := api.Group("/scheduled-reports")
	{
		reports.GET("", s.listScheduledReports)
		reports.POST("", s.createScheduledReport)
		reports.PATCH("/:id", s.updateScheduledReport)
		reports.DELETE("/:id", s.deleteScheduledReport)
		reports.POST("/:id/run", s.runScheduledReport)
		reports.GET("/:id/executions", s.executionHistory)
	}

	api.GET("/reports/due", s.dueReports)
	api.GET("/dashboard", s.dashboardStats)
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) listTemplates(c *gin.Context) {
	templates, err := s.templates.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (s *Server) createTemplate(c *gin.Context) {
	var template models.ReportTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.templates.Create(&template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, template)
}

func (s *Server) deleteTemplate(c *gin.Context) {
	err := s.templates.Delete(c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
	case errors.Is(err, store.ErrTemplateInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) listScheduledReports(c *gin.Context) {
	userID := c.GetString("user_id")
	reports, err := s.schedules.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reports)
}

type createReportRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	TemplateID  string                 `json:"template_id" binding:"required"`
	Schedule    models.Schedule        `json:"schedule" binding:"required"`
	Parameters  map[string]interface{} `json:"parameters"`
	Recipients  []string               `json:"recipients"`
	Enabled     *bool                  `json:"enabled"`
}

func (s *Server) createScheduledReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	scheduledReport := &models.ScheduledReport{
		Name:        req.Name,
		Description: req.Description,
		TemplateID:  req.TemplateID,
		UserID:      c.GetString("user_id"),
		Schedule:    req.Schedule,
		Parameters:  req.Parameters,
		Recipients:  req.Recipients,
		Enabled:     enabled,
	}

	if err := s.schedules.Create(scheduledReport); err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scheduledReport)
}

type updateReportRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Schedule    *models.Schedule       `json:"schedule"`
	Parameters  map[string]interface{} `json:"parameters"`
	Recipients  []string               `json:"recipients"`
	Enabled     *bool                  `json:"enabled"`
}

func (s *Server) updateScheduledReport(c *gin.Context) {
	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.schedules.Update(c.Param("id"), store.UpdatePatch{
		Name:        req.Name,
		Description: req.Description,
		Schedule:    req.Schedule,
		Parameters:  req.Parameters,
		Recipients:  req.Recipients,
		Enabled:     req.Enabled,
	})
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteScheduledReport(c *gin.Context) {
	if err := s.schedules.Delete(c.Param("id")); err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "scheduled report deleted"})
}

// runScheduledReport triggers a manual run through the same executor path
// used by the dispatcher, honoring the one-concurrent-run rule.
func (s *Server) runScheduledReport(c *gin.Context) {
	scheduledReport, err := s.schedules.Get(c.Param("id"))
	if err != nil {
		s.writeStoreError(c, err)
		return
	}

	running, err := s.tracker.HasRunning(scheduledReport.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if running {
		c.JSON(http.StatusConflict, gin.H{"error": "an execution is already running for this report"})
		return
	}

	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Printf("[API] panic in manual run of %s: %v", scheduledReport.ID, p)
			}
		}()
		if err := s.executor.Execute(context.Background(), scheduledReport); err != nil {
			log.Printf("[API] manual run of %s failed: %v", scheduledReport.ID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "execution started"})
}

func (s *Server) executionHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	executions, err := s.tracker.History(c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, executions)
}

func (s *Server) dueReports(c *gin.Context) {
	due, err := s.schedules.Due(timeNow())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, due)
}

func (s *Server) dashboardStats(c *gin.Context) {
	stats, err := s.dashboard.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// timeNow is swapped by tests that freeze the due query.
var timeNow = time.Now

func (s *Server) writeStoreError(c *gin.Context, err error) {
	var configErr *schedule.ConfigError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &configErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
