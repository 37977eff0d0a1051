package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"webforge/internal/middleware"
	"webforge/internal/regression"
	"webforge/internal/requirements"
	"webforge/pkg/models"
)

type createProjectRequest struct {
	Description string `json:"description" binding:"required,min=3"`
	Async       bool   `json:"async"` // true: return immediately, progress over websocket
	SessionID   string `json:"session_id"`
}

// CreateProject runs the build pipeline for a natural-language request.
// Synchronous by default; async callers watch the websocket session.
func (h *Handler) CreateProject(c *gin.Context) {
	userID := middleware.UserID(c)

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}
	h.Analytics.Track("project_create_requested")

	if req.Async {
		// The build outlives the HTTP request; progress flows over the session.
		go func() {
			_, _ = h.Builder.Build(context.Background(), userID, req.SessionID, req.Description)
		}()
		c.JSON(http.StatusAccepted, StandardResponse{
			Success: true,
			Message: "Build started",
			Data:    gin.H{"session_id": req.SessionID},
		})
		return
	}

	result, err := h.Builder.Build(c.Request.Context(), userID, req.SessionID, req.Description)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, StandardResponse{
			Success: false,
			Error:   err.Error(),
			Code:    "BUILD_FAILED",
			Data:    result,
		})
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{Success: true, Data: result})
}

// GetProjects lists the authenticated user's projects.
func (h *Handler) GetProjects(c *gin.Context) {
	userID := middleware.UserID(c)
	page, limit := parsePaginationParams(c)

	var total int64
	h.DB.Model(&models.Project{}).Where("owner_id = ?", userID).Count(&total)

	var projects []models.Project
	if err := h.DB.Where("owner_id = ?", userID).
		Order("updated_at DESC").
		Scopes(paginate(page, limit)).
		Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Failed to fetch projects", Code: "DATABASE_ERROR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetProject returns one project with its requirements and build attempts.
func (h *Handler) GetProject(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	h.DB.Preload("Requirements").Preload("BuildAttempts").Preload("Deployments").First(project, project.ID)
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: project})
}

// RunTests re-runs the regression suite against a project's preview.
func (h *Handler) RunTests(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	tracker, err := requirements.LoadTracker(project.ID, h.DB, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Failed to load requirements", Code: "DATABASE_ERROR"})
		return
	}

	cases := tracker.GenerateRegressionTests()
	runner := regression.NewRunner(h.Cfg.PreviewBase)
	results := runner.RunAll(c.Request.Context(), cases, project.Slug)
	report := regression.GenerateReport(results)
	coverage := regression.CoverageFor(tracker.ActiveIDs(), results)

	project.PassRate = report.Summary.PassRate
	h.DB.Save(project)

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: gin.H{
		"report":   report,
		"coverage": coverage,
	}})
}

type deployRequest struct {
	Platform string `json:"platform" binding:"required"`
}

// DeployProject publishes a finished project to a hosting platform.
func (h *Handler) DeployProject(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	h.Analytics.Track("deploy_requested")
	dep, err := h.Deployer.Deploy(c.Request.Context(), project, req.Platform)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, StandardResponse{Success: false, Error: err.Error(), Code: "DEPLOY_FAILED", Data: dep})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: dep})
}

// Dashboard returns aggregate build activity, cached briefly.
func (h *Handler) Dashboard(c *gin.Context) {
	const cacheKey = "dashboard"

	var cached map[string]interface{}
	if h.Cache.Get(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, StandardResponse{Success: true, Data: cached})
		return
	}

	var totalProjects, readyProjects int64
	h.DB.Model(&models.Project{}).Count(&totalProjects)
	h.DB.Model(&models.Project{}).Where("status = ?", models.ProjectStatusReady).Count(&readyProjects)

	// Provider usage from the persisted call records.
	type providerUsage struct {
		Provider string `json:"provider"`
		Calls    int64  `json:"calls"`
		Tokens   int64  `json:"tokens"`
	}
	var usage []providerUsage
	h.DB.Model(&models.AICall{}).
		Select("provider, count(*) as calls, sum(tokens_used) as tokens").
		Group("provider").
		Scan(&usage)

	data := map[string]interface{}{
		"total_projects": totalProjects,
		"ready_projects": readyProjects,
		"analytics":      h.Analytics.Snapshot(),
		"ai_usage":       usage,
	}
	h.Cache.Set(c.Request.Context(), cacheKey, data, 30*time.Second)

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: data})
}

/// ownedProject loads the project from the :slug param, enforcing
// ownership. Writes the error response itself on failure.
func (h *Handler) ownedProject(c *gin.Context) (*models.Project, bool) {
	userID := middleware.UserID(c)

	var project models.Project
	err := h.DB.Where("slug = ? AND owner_id = ?", c.Param("slug"), userID).First(&project).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, StandardResponse{Success: false, Error: "Project not found", Code: "NOT_FOUND"})
		} else {
			c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Failed to fetch project", Code: "DATABASE_ERROR"})
		}
		return nil, false
	}
	return &project, true
}
