package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"webforge/internal/ai"
	"webforge/internal/config"
	"webforge/internal/engines"
	"webforge/internal/logging"
	"webforge/internal/metrics"
	"webforge/internal/regression"
	"webforge/internal/requirements"
	"webforge/pkg/models"
)

// Notifier receives build progress events for one chat session. The
// websocket hub implements it; a nil notifier drops all events.
type Notifier interface {
	Notify(sessionID, msgType, content string, data map[string]interface{})
}

// Builder owns the full build pipeline for incoming chat requests.
type Builder struct {
	cfg       *config.Config
	db        *gorm.DB
	workspace *Workspace
	llm       ai.Generator

	design    *engines.DesignEngine
	content   *engines.ContentEngine
	code      *engines.CodeEngine
	analytics *engines.Analytics

	notifier Notifier
}

// Result is the outcome of one build returned to the caller.
type Result struct {
	Project    *models.Project   `json:"project"`
	Report     regression.Report `json:"report"`
	Attempts   int               `json:"attempts"`
	PreviewURL string            `json:"preview_url"`
	Message    string            `json:"message"`
}

// New assembles a builder. llm may be nil, which forces every engine onto
// its deterministic fallback path.
func New(cfg *config.Config, db *gorm.DB, workspace *Workspace, llm ai.Generator, analytics *engines.Analytics, notifier Notifier) *Builder {
	return &Builder{
		cfg:       cfg,
		db:        db,
		workspace: workspace,
		llm:       llm,
		design:    engines.NewDesignEngine(llm),
		content:   engines.NewContentEngine(llm),
		code:      engines.NewCodeEngine(llm),
		analytics: analytics,
		notifier:  notifier,
	}
}

// Build runs the whole pipeline for one chat request. It never panics out;
// any failure lands in the project record with the error text verbatim.
func (b *Builder) Build(ctx context.Context, userID uint, sessionID, userInput string) (*Result, error) {
	start := time.Now()
	log := logging.S().With("session", sessionID, "user", userID)

	name := SiteName(userInput)
	slug := Slug(name, start)

	project := &models.Project{
		Slug:        slug,
		Name:        name,
		Description: userInput,
		OwnerID:     userID,
		Status:      models.ProjectStatusPending,
	}
	if err := b.db.Create(project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	b.analytics.BuildStarted()
	b.notify(sessionID, "status", "Starting build of "+name, map[string]interface{}{"slug": slug})

	result, err := b.run(ctx, project, sessionID, userInput, log)
	if err != nil {
		// The raw error text goes to the user unchanged.
		project.Status = models.ProjectStatusFailed
		project.Message = err.Error()
		b.db.Save(project)
		b.analytics.BuildFinished(project.Status, project.PassRate)
		metrics.RecordBuild(project.Status, time.Since(start))
		b.notify(sessionID, "error", err.Error(), map[string]interface{}{"slug": slug})
		log.Errorw("build failed", "slug", slug, "error", err)
		return &Result{Project: project, Message: err.Error()}, err
	}

	b.analytics.BuildFinished(project.Status, project.PassRate)
	metrics.RecordBuild(project.Status, time.Since(start))
	b.notify(sessionID, "completed", result.Message, map[string]interface{}{
		"slug":        slug,
		"preview_url": result.PreviewURL,
		"pass_rate":   project.PassRate,
		"attempts":    result.Attempts,
	})
	log.Infow("build finished", "slug", slug, "status", project.Status, "pass_rate", project.PassRate, "attempts", result.Attempts)
	return result, nil
}

// run is the generate-test-heal loop.
func (b *Builder) run(ctx context.Context, project *models.Project, sessionID, userInput string, log *zap.SugaredLogger) (*Result, error) {
	tracker := requirements.NewTracker(project.ID, b.db, b.llm)

	b.notify(sessionID, "progress", "Analyzing your request", map[string]interface{}{"phase": "requirements"})
	reqs := tracker.Extract(ctx, userInput)
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no requirements could be extracted from the request")
	}
	for _, r := range reqs {
		tracker.UpdateStatus(r.RequirementID, models.RequirementStatusInProgress)
	}

	project.Status = models.ProjectStatusBuilding
	b.db.Save(project)

	b.notify(sessionID, "progress", "Designing the look and feel", map[string]interface{}{"phase": "design"})
	design := b.design.Analyze(ctx, userInput)
	content := b.content.Generate(ctx, project.Name, userInput)

	b.notify(sessionID, "progress", "Generating the site", map[string]interface{}{"phase": "code"})
	files := b.code.Generate(ctx, userInput, design, content)

	written, err := b.workspace.WriteFiles(project.Slug, files)
	if err != nil {
		return nil, fmt.Errorf("write generated files: %w", err)
	}
	project.Files = written
	for _, r := range reqs {
		tracker.UpdateStatus(r.RequirementID, models.RequirementStatusImplemented)
		tracker.AddImplementedFiles(r.RequirementID, written)
	}

	runner := regression.NewRunner(b.cfg.PreviewBase)
	var report regression.Report

	for attempt := 1; attempt <= b.cfg.MaxBuildAttempts; attempt++ {
		project.Status = models.ProjectStatusTesting
		project.Attempts = attempt
		b.db.Save(project)
		b.notify(sessionID, "progress", fmt.Sprintf("Running checks (attempt %d of %d)", attempt, b.cfg.MaxBuildAttempts),
			map[string]interface{}{"phase": "testing", "attempt": attempt})

		cases := tracker.GenerateRegressionTests()
		results := runner.RunAll(ctx, cases, project.Slug)
		report = regression.GenerateReport(results)
		metrics.RecordRegressionRun(report.Summary.TotalTests, report.Summary.PassRate)

		patches := 0
		passRate := report.Summary.PassRate

		if passRate < b.cfg.PassRateTarget && attempt < b.cfg.MaxBuildAttempts {
			project.Status = models.ProjectStatusHealing
			b.db.Save(project)
			b.notify(sessionID, "progress", "Fixing failed checks", map[string]interface{}{"phase": "healing", "attempt": attempt})

			files, patches = b.code.Heal(ctx, files, failureSummary(report))
			if patches > 0 {
				if written, err = b.workspace.WriteFiles(project.Slug, files); err != nil {
					return nil, fmt.Errorf("write healed files: %w", err)
				}
				project.Files = written
			}
		}

		b.recordAttempt(project.ID, attempt, report, patches, "")
		project.PassRate = passRate

		if passRate >= b.cfg.PassRateTarget {
			break
		}
		if patches == 0 && attempt < b.cfg.MaxBuildAttempts {
			// Nothing changed, rerunning the same checks cannot help.
			break
		}
	}

	for _, r := range reqs {
		tracker.UpdateStatus(r.RequirementID, models.RequirementStatusTested)
	}

	previewURL := fmt.Sprintf("%s/app/%s/index.html", strings.TrimRight(b.cfg.PreviewBase, "/"), project.Slug)
	project.PreviewURL = previewURL

	var message string
	switch {
	case report.Summary.PassRate >= b.cfg.PassRateTarget:
		project.Status = models.ProjectStatusReady
		message = fmt.Sprintf("Your site is ready. %d of %d checks passed.", report.Summary.Passed, report.Summary.TotalTests)
		for _, r := range reqs {
			tracker.UpdateStatus(r.RequirementID, models.RequirementStatusVerified)
		}
	case report.Summary.PassRate >= b.cfg.PassRateFloor:
		project.Status = models.ProjectStatusPartial
		message = fmt.Sprintf("Your site is up, but some checks failed (%.0f%% passing). You can ask for fixes.", report.Summary.PassRate)
	default:
		project.Status = models.ProjectStatusFailed
		message = fmt.Sprintf("The build could not reach an acceptable state (%.0f%% of checks passing).", report.Summary.PassRate)
	}
	project.Message = message
	if err := b.db.Save(project).Error; err != nil {
		log.Warnw("failed to persist project outcome", "slug", project.Slug, "error", err)
	}

	return &Result{
		Project:    project,
		Report:     report,
		Attempts:   project.Attempts,
		PreviewURL: previewURL,
		Message:    message,
	}, nil
}

// recordAttempt persists one loop iteration with the full report snapshot.
func (b *Builder) recordAttempt(projectID uint, attempt int, report regression.Report, patches int, errMsg string) {
	snapshot := map[string]interface{}{}
	if raw, err := json.Marshal(report); err == nil {
		_ = json.Unmarshal(raw, &snapshot)
	}
	rec := &models.BuildAttempt{
		ProjectID:      projectID,
		Attempt:        attempt,
		PassRate:       report.Summary.PassRate,
		TestsRun:       report.Summary.TotalTests,
		TestsPassed:    report.Summary.Passed,
		PatchesApplied: patches,
		Error:          errMsg,
		Report:         snapshot,
	}
	if err := b.db.Create(rec).Error; err != nil {
		logging.S().Warnw("failed to persist build attempt", "project", projectID, "attempt", attempt, "error", err)
	}
}

// failureSummary renders the failed checks for the healing prompt.
func failureSummary(report regression.Report) string {
	if len(report.FailedTests) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, ft := range report.FailedTests {
		fmt.Fprintf(&sb, "- %s: %s", ft.TestID, ft.Message)
		if ft.Error != "" {
			fmt.Fprintf(&sb, " (%s)", ft.Error)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *Builder) notify(sessionID, msgType, content string, data map[string]interface{}) {
	if b.notifier == nil || sessionID == "" {
		return
	}
	b.notifier.Notify(sessionID, msgType, content, data)
}
