package builder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"webforge/internal/ai"
	"webforge/internal/config"
	"webforge/internal/db"
	"webforge/internal/engines"
	"webforge/pkg/models"
)

// recordingNotifier captures build progress events.
type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Notify(sessionID, msgType, content string, data map[string]interface{}) {
	n.events = append(n.events, msgType)
}

// downGenerator fails every call, pushing all engines onto their fallbacks.
type downGenerator struct{}

func (downGenerator) Generate(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	return nil, errors.New("provider down")
}

func testFixture(t *testing.T) (*config.Config, *Builder, *recordingNotifier) {
	t.Helper()

	dir := t.TempDir()
	database, err := db.Open("", filepath.Join(dir, "test.db"), false)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}

	workRoot := filepath.Join(dir, "sites")
	ws, err := NewWorkspace(workRoot)
	if err != nil {
		t.Fatal(err)
	}

	// Serve the workspace the same way the preview server does.
	mux := http.NewServeMux()
	mux.Handle("/app/", http.StripPrefix("/app/", http.FileServer(http.Dir(workRoot))))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Environment:      "test",
		PreviewBase:      srv.URL,
		WorkspaceDir:     workRoot,
		MaxBuildAttempts: 3,
		PassRateTarget:   80,
		PassRateFloor:    50,
	}

	notifier := &recordingNotifier{}
	analytics := engines.NewAnalytics(engines.DefaultThresholds)
	b := New(cfg, database, ws, nil, analytics, notifier)
	return cfg, b, notifier
}

func TestBuildDeterministicPipeline(t *testing.T) {
	_, b, notifier := testFixture(t)

	result, err := b.Build(context.Background(), 1, "session-1", "Build me a portfolio website with a contact button")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	project := result.Project
	if project.Status != models.ProjectStatusReady {
		t.Errorf("status = %s (pass rate %.2f, %s), want ready", project.Status, project.PassRate, result.Message)
	}
	if project.PassRate < 80 {
		t.Errorf("pass rate = %.2f, want >= 80", project.PassRate)
	}
	if len(project.Files) != 3 {
		t.Errorf("files = %v, want index.html, script.js, styles.css", project.Files)
	}
	if project.Slug == "" || result.PreviewURL == "" {
		t.Error("slug or preview URL missing")
	}

	// Requirements and the attempt record are persisted.
	var reqCount, attemptCount int64
	b.db.Model(&models.Requirement{}).Where("project_id = ?", project.ID).Count(&reqCount)
	b.db.Model(&models.BuildAttempt{}).Where("project_id = ?", project.ID).Count(&attemptCount)
	if reqCount == 0 {
		t.Error("no requirements persisted")
	}
	if attemptCount == 0 {
		t.Error("no build attempts persisted")
	}

	// The session saw a start, progress, and a completion.
	var sawStatus, sawProgress, sawCompleted bool
	for _, e := range notifier.events {
		switch e {
		case "status":
			sawStatus = true
		case "progress":
			sawProgress = true
		case "completed":
			sawCompleted = true
		}
	}
	if !sawStatus || !sawProgress || !sawCompleted {
		t.Errorf("notification types seen: %v", notifier.events)
	}
}

func TestBuildUnrecognizedRequestFails(t *testing.T) {
	_, b, _ := testFixture(t)

	result, err := b.Build(context.Background(), 1, "session-2", "hello")
	if err == nil {
		t.Fatal("expected an error for an unrecognizable request")
	}
	if result.Project.Status != models.ProjectStatusFailed {
		t.Errorf("status = %s, want failed", result.Project.Status)
	}
	// Failure text reaches the record verbatim.
	if result.Project.Message != err.Error() {
		t.Errorf("message %q != error %q", result.Project.Message, err.Error())
	}
}

func TestBuildLLMFailureFallsBackCleanly(t *testing.T) {
	// A fixture with a failing generator: every engine falls back and the
	// build still completes.
	dir := t.TempDir()
	database, err := db.Open("", filepath.Join(dir, "test.db"), false)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}
	workRoot := filepath.Join(dir, "sites")
	ws, _ := NewWorkspace(workRoot)

	mux := http.NewServeMux()
	mux.Handle("/app/", http.StripPrefix("/app/", http.FileServer(http.Dir(workRoot))))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	buildCfg := &config.Config{
		Environment:      "test",
		PreviewBase:      srv.URL,
		WorkspaceDir:     workRoot,
		MaxBuildAttempts: 3,
		PassRateTarget:   80,
		PassRateFloor:    50,
	}
	b := New(buildCfg, database, ws, downGenerator{}, engines.NewAnalytics(engines.DefaultThresholds), nil)

	result, err := b.Build(context.Background(), 1, "session-3", "Build me a blue website with a button")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if result.Project.Status != models.ProjectStatusReady && result.Project.Status != models.ProjectStatusPartial {
		t.Errorf("status = %s, want a surviving build", result.Project.Status)
	}
}
