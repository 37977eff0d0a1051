package deploy

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"webforge/internal/db"
	"webforge/pkg/models"
)

func testDeployer(t *testing.T) *Deployer {
	t.Helper()
	gdb, err := db.Open("", filepath.Join(t.TempDir(), "deploy.db"), false)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDeployer(gdb)
}

func readyProject() *models.Project {
	return &models.Project{Name: "Demo", Slug: "demo-20260830-120000", Status: models.ProjectStatusReady, OwnerID: 1}
}

func TestDeployRejectsUnknownPlatform(t *testing.T) {
	d := NewDeployer(nil) // rejected before any database access

	_, err := d.Deploy(context.Background(), readyProject(), "geocities")
	if err == nil || !strings.Contains(err.Error(), "unsupported platform") {
		t.Errorf("err = %v, want unsupported platform", err)
	}
}

func TestDeployRejectsUnfinishedProject(t *testing.T) {
	d := NewDeployer(nil)

	for _, status := range []string{
		models.ProjectStatusPending,
		models.ProjectStatusBuilding,
		models.ProjectStatusFailed,
	} {
		p := readyProject()
		p.Status = status
		if _, err := d.Deploy(context.Background(), p, "vercel"); err == nil {
			t.Errorf("status %s: expected an error", status)
		}
	}
}

func TestDeployCancelledContext(t *testing.T) {
	d := testDeployer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dep, err := d.Deploy(ctx, readyProject(), "vercel")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if dep == nil || dep.Status != models.DeploymentStatusFailed {
		t.Errorf("deployment = %+v, want failed status", dep)
	}
}

func TestHistoryScopedToProject(t *testing.T) {
	d := testDeployer(t)

	for projectID, n := range map[uint]int{1: 2, 2: 1} {
		for i := 0; i < n; i++ {
			dep := &models.Deployment{
				// deployment_id is globally unique, so the seed IDs must
				// differ across projects too.
				DeploymentID: fmt.Sprintf("dep_test_p%d_%d", projectID, i),
				ProjectID:    projectID,
				Platform:     "vercel",
				Status:       models.DeploymentStatusDeployed,
			}
			if err := d.db.Create(dep).Error; err != nil {
				t.Fatalf("seed deployment: %v", err)
			}
		}
	}

	deps, err := d.History(1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("len = %d, want 2", len(deps))
	}
	for _, dep := range deps {
		if dep.ProjectID != 1 {
			t.Errorf("deployment %s belongs to project %d", dep.DeploymentID, dep.ProjectID)
		}
	}
}

func TestPlatformsListsAllHosts(t *testing.T) {
	keys := Platforms()
	if len(keys) != 4 {
		t.Fatalf("len = %d, want 4", len(keys))
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for _, want := range []string{"vercel", "netlify", "railway", "render"} {
		if !seen[want] {
			t.Errorf("missing platform %s", want)
		}
	}
}
