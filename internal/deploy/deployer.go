// Package deploy simulates publishing generated sites to static hosting
// platforms and keeps a durable record of every deployment.
package deploy

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"webforge/internal/logging"
	"webforge/pkg/models"
)

// PlatformConfig describes one hosting target.
type PlatformConfig struct {
	Name        string
	URLPattern  string // fmt pattern taking the project slug
	BuildTime   time.Duration
	DeployTime  time.Duration
	FailureRate float64 // simulated failure probability
}

// platforms summarize the supported static hosts. Timings approximate
// their real deploy latencies.
var platforms = map[string]PlatformConfig{
	"vercel":  {Name: "Vercel", URLPattern: "https://%s.vercel.app", BuildTime: 2 * time.Second, DeployTime: 1 * time.Second, FailureRate: 0.02},
	"netlify": {Name: "Netlify", URLPattern: "https://%s.netlify.app", BuildTime: 3 * time.Second, DeployTime: 2 * time.Second, FailureRate: 0.02},
	"railway": {Name: "Railway", URLPattern: "https://%s.up.railway.app", BuildTime: 4 * time.Second, DeployTime: 2 * time.Second, FailureRate: 0.05},
	"render":  {Name: "Render", URLPattern: "https://%s.onrender.com", BuildTime: 5 * time.Second, DeployTime: 3 * time.Second, FailureRate: 0.05},
}

// Platforms lists the supported platform keys.
func Platforms() []string {
	keys := make([]string, 0, len(platforms))
	for k := range platforms {
		keys = append(keys, k)
	}
	return keys
}

// Deployer runs simulated deployments and persists their lifecycle.
type Deployer struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewDeployer creates a deployer backed by the given database.
func NewDeployer(db *gorm.DB) *Deployer {
	return &Deployer{db: db, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Deploy publishes a project to a platform. The record moves through
// pending, building, deploying, and a terminal state; a simulated failure
// rolls the deployment back.
func (d *Deployer) Deploy(ctx context.Context, project *models.Project, platform string) (*models.Deployment, error) {
	cfg, ok := platforms[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
	if project.Status != models.ProjectStatusReady && project.Status != models.ProjectStatusPartial {
		return nil, fmt.Errorf("project %s is not deployable in status %s", project.Slug, project.Status)
	}

	dep := &models.Deployment{
		DeploymentID: "dep_" + uuid.New().String()[:8],
		ProjectID:    project.ID,
		Platform:     platform,
		Environment:  "production",
		Status:       models.DeploymentStatusPending,
	}
	if err := d.db.Create(dep).Error; err != nil {
		return nil, fmt.Errorf("create deployment record: %w", err)
	}

	start := time.Now()
	log := logging.S().With("deployment", dep.DeploymentID, "platform", platform, "slug", project.Slug)

	if err := d.advance(ctx, dep, models.DeploymentStatusBuilding, cfg.BuildTime); err != nil {
		return dep, err
	}
	if err := d.advance(ctx, dep, models.DeploymentStatusDeploying, cfg.DeployTime); err != nil {
		return dep, err
	}

	if d.rng.Float64() < cfg.FailureRate {
		dep.Status = models.DeploymentStatusFailed
		dep.Message = cfg.Name + " rejected the deployment"
		dep.DurationMS = time.Since(start).Milliseconds()
		d.db.Save(dep)
		log.Warnw("deployment failed, rolling back")
		d.rollback(dep)
		return dep, fmt.Errorf("deployment to %s failed", cfg.Name)
	}

	dep.Status = models.DeploymentStatusDeployed
	dep.URL = fmt.Sprintf(cfg.URLPattern, project.Slug)
	dep.Message = "Deployed to " + cfg.Name
	dep.DurationMS = time.Since(start).Milliseconds()
	if err := d.db.Save(dep).Error; err != nil {
		return dep, fmt.Errorf("persist deployment outcome: %w", err)
	}

	log.Infow("deployment complete", "url", dep.URL, "duration_ms", dep.DurationMS)
	return dep, nil
}

// advance moves the record into the next phase, waiting out the simulated
// phase duration unless the context expires first.
func (d *Deployer) advance(ctx context.Context, dep *models.Deployment, status string, wait time.Duration) error {
	dep.Status = status
	if err := d.db.Save(dep).Error; err != nil {
		return fmt.Errorf("persist deployment status: %w", err)
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		dep.Status = models.DeploymentStatusFailed
		dep.Message = "deployment cancelled"
		d.db.Save(dep)
		return ctx.Err()
	}
}

// rollback marks the deployment rolled back after a failure.
func (d *Deployer) rollback(dep *models.Deployment) {
	dep.Status = models.DeploymentStatusRolledBack
	dep.Message += " (rolled back)"
	d.db.Save(dep)
}

// History returns a project's deployments, newest first.
func (d *Deployer) History(projectID uint) ([]models.Deployment, error) {
	var deps []models.Deployment
	err := d.db.Where("project_id = ?", projectID).Order("created_at desc").Find(&deps).Error
	return deps, err
}
