package mcp

import (
	"context"
	"io"

	"github.com/ludo-technologies/cloneval/app"
	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/config"
	"github.com/ludo-technologies/cloneval/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	configPath string
	status     io.Writer
}

// NewDependencies constructs the dependency set. configPath may be empty to
// discover .cloneval.toml from the dataset directory.
func NewDependencies(configPath string) *Dependencies {
	return &Dependencies{
		configPath: configPath,
		status:     io.Discard,
	}
}

// ConfigPath returns the configured config file path
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// SetStatusWriter redirects warnings of evaluation runs
func (d *Dependencies) SetStatusWriter(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	d.status = w
}

// LoadEvaluationRequest merges tool arguments into the configuration
func (d *Dependencies) LoadEvaluationRequest(explicit map[string]bool, override *domain.EvaluationRequest) (*domain.EvaluationRequest, *config.Config, error) {
	return service.NewConfigurationLoaderWithFlags(explicit).LoadEvaluationRequest(d.configPath, override)
}

// LoadInspectRequest merges tool arguments into the configuration
func (d *Dependencies) LoadInspectRequest(explicit map[string]bool, override *domain.InspectRequest) (*domain.InspectRequest, error) {
	req, _, err := service.NewConfigurationLoaderWithFlags(explicit).LoadInspectRequest(d.configPath, override)
	return req, err
}

// BuildEvaluateUseCase assembles a fresh EvaluateUseCase for one tool call
func (d *Dependencies) BuildEvaluateUseCase(ctx context.Context, cfg *config.Config, req *domain.EvaluationRequest) (*app.EvaluateUseCase, error) {
	return app.NewEvaluateUseCaseFromConfig(ctx, cfg, req, app.EvaluateDependencies{Status: d.status})
}

// BuildInspectUseCase assembles a fresh InspectUseCase
func (d *Dependencies) BuildInspectUseCase() *app.InspectUseCase {
	return app.NewInspectUseCase(
		service.NewInspectService(),
		service.NewEvaluationFormatter(),
		service.NewFileOutputWriter(d.status),
	)
}
