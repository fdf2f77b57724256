// Package backend selects the remote board implementation named in the
// settings.
package backend

import (
	"context"
	"fmt"

	"kanban/internal/backend/googletasks"
	"kanban/internal/backend/kanbanapi"
	"kanban/internal/config"
	"kanban/internal/service"
)

// New returns the service for cfg.Settings.Backend. Missing Google
// credentials are reported as service.ErrAuth.
func New(ctx context.Context, cfg *config.Config) (service.Service, error) {
	switch cfg.Settings.Backend {
	case config.BackendKanbanAPI:
		return kanbanapi.New(cfg.Settings)
	case config.BackendGoogleTasks:
		if !cfg.HasOAuthClient() {
			return nil, fmt.Errorf("%w: %s not found in %s", service.ErrAuth, config.OAuthClientFile, cfg.Dir)
		}
		if !cfg.HasToken() {
			return nil, fmt.Errorf("%w: not logged in (run: kanban login)", service.ErrAuth)
		}
		return googletasks.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend: %q", cfg.Settings.Backend)
	}
}
