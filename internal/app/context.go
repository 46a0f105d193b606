package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dealflow/internal/config"
	"dealflow/internal/domain"
	"dealflow/internal/repo"
)

// ResolveOrgAndConfig picks the active org and ensures an org + config exist
// in the DB, seeding defaults if missing. It prefers the override, then the
// single org in the DB. If the org does not exist, it is created on the fly.
func ResolveOrgAndConfig(ctx context.Context, orgOverride string, r repo.Repo) (string, *config.Config, error) {
	orgID := orgOverride
	if orgID == "" {
		if o, err := r.SingleOrg(ctx); err == nil {
			orgID = o.ID
		} else {
			return "", nil, fmt.Errorf("org not specified; use --org")
		}
	}
	seedCfg := config.Default(orgID)

	if _, err := r.GetOrg(ctx, orgID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		if err := createOrg(ctx, r, orgID, seedCfg); err != nil {
			return "", nil, err
		}
	}
	cfg, err := r.GetOrgConfig(ctx, orgID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if err := r.UpsertOrgConfig(ctx, orgID, seedCfg); err != nil {
				return "", nil, fmt.Errorf("seed org config: %w", err)
			}
			cfg = seedCfg
		} else {
			return "", nil, err
		}
	}
	cfg.Org.ID = orgID
	return orgID, cfg, nil
}

func createOrg(ctx context.Context, r repo.Repo, orgID string, seedCfg *config.Config) error {
	if seedCfg == nil {
		seedCfg = config.Default(orgID)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	o := domain.Org{
		ID:        orgID,
		Name:      orgID,
		Status:    "active",
		CreatedAt: now,
	}
	if err := r.InsertOrg(ctx, o); err != nil {
		return fmt.Errorf("insert org: %w", err)
	}
	if err := r.UpsertOrgConfig(ctx, orgID, seedCfg); err != nil {
		return fmt.Errorf("insert org config: %w", err)
	}
	return nil
}
