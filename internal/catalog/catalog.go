// Package catalog is the capability metadata editor: plain CRUD over skill
// entries that opportunities may reference by key. It is independent of the
// lifecycle engine and emits no attestations.
package catalog

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"groundswell/internal/domain"
	"groundswell/internal/repo"
)

type Catalog struct {
	Repo repo.Repo
	Now  func() time.Time
}

func (c Catalog) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Catalog) Upsert(ctx context.Context, key, label, description string) (domain.Capability, error) {
	if key == "" {
		return domain.Capability{}, fmt.Errorf("capability key is required")
	}
	if label == "" {
		return domain.Capability{}, fmt.Errorf("capability label is required")
	}
	now := c.now().Unix()
	cap := domain.Capability{
		Key:         key,
		Label:       label,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.Repo.UpsertCapability(ctx, cap); err != nil {
		return domain.Capability{}, err
	}
	return c.Repo.GetCapability(ctx, key)
}

func (c Catalog) Get(ctx context.Context, key string) (domain.Capability, error) {
	return c.Repo.GetCapability(ctx, key)
}

func (c Catalog) Delete(ctx context.Context, key string) error {
	return c.Repo.DeleteCapability(ctx, key)
}

func (c Catalog) List(ctx context.Context) ([]domain.Capability, error) {
	return c.Repo.ListCapabilities(ctx)
}

type importFile struct {
	Capabilities []struct {
		Key         string `yaml:"key"`
		Label       string `yaml:"label"`
		Description string `yaml:"description"`
	} `yaml:"capabilities"`
}

// ImportYAML upserts every entry from a capabilities YAML document and
// returns how many were written.
func (c Catalog) ImportYAML(ctx context.Context, data []byte) (int, error) {
	var f importFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("invalid capabilities yaml: %w", err)
	}
	count := 0
	for _, entry := range f.Capabilities {
		if _, err := c.Upsert(ctx, entry.Key, entry.Label, entry.Description); err != nil {
			return count, fmt.Errorf("capability %s: %w", entry.Key, err)
		}
		count++
	}
	return count, nil
}
