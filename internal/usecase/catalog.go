package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ChairReports/internal/domain"
	"ChairReports/internal/ports"
)

// CatalogSource enumerates reportable items across kinds.
type CatalogSource struct {
	store  ports.CatalogStore
	logger *slog.Logger
}

// NewCatalogSource wires the catalog store.
func NewCatalogSource(store ports.CatalogStore, log *slog.Logger) *CatalogSource {
	return &CatalogSource{store: store, logger: log}
}

// Items returns banquets, then add-ons, then catalog items. The first
// occurrence of an id wins; later duplicates are dropped.
func (s *CatalogSource) Items(ctx context.Context) ([]domain.ItemConfig, error) {
	if s.store == nil {
		return nil, fmt.Errorf("catalog store is not configured")
	}

	seen := map[string]struct{}{}
	var items []domain.ItemConfig
	for _, kind := range domain.EnumerationOrder {
		configs, err := s.store.ItemConfigs(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s items: %w", kind, err)
		}

		for _, cfg := range configs {
			if cfg.ID == "" {
				continue
			}
			if _, ok := seen[cfg.ID]; ok {
				s.debug("duplicate item ignored", "item", cfg.ID, "kind", kind)
				continue
			}
			seen[cfg.ID] = struct{}{}
			if cfg.Kind == "" {
				cfg.Kind = kind
			}
			items = append(items, cfg)
		}
		s.debug("kind enumerated", "kind", kind, "count", len(configs))
	}

	return items, nil
}

// Lookup returns the item of kind whose id equals the base of itemID. Ids are
// resolved the way Items resolves them: when a kind enumerated earlier already
// owns the id, the item is not reported as belonging to kind.
func (s *CatalogSource) Lookup(ctx context.Context, kind domain.ItemKind, itemID string) (domain.ItemConfig, bool, error) {
	if s.store == nil {
		return domain.ItemConfig{}, false, fmt.Errorf("catalog store is not configured")
	}
	base := domain.BaseID(itemID)
	if base == "" {
		return domain.ItemConfig{}, false, nil
	}

	for _, k := range domain.EnumerationOrder {
		configs, err := s.store.ItemConfigs(ctx, k)
		if err != nil {
			return domain.ItemConfig{}, false, fmt.Errorf("list %s items: %w", k, err)
		}
		for _, cfg := range configs {
			if cfg.ID != base {
				continue
			}
			if k != kind {
				s.debug("item id owned by another kind", "item", base, "owner", k, "kind", kind)
				return domain.ItemConfig{}, false, nil
			}
			if cfg.Kind == "" {
				cfg.Kind = kind
			}
			return cfg, true, nil
		}
		if k == kind {
			break
		}
	}
	return domain.ItemConfig{}, false, nil
}

func (s *CatalogSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
