package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/skyblockhq/teamsvc/internal/config"
	"github.com/skyblockhq/teamsvc/internal/domain"
	"github.com/skyblockhq/teamsvc/internal/logger"
	"github.com/skyblockhq/teamsvc/internal/sse"
	"github.com/skyblockhq/teamsvc/internal/store"
	"github.com/skyblockhq/teamsvc/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// InviteStoreHandle wraps the Badger invite store with shutdown capability.
type InviteStoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *InviteStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideInviteStore provides the pending invite store.
func ProvideInviteStore(i do.Injector) (*InviteStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Storage.InvitePath()
	if path != "" {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create invite store directory: %w", err)
		}
	}

	st, err := store.New(path, log.Logger)
	if err != nil {
		return nil, err
	}
	return &InviteStoreHandle{Store: st}, nil
}

// RegistryHandle wraps the SQLite island registry with shutdown capability.
type RegistryHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *RegistryHandle) Shutdown() error {
	return h.Close()
}

// ProvideRegistry provides the island roster and player directory.
func ProvideRegistry(i do.Injector) (*RegistryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := cfg.Storage.RegistryPath()
	registry, err := sqlite.Open(path, log.Logger)
	if err != nil {
		return nil, err
	}

	registry.SetDefaults(sqlite.Defaults{
		MaxMembers:    cfg.Team.DefaultMaxMembers,
		MinInviteRank: domain.Rank(cfg.Team.DefaultMinInviteRank),
	})

	log.Info("Registry initialized",
		"path", path,
		"default_max_members", cfg.Team.DefaultMaxMembers,
		"default_min_invite_rank", domain.Rank(cfg.Team.DefaultMinInviteRank).Name(),
	)

	return &RegistryHandle{Store: registry}, nil
}
