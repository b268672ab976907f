package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/skyblockhq/teamsvc/internal/config"
	"github.com/skyblockhq/teamsvc/internal/cooldown"
	"github.com/skyblockhq/teamsvc/internal/hook"
	"github.com/skyblockhq/teamsvc/internal/logger"
	"github.com/skyblockhq/teamsvc/internal/ratelimit"
	"github.com/skyblockhq/teamsvc/internal/service"
)

// CooldownHandle wraps the cooldown tracker so its sweeper stops on shutdown.
type CooldownHandle struct {
	*cooldown.Tracker
}

// Shutdown implements do.Shutdownable.
func (h *CooldownHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideCooldownTracker provides the invite cooldown tracker.
func ProvideCooldownTracker(i do.Injector) (*CooldownHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	tracker := cooldown.New(cooldown.WithSweepInterval(cfg.Team.CooldownSweepInterval))
	return &CooldownHandle{Tracker: tracker}, nil
}

// InviteLimiterHandle wraps the per-player invite request limiter. The
// embedded limiter is nil when rate limiting is disabled.
type InviteLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *InviteLimiterHandle) Shutdown() error {
	if h.KeyedRateLimiter != nil {
		h.Stop()
	}
	return nil
}

// ProvideInviteLimiter provides the invite request limiter.
func ProvideInviteLimiter(i do.Injector) (*InviteLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	if cfg.Team.InviteRatePerMinute == 0 {
		return &InviteLimiterHandle{}, nil
	}
	rps := float64(cfg.Team.InviteRatePerMinute) / 60
	return &InviteLimiterHandle{
		KeyedRateLimiter: ratelimit.New(rps, cfg.Team.InviteRateBurst, 10*time.Minute),
	}, nil
}

// ProvideHookBus provides the team event bus, with the invite webhook
// registered when one is configured.
func ProvideHookBus(i do.Injector) (*hook.Bus, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	bus := hook.NewBus(log.Logger)

	if cfg.Hooks.WebhookURL != "" {
		bus.Register(hook.NewWebhookListener(hook.WebhookConfig{
			URL:        cfg.Hooks.WebhookURL,
			Timeout:    cfg.Hooks.WebhookTimeout,
			FailClosed: cfg.Hooks.WebhookFailClosed,
		}, log.Logger))

		log.Info("Invite webhook registered",
			"url", cfg.Hooks.WebhookURL,
			"fail_closed", cfg.Hooks.WebhookFailClosed,
		)
	}

	return bus, nil
}

// ProvideInviteService provides the invite service.
func ProvideInviteService(i do.Injector) (*service.InviteService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	invites := do.MustInvoke[*InviteStoreHandle](i)
	registry := do.MustInvoke[*RegistryHandle](i)
	cooldowns := do.MustInvoke[*CooldownHandle](i)
	hooks := do.MustInvoke[*hook.Bus](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	return service.NewInviteService(
		invites.Store,
		registry.Store,
		registry.Store,
		cooldowns.Tracker,
		hooks,
		sseHandle.Manager,
		log.Logger,
	), nil
}
