// Package di provides dependency injection configuration for the team service.
package di

import (
	"github.com/samber/do/v2"

	"github.com/skyblockhq/teamsvc/internal/config"
	"github.com/skyblockhq/teamsvc/internal/di/providers"
	"github.com/skyblockhq/teamsvc/internal/hook"
	"github.com/skyblockhq/teamsvc/internal/logger"
	"github.com/skyblockhq/teamsvc/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideInviteStore)
	do.Provide(injector, providers.ProvideRegistry)

	// Invite rules
	do.Provide(injector, providers.ProvideCooldownTracker)
	do.Provide(injector, providers.ProvideHookBus)
	do.Provide(injector, providers.ProvideInviteService)
	do.Provide(injector, providers.ProvideInviteLimiter)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services eagerly so startup errors surface
// before the process reports ready.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	for _, invoke := range []func() error{
		invokeErr[*providers.SSEManagerHandle](injector),
		invokeErr[*providers.InviteStoreHandle](injector),
		invokeErr[*providers.RegistryHandle](injector),
		invokeErr[*providers.CooldownHandle](injector),
		invokeErr[*hook.Bus](injector),
		invokeErr[*service.InviteService](injector),
		invokeErr[*providers.InviteLimiterHandle](injector),
		invokeErr[*providers.HTTPServerHandle](injector),
	} {
		if err := invoke(); err != nil {
			return err
		}
	}
	return nil
}

func invokeErr[T any](injector do.Injector) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}
