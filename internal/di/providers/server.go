package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/skyblockhq/teamsvc/internal/api"
	"github.com/skyblockhq/teamsvc/internal/config"
	"github.com/skyblockhq/teamsvc/internal/logger"
	"github.com/skyblockhq/teamsvc/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	invites := do.MustInvoke[*InviteStoreHandle](i)
	registry := do.MustInvoke[*RegistryHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	inviteService := do.MustInvoke[*service.InviteService](i)
	limiter := do.MustInvoke[*InviteLimiterHandle](i)

	handler := api.NewServer(&api.Services{
		Invite:   inviteService,
		Invites:  invites.Store,
		Registry: registry.Store,
		Events:   sseHandle.Manager,
	}, api.Options{
		InviteCooldown: cfg.Team.InviteCooldown,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		InviteLimiter:  limiter.KeyedRateLimiter,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
