package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"

	domainerrors "github.com/skyblockhq/teamsvc/internal/errors"
	"github.com/skyblockhq/teamsvc/internal/id"
)

// playerIDHeader carries the acting player's UUID, set by the trusted game
// server that fronts this API.
const playerIDHeader = "X-Player-ID"

// requestLogger logs each request at debug level, and at warn for 5xx.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			if logger == nil {
				return
			}
			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// inviteRateLimit throttles invite commands per acting player, falling back
// to the client address when the header is missing.
func (s *Server) inviteRateLimit(ctx huma.Context, next func(huma.Context)) {
	limiter := s.opts.InviteLimiter
	if limiter == nil {
		next(ctx)
		return
	}

	key := ctx.Header(playerIDHeader)
	if key == "" {
		key = ctx.RemoteAddr()
	}
	if !limiter.Allow(key) {
		if s.logger != nil {
			s.logger.Warn("invite rate limit exceeded", "key", key)
		}
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many invite requests, slow down")
		return
	}
	next(ctx)
}

// requirePlayer validates the acting player header and returns the canonical ID.
func requirePlayer(_ context.Context, header string) (string, error) {
	if header == "" {
		return "", domainerrors.Unauthorized(playerIDHeader + " header is required")
	}
	playerID, err := id.ParsePlayerID(header)
	if err != nil {
		return "", domainerrors.Unauthorized(playerIDHeader + " must be a player UUID")
	}
	return playerID, nil
}

// parsePlayerParam canonicalizes a player UUID taken from the URL.
func parsePlayerParam(raw string) (string, error) {
	playerID, err := id.ParsePlayerID(raw)
	if err != nil {
		return "", domainerrors.ValidationWithDetails("invalid player ID", map[string]string{"id": "must be a valid UUID"})
	}
	return playerID, nil
}
