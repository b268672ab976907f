package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/skyblockhq/teamsvc/internal/cooldown"
	"github.com/skyblockhq/teamsvc/internal/hook"
	"github.com/skyblockhq/teamsvc/internal/id"
	"github.com/skyblockhq/teamsvc/internal/service"
	"github.com/skyblockhq/teamsvc/internal/sse"
	"github.com/skyblockhq/teamsvc/internal/store"
	"github.com/skyblockhq/teamsvc/internal/store/sqlite"
)

// testServer wraps the API server with the pieces tests poke at directly.
type testServer struct {
	*Server
	api      humatest.TestAPI
	registry *sqlite.Store
	hooks    *hook.Bus
	events   *sse.Manager
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWithOptions(t, Options{})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry, err := sqlite.Open(filepath.Join(t.TempDir(), "registry.db"), logger)
	require.NoError(t, err)

	invites, err := store.New("", logger)
	require.NoError(t, err)

	cooldowns := cooldown.New()
	hooks := hook.NewBus(logger)

	events := sse.NewManager(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go events.Start(ctx)

	inviteService := service.NewInviteService(invites, registry, registry, cooldowns, hooks, events, logger)

	s := NewServer(&Services{
		Invite:   inviteService,
		Invites:  invites,
		Registry: registry,
		Events:   events,
	}, opts, logger)

	t.Cleanup(func() {
		cancel()
		_ = events.Shutdown(context.Background())
		cooldowns.Stop()
		_ = invites.Close()
		_ = registry.Close()
	})

	return &testServer{
		Server:   s,
		api:      humatest.Wrap(t, s.API()),
		registry: registry,
		hooks:    hooks,
		events:   events,
	}
}

// createPlayer registers an online player and returns its UUID.
func (ts *testServer) createPlayer(t *testing.T, name string) string {
	t.Helper()

	playerID := id.NewPlayerID()
	resp := ts.api.Put("/api/v1/players/"+playerID, map[string]any{
		"name":   name,
		"online": true,
	})
	require.Equal(t, http.StatusOK, resp.Code, "register %s: %s", name, resp.Body.String())
	return playerID
}

// createIsland creates an island owned by ownerID and returns its ID.
func (ts *testServer) createIsland(t *testing.T, ownerID, name string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/islands", map[string]any{
		"owner_id": ownerID,
		"name":     name,
	})
	require.Equal(t, http.StatusOK, resp.Code, "create island: %s", resp.Body.String())

	var island IslandResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &island))
	return island.ID
}

// invite runs the invite command as actorID.
func (ts *testServer) invite(actorID string, args ...string) *httptest.ResponseRecorder {
	if args == nil {
		args = []string{}
	}
	return ts.api.Post("/api/v1/invites", "X-Player-ID: "+actorID, map[string]any{"args": args})
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr), resp.Body.String())
	return apiErr
}
