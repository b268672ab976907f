package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyblockhq/teamsvc/internal/domain"
	"github.com/skyblockhq/teamsvc/internal/hook"
	"github.com/skyblockhq/teamsvc/internal/id"
	"github.com/skyblockhq/teamsvc/internal/ratelimit"
	"github.com/skyblockhq/teamsvc/internal/sse"
)

func TestCreateInvite_Created(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createPlayer(t, "alice")
	bob := ts.createPlayer(t, "bob")
	islandID := ts.createIsland(t, alice, "Alice's Island")

	resp := ts.invite(alice, "Bob")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var body CreateInviteResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.Equal(t, "created", body.Outcome)
	require.NotNil(t, body.Invite)
	assert.Equal(t, alice, body.Invite.InviterID)
	assert.Equal(t, bob, body.Invite.InviteeID)
	assert.Equal(t, islandID, body.Invite.IslandID)
	assert.Equal(t, "team", body.Invite.Type)
	require.NotNil(t, body.Target)
	assert.Equal(t, "bob", body.Target.Name)
	assert.False(t, body.TargetOwnsIsland)
	assert.Nil(t, body.Superseded)

	get := ts.api.Get("/api/v1/players/" + bob + "/invite")
	require.Equal(t, http.StatusOK, get.Code)
	var pending InviteResponse
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &pending))
	assert.Equal(t, body.Invite.ID, pending.ID)
}

func TestCreateInvite_RequiresPlayerHeader(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/invites", map[string]any{"args": []string{"bob"}})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)

	resp = ts.invite("not-a-uuid", "bob")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateInvite_Rejections(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createPlayer(t, "alice")
	bob := ts.createPlayer(t, "bob")
	carol := ts.createPlayer(t, "carol")
	ts.createIsland(t, alice, "Alice's Island")
	ts.createIsland(t, carol, "Carol's Island")
	dave := ts.createPlayer(t, "dave")

	t.Run("no group", func(t *testing.T) {
		resp := ts.invite(dave, "bob")
		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, "NO_GROUP", decodeError(t, resp).Code)
	})

	t.Run("unknown target", func(t *testing.T) {
		resp := ts.invite(alice, "nobody")
		assert.Equal(t, http.StatusNotFound, resp.Code)
		apiErr := decodeError(t, resp)
		assert.Equal(t, "UNKNOWN_TARGET", apiErr.Code)
		details, ok := apiErr.Details.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "nobody", details["target_name"])
	})

	t.Run("self invite", func(t *testing.T) {
		resp := ts.invite(alice, "ALICE")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Equal(t, "SELF_INVITE", decodeError(t, resp).Code)
	})

	t.Run("offline target", func(t *testing.T) {
		resp := ts.api.Put("/api/v1/players/"+bob+"/presence", map[string]any{"online": false})
		require.Equal(t, http.StatusOK, resp.Code)
		t.Cleanup(func() {
			ts.api.Put("/api/v1/players/"+bob+"/presence", map[string]any{"online": true})
		})

		resp = ts.invite(alice, "bob")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Equal(t, "TARGET_UNREACHABLE", decodeError(t, resp).Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, ts.invite(alice, "bob").Code)

		resp := ts.invite(alice, "bob")
		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "DUPLICATE_INVITE", decodeError(t, resp).Code)
	})

	t.Run("target already on a team", func(t *testing.T) {
		erin := ts.createPlayer(t, "erin")
		resp := ts.api.Put("/api/v1/islands/"+mustIslandOf(t, ts, carol)+"/members/"+erin, map[string]any{"rank": int(domain.RankMember)})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		resp = ts.invite(alice, "erin")
		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "ALREADY_GROUPED", decodeError(t, resp).Code)
	})
}

func TestCreateInvite_Usage(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createPlayer(t, "alice")
	ts.createIsland(t, alice, "Alice's Island")

	for _, args := range [][]string{
		{"bob", "extra"},
		{"a", "b", "c", "d", "e", "f", "g", "h", "i"},
	} {
		resp := ts.invite(alice, args...)
		assert.Equal(t, http.StatusBadRequest, resp.Code, "%d args", len(args))
		assert.Equal(t, "USAGE", decodeError(t, resp).Code, "%d args", len(args))
	}
}

func TestCreateInvite_MissingArgsReportsInfo(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createPlayer(t, "alice")
	ts.createIsland(t, alice, "Alice's Island")

	for name, resp := range map[string]*httptest.ResponseRecorder{
		"empty object": ts.api.Post("/api/v1/invites", "X-Player-ID: "+alice, map[string]any{}),
		"no body":      ts.api.Post("/api/v1/invites", "X-Player-ID: "+alice),
	} {
		require.Equal(t, http.StatusOK, resp.Code, "%s: %s", name, resp.Body.String())

		var body CreateInviteResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "info", body.Outcome, name)
		assert.Nil(t, body.PendingInvite, name)
	}
}

func TestCreateInvite_InfoShowsOwnPendingInvite(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createPlayer(t, "alice")
	bob := ts.createPlayer(t, "bob")
	ts.createIsland(t, alice, "Alice's Island")
	// Only players with an island or team may run the command.
	ts.createIsland(t, bob, "Bob's Island")

	require.Equal(t, http.StatusCreated, ts.invite(alice, "bob").Code)

	resp := ts.invite(bob)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body CreateInviteResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "info", body.Outcome)
	require.NotNil(t, body.PendingInvite)
	assert.Equal(t, alice, body.PendingInvite.InviterID)
	require.NotNil(t, body.InvitedBy)
	assert.Equal(t, "alice", body.InvitedBy.Name)
}

func TestCreateInvite_Cooldown(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{InviteCooldown: time.Minute})
	alice := ts.createPlayer(t, "alice")
	bob := ts.createPlayer(t, "bob")
	ts.createIsland(t, alice, "Alice's Island")

	require.Equal(t, http.StatusCreated, ts.invite(alice, "bob").Code)
	require.Equal(t, http.StatusOK, ts.api.Delete("/api/v1/players/"+bob+"/invite").Code)

	resp := ts.invite(alice, "bob")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	apiErr := decodeError(t, resp)
	assert.Equal(t, "COOLDOWN_ACTIVE", apiErr.Code)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 60, details["remaining_seconds"], 1)
}

func TestCreateInvite_SubSecondCooldownStillThrottles(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{InviteCooldown: 500 * time.Millisecond})
	alice := ts.createPlayer(t, "alice")
	bob := ts.createPlayer(t, "bob")
	ts.createIsland(t, alice, "Alice's Island")

	require.Equal(t, http.StatusCreated, ts.invite(alice, "bob").Code)
	require.Equal(t, http.StatusOK, ts.api.Delete("/api/v1/players/"+bob+"/invite").Code)

	resp := ts.invite(alice, "bob")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "COOLDOWN_ACTIVE", decodeError(t, resp).Code)
}

func TestCooldownSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 0},
		{-time.Second, 0},
		{500 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{time.Minute, 60},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cooldownSeconds(tt.in), tt.in.String())
	}
}

func TestCreateInvite_HookVeto(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createPlayer(t, "alice")
	bob := ts.createPlayer(t, "bob")
	ts.createIsland(t, alice, "Alice's Island")

	ts.hooks.Register(hook.ListenerFunc(func(_ context.Context, event *domain.TeamEvent) {
		event.Cancel()
	}))

	resp := ts.invite(alice, "bob")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body CreateInviteResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "cancelled", body.Outcome)
	assert.Nil(t, body.Invite)

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/players/"+bob+"/invite").Code)
}

func TestCreateInvite_SupersedeNotifiesPreviousInviter(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createPlayer(t, "alice")
	bob := ts.createPlayer(t, "bob")
	carol := ts.createPlayer(t, "carol")
	ts.createIsland(t, alice, "Alice's Island")
	ts.createIsland(t, carol, "Carol's Island")

	aliceStream, err := ts.events.Connect(alice)
	require.NoError(t, err)
	bobStream, err := ts.events.Connect(bob)
	require.NoError(t, err)

	first := ts.invite(alice, "bob")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, sse.EventInviteReceived, nextEvent(t, bobStream).Type)

	resp := ts.invite(carol, "bob")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var body CreateInviteResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotNil(t, body.Superseded)
	assert.Equal(t, alice, body.Superseded.InviterID)

	assert.Equal(t, sse.EventInviteSuperseded, nextEvent(t, aliceStream).Type)
	assert.Equal(t, sse.EventInviteReceived, nextEvent(t, bobStream).Type)
}

func TestListAndRemoveInvites(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createPlayer(t, "alice")
	bob := ts.createPlayer(t, "bob")
	carol := ts.createPlayer(t, "carol")
	ts.createIsland(t, alice, "Alice's Island")

	require.Equal(t, http.StatusCreated, ts.invite(alice, "bob").Code)
	require.Equal(t, http.StatusCreated, ts.invite(alice, "carol").Code)

	resp := ts.api.Get("/api/v1/invites?inviter=" + alice)
	require.Equal(t, http.StatusOK, resp.Code)
	var list ListInvitesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Len(t, list.Invites, 2)

	resp = ts.api.Get("/api/v1/invites?inviter=" + id.NewPlayerID())
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Empty(t, list.Invites)

	resp = ts.api.Delete("/api/v1/players/" + carol + "/invite")
	require.Equal(t, http.StatusOK, resp.Code)
	var removed InviteResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &removed))
	assert.Equal(t, carol, removed.InviteeID)

	assert.Equal(t, http.StatusNotFound, ts.api.Delete("/api/v1/players/"+carol+"/invite").Code)
	assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/players/"+bob+"/invite").Code)
}

func TestGetPendingInvite_InvalidPlayerID(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/players/not-a-uuid/invite")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
}

func nextEvent(t *testing.T, c *sse.Client) sse.Event {
	t.Helper()
	for {
		select {
		case e := <-c.EventChan:
			if e.Type == sse.EventHeartbeat {
				continue
			}
			return e
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return sse.Event{}
		}
	}
}

func mustIslandOf(t *testing.T, ts *testServer, playerID string) string {
	t.Helper()
	islandID, err := ts.registry.IslandOf(context.Background(), playerID)
	require.NoError(t, err)
	return islandID
}

func TestCreateInvite_RequestRateLimit(t *testing.T) {
	limiter := ratelimit.New(0.001, 2, 0)
	t.Cleanup(limiter.Stop)

	ts := setupTestServerWithOptions(t, Options{InviteLimiter: limiter})
	alice := ts.createPlayer(t, "alice")
	ts.createIsland(t, alice, "Alice's Island")

	assert.Equal(t, http.StatusBadRequest, ts.invite(alice, "a", "b").Code)
	assert.Equal(t, http.StatusNotFound, ts.invite(alice, "ghost").Code)

	resp := ts.invite(alice, "ghost")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, resp).Code)
}
