package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skyblockhq/teamsvc/internal/cooldown"
	"github.com/skyblockhq/teamsvc/internal/domain"
	"github.com/skyblockhq/teamsvc/internal/hook"
	"github.com/skyblockhq/teamsvc/internal/store"
)

type fakeIsland struct {
	ownerID    string
	maxMembers int
	minRank    domain.Rank
}

// fakeRegistry is an in-memory island roster and player directory.
type fakeRegistry struct {
	mu       sync.Mutex
	players  map[string]*domain.Player
	islands  map[string]*fakeIsland
	memberOf map[string]string
	ranks    map[string]domain.Rank
	vanished map[string]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		players:  make(map[string]*domain.Player),
		islands:  make(map[string]*fakeIsland),
		memberOf: make(map[string]string),
		ranks:    make(map[string]domain.Rank),
		vanished: make(map[string]bool),
	}
}

func (r *fakeRegistry) addPlayer(id, name string) *domain.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &domain.Player{ID: id, Name: name, Online: true}
	r.players[id] = p
	return p
}

func (r *fakeRegistry) addIsland(islandID, ownerID string) *fakeIsland {
	r.mu.Lock()
	defer r.mu.Unlock()
	isl := &fakeIsland{ownerID: ownerID, maxMembers: 4, minRank: domain.RankMember}
	r.islands[islandID] = isl
	r.memberOf[ownerID] = islandID
	r.ranks[ownerID] = domain.RankOwner
	return isl
}

func (r *fakeRegistry) addMember(islandID, playerID string, rank domain.Rank) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memberOf[playerID] = islandID
	r.ranks[playerID] = rank
}

func (r *fakeRegistry) setPresence(playerID string, online, hidden bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[playerID].Online = online
	r.players[playerID].Hidden = hidden
}

func (r *fakeRegistry) vanish(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vanished[playerID] = true
}

func (r *fakeRegistry) teamSize(islandID string) int {
	n := 0
	for pid, isl := range r.memberOf {
		if isl == islandID && r.ranks[pid].IsTeamRank() {
			n++
		}
	}
	return n
}

func (r *fakeRegistry) HasIslandOrTeam(_ context.Context, playerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.memberOf[playerID]
	return ok && r.ranks[playerID].IsTeamRank(), nil
}

func (r *fakeRegistry) IslandOf(_ context.Context, playerID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	islandID, ok := r.memberOf[playerID]
	if !ok || !r.ranks[playerID].IsTeamRank() {
		return "", store.ErrNotFound
	}
	return islandID, nil
}

func (r *fakeRegistry) InTeam(_ context.Context, playerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	islandID, ok := r.memberOf[playerID]
	if !ok || !r.ranks[playerID].IsTeamRank() {
		return false, nil
	}
	return r.teamSize(islandID) > 1, nil
}

func (r *fakeRegistry) OwnsIsland(_ context.Context, playerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, isl := range r.islands {
		if isl.ownerID == playerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRegistry) MemberCount(_ context.Context, islandID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.teamSize(islandID), nil
}

func (r *fakeRegistry) MaxMembers(_ context.Context, islandID string, _ domain.Rank) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.islands[islandID].maxMembers, nil
}

func (r *fakeRegistry) RankOf(_ context.Context, islandID, playerID string) (domain.Rank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.memberOf[playerID] != islandID {
		return domain.RankVisitor, nil
	}
	return r.ranks[playerID], nil
}

func (r *fakeRegistry) MinInviteRank(_ context.Context, islandID string) (domain.Rank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.islands[islandID].minRank, nil
}

func (r *fakeRegistry) ResolveName(_ context.Context, name string) (*domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *fakeRegistry) GetPlayer(_ context.Context, id string) (*domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok || r.vanished[id] {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRegistry) IsReachable(_ context.Context, actorID, targetID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[targetID]
	if !ok || !p.Online {
		return false, nil
	}
	return !p.Hidden || actorID == targetID, nil
}

type receivedNote struct {
	invite     *domain.Invite
	inviter    domain.PlayerSummary
	ownsIsland bool
}

type supersededNote struct {
	previous    *domain.Invite
	replacement *domain.Invite
}

type recordingNotifier struct {
	mu         sync.Mutex
	received   []receivedNote
	superseded []supersededNote
}

func (n *recordingNotifier) InviteReceived(invite *domain.Invite, inviter domain.PlayerSummary, ownsIsland bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, receivedNote{invite, inviter, ownsIsland})
}

func (n *recordingNotifier) InviteSuperseded(previous, replacement *domain.Invite) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.superseded = append(n.superseded, supersededNote{previous, replacement})
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type inviteFixture struct {
	svc      *InviteService
	registry *fakeRegistry
	invites  *store.Store
	bus      *hook.Bus
	notes    *recordingNotifier
	clock    *testClock
}

// setupInviteTest builds a service over an in-memory invite store with a
// solo island owned by "alice" and an unaffiliated online player "bob".
func setupInviteTest(t *testing.T) *inviteFixture {
	t.Helper()

	invites, err := store.New("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = invites.Close() })

	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	tracker := cooldown.New(cooldown.WithClock(clock.Now))
	t.Cleanup(tracker.Stop)

	registry := newFakeRegistry()
	registry.addPlayer("alice", "Alice")
	registry.addPlayer("bob", "Bob")
	registry.addIsland("isl-alice", "alice")

	bus := hook.NewBus(nil)
	notes := &recordingNotifier{}

	svc := NewInviteService(invites, registry, registry, tracker, bus, notes, nil)
	svc.now = clock.Now

	return &inviteFixture{
		svc:      svc,
		registry: registry,
		invites:  invites,
		bus:      bus,
		notes:    notes,
		clock:    clock,
	}
}

func (f *inviteFixture) invite(t *testing.T, actorID string, cooldownSeconds int, args ...string) *CreateInviteResult {
	t.Helper()
	result, err := f.svc.CreateInvite(context.Background(), CreateInviteRequest{
		ActorID:         actorID,
		Args:            args,
		CooldownSeconds: cooldownSeconds,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func (f *inviteFixture) pending(t *testing.T, inviteeID string) *domain.Invite {
	t.Helper()
	invite, err := f.invites.GetInvite(context.Background(), inviteeID)
	if err != nil {
		require.ErrorIs(t, err, store.ErrInviteNotFound)
		return nil
	}
	return invite
}
