// Package main seeds the registry with players and islands for local testing.
//
// Each island gets an owner plus a few members, and a handful of unaffiliated
// players are left online so invites can be tried right away.
//
// Usage:
//
//	DATA_PATH=~/.teamsvc go run ./cmd/seed
//	DATA_PATH=~/.teamsvc go run ./cmd/seed --islands 5 --loners 10
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/skyblockhq/teamsvc/internal/domain"
	"github.com/skyblockhq/teamsvc/internal/id"
	"github.com/skyblockhq/teamsvc/internal/store"
	"github.com/skyblockhq/teamsvc/internal/store/sqlite"
)

var (
	islandCount = flag.Int("islands", 3, "Number of islands to create")
	lonerCount  = flag.Int("loners", 6, "Number of players without an island")
	maxMembers  = flag.Int("max-members", 4, "Team size cap for seeded islands")
)

var namePool = []string{
	"Notch", "Jeb_", "Dinnerbone", "Grumm", "Steve", "Alex", "Herobrine", "Technoblade",
	"Dream", "Sapnap", "Ranboo", "Tubbo", "Quackity", "Wilbur", "Philza", "Fundy",
	"Skeppy", "BadBoyHalo", "Antfrost", "Punz", "Purpled", "Hbomb", "Callahan", "Awesamdude",
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/.teamsvc")
	}
	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataPath, "registry.db")
	fmt.Printf("Opening registry at: %s\n", dbPath)

	registry, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open registry: %v", err)
	}
	defer registry.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(42)) //#nosec G404 -- deterministic seed data

	names := make([]string, len(namePool))
	copy(names, namePool)
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	next := 0
	takeName := func() string {
		name := names[next%len(names)]
		if next >= len(names) {
			name = fmt.Sprintf("%s%d", name, next/len(names))
		}
		next++
		return name
	}

	for n := 0; n < *islandCount; n++ {
		owner := createPlayer(ctx, registry, takeName(), true)

		islandID := id.MustGenerate(id.PrefixIsland)
		island := &domain.Island{
			ID:         islandID,
			OwnerID:    owner.ID,
			Name:       owner.Name + "'s Island",
			MaxMembers: *maxMembers,
		}
		if err := registry.UpsertIsland(ctx, island); err != nil {
			log.Fatalf("Failed to create island for %s: %v", owner.Name, err)
		}
		fmt.Printf("\nIsland %s owned by %s\n", islandID, owner.Name)

		// Leave at least one free slot so invites from this island succeed.
		members := rng.Intn(max(*maxMembers-1, 1))
		for m := 0; m < members; m++ {
			member := createPlayer(ctx, registry, takeName(), rng.Float32() < 0.7)
			rank := domain.RankMember
			if m == 0 && rng.Intn(2) == 0 {
				rank = domain.RankSubOwner
			}
			if err := registry.SetMember(ctx, islandID, member.ID, rank); err != nil {
				log.Fatalf("Failed to add %s to %s: %v", member.Name, islandID, err)
			}
			fmt.Printf("  %-12s %s\n", rank.Name(), member.Name)
		}
	}

	fmt.Printf("\nUnaffiliated players:\n")
	for n := 0; n < *lonerCount; n++ {
		p := createPlayer(ctx, registry, takeName(), true)
		fmt.Printf("  %s (%s)\n", p.Name, p.ID)
	}

	fmt.Println("\nDone.")
}

func createPlayer(ctx context.Context, registry *sqlite.Store, name string, online bool) *domain.Player {
	p := &domain.Player{
		ID:     id.NewPlayerID(),
		Name:   name,
		Online: online,
	}
	if err := registry.UpsertPlayer(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyTaken) {
			existing, resolveErr := registry.ResolveName(ctx, name)
			if resolveErr == nil {
				return existing
			}
		}
		log.Fatalf("Failed to create player %s: %v", name, err)
	}
	return p
}
