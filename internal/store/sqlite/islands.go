package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skyblockhq/teamsvc/internal/domain"
	"github.com/skyblockhq/teamsvc/internal/store"
)

const islandColumns = `id, owner_id, name, max_members, min_invite_rank, created_at, updated_at`

func scanIsland(scanner interface{ Scan(dest ...any) error }) (*domain.Island, error) {
	var (
		i         domain.Island
		minRank   int
		createdAt string
		updatedAt string
	)

	if err := scanner.Scan(&i.ID, &i.OwnerID, &i.Name, &i.MaxMembers, &minRank, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	i.MinInviteRank = domain.Rank(minRank)

	var err error
	if i.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if i.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

// UpsertIsland inserts or updates an island and makes its owner an OWNER member.
// When ownership moves, the previous owner stays on the roster as SUB_OWNER.
func (s *Store) UpsertIsland(ctx context.Context, island *domain.Island) error {
	now := time.Now()
	if island.CreatedAt.IsZero() {
		island.CreatedAt = now
	}
	island.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	var previousOwner string
	err = tx.QueryRowContext(ctx, `SELECT owner_id FROM islands WHERE id = ?`, island.ID).Scan(&previousOwner)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load island owner: %w", err)
	}

	var otherIsland string
	err = tx.QueryRowContext(ctx, `
		SELECT island_id FROM island_members
		WHERE player_id = ? AND island_id <> ? AND rank >= ?
		LIMIT 1`,
		island.OwnerID, island.ID, int(domain.RankMember)).Scan(&otherIsland)
	switch {
	case err == nil:
		return fmt.Errorf("owner %s is on team %s: %w", island.OwnerID, otherIsland, store.ErrAlreadyTaken)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check owner team: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO islands (id, owner_id, name, max_members, min_invite_rank, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			max_members = excluded.max_members,
			min_invite_rank = excluded.min_invite_rank,
			updated_at = excluded.updated_at`,
		island.ID, island.OwnerID, island.Name, island.MaxMembers, int(island.MinInviteRank),
		formatTime(island.CreatedAt), formatTime(island.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("owner %s already has an island: %w", island.OwnerID, store.ErrAlreadyTaken)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("owner %s: %w", island.OwnerID, store.ErrNotFound)
		}
		return fmt.Errorf("upsert island: %w", err)
	}

	if previousOwner != "" && previousOwner != island.OwnerID {
		if _, err := tx.ExecContext(ctx,
			`UPDATE island_members SET rank = ? WHERE island_id = ? AND player_id = ?`,
			int(domain.RankSubOwner), island.ID, previousOwner); err != nil {
			return fmt.Errorf("demote previous owner: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO island_members (island_id, player_id, rank, joined_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(island_id, player_id) DO UPDATE SET rank = excluded.rank`,
		island.ID, island.OwnerID, int(domain.RankOwner), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("set owner membership: %w", err)
	}

	return tx.Commit()
}

// GetIsland returns an island by ID.
func (s *Store) GetIsland(ctx context.Context, id string) (*domain.Island, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+islandColumns+` FROM islands WHERE id = ?`, id)

	island, err := scanIsland(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get island: %w", err)
	}
	return island, nil
}

// DeleteIsland removes an island and its roster.
func (s *Store) DeleteIsland(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM islands WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete island: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetMember gives a player a rank on an island. The owner rank cannot be
// granted here; use UpsertIsland to transfer ownership. Granting a team rank
// to a player who holds one on another island returns store.ErrAlreadyTaken.
func (s *Store) SetMember(ctx context.Context, islandID, playerID string, rank domain.Rank) error {
	if rank >= domain.RankOwner {
		return fmt.Errorf("grant rank %s: %w", rank.Name(), store.ErrOwnerMembership)
	}

	island, err := s.GetIsland(ctx, islandID)
	if err != nil {
		return err
	}
	if island.OwnerID == playerID {
		return fmt.Errorf("change rank of owner: %w", store.ErrOwnerMembership)
	}

	args := []any{islandID, playerID, int(rank), formatTime(time.Now())}
	query := `
		INSERT INTO island_members (island_id, player_id, rank, joined_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(island_id, player_id) DO UPDATE SET rank = excluded.rank`
	if rank.IsTeamRank() {
		// A player holds a team rank on at most one island.
		query = `
		INSERT INTO island_members (island_id, player_id, rank, joined_at)
		SELECT ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM island_members
			WHERE player_id = ? AND island_id <> ? AND rank >= ?
		)
		ON CONFLICT(island_id, player_id) DO UPDATE SET rank = excluded.rank`
		args = append(args, playerID, islandID, int(domain.RankMember))
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("player %s: %w", playerID, store.ErrNotFound)
		}
		return fmt.Errorf("set member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("player %s is on another team: %w", playerID, store.ErrAlreadyTaken)
	}
	return nil
}

// RemoveMember drops a player from an island roster.
func (s *Store) RemoveMember(ctx context.Context, islandID, playerID string) error {
	island, err := s.GetIsland(ctx, islandID)
	if err != nil {
		return err
	}
	if island.OwnerID == playerID {
		return fmt.Errorf("remove owner: %w", store.ErrOwnerMembership)
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM island_members WHERE island_id = ? AND player_id = ?`, islandID, playerID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Members returns an island's roster, highest rank first.
func (s *Store) Members(ctx context.Context, islandID string) ([]domain.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT island_id, player_id, rank, joined_at
		FROM island_members
		WHERE island_id = ?
		ORDER BY rank DESC, joined_at`, islandID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Membership
	for rows.Next() {
		var (
			m        domain.Membership
			rank     int
			joinedAt string
		)
		if err := rows.Scan(&m.IslandID, &m.PlayerID, &rank, &joinedAt); err != nil {
			return nil, err
		}
		m.Rank = domain.Rank(rank)
		if m.JoinedAt, err = parseTime(joinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// IslandOf returns the island on which the player holds a team rank.
func (s *Store) IslandOf(ctx context.Context, playerID string) (string, error) {
	var islandID string
	err := s.db.QueryRowContext(ctx, `
		SELECT island_id FROM island_members
		WHERE player_id = ? AND rank >= ?
		ORDER BY rank DESC LIMIT 1`,
		playerID, int(domain.RankMember)).Scan(&islandID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("island of player: %w", err)
	}
	return islandID, nil
}

// HasIslandOrTeam reports whether the player owns an island or belongs to a team.
func (s *Store) HasIslandOrTeam(ctx context.Context, playerID string) (bool, error) {
	_, err := s.IslandOf(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// OwnsIsland reports whether the player owns an island.
func (s *Store) OwnsIsland(ctx context.Context, playerID string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM islands WHERE owner_id = ?`, playerID).Scan(&n); err != nil {
		return false, fmt.Errorf("owns island: %w", err)
	}
	return n > 0, nil
}

// InTeam reports whether the player shares an island with at least one other
// team member. An owner alone on their island is not in a team.
func (s *Store) InTeam(ctx context.Context, playerID string) (bool, error) {
	islandID, err := s.IslandOf(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	count, err := s.MemberCount(ctx, islandID)
	if err != nil {
		return false, err
	}
	return count > 1, nil
}

// MemberCount returns the number of team-rank members on an island.
func (s *Store) MemberCount(ctx context.Context, islandID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM island_members WHERE island_id = ? AND rank >= ?`,
		islandID, int(domain.RankMember)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// MaxMembers returns the roster cap that applies to players of the given rank.
// Ranks below MEMBER do not count against the team roster and report -1.
func (s *Store) MaxMembers(ctx context.Context, islandID string, rank domain.Rank) (int, error) {
	if !rank.IsTeamRank() {
		return -1, nil
	}
	island, err := s.GetIsland(ctx, islandID)
	if err != nil {
		return 0, err
	}
	if island.MaxMembers > 0 {
		return island.MaxMembers, nil
	}
	return s.currentDefaults().MaxMembers, nil
}

// RankOf returns the player's rank on an island, VISITOR when absent.
func (s *Store) RankOf(ctx context.Context, islandID, playerID string) (domain.Rank, error) {
	var rank int
	err := s.db.QueryRowContext(ctx,
		`SELECT rank FROM island_members WHERE island_id = ? AND player_id = ?`,
		islandID, playerID).Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RankVisitor, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rank of player: %w", err)
	}
	return domain.Rank(rank), nil
}

// MinInviteRank returns the lowest rank allowed to invite on an island.
func (s *Store) MinInviteRank(ctx context.Context, islandID string) (domain.Rank, error) {
	island, err := s.GetIsland(ctx, islandID)
	if err != nil {
		return 0, err
	}
	if island.MinInviteRank > 0 {
		return island.MinInviteRank, nil
	}
	return s.currentDefaults().MinInviteRank, nil
}
