package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skyblockhq/teamsvc/internal/domain"
	"github.com/skyblockhq/teamsvc/internal/normalize"
	"github.com/skyblockhq/teamsvc/internal/store"
)

const playerColumns = `id, name, display_name, online, hidden, updated_at`

func scanPlayer(scanner interface{ Scan(dest ...any) error }) (*domain.Player, error) {
	var (
		p         domain.Player
		online    int
		hidden    int
		updatedAt string
	)

	if err := scanner.Scan(&p.ID, &p.Name, &p.DisplayName, &online, &hidden, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	p.Online = online != 0
	p.Hidden = hidden != 0

	return &p, nil
}

// UpsertPlayer inserts or replaces a player record.
// Returns store.ErrAlreadyTaken if another player already uses the name.
func (s *Store) UpsertPlayer(ctx context.Context, p *domain.Player) error {
	key := normalize.PlayerName(p.Name)
	if key == "" {
		return errors.New("player name is required")
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, name_key, display_name, online, hidden, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			name_key = excluded.name_key,
			display_name = excluded.display_name,
			online = excluded.online,
			hidden = excluded.hidden,
			updated_at = excluded.updated_at`,
		p.ID, strings.TrimSpace(p.Name), key, p.DisplayName,
		boolInt(p.Online), boolInt(p.Hidden), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("player name %q: %w", p.Name, store.ErrAlreadyTaken)
		}
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

// SetPresence updates a player's online and hidden flags.
func (s *Store) SetPresence(ctx context.Context, playerID string, online, hidden bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET online = ?, hidden = ?, updated_at = ? WHERE id = ?`,
		boolInt(online), boolInt(hidden), formatTime(time.Now()), playerID)
	if err != nil {
		return fmt.Errorf("set presence: %w", err)
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

// GetPlayer returns a player by ID.
func (s *Store) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)

	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

// ResolveName finds a player by name, ignoring case.
func (s *Store) ResolveName(ctx context.Context, name string) (*domain.Player, error) {
	key := normalize.PlayerName(name)
	if key == "" {
		return nil, store.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE name_key = ?`, key)

	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve player name: %w", err)
	}
	return p, nil
}

// IsReachable reports whether actorID can currently see targetID: the target
// must be online and not hidden. Players can always see themselves.
func (s *Store) IsReachable(ctx context.Context, actorID, targetID string) (bool, error) {
	target, err := s.GetPlayer(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !target.Online {
		return false, nil
	}
	return !target.Hidden || actorID == targetID, nil
}

// ListPlayers returns every known player ordered by name.
func (s *Store) ListPlayers(ctx context.Context) ([]*domain.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name_key`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []*domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
