package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/skyblockhq/teamsvc/internal/domain"
)

const (
	invitePrefix          = "invite:"              // keyed by invitee
	inviteByInviterPrefix = "idx:invites:inviter:" // inviter:invitee -> empty
)

func inviteKey(inviteeID string) []byte {
	return []byte(invitePrefix + inviteeID)
}

func inviterIndexKey(inviterID, inviteeID string) []byte {
	return []byte(inviteByInviterPrefix + inviterID + ":" + inviteeID)
}

// PutInvite stores invite under its invitee, replacing any invite already
// pending for that player.
func (s *Store) PutInvite(_ context.Context, invite *domain.Invite) error {
	if invite.InviteeID == "" {
		return errors.New("invite has no invitee")
	}

	data, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("marshal invite: %w", err)
	}
	key := inviteKey(invite.InviteeID)

	return s.db.Update(func(txn *badger.Txn) error {
		var previous domain.Invite
		err := getTxn(txn, key, &previous)
		switch {
		case err == nil:
			if err := txn.Delete(inviterIndexKey(previous.InviterID, previous.InviteeID)); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return fmt.Errorf("read previous invite: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(inviterIndexKey(invite.InviterID, invite.InviteeID), []byte{})
	})
}

// GetInvite returns the invite pending for inviteeID.
func (s *Store) GetInvite(_ context.Context, inviteeID string) (*domain.Invite, error) {
	var invite domain.Invite
	err := s.db.View(func(txn *badger.Txn) error {
		return getTxn(txn, inviteKey(inviteeID), &invite)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return &invite, nil
}

// IsPending reports whether inviteeID has a pending invite.
func (s *Store) IsPending(_ context.Context, inviteeID string) (bool, error) {
	ok, err := s.exists(inviteKey(inviteeID))
	if err != nil {
		return false, fmt.Errorf("check invite: %w", err)
	}
	return ok, nil
}

// RemoveInvite deletes the invite pending for inviteeID. Removing a missing
// invite is a no-op.
func (s *Store) RemoveInvite(_ context.Context, inviteeID string) error {
	key := inviteKey(inviteeID)

	return s.db.Update(func(txn *badger.Txn) error {
		var invite domain.Invite
		if err := getTxn(txn, key, &invite); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil // Already gone
			}
			return fmt.Errorf("read invite for removal: %w", err)
		}

		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(inviterIndexKey(invite.InviterID, invite.InviteeID))
	})
}

// ListInvites returns every pending invite.
func (s *Store) ListInvites(_ context.Context) ([]*domain.Invite, error) {
	prefix := []byte(invitePrefix)
	var invites []*domain.Invite

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var invite domain.Invite
				if err := json.Unmarshal(val, &invite); err != nil {
					// Skip malformed invites
					return nil
				}
				invites = append(invites, &invite)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}

	return invites, nil
}

// ListInvitesByInviter returns the invites a player has outstanding.
func (s *Store) ListInvitesByInviter(ctx context.Context, inviterID string) ([]*domain.Invite, error) {
	prefix := []byte(inviteByInviterPrefix + inviterID + ":")
	var inviteeIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			inviteeIDs = append(inviteeIDs, strings.TrimPrefix(key, string(prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list invites by inviter: %w", err)
	}

	invites := make([]*domain.Invite, 0, len(inviteeIDs))
	for _, inviteeID := range inviteeIDs {
		invite, err := s.GetInvite(ctx, inviteeID)
		if err != nil {
			if errors.Is(err, ErrInviteNotFound) {
				continue // Removed between scan and read
			}
			return nil, err
		}
		invites = append(invites, invite)
	}

	return invites, nil
}
