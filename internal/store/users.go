package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/fundlift/custody/internal/model"
)

// ErrEmailTaken is returned when a registration reuses an email address.
var ErrEmailTaken = errors.New("email already registered")

// CreateUser stores a new user and its email index entry. The email
// uniqueness check and the writes share one Badger transaction.
func (s *Store) CreateUser(u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(prefixEmail + u.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return ErrEmailTaken
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set([]byte(prefixUser+u.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(u.ID))
	})
	if errors.Is(err, ErrEmailTaken) {
		return err
	}
	if err != nil {
		return fmt.Errorf("badger update: %w", err)
	}
	return nil
}

// User returns a user by ID.
func (s *Store) User(id string) (*model.User, error) {
	data, err := s.get(prefixUser + id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

// UserByEmail returns a user by email address.
func (s *Store) UserByEmail(email string) (*model.User, error) {
	id, err := s.get(prefixEmail + email)
	if err != nil {
		return nil, err
	}
	return s.User(string(id))
}

// UpdateUser overwrites an existing user record.
func (s *Store) UpdateUser(u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return s.put(prefixUser+u.ID, data)
}

// EachUser calls fn for every stored user. Used by the master-key
// rotation tool.
func (s *Store) EachUser(fn func(u *model.User) error) error {
	return s.forEach(prefixUser, func(_ string, val []byte) error {
		var u model.User
		if err := json.Unmarshal(val, &u); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}
		return fn(&u)
	})
}
