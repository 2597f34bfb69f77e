package model

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/username/folioledger/backend/src/models"
)

// FindAccountByName matches an account by exact name. Returns (nil, nil) when
// no account exists.
func (s *Store) FindAccountByName(name string) (*models.Account, error) {
	row := s.DB.QueryRow(`SELECT id, name FROM accounts WHERE name = ?`, name)
	var account models.Account
	if err := row.Scan(&account.ID, &account.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", name, err)
	}
	return &account, nil
}

func (s *Store) CreateAccount(name string) (*models.Account, error) {
	res, err := s.DB.Exec(`INSERT INTO accounts (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("inserting account %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Account{ID: id, Name: name}, nil
}

// AccountName resolves an account id to its display name.
func (s *Store) AccountName(id int64) (string, error) {
	var name string
	err := s.DB.QueryRow(`SELECT name FROM accounts WHERE id = ?`, id).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("resolving account %d: %w", id, err)
	}
	return name, nil
}
