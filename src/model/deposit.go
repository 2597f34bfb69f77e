package model

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/username/folioledger/backend/src/models"
)

// FindDepositTypeByName matches a deposit type by name. Returns (nil, nil)
// when the type does not exist yet.
func (s *Store) FindDepositTypeByName(name string) (*models.DepositType, error) {
	row := s.DB.QueryRow(`SELECT id, name FROM deposit_types WHERE name = ?`, name)
	var depositType models.DepositType
	if err := row.Scan(&depositType.ID, &depositType.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying deposit type %q: %w", name, err)
	}
	return &depositType, nil
}

func (s *Store) CreateDepositType(name string) (*models.DepositType, error) {
	res, err := s.DB.Exec(`INSERT INTO deposit_types (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("inserting deposit type %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.DepositType{ID: id, Name: name}, nil
}

// FindDepositExact is the idempotency check for deposits: it matches on date,
// amount, account, deposit type and universe (including a NULL universe).
func (s *Store) FindDepositExact(d models.MappedDivDeposit) (*models.DivDeposit, error) {
	query := `SELECT id, date, amount, account_id, deposit_type_id, universe_id
		FROM div_deposits
		WHERE date = ? AND amount = ? AND account_id = ? AND deposit_type_id = ?`
	args := []interface{}{d.Date, d.Amount, d.AccountID, d.DepositTypeID}
	if d.UniverseID == nil {
		query += ` AND universe_id IS NULL`
	} else {
		query += ` AND universe_id = ?`
		args = append(args, *d.UniverseID)
	}

	row := s.DB.QueryRow(query, args...)
	var deposit models.DivDeposit
	var universeID sql.NullInt64
	if err := row.Scan(&deposit.ID, &deposit.Date, &deposit.Amount, &deposit.AccountID, &deposit.DepositTypeID, &universeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying deposit for account %d on %s: %w", d.AccountID, d.Date, err)
	}
	if universeID.Valid {
		deposit.UniverseID = &universeID.Int64
	}
	return &deposit, nil
}

func (s *Store) CreateDeposit(d models.MappedDivDeposit) (*models.DivDeposit, error) {
	var universeID interface{}
	if d.UniverseID != nil {
		universeID = *d.UniverseID
	}
	res, err := s.DB.Exec(`INSERT INTO div_deposits (date, amount, account_id, deposit_type_id, universe_id)
		VALUES (?, ?, ?, ?, ?)`,
		d.Date, d.Amount, d.AccountID, d.DepositTypeID, universeID)
	if err != nil {
		return nil, fmt.Errorf("inserting deposit for account %d on %s: %w", d.AccountID, d.Date, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.DivDeposit{
		ID:            id,
		Date:          d.Date,
		Amount:        d.Amount,
		AccountID:     d.AccountID,
		DepositTypeID: d.DepositTypeID,
		UniverseID:    d.UniverseID,
	}, nil
}

// ListDeposits returns all deposits ordered by date.
func (s *Store) ListDeposits() ([]models.DivDeposit, error) {
	rows, err := s.DB.Query(`SELECT id, date, amount, account_id, deposit_type_id, universe_id
		FROM div_deposits ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying deposits: %w", err)
	}
	defer rows.Close()

	var deposits []models.DivDeposit
	for rows.Next() {
		var deposit models.DivDeposit
		var universeID sql.NullInt64
		if err := rows.Scan(&deposit.ID, &deposit.Date, &deposit.Amount, &deposit.AccountID, &deposit.DepositTypeID, &universeID); err != nil {
			return nil, fmt.Errorf("scanning deposit row: %w", err)
		}
		if universeID.Valid {
			deposit.UniverseID = &universeID.Int64
		}
		deposits = append(deposits, deposit)
	}
	return deposits, rows.Err()
}
