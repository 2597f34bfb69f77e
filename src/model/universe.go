package model

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/username/folioledger/backend/src/models"
)

// FindUniverseBySymbol matches a universe entry by ticker. Returns (nil, nil)
// when the symbol is absent.
func (s *Store) FindUniverseBySymbol(symbol string) (*models.UniverseEntry, error) {
	row := s.DB.QueryRow(`SELECT id, symbol, risk_group_id FROM universe WHERE symbol = ?`, symbol)
	var entry models.UniverseEntry
	if err := row.Scan(&entry.ID, &entry.Symbol, &entry.RiskGroupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying symbol %q: %w", symbol, err)
	}
	return &entry, nil
}

func (s *Store) CreateUniverseEntry(symbol string, riskGroupID int64) (*models.UniverseEntry, error) {
	res, err := s.DB.Exec(`INSERT INTO universe (symbol, risk_group_id) VALUES (?, ?)`, symbol, riskGroupID)
	if err != nil {
		return nil, fmt.Errorf("inserting symbol %q: %w", symbol, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.UniverseEntry{ID: id, Symbol: symbol, RiskGroupID: riskGroupID}, nil
}

// UniverseSymbol resolves a universe id to its ticker.
func (s *Store) UniverseSymbol(id int64) (string, error) {
	var symbol string
	err := s.DB.QueryRow(`SELECT symbol FROM universe WHERE id = ?`, id).Scan(&symbol)
	if err != nil {
		return "", fmt.Errorf("resolving universe entry %d: %w", id, err)
	}
	return symbol, nil
}
