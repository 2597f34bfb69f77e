package model

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/username/folioledger/backend/src/models"
)

// FindTradeExact is the idempotency check for purchases: it matches a lot on
// universe, account, buy price, buy date and quantity. Returns (nil, nil)
// when no such lot exists.
func (s *Store) FindTradeExact(t models.MappedTrade) (*models.Trade, error) {
	row := s.DB.QueryRow(`SELECT id, universe_id, account_id, buy, sell, buy_date, sell_date, quantity
		FROM trades
		WHERE universe_id = ? AND account_id = ? AND buy = ? AND buy_date = ? AND quantity = ?`,
		t.UniverseID, t.AccountID, t.Buy, t.BuyDate, t.Quantity)
	trade, err := scanTrade(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying trade for universe %d: %w", t.UniverseID, err)
	}
	return trade, nil
}

// CreateTrade inserts a new open lot (sell 0, no sell date).
func (s *Store) CreateTrade(t models.MappedTrade) (*models.Trade, error) {
	res, err := s.DB.Exec(`INSERT INTO trades (universe_id, account_id, buy, sell, buy_date, sell_date, quantity)
		VALUES (?, ?, ?, 0, ?, NULL, ?)`,
		t.UniverseID, t.AccountID, t.Buy, t.BuyDate, t.Quantity)
	if err != nil {
		return nil, fmt.Errorf("inserting trade for universe %d: %w", t.UniverseID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Trade{
		ID:         id,
		UniverseID: t.UniverseID,
		AccountID:  t.AccountID,
		Buy:        t.Buy,
		Sell:       0,
		BuyDate:    t.BuyDate,
		SellDate:   nil,
		Quantity:   t.Quantity,
	}, nil
}

// FindOpenLots returns the open lots for one universe/account ordered by buy
// date ascending, oldest first. The id tiebreak keeps same-day lots in
// insertion order.
func (s *Store) FindOpenLots(universeID, accountID int64) ([]models.Trade, error) {
	rows, err := s.DB.Query(`SELECT id, universe_id, account_id, buy, sell, buy_date, sell_date, quantity
		FROM trades
		WHERE universe_id = ? AND account_id = ? AND sell = 0 AND sell_date IS NULL
		ORDER BY buy_date ASC, id ASC`,
		universeID, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying open lots for universe %d: %w", universeID, err)
	}
	defer rows.Close()

	var lots []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning open lot: %w", err)
		}
		lots = append(lots, *trade)
	}
	return lots, rows.Err()
}

// CloseLot marks an open lot fully sold.
func (s *Store) CloseLot(lotID int64, sell float64, sellDate string) error {
	res, err := s.DB.Exec(`UPDATE trades SET sell = ?, sell_date = ? WHERE id = ? AND sell = 0 AND sell_date IS NULL`,
		sell, sellDate, lotID)
	if err != nil {
		return fmt.Errorf("closing lot %d: %w", lotID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("closing lot %d: lot is not open", lotID)
	}
	return nil
}

// SplitLot sells soldQuantity shares out of an open lot: a new closed lot is
// created carrying the sold quantity at the parent's purchase terms, and the
// parent's quantity shrinks to the remainder, staying open. Both writes run
// in one transaction.
func (s *Store) SplitLot(lotID int64, soldQuantity, sell float64, sellDate string) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return fmt.Errorf("splitting lot %d: %w", lotID, err)
	}
	defer tx.Rollback()

	var universeID, accountID int64
	var buy, quantity float64
	var buyDate string
	err = tx.QueryRow(`SELECT universe_id, account_id, buy, buy_date, quantity
		FROM trades WHERE id = ? AND sell = 0 AND sell_date IS NULL`, lotID).
		Scan(&universeID, &accountID, &buy, &buyDate, &quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("splitting lot %d: lot is not open", lotID)
		}
		return fmt.Errorf("splitting lot %d: %w", lotID, err)
	}
	if soldQuantity <= 0 || soldQuantity >= quantity {
		return fmt.Errorf("splitting lot %d: sold quantity %v must be within (0, %v)", lotID, soldQuantity, quantity)
	}

	_, err = tx.Exec(`INSERT INTO trades (universe_id, account_id, buy, sell, buy_date, sell_date, quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		universeID, accountID, buy, sell, buyDate, sellDate, soldQuantity)
	if err != nil {
		return fmt.Errorf("splitting lot %d: inserting closed lot: %w", lotID, err)
	}
	_, err = tx.Exec(`UPDATE trades SET quantity = quantity - ? WHERE id = ?`, soldQuantity, lotID)
	if err != nil {
		return fmt.Errorf("splitting lot %d: shrinking lot: %w", lotID, err)
	}
	return tx.Commit()
}

// ListLots returns every lot ordered by buy date.
func (s *Store) ListLots() ([]models.Trade, error) {
	rows, err := s.DB.Query(`SELECT id, universe_id, account_id, buy, sell, buy_date, sell_date, quantity
		FROM trades ORDER BY buy_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying lots: %w", err)
	}
	defer rows.Close()

	var lots []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning lot: %w", err)
		}
		lots = append(lots, *trade)
	}
	return lots, rows.Err()
}

func scanTrade(scan func(dest ...interface{}) error) (*models.Trade, error) {
	var trade models.Trade
	var sellDate sql.NullString
	err := scan(&trade.ID, &trade.UniverseID, &trade.AccountID, &trade.Buy, &trade.Sell,
		&trade.BuyDate, &sellDate, &trade.Quantity)
	if err != nil {
		return nil, err
	}
	if sellDate.Valid {
		trade.SellDate = &sellDate.String
	}
	return &trade, nil
}
