package model

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioledger/backend/src/models"
	_ "modernc.org/sqlite"
)

// newTestStore opens an in-memory database and applies the migration schema.
// A single connection keeps the in-memory database alive for the whole test.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../db/migrations/000001_init_schema.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return NewStore(db)
}

func seedReference(t *testing.T, store *Store) (accountID, universeID int64) {
	t.Helper()
	account, err := store.CreateAccount("My Brokerage")
	require.NoError(t, err)
	universe, err := store.CreateUniverseEntry("SPY", 1)
	require.NoError(t, err)
	return account.ID, universe.ID
}

func TestAccountFindAndCreate(t *testing.T) {
	store := newTestStore(t)

	missing, err := store.FindAccountByName("My Brokerage")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := store.CreateAccount("My Brokerage")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := store.FindAccountByName("My Brokerage")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	// Lookups are case-sensitive.
	other, err := store.FindAccountByName("MY BROKERAGE")
	require.NoError(t, err)
	assert.Nil(t, other)

	name, err := store.AccountName(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "My Brokerage", name)
}

func TestUniverseFindAndCreate(t *testing.T) {
	store := newTestStore(t)

	missing, err := store.FindUniverseBySymbol("SPY")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := store.CreateUniverseEntry("SPY", 1)
	require.NoError(t, err)

	found, err := store.FindUniverseBySymbol("SPY")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, int64(1), found.RiskGroupID)

	symbol, err := store.UniverseSymbol(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "SPY", symbol)
}

func TestDepositTypeFindAndCreate(t *testing.T) {
	store := newTestStore(t)

	missing, err := store.FindDepositTypeByName(models.DepositTypeDividend)
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := store.CreateDepositType(models.DepositTypeDividend)
	require.NoError(t, err)

	found, err := store.FindDepositTypeByName(models.DepositTypeDividend)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestTradeExactMatch(t *testing.T) {
	store := newTestStore(t)
	accountID, universeID := seedReference(t, store)

	mapped := models.MappedTrade{
		UniverseID: universeID,
		AccountID:  accountID,
		Buy:        450.25,
		BuyDate:    "2026-02-15",
		Quantity:   10,
	}

	missing, err := store.FindTradeExact(mapped)
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := store.CreateTrade(mapped)
	require.NoError(t, err)
	assert.True(t, created.IsOpen())

	found, err := store.FindTradeExact(mapped)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	// Any differing field breaks the match.
	different := mapped
	different.Quantity = 11
	miss, err := store.FindTradeExact(different)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestFindOpenLotsOrdering(t *testing.T) {
	store := newTestStore(t)
	accountID, universeID := seedReference(t, store)

	newer, err := store.CreateTrade(models.MappedTrade{
		UniverseID: universeID, AccountID: accountID, Buy: 455, BuyDate: "2026-02-20", Quantity: 60,
	})
	require.NoError(t, err)
	older, err := store.CreateTrade(models.MappedTrade{
		UniverseID: universeID, AccountID: accountID, Buy: 440, BuyDate: "2026-01-10", Quantity: 40,
	})
	require.NoError(t, err)
	closed, err := store.CreateTrade(models.MappedTrade{
		UniverseID: universeID, AccountID: accountID, Buy: 430, BuyDate: "2025-12-01", Quantity: 25,
	})
	require.NoError(t, err)
	require.NoError(t, store.CloseLot(closed.ID, 445, "2026-01-05"))

	lots, err := store.FindOpenLots(universeID, accountID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, older.ID, lots[0].ID)
	assert.Equal(t, newer.ID, lots[1].ID)
}

func TestCloseLot(t *testing.T) {
	store := newTestStore(t)
	accountID, universeID := seedReference(t, store)

	lot, err := store.CreateTrade(models.MappedTrade{
		UniverseID: universeID, AccountID: accountID, Buy: 450.25, BuyDate: "2026-02-15", Quantity: 10,
	})
	require.NoError(t, err)

	require.NoError(t, store.CloseLot(lot.ID, 470, "2026-03-10"))

	lots, err := store.ListLots()
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.False(t, lots[0].IsOpen())
	assert.Equal(t, 470.0, lots[0].Sell)
	require.NotNil(t, lots[0].SellDate)
	assert.Equal(t, "2026-03-10", *lots[0].SellDate)

	// Closing an already-closed lot fails.
	err = store.CloseLot(lot.ID, 480, "2026-03-11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not open")
}

func TestSplitLot(t *testing.T) {
	store := newTestStore(t)
	accountID, universeID := seedReference(t, store)

	lot, err := store.CreateTrade(models.MappedTrade{
		UniverseID: universeID, AccountID: accountID, Buy: 450, BuyDate: "2026-02-15", Quantity: 100,
	})
	require.NoError(t, err)

	require.NoError(t, store.SplitLot(lot.ID, 40, 470, "2026-03-10"))

	lots, err := store.ListLots()
	require.NoError(t, err)
	require.Len(t, lots, 2)

	var parent, child models.Trade
	for _, l := range lots {
		if l.ID == lot.ID {
			parent = l
		} else {
			child = l
		}
	}

	assert.True(t, parent.IsOpen())
	assert.Equal(t, 60.0, parent.Quantity)

	assert.False(t, child.IsOpen())
	assert.Equal(t, 40.0, child.Quantity)
	assert.Equal(t, 450.0, child.Buy)
	assert.Equal(t, "2026-02-15", child.BuyDate)
	assert.Equal(t, 470.0, child.Sell)
	require.NotNil(t, child.SellDate)
	assert.Equal(t, "2026-03-10", *child.SellDate)
}

func TestSplitLotRejectsInvalidQuantities(t *testing.T) {
	store := newTestStore(t)
	accountID, universeID := seedReference(t, store)

	lot, err := store.CreateTrade(models.MappedTrade{
		UniverseID: universeID, AccountID: accountID, Buy: 450, BuyDate: "2026-02-15", Quantity: 100,
	})
	require.NoError(t, err)

	// A full-quantity sale must use CloseLot, not SplitLot.
	require.Error(t, store.SplitLot(lot.ID, 100, 470, "2026-03-10"))
	require.Error(t, store.SplitLot(lot.ID, 0, 470, "2026-03-10"))
	require.Error(t, store.SplitLot(lot.ID, -5, 470, "2026-03-10"))

	// A failed split leaves the lot untouched.
	lots, err := store.FindOpenLots(universeID, accountID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, 100.0, lots[0].Quantity)
}

func TestSplitLotRequiresOpenLot(t *testing.T) {
	store := newTestStore(t)
	accountID, universeID := seedReference(t, store)

	lot, err := store.CreateTrade(models.MappedTrade{
		UniverseID: universeID, AccountID: accountID, Buy: 450, BuyDate: "2026-02-15", Quantity: 100,
	})
	require.NoError(t, err)
	require.NoError(t, store.CloseLot(lot.ID, 470, "2026-03-10"))

	err = store.SplitLot(lot.ID, 40, 480, "2026-03-11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not open")
}

func TestDepositExactMatchWithNullUniverse(t *testing.T) {
	store := newTestStore(t)
	accountID, universeID := seedReference(t, store)
	depositType, err := store.CreateDepositType(models.DepositTypeDividend)
	require.NoError(t, err)

	withUniverse := models.MappedDivDeposit{
		Date:          "2026-03-20",
		Amount:        52.13,
		AccountID:     accountID,
		DepositTypeID: depositType.ID,
		UniverseID:    &universeID,
	}
	withoutUniverse := withUniverse
	withoutUniverse.UniverseID = nil

	_, err = store.CreateDeposit(withUniverse)
	require.NoError(t, err)

	// The NULL-universe variant does not match the security-tied row.
	missing, err := store.FindDepositExact(withoutUniverse)
	require.NoError(t, err)
	assert.Nil(t, missing)

	found, err := store.FindDepositExact(withUniverse)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.UniverseID)
	assert.Equal(t, universeID, *found.UniverseID)

	_, err = store.CreateDeposit(withoutUniverse)
	require.NoError(t, err)

	foundNull, err := store.FindDepositExact(withoutUniverse)
	require.NoError(t, err)
	require.NotNil(t, foundNull)
	assert.Nil(t, foundNull.UniverseID)

	deposits, err := store.ListDeposits()
	require.NoError(t, err)
	assert.Len(t, deposits, 2)
}

func TestUserCreateAndLookup(t *testing.T) {
	store := newTestStore(t)

	missing, err := GetUserByUsername(store.DB, "alice")
	require.NoError(t, err)
	assert.Nil(t, missing)

	user := &User{Username: "alice", Password: "hashed-password"}
	require.NoError(t, user.Create(store.DB))
	assert.NotZero(t, user.ID)

	found, err := GetUserByUsername(store.DB, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hashed-password", found.Password)
}
