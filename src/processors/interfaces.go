package processors

import (
	"errors"

	"github.com/username/folioledger/backend/src/models"
)

// ErrResolution marks a mapping failure: an account that cannot be created,
// a malformed date or a negative purchase quantity. Mapping is all-or-nothing,
// so any wrapped ErrResolution rejects the whole batch before reconciliation.
var ErrResolution = errors.New("transaction resolution failed")

// ReferenceStore resolves and creates the reference rows consulted while
// mapping raw transactions. Find methods return (nil, nil) when no row exists.
type ReferenceStore interface {
	FindAccountByName(name string) (*models.Account, error)
	CreateAccount(name string) (*models.Account, error)
	FindUniverseBySymbol(symbol string) (*models.UniverseEntry, error)
	CreateUniverseEntry(symbol string, riskGroupID int64) (*models.UniverseEntry, error)
	FindDepositTypeByName(name string) (*models.DepositType, error)
	CreateDepositType(name string) (*models.DepositType, error)
}

// LedgerStore is the persistence boundary for lots and deposits. Find methods
// return (nil, nil) when no row matches.
type LedgerStore interface {
	FindTradeExact(t models.MappedTrade) (*models.Trade, error)
	CreateTrade(t models.MappedTrade) (*models.Trade, error)
	// FindOpenLots returns open lots for one universe/account ordered by
	// buy date ascending, which defines FIFO precedence.
	FindOpenLots(universeID, accountID int64) ([]models.Trade, error)
	CloseLot(lotID int64, sell float64, sellDate string) error
	// SplitLot creates a closed child lot carrying soldQuantity at the
	// parent's purchase terms and shrinks the parent by the same amount.
	SplitLot(lotID int64, soldQuantity, sell float64, sellDate string) error
	FindDepositExact(d models.MappedDivDeposit) (*models.DivDeposit, error)
	CreateDeposit(d models.MappedDivDeposit) (*models.DivDeposit, error)
}

// NameStore resolves ids back to display names for error messages.
type NameStore interface {
	AccountName(id int64) (string, error)
	UniverseSymbol(id int64) (string, error)
}
