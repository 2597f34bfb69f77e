package processors

import (
	"fmt"
	"strings"
	"time"

	"github.com/username/folioledger/backend/src/models"
)

const (
	txPurchase = "PURCHASE"
	txSale     = "SALE"
	txDividend = "DIVIDEND"
	txCash     = "CASH"
	txUnknown  = "UNKNOWN"
)

const exportDateFormat = "01/02/2006"

// TransactionMapper classifies parsed rows and resolves them against the
// reference store. Rows are processed strictly in input order: later rows may
// reference accounts created by earlier rows in the same batch.
type TransactionMapper struct {
	store              ReferenceStore
	cashEquivalents    map[string]bool
	defaultRiskGroupID int64
}

// NewTransactionMapper creates a mapper. cashEquivalentTickers lists the
// money-market sweep symbols whose buys and sells are treated as cash
// movements instead of security trades.
func NewTransactionMapper(store ReferenceStore, cashEquivalentTickers []string, defaultRiskGroupID int64) *TransactionMapper {
	cashEquivalents := make(map[string]bool, len(cashEquivalentTickers))
	for _, ticker := range cashEquivalentTickers {
		if t := strings.ToUpper(strings.TrimSpace(ticker)); t != "" {
			cashEquivalents[t] = true
		}
	}
	return &TransactionMapper{
		store:              store,
		cashEquivalents:    cashEquivalents,
		defaultRiskGroupID: defaultRiskGroupID,
	}
}

// IsCashEquivalent reports whether a ticker is on the cash-equivalent allowlist.
func (m *TransactionMapper) IsCashEquivalent(symbol string) bool {
	return m.cashEquivalents[strings.ToUpper(strings.TrimSpace(symbol))]
}

// mapRun holds the state of one mapping call. The account cache guarantees a
// single account is created at most once per file and avoids redundant store
// round-trips; it must not leak between calls.
type mapRun struct {
	accountIDs     map[string]int64
	depositTypeIDs map[string]int64
}

// Map classifies every row and resolves reference data, returning the four
// mapped categories. A resolution failure on any row rejects the whole batch;
// reference rows created for earlier rows stay committed (accepted tradeoff).
func (m *TransactionMapper) Map(rows []models.FidelityRow) (*models.MappedTransactions, error) {
	run := &mapRun{
		accountIDs:     make(map[string]int64),
		depositTypeIDs: make(map[string]int64),
	}
	mapped := &models.MappedTransactions{}
	for i, row := range rows {
		if err := m.mapRow(run, mapped, row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return mapped, nil
}

func (m *TransactionMapper) mapRow(run *mapRun, mapped *models.MappedTransactions, row models.FidelityRow) error {
	switch classifyAction(row.Action) {
	case txPurchase:
		if m.IsCashEquivalent(row.Symbol) {
			return m.mapCashMovement(run, mapped, row)
		}
		return m.mapPurchase(run, mapped, row)
	case txSale:
		if m.IsCashEquivalent(row.Symbol) {
			return m.mapCashMovement(run, mapped, row)
		}
		return m.mapSale(run, mapped, row)
	case txDividend:
		return m.mapDividend(run, mapped, row)
	case txCash:
		return m.mapCashMovement(run, mapped, row)
	default:
		mapped.Unknown = append(mapped.Unknown, models.UnknownTransaction{
			Date:   row.Date,
			Action: row.Action,
			Symbol: row.Symbol,
		})
		return nil
	}
}

// classifyAction scans the free-text action string. Real exports embed extra
// text around the recognized phrases (security names, "(Cash)" suffixes).
func classifyAction(action string) string {
	a := strings.ToUpper(action)
	switch {
	case strings.Contains(a, "YOU BOUGHT"),
		strings.Contains(a, "PURCHASE INTO CORE ACCOUNT"),
		strings.Contains(a, "REINVESTMENT"):
		return txPurchase
	case strings.Contains(a, "YOU SOLD"),
		strings.Contains(a, "REDEMPTION FROM CORE ACCOUNT"):
		return txSale
	case strings.Contains(a, "DIVIDEND RECEIVED"):
		return txDividend
	case strings.Contains(a, "ELECTRONIC FUNDS TRANSFER"):
		return txCash
	default:
		return txUnknown
	}
}

func (m *TransactionMapper) mapPurchase(run *mapRun, mapped *models.MappedTransactions, row models.FidelityRow) error {
	if row.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity %v on purchase of %s", ErrResolution, row.Quantity, row.Symbol)
	}
	date, err := parseExportDate(row.Date)
	if err != nil {
		return err
	}
	accountID, err := m.resolveAccount(run, row.Account)
	if err != nil {
		return err
	}
	universe, err := m.resolveUniverse(row.Symbol, true)
	if err != nil {
		return err
	}
	mapped.Trades = append(mapped.Trades, models.MappedTrade{
		UniverseID: universe.ID,
		AccountID:  accountID,
		Buy:        row.Price,
		Sell:       0,
		BuyDate:    date,
		Quantity:   row.Quantity,
	})
	return nil
}

func (m *TransactionMapper) mapSale(run *mapRun, mapped *models.MappedTransactions, row models.FidelityRow) error {
	date, err := parseExportDate(row.Date)
	if err != nil {
		return err
	}
	accountID, err := m.resolveAccount(run, row.Account)
	if err != nil {
		return err
	}
	universe, err := m.resolveUniverse(row.Symbol, false)
	if err != nil {
		return err
	}
	if universe == nil {
		// Sale of a symbol the universe has never seen: treat the proceeds
		// as a cash movement rather than inventing a security.
		return m.mapCashMovement(run, mapped, row)
	}
	mapped.Sales = append(mapped.Sales, models.MappedSale{
		UniverseID: universe.ID,
		AccountID:  accountID,
		Sell:       row.Price,
		SellDate:   date,
		Quantity:   row.Quantity,
	})
	return nil
}

func (m *TransactionMapper) mapDividend(run *mapRun, mapped *models.MappedTransactions, row models.FidelityRow) error {
	date, err := parseExportDate(row.Date)
	if err != nil {
		return err
	}
	accountID, err := m.resolveAccount(run, row.Account)
	if err != nil {
		return err
	}
	universe, err := m.resolveUniverse(row.Symbol, true)
	if err != nil {
		return err
	}
	typeID, err := m.resolveDepositType(run, models.DepositTypeDividend)
	if err != nil {
		return err
	}
	universeID := universe.ID
	mapped.DivDeposits = append(mapped.DivDeposits, models.MappedDivDeposit{
		Date:          date,
		Amount:        row.Amount,
		AccountID:     accountID,
		DepositTypeID: typeID,
		UniverseID:    &universeID,
	})
	return nil
}

func (m *TransactionMapper) mapCashMovement(run *mapRun, mapped *models.MappedTransactions, row models.FidelityRow) error {
	date, err := parseExportDate(row.Date)
	if err != nil {
		return err
	}
	accountID, err := m.resolveAccount(run, row.Account)
	if err != nil {
		return err
	}
	typeID, err := m.resolveDepositType(run, models.DepositTypeCashDeposit)
	if err != nil {
		return err
	}
	mapped.DivDeposits = append(mapped.DivDeposits, models.MappedDivDeposit{
		Date:          date,
		Amount:        row.Amount,
		AccountID:     accountID,
		DepositTypeID: typeID,
		UniverseID:    nil,
	})
	return nil
}

// resolveAccount matches account names case-sensitively, creating missing
// accounts on first encounter.
func (m *TransactionMapper) resolveAccount(run *mapRun, name string) (int64, error) {
	if id, ok := run.accountIDs[name]; ok {
		return id, nil
	}
	account, err := m.store.FindAccountByName(name)
	if err != nil {
		return 0, fmt.Errorf("%w: looking up account %q: %v", ErrResolution, name, err)
	}
	if account == nil {
		account, err = m.store.CreateAccount(name)
		if err != nil {
			return 0, fmt.Errorf("%w: creating account %q: %v", ErrResolution, name, err)
		}
	}
	run.accountIDs[name] = account.ID
	return account.ID, nil
}

// resolveUniverse looks up a symbol. With createMissing it auto-creates
// unknown symbols under the default risk group; otherwise it returns nil for
// the caller to decide.
func (m *TransactionMapper) resolveUniverse(symbol string, createMissing bool) (*models.UniverseEntry, error) {
	universe, err := m.store.FindUniverseBySymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: looking up symbol %q: %v", ErrResolution, symbol, err)
	}
	if universe != nil || !createMissing {
		return universe, nil
	}
	universe, err = m.store.CreateUniverseEntry(symbol, m.defaultRiskGroupID)
	if err != nil {
		return nil, fmt.Errorf("%w: creating symbol %q: %v", ErrResolution, symbol, err)
	}
	return universe, nil
}

func (m *TransactionMapper) resolveDepositType(run *mapRun, name string) (int64, error) {
	if id, ok := run.depositTypeIDs[name]; ok {
		return id, nil
	}
	depositType, err := m.store.FindDepositTypeByName(name)
	if err != nil {
		return 0, fmt.Errorf("%w: looking up deposit type %q: %v", ErrResolution, name, err)
	}
	if depositType == nil {
		depositType, err = m.store.CreateDepositType(name)
		if err != nil {
			return 0, fmt.Errorf("%w: creating deposit type %q: %v", ErrResolution, name, err)
		}
	}
	run.depositTypeIDs[name] = depositType.ID
	return depositType.ID, nil
}

// parseExportDate converts the export's MM/DD/YYYY dates to ISO form, which
// keeps lexical and chronological ordering identical in the store.
func parseExportDate(raw string) (string, error) {
	t, err := time.Parse(exportDateFormat, strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: invalid date %q, expected MM/DD/YYYY", ErrResolution, raw)
	}
	return t.Format("2006-01-02"), nil
}
