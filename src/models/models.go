package models

// FidelityRow holds the typed values from a single data row of a Fidelity
// activity export. Dates stay in the export's MM/DD/YYYY form until mapping.
type FidelityRow struct {
	Date        string  `json:"date"`
	Account     string  `json:"account"`
	Action      string  `json:"action"`
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Amount      float64 `json:"amount"` // signed total for the row
}

// MappedTrade is a purchase intent resolved against reference data.
type MappedTrade struct {
	UniverseID int64   `json:"universe_id"`
	AccountID  int64   `json:"account_id"`
	Buy        float64 `json:"buy"`
	Sell       float64 `json:"sell"` // always 0 for a new purchase lot
	BuyDate    string  `json:"buy_date"` // YYYY-MM-DD
	Quantity   float64 `json:"quantity"`
}

// MappedSale is a sale intent. Quantity keeps the sign carried through from
// the source row; the reconciler works with its absolute value.
type MappedSale struct {
	UniverseID int64   `json:"universe_id"`
	AccountID  int64   `json:"account_id"`
	Sell       float64 `json:"sell"`
	SellDate   string  `json:"sell_date"` // YYYY-MM-DD
	Quantity   float64 `json:"quantity"`
}

// MappedDivDeposit is a dividend or cash movement intent. A nil UniverseID
// marks a pure cash movement not tied to a security.
type MappedDivDeposit struct {
	Date          string  `json:"date"` // YYYY-MM-DD
	Amount        float64 `json:"amount"`
	AccountID     int64   `json:"account_id"`
	DepositTypeID int64   `json:"deposit_type_id"`
	UniverseID    *int64  `json:"universe_id"`
}

// UnknownTransaction is a passthrough of a row whose action string matched no
// recognized pattern. Surfaced as a warning, never persisted.
type UnknownTransaction struct {
	Date   string `json:"date"`
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

// MappedTransactions groups the output of one mapping call.
type MappedTransactions struct {
	Trades      []MappedTrade
	Sales       []MappedSale
	DivDeposits []MappedDivDeposit
	Unknown     []UnknownTransaction
}

// ImportResult is returned to the caller of an import.
type ImportResult struct {
	Success  bool     `json:"success"`
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Account is a brokerage account, unique by name.
type Account struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UniverseEntry is a tradable symbol in the universe table.
type UniverseEntry struct {
	ID          int64  `json:"id"`
	Symbol      string `json:"symbol"`
	RiskGroupID int64  `json:"risk_group_id"`
}

// DepositType categorizes div_deposit rows.
type DepositType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Deposit type names created lazily on first use.
const (
	DepositTypeDividend    = "Dividend"
	DepositTypeCashDeposit = "Cash Deposit"
)

// Trade is a persisted lot. An open lot has Sell == 0 and SellDate == nil;
// a closed lot has both set. Quantity is the number of shares still attached
// to the record and may shrink when a partial sale splits the lot.
type Trade struct {
	ID         int64   `json:"id"`
	UniverseID int64   `json:"universe_id"`
	AccountID  int64   `json:"account_id"`
	Buy        float64 `json:"buy"`
	Sell       float64 `json:"sell"`
	BuyDate    string  `json:"buy_date"`
	SellDate   *string `json:"sell_date"`
	Quantity   float64 `json:"quantity"`
}

// IsOpen reports whether the lot has not been sold yet.
func (t Trade) IsOpen() bool {
	return t.Sell == 0 && t.SellDate == nil
}

// DivDeposit is a persisted dividend or cash movement.
type DivDeposit struct {
	ID            int64   `json:"id"`
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	AccountID     int64   `json:"account_id"`
	DepositTypeID int64   `json:"deposit_type_id"`
	UniverseID    *int64  `json:"universe_id"`
}
