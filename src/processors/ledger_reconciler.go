package processors

import (
	"fmt"
	"math"

	"github.com/username/folioledger/backend/src/models"
)

// qtyEpsilon guards the floating-point quantity accumulation in multi-lot
// consumption. Share counts in exports carry at most three decimals.
const qtyEpsilon = 1e-9

// SaleFailure records a sale that found no (or not enough) open lots. It
// carries ids only; the orchestrator resolves them to display names.
type SaleFailure struct {
	UniverseID int64
	AccountID  int64
	Quantity   float64
}

// ReconcileResult aggregates one reconciliation pass. Imported counts
// purchases, sales and deposits successfully processed, including idempotent
// skips.
type ReconcileResult struct {
	Imported     int
	Errors       []string
	Warnings     []string
	SaleFailures []SaleFailure
}

// LedgerReconciler persists mapped transactions with per-item error
// isolation: one failing item never prevents the others from being attempted.
type LedgerReconciler struct {
	store LedgerStore
}

func NewLedgerReconciler(store LedgerStore) *LedgerReconciler {
	return &LedgerReconciler{store: store}
}

// Reconcile applies all four mapped categories against the ledger.
func (r *LedgerReconciler) Reconcile(mapped *models.MappedTransactions) *ReconcileResult {
	result := &ReconcileResult{}
	r.processTrades(mapped.Trades, result)
	r.processSales(mapped.Sales, result)
	r.processDeposits(mapped.DivDeposits, result)
	for _, u := range mapped.Unknown {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Unknown transaction type %q for symbol %s on %s", u.Action, u.Symbol, u.Date))
	}
	return result
}

// processTrades inserts purchase lots. A lot identical in universe, account,
// buy price, buy date and quantity is skipped so that re-importing the same
// file never duplicates the ledger.
func (r *LedgerReconciler) processTrades(trades []models.MappedTrade, result *ReconcileResult) {
	for _, trade := range trades {
		existing, err := r.store.FindTradeExact(trade)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("trade import: %v", err))
			continue
		}
		if existing != nil {
			result.Imported++
			continue
		}
		if _, err := r.store.CreateTrade(trade); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("trade import: %v", err))
			continue
		}
		result.Imported++
	}
}

// processSales matches each sale against open lots oldest-first. An open lot
// whose quantity equals the sale exactly is closed in place; otherwise lots
// are consumed cumulatively, closing full lots and splitting at most the
// final, partially-consumed one.
func (r *LedgerReconciler) processSales(sales []models.MappedSale, result *ReconcileResult) {
	for _, sale := range sales {
		quantity := math.Abs(sale.Quantity)

		lots, err := r.store.FindOpenLots(sale.UniverseID, sale.AccountID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("sale import: %v", err))
			continue
		}

		totalOpen := 0.0
		for _, lot := range lots {
			totalOpen += lot.Quantity
		}
		if totalOpen+qtyEpsilon < quantity {
			// Covers the zero-open-lots case too. Checked up front so a
			// doomed sale closes nothing before failing.
			result.SaleFailures = append(result.SaleFailures, SaleFailure{
				UniverseID: sale.UniverseID,
				AccountID:  sale.AccountID,
				Quantity:   quantity,
			})
			continue
		}

		if lot, ok := findExactLot(lots, quantity); ok {
			if err := r.store.CloseLot(lot.ID, sale.Sell, sale.SellDate); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("sale import: %v", err))
				continue
			}
			result.Imported++
			continue
		}

		if err := r.consumeLots(lots, quantity, sale); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("sale import: %v", err))
			continue
		}
		result.Imported++
	}
}

// findExactLot returns the oldest open lot whose quantity matches the sale
// exactly, which closes without a split.
func findExactLot(lots []models.Trade, quantity float64) (models.Trade, bool) {
	for _, lot := range lots {
		if lot.Quantity == quantity {
			return lot, true
		}
	}
	return models.Trade{}, false
}

// consumeLots walks lots in FIFO order until the sale quantity is exhausted.
func (r *LedgerReconciler) consumeLots(lots []models.Trade, quantity float64, sale models.MappedSale) error {
	remaining := quantity
	for _, lot := range lots {
		if remaining <= qtyEpsilon {
			break
		}
		if lot.Quantity <= remaining+qtyEpsilon {
			if err := r.store.CloseLot(lot.ID, sale.Sell, sale.SellDate); err != nil {
				return err
			}
			remaining -= lot.Quantity
			continue
		}
		if err := r.store.SplitLot(lot.ID, remaining, sale.Sell, sale.SellDate); err != nil {
			return err
		}
		remaining = 0
	}
	return nil
}

// processDeposits inserts dividend and cash movement rows with the same
// exact-match idempotency as purchases.
func (r *LedgerReconciler) processDeposits(deposits []models.MappedDivDeposit, result *ReconcileResult) {
	for _, deposit := range deposits {
		existing, err := r.store.FindDepositExact(deposit)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("deposit import: %v", err))
			continue
		}
		if existing != nil {
			result.Imported++
			continue
		}
		if _, err := r.store.CreateDeposit(deposit); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("deposit import: %v", err))
			continue
		}
		result.Imported++
	}
}
