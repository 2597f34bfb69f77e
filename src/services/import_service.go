package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/parsers/fidelity"
	"github.com/username/folioledger/backend/src/processors"
)

const (
	ckLatestImportResult   = "agg_latest_import_result"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type importServiceImpl struct {
	parser      *fidelity.FidelityParser
	mapper      *processors.TransactionMapper
	reconciler  *processors.LedgerReconciler
	names       processors.NameStore
	reportCache *cache.Cache
}

func NewImportService(
	parser *fidelity.FidelityParser,
	mapper *processors.TransactionMapper,
	reconciler *processors.LedgerReconciler,
	names processors.NameStore,
	reportCache *cache.Cache,
) ImportService {
	return &importServiceImpl{
		parser:      parser,
		mapper:      mapper,
		reconciler:  reconciler,
		names:       names,
		reportCache: reportCache,
	}
}

// ImportTransactions runs the import pipeline: parse, map, reconcile. A parse
// or mapping failure rejects the batch with a single error before any ledger
// write; reconciliation failures are per-item and never abort the batch.
func (s *importServiceImpl) ImportTransactions(csvContent string) (*models.ImportResult, error) {
	start := time.Now()
	logger.L.Info("ImportTransactions START", "contentBytes", len(csvContent))

	rows, err := s.parser.Parse(strings.NewReader(csvContent))
	if err != nil {
		logger.L.Warn("CSV parsing failed", "error", err)
		return s.finish(rejected(err)), nil
	}
	if len(rows) == 0 {
		logger.L.Info("Import contained no data rows")
		return s.finish(&models.ImportResult{
			Success:  true,
			Imported: 0,
			Errors:   []string{},
			Warnings: []string{},
		}), nil
	}

	mapped, err := s.mapper.Map(rows)
	if err != nil {
		logger.L.Warn("Transaction mapping failed", "error", err)
		return s.finish(rejected(err)), nil
	}

	recon := s.reconciler.Reconcile(mapped)

	result := &models.ImportResult{
		Imported: recon.Imported,
		Errors:   recon.Errors,
		Warnings: recon.Warnings,
	}
	for _, failure := range recon.SaleFailures {
		result.Errors = append(result.Errors, s.describeSaleFailure(failure))
	}
	result.Success = len(result.Errors) == 0
	if result.Errors == nil {
		result.Errors = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}

	logger.L.Info("ImportTransactions END",
		"success", result.Success,
		"imported", result.Imported,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"duration", time.Since(start))
	return s.finish(result), nil
}

// LatestImportResult returns the most recent import result, if one is cached.
func (s *importServiceImpl) LatestImportResult() (*models.ImportResult, bool) {
	if cached, found := s.reportCache.Get(ckLatestImportResult); found {
		return cached.(*models.ImportResult), true
	}
	return nil, false
}

func (s *importServiceImpl) finish(result *models.ImportResult) *models.ImportResult {
	s.reportCache.Set(ckLatestImportResult, result, DefaultCacheExpiration)
	return result
}

// describeSaleFailure turns a structured sale failure into a user-facing
// message, resolving ids to names. Name lookups are best-effort: a failed
// lookup falls back to the raw id rather than masking the original failure.
func (s *importServiceImpl) describeSaleFailure(f processors.SaleFailure) string {
	symbol := fmt.Sprintf("universe entry %d", f.UniverseID)
	if resolved, err := s.names.UniverseSymbol(f.UniverseID); err == nil {
		symbol = resolved
	} else {
		logger.L.Warn("Could not resolve universe symbol for sale failure", "universeID", f.UniverseID, "error", err)
	}
	account := fmt.Sprintf("account %d", f.AccountID)
	if resolved, err := s.names.AccountName(f.AccountID); err == nil {
		account = resolved
	} else {
		logger.L.Warn("Could not resolve account name for sale failure", "accountID", f.AccountID, "error", err)
	}
	return fmt.Sprintf("sale import: no open lots for %s in %s (attempted to sell %s shares)",
		symbol, account, strconv.FormatFloat(f.Quantity, 'f', -1, 64))
}

// rejected builds the short-circuit result for a batch refused before any
// persistence.
func rejected(err error) *models.ImportResult {
	return &models.ImportResult{
		Success:  false,
		Imported: 0,
		Errors:   []string{err.Error()},
		Warnings: []string{},
	}
}
