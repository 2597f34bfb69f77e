package services

import (
	"github.com/username/folioledger/backend/src/models"
)

// ImportService is the single inbound operation of the reconciliation core:
// one call processes one export file end to end. Format and resolution
// failures come back inside the result (Success false, one error), not as a
// returned error; the error return is reserved for unexpected infrastructure
// failures the caller should surface as a 500.
type ImportService interface {
	ImportTransactions(csvContent string) (*models.ImportResult, error)
	LatestImportResult() (*models.ImportResult, bool)
}
