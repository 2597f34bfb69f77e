package model

import (
	"database/sql"
)

// Store bundles the SQLite-backed persistence operations the import pipeline
// depends on. It satisfies the processors.ReferenceStore, processors.LedgerStore
// and processors.NameStore interfaces.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}
