package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/model"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/utils"
)

type LedgerHandler struct {
	store *model.Store
}

func NewLedgerHandler(store *model.Store) *LedgerHandler {
	return &LedgerHandler{store: store}
}

// HandleGetLots lists every lot, open and closed, ordered by buy date.
func (h *LedgerHandler) HandleGetLots(w http.ResponseWriter, r *http.Request) {
	lots, err := h.store.ListLots()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list lots", "error", err)
		utils.SendJSONError(w, "Failed to retrieve lots", http.StatusInternalServerError)
		return
	}
	if lots == nil {
		lots = []models.Trade{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lots)
}

// HandleGetDeposits lists every dividend and cash movement ordered by date.
func (h *LedgerHandler) HandleGetDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := h.store.ListDeposits()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list deposits", "error", err)
		utils.SendJSONError(w, "Failed to retrieve deposits", http.StatusInternalServerError)
		return
	}
	if deposits == nil {
		deposits = []models.DivDeposit{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deposits)
}
