package processors

import (
	"fmt"
	"sort"

	"github.com/username/folioledger/backend/src/models"
)

// fakeStore is an in-memory ReferenceStore and LedgerStore for mapper and
// reconciler tests.
type fakeStore struct {
	accounts     []models.Account
	universe     []models.UniverseEntry
	depositTypes []models.DepositType
	trades       []models.Trade
	deposits     []models.DivDeposit
	nextID       int64

	accountLookups    int
	failCreateAccount bool
	failFindOpenLots  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) FindAccountByName(name string) (*models.Account, error) {
	s.accountLookups++
	for _, a := range s.accounts {
		if a.Name == name {
			account := a
			return &account, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateAccount(name string) (*models.Account, error) {
	if s.failCreateAccount {
		return nil, fmt.Errorf("disk full")
	}
	account := models.Account{ID: s.id(), Name: name}
	s.accounts = append(s.accounts, account)
	return &account, nil
}

func (s *fakeStore) FindUniverseBySymbol(symbol string) (*models.UniverseEntry, error) {
	for _, u := range s.universe {
		if u.Symbol == symbol {
			entry := u
			return &entry, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateUniverseEntry(symbol string, riskGroupID int64) (*models.UniverseEntry, error) {
	entry := models.UniverseEntry{ID: s.id(), Symbol: symbol, RiskGroupID: riskGroupID}
	s.universe = append(s.universe, entry)
	return &entry, nil
}

func (s *fakeStore) FindDepositTypeByName(name string) (*models.DepositType, error) {
	for _, dt := range s.depositTypes {
		if dt.Name == name {
			depositType := dt
			return &depositType, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateDepositType(name string) (*models.DepositType, error) {
	depositType := models.DepositType{ID: s.id(), Name: name}
	s.depositTypes = append(s.depositTypes, depositType)
	return &depositType, nil
}

func (s *fakeStore) FindTradeExact(t models.MappedTrade) (*models.Trade, error) {
	for _, trade := range s.trades {
		if trade.UniverseID == t.UniverseID && trade.AccountID == t.AccountID &&
			trade.Buy == t.Buy && trade.BuyDate == t.BuyDate && trade.Quantity == t.Quantity {
			found := trade
			return &found, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateTrade(t models.MappedTrade) (*models.Trade, error) {
	trade := models.Trade{
		ID:         s.id(),
		UniverseID: t.UniverseID,
		AccountID:  t.AccountID,
		Buy:        t.Buy,
		BuyDate:    t.BuyDate,
		Quantity:   t.Quantity,
	}
	s.trades = append(s.trades, trade)
	return &trade, nil
}

func (s *fakeStore) FindOpenLots(universeID, accountID int64) ([]models.Trade, error) {
	if s.failFindOpenLots {
		return nil, fmt.Errorf("database is locked")
	}
	var lots []models.Trade
	for _, trade := range s.trades {
		if trade.UniverseID == universeID && trade.AccountID == accountID && trade.IsOpen() {
			lots = append(lots, trade)
		}
	}
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].BuyDate != lots[j].BuyDate {
			return lots[i].BuyDate < lots[j].BuyDate
		}
		return lots[i].ID < lots[j].ID
	})
	return lots, nil
}

func (s *fakeStore) CloseLot(lotID int64, sell float64, sellDate string) error {
	for i := range s.trades {
		if s.trades[i].ID == lotID {
			if !s.trades[i].IsOpen() {
				return fmt.Errorf("lot %d is not open", lotID)
			}
			date := sellDate
			s.trades[i].Sell = sell
			s.trades[i].SellDate = &date
			return nil
		}
	}
	return fmt.Errorf("lot %d not found", lotID)
}

func (s *fakeStore) SplitLot(lotID int64, soldQuantity, sell float64, sellDate string) error {
	for i := range s.trades {
		if s.trades[i].ID == lotID {
			parent := &s.trades[i]
			if !parent.IsOpen() {
				return fmt.Errorf("lot %d is not open", lotID)
			}
			if soldQuantity <= 0 || soldQuantity >= parent.Quantity {
				return fmt.Errorf("invalid split quantity %v for lot %d", soldQuantity, lotID)
			}
			date := sellDate
			s.trades = append(s.trades, models.Trade{
				ID:         s.id(),
				UniverseID: parent.UniverseID,
				AccountID:  parent.AccountID,
				Buy:        parent.Buy,
				Sell:       sell,
				BuyDate:    parent.BuyDate,
				SellDate:   &date,
				Quantity:   soldQuantity,
			})
			s.trades[i].Quantity -= soldQuantity
			return nil
		}
	}
	return fmt.Errorf("lot %d not found", lotID)
}

func (s *fakeStore) FindDepositExact(d models.MappedDivDeposit) (*models.DivDeposit, error) {
	for _, deposit := range s.deposits {
		if deposit.Date == d.Date && deposit.Amount == d.Amount &&
			deposit.AccountID == d.AccountID && deposit.DepositTypeID == d.DepositTypeID &&
			sameUniverseRef(deposit.UniverseID, d.UniverseID) {
			found := deposit
			return &found, nil
		}
	}
	return nil, nil
}

func sameUniverseRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *fakeStore) CreateDeposit(d models.MappedDivDeposit) (*models.DivDeposit, error) {
	deposit := models.DivDeposit{
		ID:            s.id(),
		Date:          d.Date,
		Amount:        d.Amount,
		AccountID:     d.AccountID,
		DepositTypeID: d.DepositTypeID,
		UniverseID:    d.UniverseID,
	}
	s.deposits = append(s.deposits, deposit)
	return &deposit, nil
}

func (s *fakeStore) AccountName(id int64) (string, error) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a.Name, nil
		}
	}
	return "", fmt.Errorf("account %d not found", id)
}

func (s *fakeStore) UniverseSymbol(id int64) (string, error) {
	for _, u := range s.universe {
		if u.ID == id {
			return u.Symbol, nil
		}
	}
	return "", fmt.Errorf("universe entry %d not found", id)
}

// seedAccount and friends pre-populate reference data without going through
// the mapper.
func (s *fakeStore) seedAccount(name string) models.Account {
	account := models.Account{ID: s.id(), Name: name}
	s.accounts = append(s.accounts, account)
	return account
}

func (s *fakeStore) seedUniverse(symbol string) models.UniverseEntry {
	entry := models.UniverseEntry{ID: s.id(), Symbol: symbol, RiskGroupID: 1}
	s.universe = append(s.universe, entry)
	return entry
}

func (s *fakeStore) seedOpenLot(universeID, accountID int64, buy float64, buyDate string, quantity float64) models.Trade {
	trade := models.Trade{
		ID:         s.id(),
		UniverseID: universeID,
		AccountID:  accountID,
		Buy:        buy,
		BuyDate:    buyDate,
		Quantity:   quantity,
	}
	s.trades = append(s.trades, trade)
	return trade
}

func (s *fakeStore) lotByID(id int64) (models.Trade, bool) {
	for _, trade := range s.trades {
		if trade.ID == id {
			return trade, true
		}
	}
	return models.Trade{}, false
}
