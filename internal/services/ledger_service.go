package services

import (
	"context"
	"strconv"
	"time"

	"lynkledger/internal/db"
	"lynkledger/internal/events"
	"lynkledger/internal/logger"
	"lynkledger/internal/models"
	"lynkledger/internal/money"
	"lynkledger/internal/store"
	"lynkledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerService owns the transaction lifecycle. Cached account balances are
// written only by Post.
type LedgerService struct {
	txRunner     db.TxRunner
	accounts     AccountStore
	ledger       LedgerStore
	transactions TransactionStore
	audit        AuditStore
	hub          BalanceHub
	publisher    events.Publisher
	log          zerolog.Logger
}

func NewLedgerService(txRunner db.TxRunner, accounts AccountStore, ledger LedgerStore, transactions TransactionStore, audit AuditStore, hub BalanceHub, publisher events.Publisher) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		accounts:     accounts,
		ledger:       ledger,
		transactions: transactions,
		audit:        audit,
		hub:          hub,
		publisher:    publisher,
		log:          logger.WithComponent("ledger"),
	}
}

type CreateTransactionRequest struct {
	OrganizationID    string
	ActorID           string
	Date              time.Time
	Description       string
	Reference         string
	Tags              models.Tags
	IsRecurring       bool
	RecurrenceType    string
	RecurrenceEndDate *time.Time
	Entries           models.Entries
}

func (s *LedgerService) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (models.Transaction, error) {
	if req.Date.IsZero() {
		return models.Transaction{}, invalid("date", "is required")
	}
	t := models.Transaction{
		ID:                uuid.NewString(),
		OrganizationID:    req.OrganizationID,
		Date:              req.Date,
		Description:       req.Description,
		Reference:         req.Reference,
		Status:            models.TransactionDraft,
		IsRecurring:       req.IsRecurring,
		RecurrenceType:    req.RecurrenceType,
		RecurrenceEndDate: req.RecurrenceEndDate,
		Tags:              req.Tags,
		CreatedBy:         req.ActorID,
	}
	if t.Tags == nil {
		t.Tags = models.Tags{}
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		entries, err := s.prepareEntries(ctx, tx, req.OrganizationID, t.ID, req.Entries)
		if err != nil {
			return err
		}
		if err := s.transactions.Create(ctx, tx, t); err != nil {
			return err
		}
		if err := s.ledger.InsertEntries(ctx, tx, entries); err != nil {
			return err
		}
		t.Entries = entries
		return s.audit.Log(ctx, tx, t.OrganizationID, req.ActorID, "transaction.create", "transaction", t.ID, auditData(map[string]string{
			"entries": strconv.Itoa(len(entries)),
		}))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.log.Info().Str("organization_id", t.OrganizationID).Str("transaction_id", t.ID).Msg("transaction created")
	return t, nil
}

// prepareEntries fills entry defaults, validates the legs and the zero-sum
// rule, and checks every account inside q.
func (s *LedgerService) prepareEntries(ctx context.Context, q store.Selecter, orgID, transactionID string, input models.Entries) (models.Entries, error) {
	entries := make(models.Entries, len(input))
	copy(entries, input)
	for i := range entries {
		entries[i].ID = uuid.NewString()
		entries[i].TransactionID = transactionID
		entries[i].Reconciled = false
		entries[i].ReconciledDate = nil
		if entries[i].ExchangeRate.IsZero() {
			entries[i].ExchangeRate = decimal.NewFromInt(1)
		}
	}
	if err := entries.Validate(); err != nil {
		return nil, err
	}
	accounts, err := orgAccounts(ctx, q, s.accounts, orgID, entries.AccountIDs(), true)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Currency == "" {
			entries[i].Currency = accounts[entries[i].AccountID].Currency
		}
	}
	return entries, nil
}

// ReplaceEntries swaps every entry of a draft transaction.
func (s *LedgerService) ReplaceEntries(ctx context.Context, orgID, actorID, transactionID string, input models.Entries) (models.Transaction, error) {
	var t models.Transaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		t, err = s.transactions.GetForUpdate(ctx, tx, orgID, transactionID)
		if err != nil {
			return notFound(err, "transaction")
		}
		if t.Status != models.TransactionDraft {
			return &models.TransitionError{Entity: "transaction", From: string(t.Status), To: "edited"}
		}
		entries, err := s.prepareEntries(ctx, tx, orgID, t.ID, input)
		if err != nil {
			return err
		}
		if err := s.ledger.DeleteByTransaction(ctx, tx, t.ID); err != nil {
			return err
		}
		if err := s.ledger.InsertEntries(ctx, tx, entries); err != nil {
			return err
		}
		if err := s.transactions.Touch(ctx, tx, t.ID); err != nil {
			return err
		}
		t.Entries = entries
		return s.audit.Log(ctx, tx, orgID, actorID, "transaction.entries", "transaction", t.ID, "")
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, orgID, transactionID string) (models.Transaction, error) {
	t, err := s.transactions.GetByID(ctx, orgID, transactionID)
	if err != nil {
		return models.Transaction{}, notFound(err, "transaction")
	}
	t.Entries, err = s.ledger.Entries(ctx, t.ID)
	if err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, orgID string, filter store.TransactionFilter) ([]models.Transaction, error) {
	if filter.Status != "" && !models.TransactionStatus(filter.Status).Valid() {
		return nil, invalid("status", "unknown transaction status")
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.transactions.List(ctx, orgID, filter)
}

func (s *LedgerService) Submit(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	return s.transition(ctx, orgID, actorID, transactionID, models.TransactionPending)
}

// Approve re-checks the stored entries before recording the approver.
func (s *LedgerService) Approve(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	return s.transition(ctx, orgID, actorID, transactionID, models.TransactionApproved)
}

// Void has no balance effect: only unposted transactions can be voided.
func (s *LedgerService) Void(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	t, err := s.transition(ctx, orgID, actorID, transactionID, models.TransactionVoid)
	if err != nil {
		return models.Transaction{}, err
	}
	publish(ctx, s.publisher, s.log, events.New(events.TransactionVoided, orgID, t.ID, actorID, nil))
	return t, nil
}

func (s *LedgerService) Reconcile(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	return s.transition(ctx, orgID, actorID, transactionID, models.TransactionReconciled)
}

func (s *LedgerService) transition(ctx context.Context, orgID, actorID, transactionID string, to models.TransactionStatus) (models.Transaction, error) {
	var t models.Transaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		t, err = s.transactions.GetForUpdate(ctx, tx, orgID, transactionID)
		if err != nil {
			return notFound(err, "transaction")
		}
		from := t.Status
		if _, err := from.Transition(to); err != nil {
			return err
		}
		var rows int64
		if to == models.TransactionApproved {
			entries, err := s.ledger.ListByTransaction(ctx, tx, t.ID)
			if err != nil {
				return err
			}
			if err := entries.Validate(); err != nil {
				return err
			}
			rows, err = s.transactions.Approve(ctx, tx, t.ID, from, actorID)
			if err != nil {
				return err
			}
			t.ApprovedBy = &actorID
		} else {
			rows, err = s.transactions.UpdateStatus(ctx, tx, t.ID, from, to)
			if err != nil {
				return err
			}
		}
		if err := stale(rows, "transaction"); err != nil {
			return err
		}
		t.Status = to
		return s.audit.Log(ctx, tx, orgID, actorID, "transaction."+string(to), "transaction", t.ID, auditData(map[string]string{
			"from": string(from),
			"to":   string(to),
		}))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.log.Info().Str("organization_id", orgID).Str("transaction_id", t.ID).Str("status", string(t.Status)).Msg("transaction status changed")
	return t, nil
}

// Post applies an approved transaction to the cached account balances. The
// transaction row is locked first, then the touched accounts in id order,
// and the status flip is guarded so a concurrent Post cannot apply twice.
func (s *LedgerService) Post(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	var t models.Transaction
	var updates []websocket.BalanceUpdate
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		updates = nil
		var err error
		t, err = s.transactions.GetForUpdate(ctx, tx, orgID, transactionID)
		if err != nil {
			return notFound(err, "transaction")
		}
		if _, err := t.Status.Transition(models.TransactionPosted); err != nil {
			return err
		}
		entries, err := s.ledger.ListByTransaction(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		if err := entries.Validate(); err != nil {
			return err
		}
		deltas := entries.DeltasByAccount()
		for _, accountID := range entries.AccountIDs() {
			account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
			if err != nil {
				return notFound(err, "account")
			}
			if account.OrganizationID != orgID {
				return ErrCrossOrganization
			}
			delta := deltas[accountID]
			rows, err := s.accounts.AdjustBalance(ctx, tx, accountID, delta)
			if err != nil {
				return err
			}
			if err := stale(rows, "account"); err != nil {
				return err
			}
			updates = append(updates, websocket.BalanceUpdate{
				AccountID:     accountID,
				Code:          account.Code,
				Balance:       money.Format(account.CurrentBalance.Add(delta)),
				Currency:      account.Currency,
				TransactionID: t.ID,
			})
		}
		rows, err := s.transactions.UpdateStatus(ctx, tx, t.ID, models.TransactionApproved, models.TransactionPosted)
		if err != nil {
			return err
		}
		if err := stale(rows, "transaction"); err != nil {
			return err
		}
		t.Status = models.TransactionPosted
		t.Entries = entries
		return s.audit.Log(ctx, tx, orgID, actorID, "transaction.posted", "transaction", t.ID, auditData(map[string]string{
			"accounts": strconv.Itoa(len(deltas)),
		}))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.log.Info().Str("organization_id", orgID).Str("transaction_id", t.ID).Int("accounts", len(updates)).Msg("transaction posted")
	if s.hub != nil {
		for _, update := range updates {
			s.hub.BroadcastBalance(orgID, update)
		}
	}
	publish(ctx, s.publisher, s.log, events.New(events.TransactionPosted, orgID, t.ID, actorID, map[string]string{
		"date": t.Date.Format("2006-01-02"),
	}))
	return t, nil
}

// Reverse drafts a transaction with every entry of a posted one negated.
// It is the only way to undo a posted effect.
func (s *LedgerService) Reverse(ctx context.Context, orgID, actorID, transactionID string, date time.Time) (models.Transaction, error) {
	var reversal models.Transaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		original, err := s.transactions.GetForUpdate(ctx, tx, orgID, transactionID)
		if err != nil {
			return notFound(err, "transaction")
		}
		if !original.Status.Booked() {
			return &models.TransitionError{Entity: "transaction", From: string(original.Status), To: "reversed"}
		}
		entries, err := s.ledger.ListByTransaction(ctx, tx, original.ID)
		if err != nil {
			return err
		}
		if date.IsZero() {
			date = original.Date
		}
		reversal = models.Transaction{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			Date:           date,
			Description:    "Reversal of " + original.Description,
			Reference:      original.Reference,
			Status:         models.TransactionDraft,
			Tags:           original.Tags,
			ReversalOf:     &original.ID,
			CreatedBy:      actorID,
		}
		if reversal.Tags == nil {
			reversal.Tags = models.Tags{}
		}
		negated := entries.Negated()
		for i := range negated {
			negated[i].ID = uuid.NewString()
			negated[i].TransactionID = reversal.ID
		}
		if err := s.transactions.Create(ctx, tx, reversal); err != nil {
			return err
		}
		if err := s.ledger.InsertEntries(ctx, tx, negated); err != nil {
			return err
		}
		reversal.Entries = negated
		return s.audit.Log(ctx, tx, orgID, actorID, "transaction.reverse", "transaction", reversal.ID, auditData(map[string]string{
			"reversal_of": original.ID,
		}))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return reversal, nil
}

type AccountBalance struct {
	AccountID     string          `json:"account_id"`
	AsOf          time.Time       `json:"as_of"`
	Balance       decimal.Decimal `json:"balance"`
	CachedBalance decimal.Decimal `json:"cached_balance"`
	Currency      string          `json:"currency"`
}

// AccountBalance is the authoritative balance: booked entries up to asOf.
func (s *LedgerService) AccountBalance(ctx context.Context, orgID, accountID string, asOf time.Time) (AccountBalance, error) {
	account, err := s.accounts.GetByID(ctx, orgID, accountID)
	if err != nil {
		return AccountBalance{}, notFound(err, "account")
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	sum, err := s.ledger.SumBooked(ctx, account.ID, asOf)
	if err != nil {
		return AccountBalance{}, err
	}
	return AccountBalance{
		AccountID:     account.ID,
		AsOf:          asOf,
		Balance:       sum,
		CachedBalance: account.CurrentBalance,
		Currency:      account.Currency,
	}, nil
}

type BalanceVerification struct {
	Accounts   []store.AccountBalanceCheck `json:"accounts"`
	Mismatched []store.AccountBalanceCheck `json:"mismatched"`
	OK         bool                        `json:"ok"`
}

// VerifyBalances compares every cached balance with its booked entries.
func (s *LedgerService) VerifyBalances(ctx context.Context, orgID string) (BalanceVerification, error) {
	checks, err := s.accounts.BalanceChecks(ctx, orgID)
	if err != nil {
		return BalanceVerification{}, err
	}
	result := BalanceVerification{Accounts: checks, Mismatched: []store.AccountBalanceCheck{}}
	for _, check := range checks {
		if !money.IsZero(check.Difference) {
			result.Mismatched = append(result.Mismatched, check)
		}
	}
	result.OK = len(result.Mismatched) == 0
	if !result.OK {
		s.log.Warn().Str("organization_id", orgID).Int("mismatched", len(result.Mismatched)).Msg("cached balances drifted")
	}
	return result, nil
}
