package services

import (
	"context"
	"strings"
	"time"

	"lynkledger/internal/db"
	"lynkledger/internal/logger"
	"lynkledger/internal/models"
	"lynkledger/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	txRunner db.TxRunner
	accounts AccountStore
	ledger   LedgerStore
	audit    AuditStore
	log      zerolog.Logger
}

func NewAccountService(txRunner db.TxRunner, accounts AccountStore, ledger LedgerStore, audit AuditStore) *AccountService {
	return &AccountService{
		txRunner: txRunner,
		accounts: accounts,
		ledger:   ledger,
		audit:    audit,
		log:      logger.WithComponent("accounts"),
	}
}

type CreateAccountRequest struct {
	OrganizationID string
	ActorID        string
	Name           string
	Code           string
	Description    string
	Type           models.AccountType
	Subtype        models.AccountSubtype
	ParentID       *string
	Currency       string
}

func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest) (models.Account, error) {
	account := models.Account{
		ID:               uuid.NewString(),
		OrganizationID:   req.OrganizationID,
		Name:             strings.TrimSpace(req.Name),
		Code:             strings.TrimSpace(req.Code),
		Description:      req.Description,
		Type:             req.Type,
		Subtype:          req.Subtype,
		ParentID:         req.ParentID,
		CurrentBalance:   decimal.Zero,
		AvailableBalance: decimal.Zero,
		Currency:         strings.ToUpper(req.Currency),
		IsActive:         true,
	}
	if req.ActorID != "" {
		account.CreatedBy = &req.ActorID
	}
	if err := account.Validate(); err != nil {
		return models.Account{}, err
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if account.ParentID != nil {
			if _, err := orgAccounts(ctx, tx, s.accounts, account.OrganizationID, []string{*account.ParentID}, false); err != nil {
				return err
			}
		}
		if err := s.accounts.Create(ctx, tx, account); err != nil {
			return conflict(err, "account code "+account.Code)
		}
		return s.audit.Log(ctx, tx, account.OrganizationID, req.ActorID, "account.create", "account", account.ID, auditData(map[string]string{
			"code": account.Code,
			"type": string(account.Type),
		}))
	})
	if err != nil {
		return models.Account{}, err
	}
	s.log.Info().Str("organization_id", account.OrganizationID).Str("account_id", account.ID).Str("code", account.Code).Msg("account created")
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, orgID, accountID string) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, orgID, accountID)
	if err != nil {
		return models.Account{}, notFound(err, "account")
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, orgID string, includeArchived bool) ([]models.Account, error) {
	return s.accounts.List(ctx, orgID, includeArchived)
}

// SetParent moves an account in the tree. A nil parent detaches it.
func (s *AccountService) SetParent(ctx context.Context, orgID, actorID, accountID string, parentID *string) (models.Account, error) {
	account, err := s.Get(ctx, orgID, accountID)
	if err != nil {
		return models.Account{}, err
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if parentID != nil {
			if _, err := orgAccounts(ctx, tx, s.accounts, orgID, []string{*parentID}, false); err != nil {
				return err
			}
			parents, err := s.accounts.ParentMap(ctx, orgID)
			if err != nil {
				return err
			}
			if err := models.CheckParent(accountID, *parentID, func(id string) (string, bool) {
				parent, ok := parents[id]
				return parent, ok
			}); err != nil {
				return err
			}
		}
		rows, err := s.accounts.SetParent(ctx, tx, orgID, accountID, parentID)
		if err != nil {
			return err
		}
		if err := stale(rows, "account"); err != nil {
			return err
		}
		parent := ""
		if parentID != nil {
			parent = *parentID
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "account.parent", "account", accountID, auditData(map[string]string{"parent_id": parent}))
	})
	if err != nil {
		return models.Account{}, err
	}
	account.ParentID = parentID
	return account, nil
}

func (s *AccountService) Archive(ctx context.Context, orgID, actorID, accountID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.accounts.Archive(ctx, tx, orgID, accountID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return missing("account")
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "account.archive", "account", accountID, "")
	})
}

// Delete removes an account nothing references. Referenced accounts can
// only be archived.
func (s *AccountService) Delete(ctx context.Context, orgID, actorID, accountID string) error {
	if _, err := s.Get(ctx, orgID, accountID); err != nil {
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		refs, err := s.accounts.References(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrAccountInUse
		}
		rows, err := s.accounts.Delete(ctx, tx, orgID, accountID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return missing("account")
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "account.delete", "account", accountID, "")
	})
}

type AccountStatement struct {
	Account        models.Account           `json:"account"`
	Start          time.Time                `json:"start_date"`
	End            time.Time                `json:"end_date"`
	OpeningBalance decimal.Decimal          `json:"opening_balance"`
	TotalDebit     decimal.Decimal          `json:"total_debit"`
	TotalCredit    decimal.Decimal          `json:"total_credit"`
	ClosingBalance decimal.Decimal          `json:"closing_balance"`
	Entries        []store.AccountLedgerRow `json:"entries"`
}

// Entries lists booked entries on one account inside [start, end] with the
// balance carried in from before start.
func (s *AccountService) Entries(ctx context.Context, orgID, accountID string, start, end time.Time) (AccountStatement, error) {
	if end.Before(start) {
		return AccountStatement{}, ErrInvalidDateRange
	}
	account, err := s.Get(ctx, orgID, accountID)
	if err != nil {
		return AccountStatement{}, err
	}
	opening, err := s.ledger.SumBooked(ctx, accountID, start.AddDate(0, 0, -1))
	if err != nil {
		return AccountStatement{}, err
	}
	rows, err := s.ledger.AccountLedger(ctx, accountID, start, end)
	if err != nil {
		return AccountStatement{}, err
	}
	statement := AccountStatement{
		Account:        account,
		Start:          start,
		End:            end,
		OpeningBalance: opening,
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
		Entries:        rows,
	}
	if statement.Entries == nil {
		statement.Entries = []store.AccountLedgerRow{}
	}
	for _, row := range rows {
		if row.Amount.IsPositive() {
			statement.TotalDebit = statement.TotalDebit.Add(row.Amount)
		} else {
			statement.TotalCredit = statement.TotalCredit.Add(row.Amount.Neg())
		}
	}
	statement.ClosingBalance = opening.Add(statement.TotalDebit).Sub(statement.TotalCredit)
	return statement, nil
}

type ReconcileRequest struct {
	StatementDate    time.Time
	StatementBalance decimal.Decimal
	EntryIDs         []string
}

type ReconciliationResult struct {
	AccountID         string                   `json:"account_id"`
	StatementDate     time.Time                `json:"statement_date"`
	StatementBalance  decimal.Decimal          `json:"statement_balance"`
	ReconciledBalance decimal.Decimal          `json:"reconciled_balance"`
	Difference        decimal.Decimal          `json:"difference"`
	Marked            int64                    `json:"marked"`
	Unreconciled      []store.AccountLedgerRow `json:"unreconciled"`
}

// ReconcileStatement marks the listed entries reconciled against a bank
// statement and reports what is left to match.
func (s *AccountService) ReconcileStatement(ctx context.Context, orgID, actorID, accountID string, req ReconcileRequest) (ReconciliationResult, error) {
	if req.StatementDate.IsZero() {
		return ReconciliationResult{}, invalid("statement_date", "is required")
	}
	if _, err := s.Get(ctx, orgID, accountID); err != nil {
		return ReconciliationResult{}, err
	}
	result := ReconciliationResult{
		AccountID:        accountID,
		StatementDate:    req.StatementDate,
		StatementBalance: req.StatementBalance,
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		ids := distinct(req.EntryIDs)
		if len(ids) > 0 {
			marked, err := s.ledger.MarkReconciled(ctx, tx, accountID, ids, req.StatementDate)
			if err != nil {
				return err
			}
			result.Marked = marked
		}
		balance, err := s.ledger.ReconciledBalance(ctx, tx, accountID)
		if err != nil {
			return err
		}
		result.ReconciledBalance = balance
		result.Difference = req.StatementBalance.Sub(balance)
		result.Unreconciled, err = s.ledger.Unreconciled(ctx, tx, accountID, req.StatementDate)
		if err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "account.reconcile", "account", accountID, auditData(map[string]string{
			"statement_date": req.StatementDate.Format("2006-01-02"),
			"difference":     result.Difference.StringFixed(2),
		}))
	})
	if err != nil {
		return ReconciliationResult{}, err
	}
	if result.Unreconciled == nil {
		result.Unreconciled = []store.AccountLedgerRow{}
	}
	return result, nil
}
