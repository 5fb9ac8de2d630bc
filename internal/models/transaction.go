package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"lynkledger/internal/money"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionDraft      TransactionStatus = "draft"
	TransactionPending    TransactionStatus = "pending"
	TransactionApproved   TransactionStatus = "approved"
	TransactionPosted     TransactionStatus = "posted"
	TransactionReconciled TransactionStatus = "reconciled"
	TransactionVoid       TransactionStatus = "void"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionDraft:    {TransactionPending, TransactionApproved, TransactionVoid},
	TransactionPending:  {TransactionApproved, TransactionDraft},
	TransactionApproved: {TransactionPosted, TransactionVoid},
	TransactionPosted:   {TransactionReconciled},
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionDraft, TransactionPending, TransactionApproved, TransactionPosted, TransactionReconciled, TransactionVoid:
		return true
	}
	return false
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s TransactionStatus) Terminal() bool {
	return len(transactionTransitions[s]) == 0
}

// Booked is true for statuses whose entries count toward balances.
func (s TransactionStatus) Booked() bool {
	return s == TransactionPosted || s == TransactionReconciled
}

// Transition returns next or a TransitionError.
func (s TransactionStatus) Transition(next TransactionStatus) (TransactionStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, &TransitionError{Entity: "transaction", From: string(s), To: string(next)}
	}
	return next, nil
}

// Tags is free-form classification stored as a JSON object.
type Tags map[string]string

const (
	FlowOperating = "operating"
	FlowInvesting = "investing"
	FlowFinancing = "financing"
)

// FlowType is the cash flow section of the transaction. Missing or unknown
// values fall into operating.
func (t Tags) FlowType() string {
	switch t["type"] {
	case FlowInvesting:
		return FlowInvesting
	case FlowFinancing:
		return FlowFinancing
	default:
		return FlowOperating
	}
}

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t)
}

func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("tags: unsupported type")
	}
	parsed := Tags{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return err
	}
	*t = parsed
	return nil
}

type Transaction struct {
	ID                string            `db:"id" json:"id"`
	OrganizationID    string            `db:"organization_id" json:"organization_id"`
	Date              time.Time         `db:"date" json:"date"`
	Description       string            `db:"description" json:"description"`
	Reference         string            `db:"reference" json:"reference"`
	Status            TransactionStatus `db:"status" json:"status"`
	IsRecurring       bool              `db:"is_recurring" json:"is_recurring"`
	RecurrenceType    string            `db:"recurrence_type" json:"recurrence_type,omitempty"`
	RecurrenceEndDate *time.Time        `db:"recurrence_end_date" json:"recurrence_end_date,omitempty"`
	Tags              Tags              `db:"tags" json:"tags"`
	ReversalOf        *string           `db:"reversal_of" json:"reversal_of,omitempty"`
	CreatedBy         string            `db:"created_by" json:"created_by"`
	ApprovedBy        *string           `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
	Entries           Entries           `db:"-" json:"entries"`
}

type TransactionEntry struct {
	ID             string          `db:"id" json:"id"`
	TransactionID  string          `db:"transaction_id" json:"transaction_id"`
	AccountID      string          `db:"account_id" json:"account_id"`
	Description    string          `db:"description" json:"description"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	TaxRate        decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	Currency       string          `db:"currency" json:"currency"`
	ExchangeRate   decimal.Decimal `db:"exchange_rate" json:"exchange_rate"`
	Reconciled     bool            `db:"reconciled" json:"reconciled"`
	ReconciledDate *time.Time      `db:"reconciled_date" json:"reconciled_date,omitempty"`
}

type Entries []TransactionEntry

func (e Entries) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range e {
		total = total.Add(entry.Amount)
	}
	return total
}

// IsBalanced holds when the signed amounts net to zero within money.Epsilon.
func (e Entries) IsBalanced() bool {
	return money.IsZero(e.Sum())
}

// DeltasByAccount nets the entry amounts per account.
func (e Entries) DeltasByAccount() map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal, len(e))
	for _, entry := range e {
		deltas[entry.AccountID] = deltas[entry.AccountID].Add(entry.Amount)
	}
	return deltas
}

// AccountIDs returns the distinct account ids in lock order.
func (e Entries) AccountIDs() []string {
	seen := make(map[string]struct{}, len(e))
	ids := make([]string, 0, len(e))
	for _, entry := range e {
		if _, ok := seen[entry.AccountID]; ok {
			continue
		}
		seen[entry.AccountID] = struct{}{}
		ids = append(ids, entry.AccountID)
	}
	sort.Strings(ids)
	return ids
}

// Negated copies the entries with their signs flipped and ids cleared.
func (e Entries) Negated() Entries {
	out := make(Entries, 0, len(e))
	for _, entry := range e {
		entry.ID = ""
		entry.TransactionID = ""
		entry.Amount = entry.Amount.Neg()
		entry.Reconciled = false
		entry.ReconciledDate = nil
		out = append(out, entry)
	}
	return out
}

// Validate checks each leg and the double-entry invariant.
func (e Entries) Validate() error {
	if len(e) < 2 {
		return invalid("entries", "at least two entries are required")
	}
	for _, entry := range e {
		if entry.AccountID == "" {
			return invalid("entries.account_id", "is required")
		}
		if entry.Amount.IsZero() {
			return invalid("entries.amount", "must not be zero")
		}
		if entry.TaxRate.IsNegative() {
			return invalid("entries.tax_rate", "must not be negative")
		}
		if !entry.ExchangeRate.IsPositive() {
			return invalid("entries.exchange_rate", "must be positive")
		}
	}
	if !e.IsBalanced() {
		return invalid("entries", "entries do not sum to zero")
	}
	return nil
}
