package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"lynkledger/internal/db"
	"lynkledger/internal/events"
	"lynkledger/internal/logger"
	"lynkledger/internal/models"
	"lynkledger/internal/money"
	"lynkledger/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// InvoiceService owns invoices and the payments settling them. Every write
// that reads amount_paid locks the invoice row first.
type InvoiceService struct {
	txRunner  db.TxRunner
	accounts  AccountStore
	invoices  InvoiceStore
	payments  PaymentStore
	taxRates  TaxRateStore
	audit     AuditStore
	publisher events.Publisher
	log       zerolog.Logger
}

func NewInvoiceService(txRunner db.TxRunner, accounts AccountStore, invoices InvoiceStore, payments PaymentStore, taxRates TaxRateStore, audit AuditStore, publisher events.Publisher) *InvoiceService {
	return &InvoiceService{
		txRunner:  txRunner,
		accounts:  accounts,
		invoices:  invoices,
		payments:  payments,
		taxRates:  taxRates,
		audit:     audit,
		publisher: publisher,
		log:       logger.WithComponent("invoices"),
	}
}

type CreateInvoiceRequest struct {
	OrganizationID string
	ActorID        string
	Type           models.InvoiceType
	Number         string
	Reference      string
	Date           time.Time
	DueDate        time.Time
	Party          models.Party
	Currency       string
	ExchangeRate   decimal.Decimal
	Notes          string
	Terms          string
	Items          []models.InvoiceItem
}

func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (models.Invoice, error) {
	inv := models.Invoice{
		ID:             uuid.NewString(),
		OrganizationID: req.OrganizationID,
		Type:           req.Type,
		Number:         strings.TrimSpace(req.Number),
		Reference:      req.Reference,
		Date:           req.Date,
		DueDate:        req.DueDate,
		Party:          req.Party,
		AmountPaid:     decimal.Zero,
		Currency:       strings.ToUpper(req.Currency),
		ExchangeRate:   req.ExchangeRate,
		Notes:          req.Notes,
		Terms:          req.Terms,
		Status:         models.InvoiceDraft,
		CreatedBy:      req.ActorID,
		Items:          req.Items,
	}
	if inv.ExchangeRate.IsZero() {
		inv.ExchangeRate = decimal.NewFromInt(1)
	}
	if err := inv.Validate(); err != nil {
		return models.Invoice{}, err
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		items, err := s.prepareItems(ctx, tx, inv.OrganizationID, inv.ID, req.Items)
		if err != nil {
			return err
		}
		inv.Items = items
		inv.CalculateTotals()
		if inv.Number == "" {
			inv.Number, err = nextInvoiceNumber(ctx, tx, s.invoices, inv.OrganizationID, inv.Date)
			if err != nil {
				return err
			}
		}
		if err := s.invoices.Create(ctx, tx, inv); err != nil {
			return conflict(err, "invoice number "+inv.Number)
		}
		if err := s.invoices.InsertItems(ctx, tx, inv.Items); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, inv.OrganizationID, req.ActorID, "invoice.create", "invoice", inv.ID, auditData(map[string]string{
			"number": inv.Number,
			"total":  money.Format(inv.Total),
		}))
	})
	if err != nil {
		return models.Invoice{}, err
	}
	s.log.Info().Str("organization_id", inv.OrganizationID).Str("invoice_id", inv.ID).Str("number", inv.Number).Msg("invoice created")
	return inv, nil
}

// prepareItems assigns ids, resolves tax rates referenced by id and checks
// that every referenced account belongs to orgID.
func (s *InvoiceService) prepareItems(ctx context.Context, q store.Selecter, orgID, invoiceID string, input []models.InvoiceItem) ([]models.InvoiceItem, error) {
	items := make([]models.InvoiceItem, len(input))
	copy(items, input)
	var accountIDs []string
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].InvoiceID = invoiceID
		if items[i].TaxRateID != nil && *items[i].TaxRateID != "" {
			rate, err := s.taxRates.GetByID(ctx, orgID, *items[i].TaxRateID)
			if err != nil {
				return nil, notFound(err, "tax rate")
			}
			items[i].TaxRate = rate.Rate
		} else {
			items[i].TaxRateID = nil
		}
		if err := items[i].Validate(); err != nil {
			return nil, err
		}
		accountIDs = append(accountIDs, items[i].IncomeAccountID)
		if items[i].TaxAccountID != nil && *items[i].TaxAccountID != "" {
			accountIDs = append(accountIDs, *items[i].TaxAccountID)
		} else {
			items[i].TaxAccountID = nil
		}
	}
	if _, err := orgAccounts(ctx, q, s.accounts, orgID, distinct(accountIDs), true); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItems replaces every item of a draft invoice and recomputes its
// totals in the same transaction.
func (s *InvoiceService) UpdateItems(ctx context.Context, orgID, actorID, invoiceID string, input []models.InvoiceItem) (models.Invoice, error) {
	var inv models.Invoice
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inv, err = s.invoices.GetForUpdate(ctx, tx, orgID, invoiceID)
		if err != nil {
			return notFound(err, "invoice")
		}
		if inv.Status != models.InvoiceDraft {
			return &models.TransitionError{Entity: "invoice", From: string(inv.Status), To: "edited"}
		}
		items, err := s.prepareItems(ctx, tx, orgID, inv.ID, input)
		if err != nil {
			return err
		}
		if err := s.invoices.DeleteItems(ctx, tx, inv.ID); err != nil {
			return err
		}
		if err := s.invoices.InsertItems(ctx, tx, items); err != nil {
			return err
		}
		inv.Items = items
		inv.CalculateTotals()
		if err := s.invoices.UpdateTotals(ctx, tx, inv); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "invoice.items", "invoice", inv.ID, auditData(map[string]string{
			"items": strconv.Itoa(len(items)),
			"total": money.Format(inv.Total),
		}))
	})
	if err != nil {
		return models.Invoice{}, err
	}
	return inv, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, orgID, invoiceID string) (InvoiceDetail, error) {
	inv, err := s.invoices.GetByID(ctx, orgID, invoiceID)
	if err != nil {
		return InvoiceDetail{}, notFound(err, "invoice")
	}
	payments, err := s.payments.Payments(ctx, inv.ID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return InvoiceDetail{Invoice: inv, BalanceDue: inv.BalanceDue(), Payments: payments}, nil
}

type InvoiceDetail struct {
	models.Invoice
	BalanceDue decimal.Decimal  `json:"balance_due"`
	Payments   []models.Payment `json:"payments"`
}

func (s *InvoiceService) ListInvoices(ctx context.Context, orgID string, filter store.InvoiceFilter) ([]models.Invoice, error) {
	if filter.Type != "" && !models.InvoiceType(filter.Type).Valid() {
		return nil, invalid("type", "unknown invoice type")
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.invoices.List(ctx, orgID, filter)
}

// Send moves a draft to sent. An invoice without items cannot be sent.
func (s *InvoiceService) Send(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error) {
	inv, err := s.changeStatus(ctx, orgID, actorID, invoiceID, "invoice.send", func(inv *models.Invoice) error {
		if inv.Status == models.InvoiceDraft && len(inv.Items) == 0 {
			return ErrInvoiceHasNoItems
		}
		return inv.Send()
	})
	if err != nil {
		return models.Invoice{}, err
	}
	publish(ctx, s.publisher, s.log, events.New(events.InvoiceSent, orgID, inv.ID, actorID, map[string]string{
		"number": inv.Number,
		"total":  money.Format(inv.Total),
	}))
	return inv, nil
}

func (s *InvoiceService) Cancel(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error) {
	return s.changeStatus(ctx, orgID, actorID, invoiceID, "invoice.cancel", func(inv *models.Invoice) error {
		return inv.Cancel()
	})
}

func (s *InvoiceService) Void(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error) {
	return s.changeStatus(ctx, orgID, actorID, invoiceID, "invoice.void", func(inv *models.Invoice) error {
		return inv.Void()
	})
}

func (s *InvoiceService) changeStatus(ctx context.Context, orgID, actorID, invoiceID, action string, apply func(*models.Invoice) error) (models.Invoice, error) {
	var inv models.Invoice
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inv, err = s.invoices.GetForUpdate(ctx, tx, orgID, invoiceID)
		if err != nil {
			return notFound(err, "invoice")
		}
		from := inv.Status
		if err := apply(&inv); err != nil {
			return err
		}
		rows, err := s.invoices.UpdateStatus(ctx, tx, inv.ID, from, inv.Status)
		if err != nil {
			return err
		}
		if err := stale(rows, "invoice"); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, orgID, actorID, action, "invoice", inv.ID, auditData(map[string]string{
			"from": string(from),
			"to":   string(inv.Status),
		}))
	})
	if err != nil {
		return models.Invoice{}, err
	}
	s.log.Info().Str("organization_id", orgID).Str("invoice_id", inv.ID).Str("status", string(inv.Status)).Msg("invoice status changed")
	return inv, nil
}

// MarkOverdue flags sent and partially paid invoices whose due date is
// before asOf. It returns the ids it changed.
func (s *InvoiceService) MarkOverdue(ctx context.Context, orgID, actorID string, asOf time.Time) ([]string, error) {
	open, err := s.invoices.List(ctx, orgID, store.InvoiceFilter{
		Statuses: []string{string(models.InvoiceSent), string(models.InvoicePartiallyPaid)},
	})
	if err != nil {
		return nil, err
	}
	marked := []string{}
	for _, candidate := range open {
		if !candidate.MarkOverdue(asOf) {
			continue
		}
		_, err := s.changeStatus(ctx, orgID, actorID, candidate.ID, "invoice.overdue", func(inv *models.Invoice) error {
			if !inv.MarkOverdue(asOf) {
				return &models.TransitionError{Entity: "invoice", From: string(inv.Status), To: string(models.InvoiceOverdue)}
			}
			return nil
		})
		if err != nil {
			s.log.Warn().Err(err).Str("organization_id", orgID).Str("invoice_id", candidate.ID).Msg("overdue marking skipped")
			continue
		}
		marked = append(marked, candidate.ID)
	}
	return marked, nil
}

type RecordPaymentRequest struct {
	OrganizationID string
	ActorID        string
	InvoiceID      string
	Date           time.Time
	Amount         decimal.Decimal
	Currency       string
	ExchangeRate   decimal.Decimal
	Method         models.PaymentMethod
	Status         models.PaymentStatus
	Reference      string
	BankAccountID  *string
	Notes          string
}

type PaymentResult struct {
	Payment models.Payment `json:"payment"`
	Invoice models.Invoice `json:"invoice"`
}

// RecordPayment stores a payment against an open invoice. The balance due is
// re-read under the invoice row lock so two payments cannot overpay it.
func (s *InvoiceService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (PaymentResult, error) {
	p := models.Payment{
		ID:             uuid.NewString(),
		OrganizationID: req.OrganizationID,
		InvoiceID:      req.InvoiceID,
		Date:           req.Date,
		Amount:         req.Amount,
		Currency:       strings.ToUpper(req.Currency),
		ExchangeRate:   req.ExchangeRate,
		Method:         req.Method,
		Status:         req.Status,
		Reference:      req.Reference,
		BankAccountID:  req.BankAccountID,
		Notes:          req.Notes,
		CreatedBy:      req.ActorID,
	}
	if p.Status == "" {
		p.Status = models.PaymentCompleted
	}
	switch p.Status {
	case models.PaymentDraft, models.PaymentPending, models.PaymentCompleted:
	default:
		return PaymentResult{}, invalid("status", "new payments must be draft, pending or completed")
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	if p.ExchangeRate.IsZero() {
		p.ExchangeRate = decimal.NewFromInt(1)
	}
	var inv models.Invoice
	var becamePaid bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inv, err = s.invoices.GetForUpdate(ctx, tx, req.OrganizationID, req.InvoiceID)
		if err != nil {
			return notFound(err, "invoice")
		}
		if err := p.ValidateAgainst(inv); err != nil {
			return err
		}
		if p.Currency == "" {
			p.Currency = inv.Currency
		}
		if p.BankAccountID != nil {
			if _, err := orgAccounts(ctx, tx, s.accounts, req.OrganizationID, []string{*p.BankAccountID}, true); err != nil {
				return err
			}
		}
		if err := s.payments.Create(ctx, tx, p); err != nil {
			return err
		}
		if p.Status == models.PaymentCompleted {
			becamePaid, err = s.applyPayments(ctx, tx, &inv, false)
			if err != nil {
				return err
			}
		}
		return s.audit.Log(ctx, tx, req.OrganizationID, req.ActorID, "payment.create", "payment", p.ID, auditData(map[string]string{
			"invoice_id": inv.ID,
			"amount":     money.Format(p.Amount),
			"status":     string(p.Status),
		}))
	})
	if err != nil {
		return PaymentResult{}, err
	}
	s.log.Info().Str("organization_id", req.OrganizationID).Str("invoice_id", inv.ID).Str("payment_id", p.ID).Str("status", string(inv.Status)).Msg("payment recorded")
	publish(ctx, s.publisher, s.log, events.New(events.PaymentRecorded, req.OrganizationID, p.ID, req.ActorID, map[string]string{
		"invoice_id": inv.ID,
		"amount":     money.Format(p.Amount),
	}))
	s.publishPaid(ctx, inv, req.ActorID, becamePaid)
	return PaymentResult{Payment: p, Invoice: inv}, nil
}

// ApplyPayment recomputes the invoice a payment belongs to from its
// completed payments.
func (s *InvoiceService) ApplyPayment(ctx context.Context, orgID, actorID, paymentID string) (models.Invoice, error) {
	p, err := s.payments.GetByID(ctx, orgID, paymentID)
	if err != nil {
		return models.Invoice{}, notFound(err, "payment")
	}
	var inv models.Invoice
	var becamePaid bool
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inv, err = s.invoices.GetForUpdate(ctx, tx, orgID, p.InvoiceID)
		if err != nil {
			return notFound(err, "invoice")
		}
		becamePaid, err = s.applyPayments(ctx, tx, &inv, false)
		return err
	})
	if err != nil {
		return models.Invoice{}, err
	}
	s.publishPaid(ctx, inv, actorID, becamePaid)
	return inv, nil
}

func (s *InvoiceService) VoidPayment(ctx context.Context, orgID, actorID, paymentID string) (PaymentResult, error) {
	return s.SetPaymentStatus(ctx, orgID, actorID, paymentID, models.PaymentVoided)
}

// SetPaymentStatus moves a payment through its lifecycle and recomputes the
// invoice whenever the completed set changes.
func (s *InvoiceService) SetPaymentStatus(ctx context.Context, orgID, actorID, paymentID string, next models.PaymentStatus) (PaymentResult, error) {
	if !next.Valid() {
		return PaymentResult{}, invalid("status", "unknown payment status")
	}
	current, err := s.payments.GetByID(ctx, orgID, paymentID)
	if err != nil {
		return PaymentResult{}, notFound(err, "payment")
	}
	var p models.Payment
	var inv models.Invoice
	var becamePaid bool
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inv, err = s.invoices.GetForUpdate(ctx, tx, orgID, current.InvoiceID)
		if err != nil {
			return notFound(err, "invoice")
		}
		p, err = s.payments.GetForUpdate(ctx, tx, orgID, paymentID)
		if err != nil {
			return notFound(err, "payment")
		}
		from := p.Status
		if _, err := from.Transition(next); err != nil {
			return err
		}
		if next == models.PaymentCompleted && p.Amount.GreaterThan(inv.BalanceDue()) {
			return invalid("amount", "exceeds balance due")
		}
		rows, err := s.payments.UpdateStatus(ctx, tx, p.ID, from, next)
		if err != nil {
			return err
		}
		if err := stale(rows, "payment"); err != nil {
			return err
		}
		p.Status = next
		if from == models.PaymentCompleted || next == models.PaymentCompleted {
			becamePaid, err = s.applyPayments(ctx, tx, &inv, from == models.PaymentCompleted)
			if err != nil {
				return err
			}
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "payment."+string(next), "payment", p.ID, auditData(map[string]string{
			"invoice_id": inv.ID,
			"from":       string(from),
			"to":         string(next),
		}))
	})
	if err != nil {
		return PaymentResult{}, err
	}
	s.log.Info().Str("organization_id", orgID).Str("payment_id", p.ID).Str("status", string(p.Status)).Str("invoice_status", string(inv.Status)).Msg("payment status changed")
	s.publishPaid(ctx, inv, actorID, becamePaid)
	return PaymentResult{Payment: p, Invoice: inv}, nil
}

// applyPayments sets amount_paid to the sum of completed payments and derives
// the invoice status. The caller holds the invoice row lock.
func (s *InvoiceService) applyPayments(ctx context.Context, tx store.Tx, inv *models.Invoice, removal bool) (bool, error) {
	payments, err := s.payments.ListByInvoice(ctx, tx, inv.ID)
	if err != nil {
		return false, err
	}
	before := inv.Status
	inv.ApplyPaidAmount(models.PaidAmount(payments), removal)
	if err := s.invoices.UpdatePaid(ctx, tx, inv.ID, inv.AmountPaid, inv.Status); err != nil {
		return false, err
	}
	return before != models.InvoicePaid && inv.Status == models.InvoicePaid, nil
}

func (s *InvoiceService) publishPaid(ctx context.Context, inv models.Invoice, actorID string, becamePaid bool) {
	if !becamePaid {
		return
	}
	publish(ctx, s.publisher, s.log, events.New(events.InvoicePaid, inv.OrganizationID, inv.ID, actorID, map[string]string{
		"number": inv.Number,
		"total":  money.Format(inv.Total),
	}))
}
