package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"lynkledger/internal/db"
	"lynkledger/internal/events"
	"lynkledger/internal/logger"
	"lynkledger/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// RecurringService stamps invoices out of recurring templates. RunDue is the
// batch entry point a scheduler calls.
type RecurringService struct {
	txRunner  db.TxRunner
	accounts  AccountStore
	templates RecurringStore
	invoices  InvoiceStore
	taxRates  TaxRateStore
	audit     AuditStore
	publisher events.Publisher
	log       zerolog.Logger
}

func NewRecurringService(txRunner db.TxRunner, accounts AccountStore, templates RecurringStore, invoices InvoiceStore, taxRates TaxRateStore, audit AuditStore, publisher events.Publisher) *RecurringService {
	return &RecurringService{
		txRunner:  txRunner,
		accounts:  accounts,
		templates: templates,
		invoices:  invoices,
		taxRates:  taxRates,
		audit:     audit,
		publisher: publisher,
		log:       logger.WithComponent("recurring"),
	}
}

func (s *RecurringService) Create(ctx context.Context, orgID, actorID string, r models.RecurringInvoice) (models.RecurringInvoice, error) {
	r.ID = uuid.NewString()
	r.OrganizationID = orgID
	r.CreatedBy = actorID
	r.IsActive = true
	r.Currency = strings.ToUpper(r.Currency)
	if r.NextDate.IsZero() || r.NextDate.Before(r.StartDate) {
		r.NextDate = r.StartDate
	}
	if r.DaysDue == 0 {
		r.DaysDue = models.DefaultDaysDue
	}
	if r.StartDate.IsZero() {
		return models.RecurringInvoice{}, invalid("start_date", "is required")
	}
	if err := r.Validate(); err != nil {
		return models.RecurringInvoice{}, err
	}
	var accountIDs []string
	for i := range r.Items {
		item := &r.Items[i]
		item.ID = uuid.NewString()
		item.RecurringInvoiceID = r.ID
		if item.TaxRateID != nil && *item.TaxRateID != "" {
			rate, err := s.taxRates.GetByID(ctx, orgID, *item.TaxRateID)
			if err != nil {
				return models.RecurringInvoice{}, notFound(err, "tax rate")
			}
			item.TaxRate = rate.Rate
		} else {
			item.TaxRateID = nil
		}
		line := models.InvoiceItem{
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountRate:    item.DiscountRate,
			TaxRate:         item.TaxRate,
			IncomeAccountID: item.IncomeAccountID,
		}
		if err := line.Validate(); err != nil {
			return models.RecurringInvoice{}, err
		}
		accountIDs = append(accountIDs, item.IncomeAccountID)
		if item.TaxAccountID != nil && *item.TaxAccountID != "" {
			accountIDs = append(accountIDs, *item.TaxAccountID)
		} else {
			item.TaxAccountID = nil
		}
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := orgAccounts(ctx, tx, s.accounts, orgID, distinct(accountIDs), true); err != nil {
			return err
		}
		if err := s.templates.Create(ctx, tx, r); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "recurring.create", "recurring_invoice", r.ID, auditData(map[string]string{
			"frequency": string(r.Frequency),
		}))
	})
	if err != nil {
		return models.RecurringInvoice{}, err
	}
	return r, nil
}

func (s *RecurringService) Get(ctx context.Context, orgID, templateID string) (models.RecurringInvoice, error) {
	r, err := s.templates.GetByID(ctx, orgID, templateID)
	if err != nil {
		return models.RecurringInvoice{}, notFound(err, "recurring invoice")
	}
	return r, nil
}

func (s *RecurringService) List(ctx context.Context, orgID string) ([]models.RecurringInvoice, error) {
	return s.templates.List(ctx, orgID)
}

// Generate creates the invoice for the template's current next date and
// advances the schedule in one transaction. A template that is inactive or
// whose end date lies before today is refused with ErrTemplateExhausted. A
// template that reaches its end date is deactivated instead of advanced.
func (s *RecurringService) Generate(ctx context.Context, orgID, actorID, templateID string, today time.Time) (models.Invoice, error) {
	return s.generate(ctx, orgID, actorID, templateID, today, false)
}

// generate re-reads the template under lock. With due set, a template that is
// not due on today any more (another run advanced it) is skipped as well.
func (s *RecurringService) generate(ctx context.Context, orgID, actorID, templateID string, today time.Time, due bool) (models.Invoice, error) {
	var inv models.Invoice
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		r, err := s.templates.GetForUpdate(ctx, tx, orgID, templateID)
		if err != nil {
			return notFound(err, "recurring invoice")
		}
		if !r.IsActive || r.Expired(today) || (r.EndDate != nil && r.NextDate.After(*r.EndDate)) {
			return ErrTemplateExhausted
		}
		if due && !r.Due(today) {
			return ErrTemplateExhausted
		}
		if len(r.Items) == 0 {
			return ErrInvoiceHasNoItems
		}
		inv = r.BuildInvoice()
		inv.ID = uuid.NewString()
		if actorID != "" {
			inv.CreatedBy = actorID
		}
		for i := range inv.Items {
			inv.Items[i].ID = uuid.NewString()
			inv.Items[i].InvoiceID = inv.ID
		}
		inv.Number, err = nextInvoiceNumber(ctx, tx, s.invoices, orgID, inv.Date)
		if err != nil {
			return err
		}
		if err := s.invoices.Create(ctx, tx, inv); err != nil {
			return conflict(err, "invoice number "+inv.Number)
		}
		if err := s.invoices.InsertItems(ctx, tx, inv.Items); err != nil {
			return err
		}
		active := r.UpdateNextDate()
		if r.EndDate != nil && r.NextDate.After(*r.EndDate) {
			active = false
		}
		if err := s.templates.UpdateSchedule(ctx, tx, r.ID, r.NextDate, active); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "recurring.generate", "recurring_invoice", r.ID, auditData(map[string]string{
			"invoice_id": inv.ID,
			"next_date":  r.NextDate.Format("2006-01-02"),
		}))
	})
	if err != nil {
		return models.Invoice{}, err
	}
	s.log.Info().Str("organization_id", orgID).Str("recurring_invoice_id", templateID).Str("invoice_id", inv.ID).Msg("recurring invoice generated")
	publish(ctx, s.publisher, s.log, events.New(events.RecurringRun, orgID, inv.ID, actorID, map[string]string{
		"recurring_invoice_id": templateID,
		"number":               inv.Number,
	}))
	return inv, nil
}

type TemplateError struct {
	TemplateID string `json:"recurring_invoice_id"`
	Error      string `json:"error"`
}

type BatchResult struct {
	Date      time.Time       `json:"date"`
	Generated []string        `json:"generated"`
	Skipped   []string        `json:"skipped"`
	Errors    []TemplateError `json:"errors"`
}

// RunDue generates one invoice for every template due on today. Each
// template runs in its own transaction so one failure does not stop the
// batch.
func (s *RecurringService) RunDue(ctx context.Context, orgID, actorID string, today time.Time) (BatchResult, error) {
	result := BatchResult{
		Date:      today,
		Generated: []string{},
		Skipped:   []string{},
		Errors:    []TemplateError{},
	}
	ids, err := s.templates.ListDue(ctx, orgID, today)
	if err != nil {
		return result, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		inv, err := s.generate(ctx, orgID, actorID, id, today, true)
		switch {
		case err == nil:
			result.Generated = append(result.Generated, inv.ID)
		case errors.Is(err, ErrTemplateExhausted):
			result.Skipped = append(result.Skipped, id)
		default:
			s.log.Error().Err(err).Str("organization_id", orgID).Str("recurring_invoice_id", id).Msg("recurring generation failed")
			result.Errors = append(result.Errors, TemplateError{TemplateID: id, Error: err.Error()})
		}
	}
	s.log.Info().Str("organization_id", orgID).
		Int("generated", len(result.Generated)).
		Int("skipped", len(result.Skipped)).
		Int("failed", len(result.Errors)).
		Msg("recurring run finished")
	return result, nil
}

// PreviewNext lists the next count generation dates without changing the
// template.
func (s *RecurringService) PreviewNext(ctx context.Context, orgID, templateID string, count int) ([]time.Time, error) {
	if count <= 0 {
		count = 5
	}
	if count > 60 {
		return nil, invalid("count", "must not exceed 60")
	}
	r, err := s.Get(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	if !r.IsActive {
		return []time.Time{}, nil
	}
	return r.PreviewDates(count), nil
}
