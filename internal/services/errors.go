package services

import (
	"database/sql"
	"errors"
	"fmt"

	"lynkledger/internal/db"
	"lynkledger/internal/models"
	"lynkledger/internal/reports"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrCrossOrganization  = errors.New("entity belongs to another organization")
	ErrStaleState         = errors.New("record was changed concurrently")
	ErrConflict           = errors.New("conflicts with an existing record")
	ErrAccountInUse       = errors.New("account is referenced by ledger or invoice data")
	ErrTaxRateInUse       = errors.New("tax rate is referenced by invoice items")
	ErrInvoiceHasNoItems  = errors.New("invoice has no items")
	ErrTemplateExhausted  = errors.New("recurring template is inactive or past its end date")
	ErrLastOwner          = errors.New("organization must keep an owner")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrValidation        = models.ErrValidation
	ErrInvalidTransition = models.ErrInvalidTransition
	ErrAssetNotActive    = models.ErrAssetNotActive
	ErrAccountCycle      = models.ErrAccountCycle
	ErrInvalidDateRange  = reports.ErrInvalidDateRange
)

func invalid(field, message string) error {
	return &models.ValidationError{Field: field, Message: message}
}

// notFound maps a missing row to ErrNotFound, naming the entity.
func notFound(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return missing(entity)
	}
	return err
}

func missing(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

// conflict maps a unique violation to ErrConflict.
func conflict(err error, what string) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return err
}

func stale(rows int64, entity string) error {
	if rows == 0 {
		return fmt.Errorf("%s: %w", entity, ErrStaleState)
	}
	return nil
}
