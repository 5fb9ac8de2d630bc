package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lynkledger/internal/events"
	"lynkledger/internal/models"
	"lynkledger/internal/store"

	"github.com/rs/zerolog"
)

func auditData(fields map[string]string) string {
	data, _ := json.Marshal(fields)
	return string(data)
}

// publish runs after commit. A failed publish is logged and never undoes
// the committed change.
func publish(ctx context.Context, publisher events.Publisher, log zerolog.Logger, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", event.Type).Str("entity_id", event.EntityID).Msg("event publish failed")
	}
}

// orgAccounts loads the listed accounts and checks that each exists inside
// orgID. requireOpen also rejects inactive or archived accounts.
func orgAccounts(ctx context.Context, q store.Selecter, accounts AccountStore, orgID string, ids []string, requireOpen bool) (map[string]models.Account, error) {
	found := make(map[string]models.Account, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := accounts.ListByIDs(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		found[row.ID] = row
	}
	for _, id := range ids {
		account, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		if account.OrganizationID != orgID {
			return nil, fmt.Errorf("account %s: %w", id, ErrCrossOrganization)
		}
		if requireOpen && (!account.IsActive || account.IsArchived) {
			return nil, invalid("account_id", fmt.Sprintf("account %s is not active", account.Code))
		}
	}
	return found, nil
}

// nextInvoiceNumber numbers invoices INV-YYYYMM-NNNN per organization.
func nextInvoiceNumber(ctx context.Context, q store.Getter, invoices InvoiceStore, orgID string, date time.Time) (string, error) {
	prefix := "INV-" + date.Format("200601") + "-"
	count, err := invoices.CountByPrefix(ctx, q, orgID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
