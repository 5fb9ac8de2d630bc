package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lynkledger/internal/money"
	"lynkledger/internal/reports"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	errInvalidDate   = errors.New("dates must use YYYY-MM-DD")
	errInvalidAmount = errors.New("invalid amount")
)

func parseDate(raw string) (time.Time, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return date, nil
}

// parseDateOr returns fallback for an empty string.
func parseDateOr(raw string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return parseDate(raw)
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	date, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	amount, err := money.Parse(raw)
	if err != nil {
		return decimal.Zero, errInvalidAmount
	}
	return amount, nil
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// asOfParam reads ?as_of, defaulting to today.
func asOfParam(r *http.Request) (time.Time, error) {
	return parseDateOr(r.URL.Query().Get("as_of"), today())
}

// periodParam reads ?start_date and ?end_date. end_date defaults to today
// and start_date may be left open.
func periodParam(r *http.Request) (reports.Period, error) {
	query := r.URL.Query()
	end, err := parseDateOr(query.Get("end_date"), today())
	if err != nil {
		return reports.Period{}, err
	}
	start, err := parseDateOr(query.Get("start_date"), time.Time{})
	if err != nil {
		return reports.Period{}, err
	}
	return reports.Period{Start: start, End: end}, nil
}

func pagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
