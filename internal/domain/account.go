package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DueSoonWindow is how far ahead a due date may lie and still count as
// due soon.
const DueSoonWindow = 7 * 24 * time.Hour

// Account filters for the accounts-list read path
const (
	AccountFilterAll     = "all"
	AccountFilterActive  = "active"
	AccountFilterOverdue = "overdue"
	AccountFilterSettled = "settled"
)

// Account is the read-side projection of one customer's ledger: the
// balance and every status flag are derived from the transaction log
// on each call, never read from cached columns.
type Account struct {
	Customer        *Customer       `json:"customer"`
	Loan            *Loan           `json:"loan,omitempty"`
	Balance         decimal.Decimal `json:"balance"`
	ActiveServices  int             `json:"activeServices"`
	IsOverdue       bool            `json:"isOverdue"`
	IsDueSoon       bool            `json:"isDueSoon"`
	NextDue         *time.Time      `json:"nextDue,omitempty"`
	LastTransaction *time.Time      `json:"lastTransaction,omitempty"`
	Transactions    []*Transaction  `json:"transactions"`
}

// AccountStats aggregates the accounts on the current page only; the
// read path paginates customers before fetching ledgers, so these are
// page-scoped by design.
type AccountStats struct {
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	ActiveCount      int             `json:"activeCount"`
	OverdueCount     int             `json:"overdueCount"`
	SettledCount     int             `json:"settledCount"`
}

// ClassifyDue derives the overdue / due-soon flags for a next-due date.
// A non-positive balance suppresses both flags regardless of the date.
func ClassifyDue(nextDue *time.Time, balance decimal.Decimal, now time.Time) (overdue, dueSoon bool) {
	if nextDue == nil || balance.LessThanOrEqual(decimal.Zero) {
		return false, false
	}
	if nextDue.Before(now) {
		return true, false
	}
	if nextDue.Sub(now) <= DueSoonWindow {
		return false, true
	}
	return false, false
}

// EarliestDate returns the minimum of a set of candidate due dates, or
// nil for an empty set.
func EarliestDate(dates []time.Time) *time.Time {
	if len(dates) == 0 {
		return nil
	}
	min := dates[0]
	for _, d := range dates[1:] {
		if d.Before(min) {
			min = d
		}
	}
	return &min
}
