package core

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Renewal statuses.
const (
	RenewalOverdue = "overdue"
	RenewalUrgent  = "urgent"
	RenewalWarning = "warning"
	RenewalOK      = "ok"
)

// RenewalThresholds holds the day counts that separate renewal statuses.
type RenewalThresholds struct {
	WarningDays int
	UrgentDays  int
}

// DefaultRenewalThresholds match the subscription grid's highlighting.
var DefaultRenewalThresholds = RenewalThresholds{WarningDays: 30, UrgentDays: 7}

// RenewalStatus classifies a renewal date relative to today. It returns nil
// values when there is no renewal date.
func RenewalStatus(renewal pgtype.Date, today time.Time, th RenewalThresholds) (status *string, days *int) {
	if !renewal.Valid {
		return nil, nil
	}

	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	r := time.Date(renewal.Time.Year(), renewal.Time.Month(), renewal.Time.Day(), 0, 0, 0, 0, time.UTC)
	d := int(r.Sub(t).Hours() / 24)

	var s string
	switch {
	case d < 0:
		s = RenewalOverdue
	case d <= th.UrgentDays:
		s = RenewalUrgent
	case d <= th.WarningDays:
		s = RenewalWarning
	default:
		s = RenewalOK
	}
	return &s, &d
}
