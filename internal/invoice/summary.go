package invoice

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"

	"invoicehub/pkg/models"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MonthlyTotal is the TWD total of the invoices dated in one month.
type MonthlyTotal struct {
	Month    string  `json:"month"` // YYYY-MM
	TotalTWD float64 `json:"total_twd"`
}

// FailedRecord names an invoice left out of (part of) a summary and why.
type FailedRecord struct {
	Identifier    string `json:"identifier"`
	ID            uint   `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// Summary aggregates the stored invoices by month.
//
// A record counts towards its month only when both its date and its TWD
// amount are valid. It counts towards TotalAllTime whenever its amount is
// valid, dated or not.
type Summary struct {
	Monthly        []MonthlyTotal `json:"monthly"` // Newest month first
	TotalAllTime   float64        `json:"total_all_time"`
	ProcessedCount int            `json:"processed_count"`
	TotalCount     int            `json:"db_total_count"`
	Failed         []FailedRecord `json:"failed"`
}

type recordContribution struct {
	month     string
	amount    float64
	dateOK    bool
	amountOK  bool
	panicked  bool
	panicInfo string
}

// Summarize aggregates records. It never fails: a record that cannot be
// classified is listed in Failed and the remaining records are still summed.
func Summarize(records []models.Invoice) Summary {
	buckets := make(map[string]float64)
	summary := Summary{
		Monthly:    []MonthlyTotal{},
		Failed:     []FailedRecord{},
		TotalCount: len(records),
	}

	for i := range records {
		rec := &records[i]
		summary.ProcessedCount++

		c := classify(rec)
		if reason := c.failureReason(); reason != "" {
			summary.Failed = append(summary.Failed, FailedRecord{
				Identifier:    rec.Identifier(),
				ID:            rec.ID,
				InvoiceNumber: rec.InvoiceNumber,
				Reason:        reason,
			})
		}
		if c.panicked {
			continue
		}

		if c.amountOK {
			summary.TotalAllTime += c.amount
			if c.dateOK {
				buckets[c.month] += c.amount
			}
		}
	}

	for month, total := range buckets {
		summary.Monthly = append(summary.Monthly, MonthlyTotal{Month: month, TotalTWD: total})
	}
	sort.Slice(summary.Monthly, func(i, j int) bool {
		return summary.Monthly[i].Month > summary.Monthly[j].Month
	})

	return summary
}

// classify inspects one record without touching the running totals, so a
// panic half way leaves them consistent.
func classify(rec *models.Invoice) (c recordContribution) {
	defer func() {
		if r := recover(); r != nil {
			c = recordContribution{panicked: true, panicInfo: fmt.Sprint(r)}
		}
	}()

	if rec.InvoiceDateISO != nil && validISODate(*rec.InvoiceDateISO) {
		c.dateOK = true
		c.month = (*rec.InvoiceDateISO)[:7]
	}
	if rec.TotalAmountTWD != nil && !math.IsNaN(*rec.TotalAmountTWD) && !math.IsInf(*rec.TotalAmountTWD, 0) {
		c.amountOK = true
		c.amount = *rec.TotalAmountTWD
	}
	return c
}

func (c recordContribution) failureReason() string {
	switch {
	case c.panicked:
		return "processing error: " + c.panicInfo
	case !c.dateOK && !c.amountOK:
		return "invalid invoice date and TWD amount"
	case !c.dateOK:
		return "invalid invoice date"
	case !c.amountOK:
		return "invalid TWD amount"
	default:
		return ""
	}
}

func validISODate(s string) bool {
	if !isoDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
