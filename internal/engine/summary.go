package engine

import (
	"github.com/shopspring/decimal"

	"github.com/campportal/reservation-payments/internal/models"
)

// Summarize aggregates item statuses into reservation-level totals.
// pool is the effective paid amount available for allocation.
func Summarize(items []models.PaymentItem, pool decimal.Decimal, norm Normalized) models.PaymentSummary {
	total := decimal.Zero
	anyReturned, anyCanceled, anyPartial := false, false, false
	allSettled := true

	for _, it := range items {
		switch it.Status {
		case models.ItemReturned:
			anyReturned = true
			continue
		case models.ItemCanceled:
			anyCanceled = true
			continue
		case models.ItemPartiallyPaid:
			anyPartial = true
		}
		total = total.Add(it.Amount)
		if !it.Status.IsSettled() {
			allSettled = false
		}
	}

	paid := decimal.Min(decimal.Max(pool, decimal.Zero), total)
	s := models.PaymentSummary{
		TotalAmount:           total,
		PaidAmount:            paid,
		RemainingAmount:       decimal.Max(decimal.Zero, total.Sub(paid)),
		EffectivePaymentCount: len(norm.Payments),
	}

	switch {
	case anyReturned:
		s.OverallStatus = models.OverallReturned
	case allSettled && paid.GreaterThanOrEqual(total):
		s.OverallStatus = models.OverallPaid
	case (paid.IsPositive() && paid.LessThan(total)) || anyPartial:
		s.OverallStatus = models.OverallPartial
	default:
		s.OverallStatus = models.OverallUnpaid
	}

	s.InvoicePaidEligible = s.OverallStatus == models.OverallPaid && !anyCanceled && len(norm.Payments) > 0

	if latest := norm.Latest(); latest != nil {
		ts := latest.Timestamp
		s.LastPaymentDate = &ts
		s.LastPaymentMethod = latest.Method
	}
	return s
}
