package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campportal/reservation-payments/internal/models"
)

// SplitEvenly divides amount into n parts rounded to cents. The last part
// absorbs the rounding remainder so the parts always sum to amount.
func SplitEvenly(amount decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	parts := make([]decimal.Decimal, n)
	share := amount.DivRound(decimal.NewFromInt(int64(n)), 2)
	for i := 0; i < n-1; i++ {
		parts[i] = share
	}
	parts[n-1] = amount.Sub(share.Mul(decimal.NewFromInt(int64(n - 1))))
	return parts
}

// Deposit describes a paid deposit shown as installment 0.
type Deposit struct {
	Amount  decimal.Decimal
	Payment *models.EffectivePayment
}

// Schedule builds the installment plan for the camp component and reconciles
// it against payments tagged "installment i/n". Tagged slots report what was
// actually recorded; the others report the expected share as unpaid.
func Schedule(plan models.PaymentPlan, remaining decimal.Decimal, payments []models.EffectivePayment, deposit *Deposit) ([]models.Installment, []string) {
	if !plan.IsInstallment() {
		return nil, nil
	}
	n := int(plan)

	var (
		warnings []string
		out      = make([]models.Installment, 0, n+1)
	)

	if deposit != nil {
		inst := models.Installment{Index: 0, Amount: deposit.Amount, Paid: true}
		if deposit.Payment != nil {
			ts := deposit.Payment.Timestamp
			inst.PaidDate = &ts
			inst.Method = deposit.Payment.Method
		}
		out = append(out, inst)
	}

	type slot struct {
		amount decimal.Decimal
		latest *models.EffectivePayment
	}
	matched := make(map[int]*slot, n)
	for i := range payments {
		p := payments[i]
		if p.Installment == nil {
			continue
		}
		if p.Installment.Of != n {
			warnings = append(warnings, fmt.Sprintf("payment %s tagged installment %d/%d does not match a %d-part plan",
				p.RecordID, p.Installment.Index, p.Installment.Of, n))
			continue
		}
		s, ok := matched[p.Installment.Index]
		if !ok {
			s = &slot{amount: decimal.Zero}
			matched[p.Installment.Index] = s
		}
		s.amount = s.amount.Add(p.Amount)
		s.latest = &payments[i]
	}

	shares := SplitEvenly(remaining, n)
	for i := 1; i <= n; i++ {
		inst := models.Installment{Index: i, Amount: shares[i-1]}
		if s, ok := matched[i]; ok {
			ts := s.latest.Timestamp
			inst.Amount = s.amount
			inst.Paid = true
			inst.PaidDate = &ts
			inst.Method = s.latest.Method
		}
		out = append(out, inst)
	}
	return out, warnings
}
