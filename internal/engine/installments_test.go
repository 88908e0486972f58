package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campportal/reservation-payments/internal/models"
)

func sumInstallments(insts []models.Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, in := range insts {
		if in.Index > 0 {
			sum = sum.Add(in.Amount)
		}
	}
	return sum
}

func TestSplitEvenly(t *testing.T) {
	t.Run("B: two installments of 975", func(t *testing.T) {
		parts := SplitEvenly(dec("1950"), 2)
		require.Len(t, parts, 2)
		assert.Equal(t, "975.00", parts[0].StringFixed(2))
		assert.Equal(t, "975.00", parts[1].StringFixed(2))
	})

	t.Run("C: three installments of 650", func(t *testing.T) {
		parts := SplitEvenly(dec("1950"), 3)
		require.Len(t, parts, 3)
		for _, p := range parts {
			assert.Equal(t, "650.00", p.StringFixed(2))
		}
	})

	t.Run("last installment absorbs the rounding remainder", func(t *testing.T) {
		parts := SplitEvenly(dec("1000"), 3)
		assert.Equal(t, "333.33", parts[0].StringFixed(2))
		assert.Equal(t, "333.33", parts[1].StringFixed(2))
		assert.Equal(t, "333.34", parts[2].StringFixed(2))

		parts = SplitEvenly(dec("100.01"), 2)
		assert.Equal(t, "50.01", parts[0].StringFixed(2))
		assert.Equal(t, "50.00", parts[1].StringFixed(2))
	})

	t.Run("parts always sum to the amount", func(t *testing.T) {
		for _, s := range []string{"0", "0.01", "1", "1949.99", "2050", "12345.67"} {
			for _, n := range []int{2, 3} {
				sum := decimal.Zero
				for _, p := range SplitEvenly(dec(s), n) {
					sum = sum.Add(p)
				}
				assert.True(t, sum.Equal(dec(s)), "%s / %d", s, n)
			}
		}
	})

	t.Run("non-positive count yields nothing", func(t *testing.T) {
		assert.Nil(t, SplitEvenly(dec("100"), 0))
	})
}

func TestSchedule(t *testing.T) {
	t.Run("plan none produces no schedule", func(t *testing.T) {
		insts, warnings := Schedule(models.PlanNone, dec("1950"), nil, nil)
		assert.Nil(t, insts)
		assert.Nil(t, warnings)
	})

	t.Run("unmatched slots report the expected share", func(t *testing.T) {
		insts, _ := Schedule(models.PlanTwoInstallments, dec("1950"), nil, nil)
		require.Len(t, insts, 2)
		assert.Equal(t, 1, insts[0].Index)
		assert.Equal(t, 2, insts[1].Index)
		assert.False(t, insts[0].Paid)
		assert.True(t, sumInstallments(insts).Equal(dec("1950")))
	})

	t.Run("tagged payments fill their slot with the recorded amount", func(t *testing.T) {
		payments := []models.EffectivePayment{
			{RecordID: "a", Amount: dec("600"), Timestamp: t0, Method: "blik", Installment: &models.InstallmentTag{Index: 1, Of: 3}},
			{RecordID: "b", Amount: dec("60"), Timestamp: t0.Add(time.Hour), Method: "bank_transfer", Installment: &models.InstallmentTag{Index: 1, Of: 3}},
			{RecordID: "c", Amount: dec("100"), Timestamp: t0},
		}
		insts, warnings := Schedule(models.PlanThreeInstallments, dec("1950"), payments, nil)
		assert.Empty(t, warnings)
		require.Len(t, insts, 3)
		assert.True(t, insts[0].Paid)
		assert.True(t, insts[0].Amount.Equal(dec("660")))
		assert.Equal(t, "bank_transfer", insts[0].Method)
		require.NotNil(t, insts[0].PaidDate)
		assert.True(t, insts[0].PaidDate.Equal(t0.Add(time.Hour)))
		assert.False(t, insts[1].Paid)
		assert.True(t, insts[1].Amount.Equal(dec("650")))
	})

	t.Run("tags for another plan size are ignored with a warning", func(t *testing.T) {
		payments := []models.EffectivePayment{
			{RecordID: "a", Amount: dec("975"), Timestamp: t0, Installment: &models.InstallmentTag{Index: 1, Of: 2}},
		}
		insts, warnings := Schedule(models.PlanThreeInstallments, dec("1950"), payments, nil)
		require.Len(t, warnings, 1)
		for _, in := range insts {
			assert.False(t, in.Paid)
		}
	})

	t.Run("a paid deposit is installment zero", func(t *testing.T) {
		dep := &Deposit{Amount: dec("500"), Payment: &models.EffectivePayment{Timestamp: t0, Method: "gateway"}}
		insts, _ := Schedule(models.PlanTwoInstallments, dec("2050"), nil, dep)
		require.Len(t, insts, 3)
		assert.Equal(t, 0, insts[0].Index)
		assert.True(t, insts[0].Paid)
		assert.Equal(t, "gateway", insts[0].Method)
		assert.True(t, sumInstallments(insts).Equal(dec("2050")))
	})
}
