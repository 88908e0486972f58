package engine

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campportal/reservation-payments/internal/models"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	return e
}

func manualPayment(id, amount string, at time.Time) models.PaymentRecord {
	return models.PaymentRecord{ID: id, Source: models.SourceManual, Amount: amt(amount), Status: models.RecordSuccess, Timestamp: at}
}

func campOnly(total string) models.Reservation {
	return models.Reservation{ID: 1, CampID: 10, PropertyID: 20, TotalPrice: dec(total)}
}

// withExtras: total 3000 with two protections, one add-on and a diet.
func withExtras() (models.Reservation, map[models.ComponentID]models.CatalogEntry) {
	res := models.Reservation{
		ID:          1,
		CampID:      10,
		PropertyID:  20,
		TotalPrice:  dec("3000"),
		Protections: []int64{1, 2},
		Addons:      []int64{5},
		Diet:        &models.Charge{Key: "vege", Name: "Vegetarian", Price: dec("150")},
	}
	catalog := map[models.ComponentID]models.CatalogEntry{
		models.ProtectionComponent(1): {ID: 1, Name: "Cancellation insurance", Price: dec("120")},
		models.ProtectionComponent(2): {ID: 2, Name: "NNW", Price: dec("80")},
		models.AddonComponent(5):      {ID: 5, Name: "Horse riding", Price: dec("250")},
	}
	return res, catalog
}

func item(t *testing.T, items []models.PaymentItem, id models.ComponentID) models.PaymentItem {
	t.Helper()
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	require.FailNow(t, "item not found", id.String())
	return models.PaymentItem{}
}

func activeSum(items []models.PaymentItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.Status.IsActive() {
			sum = sum.Add(it.Amount)
		}
	}
	return sum
}

func TestNewEngine(t *testing.T) {
	t.Run("rejects negative deposit base", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DepositBase = dec("-1")
		_, err := New(cfg)
		assert.Error(t, err)
	})

	t.Run("rejects swapped orders", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Standard, cfg.DepositPhase = cfg.DepositPhase, cfg.Standard
		_, err := New(cfg)
		assert.Error(t, err)
	})

	t.Run("accepts a reordered standard order", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Standard = PriorityOrder{Name: "extras_first", Slots: []Slot{SlotProtections, SlotAddons, SlotDiet, SlotOther, SlotCamp}}
		_, err := New(cfg)
		assert.NoError(t, err)
	})
}

func TestComputeScenarios(t *testing.T) {
	e := newEngine(t)

	t.Run("A: partial payment above the deposit folds into the camp item", func(t *testing.T) {
		out := e.Compute(Input{
			Reservation: campOnly("2550"),
			Manual:      []models.PaymentRecord{manualPayment("m1", "600", t0)},
		})
		require.Len(t, out.Items, 1)
		camp := out.Items[0]
		assert.Equal(t, models.CampComponent(), camp.ID)
		assert.True(t, camp.Amount.Equal(dec("2550")))
		assert.Equal(t, models.ItemPartiallyPaid, camp.Status)
		assert.True(t, camp.Remaining.Equal(dec("1950")))
		assert.True(t, out.Summary.RemainingAmount.Equal(dec("1950")))
		assert.Equal(t, models.OverallPartial, out.Summary.OverallStatus)
		assert.True(t, out.Summary.DepositPhase)
	})

	t.Run("D: exact deposit pays the deposit item only", func(t *testing.T) {
		out := e.Compute(Input{
			Reservation: campOnly("2550"),
			Manual:      []models.PaymentRecord{manualPayment("m1", "500", t0)},
		})
		require.Len(t, out.Items, 2)
		dep := item(t, out.Items, models.DepositComponent())
		camp := item(t, out.Items, models.CampComponent())
		assert.Equal(t, models.ItemPaid, dep.Status)
		assert.Equal(t, models.KindCamp, dep.ComponentType)
		assert.Equal(t, models.ItemUnpaid, camp.Status)
		assert.True(t, camp.Amount.Equal(dec("2050")))
		assert.True(t, out.Summary.RemainingAmount.Equal(dec("2050")))
		assert.True(t, out.Summary.DepositPhase)
	})

	t.Run("E: fully paid without cancellations is invoice eligible", func(t *testing.T) {
		res, catalog := withExtras()
		out := e.Compute(Input{
			Reservation: res,
			Catalog:     catalog,
			Gateway: []models.PaymentRecord{
				{ID: "g1", OrderID: "RES-1", Amount: amt("3000"), PaidAmount: amt("3000"), Status: models.RecordSuccess, Timestamp: t0},
			},
		})
		assert.Equal(t, models.OverallPaid, out.Summary.OverallStatus)
		assert.True(t, out.Summary.RemainingAmount.IsZero())
		assert.True(t, out.Summary.InvoicePaidEligible)
		for _, it := range out.Items {
			assert.Equal(t, models.ItemPaid, it.Status, it.ID.String())
		}
	})

	t.Run("E: one canceled item disqualifies invoice eligibility", func(t *testing.T) {
		res, catalog := withExtras()
		out := e.Compute(Input{
			Reservation: res,
			Catalog:     catalog,
			Manual:      []models.PaymentRecord{manualPayment("m1", "2920", t0)},
			States: []models.ComponentState{
				{ReservationID: 1, ComponentID: models.ProtectionComponent(2), State: models.LifecycleCanceled},
			},
		})
		assert.True(t, out.Summary.TotalAmount.Equal(dec("2920")))
		assert.True(t, out.Summary.RemainingAmount.IsZero())
		assert.Equal(t, models.OverallPaid, out.Summary.OverallStatus)
		assert.False(t, out.Summary.InvoicePaidEligible)
		canceled := item(t, out.Items, models.ProtectionComponent(2))
		assert.Equal(t, models.ItemCanceled, canceled.Status)
		assert.True(t, canceled.Allocated.IsZero())
	})
}

func TestComputeAllocationOrder(t *testing.T) {
	e := newEngine(t)
	res, catalog := withExtras()

	t.Run("below the deposit everything goes to the camp fee", func(t *testing.T) {
		out := e.Compute(Input{Reservation: res, Catalog: catalog, Manual: []models.PaymentRecord{manualPayment("m1", "300", t0)}})
		assert.False(t, out.Summary.DepositPhase)
		camp := item(t, out.Items, models.CampComponent())
		assert.True(t, camp.Amount.Equal(dec("2400")))
		assert.True(t, camp.Allocated.Equal(dec("300")))
		assert.Equal(t, models.ItemUnpaid, item(t, out.Items, models.ProtectionComponent(1)).Status)
	})

	t.Run("deposit phase covers extras before the camp remainder", func(t *testing.T) {
		out := e.Compute(Input{Reservation: res, Catalog: catalog, Manual: []models.PaymentRecord{manualPayment("m1", "800", t0)}})
		assert.True(t, out.Summary.DepositPhase)
		assert.Equal(t, models.ItemPaid, item(t, out.Items, models.DepositComponent()).Status)
		assert.Equal(t, models.ItemPaid, item(t, out.Items, models.ProtectionComponent(1)).Status)
		assert.Equal(t, models.ItemPaid, item(t, out.Items, models.ProtectionComponent(2)).Status)
		addon := item(t, out.Items, models.AddonComponent(5))
		assert.Equal(t, models.ItemPartiallyPaid, addon.Status)
		assert.True(t, addon.Allocated.Equal(dec("100")))
		assert.Equal(t, models.ItemUnpaid, item(t, out.Items, models.DietComponent()).Status)
		assert.Equal(t, models.ItemUnpaid, item(t, out.Items, models.CampComponent()).Status)
	})

	t.Run("items are listed in priority order", func(t *testing.T) {
		out := e.Compute(Input{Reservation: res, Catalog: catalog})
		ids := make([]string, len(out.Items))
		for i, it := range out.Items {
			ids[i] = it.ID.String()
		}
		assert.Equal(t, []string{"camp", "protection:1", "protection:2", "diet", "addon:5"}, ids)
	})

	t.Run("a custom order changes the result without touching the loop", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Standard = PriorityOrder{Name: "extras_first", Slots: []Slot{SlotProtections, SlotAddons, SlotDiet, SlotOther, SlotCamp}}
		custom, err := New(cfg)
		require.NoError(t, err)

		out := custom.Compute(Input{Reservation: res, Catalog: catalog, Manual: []models.PaymentRecord{manualPayment("m1", "300", t0)}})
		assert.Equal(t, models.ItemPaid, item(t, out.Items, models.ProtectionComponent(1)).Status)
		assert.Equal(t, models.ItemUnpaid, item(t, out.Items, models.CampComponent()).Status)
	})
}

func TestComputeEdgeCases(t *testing.T) {
	e := newEngine(t)

	t.Run("degenerate total reports everything unpaid", func(t *testing.T) {
		res, catalog := withExtras()
		res.TotalPrice = decimal.Zero
		out := e.Compute(Input{Reservation: res, Catalog: catalog, Manual: []models.PaymentRecord{manualPayment("m1", "500", t0)}})
		for _, it := range out.Items {
			assert.Equal(t, models.ItemUnpaid, it.Status, it.ID.String())
			assert.True(t, it.Allocated.IsZero())
		}
		assert.True(t, out.Summary.PaidAmount.IsZero())
		assert.Equal(t, models.OverallUnpaid, out.Summary.OverallStatus)
		assert.False(t, out.Summary.InvoicePaidEligible)
	})

	t.Run("degenerate total keeps the extras' prices in the totals", func(t *testing.T) {
		res, catalog := withExtras()
		res.TotalPrice = decimal.Zero
		out := e.Compute(Input{Reservation: res, Catalog: catalog})

		assert.True(t, item(t, out.Items, models.CampComponent()).Amount.IsZero())
		assert.True(t, out.Summary.TotalAmount.Equal(dec("600")))
		assert.True(t, out.Summary.TotalAmount.Equal(activeSum(out.Items)))
		assert.True(t, out.Summary.RemainingAmount.Equal(dec("600")))

		var notPositive, exceeds bool
		for _, w := range out.Summary.Warnings {
			notPositive = notPositive || strings.Contains(w, "is not positive")
			exceeds = exceeds || strings.Contains(w, "exceed the total price")
		}
		assert.True(t, notPositive, out.Summary.Warnings)
		assert.True(t, exceeds, out.Summary.Warnings)
	})

	t.Run("missing catalog entries are excluded with a warning", func(t *testing.T) {
		res, catalog := withExtras()
		delete(catalog, models.AddonComponent(5))
		out := e.Compute(Input{Reservation: res, Catalog: catalog, Missing: []models.ComponentID{models.AddonComponent(5)}})
		for _, it := range out.Items {
			assert.NotEqual(t, models.AddonComponent(5), it.ID)
		}
		require.Len(t, out.Summary.Warnings, 1)
		assert.Contains(t, out.Summary.Warnings[0], "addon:5")
		assert.True(t, activeSum(out.Items).Equal(dec("3000")))
	})

	t.Run("duplicate selections are counted once", func(t *testing.T) {
		res, catalog := withExtras()
		res.Protections = []int64{1, 1, 2}
		out := e.Compute(Input{Reservation: res, Catalog: catalog})
		assert.Len(t, out.Items, 5)
	})

	t.Run("overpayment is capped at the total", func(t *testing.T) {
		out := e.Compute(Input{Reservation: campOnly("1000"), Manual: []models.PaymentRecord{manualPayment("m1", "1200", t0)}})
		assert.True(t, out.Summary.PaidAmount.Equal(dec("1000")))
		assert.True(t, out.Summary.RemainingAmount.IsZero())
		assert.Equal(t, models.OverallPaid, out.Summary.OverallStatus)
	})

	t.Run("a returned item drops out and its refund leaves the pool", func(t *testing.T) {
		res, catalog := withExtras()
		out := e.Compute(Input{
			Reservation: res,
			Catalog:     catalog,
			Manual:      []models.PaymentRecord{manualPayment("m1", "3000", t0)},
			States: []models.ComponentState{
				{ComponentID: models.AddonComponent(5), State: models.LifecycleReturned, RefundAmount: dec("250")},
			},
		})
		returned := item(t, out.Items, models.AddonComponent(5))
		assert.Equal(t, models.ItemReturned, returned.Status)
		assert.True(t, returned.Allocated.IsZero())
		assert.True(t, out.Summary.TotalAmount.Equal(dec("2750")))
		assert.True(t, out.Summary.PaidAmount.Equal(dec("2750")))
		assert.Equal(t, models.OverallReturned, out.Summary.OverallStatus)
		assert.False(t, out.Summary.InvoicePaidEligible)
	})

	t.Run("pending refund keeps the item paid", func(t *testing.T) {
		res, catalog := withExtras()
		out := e.Compute(Input{
			Reservation: res,
			Catalog:     catalog,
			Manual:      []models.PaymentRecord{manualPayment("m1", "3000", t0)},
			States: []models.ComponentState{
				{ComponentID: models.AddonComponent(5), State: models.LifecyclePendingRefund},
			},
		})
		assert.Equal(t, models.ItemPendingRefund, item(t, out.Items, models.AddonComponent(5)).Status)
		assert.Equal(t, models.OverallPaid, out.Summary.OverallStatus)
	})

	t.Run("folded camp item is dated by the last payment reaching the remainder", func(t *testing.T) {
		res, catalog := withExtras()
		out := e.Compute(Input{
			Reservation: res,
			Catalog:     catalog,
			Manual: []models.PaymentRecord{
				manualPayment("m1", "500", t0),
				manualPayment("m2", "600", t0.Add(24*time.Hour)),
				manualPayment("m3", "100", t0.Add(48*time.Hour)),
			},
		})
		camp := item(t, out.Items, models.CampComponent())
		assert.True(t, camp.Allocated.Equal(dec("600")))
		require.NotNil(t, camp.PaidDate)
		assert.True(t, camp.PaidDate.Equal(t0.Add(48*time.Hour)), "paid date %s", camp.PaidDate)
	})

	t.Run("paid date is the payment that completed the item", func(t *testing.T) {
		out := e.Compute(Input{
			Reservation: campOnly("1000"),
			Manual: []models.PaymentRecord{
				manualPayment("m1", "400", t0),
				manualPayment("m2", "600", t0.Add(24*time.Hour)),
			},
		})
		camp := item(t, out.Items, models.CampComponent())
		require.NotNil(t, camp.PaidDate)
		assert.True(t, camp.PaidDate.Equal(t0.Add(24*time.Hour)))
		require.NotNil(t, out.Summary.LastPaymentDate)
		assert.Equal(t, "bank_transfer", out.Summary.LastPaymentMethod)
	})
}

func TestComputeInstallments(t *testing.T) {
	e := newEngine(t)

	t.Run("deposit becomes installment zero of a folded camp item", func(t *testing.T) {
		res := campOnly("2550")
		res.PaymentPlan = models.PlanTwoInstallments
		out := e.Compute(Input{
			Reservation: res,
			Manual: []models.PaymentRecord{
				manualPayment("m1", "500", t0),
				{ID: "m2", Amount: amt("1025"), Timestamp: t0.Add(time.Hour), Description: "installment 1/2"},
			},
		})
		camp := item(t, out.Items, models.CampComponent())
		require.Len(t, camp.Installments, 3)
		assert.Equal(t, 0, camp.Installments[0].Index)
		assert.True(t, camp.Installments[0].Amount.Equal(dec("500")))
		assert.True(t, camp.Installments[0].Paid)
		assert.True(t, camp.Installments[1].Paid)
		assert.True(t, camp.Installments[1].Amount.Equal(dec("1025")))
		assert.False(t, camp.Installments[2].Paid)
		assert.True(t, camp.Installments[2].Amount.Equal(dec("1025")))
	})

	t.Run("a folded plan with extras splits only the camp fee", func(t *testing.T) {
		res, catalog := withExtras()
		res.PaymentPlan = models.PlanTwoInstallments
		out := e.Compute(Input{Reservation: res, Catalog: catalog, Manual: []models.PaymentRecord{manualPayment("m1", "1200", t0)}})

		camp := item(t, out.Items, models.CampComponent())
		assert.True(t, camp.Amount.Equal(dec("2400")))
		assert.True(t, camp.Allocated.Equal(dec("600")))
		assert.Equal(t, models.ItemPartiallyPaid, camp.Status)

		require.Len(t, camp.Installments, 3)
		assert.True(t, camp.Installments[0].Amount.Equal(dec("500")))
		assert.True(t, camp.Installments[0].Paid)
		assert.True(t, camp.Installments[1].Amount.Equal(dec("950")))
		assert.True(t, camp.Installments[2].Amount.Equal(dec("950")))

		sum := decimal.Zero
		for _, inst := range camp.Installments {
			sum = sum.Add(inst.Amount)
		}
		assert.True(t, sum.Equal(camp.Amount), "installments sum to %s", sum)
	})

	t.Run("without a deposit the full camp amount is split", func(t *testing.T) {
		res := campOnly("2550")
		res.PaymentPlan = models.PlanThreeInstallments
		out := e.Compute(Input{Reservation: res, Manual: []models.PaymentRecord{manualPayment("m1", "300", t0)}})
		camp := item(t, out.Items, models.CampComponent())
		require.Len(t, camp.Installments, 3)
		for _, inst := range camp.Installments {
			assert.True(t, inst.Amount.Equal(dec("850")))
			assert.False(t, inst.Paid)
		}
	})

	t.Run("no schedule when the camp item is not partially paid", func(t *testing.T) {
		res := campOnly("2550")
		res.PaymentPlan = models.PlanTwoInstallments
		out := e.Compute(Input{Reservation: res})
		assert.Empty(t, item(t, out.Items, models.CampComponent()).Installments)
	})
}

func TestComputeProperties(t *testing.T) {
	e := newEngine(t)
	res, catalog := withExtras()
	states := []models.ComponentState{{ComponentID: models.ProtectionComponent(2), State: models.LifecycleCanceled}}

	paidByType := func(items []models.PaymentItem) map[models.ComponentKind]decimal.Decimal {
		out := map[models.ComponentKind]decimal.Decimal{}
		for _, it := range items {
			out[it.ComponentType] = out[it.ComponentType].Add(it.Allocated)
		}
		return out
	}

	rank := map[models.ItemStatus]int{models.ItemUnpaid: 0, models.ItemPartiallyPaid: 1, models.ItemPaid: 2}

	var prev *models.ReservationPayments
	for paid := 0; paid <= 3200; paid += 25 {
		in := Input{
			Reservation: res,
			Catalog:     catalog,
			States:      states,
			Manual:      []models.PaymentRecord{manualPayment("m1", decimal.NewFromInt(int64(paid)).String(), t0)},
		}
		out := e.Compute(in)
		pool := decimal.NewFromInt(int64(paid))

		assert.True(t, activeSum(out.Items).Equal(out.Summary.TotalAmount), "sum of active items at %d", paid)
		assert.True(t, out.Summary.TotalAmount.Equal(dec("2920")), "total at %d", paid)
		assert.True(t, out.Summary.PaidAmount.Equal(decimal.Min(pool, out.Summary.TotalAmount)), "paid at %d", paid)

		for _, it := range out.Items {
			if !it.Status.IsActive() {
				assert.True(t, it.Allocated.IsZero(), "inactive %s allocated at %d", it.ID, paid)
			}
		}

		again := e.Compute(in)
		a, _ := json.Marshal(out)
		b, _ := json.Marshal(again)
		assert.Equal(t, string(a), string(b), "idempotent at %d", paid)

		if prev != nil {
			before, after := paidByType(prev.Items), paidByType(out.Items)
			for kind, amount := range before {
				assert.True(t, after[kind].GreaterThanOrEqual(amount), "%s allocation decreased at %d", kind, paid)
			}
			for _, it := range prev.Items {
				if it.ID.Kind == models.KindDeposit || it.ID.Kind == models.KindCamp {
					continue
				}
				next := item(t, out.Items, it.ID)
				assert.GreaterOrEqual(t, rank[next.Status], rank[it.Status], "%s status regressed at %d", it.ID, paid)
			}
		}
		prev = &out
	}
}
