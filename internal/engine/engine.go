// Package engine derives per-component payment status, totals and installment
// plans for a camp reservation from its raw payment records.
//
// The engine is a pure function of its input: it holds no mutable state and
// can be evaluated concurrently for independent reservations.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campportal/reservation-payments/internal/models"
)

const (
	labelCamp    = "Camp"
	labelDeposit = "Deposit"
	labelDiet    = "Diet"
)

// DefaultDepositBase is the amount that opens the deposit phase.
var DefaultDepositBase = decimal.NewFromInt(500)

type Config struct {
	DepositBase   decimal.Decimal
	OrderIDPrefix string
	Standard      PriorityOrder
	DepositPhase  PriorityOrder
}

func DefaultConfig() Config {
	return Config{
		DepositBase:   DefaultDepositBase,
		OrderIDPrefix: DefaultOrderIDPrefix,
		Standard:      StandardOrder,
		DepositPhase:  DepositPhaseOrder,
	}
}

type Engine struct {
	cfg        Config
	normalizer Normalizer
}

func New(cfg Config) (*Engine, error) {
	if cfg.DepositBase.IsNegative() {
		return nil, fmt.Errorf("deposit base must not be negative, got %s", cfg.DepositBase)
	}
	if err := cfg.Standard.Validate(); err != nil {
		return nil, err
	}
	if cfg.Standard.splitsCamp() {
		return nil, fmt.Errorf("order %s: standard order must not split the camp fee", cfg.Standard.Name)
	}
	if err := cfg.DepositPhase.Validate(); err != nil {
		return nil, err
	}
	if !cfg.DepositPhase.splitsCamp() {
		return nil, fmt.Errorf("order %s: deposit phase order must split the camp fee", cfg.DepositPhase.Name)
	}
	return &Engine{cfg: cfg, normalizer: Normalizer{OrderIDPrefix: cfg.OrderIDPrefix}}, nil
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Normalizer() Normalizer { return e.normalizer }

// Input is everything one computation needs. Catalog holds the resolved
// protections and add-ons; Missing lists selected ids the catalog lacked.
type Input struct {
	Reservation models.Reservation
	Catalog     map[models.ComponentID]models.CatalogEntry
	Missing     []models.ComponentID
	Gateway     []models.PaymentRecord
	Manual      []models.PaymentRecord
	States      []models.ComponentState
}

// components are the priced parts of a reservation before ordering.
type components struct {
	camp        decimal.Decimal
	protections []Line
	addons      []Line
	diet        []Line
	other       []Line
}

func (c components) extras() [][]Line {
	return [][]Line{c.protections, c.addons, c.diet, c.other}
}

// Compute derives the payment items and summary of one reservation.
func (e *Engine) Compute(in Input) models.ReservationPayments {
	res := in.Reservation
	norm := e.normalizer.Normalize(res.ID, in.Gateway, in.Manual)
	warnings := append([]string(nil), norm.Warnings...)
	for _, id := range in.Missing {
		warnings = append(warnings, fmt.Sprintf("%s has no catalog entry and was excluded", id))
	}

	lifecycle := make(map[models.ComponentID]models.ComponentLifecycle, len(in.States))
	refunded := decimal.Zero
	for _, st := range in.States {
		lifecycle[st.ComponentID] = st.State
		if st.State == models.LifecycleReturned {
			refunded = refunded.Add(st.RefundAmount)
		}
	}

	comps, compWarnings := e.components(in, lifecycle)
	warnings = append(warnings, compWarnings...)

	pool := decimal.Max(decimal.Zero, norm.Total.Sub(refunded))
	activeTotal := comps.camp
	for _, group := range comps.extras() {
		for _, l := range group {
			if l.active() {
				activeTotal = activeTotal.Add(l.Amount)
			}
		}
	}

	degenerate := !res.TotalPrice.IsPositive()
	depositPhase := !degenerate &&
		e.cfg.DepositBase.IsPositive() &&
		comps.camp.GreaterThan(e.cfg.DepositBase) &&
		pool.GreaterThanOrEqual(e.cfg.DepositBase) &&
		pool.LessThan(activeTotal)

	order := e.cfg.Standard
	if depositPhase {
		order = e.cfg.DepositPhase
	}
	lines := e.expand(order, comps)

	var allocations []Allocation
	if degenerate {
		// Selected extras keep their prices so the totals still match the items.
		warnings = append(warnings, fmt.Sprintf("total price %s is not positive, payments were not allocated",
			res.TotalPrice.StringFixed(2)))
		pool = decimal.Zero
		allocations = unallocated(lines)
	} else {
		allocations, _ = Waterfall(pool, lines)
	}

	items, folded := e.items(allocations, norm)
	if camp := campItem(items); camp != nil && res.PaymentPlan.IsInstallment() && camp.Status == models.ItemPartiallyPaid {
		remaining := camp.Amount
		var deposit *Deposit
		if folded != nil {
			remaining = camp.Amount.Sub(folded.Amount)
			deposit = folded
		}
		var instWarnings []string
		camp.Installments, instWarnings = Schedule(res.PaymentPlan, remaining, norm.Payments, deposit)
		warnings = append(warnings, instWarnings...)
	}

	summary := Summarize(items, pool, norm)
	summary.ReservationID = res.ID
	summary.DepositPhase = depositPhase
	summary.Warnings = warnings

	return models.ReservationPayments{Items: items, Summary: summary}
}

func (e *Engine) components(in Input, lifecycle map[models.ComponentID]models.ComponentLifecycle) (components, []string) {
	res := in.Reservation
	var (
		c        components
		warnings []string
	)
	extras := decimal.Zero

	add := func(group *[]Line, id models.ComponentID, label string, amount decimal.Decimal) {
		state, ok := lifecycle[id]
		if !ok {
			state = models.LifecycleActive
		}
		*group = append(*group, Line{ID: id, Label: label, Amount: amount, Lifecycle: state})
		extras = extras.Add(amount)
	}

	catalogLines := func(group *[]Line, ids []int64, mk func(int64) models.ComponentID) {
		seen := make(map[int64]bool, len(ids))
		for _, ref := range ids {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			id := mk(ref)
			entry, ok := in.Catalog[id]
			if !ok {
				if !models.ContainsComponent(in.Missing, id) {
					warnings = append(warnings, fmt.Sprintf("%s has no catalog entry and was excluded", id))
				}
				continue
			}
			add(group, id, entry.Name, entry.Price)
		}
	}

	catalogLines(&c.protections, res.Protections, models.ProtectionComponent)
	catalogLines(&c.addons, res.Addons, models.AddonComponent)
	if res.Diet != nil {
		label := res.Diet.Name
		if label == "" {
			label = labelDiet
		}
		add(&c.diet, models.DietComponent(), label, res.Diet.Price)
	}
	for _, ch := range res.OtherCharges {
		add(&c.other, models.OtherComponent(ch.Key), ch.Name, ch.Price)
	}

	c.camp = res.TotalPrice.Sub(extras)
	if c.camp.IsNegative() {
		warnings = append(warnings, fmt.Sprintf("selected components (%s) exceed the total price (%s)",
			extras.StringFixed(2), res.TotalPrice.StringFixed(2)))
		c.camp = decimal.Zero
	}
	return c, warnings
}

func (e *Engine) expand(order PriorityOrder, c components) []Line {
	deposit := decimal.Min(e.cfg.DepositBase, c.camp)
	active := models.LifecycleActive

	lines := make([]Line, 0, len(order.Slots)+len(c.protections)+len(c.addons)+len(c.other))
	for _, slot := range order.Slots {
		switch slot {
		case SlotCamp:
			lines = append(lines, Line{ID: models.CampComponent(), Label: labelCamp, Amount: c.camp, Lifecycle: active})
		case SlotDeposit:
			lines = append(lines, Line{ID: models.DepositComponent(), Label: labelDeposit, Amount: deposit, Lifecycle: active})
		case SlotCampRemainder:
			lines = append(lines, Line{ID: models.CampComponent(), Label: labelCamp, Amount: c.camp.Sub(deposit), Lifecycle: active})
		case SlotProtections:
			lines = append(lines, c.protections...)
		case SlotAddons:
			lines = append(lines, c.addons...)
		case SlotDiet:
			lines = append(lines, c.diet...)
		case SlotOther:
			lines = append(lines, c.other...)
		}
	}
	return lines
}

// items converts allocations into payment items. In the deposit phase the
// deposit stays a separate item until the rest of the camp fee receives money;
// from then on it is folded into the camp item and returned as a Deposit.
func (e *Engine) items(allocations []Allocation, norm Normalized) ([]models.PaymentItem, *Deposit) {
	depIdx, campIdx := -1, -1
	for i, a := range allocations {
		switch a.ID.Kind {
		case models.KindDeposit:
			depIdx = i
		case models.KindCamp:
			campIdx = i
		}
	}

	var folded *Deposit
	if depIdx >= 0 && campIdx >= 0 && allocations[campIdx].Allocated.IsPositive() {
		dep, rem := allocations[depIdx], allocations[campIdx]
		merged := Allocation{
			Line: Line{
				ID:        models.CampComponent(),
				Label:     labelCamp,
				Amount:    dep.Amount.Add(rem.Amount),
				Lifecycle: models.LifecycleActive,
			},
			Allocated: dep.Allocated.Add(rem.Allocated),
		}
		// Extras are paid between the deposit and the remainder, so the merged
		// item settles with the remainder's last payment.
		merged.Offset = rem.Offset.Add(rem.Allocated).Sub(merged.Allocated)
		merged.Status = allocationStatus(merged.Allocated, merged.Amount)
		folded = &Deposit{Amount: dep.Amount, Payment: settledBy(norm, dep.Offset.Add(dep.Allocated))}

		rest := make([]Allocation, 0, len(allocations)-1)
		for i, a := range allocations {
			switch i {
			case depIdx:
				rest = append(rest, merged)
			case campIdx:
			default:
				rest = append(rest, a)
			}
		}
		allocations = rest
	}

	items := make([]models.PaymentItem, 0, len(allocations))
	for _, a := range allocations {
		it := models.PaymentItem{
			ID:            a.ID,
			ComponentType: a.ID.Kind.ComponentType(),
			Label:         a.Label,
			Amount:        a.Amount,
			Allocated:     a.Allocated,
			Remaining:     a.Amount.Sub(a.Allocated),
			Status:        a.Status,
		}
		if !a.active() {
			it.Remaining = decimal.Zero
		}
		if a.Lifecycle == models.LifecyclePendingRefund {
			it.Status = models.ItemPendingRefund
		}
		if a.Allocated.IsPositive() {
			if p := settledBy(norm, a.Offset.Add(a.Allocated)); p != nil {
				ts := p.Timestamp
				it.PaidDate = &ts
				it.Method = p.Method
			}
		}
		items = append(items, it)
	}
	return items, folded
}

// settledBy returns the payment whose arrival brought the cumulative paid sum
// to threshold, falling back to the latest payment.
func settledBy(norm Normalized, threshold decimal.Decimal) *models.EffectivePayment {
	sum := decimal.Zero
	for i := range norm.Payments {
		sum = sum.Add(norm.Payments[i].Amount)
		if sum.GreaterThanOrEqual(threshold) {
			p := norm.Payments[i]
			return &p
		}
	}
	return norm.Latest()
}

func unallocated(lines []Line) []Allocation {
	out := make([]Allocation, len(lines))
	for i, l := range lines {
		out[i] = Allocation{Line: l, Allocated: decimal.Zero, Offset: decimal.Zero, Status: models.ItemUnpaid}
		if !l.active() {
			out[i].Status = terminalStatus(l.Lifecycle)
		}
	}
	return out
}

func campItem(items []models.PaymentItem) *models.PaymentItem {
	for i := range items {
		if items[i].ID.Kind == models.KindCamp {
			return &items[i]
		}
	}
	return nil
}
