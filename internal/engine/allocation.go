package engine

import (
	"github.com/shopspring/decimal"

	"github.com/campportal/reservation-payments/internal/models"
)

// Line is a billable component placed in a priority order.
type Line struct {
	ID        models.ComponentID
	Label     string
	Amount    decimal.Decimal
	Lifecycle models.ComponentLifecycle
}

func (l Line) active() bool {
	return !l.Lifecycle.IsTerminal()
}

// Allocation is the waterfall result for one line.
type Allocation struct {
	Line
	Allocated decimal.Decimal
	// Offset is the total allocated to higher-priority lines.
	Offset decimal.Decimal
	Status models.ItemStatus
}

// Waterfall pours pool into lines in order, filling each one completely before
// moving on. Inactive lines are skipped and receive nothing. It returns the
// allocations in line order and whatever could not be placed.
func Waterfall(pool decimal.Decimal, lines []Line) ([]Allocation, decimal.Decimal) {
	remaining := decimal.Max(pool, decimal.Zero)
	offset := decimal.Zero
	out := make([]Allocation, 0, len(lines))

	for _, line := range lines {
		a := Allocation{Line: line, Allocated: decimal.Zero, Offset: offset}
		if !line.active() {
			a.Status = terminalStatus(line.Lifecycle)
			out = append(out, a)
			continue
		}

		a.Allocated = decimal.Min(remaining, line.Amount)
		remaining = remaining.Sub(a.Allocated)
		offset = offset.Add(a.Allocated)
		a.Status = allocationStatus(a.Allocated, line.Amount)
		out = append(out, a)
	}
	return out, remaining
}

func allocationStatus(allocated, amount decimal.Decimal) models.ItemStatus {
	switch {
	case allocated.Equal(amount):
		return models.ItemPaid
	case allocated.IsPositive():
		return models.ItemPartiallyPaid
	default:
		return models.ItemUnpaid
	}
}

func terminalStatus(l models.ComponentLifecycle) models.ItemStatus {
	if l == models.LifecycleReturned {
		return models.ItemReturned
	}
	return models.ItemCanceled
}
