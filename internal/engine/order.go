package engine

import (
	"fmt"
	"strings"
)

// Slot is one position in a priority order. Group slots (protections, addons,
// other) expand to every selected component of that kind, in selection order.
type Slot string

const (
	SlotCamp          Slot = "camp"
	SlotDeposit       Slot = "deposit"
	SlotCampRemainder Slot = "camp_remainder"
	SlotProtections   Slot = "protections"
	SlotAddons        Slot = "addons"
	SlotDiet          Slot = "diet"
	SlotOther         Slot = "other"
)

// PriorityOrder is the sequence in which paid money is poured into components.
type PriorityOrder struct {
	Name  string
	Slots []Slot
}

var (
	// StandardOrder pays the camp fee first, then the extras.
	StandardOrder = PriorityOrder{
		Name:  "standard",
		Slots: []Slot{SlotCamp, SlotProtections, SlotDiet, SlotAddons, SlotOther},
	}

	// DepositPhaseOrder covers the deposit and the extras before the rest of the
	// camp fee.
	DepositPhaseOrder = PriorityOrder{
		Name:  "deposit_phase",
		Slots: []Slot{SlotDeposit, SlotProtections, SlotAddons, SlotDiet, SlotOther, SlotCampRemainder},
	}
)

func (o PriorityOrder) String() string {
	parts := make([]string, len(o.Slots))
	for i, s := range o.Slots {
		parts[i] = string(s)
	}
	return o.Name + "[" + strings.Join(parts, ",") + "]"
}

func (o PriorityOrder) has(slot Slot) bool {
	for _, s := range o.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Validate checks that every billable component is reachable exactly once.
// The camp fee is covered either whole or as deposit plus remainder.
func (o PriorityOrder) Validate() error {
	seen := make(map[Slot]bool, len(o.Slots))
	for _, s := range o.Slots {
		switch s {
		case SlotCamp, SlotDeposit, SlotCampRemainder, SlotProtections, SlotAddons, SlotDiet, SlotOther:
		default:
			return fmt.Errorf("order %s: unknown slot %q", o.Name, s)
		}
		if seen[s] {
			return fmt.Errorf("order %s: slot %q listed twice", o.Name, s)
		}
		seen[s] = true
	}

	split := seen[SlotDeposit] || seen[SlotCampRemainder]
	switch {
	case seen[SlotCamp] && split:
		return fmt.Errorf("order %s: camp listed both whole and split", o.Name)
	case !seen[SlotCamp] && !(seen[SlotDeposit] && seen[SlotCampRemainder]):
		return fmt.Errorf("order %s: camp fee not covered", o.Name)
	}

	for _, s := range []Slot{SlotProtections, SlotAddons, SlotDiet, SlotOther} {
		if !seen[s] {
			return fmt.Errorf("order %s: missing slot %q", o.Name, s)
		}
	}
	return nil
}

func (o PriorityOrder) splitsCamp() bool {
	return o.has(SlotDeposit)
}
