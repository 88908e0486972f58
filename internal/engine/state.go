package engine

import (
	"fmt"

	"github.com/campportal/reservation-payments/internal/models"
)

// Transition validates a back-office action against the derived status of an
// item and returns the persisted lifecycle change it causes.
//
//	unpaid         --cancel-->          canceled (terminal)
//	paid           --refund_request-->  pending_refund
//	pending_refund --refund_confirm-->  returned (terminal)
//	pending_refund --refund_abort-->    paid
func Transition(status models.ItemStatus, action models.ItemAction) (from, to models.ComponentLifecycle, err error) {
	switch action {
	case models.ActionCancel:
		if status == models.ItemUnpaid {
			return models.LifecycleActive, models.LifecycleCanceled, nil
		}
	case models.ActionRequestRefund:
		if status == models.ItemPaid {
			return models.LifecycleActive, models.LifecyclePendingRefund, nil
		}
	case models.ActionConfirmRefund:
		if status == models.ItemPendingRefund {
			return models.LifecyclePendingRefund, models.LifecycleReturned, nil
		}
	case models.ActionAbortRefund:
		if status == models.ItemPendingRefund {
			return models.LifecyclePendingRefund, models.LifecycleActive, nil
		}
	default:
		return "", "", fmt.Errorf("%w: unknown action %q", models.ErrInvalidInput, action)
	}
	return "", "", fmt.Errorf("%w: cannot %s an item that is %s", models.ErrInvalidTransition, action, status)
}

// Actionable reports whether back-office actions may target the component.
// The camp fee and its deposit are settled through the reservation itself.
func Actionable(id models.ComponentID) bool {
	switch id.Kind {
	case models.KindProtection, models.KindAddon, models.KindDiet, models.KindOther:
		return true
	}
	return false
}
