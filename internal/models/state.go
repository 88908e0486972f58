package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComponentLifecycle is the persisted, source-side state of a component. The
// paid/unpaid progression is derived and never stored.
type ComponentLifecycle string

const (
	LifecycleActive        ComponentLifecycle = "active"
	LifecycleCanceled      ComponentLifecycle = "canceled"
	LifecyclePendingRefund ComponentLifecycle = "pending_refund"
	LifecycleReturned      ComponentLifecycle = "returned"
)

func (l ComponentLifecycle) IsTerminal() bool {
	return l == LifecycleCanceled || l == LifecycleReturned
}

type ComponentState struct {
	ReservationID int64              `json:"reservation_id"`
	ComponentID   ComponentID        `json:"component_id"`
	State         ComponentLifecycle `json:"state"`
	PreviousState ComponentLifecycle `json:"previous_state"`
	RefundAmount  decimal.Decimal    `json:"refund_amount"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ItemAction is a back-office operation on a single component.
type ItemAction string

const (
	ActionCancel        ItemAction = "cancel"
	ActionRequestRefund ItemAction = "refund_request"
	ActionConfirmRefund ItemAction = "refund_confirm"
	ActionAbortRefund   ItemAction = "refund_abort"
)

func (a ItemAction) IsValid() bool {
	switch a {
	case ActionCancel, ActionRequestRefund, ActionConfirmRefund, ActionAbortRefund:
		return true
	}
	return false
}

// StateChangedEvent is published after a component transition.
type StateChangedEvent struct {
	ReservationID int64              `json:"reservation_id"`
	ComponentID   ComponentID        `json:"component_id"`
	Action        ItemAction         `json:"action"`
	State         ComponentLifecycle `json:"state"`
	PreviousState ComponentLifecycle `json:"previous_state"`
	Timestamp     time.Time          `json:"timestamp"`
}
