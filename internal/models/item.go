package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemStatus string

const (
	ItemPaid          ItemStatus = "paid"
	ItemPartiallyPaid ItemStatus = "partially_paid"
	ItemUnpaid        ItemStatus = "unpaid"
	ItemPendingRefund ItemStatus = "pending_refund"
	ItemCanceled      ItemStatus = "canceled"
	ItemReturned      ItemStatus = "returned"
)

// IsActive reports whether the item still counts toward totals.
func (s ItemStatus) IsActive() bool {
	return s != ItemCanceled && s != ItemReturned
}

// IsSettled reports whether an active item is fully paid. An item awaiting a
// refund confirmation is still paid.
func (s ItemStatus) IsSettled() bool {
	return s == ItemPaid || s == ItemPendingRefund
}

type Installment struct {
	Index    int             `json:"index"`
	Amount   decimal.Decimal `json:"amount"`
	Paid     bool            `json:"paid"`
	PaidDate *time.Time      `json:"paid_date,omitempty"`
	Method   string          `json:"method,omitempty"`
}

type PaymentItem struct {
	ID            ComponentID     `json:"id"`
	ComponentType ComponentKind   `json:"component_type"`
	Label         string          `json:"label"`
	Amount        decimal.Decimal `json:"amount"`
	Allocated     decimal.Decimal `json:"allocated"`
	Remaining     decimal.Decimal `json:"remaining"`
	Status        ItemStatus      `json:"status"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	Method        string          `json:"method,omitempty"`
	Installments  []Installment   `json:"installments,omitempty"`
}

type OverallStatus string

const (
	OverallPaid     OverallStatus = "paid"
	OverallPartial  OverallStatus = "partial"
	OverallUnpaid   OverallStatus = "unpaid"
	OverallReturned OverallStatus = "returned"
)

type PaymentSummary struct {
	ReservationID         int64           `json:"reservation_id"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	PaidAmount            decimal.Decimal `json:"paid_amount"`
	RemainingAmount       decimal.Decimal `json:"remaining_amount"`
	OverallStatus         OverallStatus   `json:"overall_status"`
	InvoicePaidEligible   bool            `json:"invoice_paid_eligible"`
	DepositPhase          bool            `json:"deposit_phase"`
	EffectivePaymentCount int             `json:"effective_payment_count"`
	LastPaymentDate       *time.Time      `json:"last_payment_date,omitempty"`
	LastPaymentMethod     string          `json:"last_payment_method,omitempty"`
	Warnings              []string        `json:"warnings,omitempty"`
}

// ReservationPayments is the complete derived view of one reservation.
type ReservationPayments struct {
	Items   []PaymentItem  `json:"items"`
	Summary PaymentSummary `json:"summary"`
}
