package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPlan is the number of installments the camp fee is split into.
// Zero means the reservation is paid without a plan.
type PaymentPlan int

const (
	PlanNone              PaymentPlan = 0
	PlanTwoInstallments   PaymentPlan = 2
	PlanThreeInstallments PaymentPlan = 3
)

func (p PaymentPlan) IsInstallment() bool {
	return p == PlanTwoInstallments || p == PlanThreeInstallments
}

// Charge is a priced component that is not looked up in the catalog.
type Charge struct {
	Key   string          `json:"key"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Reservation is the immutable input snapshot of one computation.
type Reservation struct {
	ID           int64           `json:"id"`
	CampID       int64           `json:"camp_id"`
	PropertyID   int64           `json:"property_id"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Protections  []int64         `json:"protections"`
	Addons       []int64         `json:"addons"`
	Diet         *Charge         `json:"diet,omitempty"`
	OtherCharges []Charge        `json:"other_charges,omitempty"`
	PaymentPlan  PaymentPlan     `json:"payment_plan"`
	CreatedAt    time.Time       `json:"created_at"`
}
