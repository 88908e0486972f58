package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type RecordSource string

const (
	SourceGateway RecordSource = "gateway"
	SourceManual  RecordSource = "manual"
)

type RecordStatus string

const (
	RecordSuccess  RecordStatus = "success"
	RecordPending  RecordStatus = "pending"
	RecordCanceled RecordStatus = "canceled"
)

// ParseRecordStatus maps the raw status vocabulary of the gateway onto the three
// statuses the engine understands. Unknown values are treated as canceled.
func ParseRecordStatus(raw string) RecordStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "paid", "completed", "settlement", "correct", "confirmed":
		return RecordSuccess
	case "pending", "new", "processing", "awaiting_callback", "initiated":
		return RecordPending
	default:
		return RecordCanceled
	}
}

// PaymentRecord is a raw payment as delivered by the gateway or logged manually
// by the back-office. Amount and PaidAmount may be missing.
type PaymentRecord struct {
	ID          string              `json:"id"`
	Source      RecordSource        `json:"source"`
	OrderID     string              `json:"order_id,omitempty"`
	Amount      decimal.NullDecimal `json:"amount"`
	PaidAmount  decimal.NullDecimal `json:"paid_amount"`
	Status      RecordStatus        `json:"status"`
	Timestamp   time.Time           `json:"timestamp"`
	Channel     string              `json:"channel,omitempty"`
	Description string              `json:"description,omitempty"`
}

// EffectivePayment is a record that counts toward the paid total.
type EffectivePayment struct {
	RecordID    string          `json:"record_id"`
	Source      RecordSource    `json:"source"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
	Method      string          `json:"method,omitempty"`
	Optimistic  bool            `json:"optimistic,omitempty"`
	Installment *InstallmentTag `json:"installment,omitempty"`
}

// InstallmentTag is parsed from an "installment i/n" marker on a record.
type InstallmentTag struct {
	Index int `json:"index"`
	Of    int `json:"of"`
}

// PaymentEvent is published upstream whenever a payment record is stored.
type PaymentEvent struct {
	ReservationID int64        `json:"reservation_id"`
	RecordID      string       `json:"record_id"`
	Source        RecordSource `json:"source"`
	Status        string       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}
