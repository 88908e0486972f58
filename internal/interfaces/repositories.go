package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/campportal/reservation-payments/internal/models"
)

// ReservationRepository loads the reservation snapshot the engine runs on.
type ReservationRepository interface {
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
}

// PaymentRecordRepository returns the raw payment records of a reservation.
// Gateway candidates may over-match; the normalizer applies the exact order
// id rules.
type PaymentRecordRepository interface {
	GatewayTransactions(ctx context.Context, reservationID int64) ([]models.PaymentRecord, error)
	ManualPayments(ctx context.Context, reservationID int64) ([]models.PaymentRecord, error)
}

// ComponentStateRepository defines the contract for component lifecycle data access
type ComponentStateRepository interface {
	ListStates(ctx context.Context, reservationID int64) ([]models.ComponentState, error)
	TransitionState(ctx context.Context, reservationID int64, id models.ComponentID, from, to models.ComponentLifecycle, refundAmount decimal.Decimal) (int64, error)
}
