package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campportal/reservation-payments/internal/models"
)

type ComponentStateRepository struct {
	db *sql.DB
}

func NewComponentStateRepository(db *sql.DB) *ComponentStateRepository {
	return &ComponentStateRepository{db: db}
}

func (r *ComponentStateRepository) ListStates(ctx context.Context, reservationID int64) ([]models.ComponentState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT component_id, state, previous_state, refund_amount, created_at, updated_at
		FROM component_states WHERE reservation_id = $1
		ORDER BY component_id
	`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("query component states of reservation %d: %w", reservationID, err)
	}
	defer rows.Close()

	var out []models.ComponentState
	for rows.Next() {
		st := models.ComponentState{ReservationID: reservationID}
		var id string
		if err := rows.Scan(&id, &st.State, &st.PreviousState, &st.RefundAmount, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan component state: %w", err)
		}
		if st.ComponentID, err = models.ParseComponentID(id); err != nil {
			return nil, fmt.Errorf("component state of reservation %d: %w", reservationID, err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// TransitionState moves a component from one lifecycle state to another and
// returns the number of rows changed. Components without a row are active.
// Zero means the component was not in the expected state.
func (r *ComponentStateRepository) TransitionState(ctx context.Context, reservationID int64, id models.ComponentID, from, to models.ComponentLifecycle, refundAmount decimal.Decimal) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO component_states (reservation_id, component_id, state, previous_state)
		VALUES ($1, $2, $3, '')
		ON CONFLICT (reservation_id, component_id) DO NOTHING
	`, reservationID, id.String(), models.LifecycleActive); err != nil {
		return 0, fmt.Errorf("insert component state: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE component_states
		SET state = $1, previous_state = $2, refund_amount = $3, updated_at = NOW()
		WHERE reservation_id = $4 AND component_id = $5 AND state = $6
	`, to, from, refundAmount, reservationID, id.String(), from)
	if err != nil {
		return 0, fmt.Errorf("update component state: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
