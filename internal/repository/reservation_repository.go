package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campportal/reservation-payments/internal/models"
)

type ReservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var (
		res       models.Reservation
		dietName  sql.NullString
		dietPrice decimal.NullDecimal
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, camp_id, property_id, total_price, diet_name, diet_price, payment_plan, created_at
		FROM reservations WHERE id = $1
	`, id).Scan(&res.ID, &res.CampID, &res.PropertyID, &res.TotalPrice, &dietName, &dietPrice, &res.PaymentPlan, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reservation %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load reservation %d: %w", id, err)
	}
	if dietPrice.Valid {
		res.Diet = &models.Charge{Key: "diet", Name: dietName.String, Price: dietPrice.Decimal}
	}

	if res.Protections, err = r.ids(ctx, `SELECT protection_id FROM reservation_protections WHERE reservation_id = $1 ORDER BY protection_id`, id); err != nil {
		return nil, fmt.Errorf("load protections of reservation %d: %w", id, err)
	}
	if res.Addons, err = r.ids(ctx, `SELECT addon_id FROM reservation_addons WHERE reservation_id = $1 ORDER BY addon_id`, id); err != nil {
		return nil, fmt.Errorf("load addons of reservation %d: %w", id, err)
	}
	if res.OtherCharges, err = r.charges(ctx, id); err != nil {
		return nil, fmt.Errorf("load charges of reservation %d: %w", id, err)
	}
	return &res, nil
}

func (r *ReservationRepository) ids(ctx context.Context, query string, reservationID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *ReservationRepository) charges(ctx context.Context, reservationID int64) ([]models.Charge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT charge_key, name, price FROM reservation_charges
		WHERE reservation_id = $1 ORDER BY charge_key
	`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Charge
	for rows.Next() {
		var c models.Charge
		if err := rows.Scan(&c.Key, &c.Name, &c.Price); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
