package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/campportal/reservation-payments/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PaymentRecordRepository struct {
	db            *sql.DB
	orderIDPrefix string
}

func NewPaymentRecordRepository(db *sql.DB, orderIDPrefix string) *PaymentRecordRepository {
	return &PaymentRecordRepository{db: db, orderIDPrefix: orderIDPrefix}
}

// GatewayTransactions returns transactions whose order id starts with the
// reservation id, bare or behind the order id prefix. The caller filters out
// false positives such as 123 for reservation 12.
func (r *PaymentRecordRepository) GatewayTransactions(ctx context.Context, reservationID int64) ([]models.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, amount, paid_amount, status, COALESCE(channel, ''), COALESCE(description, ''), created_at
		FROM gateway_transactions
		WHERE order_id = $1 OR order_id LIKE $1 || '%' OR order_id ILIKE $2 || $1 || '%'
		ORDER BY created_at, id
	`, strconv.FormatInt(reservationID, 10), likeEscaper.Replace(r.orderIDPrefix))
	if err != nil {
		return nil, fmt.Errorf("query gateway transactions of reservation %d: %w", reservationID, err)
	}
	defer rows.Close()

	var out []models.PaymentRecord
	for rows.Next() {
		rec := models.PaymentRecord{Source: models.SourceGateway}
		var status string
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.Amount, &rec.PaidAmount, &status, &rec.Channel, &rec.Description, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan gateway transaction: %w", err)
		}
		rec.Status = models.ParseRecordStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PaymentRecordRepository) ManualPayments(ctx context.Context, reservationID int64) ([]models.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, COALESCE(method, ''), COALESCE(description, ''), paid_at
		FROM manual_payments
		WHERE reservation_id = $1
		ORDER BY paid_at, id
	`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("query manual payments of reservation %d: %w", reservationID, err)
	}
	defer rows.Close()

	var out []models.PaymentRecord
	for rows.Next() {
		rec := models.PaymentRecord{Source: models.SourceManual, Status: models.RecordSuccess}
		var id int64
		if err := rows.Scan(&id, &rec.Amount, &rec.Channel, &rec.Description, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan manual payment: %w", err)
		}
		rec.ID = "manual-" + strconv.FormatInt(id, 10)
		out = append(out, rec)
	}
	return out, rows.Err()
}
