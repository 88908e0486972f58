package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/campportal/reservation-payments/internal/models"
)

const (
	DefaultOrderIDPrefix = "RES-"

	methodGateway      = "gateway"
	methodBankTransfer = "bank_transfer"
)

var installmentTagPattern = regexp.MustCompile(`(?i)\b(?:installment|rata)\s*(\d+)\s*/\s*(\d+)`)

// Normalizer turns raw gateway and manual records into effective payments.
type Normalizer struct {
	OrderIDPrefix string
}

// Normalized holds the effective payments of a reservation, oldest first.
type Normalized struct {
	Payments []models.EffectivePayment
	Total    decimal.Decimal
	Warnings []string
}

// Latest returns the most recent effective payment, or nil.
func (n Normalized) Latest() *models.EffectivePayment {
	if len(n.Payments) == 0 {
		return nil
	}
	p := n.Payments[len(n.Payments)-1]
	return &p
}

// MatchesOrder reports whether a gateway order id belongs to the reservation.
// Accepted forms: "42", "RES-42", "42-1718000000", "RES-42-1718000000".
func (n Normalizer) MatchesOrder(reservationID int64, orderID string) bool {
	id := strconv.FormatInt(reservationID, 10)
	s := strings.TrimSpace(orderID)
	if n.OrderIDPrefix != "" && len(s) > len(n.OrderIDPrefix) &&
		strings.EqualFold(s[:len(n.OrderIDPrefix)], n.OrderIDPrefix) {
		s = s[len(n.OrderIDPrefix):]
	}
	if s == id {
		return true
	}
	if !strings.HasPrefix(s, id) || len(s) < len(id)+2 {
		return false
	}
	sep, suffix := s[len(id)], s[len(id)+1:]
	if sep != '-' && sep != '_' {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Normalize filters gateway records down to the ones belonging to the
// reservation that count as paid, and merges them with every manual record.
func (n Normalizer) Normalize(reservationID int64, gateway, manual []models.PaymentRecord) Normalized {
	var out Normalized
	out.Total = decimal.Zero

	for _, rec := range gateway {
		if !n.MatchesOrder(reservationID, rec.OrderID) {
			continue
		}

		var (
			value      decimal.Decimal
			optimistic bool
		)
		switch rec.Status {
		case models.RecordSuccess:
			if rec.PaidAmount.Valid {
				value = n.amount(&out, rec, rec.PaidAmount)
			} else {
				value = n.amount(&out, rec, rec.Amount)
			}
		case models.RecordPending:
			if !rec.Amount.Valid || !rec.Amount.Decimal.IsPositive() {
				continue
			}
			value = rec.Amount.Decimal
			optimistic = true
		default:
			continue
		}

		out.Payments = append(out.Payments, effective(rec, value, methodGateway, optimistic))
	}

	for _, rec := range manual {
		value := n.amount(&out, rec, rec.Amount)
		out.Payments = append(out.Payments, effective(rec, value, methodBankTransfer, false))
	}

	sort.SliceStable(out.Payments, func(i, j int) bool {
		a, b := out.Payments[i], out.Payments[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.RecordID < b.RecordID
	})

	for _, p := range out.Payments {
		out.Total = out.Total.Add(p.Amount)
	}
	return out
}

// amount returns a usable contribution. Missing or negative amounts count as zero.
func (n Normalizer) amount(out *Normalized, rec models.PaymentRecord, v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		out.Warnings = append(out.Warnings, fmt.Sprintf("payment %s has no amount, counted as 0", rec.ID))
		return decimal.Zero
	}
	if v.Decimal.IsNegative() {
		out.Warnings = append(out.Warnings, fmt.Sprintf("payment %s has negative amount %s, counted as 0", rec.ID, v.Decimal.StringFixed(2)))
		return decimal.Zero
	}
	return v.Decimal
}

func effective(rec models.PaymentRecord, value decimal.Decimal, defaultMethod string, optimistic bool) models.EffectivePayment {
	method := rec.Channel
	if method == "" {
		method = defaultMethod
	}
	source := rec.Source
	if source == "" {
		if defaultMethod == methodGateway {
			source = models.SourceGateway
		} else {
			source = models.SourceManual
		}
	}
	return models.EffectivePayment{
		RecordID:    rec.ID,
		Source:      source,
		Amount:      value,
		Timestamp:   rec.Timestamp,
		Method:      method,
		Optimistic:  optimistic,
		Installment: ParseInstallmentTag(rec.Description),
	}
}

// ParseInstallmentTag extracts "installment i/n" from free text.
func ParseInstallmentTag(s string) *models.InstallmentTag {
	m := installmentTagPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	idx, err1 := strconv.Atoi(m[1])
	of, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || idx < 1 || of < 1 || idx > of {
		return nil
	}
	return &models.InstallmentTag{Index: idx, Of: of}
}
