package pgconv

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var ErrInvalidNumeric = errors.New("invalid numeric value")

// DecimalFromString converts a scanned numeric::text column into a decimal.
func DecimalFromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidNumeric
	}
	return d, nil
}

func DecimalPtrFromString(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := DecimalFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
