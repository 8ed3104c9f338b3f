package repository

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested row does not exist. Services map
// it to their domain error.
var ErrNotFound = errors.New("not found")

// decimalToNumeric converts a decimal to pgtype.Numeric without going
// through a float.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

// numericToDecimal converts a pgtype.Numeric to a decimal without going
// through a float.
func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid || n.Int == nil {
		return decimal.Decimal{}, fmt.Errorf("numeric is not valid")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Decimal{}, fmt.Errorf("numeric is not finite")
	}
	return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp), nil
}
