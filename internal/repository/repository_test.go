package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalNumericConversion(t *testing.T) {
	t.Run("Should round-trip exact cent values", func(t *testing.T) {
		for _, s := range []string{"0.00", "19.99", "84.98", "-3.50", "12345678.90"} {
			d := decimal.RequireFromString(s)

			got, err := numericToDecimal(decimalToNumeric(d))
			require.NoError(t, err)
			assert.True(t, got.Equal(d), "round-trip of %s yielded %s", s, got)
		}
	})

	t.Run("Should reject an invalid numeric", func(t *testing.T) {
		_, err := numericToDecimal(pgtype.Numeric{})
		assert.Error(t, err)
	})

	t.Run("Should reject NaN", func(t *testing.T) {
		_, err := numericToDecimal(pgtype.Numeric{NaN: true, Valid: true})
		assert.Error(t, err)
	})
}
