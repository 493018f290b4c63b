package infra

import (
	"math"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- NumericToInt64 Tests ---

func TestNumericToInt64(t *testing.T) {
	tests := []struct {
		name string
		in   pgtype.Numeric
		want int64
	}{
		{"zero", Int64ToNumeric(0), 0},
		{"ticket total", Int64ToNumeric(261500), 261500},
		{"negative", Int64ToNumeric(-50000), -50000},
		{"numeric(15,0) max", Int64ToNumeric(999_999_999_999_999), 999_999_999_999_999},
		{"positive exponent", pgtype.Numeric{Int: big.NewInt(500), Exp: 2, Valid: true}, 50000},
		{"negative exponent truncates", pgtype.Numeric{Int: big.NewInt(50099), Exp: -2, Valid: true}, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NumericToInt64(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestNumericToInt64_NullReturnsError(t *testing.T) {
	_, err := NumericToInt64(pgtype.Numeric{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NULL")
}

func TestNumericToInt64_Overflow(t *testing.T) {
	overflow := new(big.Int).SetInt64(math.MaxInt64)
	overflow.Add(overflow, big.NewInt(1))
	_, err := NumericToInt64(pgtype.Numeric{Int: overflow, Valid: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflows")
}

func TestInt64ToNumeric_Roundtrip(t *testing.T) {
	for _, v := range []int64{1, -1, math.MaxInt64, math.MinInt64} {
		result, err := NumericToInt64(Int64ToNumeric(v))
		require.NoError(t, err, "value: %d", v)
		assert.Equal(t, v, result, "value: %d", v)
	}
}

// --- Nullable numeric Tests ---

func TestNullableNumericToInt64(t *testing.T) {
	t.Run("NULL is nil", func(t *testing.T) {
		v, err := NullableNumericToInt64(pgtype.Numeric{})
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("value", func(t *testing.T) {
		v, err := NullableNumericToInt64(Int64ToNumeric(50000))
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, int64(50000), *v)
	})
}

func TestInt64PtrToNumeric(t *testing.T) {
	assert.False(t, Int64PtrToNumeric(nil).Valid)

	amount := int64(600)
	n := Int64PtrToNumeric(&amount)
	require.True(t, n.Valid)
	v, err := NumericToInt64(n)
	require.NoError(t, err)
	assert.Equal(t, int64(600), v)
}
