package seaswap

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	got, err := toBaseUnits(decimal.NewFromFloat(1.5), 18)
	require.NoError(t, err)
	expected, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, expected, got)

	// Fractions below one base unit truncate.
	got, err = toBaseUnits(decimal.RequireFromString("1.0000005"), 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000000), got)

	got, err = toBaseUnits(decimal.NewFromInt(10), 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), got)

	_, err = toBaseUnits(decimal.NewFromInt(-1), 18)
	assert.Error(t, err)
}

func TestGenerateSalt(t *testing.T) {
	a, err := generateSalt()
	require.NoError(t, err)
	b, err := generateSalt()
	require.NoError(t, err)

	assert.True(t, a.Cmp(saltBound) < 0)
	assert.True(t, a.Sign() >= 0)
	assert.NotEqual(t, a, b, "salts must not repeat")
}

func TestIsNativeToken(t *testing.T) {
	assert.True(t, isNativeToken(common.Address{}))
	assert.False(t, isNativeToken(common.HexToAddress("0x6666666666666666666666666666666666666666")))
}
