package seaswap

import (
	"crypto/rand"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ZeroAddress denotes the network's native coin when used as a payment
// token, and "no party" in maker/taker/fee-recipient slots.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NativeTokenDecimals is the decimal count of the network's native coin.
const NativeTokenDecimals = 18

var (
	saltBound  = new(big.Int).Lsh(big.NewInt(1), 256)
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// toBaseUnits converts a human-scale amount to the token's smallest unit,
// truncating below one base unit.
func toBaseUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, validationErrorf("amount cannot be negative, got %s", amount.String())
	}
	base := amount.Shift(decimals).Truncate(0).BigInt()
	if base.Cmp(maxUint256) > 0 {
		return nil, validationErrorf("amount %s overflows uint256 at %d decimals", amount.String(), decimals)
	}
	return base, nil
}

// generateSalt draws a cryptographically random 256-bit order salt.
func generateSalt() (*big.Int, error) {
	salt, err := rand.Int(rand.Reader, saltBound)
	if err != nil {
		return nil, errors.Wrap(err, "generate salt")
	}
	return salt, nil
}

func isNativeToken(addr common.Address) bool {
	return addr == (common.Address{})
}
