package wyvern

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// StaticCall is an asset-specific read-only predicate the settlement
// contract evaluates atomically at match time. A zero Target is a no-op.
type StaticCall struct {
	Target    common.Address
	Extradata []byte
}

// NoStaticCall is the no-op check applied to assets without invariants.
var NoStaticCall = StaticCall{Target: common.Address{}, Extradata: []byte{}}

// FingerprintStaticCall pins the asset's current fingerprint: the match
// aborts if the fingerprint has changed since order creation.
func FingerprintStaticCall(checker common.Address, tokenID *big.Int, fingerprint [32]byte) (StaticCall, error) {
	extradata, err := GetStaticCheckABI().Pack("requireFingerprintMatch", tokenID, fingerprint)
	if err != nil {
		return StaticCall{}, errors.Wrap(err, "pack requireFingerprintMatch")
	}
	return StaticCall{Target: checker, Extradata: extradata}, nil
}

// TxOriginStaticCall pins the fulfilling transaction's sender, preventing
// relayed or faked fulfillment of best-counter-order sales.
func TxOriginStaticCall(checker common.Address, taker common.Address) (StaticCall, error) {
	extradata, err := GetStaticCheckABI().Pack("succeedIfTxOriginMatchesSpecifiedAddress", taker)
	if err != nil {
		return StaticCall{}, errors.Wrap(err, "pack succeedIfTxOriginMatchesSpecifiedAddress")
	}
	return StaticCall{Target: checker, Extradata: extradata}, nil
}
