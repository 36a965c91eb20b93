package schema

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// atomicizeSignature is the atomizer entrypoint: it fans one call out into N
// independent sub-calls, all executed atomically.
const atomicizeSignature = "atomicize(address[],uint256[],uint256[],bytes)"

var atomicizeSelector = crypto.Keccak256([]byte(atomicizeSignature))[:4]

func atomicizeArguments() abi.Arguments {
	addressSlice, _ := abi.NewType("address[]", "", nil)
	uintSlice, _ := abi.NewType("uint256[]", "", nil)
	bytesType, _ := abi.NewType("bytes", "", nil)
	return abi.Arguments{
		{Name: "addrs", Type: addressSlice},
		{Name: "values", Type: uintSlice},
		{Name: "calldataLengths", Type: uintSlice},
		{Name: "calldatas", Type: bytesType},
	}
}

// component holds one encoded sub-call and, for buy-side bundles, its
// replacement pattern.
type component struct {
	target   common.Address
	calldata []byte
	pattern  []byte
}

// EncodeAtomicizedTransfer bundles fully determined transfers of assets from
// one party to another into a single atomizer call.
func EncodeAtomicizedTransfer(schemas []*Schema, assets []Asset, from, to, atomizer common.Address) (*CallSpec, error) {
	return encodeAtomicized(schemas, assets, atomizer, false, func(s *Schema, asset Asset) (*CallSpec, error) {
		return EncodeTransfer(s, asset, from, to)
	})
}

// EncodeAtomicizedSell bundles sell-side default calls: each component names
// the seller as owner and leaves the recipient wildcard-masked.
func EncodeAtomicizedSell(schemas []*Schema, assets []Asset, seller, atomizer common.Address) (*CallSpec, error) {
	return encodeAtomicized(schemas, assets, atomizer, true, func(s *Schema, asset Asset) (*CallSpec, error) {
		return EncodeSell(s, asset, seller)
	})
}

// EncodeAtomicizedBuy bundles buy-side calls: each component names the buyer
// as recipient with the owner wildcard-masked, so the bundle can be matched
// without knowing the sellers' per-asset ownership at construction time.
func EncodeAtomicizedBuy(schemas []*Schema, assets []Asset, buyer, atomizer common.Address) (*CallSpec, error) {
	return encodeAtomicized(schemas, assets, atomizer, true, func(s *Schema, asset Asset) (*CallSpec, error) {
		return EncodeBuy(s, asset, buyer)
	})
}

func encodeAtomicized(schemas []*Schema, assets []Asset, atomizer common.Address, withPattern bool, encodeOne func(*Schema, Asset) (*CallSpec, error)) (*CallSpec, error) {
	if len(schemas) != len(assets) {
		return nil, errors.Errorf("bundle has %d schemas for %d assets", len(schemas), len(assets))
	}
	if len(assets) == 0 {
		return nil, errors.New("bundle has no assets")
	}

	components := make([]component, 0, len(assets))
	for i := range assets {
		spec, err := encodeOne(schemas[i], assets[i])
		if err != nil {
			return nil, &BundleEncodingError{Index: i, Schema: schemas[i].Name, Asset: assets[i], Err: err}
		}
		components = append(components, component{target: spec.Target, calldata: spec.Calldata, pattern: spec.ReplacementPattern})
	}

	addrs := make([]common.Address, len(components))
	values := make([]*big.Int, len(components))
	lengths := make([]*big.Int, len(components))
	var concatenated []byte
	var concatenatedPattern []byte
	for i, c := range components {
		addrs[i] = c.target
		values[i] = big.NewInt(0)
		lengths[i] = big.NewInt(int64(len(c.calldata)))
		concatenated = append(concatenated, c.calldata...)
		if withPattern {
			concatenatedPattern = append(concatenatedPattern, c.pattern...)
		}
	}

	packed, err := atomicizeArguments().Pack(addrs, values, lengths, concatenated)
	if err != nil {
		return nil, errors.Wrap(err, "pack atomicize")
	}
	calldata := append(append([]byte{}, atomicizeSelector...), packed...)

	spec := &CallSpec{Target: atomizer, Calldata: calldata}
	if withPattern {
		// The mask must line up byte-for-byte with the concatenated
		// sub-calldata inside the atomicize payload; everything else
		// (selector, heads, array tails, length words) stays fixed.
		pattern := make([]byte, len(calldata))
		copy(pattern[AtomicizedCalldataOffset(len(components)):], concatenatedPattern)
		spec.ReplacementPattern = pattern
	}
	return spec, nil
}

// AtomicizedCalldataOffset returns the byte offset of the concatenated
// sub-calldata within an atomicize call for n components: the 4-byte
// selector, four head words, three length-prefixed arrays of n words each,
// and the bytes length word.
func AtomicizedCalldataOffset(n int) int {
	return 4 + 4*32 + 3*(32+n*32) + 32
}
