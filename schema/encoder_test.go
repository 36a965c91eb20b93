package schema

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testCollection = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testSeller     = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testBuyer      = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func testAssetFor(name Name) Asset {
	asset := Asset{Address: testCollection}
	switch name {
	case ERC20:
		asset.Quantity = big.NewInt(1000)
	case ERC721:
		asset.TokenID = big.NewInt(42)
	case ERC1155:
		asset.TokenID = big.NewInt(42)
		asset.Quantity = big.NewInt(5)
	}
	return asset
}

func allZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

func allWildcard(b []byte) bool {
	for _, x := range b {
		if x != wildcardByte {
			return false
		}
	}
	return true
}

func TestEncodeSellPatternCoversCalldata(t *testing.T) {
	registry := NewRegistry()

	for _, name := range []Name{ERC20, ERC721, ERC1155} {
		t.Run(string(name), func(t *testing.T) {
			sch, err := registry.Get(name)
			require.NoError(t, err)

			spec, err := EncodeSell(sch, testAssetFor(name), testSeller)
			require.NoError(t, err)

			assert.Equal(t, testCollection, spec.Target)
			assert.Equal(t, len(spec.Calldata), len(spec.ReplacementPattern),
				"pattern must align byte-for-byte with calldata")
			assert.True(t, allZero(spec.ReplacementPattern[:4]),
				"selector bytes are never replaceable")
		})
	}
}

func TestEncodeSellMasksRecipientWord(t *testing.T) {
	registry := NewRegistry()
	sch, err := registry.Get(ERC721)
	require.NoError(t, err)

	spec, err := EncodeSell(sch, testAssetFor(ERC721), testSeller)
	require.NoError(t, err)

	// transferFrom(from, to, tokenId): the recipient is the second input,
	// so its head word is the only masked range.
	assert.True(t, allZero(spec.ReplacementPattern[4:4+32]))
	assert.True(t, allWildcard(spec.ReplacementPattern[4+32:4+64]))
	assert.True(t, allZero(spec.ReplacementPattern[4+64:]))

	// The seller fills the owner slot; the recipient stays neutral.
	assert.True(t, bytes.Equal(spec.Calldata[4+12:4+32], testSeller.Bytes()))
	assert.True(t, allZero(spec.Calldata[4+32:4+64]))
}

func TestEncodeBuyMasksOwnerWord(t *testing.T) {
	registry := NewRegistry()
	sch, err := registry.Get(ERC721)
	require.NoError(t, err)

	spec, err := EncodeBuy(sch, testAssetFor(ERC721), testBuyer)
	require.NoError(t, err)

	assert.Equal(t, len(spec.Calldata), len(spec.ReplacementPattern))
	assert.True(t, allWildcard(spec.ReplacementPattern[4:4+32]),
		"the unknown owner slot must be masked")
	assert.True(t, allZero(spec.ReplacementPattern[4+32:]))

	// The buyer fills the recipient slot; the owner stays neutral.
	assert.True(t, allZero(spec.Calldata[4:4+32]))
	assert.True(t, bytes.Equal(spec.Calldata[4+32+12:4+64], testBuyer.Bytes()))
}

func TestSellAndBuyCalldataAgreeUnderPatterns(t *testing.T) {
	registry := NewRegistry()
	sch, err := registry.Get(ERC721)
	require.NoError(t, err)

	asset := testAssetFor(ERC721)
	sell, err := EncodeSell(sch, asset, testSeller)
	require.NoError(t, err)
	buy, err := EncodeBuy(sch, asset, testBuyer)
	require.NoError(t, err)

	require.Equal(t, len(sell.Calldata), len(buy.Calldata))

	// Applying each side's mask to the other's calldata must yield the
	// settled transfer call, the way the exchange combines them on-chain.
	merged := make([]byte, len(sell.Calldata))
	for i := range merged {
		merged[i] = sell.Calldata[i]
		if sell.ReplacementPattern[i] == wildcardByte {
			merged[i] = buy.Calldata[i]
		}
	}

	settled, err := EncodeTransfer(sch, asset, testSeller, testBuyer)
	require.NoError(t, err)
	assert.Equal(t, settled.Calldata, merged)
}

func TestEncodeTransferCall(t *testing.T) {
	registry := NewRegistry()

	for _, name := range []Name{ERC20, ERC721, ERC1155} {
		t.Run(string(name), func(t *testing.T) {
			sch, err := registry.Get(name)
			require.NoError(t, err)

			spec, err := EncodeTransfer(sch, testAssetFor(name), testSeller, testBuyer)
			require.NoError(t, err)

			assert.Empty(t, spec.ReplacementPattern)
			assert.True(t, bytes.Equal(spec.Calldata[4+12:4+32], testSeller.Bytes()))
			assert.True(t, bytes.Equal(spec.Calldata[4+32+12:4+64], testBuyer.Bytes()))
		})
	}
}

func TestERC721RequiresTokenID(t *testing.T) {
	registry := NewRegistry()
	sch, err := registry.Get(ERC721)
	require.NoError(t, err)

	_, err = EncodeSell(sch, Asset{Address: testCollection}, testSeller)
	assert.Error(t, err)
}

func TestUnregisteredSchema(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get(Name("CryptoPunks"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)
}

func TestValidateRejectsMultipleReplaceableInputs(t *testing.T) {
	fn := &AnnotatedFunctionABI{
		Name:   "transferPair",
		Target: testCollection,
		Inputs: []FunctionInput{
			{Name: "a", Type: "address", Kind: InputKindReplaceable},
			{Name: "b", Type: "address", Kind: InputKindReplaceable},
		},
	}
	assert.Error(t, fn.Validate())
}

func TestReplacementPatternRejectsDynamicMaskedInput(t *testing.T) {
	fn := &AnnotatedFunctionABI{
		Name:   "transferWithProof",
		Target: testCollection,
		Inputs: []FunctionInput{
			{Name: "from", Type: "address", Kind: InputKindOwner},
			{Name: "proof", Type: "bytes", Kind: InputKindReplaceable},
		},
	}

	_, err := EncodeReplacementPattern(fn, InputKindReplaceable)
	assert.Error(t, err)
}
