package schema

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAtomizer = common.HexToAddress("0x4444444444444444444444444444444444444444")

func bundleFixtures(t *testing.T) ([]*Schema, []Asset) {
	t.Helper()
	registry := NewRegistry()

	erc721, err := registry.Get(ERC721)
	require.NoError(t, err)
	erc1155, err := registry.Get(ERC1155)
	require.NoError(t, err)

	schemas := []*Schema{erc721, erc1155}
	assets := []Asset{
		{Address: testCollection, TokenID: big.NewInt(42)},
		{Address: common.HexToAddress("0x5555555555555555555555555555555555555555"), TokenID: big.NewInt(7), Quantity: big.NewInt(3)},
	}
	return schemas, assets
}

func TestAtomicizedSellTargetsAtomizer(t *testing.T) {
	schemas, assets := bundleFixtures(t)

	spec, err := EncodeAtomicizedSell(schemas, assets, testSeller, testAtomizer)
	require.NoError(t, err)

	assert.Equal(t, testAtomizer, spec.Target)
	assert.Equal(t, atomicizeSelector, spec.Calldata[:4])
	assert.Equal(t, len(spec.Calldata), len(spec.ReplacementPattern))
}

func TestAtomicizedCalldataOffsetMatchesEncoding(t *testing.T) {
	schemas, assets := bundleFixtures(t)

	spec, err := EncodeAtomicizedSell(schemas, assets, testSeller, testAtomizer)
	require.NoError(t, err)

	// The first sub-call starts exactly at the computed offset, so its
	// selector must appear there.
	first, err := EncodeSell(schemas[0], assets[0], testSeller)
	require.NoError(t, err)

	offset := AtomicizedCalldataOffset(len(assets))
	assert.True(t, bytes.Equal(spec.Calldata[offset:offset+4], first.Calldata[:4]))
}

func TestAtomicizedPatternAlignsWithComponents(t *testing.T) {
	schemas, assets := bundleFixtures(t)

	spec, err := EncodeAtomicizedBuy(schemas, assets, testBuyer, testAtomizer)
	require.NoError(t, err)

	offset := AtomicizedCalldataOffset(len(assets))
	assert.True(t, allZero(spec.ReplacementPattern[:offset]),
		"the atomicize envelope is never replaceable")

	cursor := offset
	for i := range assets {
		component, err := EncodeBuy(schemas[i], assets[i], testBuyer)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(
			spec.ReplacementPattern[cursor:cursor+len(component.ReplacementPattern)],
			component.ReplacementPattern),
			"component %d pattern must sit at its calldata position", i)
		cursor += len(component.Calldata)
	}
	assert.True(t, allZero(spec.ReplacementPattern[cursor:]))
}

func TestAtomicizedTransferConcatenatesCalls(t *testing.T) {
	schemas, assets := bundleFixtures(t)

	spec, err := EncodeAtomicizedTransfer(schemas, assets, testSeller, testBuyer, testAtomizer)
	require.NoError(t, err)
	assert.Empty(t, spec.ReplacementPattern)

	offset := AtomicizedCalldataOffset(len(assets))
	cursor := offset
	for i := range assets {
		component, err := EncodeTransfer(schemas[i], assets[i], testSeller, testBuyer)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(
			spec.Calldata[cursor:cursor+len(component.Calldata)],
			component.Calldata),
			"component %d call must be concatenated in order", i)
		cursor += len(component.Calldata)
	}
}

func TestBundleEncodingFailureNamesComponent(t *testing.T) {
	schemas, assets := bundleFixtures(t)
	assets[1].TokenID = nil // breaks the second component only

	_, err := EncodeAtomicizedSell(schemas, assets, testSeller, testAtomizer)
	require.Error(t, err)

	var bundleErr *BundleEncodingError
	require.ErrorAs(t, err, &bundleErr)
	assert.Equal(t, 1, bundleErr.Index)
	assert.Equal(t, ERC1155, bundleErr.Schema)
}

func TestBundleLengthMismatch(t *testing.T) {
	schemas, assets := bundleFixtures(t)

	_, err := EncodeAtomicizedSell(schemas, assets[:1], testSeller, testAtomizer)
	assert.Error(t, err)
}
