package seaswap

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaswaplabs/seaswap-sdk-go/wyvern"
)

var (
	testNow          = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testPaymentToken = common.HexToAddress("0x6666666666666666666666666666666666666666")
)

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestComputeFeesDefaults(t *testing.T) {
	fees, err := computeFees(nil, wyvern.SideSell, 0)
	require.NoError(t, err)

	assert.EqualValues(t, DefaultSellerFeeBasisPoints, fees.TotalSellerFeeBasisPoints)
	assert.EqualValues(t, DefaultBuyerFeeBasisPoints, fees.TotalBuyerFeeBasisPoints)
	assert.Zero(t, fees.SellerBountyBasisPoints)
	assert.Nil(t, fees.TransferFee)
}

func TestComputeFeesCollectionRates(t *testing.T) {
	meta := &AssetMetadata{
		Collection: Collection{
			PlatformBuyerFeeBasisPoints:  50,
			PlatformSellerFeeBasisPoints: 250,
			DevBuyerFeeBasisPoints:       100,
			DevSellerFeeSplit: map[string]int64{
				"0xaaaa000000000000000000000000000000000001": 200,
				"0xaaaa000000000000000000000000000000000002": 300,
			},
		},
		TransferFee: &TransferFee{Amount: "1000", TokenAddress: testPaymentToken.Hex()},
	}

	fees, err := computeFees(meta, wyvern.SideSell, 0)
	require.NoError(t, err)

	assert.EqualValues(t, 150, fees.TotalBuyerFeeBasisPoints)
	assert.EqualValues(t, 750, fees.TotalSellerFeeBasisPoints)
	assert.Equal(t, big.NewInt(1000), fees.TransferFee)
	assert.Equal(t, testPaymentToken.Hex(), fees.TransferFeeTokenAddress)
}

func TestComputeFeesBountyCeiling(t *testing.T) {
	// The default seller fee is 250 bps; the platform's own bounty share of
	// 100 bps leaves 150 bps for the affiliate.
	fees, err := computeFees(nil, wyvern.SideSell, 150)
	require.NoError(t, err)
	assert.EqualValues(t, 150, fees.SellerBountyBasisPoints)

	_, err = computeFees(nil, wyvern.SideSell, 151)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBountyTooLarge)

	var bountyErr *BountyTooLargeError
	require.ErrorAs(t, err, &bountyErr)
	assert.EqualValues(t, 251, bountyErr.BountyBasisPoints)
	assert.EqualValues(t, 250, bountyErr.MaxBasisPoints)
}

func TestComputeFeesBountyRequiresSellSide(t *testing.T) {
	_, err := computeFees(nil, wyvern.SideBuy, 50)
	assert.Error(t, err)
}

func TestPriceDecay(t *testing.T) {
	expiration := testNow.Add(time.Hour).Unix()

	params, err := priceParameters(wyvern.SideSell, testPaymentToken, 0,
		decimal.NewFromInt(10), decimalPtr(decimal.NewFromInt(4)), nil, expiration, false)
	require.NoError(t, err)

	assert.Equal(t, wyvern.SaleKindDutchAuction, params.SaleKind)
	assert.Equal(t, big.NewInt(10), params.BasePrice)
	assert.Equal(t, big.NewInt(6), params.Extra)
	assert.Equal(t, big.NewInt(4), params.EndPrice)
}

func TestPriceEqualEndpointsAreFixedPrice(t *testing.T) {
	params, err := priceParameters(wyvern.SideSell, testPaymentToken, 0,
		decimal.NewFromInt(10), decimalPtr(decimal.NewFromInt(10)), nil, 0, false)
	require.NoError(t, err)

	assert.Equal(t, wyvern.SaleKindFixedPrice, params.SaleKind)
	assert.Equal(t, big.NewInt(0), params.Extra)
}

func TestPriceBaseUnitConversion(t *testing.T) {
	params, err := priceParameters(wyvern.SideSell, testPaymentToken, 18,
		decimal.NewFromFloat(1.5), nil, nil, 0, false)
	require.NoError(t, err)

	expected, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, expected, params.BasePrice)
}

func TestPriceValidation(t *testing.T) {
	expiration := testNow.Add(time.Hour).Unix()
	native := common.Address{}

	cases := []struct {
		name string
		fn   func() error
	}{
		{"rising price", func() error {
			_, err := priceParameters(wyvern.SideSell, testPaymentToken, 0,
				decimal.NewFromInt(4), decimalPtr(decimal.NewFromInt(10)), nil, expiration, false)
			return err
		}},
		{"decay without expiration", func() error {
			_, err := priceParameters(wyvern.SideSell, testPaymentToken, 0,
				decimal.NewFromInt(10), decimalPtr(decimal.NewFromInt(4)), nil, 0, false)
			return err
		}},
		{"reserve outside English auction", func() error {
			_, err := priceParameters(wyvern.SideSell, testPaymentToken, 0,
				decimal.NewFromInt(10), nil, decimalPtr(decimal.NewFromInt(12)), expiration, false)
			return err
		}},
		{"reserve below start", func() error {
			_, err := priceParameters(wyvern.SideSell, testPaymentToken, 0,
				decimal.NewFromInt(10), nil, decimalPtr(decimal.NewFromInt(5)), expiration, true)
			return err
		}},
		{"native coin offer", func() error {
			_, err := priceParameters(wyvern.SideBuy, native, 18,
				decimal.NewFromInt(1), nil, nil, expiration, false)
			return err
		}},
		{"native coin English auction", func() error {
			_, err := priceParameters(wyvern.SideSell, native, 18,
				decimal.NewFromInt(1), nil, nil, expiration, true)
			return err
		}},
		{"negative start", func() error {
			_, err := priceParameters(wyvern.SideSell, testPaymentToken, 0,
				decimal.NewFromInt(-1), nil, nil, expiration, false)
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestTimeParametersRejections(t *testing.T) {
	cases := []struct {
		name       string
		listing    int64
		expiration int64
	}{
		{"zero expiration", 0, 0},
		{"expiration too soon", 0, testNow.Add(5 * time.Minute).Unix()},
		{"expiration beyond horizon", 0, testNow.Add(maxOrderHorizon + time.Hour).Unix()},
		{"listing after expiration", testNow.Add(2 * time.Hour).Unix(), testNow.Add(time.Hour).Unix()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := timeParameters(testNow, tc.listing, tc.expiration, false, false)
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestTimeParametersDefaultsListingToNow(t *testing.T) {
	expiration := testNow.Add(time.Hour).Unix()

	listing, got, err := timeParameters(testNow, 0, expiration, false, false)
	require.NoError(t, err)
	assert.Equal(t, testNow.Unix(), listing)
	assert.Equal(t, expiration, got)
}

func TestTimeParametersEnglishAuctionTransform(t *testing.T) {
	nominal := testNow.Add(time.Hour).Unix()

	listing, expiration, err := timeParameters(testNow, 0, nominal, true, false)
	require.NoError(t, err)

	// Bidding closes at the nominal expiration; the on-chain window then
	// stays open long enough to settle the winner.
	assert.Equal(t, nominal, listing)
	assert.Equal(t, nominal+int64(matchingLatency/time.Second), expiration)
}

func TestTimeParametersMatchingOrder(t *testing.T) {
	listing, expiration, err := timeParameters(testNow, 0, 0, false, true)
	require.NoError(t, err)
	assert.Equal(t, testNow.Unix(), listing)
	assert.Zero(t, expiration)

	// A matching order may also carry a near-term expiration.
	soon := testNow.Add(time.Minute).Unix()
	_, expiration, err = timeParameters(testNow, 0, soon, false, true)
	require.NoError(t, err)
	assert.Equal(t, soon, expiration)
}
