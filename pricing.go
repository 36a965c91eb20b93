package seaswap

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/seaswaplabs/seaswap-sdk-go/wyvern"
)

// Time-window rules applied when building orders. Matching orders are built
// for immediate settlement and skip the minimum lead rule.
const (
	// minOrderLead is the shortest allowed gap between now and an
	// order's expiration.
	minOrderLead = 15 * time.Minute

	// maxOrderHorizon bounds how far ahead an order may expire.
	maxOrderHorizon = 180 * 24 * time.Hour

	// matchingLatency extends an English auction's on-chain expiration
	// past its nominal one, leaving time to settle the winning bid.
	matchingLatency = 7 * 24 * time.Hour
)

// Fees is the resolved fee schedule for one order: platform rates combined
// with the asset collection's own rates and any affiliate bounty.
type Fees struct {
	TotalBuyerFeeBasisPoints     int64
	TotalSellerFeeBasisPoints    int64
	PlatformBuyerFeeBasisPoints  int64
	PlatformSellerFeeBasisPoints int64
	DevBuyerFeeBasisPoints       int64
	DevSellerFeeBasisPoints      int64
	SellerBountyBasisPoints      int64
	TransferFee                  *big.Int
	TransferFeeTokenAddress      string
}

// computeFees resolves the fee schedule for an order over the given asset.
// A nil metadata falls back to the platform defaults. The affiliate bounty
// plus the platform's own bounty share must fit under the collection's
// seller-fee rate.
func computeFees(metadata *AssetMetadata, side wyvern.Side, bountyBasisPoints int64) (*Fees, error) {
	fees := &Fees{
		PlatformBuyerFeeBasisPoints:  DefaultBuyerFeeBasisPoints,
		PlatformSellerFeeBasisPoints: DefaultSellerFeeBasisPoints,
	}

	if metadata != nil {
		c := metadata.Collection
		fees.PlatformBuyerFeeBasisPoints = c.PlatformBuyerFeeBasisPoints
		fees.PlatformSellerFeeBasisPoints = c.PlatformSellerFeeBasisPoints
		fees.DevBuyerFeeBasisPoints = c.DevBuyerFeeBasisPoints
		fees.DevSellerFeeBasisPoints = c.DevSellerFeeBasisPoints()

		if metadata.TransferFee != nil {
			amount, ok := new(big.Int).SetString(metadata.TransferFee.Amount, 10)
			if !ok {
				return nil, validationErrorf("invalid transfer fee amount %q", metadata.TransferFee.Amount)
			}
			fees.TransferFee = amount
			fees.TransferFeeTokenAddress = metadata.TransferFee.TokenAddress
		}
	}

	if bountyBasisPoints < 0 {
		return nil, validationErrorf("bounty cannot be negative, got %d basis points", bountyBasisPoints)
	}
	if bountyBasisPoints > 0 && side != wyvern.SideSell {
		return nil, validationErrorf("bounties are only supported on sell orders")
	}

	// The bounty is carved out of the seller fee, so the collection's
	// seller-fee rate is the ceiling for bounty plus platform share.
	maxBounty := fees.PlatformSellerFeeBasisPoints
	if bountyBasisPoints+PlatformBountyBasisPoints > maxBounty {
		return nil, &BountyTooLargeError{
			BountyBasisPoints: bountyBasisPoints + PlatformBountyBasisPoints,
			MaxBasisPoints:    maxBounty,
		}
	}
	fees.SellerBountyBasisPoints = bountyBasisPoints

	fees.TotalBuyerFeeBasisPoints = fees.PlatformBuyerFeeBasisPoints + fees.DevBuyerFeeBasisPoints
	fees.TotalSellerFeeBasisPoints = fees.PlatformSellerFeeBasisPoints + fees.DevSellerFeeBasisPoints
	return fees, nil
}

// PriceParameters carries an order's price terms in the payment token's
// smallest unit.
type PriceParameters struct {
	SaleKind     wyvern.SaleKind
	BasePrice    *big.Int
	Extra        *big.Int
	EndPrice     *big.Int
	ReservePrice *big.Int
	PaymentToken common.Address
}

// priceParameters validates and converts human-scale price terms. A set
// endAmount below startAmount makes a Dutch auction whose extra is the full
// intended decay. Native-coin payment is only allowed for plain sell orders:
// buy orders and English auctions both need the settlement contract to hold
// and compare balances, which requires an ERC-20-like token.
func priceParameters(side wyvern.Side, paymentToken common.Address, tokenDecimals int32,
	startAmount decimal.Decimal, endAmount, reservePrice *decimal.Decimal,
	expirationTime int64, waitingForBestCounterOrder bool) (*PriceParameters, error) {

	isDutch := endAmount != nil && !endAmount.Equal(startAmount)

	if isDutch && endAmount.GreaterThan(startAmount) {
		return nil, validationErrorf("end price %s cannot exceed start price %s: prices may only decline over a listing", endAmount.String(), startAmount.String())
	}
	if isDutch && expirationTime == 0 {
		return nil, validationErrorf("a declining-price listing requires an expiration time")
	}
	if reservePrice != nil && !waitingForBestCounterOrder {
		return nil, validationErrorf("reserve prices are only supported on English auctions")
	}
	if reservePrice != nil && reservePrice.LessThan(startAmount) {
		return nil, validationErrorf("reserve price %s cannot be below the start price %s", reservePrice.String(), startAmount.String())
	}
	if isNativeToken(paymentToken) {
		if side == wyvern.SideBuy {
			return nil, validationErrorf("offers must use a wrapped or ERC20 payment token, not the native coin")
		}
		if waitingForBestCounterOrder {
			return nil, validationErrorf("English auctions must use a wrapped or ERC20 payment token, not the native coin")
		}
	}

	basePrice, err := toBaseUnits(startAmount, tokenDecimals)
	if err != nil {
		return nil, err
	}

	params := &PriceParameters{
		SaleKind:     wyvern.SaleKindFixedPrice,
		BasePrice:    basePrice,
		Extra:        big.NewInt(0),
		PaymentToken: paymentToken,
	}

	if isDutch {
		endPrice, err := toBaseUnits(*endAmount, tokenDecimals)
		if err != nil {
			return nil, err
		}
		params.SaleKind = wyvern.SaleKindDutchAuction
		params.EndPrice = endPrice
		params.Extra = new(big.Int).Sub(basePrice, endPrice)
	}

	if reservePrice != nil {
		reserve, err := toBaseUnits(*reservePrice, tokenDecimals)
		if err != nil {
			return nil, err
		}
		params.ReservePrice = reserve
	}

	return params, nil
}

// timeParameters validates and normalizes an order's listing window. A zero
// listingTimestamp means "list now". English auctions are transformed so the
// on-chain listing starts at the nominal expiration and the on-chain
// expiration absorbs the matching latency. Matching orders skip the minimum
// lead rule since they settle immediately and are never listed.
func timeParameters(now time.Time, listingTimestamp, expirationTimestamp int64,
	waitingForBestCounterOrder, isMatchingOrder bool) (listing, expiration int64, err error) {

	if expirationTimestamp == 0 {
		if !isMatchingOrder {
			return 0, 0, validationErrorf("an expiration time is required; non-expiring listings are not supported")
		}
		if listingTimestamp == 0 {
			listingTimestamp = now.Unix()
		}
		return listingTimestamp, 0, nil
	}

	minExpiration := now.Add(minOrderLead).Unix()
	if !isMatchingOrder && expirationTimestamp < minExpiration {
		return 0, 0, validationErrorf("expiration time must be at least %v in the future", minOrderLead)
	}
	maxExpiration := now.Add(maxOrderHorizon).Unix()
	if expirationTimestamp > maxExpiration {
		return 0, 0, validationErrorf("expiration time cannot be more than %v in the future", maxOrderHorizon)
	}

	if listingTimestamp == 0 {
		listingTimestamp = now.Unix()
	}
	if listingTimestamp >= expirationTimestamp {
		return 0, 0, validationErrorf("listing time %d must precede the expiration time %d", listingTimestamp, expirationTimestamp)
	}

	if waitingForBestCounterOrder {
		// The nominal expiration becomes the moment bids close and
		// settlement may begin.
		listingTimestamp = expirationTimestamp
		expirationTimestamp += int64(matchingLatency / time.Second)
	}

	return listingTimestamp, expirationTimestamp, nil
}
