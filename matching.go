package seaswap

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/seaswaplabs/seaswap-sdk-go/schema"
	"github.com/seaswaplabs/seaswap-sdk-go/wyvern"
)

// Pre-flight match validation retries: orders freshly invalidated on-chain
// may still be propagating, so a rejection is rechecked before surfacing.
const (
	matchValidationAttempts = 3
	matchValidationDelay    = 2 * time.Second
)

// staticCallTargetAndExtradata picks the static invariant check embedded in
// an order. Assets exposing a mutable fingerprint get it pinned to its
// current on-chain value so the settlement contract aborts if it changes
// before fulfillment. A non-nil txOrigin instead pins the transaction sender,
// used when matching English auctions so the winning bid cannot be relayed
// by a third party. Everything else gets a no-op check.
func (c *Client) staticCallTargetAndExtradata(ctx context.Context, meta *AssetMetadata, asset Asset, txOrigin *common.Address) (wyvern.StaticCall, error) {
	if txOrigin != nil {
		return wyvern.TxOriginStaticCall(c.contracts.StaticChecker, *txOrigin)
	}
	if meta != nil && meta.HasFingerprint && asset.TokenID != nil {
		fingerprint, err := c.caller.Fingerprint(ctx, common.HexToAddress(asset.TokenAddress), asset.TokenID)
		if err != nil {
			return wyvern.StaticCall{}, errors.Wrap(err, "read asset fingerprint")
		}
		return wyvern.FingerprintStaticCall(c.contracts.StaticChecker, asset.TokenID, fingerprint)
	}
	return wyvern.NoStaticCall, nil
}

// matchingFeeRecipient resolves the fee recipient a synthesized counter-order
// must carry. Exactly one side of a match names a recipient, so the counter
// takes the platform recipient when the original carries none and no
// recipient when the original carries one. Orders recorded with the null
// address in the no-fee era substitute the legacy recipient so they remain
// matchable.
func (c *Client) matchingFeeRecipient(original *wyvern.Order) common.Address {
	if original.FeeRecipient == (common.Address{}) {
		if original.WaitingForBestCounterOrder {
			return common.HexToAddress(c.addresses.FeeRecipient)
		}
		return common.HexToAddress(c.addresses.LegacyFeeRecipient)
	}
	return common.Address{}
}

// MakeMatchingOrder synthesizes the counter-order that fulfills order at its
// current terms for accountAddress. The counter takes the opposite side,
// re-derives calldata with the taker's address filled in, carries no
// independent price decay, and gets an expiration suited only for immediate
// settlement.
func (c *Client) MakeMatchingOrder(ctx context.Context, order *wyvern.Order, accountAddress common.Address) (*wyvern.Order, error) {
	if order.Metadata == nil {
		return nil, validationErrorf("order has no asset metadata to derive a counter-order from")
	}

	side := order.Side.Opposite()

	var (
		spec *schema.CallSpec
		err  error
	)
	switch md := order.Metadata.(type) {
	case wyvern.SingleAsset:
		sch, gerr := c.registry.Get(md.Schema)
		if gerr != nil {
			return nil, gerr
		}
		if side == wyvern.SideBuy {
			spec, err = schema.EncodeBuy(sch, md.Asset, accountAddress)
		} else {
			spec, err = schema.EncodeSell(sch, md.Asset, accountAddress)
		}
	case wyvern.Bundle:
		schemas := make([]*schema.Schema, len(md.Schemas))
		for i, name := range md.Schemas {
			schemas[i], err = c.registry.Get(name)
			if err != nil {
				return nil, err
			}
		}
		if side == wyvern.SideBuy {
			spec, err = schema.EncodeAtomicizedBuy(schemas, md.Assets, accountAddress, c.contracts.Atomizer)
		} else {
			spec, err = schema.EncodeAtomicizedSell(schemas, md.Assets, accountAddress, c.contracts.Atomizer)
		}
	default:
		return nil, validationErrorf("unknown order metadata variant %T", order.Metadata)
	}
	if err != nil {
		return nil, err
	}

	var static wyvern.StaticCall
	if order.WaitingForBestCounterOrder {
		static, err = c.staticCallTargetAndExtradata(ctx, nil, Asset{}, &accountAddress)
		if err != nil {
			return nil, err
		}
	} else {
		static = wyvern.NoStaticCall
	}

	listing, expiration, err := timeParameters(c.now(), 0, 0, false, true)
	if err != nil {
		return nil, err
	}

	salt, err := generateSalt()
	if err != nil {
		return nil, err
	}

	matching := &wyvern.Order{
		Exchange: order.Exchange,
		Maker:    accountAddress,
		Taker:    order.Maker,

		// Fee terms mirror the original so the exchange's symmetry checks
		// hold.
		MakerRelayerFee:  new(big.Int).Set(order.MakerRelayerFee),
		TakerRelayerFee:  new(big.Int).Set(order.TakerRelayerFee),
		MakerProtocolFee: new(big.Int).Set(order.MakerProtocolFee),
		TakerProtocolFee: new(big.Int).Set(order.TakerProtocolFee),
		FeeRecipient:     c.matchingFeeRecipient(order),
		FeeMethod:        order.FeeMethod,

		Side:     side,
		SaleKind: wyvern.SaleKindFixedPrice,

		Target:             spec.Target,
		HowToCall:          order.HowToCall,
		Calldata:           spec.Calldata,
		ReplacementPattern: spec.ReplacementPattern,

		StaticTarget:    static.Target,
		StaticExtradata: static.Extradata,

		PaymentToken: order.PaymentToken,
		BasePrice:    new(big.Int).Set(order.BasePrice),
		// The counter always meets the original's current price; it never
		// decays on its own.
		Extra: big.NewInt(0),

		ListingTime:    big.NewInt(listing),
		ExpirationTime: big.NewInt(expiration),
		Salt:           salt,

		Metadata: order.Metadata,
	}
	return matching, nil
}

// validateMatch asks the settlement contract whether two orders can settle:
// optionally each order's own standing first, then the pairwise parameter
// and calldata predicates. Failed checks are retried a bounded number of
// times before a consolidated rejection names the maker.
func (c *Client) validateMatch(ctx context.Context, buy, sell *wyvern.SignedOrder, validateEachSide bool) error {
	stale := sell
	check := func(ctx context.Context) error {
		if validateEachSide {
			for _, so := range []*wyvern.SignedOrder{buy, sell} {
				ok, err := c.caller.ValidateOrder(ctx, so.Order, so.Signature)
				if err != nil {
					return errors.Wrap(err, "validate order standing")
				}
				if !ok {
					stale = so
					return errors.Errorf("%s order by %s is no longer valid", so.Order.Side, so.Order.Maker.Hex())
				}
			}
		}

		ok, err := c.caller.OrdersCanMatch(ctx, buy.Order, sell.Order)
		if err != nil {
			return errors.Wrap(err, "query match predicate")
		}
		if !ok {
			return errors.New("order parameters do not match")
		}

		ok, err = c.caller.OrderCalldataCanMatch(ctx, buy.Order, sell.Order)
		if err != nil {
			return errors.Wrap(err, "query calldata match predicate")
		}
		if !ok {
			return errors.New("order calldata does not match")
		}
		return nil
	}

	if err := retry(ctx, "validate match", matchValidationAttempts, matchValidationDelay, check); err != nil {
		return &MatchRejectedError{
			Maker:  stale.Order.Maker,
			Reason: "pre-flight validation failed",
			Err:    err,
		}
	}
	return nil
}
