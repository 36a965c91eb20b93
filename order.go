package seaswap

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/seaswaplabs/seaswap-sdk-go/schema"
	"github.com/seaswaplabs/seaswap-sdk-go/wyvern"
)

// SellOrderOptions describes a listing to be built. StartAmount and the
// other amounts are human-scale, in whole payment-token units.
type SellOrderOptions struct {
	Asset          Asset
	AccountAddress common.Address
	StartAmount    Amount

	// EndAmount, when set below StartAmount, makes the price decline
	// linearly over the listing window.
	EndAmount *Amount

	Quantity       *big.Int
	ListingTime    int64
	ExpirationTime int64

	// WaitForHighestBid runs an English auction instead of an immediate
	// sale. EnglishAuctionReservePrice, when set, hides bids below it.
	WaitForHighestBid          bool
	EnglishAuctionReservePrice *Amount

	// PaymentTokenAddress left zero means the network's native coin.
	PaymentTokenAddress common.Address

	// ExtraBountyBasisPoints is an affiliate bounty carved out of the
	// seller fee.
	ExtraBountyBasisPoints int64

	// BuyerAddress, when set, restricts fulfillment to one taker.
	BuyerAddress common.Address
}

// BuyOrderOptions describes an offer to be built. Offers always use an
// ERC20-like payment token.
type BuyOrderOptions struct {
	Asset               Asset
	AccountAddress      common.Address
	StartAmount         Amount
	Quantity            *big.Int
	ExpirationTime      int64
	PaymentTokenAddress common.Address
}

// BundleSellOrderOptions lists several assets for atomic sale as one lot.
type BundleSellOrderOptions struct {
	BundleName        string
	BundleDescription string
	Assets            []Asset
	AccountAddress    common.Address
	StartAmount       Amount
	EndAmount         *Amount
	ListingTime       int64
	ExpirationTime    int64

	WaitForHighestBid          bool
	EnglishAuctionReservePrice *Amount

	PaymentTokenAddress    common.Address
	ExtraBountyBasisPoints int64
	BuyerAddress           common.Address
}

// BundleBuyOrderOptions offers on several assets as one atomic lot.
type BundleBuyOrderOptions struct {
	BundleName          string
	BundleDescription   string
	Assets              []Asset
	AccountAddress      common.Address
	StartAmount         Amount
	ExpirationTime      int64
	PaymentTokenAddress common.Address
}

// toSchemaAsset lowers the caller-facing asset descriptor into the encoder's
// form, folding in an explicit quantity when one was given.
func (a Asset) toSchemaAsset(quantity *big.Int) schema.Asset {
	sa := schema.Asset{
		Address:  common.HexToAddress(a.TokenAddress),
		TokenID:  a.TokenID,
		Quantity: a.Quantity,
	}
	if quantity != nil {
		sa.Quantity = quantity
	}
	return sa
}

// assetMetadata fetches the marketplace's view of an asset. Without an
// order-book client the platform fee defaults apply.
func (c *Client) assetMetadata(a Asset) (*AssetMetadata, error) {
	if c.apiClient == nil {
		return nil, nil
	}
	tokenID := ""
	if a.TokenID != nil {
		tokenID = a.TokenID.String()
	}
	meta, err := c.apiClient.GetAsset(a.TokenAddress, tokenID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch asset metadata")
	}
	return meta, nil
}

// paymentTokenDecimals resolves the decimal count used for base-unit
// conversion.
func (c *Client) paymentTokenDecimals(ctx context.Context, token common.Address) (int32, error) {
	if isNativeToken(token) {
		return NativeTokenDecimals, nil
	}
	decimals, err := c.caller.ERC20Decimals(ctx, token)
	if err != nil {
		return 0, errors.Wrap(err, "read payment token decimals")
	}
	return int32(decimals), nil
}

// makeSellOrder assembles an unsigned sell order: fees, calldata, price and
// time terms, static check, and a fresh salt.
func (c *Client) makeSellOrder(ctx context.Context, opts *SellOrderOptions) (*wyvern.Order, error) {
	meta, err := c.assetMetadata(opts.Asset)
	if err != nil {
		return nil, err
	}
	fees, err := computeFees(meta, wyvern.SideSell, opts.ExtraBountyBasisPoints)
	if err != nil {
		return nil, err
	}

	sch, err := c.registry.Get(opts.Asset.SchemaName)
	if err != nil {
		return nil, err
	}
	spec, err := schema.EncodeSell(sch, opts.Asset.toSchemaAsset(opts.Quantity), opts.AccountAddress)
	if err != nil {
		return nil, err
	}

	decimals, err := c.paymentTokenDecimals(ctx, opts.PaymentTokenAddress)
	if err != nil {
		return nil, err
	}
	price, err := priceParameters(wyvern.SideSell, opts.PaymentTokenAddress, decimals,
		opts.StartAmount, opts.EndAmount,
		opts.EnglishAuctionReservePrice,
		opts.ExpirationTime, opts.WaitForHighestBid)
	if err != nil {
		return nil, err
	}
	listing, expiration, err := timeParameters(c.now(), opts.ListingTime, opts.ExpirationTime,
		opts.WaitForHighestBid, false)
	if err != nil {
		return nil, err
	}

	static, err := c.staticCallTargetAndExtradata(ctx, meta, opts.Asset, nil)
	if err != nil {
		return nil, err
	}

	salt, err := generateSalt()
	if err != nil {
		return nil, err
	}

	// English auction sell orders carry no fee recipient: they are matched
	// privately and the synthesized buy order collects the fees.
	feeRecipient := common.HexToAddress(c.addresses.FeeRecipient)
	if opts.WaitForHighestBid {
		feeRecipient = common.Address{}
	}

	order := &wyvern.Order{
		Exchange:           c.contracts.Exchange,
		Maker:              opts.AccountAddress,
		Taker:              opts.BuyerAddress,
		MakerRelayerFee:    big.NewInt(fees.TotalSellerFeeBasisPoints),
		TakerRelayerFee:    big.NewInt(fees.TotalBuyerFeeBasisPoints),
		MakerProtocolFee:   big.NewInt(0),
		TakerProtocolFee:   big.NewInt(0),
		FeeRecipient:       feeRecipient,
		FeeMethod:          wyvern.FeeMethodSplitFee,
		Side:               wyvern.SideSell,
		SaleKind:           price.SaleKind,
		Target:             spec.Target,
		HowToCall:          wyvern.CallDirect,
		Calldata:           spec.Calldata,
		ReplacementPattern: spec.ReplacementPattern,
		StaticTarget:       static.Target,
		StaticExtradata:    static.Extradata,
		PaymentToken:       price.PaymentToken,
		BasePrice:          price.BasePrice,
		Extra:              price.Extra,
		ListingTime:        big.NewInt(listing),
		ExpirationTime:     big.NewInt(expiration),
		Salt:               salt,
		Metadata: wyvern.SingleAsset{
			Asset:  opts.Asset.toSchemaAsset(opts.Quantity),
			Schema: opts.Asset.SchemaName,
		},
		WaitingForBestCounterOrder: opts.WaitForHighestBid,
		EnglishAuctionReservePrice: price.ReservePrice,
	}
	return order, nil
}

// makeBuyOrder assembles an unsigned offer. The calldata leaves the seller
// slot wildcarded so any current owner can fulfill.
func (c *Client) makeBuyOrder(ctx context.Context, opts *BuyOrderOptions) (*wyvern.Order, error) {
	meta, err := c.assetMetadata(opts.Asset)
	if err != nil {
		return nil, err
	}
	fees, err := computeFees(meta, wyvern.SideBuy, 0)
	if err != nil {
		return nil, err
	}

	sch, err := c.registry.Get(opts.Asset.SchemaName)
	if err != nil {
		return nil, err
	}
	spec, err := schema.EncodeBuy(sch, opts.Asset.toSchemaAsset(opts.Quantity), opts.AccountAddress)
	if err != nil {
		return nil, err
	}

	decimals, err := c.paymentTokenDecimals(ctx, opts.PaymentTokenAddress)
	if err != nil {
		return nil, err
	}
	price, err := priceParameters(wyvern.SideBuy, opts.PaymentTokenAddress, decimals,
		opts.StartAmount, nil, nil, opts.ExpirationTime, false)
	if err != nil {
		return nil, err
	}
	listing, expiration, err := timeParameters(c.now(), 0, opts.ExpirationTime, false, false)
	if err != nil {
		return nil, err
	}

	salt, err := generateSalt()
	if err != nil {
		return nil, err
	}

	order := &wyvern.Order{
		Exchange:           c.contracts.Exchange,
		Maker:              opts.AccountAddress,
		Taker:              common.Address{},
		MakerRelayerFee:    big.NewInt(fees.TotalBuyerFeeBasisPoints),
		TakerRelayerFee:    big.NewInt(fees.TotalSellerFeeBasisPoints),
		MakerProtocolFee:   big.NewInt(0),
		TakerProtocolFee:   big.NewInt(0),
		FeeRecipient:       common.HexToAddress(c.addresses.FeeRecipient),
		FeeMethod:          wyvern.FeeMethodSplitFee,
		Side:               wyvern.SideBuy,
		SaleKind:           wyvern.SaleKindFixedPrice,
		Target:             spec.Target,
		HowToCall:          wyvern.CallDirect,
		Calldata:           spec.Calldata,
		ReplacementPattern: spec.ReplacementPattern,
		StaticTarget:       common.Address{},
		StaticExtradata:    []byte{},
		PaymentToken:       price.PaymentToken,
		BasePrice:          price.BasePrice,
		Extra:              price.Extra,
		ListingTime:        big.NewInt(listing),
		ExpirationTime:     big.NewInt(expiration),
		Salt:               salt,
		Metadata: wyvern.SingleAsset{
			Asset:  opts.Asset.toSchemaAsset(opts.Quantity),
			Schema: opts.Asset.SchemaName,
		},
	}
	return order, nil
}

// bundleComponents resolves each bundle asset's schema and lowers the
// descriptors, keeping the two slices parallel.
func (c *Client) bundleComponents(assets []Asset) ([]*schema.Schema, []schema.Asset, []schema.Name, error) {
	if len(assets) == 0 {
		return nil, nil, nil, validationErrorf("a bundle needs at least one asset")
	}
	schemas := make([]*schema.Schema, len(assets))
	lowered := make([]schema.Asset, len(assets))
	names := make([]schema.Name, len(assets))
	for i, a := range assets {
		sch, err := c.registry.Get(a.SchemaName)
		if err != nil {
			return nil, nil, nil, err
		}
		schemas[i] = sch
		lowered[i] = a.toSchemaAsset(nil)
		names[i] = a.SchemaName
	}
	return schemas, lowered, names, nil
}

// makeBundleSellOrder lists several assets as one atomic lot routed through
// the atomizer contract.
func (c *Client) makeBundleSellOrder(ctx context.Context, opts *BundleSellOrderOptions) (*wyvern.Order, error) {
	schemas, lowered, names, err := c.bundleComponents(opts.Assets)
	if err != nil {
		return nil, err
	}

	// Collection fees are per-asset; a mixed bundle gets the platform
	// defaults.
	fees, err := computeFees(nil, wyvern.SideSell, opts.ExtraBountyBasisPoints)
	if err != nil {
		return nil, err
	}

	spec, err := schema.EncodeAtomicizedSell(schemas, lowered, opts.AccountAddress, c.contracts.Atomizer)
	if err != nil {
		return nil, err
	}

	decimals, err := c.paymentTokenDecimals(ctx, opts.PaymentTokenAddress)
	if err != nil {
		return nil, err
	}
	price, err := priceParameters(wyvern.SideSell, opts.PaymentTokenAddress, decimals,
		opts.StartAmount, opts.EndAmount,
		opts.EnglishAuctionReservePrice,
		opts.ExpirationTime, opts.WaitForHighestBid)
	if err != nil {
		return nil, err
	}
	listing, expiration, err := timeParameters(c.now(), opts.ListingTime, opts.ExpirationTime,
		opts.WaitForHighestBid, false)
	if err != nil {
		return nil, err
	}

	salt, err := generateSalt()
	if err != nil {
		return nil, err
	}

	feeRecipient := common.HexToAddress(c.addresses.FeeRecipient)
	if opts.WaitForHighestBid {
		feeRecipient = common.Address{}
	}

	order := &wyvern.Order{
		Exchange:           c.contracts.Exchange,
		Maker:              opts.AccountAddress,
		Taker:              opts.BuyerAddress,
		MakerRelayerFee:    big.NewInt(fees.TotalSellerFeeBasisPoints),
		TakerRelayerFee:    big.NewInt(fees.TotalBuyerFeeBasisPoints),
		MakerProtocolFee:   big.NewInt(0),
		TakerProtocolFee:   big.NewInt(0),
		FeeRecipient:       feeRecipient,
		FeeMethod:          wyvern.FeeMethodSplitFee,
		Side:               wyvern.SideSell,
		SaleKind:           price.SaleKind,
		Target:             spec.Target,
		HowToCall:          wyvern.CallDelegate,
		Calldata:           spec.Calldata,
		ReplacementPattern: spec.ReplacementPattern,
		StaticTarget:       common.Address{},
		StaticExtradata:    []byte{},
		PaymentToken:       price.PaymentToken,
		BasePrice:          price.BasePrice,
		Extra:              price.Extra,
		ListingTime:        big.NewInt(listing),
		ExpirationTime:     big.NewInt(expiration),
		Salt:               salt,
		Metadata: wyvern.Bundle{
			Name:        opts.BundleName,
			Description: opts.BundleDescription,
			Assets:      lowered,
			Schemas:     names,
		},
		WaitingForBestCounterOrder: opts.WaitForHighestBid,
		EnglishAuctionReservePrice: price.ReservePrice,
	}
	return order, nil
}

// makeBundleBuyOrder offers on several assets as one atomic lot.
func (c *Client) makeBundleBuyOrder(ctx context.Context, opts *BundleBuyOrderOptions) (*wyvern.Order, error) {
	schemas, lowered, names, err := c.bundleComponents(opts.Assets)
	if err != nil {
		return nil, err
	}

	fees, err := computeFees(nil, wyvern.SideBuy, 0)
	if err != nil {
		return nil, err
	}

	spec, err := schema.EncodeAtomicizedBuy(schemas, lowered, opts.AccountAddress, c.contracts.Atomizer)
	if err != nil {
		return nil, err
	}

	decimals, err := c.paymentTokenDecimals(ctx, opts.PaymentTokenAddress)
	if err != nil {
		return nil, err
	}
	price, err := priceParameters(wyvern.SideBuy, opts.PaymentTokenAddress, decimals,
		opts.StartAmount, nil, nil, opts.ExpirationTime, false)
	if err != nil {
		return nil, err
	}
	listing, expiration, err := timeParameters(c.now(), 0, opts.ExpirationTime, false, false)
	if err != nil {
		return nil, err
	}

	salt, err := generateSalt()
	if err != nil {
		return nil, err
	}

	order := &wyvern.Order{
		Exchange:           c.contracts.Exchange,
		Maker:              opts.AccountAddress,
		Taker:              common.Address{},
		MakerRelayerFee:    big.NewInt(fees.TotalBuyerFeeBasisPoints),
		TakerRelayerFee:    big.NewInt(fees.TotalSellerFeeBasisPoints),
		MakerProtocolFee:   big.NewInt(0),
		TakerProtocolFee:   big.NewInt(0),
		FeeRecipient:       common.HexToAddress(c.addresses.FeeRecipient),
		FeeMethod:          wyvern.FeeMethodSplitFee,
		Side:               wyvern.SideBuy,
		SaleKind:           wyvern.SaleKindFixedPrice,
		Target:             spec.Target,
		HowToCall:          wyvern.CallDelegate,
		Calldata:           spec.Calldata,
		ReplacementPattern: spec.ReplacementPattern,
		StaticTarget:       common.Address{},
		StaticExtradata:    []byte{},
		PaymentToken:       price.PaymentToken,
		BasePrice:          price.BasePrice,
		Extra:              price.Extra,
		ListingTime:        big.NewInt(listing),
		ExpirationTime:     big.NewInt(expiration),
		Salt:               salt,
		Metadata: wyvern.Bundle{
			Name:        opts.BundleName,
			Description: opts.BundleDescription,
			Assets:      lowered,
			Schemas:     names,
		},
	}
	return order, nil
}
