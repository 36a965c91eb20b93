// Package seaswap is the Go SDK for the Seaswap NFT marketplace: it builds,
// signs, and settles Wyvern-protocol orders for single assets and atomic
// bundles, and tracks the resulting transactions to confirmation.
package seaswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/seaswaplabs/seaswap-sdk-go/schema"
	"github.com/seaswaplabs/seaswap-sdk-go/wyvern"
)

// Client is the main SDK client.
type Client struct {
	apiClient *APIClient
	caller    *wyvern.Caller
	monitor   *wyvern.Monitor
	registry  *schema.Registry
	notifier  Notifier
	log       *zap.Logger

	chainID   ChainID
	addresses ContractAddresses
	contracts wyvern.ContractSuite

	// owned is the dialed connection to close, nil when the backend was
	// injected.
	owned *ethclient.Client

	now func() time.Time
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	ChainID    ChainID
	RPCURL     string
	PrivateKey string

	// Host and APIKey configure the order-book API. Leaving Host empty
	// disables order persistence and collection fee lookup.
	Host   string
	APIKey string

	// Addresses overrides the chain's default contract suite.
	Addresses *ContractAddresses

	// Backend overrides RPCURL with an already-connected node client.
	Backend wyvern.Backend

	Logger   *zap.Logger
	Notifier Notifier
}

// NewClient creates a new Seaswap SDK client.
func NewClient(config ClientConfig) (*Client, error) {
	addresses, ok := DefaultContractAddresses[config.ChainID]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedChain, "chain_id must be one of %v", SupportedChainIDs)
	}
	if config.Addresses != nil {
		addresses = *config.Addresses
	}

	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Notifier == nil {
		config.Notifier = NewLogNotifier(config.Logger)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(config.PrivateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}

	backend := config.Backend
	var owned *ethclient.Client
	if backend == nil {
		owned, err = ethclient.Dial(config.RPCURL)
		if err != nil {
			return nil, errors.Wrap(err, "connect to node")
		}
		backend = owned
	}

	contracts := wyvern.ContractSuite{
		Exchange:           common.HexToAddress(addresses.Exchange),
		ProxyRegistry:      common.HexToAddress(addresses.ProxyRegistry),
		TokenTransferProxy: common.HexToAddress(addresses.TokenTransferProxy),
		Atomizer:           common.HexToAddress(addresses.Atomizer),
		StaticChecker:      common.HexToAddress(addresses.StaticChecker),
	}

	var apiClient *APIClient
	if config.Host != "" {
		apiClient = NewAPIClient(config.Host, config.APIKey, config.ChainID)
	}

	return &Client{
		apiClient: apiClient,
		caller:    wyvern.NewCaller(backend, key, contracts, config.Logger),
		monitor:   wyvern.NewMonitor(backend, config.Notifier, config.Logger),
		registry:  schema.NewRegistry(),
		notifier:  config.Notifier,
		log:       config.Logger,
		chainID:   config.ChainID,
		addresses: addresses,
		contracts: contracts,
		owned:     owned,
		now:       time.Now,
	}, nil
}

// Close releases the node connection when the client owns one.
func (c *Client) Close() {
	if c.owned != nil {
		c.owned.Close()
	}
}

// Account returns the address orders are signed and submitted with.
func (c *Client) Account() common.Address {
	return c.caller.SignerAddress()
}

// SignOrder reads the maker's current exchange nonce and signs order's
// typed-data hash.
func (c *Client) SignOrder(ctx context.Context, order *wyvern.Order) (*wyvern.SignedOrder, error) {
	nonce, err := c.caller.Nonce(ctx, order.Maker)
	if err != nil {
		return nil, errors.Wrap(err, "read maker nonce")
	}
	order.Nonce = nonce
	return wyvern.SignOrder(order, big.NewInt(int64(c.chainID)), c.caller.Key())
}

// CreateSellOrder builds, approves, validates, signs, and posts a listing.
func (c *Client) CreateSellOrder(ctx context.Context, opts *SellOrderOptions) (*wyvern.SignedOrder, error) {
	order, err := c.makeSellOrder(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := c.ApproveAllAssets(ctx, []Asset{opts.Asset}); err != nil {
		return nil, err
	}
	return c.finalizeOrder(ctx, order)
}

// CreateBuyOrder builds, approves, validates, signs, and posts an offer.
func (c *Client) CreateBuyOrder(ctx context.Context, opts *BuyOrderOptions) (*wyvern.SignedOrder, error) {
	order, err := c.makeBuyOrder(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := c.ApproveFungibleToken(ctx, order.PaymentToken, order.BasePrice); err != nil {
		return nil, err
	}
	return c.finalizeOrder(ctx, order)
}

// CreateBundleSellOrder lists several assets as one atomic lot.
func (c *Client) CreateBundleSellOrder(ctx context.Context, opts *BundleSellOrderOptions) (*wyvern.SignedOrder, error) {
	order, err := c.makeBundleSellOrder(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := c.ApproveAllAssets(ctx, opts.Assets); err != nil {
		return nil, err
	}
	return c.finalizeOrder(ctx, order)
}

// CreateBundleBuyOrder offers on several assets as one atomic lot.
func (c *Client) CreateBundleBuyOrder(ctx context.Context, opts *BundleBuyOrderOptions) (*wyvern.SignedOrder, error) {
	order, err := c.makeBundleBuyOrder(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := c.ApproveFungibleToken(ctx, order.PaymentToken, order.BasePrice); err != nil {
		return nil, err
	}
	return c.finalizeOrder(ctx, order)
}

// finalizeOrder checks the assembled order against the exchange, signs it,
// and persists it to the order book.
func (c *Client) finalizeOrder(ctx context.Context, order *wyvern.Order) (*wyvern.SignedOrder, error) {
	ok, err := c.caller.ValidateOrderParameters(ctx, order)
	if err != nil {
		return nil, errors.Wrap(err, "validate order parameters")
	}
	if !ok {
		c.notifier.Notify(EventOrderDenied, map[string]interface{}{
			"maker": order.Maker.Hex(),
			"side":  order.Side.String(),
		})
		return nil, validationErrorf("the exchange rejected the order parameters")
	}

	signed, err := c.SignOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if c.apiClient != nil {
		if _, err := c.apiClient.PostOrder(signedOrderToPostRequest(signed)); err != nil {
			return nil, errors.Wrap(err, "post order")
		}
	}

	c.notifier.Notify(EventOrderCreated, map[string]interface{}{
		"hash":  signed.Hash.Hex(),
		"maker": order.Maker.Hex(),
		"side":  order.Side.String(),
	})
	return signed, nil
}

// FulfillOrder synthesizes the counter-order for the signed order, runs the
// pre-flight approvals and match validation, and submits the atomic match.
// It returns the settlement transaction hash after the receipt confirms.
func (c *Client) FulfillOrder(ctx context.Context, order *wyvern.SignedOrder) (common.Hash, error) {
	taker := c.Account()
	matching, err := c.MakeMatchingOrder(ctx, order.Order, taker)
	if err != nil {
		return common.Hash{}, err
	}

	// The taker's own order needs no signature: the exchange accepts an
	// unsigned order when its maker is the transaction sender.
	matchingSigned := &wyvern.SignedOrder{Order: matching}

	var buy, sell *wyvern.SignedOrder
	if matching.Side == wyvern.SideBuy {
		buy, sell = matchingSigned, order
		if err := c.ApproveFungibleToken(ctx, matching.PaymentToken, matching.BasePrice); err != nil {
			return common.Hash{}, err
		}
	} else {
		buy, sell = order, matchingSigned
		if err := c.approveMatchingAssets(ctx, matching); err != nil {
			return common.Hash{}, err
		}
	}

	// The listed order may have been filled or cancelled since it was
	// signed; re-check its standing before the pairwise predicates.
	ok, err := c.caller.ValidateOrder(ctx, order.Order, order.Signature)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "validate order standing")
	}
	if !ok {
		return common.Hash{}, &MatchRejectedError{
			Maker:  order.Order.Maker,
			Reason: "the order is no longer valid on-chain",
		}
	}
	if err := c.validateMatch(ctx, buy, sell, false); err != nil {
		return common.Hash{}, err
	}

	value := big.NewInt(0)
	if isNativeToken(order.Order.PaymentToken) && matching.Side == wyvern.SideBuy {
		price, err := c.caller.CalculateCurrentPrice(ctx, order.Order)
		if err != nil {
			return common.Hash{}, errors.Wrap(err, "read current price")
		}
		value = price
	}

	tx, err := c.caller.AtomicMatch(ctx, buy, sell, common.Hash{}, value)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "submit atomic match")
	}

	c.notifier.Notify(EventMatchOrders, map[string]interface{}{
		"tx_hash": tx.Hash().Hex(),
		"buyer":   buy.Order.Maker.Hex(),
		"seller":  sell.Order.Maker.Hex(),
	})

	if _, err := c.monitor.ConfirmReceipt(ctx, tx.Hash(), "atomic match"); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

// approveMatchingAssets runs the seller-side approvals for a taker who is
// fulfilling an offer on assets they hold.
func (c *Client) approveMatchingAssets(ctx context.Context, matching *wyvern.Order) error {
	switch md := matching.Metadata.(type) {
	case wyvern.SingleAsset:
		return c.ApproveAllAssets(ctx, []Asset{{
			TokenAddress: md.Asset.Address.Hex(),
			TokenID:      md.Asset.TokenID,
			SchemaName:   md.Schema,
		}})
	case wyvern.Bundle:
		assets := make([]Asset, len(md.Assets))
		for i, a := range md.Assets {
			assets[i] = Asset{
				TokenAddress: a.Address.Hex(),
				TokenID:      a.TokenID,
				SchemaName:   md.Schemas[i],
			}
		}
		return c.ApproveAllAssets(ctx, assets)
	default:
		return validationErrorf("unknown order metadata variant %T", matching.Metadata)
	}
}

// CancelOrder invalidates a signed order on-chain and waits for the receipt.
func (c *Client) CancelOrder(ctx context.Context, signed *wyvern.SignedOrder) error {
	tx, err := c.caller.CancelOrder(ctx, signed.Order, signed.Signature)
	if err != nil {
		return errors.Wrap(err, "submit cancel")
	}
	if _, err := c.monitor.ConfirmReceipt(ctx, tx.Hash(), "cancel order"); err != nil {
		return err
	}
	c.notifier.Notify(EventOrderCancelled, map[string]interface{}{
		"hash":  signed.Hash.Hex(),
		"maker": signed.Order.Maker.Hex(),
	})
	return nil
}

// BulkCancelExistingOrders invalidates every outstanding order of the signer
// by bumping the maker's exchange nonce. Orders signed afterward embed the
// new nonce and are unaffected.
func (c *Client) BulkCancelExistingOrders(ctx context.Context) error {
	tx, err := c.caller.IncrementNonce(ctx)
	if err != nil {
		return errors.Wrap(err, "submit nonce increment")
	}
	if _, err := c.monitor.ConfirmReceipt(ctx, tx.Hash(), "bulk cancel"); err != nil {
		return err
	}
	c.notifier.Notify(EventOrdersInvalidated, map[string]interface{}{
		"maker": c.Account().Hex(),
	})
	return nil
}

// ApproveOrderOnChain marks an order approved in exchange storage, making it
// fulfillable without a signature check.
func (c *Client) ApproveOrderOnChain(ctx context.Context, signed *wyvern.SignedOrder, orderbookInclusionDesired bool) error {
	tx, err := c.caller.ApproveOrder(ctx, signed.Order, orderbookInclusionDesired)
	if err != nil {
		return errors.Wrap(err, "submit order approval")
	}
	if _, err := c.monitor.ConfirmReceipt(ctx, tx.Hash(), "approve order"); err != nil {
		return err
	}
	c.notifier.Notify(EventOrderApproved, map[string]interface{}{
		"hash":  signed.Hash.Hex(),
		"maker": signed.Order.Maker.Hex(),
	})
	return nil
}

// InitializeProxy ensures the signer has a registered proxy, creating one if
// needed, and returns its address. Proxy creation is confirmed by re-reading
// registry state, not by receipt status, since the registry delays
// initialization by a block on some networks.
func (c *Client) InitializeProxy(ctx context.Context) (common.Address, error) {
	owner := c.Account()
	proxy, err := c.caller.ProxyFor(ctx, owner)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "read proxy")
	}
	if proxy != (common.Address{}) {
		return proxy, nil
	}

	c.notifier.Notify(EventInitializeProxy, map[string]interface{}{
		"owner": owner.Hex(),
	})
	if _, err := c.caller.RegisterProxy(ctx); err != nil {
		return common.Address{}, errors.Wrap(err, "register proxy")
	}

	err = c.monitor.PollPredicate(ctx, "proxy initialization", func(ctx context.Context) (bool, error) {
		proxy, err = c.caller.ProxyFor(ctx, owner)
		if err != nil {
			return false, err
		}
		return proxy != (common.Address{}), nil
	})
	if err != nil {
		return common.Address{}, err
	}
	return proxy, nil
}

// ApproveAllAssets grants the signer's proxy operator rights over every
// distinct contract among assets. Contracts already granted within this
// invocation are skipped, so a bundle never double-approves.
func (c *Client) ApproveAllAssets(ctx context.Context, assets []Asset) error {
	proxy, err := c.InitializeProxy(ctx)
	if err != nil {
		return err
	}
	owner := c.Account()

	if len(assets) > 1 {
		c.notifier.Notify(EventApproveAllAssets, map[string]interface{}{
			"owner": owner.Hex(),
			"count": len(assets),
		})
	}

	visited := make(map[common.Address]bool)
	for _, asset := range assets {
		collection := common.HexToAddress(asset.TokenAddress)
		if visited[collection] {
			continue
		}
		visited[collection] = true

		if asset.SchemaName == schema.ERC20 {
			if err := c.ApproveFungibleToken(ctx, collection, maxUint256); err != nil {
				return err
			}
			continue
		}

		approved, err := c.caller.IsApprovedForAll(ctx, collection, owner, proxy)
		if err != nil {
			return &ApprovalError{Contract: collection, Err: err}
		}
		if approved {
			continue
		}

		c.notifier.Notify(EventApproveAsset, map[string]interface{}{
			"owner":    owner.Hex(),
			"contract": collection.Hex(),
		})
		tx, err := c.caller.SetApprovalForAll(ctx, collection, proxy)
		if err != nil {
			return &ApprovalError{Contract: collection, Err: err}
		}
		if _, err := c.monitor.ConfirmReceipt(ctx, tx.Hash(), fmt.Sprintf("approve collection %s", collection.Hex())); err != nil {
			return &ApprovalError{Contract: collection, Err: err}
		}
	}
	return nil
}

// ApproveFungibleToken ensures the token transfer proxy may move at least
// minAmount of token for the signer, granting an unlimited allowance when
// the current one falls short. The native coin needs no allowance.
func (c *Client) ApproveFungibleToken(ctx context.Context, token common.Address, minAmount *big.Int) error {
	if isNativeToken(token) {
		return nil
	}
	owner := c.Account()
	allowance, err := c.caller.ERC20Allowance(ctx, token, owner)
	if err != nil {
		return &ApprovalError{Contract: token, Err: err}
	}
	if allowance.Cmp(minAmount) >= 0 {
		return nil
	}

	c.notifier.Notify(EventApproveCurrency, map[string]interface{}{
		"owner": owner.Hex(),
		"token": token.Hex(),
	})
	tx, err := c.caller.ApproveERC20(ctx, token, maxUint256)
	if err != nil {
		return &ApprovalError{Contract: token, Err: err}
	}
	if _, err := c.monitor.ConfirmReceipt(ctx, tx.Hash(), fmt.Sprintf("approve token %s", token.Hex())); err != nil {
		return &ApprovalError{Contract: token, Err: err}
	}
	return nil
}

// Transfer sends one asset from the signer to another address and waits for
// the receipt.
func (c *Client) Transfer(ctx context.Context, asset Asset, to common.Address) error {
	sch, err := c.registry.Get(asset.SchemaName)
	if err != nil {
		return err
	}
	spec, err := schema.EncodeTransfer(sch, asset.toSchemaAsset(nil), c.Account(), to)
	if err != nil {
		return err
	}
	tx, err := c.caller.SendCall(ctx, spec.Target, big.NewInt(0), spec.Calldata)
	if err != nil {
		return errors.Wrap(err, "submit transfer")
	}
	if _, err := c.monitor.ConfirmReceipt(ctx, tx.Hash(), "transfer asset"); err != nil {
		return err
	}
	c.notifier.Notify(EventTransferOne, map[string]interface{}{
		"contract": asset.TokenAddress,
		"to":       to.Hex(),
	})
	return nil
}

// TransferAll sends several assets to one recipient. Transfers run
// sequentially; a failure stops the batch with the remaining assets
// untouched.
func (c *Client) TransferAll(ctx context.Context, assets []Asset, to common.Address) error {
	c.notifier.Notify(EventTransferAll, map[string]interface{}{
		"count": len(assets),
		"to":    to.Hex(),
	})
	for i, asset := range assets {
		if err := c.Transfer(ctx, asset, to); err != nil {
			return errors.Wrapf(err, "transfer %d of %d", i+1, len(assets))
		}
	}
	return nil
}

// CurrentPrice reads the order's effective price from the exchange,
// accounting for any decay elapsed so far.
func (c *Client) CurrentPrice(ctx context.Context, order *wyvern.Order) (*big.Int, error) {
	return c.caller.CalculateCurrentPrice(ctx, order)
}

// WrapNative deposits amount of the native coin into the wrapped token, so
// it can back offers and English auction bids.
func (c *Client) WrapNative(ctx context.Context, amount Amount) error {
	base, err := toBaseUnits(amount, NativeTokenDecimals)
	if err != nil {
		return err
	}
	calldata, err := wyvern.GetWrappedNativeABI().Pack("deposit")
	if err != nil {
		return errors.Wrap(err, "pack deposit")
	}
	token := common.HexToAddress(c.addresses.WrappedNativeToken)
	tx, err := c.caller.SendCall(ctx, token, base, calldata)
	if err != nil {
		return errors.Wrap(err, "submit wrap")
	}
	if _, err := c.monitor.ConfirmReceipt(ctx, tx.Hash(), "wrap native coin"); err != nil {
		return err
	}
	c.notifier.Notify(EventWrapNative, map[string]interface{}{
		"amount": base.String(),
	})
	return nil
}

// UnwrapNative withdraws amount from the wrapped token back to the native
// coin.
func (c *Client) UnwrapNative(ctx context.Context, amount Amount) error {
	base, err := toBaseUnits(amount, NativeTokenDecimals)
	if err != nil {
		return err
	}
	calldata, err := wyvern.GetWrappedNativeABI().Pack("withdraw", base)
	if err != nil {
		return errors.Wrap(err, "pack withdraw")
	}
	token := common.HexToAddress(c.addresses.WrappedNativeToken)
	tx, err := c.caller.SendCall(ctx, token, big.NewInt(0), calldata)
	if err != nil {
		return errors.Wrap(err, "submit unwrap")
	}
	if _, err := c.monitor.ConfirmReceipt(ctx, tx.Hash(), "unwrap native coin"); err != nil {
		return err
	}
	c.notifier.Notify(EventUnwrapNative, map[string]interface{}{
		"amount": base.String(),
	})
	return nil
}

// signedOrderToPostRequest flattens a signed order into the order book's
// wire form.
func signedOrderToPostRequest(signed *wyvern.SignedOrder) *PostOrderRequest {
	o := signed.Order
	return &PostOrderRequest{
		Exchange:           o.Exchange.Hex(),
		Maker:              o.Maker.Hex(),
		Taker:              o.Taker.Hex(),
		MakerRelayerFee:    o.MakerRelayerFee.String(),
		TakerRelayerFee:    o.TakerRelayerFee.String(),
		MakerProtocolFee:   o.MakerProtocolFee.String(),
		TakerProtocolFee:   o.TakerProtocolFee.String(),
		FeeRecipient:       o.FeeRecipient.Hex(),
		FeeMethod:          int(o.FeeMethod),
		Side:               int(o.Side),
		SaleKind:           int(o.SaleKind),
		Target:             o.Target.Hex(),
		HowToCall:          int(o.HowToCall),
		Calldata:           hexutil.Encode(o.Calldata),
		ReplacementPattern: hexutil.Encode(o.ReplacementPattern),
		StaticTarget:       o.StaticTarget.Hex(),
		StaticExtradata:    hexutil.Encode(o.StaticExtradata),
		PaymentToken:       o.PaymentToken.Hex(),
		BasePrice:          o.BasePrice.String(),
		Extra:              o.Extra.String(),
		ListingTime:        o.ListingTime.Int64(),
		ExpirationTime:     o.ExpirationTime.Int64(),
		Salt:               o.Salt.String(),
		V:                  int(signed.Signature.V),
		R:                  hexutil.Encode(signed.Signature.R[:]),
		S:                  hexutil.Encode(signed.Signature.S[:]),
		Hash:               signed.Hash.Hex(),
	}
}
