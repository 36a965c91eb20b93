package wyvern

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Backend is the provider boundary: everything the SDK needs from a chain
// node. *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// ContractSuite holds the fixed per-network contract addresses the caller
// drives.
type ContractSuite struct {
	Exchange           common.Address
	ProxyRegistry      common.Address
	TokenTransferProxy common.Address
	Atomizer           common.Address
	StaticChecker      common.Address
}

// Caller executes reads and signed writes against the settlement contracts.
type Caller struct {
	backend   Backend
	key       *ecdsa.PrivateKey
	contracts ContractSuite
	log       *zap.Logger

	exchangeABI      abi.ABI
	proxyRegistryABI abi.ABI
	erc20ABI         abi.ABI
	nftABI           abi.ABI
	fingerprintABI   abi.ABI
}

// NewCaller creates a caller bound to one signing key and one contract suite.
func NewCaller(backend Backend, key *ecdsa.PrivateKey, contracts ContractSuite, log *zap.Logger) *Caller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Caller{
		backend:          backend,
		key:              key,
		contracts:        contracts,
		log:              log,
		exchangeABI:      GetExchangeABI(),
		proxyRegistryABI: GetProxyRegistryABI(),
		erc20ABI:         GetERC20ABI(),
		nftABI:           GetNFTABI(),
		fingerprintABI:   GetFingerprintABI(),
	}
}

// SignerAddress returns the address of the configured signing key.
func (c *Caller) SignerAddress() common.Address {
	pub, _ := c.key.Public().(*ecdsa.PublicKey)
	return crypto.PubkeyToAddress(*pub)
}

// Contracts returns the contract suite the caller is bound to.
func (c *Caller) Contracts() ContractSuite { return c.contracts }

// Backend returns the underlying provider.
func (c *Caller) Backend() Backend { return c.backend }

// Key returns the signing key, for order signing outside the caller.
func (c *Caller) Key() *ecdsa.PrivateKey { return c.key }

// CheckGasBalance fails if the signer cannot cover estimatedGas plus a 20%
// safety margin at the suggested gas price.
func (c *Caller) CheckGasBalance(ctx context.Context, estimatedGas uint64) error {
	signer := c.SignerAddress()
	balance, err := c.backend.BalanceAt(ctx, signer, nil)
	if err != nil {
		return errors.Wrap(err, "get balance")
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return errors.Wrap(err, "get gas price")
	}

	withMargin := new(big.Int).Mul(new(big.Int).SetUint64(estimatedGas), big.NewInt(120))
	withMargin.Div(withMargin, big.NewInt(100))
	required := new(big.Int).Mul(withMargin, gasPrice)

	if balance.Cmp(required) < 0 {
		return errors.Errorf("insufficient gas balance: signer %s has %s wei, needs approximately %s wei",
			signer.Hex(), balance.String(), required.String())
	}
	return nil
}

// ValidateOrderParameters asks the exchange whether the order's parameters
// are currently valid.
func (c *Caller) ValidateOrderParameters(ctx context.Context, o *Order) (bool, error) {
	return c.readBool(ctx, c.exchangeABI, c.contracts.Exchange, "validateOrderParameters_",
		o.addrs7(), o.uints9(), uint8(o.FeeMethod), uint8(o.Side), uint8(o.SaleKind), uint8(o.HowToCall),
		o.Calldata, o.ReplacementPattern, o.StaticExtradata)
}

// ValidateOrder asks the exchange whether the signed order is valid and
// still live (not filled or cancelled).
func (c *Caller) ValidateOrder(ctx context.Context, o *Order, sig Signature) (bool, error) {
	return c.readBool(ctx, c.exchangeABI, c.contracts.Exchange, "validateOrder_",
		o.addrs7(), o.uints9(), uint8(o.FeeMethod), uint8(o.Side), uint8(o.SaleKind), uint8(o.HowToCall),
		o.Calldata, o.ReplacementPattern, o.StaticExtradata, sig.V, sig.R, sig.S)
}

// CalculateCurrentPrice reads the order's current settlement price, with any
// decay applied.
func (c *Caller) CalculateCurrentPrice(ctx context.Context, o *Order) (*big.Int, error) {
	data, err := c.exchangeABI.Pack("calculateCurrentPrice_",
		o.addrs7(), o.uints9(), uint8(o.FeeMethod), uint8(o.Side), uint8(o.SaleKind), uint8(o.HowToCall),
		o.Calldata, o.ReplacementPattern, o.StaticExtradata)
	if err != nil {
		return nil, errors.Wrap(err, "pack calculateCurrentPrice_")
	}
	result, err := c.staticCall(ctx, c.contracts.Exchange, data)
	if err != nil {
		return nil, err
	}
	var price *big.Int
	if err := c.exchangeABI.UnpackIntoInterface(&price, "calculateCurrentPrice_", result); err != nil {
		return nil, errors.Wrap(err, "unpack calculateCurrentPrice_")
	}
	return price, nil
}

// OrdersCanMatch asks the exchange's read-only match predicate.
func (c *Caller) OrdersCanMatch(ctx context.Context, buy, sell *Order) (bool, error) {
	return c.readBool(ctx, c.exchangeABI, c.contracts.Exchange, "ordersCanMatch_",
		matchAddrs(buy, sell), matchUints(buy, sell), matchFlags(buy, sell),
		buy.Calldata, sell.Calldata, buy.ReplacementPattern, sell.ReplacementPattern,
		buy.StaticExtradata, sell.StaticExtradata)
}

// OrderCalldataCanMatch asks whether the two calldatas unify under their
// replacement patterns.
func (c *Caller) OrderCalldataCanMatch(ctx context.Context, buy, sell *Order) (bool, error) {
	return c.readBool(ctx, c.exchangeABI, c.contracts.Exchange, "orderCalldataCanMatch",
		buy.Calldata, buy.ReplacementPattern, sell.Calldata, sell.ReplacementPattern)
}

// AtomicMatch submits the settlement call matching buy against sell. value
// is attached for native-coin purchases; pass nil otherwise.
func (c *Caller) AtomicMatch(ctx context.Context, buy *SignedOrder, sell *SignedOrder, metadata common.Hash, value *big.Int) (*types.Transaction, error) {
	rss := [5][32]byte{buy.Signature.R, buy.Signature.S, sell.Signature.R, sell.Signature.S, metadata}
	data, err := c.exchangeABI.Pack("atomicMatch_",
		matchAddrs(buy.Order, sell.Order), matchUints(buy.Order, sell.Order), matchFlags(buy.Order, sell.Order),
		buy.Order.Calldata, sell.Order.Calldata,
		buy.Order.ReplacementPattern, sell.Order.ReplacementPattern,
		buy.Order.StaticExtradata, sell.Order.StaticExtradata,
		[2]uint8{buy.Signature.V, sell.Signature.V}, rss)
	if err != nil {
		return nil, errors.Wrap(err, "pack atomicMatch_")
	}
	return c.sendTransaction(ctx, c.contracts.Exchange, value, data)
}

// CancelOrder submits an on-chain cancellation of the signed order.
func (c *Caller) CancelOrder(ctx context.Context, o *Order, sig Signature) (*types.Transaction, error) {
	data, err := c.exchangeABI.Pack("cancelOrder_",
		o.addrs7(), o.uints9(), uint8(o.FeeMethod), uint8(o.Side), uint8(o.SaleKind), uint8(o.HowToCall),
		o.Calldata, o.ReplacementPattern, o.StaticExtradata, sig.V, sig.R, sig.S)
	if err != nil {
		return nil, errors.Wrap(err, "pack cancelOrder_")
	}
	return c.sendTransaction(ctx, c.contracts.Exchange, nil, data)
}

// ApproveOrder marks the order approved on chain, letting it settle without
// a signature check.
func (c *Caller) ApproveOrder(ctx context.Context, o *Order, orderbookInclusionDesired bool) (*types.Transaction, error) {
	data, err := c.exchangeABI.Pack("approveOrder_",
		o.addrs7(), o.uints9(), uint8(o.FeeMethod), uint8(o.Side), uint8(o.SaleKind), uint8(o.HowToCall),
		o.Calldata, o.ReplacementPattern, o.StaticExtradata, orderbookInclusionDesired)
	if err != nil {
		return nil, errors.Wrap(err, "pack approveOrder_")
	}
	return c.sendTransaction(ctx, c.contracts.Exchange, nil, data)
}

// IncrementNonce invalidates every outstanding order of the signer at once.
func (c *Caller) IncrementNonce(ctx context.Context) (*types.Transaction, error) {
	data, err := c.exchangeABI.Pack("incrementNonce")
	if err != nil {
		return nil, errors.Wrap(err, "pack incrementNonce")
	}
	return c.sendTransaction(ctx, c.contracts.Exchange, nil, data)
}

// Nonce reads the maker's current order nonce from the exchange.
func (c *Caller) Nonce(ctx context.Context, maker common.Address) (*big.Int, error) {
	data, err := c.exchangeABI.Pack("nonces", maker)
	if err != nil {
		return nil, errors.Wrap(err, "pack nonces")
	}
	result, err := c.staticCall(ctx, c.contracts.Exchange, data)
	if err != nil {
		return nil, err
	}
	var nonce *big.Int
	if err := c.exchangeABI.UnpackIntoInterface(&nonce, "nonces", result); err != nil {
		return nil, errors.Wrap(err, "unpack nonces")
	}
	return nonce, nil
}

// ProxyFor reads the registered transfer proxy for owner; the zero address
// means none is registered yet.
func (c *Caller) ProxyFor(ctx context.Context, owner common.Address) (common.Address, error) {
	data, err := c.proxyRegistryABI.Pack("proxies", owner)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "pack proxies")
	}
	result, err := c.staticCall(ctx, c.contracts.ProxyRegistry, data)
	if err != nil {
		return common.Address{}, err
	}
	var proxy common.Address
	if err := c.proxyRegistryABI.UnpackIntoInterface(&proxy, "proxies", result); err != nil {
		return common.Address{}, errors.Wrap(err, "unpack proxies")
	}
	return proxy, nil
}

// RegisterProxy submits a proxy registration for the signer.
func (c *Caller) RegisterProxy(ctx context.Context) (*types.Transaction, error) {
	data, err := c.proxyRegistryABI.Pack("registerProxy")
	if err != nil {
		return nil, errors.Wrap(err, "pack registerProxy")
	}
	return c.sendTransaction(ctx, c.contracts.ProxyRegistry, nil, data)
}

// ERC20Allowance reads the owner's allowance toward the token transfer proxy.
func (c *Caller) ERC20Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := c.erc20ABI.Pack("allowance", owner, c.contracts.TokenTransferProxy)
	if err != nil {
		return nil, errors.Wrap(err, "pack allowance")
	}
	result, err := c.staticCall(ctx, token, data)
	if err != nil {
		return nil, err
	}
	var allowance *big.Int
	if err := c.erc20ABI.UnpackIntoInterface(&allowance, "allowance", result); err != nil {
		return nil, errors.Wrap(err, "unpack allowance")
	}
	return allowance, nil
}

// ApproveERC20 grants the token transfer proxy an allowance of amount.
func (c *Caller) ApproveERC20(ctx context.Context, token common.Address, amount *big.Int) (*types.Transaction, error) {
	data, err := c.erc20ABI.Pack("approve", c.contracts.TokenTransferProxy, amount)
	if err != nil {
		return nil, errors.Wrap(err, "pack approve")
	}
	return c.sendTransaction(ctx, token, nil, data)
}

// ERC20Balance reads the account's token balance.
func (c *Caller) ERC20Balance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := c.erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, errors.Wrap(err, "pack balanceOf")
	}
	result, err := c.staticCall(ctx, token, data)
	if err != nil {
		return nil, err
	}
	var balance *big.Int
	if err := c.erc20ABI.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return nil, errors.Wrap(err, "unpack balanceOf")
	}
	return balance, nil
}

// ERC20Decimals reads the token's declared decimal count.
func (c *Caller) ERC20Decimals(ctx context.Context, token common.Address) (uint8, error) {
	data, err := c.erc20ABI.Pack("decimals")
	if err != nil {
		return 0, errors.Wrap(err, "pack decimals")
	}
	result, err := c.staticCall(ctx, token, data)
	if err != nil {
		return 0, err
	}
	var decimals uint8
	if err := c.erc20ABI.UnpackIntoInterface(&decimals, "decimals", result); err != nil {
		return 0, errors.Wrap(err, "unpack decimals")
	}
	return decimals, nil
}

// IsApprovedForAll checks whether operator may move every token owner holds
// in the collection.
func (c *Caller) IsApprovedForAll(ctx context.Context, collection, owner, operator common.Address) (bool, error) {
	return c.readBool(ctx, c.nftABI, collection, "isApprovedForAll", owner, operator)
}

// SetApprovalForAll grants operator transfer rights over the collection.
func (c *Caller) SetApprovalForAll(ctx context.Context, collection, operator common.Address) (*types.Transaction, error) {
	data, err := c.nftABI.Pack("setApprovalForAll", operator, true)
	if err != nil {
		return nil, errors.Wrap(err, "pack setApprovalForAll")
	}
	return c.sendTransaction(ctx, collection, nil, data)
}

// OwnerOf reads the current owner of a token.
func (c *Caller) OwnerOf(ctx context.Context, collection common.Address, tokenID *big.Int) (common.Address, error) {
	data, err := c.nftABI.Pack("ownerOf", tokenID)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "pack ownerOf")
	}
	result, err := c.staticCall(ctx, collection, data)
	if err != nil {
		return common.Address{}, err
	}
	var owner common.Address
	if err := c.nftABI.UnpackIntoInterface(&owner, "ownerOf", result); err != nil {
		return common.Address{}, errors.Wrap(err, "unpack ownerOf")
	}
	return owner, nil
}

// Fingerprint reads the asset's current attribute hash.
func (c *Caller) Fingerprint(ctx context.Context, collection common.Address, tokenID *big.Int) ([32]byte, error) {
	data, err := c.fingerprintABI.Pack("tokenFingerprint", tokenID)
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "pack tokenFingerprint")
	}
	result, err := c.staticCall(ctx, collection, data)
	if err != nil {
		return [32]byte{}, err
	}
	var fingerprint [32]byte
	if err := c.fingerprintABI.UnpackIntoInterface(&fingerprint, "tokenFingerprint", result); err != nil {
		return [32]byte{}, errors.Wrap(err, "unpack tokenFingerprint")
	}
	return fingerprint, nil
}

// SendCall signs and submits a raw call to target, for transfers built by
// the schema encoder.
func (c *Caller) SendCall(ctx context.Context, target common.Address, value *big.Int, calldata []byte) (*types.Transaction, error) {
	return c.sendTransaction(ctx, target, value, calldata)
}

// EstimateMatchGas runs the atomic match through gas estimation, surfacing
// would-be reverts before any funds move.
func (c *Caller) EstimateMatchGas(ctx context.Context, buy, sell *SignedOrder, metadata common.Hash, value *big.Int) (uint64, error) {
	rss := [5][32]byte{buy.Signature.R, buy.Signature.S, sell.Signature.R, sell.Signature.S, metadata}
	data, err := c.exchangeABI.Pack("atomicMatch_",
		matchAddrs(buy.Order, sell.Order), matchUints(buy.Order, sell.Order), matchFlags(buy.Order, sell.Order),
		buy.Order.Calldata, sell.Order.Calldata,
		buy.Order.ReplacementPattern, sell.Order.ReplacementPattern,
		buy.Order.StaticExtradata, sell.Order.StaticExtradata,
		[2]uint8{buy.Signature.V, sell.Signature.V}, rss)
	if err != nil {
		return 0, errors.Wrap(err, "pack atomicMatch_")
	}
	from := c.SignerAddress()
	return c.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &c.contracts.Exchange, Value: value, Data: data})
}

func (c *Caller) staticCall(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", to.Hex())
	}
	return result, nil
}

func (c *Caller) readBool(ctx context.Context, contractABI abi.ABI, to common.Address, method string, args ...interface{}) (bool, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return false, errors.Wrapf(err, "pack %s", method)
	}
	result, err := c.staticCall(ctx, to, data)
	if err != nil {
		return false, err
	}
	var out bool
	if err := contractABI.UnpackIntoInterface(&out, method, result); err != nil {
		return false, errors.Wrapf(err, "unpack %s", method)
	}
	return out, nil
}

func (c *Caller) sendTransaction(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	if value == nil {
		value = big.NewInt(0)
	}
	from := c.SignerAddress()

	gasLimit, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return nil, errors.Wrap(err, "estimate gas")
	}
	// 20% headroom over the estimate.
	gasLimit = gasLimit + gasLimit/5

	if err := c.CheckGasBalance(ctx, gasLimit); err != nil {
		return nil, err
	}

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get chain ID")
	}
	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "get nonce")
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get gas price")
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), c.key)
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, errors.Wrap(err, "send transaction")
	}

	c.log.Debug("transaction submitted",
		zap.String("to", to.Hex()),
		zap.String("hash", signedTx.Hash().Hex()),
		zap.Uint64("gasLimit", gasLimit))

	return signedTx, nil
}

func matchAddrs(buy, sell *Order) [14]common.Address {
	b, s := buy.addrs7(), sell.addrs7()
	var out [14]common.Address
	copy(out[:7], b[:])
	copy(out[7:], s[:])
	return out
}

func matchUints(buy, sell *Order) [18]*big.Int {
	b, s := buy.uints9(), sell.uints9()
	var out [18]*big.Int
	copy(out[:9], b[:])
	copy(out[9:], s[:])
	return out
}

func matchFlags(buy, sell *Order) [8]uint8 {
	return [8]uint8{
		uint8(buy.FeeMethod), uint8(buy.Side), uint8(buy.SaleKind), uint8(buy.HowToCall),
		uint8(sell.FeeMethod), uint8(sell.Side), uint8(sell.SaleKind), uint8(sell.HowToCall),
	}
}
