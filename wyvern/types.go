// Package wyvern implements the settlement-protocol layer: the on-chain
// order record, its typed-data hashing and signing, the exchange contract
// caller, and the transaction confirmation state machine.
package wyvern

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/seaswaplabs/seaswap-sdk-go/schema"
)

// Side is the side of an order.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side a matching counter-order must take.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// SaleKind is the pricing mode of an order.
type SaleKind uint8

const (
	SaleKindFixedPrice SaleKind = iota
	SaleKindDutchAuction
)

// FeeMethod selects how the settlement contract collects fees.
type FeeMethod uint8

const (
	FeeMethodProtocolFee FeeMethod = iota
	FeeMethodSplitFee
)

// HowToCall is the call type the settlement contract uses for the target.
type HowToCall uint8

const (
	CallDirect HowToCall = iota
	CallDelegate
)

// OrderMetadata is the tagged union describing what an order trades: a
// single asset or an atomic bundle. Every consumption site switches
// exhaustively over the two variants.
type OrderMetadata interface {
	isOrderMetadata()
}

// SingleAsset tags an order trading one asset under one schema.
type SingleAsset struct {
	Asset  schema.Asset
	Schema schema.Name
}

func (SingleAsset) isOrderMetadata() {}

// Bundle tags an order trading several assets atomically. Assets and Schemas
// are parallel.
type Bundle struct {
	Name        string
	Description string
	Assets      []schema.Asset
	Schemas     []schema.Name
}

func (Bundle) isOrderMetadata() {}

// Order is the full on-chain-signable record.
type Order struct {
	Exchange common.Address
	Maker    common.Address
	Taker    common.Address

	MakerRelayerFee  *big.Int
	TakerRelayerFee  *big.Int
	MakerProtocolFee *big.Int
	TakerProtocolFee *big.Int
	FeeRecipient     common.Address
	FeeMethod        FeeMethod

	Side     Side
	SaleKind SaleKind

	Target             common.Address
	HowToCall          HowToCall
	Calldata           []byte
	ReplacementPattern []byte

	StaticTarget    common.Address
	StaticExtradata []byte

	PaymentToken common.Address
	BasePrice    *big.Int
	Extra        *big.Int

	ListingTime    *big.Int
	ExpirationTime *big.Int
	Salt           *big.Int

	// Nonce participates in the signed hash but not in match calldata; it
	// is read from the exchange's nonces table at signing time.
	Nonce *big.Int

	// Off-chain bookkeeping, not part of the signed record.
	Metadata                   OrderMetadata
	WaitingForBestCounterOrder bool
	EnglishAuctionReservePrice *big.Int
}

// Signature is the maker's ECDSA signature over the order's typed-data hash.
type Signature struct {
	V uint8
	R [32]byte
	S [32]byte
}

// SignedOrder pairs an order with its signature and signed hash.
type SignedOrder struct {
	Order     *Order
	Hash      common.Hash
	Signature Signature
}

// addrs7 flattens the order's address fields in the layout the exchange
// entrypoints expect.
func (o *Order) addrs7() [7]common.Address {
	return [7]common.Address{o.Exchange, o.Maker, o.Taker, o.FeeRecipient, o.Target, o.StaticTarget, o.PaymentToken}
}

// uints9 flattens the order's numeric fields in exchange calldata order.
func (o *Order) uints9() [9]*big.Int {
	return [9]*big.Int{
		o.MakerRelayerFee, o.TakerRelayerFee, o.MakerProtocolFee, o.TakerProtocolFee,
		o.BasePrice, o.Extra, o.ListingTime, o.ExpirationTime, o.Salt,
	}
}
