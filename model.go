package seaswap

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/seaswaplabs/seaswap-sdk-go/schema"
)

// Asset identifies one unit of tradeable value as callers describe it.
type Asset struct {
	TokenAddress string
	TokenID      *big.Int // nil for fungible standards
	SchemaName   schema.Name
	Quantity     *big.Int // nil means 1
}

// Token describes a payment token accepted by the marketplace.
type Token struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
}

// TransferFee describes a per-transfer charge some collections levy.
type TransferFee struct {
	Amount       string `json:"amount"`
	TokenAddress string `json:"token_address"`
}

// Collection carries the fee schedule applied to every asset it contains.
// Developer seller fees are a split: recipient address to basis points.
type Collection struct {
	Slug                         string           `json:"slug"`
	Name                         string           `json:"name"`
	PlatformBuyerFeeBasisPoints  int64            `json:"platform_buyer_fee_basis_points"`
	PlatformSellerFeeBasisPoints int64            `json:"platform_seller_fee_basis_points"`
	DevBuyerFeeBasisPoints       int64            `json:"dev_buyer_fee_basis_points"`
	DevSellerFeeSplit            map[string]int64 `json:"dev_seller_fee_split"`
}

// DevSellerFeeBasisPoints sums the developer split.
func (c Collection) DevSellerFeeBasisPoints() int64 {
	var total int64
	for _, bps := range c.DevSellerFeeSplit {
		total += bps
	}
	return total
}

// AssetMetadata is the marketplace's view of one asset: its collection fee
// schedule, transfer-fee info, and whether the contract exposes a mutable
// fingerprint that must be pinned at order time.
type AssetMetadata struct {
	TokenAddress   string       `json:"token_address"`
	TokenID        string       `json:"token_id"`
	SchemaName     string       `json:"schema_name"`
	Collection     Collection   `json:"collection"`
	TransferFee    *TransferFee `json:"transfer_fee,omitempty"`
	HasFingerprint bool         `json:"has_fingerprint"`
}

// PersistedOrder is the order book's record of a posted order.
type PersistedOrder struct {
	Hash           string `json:"hash"`
	Maker          string `json:"maker"`
	Taker          string `json:"taker"`
	Side           int    `json:"side"`
	SaleKind       int    `json:"sale_kind"`
	PaymentToken   string `json:"payment_token"`
	BasePrice      string `json:"base_price"`
	Extra          string `json:"extra"`
	ListingTime    int64  `json:"listing_time"`
	ExpirationTime int64  `json:"expiration_time"`
	Salt           string `json:"salt"`
	CreatedAt      string `json:"created_at"`
}

// GetAssetResponse wraps the asset lookup endpoint.
type GetAssetResponse struct {
	Code   int           `json:"code"`
	Msg    string        `json:"msg"`
	Result AssetMetadata `json:"result"`
}

// GetPaymentTokensResponse wraps the payment token listing endpoint.
type GetPaymentTokensResponse struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Result struct {
		List []Token `json:"list"`
	} `json:"result"`
}

// PostOrderResponse wraps order persistence.
type PostOrderResponse struct {
	Code   int            `json:"code"`
	Msg    string         `json:"msg"`
	Result PersistedOrder `json:"result"`
}

// GetOrderResponse wraps a single-order lookup.
type GetOrderResponse struct {
	Code   int            `json:"code"`
	Msg    string         `json:"msg"`
	Result PersistedOrder `json:"result"`
}

// Amount is a human-scale quantity in payment-token units.
type Amount = decimal.Decimal
