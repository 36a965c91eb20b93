package wyvern

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Exchange ABI JSON covering the entrypoints the SDK drives. Orders travel
// as flattened address/uint arrays in the layout of addrs7/uints9.
const exchangeABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"name": "addrs", "type": "address[7]"},
			{"name": "uints", "type": "uint256[9]"},
			{"name": "feeMethod", "type": "uint8"},
			{"name": "side", "type": "uint8"},
			{"name": "saleKind", "type": "uint8"},
			{"name": "howToCall", "type": "uint8"},
			{"name": "calldata", "type": "bytes"},
			{"name": "replacementPattern", "type": "bytes"},
			{"name": "staticExtradata", "type": "bytes"}
		],
		"name": "validateOrderParameters_",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "addrs", "type": "address[7]"},
			{"name": "uints", "type": "uint256[9]"},
			{"name": "feeMethod", "type": "uint8"},
			{"name": "side", "type": "uint8"},
			{"name": "saleKind", "type": "uint8"},
			{"name": "howToCall", "type": "uint8"},
			{"name": "calldata", "type": "bytes"},
			{"name": "replacementPattern", "type": "bytes"},
			{"name": "staticExtradata", "type": "bytes"},
			{"name": "v", "type": "uint8"},
			{"name": "r", "type": "bytes32"},
			{"name": "s", "type": "bytes32"}
		],
		"name": "validateOrder_",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "addrs", "type": "address[7]"},
			{"name": "uints", "type": "uint256[9]"},
			{"name": "feeMethod", "type": "uint8"},
			{"name": "side", "type": "uint8"},
			{"name": "saleKind", "type": "uint8"},
			{"name": "howToCall", "type": "uint8"},
			{"name": "calldata", "type": "bytes"},
			{"name": "replacementPattern", "type": "bytes"},
			{"name": "staticExtradata", "type": "bytes"}
		],
		"name": "calculateCurrentPrice_",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "addrs", "type": "address[14]"},
			{"name": "uints", "type": "uint256[18]"},
			{"name": "feeMethodsSidesKindsHowToCalls", "type": "uint8[8]"},
			{"name": "calldataBuy", "type": "bytes"},
			{"name": "calldataSell", "type": "bytes"},
			{"name": "replacementPatternBuy", "type": "bytes"},
			{"name": "replacementPatternSell", "type": "bytes"},
			{"name": "staticExtradataBuy", "type": "bytes"},
			{"name": "staticExtradataSell", "type": "bytes"}
		],
		"name": "ordersCanMatch_",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "buyCalldata", "type": "bytes"},
			{"name": "buyReplacementPattern", "type": "bytes"},
			{"name": "sellCalldata", "type": "bytes"},
			{"name": "sellReplacementPattern", "type": "bytes"}
		],
		"name": "orderCalldataCanMatch",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "addrs", "type": "address[14]"},
			{"name": "uints", "type": "uint256[18]"},
			{"name": "feeMethodsSidesKindsHowToCalls", "type": "uint8[8]"},
			{"name": "calldataBuy", "type": "bytes"},
			{"name": "calldataSell", "type": "bytes"},
			{"name": "replacementPatternBuy", "type": "bytes"},
			{"name": "replacementPatternSell", "type": "bytes"},
			{"name": "staticExtradataBuy", "type": "bytes"},
			{"name": "staticExtradataSell", "type": "bytes"},
			{"name": "vs", "type": "uint8[2]"},
			{"name": "rssMetadata", "type": "bytes32[5]"}
		],
		"name": "atomicMatch_",
		"outputs": [],
		"payable": true,
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "addrs", "type": "address[7]"},
			{"name": "uints", "type": "uint256[9]"},
			{"name": "feeMethod", "type": "uint8"},
			{"name": "side", "type": "uint8"},
			{"name": "saleKind", "type": "uint8"},
			{"name": "howToCall", "type": "uint8"},
			{"name": "calldata", "type": "bytes"},
			{"name": "replacementPattern", "type": "bytes"},
			{"name": "staticExtradata", "type": "bytes"},
			{"name": "v", "type": "uint8"},
			{"name": "r", "type": "bytes32"},
			{"name": "s", "type": "bytes32"}
		],
		"name": "cancelOrder_",
		"outputs": [],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "addrs", "type": "address[7]"},
			{"name": "uints", "type": "uint256[9]"},
			{"name": "feeMethod", "type": "uint8"},
			{"name": "side", "type": "uint8"},
			{"name": "saleKind", "type": "uint8"},
			{"name": "howToCall", "type": "uint8"},
			{"name": "calldata", "type": "bytes"},
			{"name": "replacementPattern", "type": "bytes"},
			{"name": "staticExtradata", "type": "bytes"},
			{"name": "orderbookInclusionDesired", "type": "bool"}
		],
		"name": "approveOrder_",
		"outputs": [],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [],
		"name": "incrementNonce",
		"outputs": [],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "", "type": "address"}],
		"name": "nonces",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

// Proxy registry ABI: each participant gets a personal proxy that executes
// transfers on the exchange's behalf.
const proxyRegistryABIJSON = `[
	{
		"constant": true,
		"inputs": [{"name": "", "type": "address"}],
		"name": "proxies",
		"outputs": [{"name": "", "type": "address"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [],
		"name": "registerProxy",
		"outputs": [{"name": "proxy", "type": "address"}],
		"type": "function"
	}
]`

// ERC20 ABI for allowance and approval management.
const erc20ABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"type": "function"
	}
]`

// Operator-approval ABI shared by ERC721 and ERC1155 collections.
const nftABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "operator", "type": "address"}
		],
		"name": "isApprovedForAll",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "operator", "type": "address"},
			{"name": "approved", "type": "bool"}
		],
		"name": "setApprovalForAll",
		"outputs": [],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"name": "ownerOf",
		"outputs": [{"name": "", "type": "address"}],
		"type": "function"
	}
]`

// Fingerprint ABI: some collections expose a mutable attribute hash that is
// pinned at order creation and re-checked atomically at match time.
const fingerprintABIJSON = `[
	{
		"constant": true,
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"name": "tokenFingerprint",
		"outputs": [{"name": "", "type": "bytes32"}],
		"type": "function"
	}
]`

// Static-check ABI: read-only predicates the settlement contract evaluates
// atomically before executing a match.
const staticCheckABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "fingerprint", "type": "bytes32"}
		],
		"name": "requireFingerprintMatch",
		"outputs": [],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "specifiedAddress", "type": "address"}],
		"name": "succeedIfTxOriginMatchesSpecifiedAddress",
		"outputs": [],
		"type": "function"
	}
]`

// Wrapped-native token ABI: the deposit/withdraw pair beyond plain ERC20.
const wrappedNativeABIJSON = `[
	{
		"constant": false,
		"inputs": [],
		"name": "deposit",
		"outputs": [],
		"payable": true,
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [{"name": "wad", "type": "uint256"}],
		"name": "withdraw",
		"outputs": [],
		"type": "function"
	}
]`

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("failed to parse ABI: " + err.Error())
	}
	return parsed
}

// GetExchangeABI returns the parsed exchange ABI.
func GetExchangeABI() abi.ABI { return mustParseABI(exchangeABIJSON) }

// GetProxyRegistryABI returns the parsed proxy registry ABI.
func GetProxyRegistryABI() abi.ABI { return mustParseABI(proxyRegistryABIJSON) }

// GetERC20ABI returns the parsed ERC20 ABI.
func GetERC20ABI() abi.ABI { return mustParseABI(erc20ABIJSON) }

// GetNFTABI returns the parsed operator-approval ABI.
func GetNFTABI() abi.ABI { return mustParseABI(nftABIJSON) }

// GetFingerprintABI returns the parsed fingerprint-read ABI.
func GetFingerprintABI() abi.ABI { return mustParseABI(fingerprintABIJSON) }

// GetStaticCheckABI returns the parsed static-check ABI.
func GetStaticCheckABI() abi.ABI { return mustParseABI(staticCheckABIJSON) }

// GetWrappedNativeABI returns the parsed wrapped-native token ABI.
func GetWrappedNativeABI() abi.ABI { return mustParseABI(wrappedNativeABIJSON) }
