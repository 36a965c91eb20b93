package seaswap

// ChainID represents a blockchain chain ID.
type ChainID int64

const (
	ChainIDMainnet ChainID = 1        // Ethereum mainnet
	ChainIDPolygon ChainID = 137      // Polygon PoS
	ChainIDSepolia ChainID = 11155111 // Sepolia testnet
)

// SupportedChainIDs lists all chains with a deployed contract suite.
var SupportedChainIDs = []ChainID{ChainIDMainnet, ChainIDPolygon, ChainIDSepolia}

// ContractAddresses holds the fixed contract addresses for one chain.
type ContractAddresses struct {
	Exchange           string
	ProxyRegistry      string
	TokenTransferProxy string
	Atomizer           string
	StaticChecker      string
	WrappedNativeToken string
	FeeRecipient       string
	LegacyFeeRecipient string
}

// DefaultContractAddresses maps chain IDs to their contract suites.
var DefaultContractAddresses = map[ChainID]ContractAddresses{
	ChainIDMainnet: {
		Exchange:           "0x7Be8076f4EA4A4AD08075C2508e481d6C946D12b",
		ProxyRegistry:      "0xa5409ec958C83C3f309868babACA7c86DCB077c1",
		TokenTransferProxy: "0xE5c783EE536cf5E63E792988335c4255169be4E1",
		Atomizer:           "0xC99f70bFD82fb7c8f8191fdfbFB735606b15e5c5",
		StaticChecker:      "0x3F249A1deAd3A11DAbC89c0027f2Ff1BC41a2a17",
		WrappedNativeToken: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		FeeRecipient:       "0x5b3256965e7C3cF26E11FCAf296DfC8807C01073",
		LegacyFeeRecipient: "0xa839D4b5A36265795EbA6894651a8aF3d0aE2e68",
	},
	ChainIDPolygon: {
		Exchange:           "0x58807baD0B376efc12F5AD86aAc70E78ed67deaE",
		ProxyRegistry:      "0x207Fa8Df3a17D96Ca7EA4f2893fcdCb78a304101",
		TokenTransferProxy: "0xCdC9188485316BF6FA416d02B4F680227c50b89e",
		Atomizer:           "0xdD54D660178B28f6033a953b0E55073cFA7e3744",
		StaticChecker:      "0x68D6B739D2020067D1e2F713b999dA97E4d54812",
		WrappedNativeToken: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270",
		FeeRecipient:       "0x5b3256965e7C3cF26E11FCAf296DfC8807C01073",
		LegacyFeeRecipient: "0xa839D4b5A36265795EbA6894651a8aF3d0aE2e68",
	},
	ChainIDSepolia: {
		Exchange:           "0x1E525EEAF261cA41b809884CBDE9DD9E1619573A",
		ProxyRegistry:      "0x1E40AC577cEF3C6D5Ed25866a6b0b9cB53ee29bA",
		TokenTransferProxy: "0xCbD1D004d57e01aD1f514d4325A77db3dbAB934F",
		Atomizer:           "0x947435dE6e25eA21C45dbB371A639e2B58e4AFc8",
		StaticChecker:      "0x952d99A8Cde6Fb16a259A1bf1D0Cf98a392736dA",
		WrappedNativeToken: "0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9",
		FeeRecipient:       "0x5b3256965e7C3cF26E11FCAf296DfC8807C01073",
		LegacyFeeRecipient: "0xa839D4b5A36265795EbA6894651a8aF3d0aE2e68",
	},
}

// Platform fee defaults, in basis points out of 10,000, applied when a
// collection declares no schedule of its own.
const (
	DefaultSellerFeeBasisPoints = 250
	DefaultBuyerFeeBasisPoints  = 0

	// PlatformBountyBasisPoints is the platform's own share of any
	// affiliate bounty; it counts against the collection's bounty ceiling.
	PlatformBountyBasisPoints = 100

	// InverseBasisPoint is the denominator of every fee rate.
	InverseBasisPoint = 10000
)
