package wyvern

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaswaplabs/seaswap-sdk-go/schema"
)

func testOrder() *Order {
	return &Order{
		Exchange:           common.HexToAddress("0x7Be8076f4EA4A4AD08075C2508e481d6C946D12b"),
		Maker:              common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Taker:              common.Address{},
		MakerRelayerFee:    big.NewInt(250),
		TakerRelayerFee:    big.NewInt(0),
		MakerProtocolFee:   big.NewInt(0),
		TakerProtocolFee:   big.NewInt(0),
		FeeRecipient:       common.HexToAddress("0x5b3256965e7C3cF26E11FCAf296DfC8807C01073"),
		FeeMethod:          FeeMethodSplitFee,
		Side:               SideSell,
		SaleKind:           SaleKindFixedPrice,
		Target:             common.HexToAddress("0x1111111111111111111111111111111111111111"),
		HowToCall:          CallDirect,
		Calldata:           []byte{0x23, 0xb8, 0x72, 0xdd},
		ReplacementPattern: []byte{0x00, 0x00, 0x00, 0x00},
		StaticTarget:       common.Address{},
		StaticExtradata:    []byte{},
		PaymentToken:       common.Address{},
		BasePrice:          big.NewInt(1000),
		Extra:              big.NewInt(0),
		ListingTime:        big.NewInt(1700000000),
		ExpirationTime:     big.NewInt(1700003600),
		Salt:               big.NewInt(12345),
		Nonce:              big.NewInt(0),
		Metadata: SingleAsset{
			Asset:  schema.Asset{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), TokenID: big.NewInt(42)},
			Schema: schema.ERC721,
		},
	}
}

func TestHashToSignIsDeterministic(t *testing.T) {
	domain := NewEIP712Domain(big.NewInt(1), testOrder().Exchange)

	a := testOrder().HashToSign(domain)
	b := testOrder().HashToSign(domain)
	assert.Equal(t, a, b)

	changed := testOrder()
	changed.Salt = big.NewInt(54321)
	assert.NotEqual(t, a, changed.HashToSign(domain))

	// The maker's nonce participates in the hash, so a nonce bump
	// invalidates every outstanding signature.
	bumped := testOrder()
	bumped.Nonce = big.NewInt(1)
	assert.NotEqual(t, a, bumped.HashToSign(domain))
}

func TestHashToSignDependsOnDomain(t *testing.T) {
	order := testOrder()
	mainnet := NewEIP712Domain(big.NewInt(1), order.Exchange)
	polygon := NewEIP712Domain(big.NewInt(137), order.Exchange)
	assert.NotEqual(t, order.HashToSign(mainnet), order.HashToSign(polygon))
}

func TestSignOrderRecoversToSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	order := testOrder()
	order.Maker = signer

	signed, err := SignOrder(order, big.NewInt(1), key)
	require.NoError(t, err)

	sig := make([]byte, 65)
	copy(sig[:32], signed.Signature.R[:])
	copy(sig[32:64], signed.Signature.S[:])
	sig[64] = signed.Signature.V - 27

	pub, err := crypto.SigToPub(signed.Hash.Bytes(), sig)
	require.NoError(t, err)
	assert.Equal(t, signer, crypto.PubkeyToAddress(*pub))
}

func TestStaticCalls(t *testing.T) {
	checker := common.HexToAddress("0x952d99A8Cde6Fb16a259A1bf1D0Cf98a392736dA")

	fingerprint, err := FingerprintStaticCall(checker, big.NewInt(42), [32]byte{0xab})
	require.NoError(t, err)
	assert.Equal(t, checker, fingerprint.Target)
	assert.NotEmpty(t, fingerprint.Extradata)

	origin, err := TxOriginStaticCall(checker, common.HexToAddress("0x3333333333333333333333333333333333333333"))
	require.NoError(t, err)
	assert.Equal(t, checker, origin.Target)

	assert.Equal(t, common.Address{}, NoStaticCall.Target)
	assert.Empty(t, NoStaticCall.Extradata)
}
