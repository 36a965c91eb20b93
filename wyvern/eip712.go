package wyvern

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// EIP712 domain constants for the exchange contract.
const (
	EIP712DomainName    = "Seaswap Exchange"
	EIP712DomainVersion = "2.3"
)

// Pre-computed type hashes.
var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	EIP712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))

	// Order struct hash covers every on-chain field plus the maker's nonce.
	OrderTypeHash = crypto.Keccak256Hash([]byte(
		"Order(address exchange,address maker,address taker,uint256 makerRelayerFee,uint256 takerRelayerFee,uint256 makerProtocolFee,uint256 takerProtocolFee,address feeRecipient,uint8 feeMethod,uint8 side,uint8 saleKind,address target,uint8 howToCall,bytes calldata,bytes replacementPattern,address staticTarget,bytes staticExtradata,address paymentToken,uint256 basePrice,uint256 extra,uint256 listingTime,uint256 expirationTime,uint256 salt,uint256 nonce)",
	))
)

// EIP712Domain represents the domain separator data.
type EIP712Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// NewEIP712Domain creates the domain for the exchange deployed at
// verifyingContract on chainID.
func NewEIP712Domain(chainID *big.Int, verifyingContract common.Address) *EIP712Domain {
	return &EIP712Domain{
		Name:              EIP712DomainName,
		Version:           EIP712DomainVersion,
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}
}

// Hash computes the EIP712 domain separator hash.
func (d *EIP712Domain) Hash() common.Hash {
	bytes32Type, _ := abi.NewType("bytes32", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)
	addressType, _ := abi.NewType("address", "", nil)

	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: bytes32Type}, // nameHash
		{Type: bytes32Type}, // versionHash
		{Type: uint256Type}, // chainId
		{Type: addressType}, // verifyingContract
	}

	encoded, err := arguments.Pack(
		EIP712DomainTypeHash,
		crypto.Keccak256Hash([]byte(d.Name)),
		crypto.Keccak256Hash([]byte(d.Version)),
		d.ChainID,
		d.VerifyingContract,
	)
	if err != nil {
		panic("failed to encode domain separator: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// StructHash computes the typed-data struct hash for the order. Dynamic
// bytes fields enter as their keccak256 digests per EIP712.
func (o *Order) StructHash() common.Hash {
	bytes32Type, _ := abi.NewType("bytes32", "", nil)
	addressType, _ := abi.NewType("address", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)
	uint8Type, _ := abi.NewType("uint8", "", nil)

	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: addressType}, // exchange
		{Type: addressType}, // maker
		{Type: addressType}, // taker
		{Type: uint256Type}, // makerRelayerFee
		{Type: uint256Type}, // takerRelayerFee
		{Type: uint256Type}, // makerProtocolFee
		{Type: uint256Type}, // takerProtocolFee
		{Type: addressType}, // feeRecipient
		{Type: uint8Type},   // feeMethod
		{Type: uint8Type},   // side
		{Type: uint8Type},   // saleKind
		{Type: addressType}, // target
		{Type: uint8Type},   // howToCall
		{Type: bytes32Type}, // keccak256(calldata)
		{Type: bytes32Type}, // keccak256(replacementPattern)
		{Type: addressType}, // staticTarget
		{Type: bytes32Type}, // keccak256(staticExtradata)
		{Type: addressType}, // paymentToken
		{Type: uint256Type}, // basePrice
		{Type: uint256Type}, // extra
		{Type: uint256Type}, // listingTime
		{Type: uint256Type}, // expirationTime
		{Type: uint256Type}, // salt
		{Type: uint256Type}, // nonce
	}

	nonce := o.Nonce
	if nonce == nil {
		nonce = big.NewInt(0)
	}

	encoded, err := arguments.Pack(
		OrderTypeHash,
		o.Exchange,
		o.Maker,
		o.Taker,
		o.MakerRelayerFee,
		o.TakerRelayerFee,
		o.MakerProtocolFee,
		o.TakerProtocolFee,
		o.FeeRecipient,
		uint8(o.FeeMethod),
		uint8(o.Side),
		uint8(o.SaleKind),
		o.Target,
		uint8(o.HowToCall),
		crypto.Keccak256Hash(o.Calldata),
		crypto.Keccak256Hash(o.ReplacementPattern),
		o.StaticTarget,
		crypto.Keccak256Hash(o.StaticExtradata),
		o.PaymentToken,
		o.BasePrice,
		o.Extra,
		o.ListingTime,
		o.ExpirationTime,
		o.Salt,
		nonce,
	)
	if err != nil {
		panic("failed to encode order struct: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// HashToSign creates the final EIP712 hash the maker signs:
// keccak256("\x19\x01" ++ domainSeparator ++ structHash).
func (o *Order) HashToSign(domain *EIP712Domain) common.Hash {
	data := make([]byte, 0, 2+32+32)
	data = append(data, 0x19, 0x01)
	data = append(data, domain.Hash().Bytes()...)
	data = append(data, o.StructHash().Bytes()...)
	return crypto.Keccak256Hash(data)
}

// SignOrder signs the order's typed-data hash with key and returns the
// signed record. The order's Exchange address anchors the domain separator.
func SignOrder(order *Order, chainID *big.Int, key *ecdsa.PrivateKey) (*SignedOrder, error) {
	domain := NewEIP712Domain(chainID, order.Exchange)
	hash := order.HashToSign(domain)

	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return nil, errors.Wrap(err, "sign order")
	}

	var signature Signature
	signature.V = sig[64] + 27
	copy(signature.R[:], sig[:32])
	copy(signature.S[:], sig[32:64])

	return &SignedOrder{Order: order, Hash: hash, Signature: signature}, nil
}
