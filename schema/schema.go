// Package schema describes how each supported asset standard moves on chain.
// A Schema maps an asset to an annotated transfer ABI whose inputs are tagged
// with the role they play in an order, which is what lets the encoder build
// both exact calldata and the wildcard mask used for later matching.
package schema

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Name identifies an asset standard.
type Name string

const (
	ERC20   Name = "ERC20"
	ERC721  Name = "ERC721"
	ERC1155 Name = "ERC1155"
)

// ErrUnsupportedSchema is returned when a schema is requested that is not
// registered for the active network.
var ErrUnsupportedSchema = errors.New("unsupported asset schema")

// FunctionInputKind tags the role of a transfer-function input.
type FunctionInputKind int

const (
	// InputKindOwner is filled with the sending party.
	InputKindOwner FunctionInputKind = iota
	// InputKindReplaceable is filled with the receiving party and marked
	// wildcard in the replacement pattern.
	InputKindReplaceable
	// InputKindAsset is a literal value identifying the asset (token ID).
	InputKindAsset
	// InputKindCount is a literal transfer quantity.
	InputKindCount
	// InputKindData is literal auxiliary calldata.
	InputKindData
	// InputKindIndex is a literal positional value.
	InputKindIndex
)

func (k FunctionInputKind) String() string {
	switch k {
	case InputKindOwner:
		return "owner"
	case InputKindReplaceable:
		return "replaceable"
	case InputKindAsset:
		return "asset"
	case InputKindCount:
		return "count"
	case InputKindData:
		return "data"
	case InputKindIndex:
		return "index"
	}
	return "unknown"
}

// Asset identifies one unit of tradeable value. Immutable once constructed.
type Asset struct {
	Address  common.Address
	TokenID  *big.Int // nil for fungible standards
	Quantity *big.Int // nil means 1
}

func (a Asset) quantity() *big.Int {
	if a.Quantity == nil {
		return big.NewInt(1)
	}
	return new(big.Int).Set(a.Quantity)
}

func (a Asset) String() string {
	if a.TokenID == nil {
		return a.Address.Hex()
	}
	return fmt.Sprintf("%s/%s", a.Address.Hex(), a.TokenID.String())
}

// FunctionInput is one input of an annotated transfer ABI. Value carries the
// literal for Asset/Count/Data/Index inputs and is ignored for Owner and
// Replaceable inputs, which are filled at encoding time.
type FunctionInput struct {
	Name  string
	Type  string // solidity type, e.g. "address", "uint256", "bytes"
	Kind  FunctionInputKind
	Value interface{}
}

// AnnotatedFunctionABI is a transfer (or ownership-read) function bound to a
// concrete target contract, with every input tagged by kind.
type AnnotatedFunctionABI struct {
	Name    string
	Target  common.Address
	Inputs  []FunctionInput
	Outputs []string // solidity output types, reads only
}

// Validate enforces the structural invariants the encoder relies on. At most
// one Replaceable input may exist per function; multi-destination transfers
// are not supported.
func (fn *AnnotatedFunctionABI) Validate() error {
	replaceable := 0
	for _, in := range fn.Inputs {
		if in.Kind == InputKindReplaceable {
			replaceable++
		}
	}
	if replaceable > 1 {
		return errors.Errorf("function %s has %d replaceable inputs, at most one is supported", fn.Name, replaceable)
	}
	return nil
}

// Schema describes one asset standard: how to build its transfer call and how
// to read ownership or balance for pre-flight checks.
type Schema struct {
	Name        Name
	Description string

	// Transfer returns the annotated transfer ABI for the asset.
	Transfer func(asset Asset) (*AnnotatedFunctionABI, error)

	// Ownership returns a read-only call whose result proves the owner
	// holds the asset. Owner-kind inputs are filled at encoding time.
	Ownership func(asset Asset) (*AnnotatedFunctionABI, error)
}

// CallSpec is an executable contract call plus the byte mask a counter-order
// may fill in differently when matching. ReplacementPattern, where non-empty,
// is exactly len(Calldata) bytes.
type CallSpec struct {
	Target             common.Address
	Calldata           []byte
	ReplacementPattern []byte
}

// BundleEncodingError reports which asset/schema pair broke a bundle.
// Partial bundles are meaningless, so the whole construction fails.
type BundleEncodingError struct {
	Index  int
	Schema Name
	Asset  Asset
	Err    error
}

func (e *BundleEncodingError) Error() string {
	return fmt.Sprintf("bundle encoding failed at component %d (%s %s): %v", e.Index, e.Schema, e.Asset, e.Err)
}

func (e *BundleEncodingError) Unwrap() error { return e.Err }
