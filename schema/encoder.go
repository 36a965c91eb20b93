package schema

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// wildcardByte marks a calldata byte a counter-order may replace.
const wildcardByte = 0xff

// EncodeCall byte-encodes fn with the supplied input values, selector first.
func EncodeCall(fn *AnnotatedFunctionABI, values []interface{}) ([]byte, error) {
	if len(values) != len(fn.Inputs) {
		return nil, errors.Errorf("function %s expects %d inputs, got %d values", fn.Name, len(fn.Inputs), len(values))
	}
	args, err := buildArguments(fn)
	if err != nil {
		return nil, err
	}
	packed, err := args.Pack(values...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", fn.Name)
	}
	return append(selector(fn), packed...), nil
}

// EncodeDefaultCall fills Replaceable inputs with the protocol's neutral
// placeholder and Owner inputs with owner. This builds a sell order's
// calldata where the ultimate buyer is not yet known.
func EncodeDefaultCall(fn *AnnotatedFunctionABI, owner common.Address) ([]byte, error) {
	values, err := resolveValues(fn, func(in FunctionInput) (interface{}, error) {
		switch in.Kind {
		case InputKindOwner:
			return owner, nil
		case InputKindReplaceable:
			return defaultValue(in.Type)
		}
		return in.Value, nil
	})
	if err != nil {
		return nil, err
	}
	return EncodeCall(fn, values)
}

// EncodeTransferCall fills Replaceable inputs with to and Owner inputs with
// from, producing a fully determined transfer call.
func EncodeTransferCall(fn *AnnotatedFunctionABI, from, to common.Address) ([]byte, error) {
	values, err := resolveValues(fn, func(in FunctionInput) (interface{}, error) {
		switch in.Kind {
		case InputKindOwner:
			return from, nil
		case InputKindReplaceable:
			return to, nil
		}
		return in.Value, nil
	})
	if err != nil {
		return nil, err
	}
	return EncodeCall(fn, values)
}

// EncodeBuyCall fills Replaceable inputs with the known recipient and leaves
// Owner inputs at the neutral placeholder, to be supplied by whichever sell
// order the buy matches.
func EncodeBuyCall(fn *AnnotatedFunctionABI, recipient common.Address) ([]byte, error) {
	values, err := resolveValues(fn, func(in FunctionInput) (interface{}, error) {
		switch in.Kind {
		case InputKindOwner:
			return defaultValue(in.Type)
		case InputKindReplaceable:
			return recipient, nil
		}
		return in.Value, nil
	})
	if err != nil {
		return nil, err
	}
	return EncodeCall(fn, values)
}

// EncodeReplacementPattern returns a mask the same length as fn's encoded
// calldata, with wildcard bytes over the head word of every input whose kind
// is in maskKinds. Sell orders mask Replaceable inputs; buy orders mask Owner
// inputs so either side's address can fill in at match time.
func EncodeReplacementPattern(fn *AnnotatedFunctionABI, maskKinds ...FunctionInputKind) ([]byte, error) {
	if err := fn.Validate(); err != nil {
		return nil, err
	}
	masked := func(k FunctionInputKind) bool {
		for _, m := range maskKinds {
			if k == m {
				return true
			}
		}
		return false
	}

	// The full encoded length depends on dynamic tails, so encode once with
	// neutral values. Literal inputs keep their annotated values, which makes
	// the length identical to the real call's.
	neutral, err := EncodeDefaultCall(fn, common.Address{})
	if err != nil {
		return nil, err
	}
	pattern := make([]byte, len(neutral))

	for i, in := range fn.Inputs {
		if !masked(in.Kind) {
			continue
		}
		if isDynamicType(in.Type) {
			return nil, errors.Errorf("input %s of %s is dynamic and cannot be wildcard-masked", in.Name, fn.Name)
		}
		// Each input owns one 32-byte head word after the 4-byte selector.
		start := 4 + 32*i
		for j := start; j < start+32; j++ {
			pattern[j] = wildcardByte
		}
	}
	return pattern, nil
}

// EncodeSell produces the CallSpec for listing asset: default calldata with
// the seller as owner, and a pattern letting the eventual buyer fill in the
// recipient.
func EncodeSell(s *Schema, asset Asset, seller common.Address) (*CallSpec, error) {
	fn, err := s.Transfer(asset)
	if err != nil {
		return nil, err
	}
	if err := fn.Validate(); err != nil {
		return nil, err
	}
	calldata, err := EncodeDefaultCall(fn, seller)
	if err != nil {
		return nil, err
	}
	pattern, err := EncodeReplacementPattern(fn, InputKindReplaceable)
	if err != nil {
		return nil, err
	}
	return &CallSpec{Target: fn.Target, Calldata: calldata, ReplacementPattern: pattern}, nil
}

// EncodeBuy produces the CallSpec for an offer on asset: calldata naming the
// buyer as recipient, and a pattern letting the matched seller fill in the
// owner.
func EncodeBuy(s *Schema, asset Asset, buyer common.Address) (*CallSpec, error) {
	fn, err := s.Transfer(asset)
	if err != nil {
		return nil, err
	}
	if err := fn.Validate(); err != nil {
		return nil, err
	}
	calldata, err := EncodeBuyCall(fn, buyer)
	if err != nil {
		return nil, err
	}
	pattern, err := EncodeReplacementPattern(fn, InputKindOwner)
	if err != nil {
		return nil, err
	}
	return &CallSpec{Target: fn.Target, Calldata: calldata, ReplacementPattern: pattern}, nil
}

// EncodeTransfer produces a fully determined transfer CallSpec with no
// replacement pattern, for direct transfers and match-side synthesis.
func EncodeTransfer(s *Schema, asset Asset, from, to common.Address) (*CallSpec, error) {
	fn, err := s.Transfer(asset)
	if err != nil {
		return nil, err
	}
	if err := fn.Validate(); err != nil {
		return nil, err
	}
	calldata, err := EncodeTransferCall(fn, from, to)
	if err != nil {
		return nil, err
	}
	return &CallSpec{Target: fn.Target, Calldata: calldata}, nil
}

func buildArguments(fn *AnnotatedFunctionABI) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(fn.Inputs))
	for _, in := range fn.Inputs {
		typ, err := abi.NewType(in.Type, "", nil)
		if err != nil {
			return nil, errors.Wrapf(err, "input %s of %s has malformed type %q", in.Name, fn.Name, in.Type)
		}
		args = append(args, abi.Argument{Name: in.Name, Type: typ})
	}
	return args, nil
}

func selector(fn *AnnotatedFunctionABI) []byte {
	types := make([]string, len(fn.Inputs))
	for i, in := range fn.Inputs {
		types[i] = in.Type
	}
	sig := fn.Name + "(" + strings.Join(types, ",") + ")"
	return crypto.Keccak256([]byte(sig))[:4]
}

func resolveValues(fn *AnnotatedFunctionABI, resolve func(FunctionInput) (interface{}, error)) ([]interface{}, error) {
	if err := fn.Validate(); err != nil {
		return nil, err
	}
	values := make([]interface{}, len(fn.Inputs))
	for i, in := range fn.Inputs {
		v, err := resolve(in)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errors.Errorf("input %s of %s (%s) has no value", in.Name, fn.Name, in.Kind)
		}
		values[i] = v
	}
	return values, nil
}

func defaultValue(solType string) (interface{}, error) {
	switch {
	case solType == "address":
		return common.Address{}, nil
	case solType == "bool":
		return false, nil
	case solType == "bytes":
		return []byte{}, nil
	case solType == "string":
		return "", nil
	case solType == "bytes32":
		return [32]byte{}, nil
	case strings.HasPrefix(solType, "uint") || strings.HasPrefix(solType, "int"):
		return new(big.Int), nil
	}
	return nil, errors.Errorf("no default value for solidity type %q", solType)
}

func isDynamicType(solType string) bool {
	return solType == "bytes" || solType == "string" || strings.HasSuffix(solType, "[]")
}
