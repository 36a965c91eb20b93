package schema

import (
	"math/big"

	"github.com/pkg/errors"
)

// Registry holds the schemas available on the active network.
type Registry struct {
	schemas map[Name]*Schema
}

// NewRegistry returns a registry populated with the built-in standards.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[Name]*Schema)}
	r.Register(erc20Schema())
	r.Register(erc721Schema())
	r.Register(erc1155Schema())
	return r
}

// Register adds or replaces a schema. Networks with bespoke standards can
// extend the built-in set.
func (r *Registry) Register(s *Schema) {
	r.schemas[s.Name] = s
}

// Get returns the schema for name, or ErrUnsupportedSchema if it is not
// registered.
func (r *Registry) Get(name Name) (*Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedSchema, "schema %q", name)
	}
	return s, nil
}

// Names lists the registered schema names.
func (r *Registry) Names() []Name {
	out := make([]Name, 0, len(r.schemas))
	for n := range r.schemas {
		out = append(out, n)
	}
	return out
}

func erc20Schema() *Schema {
	return &Schema{
		Name:        ERC20,
		Description: "Fungible token standard",
		Transfer: func(asset Asset) (*AnnotatedFunctionABI, error) {
			return &AnnotatedFunctionABI{
				Name:   "transferFrom",
				Target: asset.Address,
				Inputs: []FunctionInput{
					{Name: "from", Type: "address", Kind: InputKindOwner},
					{Name: "to", Type: "address", Kind: InputKindReplaceable},
					{Name: "value", Type: "uint256", Kind: InputKindCount, Value: asset.quantity()},
				},
			}, nil
		},
		Ownership: func(asset Asset) (*AnnotatedFunctionABI, error) {
			return &AnnotatedFunctionABI{
				Name:   "balanceOf",
				Target: asset.Address,
				Inputs: []FunctionInput{
					{Name: "owner", Type: "address", Kind: InputKindOwner},
				},
				Outputs: []string{"uint256"},
			}, nil
		},
	}
}

func erc721Schema() *Schema {
	return &Schema{
		Name:        ERC721,
		Description: "Non-fungible token standard",
		Transfer: func(asset Asset) (*AnnotatedFunctionABI, error) {
			if asset.TokenID == nil {
				return nil, errors.Errorf("ERC721 asset %s requires a token ID", asset.Address.Hex())
			}
			return &AnnotatedFunctionABI{
				Name:   "transferFrom",
				Target: asset.Address,
				Inputs: []FunctionInput{
					{Name: "from", Type: "address", Kind: InputKindOwner},
					{Name: "to", Type: "address", Kind: InputKindReplaceable},
					{Name: "tokenId", Type: "uint256", Kind: InputKindAsset, Value: new(big.Int).Set(asset.TokenID)},
				},
			}, nil
		},
		Ownership: func(asset Asset) (*AnnotatedFunctionABI, error) {
			if asset.TokenID == nil {
				return nil, errors.Errorf("ERC721 asset %s requires a token ID", asset.Address.Hex())
			}
			return &AnnotatedFunctionABI{
				Name:   "ownerOf",
				Target: asset.Address,
				Inputs: []FunctionInput{
					{Name: "tokenId", Type: "uint256", Kind: InputKindAsset, Value: new(big.Int).Set(asset.TokenID)},
				},
				Outputs: []string{"address"},
			}, nil
		},
	}
}

func erc1155Schema() *Schema {
	return &Schema{
		Name:        ERC1155,
		Description: "Semi-fungible token standard",
		Transfer: func(asset Asset) (*AnnotatedFunctionABI, error) {
			if asset.TokenID == nil {
				return nil, errors.Errorf("ERC1155 asset %s requires a token ID", asset.Address.Hex())
			}
			return &AnnotatedFunctionABI{
				Name:   "safeTransferFrom",
				Target: asset.Address,
				Inputs: []FunctionInput{
					{Name: "from", Type: "address", Kind: InputKindOwner},
					{Name: "to", Type: "address", Kind: InputKindReplaceable},
					{Name: "id", Type: "uint256", Kind: InputKindAsset, Value: new(big.Int).Set(asset.TokenID)},
					{Name: "amount", Type: "uint256", Kind: InputKindCount, Value: asset.quantity()},
					{Name: "data", Type: "bytes", Kind: InputKindData, Value: []byte{}},
				},
			}, nil
		},
		Ownership: func(asset Asset) (*AnnotatedFunctionABI, error) {
			if asset.TokenID == nil {
				return nil, errors.Errorf("ERC1155 asset %s requires a token ID", asset.Address.Hex())
			}
			return &AnnotatedFunctionABI{
				Name:   "balanceOf",
				Target: asset.Address,
				Inputs: []FunctionInput{
					{Name: "owner", Type: "address", Kind: InputKindOwner},
					{Name: "id", Type: "uint256", Kind: InputKindAsset, Value: new(big.Int).Set(asset.TokenID)},
				},
				Outputs: []string{"uint256"},
			}, nil
		},
	}
}
