package pool

import (
	"context"
	"fmt"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mev-engine/sandwich-arb-engine/pkg/chain"
)

var getPairABI = mustParseABI(`[{
	"constant": true,
	"inputs": [
		{"name": "tokenA", "type": "address"},
		{"name": "tokenB", "type": "address"}
	],
	"name": "getPair",
	"outputs": [{"name": "pair", "type": "address"}],
	"stateMutability": "view",
	"type": "function"
}]`)

// FactoryResolver implements PairAddressResolver against a live
// UniV2-compatible factory contract's getPair(tokenA, tokenB) view
// call. It is the "address book" collaborator pool.Provider depends on
// but does not define, per spec.md §9.
type FactoryResolver struct {
	caller  chain.Caller
	factory common.Address
}

// NewFactoryResolver constructs a resolver against a single factory
// address. Different DEX tags are expected to use different
// *FactoryResolver instances, since each DEX has its own factory.
func NewFactoryResolver(caller chain.Caller, factory common.Address) *FactoryResolver {
	return &FactoryResolver{caller: caller, factory: factory}
}

// PairAddress implements PairAddressResolver. It ignores dexType since a
// FactoryResolver is already scoped to a single factory's DEX; callers
// composing multiple DEXes use one resolver per DexType.
func (r *FactoryResolver) PairAddress(ctx context.Context, tokenA, tokenB common.Address, dexType DexType) (common.Address, error) {
	data, err := getPairABI.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack getPair: %w", err)
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.factory, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("call getPair on %s: %w", r.factory.Hex(), err)
	}

	unpacked, err := getPairABI.Unpack("getPair", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack getPair: %w", err)
	}
	if len(unpacked) < 1 {
		return common.Address{}, fmt.Errorf("unexpected getPair output shape: %d fields", len(unpacked))
	}

	pairAddr, ok := unpacked[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected pair type %T", unpacked[0])
	}
	return pairAddr, nil
}

// MultiFactoryResolver dispatches to a per-DexType FactoryResolver,
// letting a single pool.Provider serve pairs across several DEXes.
type MultiFactoryResolver struct {
	byDex map[DexType]*FactoryResolver
}

// NewMultiFactoryResolver builds a resolver from a DexType->factory
// address map.
func NewMultiFactoryResolver(caller chain.Caller, factories map[DexType]common.Address) *MultiFactoryResolver {
	byDex := make(map[DexType]*FactoryResolver, len(factories))
	for dexType, addr := range factories {
		byDex[dexType] = NewFactoryResolver(caller, addr)
	}
	return &MultiFactoryResolver{byDex: byDex}
}

// PairAddress implements PairAddressResolver, routing to the factory
// registered for dexType.
func (r *MultiFactoryResolver) PairAddress(ctx context.Context, tokenA, tokenB common.Address, dexType DexType) (common.Address, error) {
	resolver, ok := r.byDex[dexType]
	if !ok {
		return common.Address{}, fmt.Errorf("pool: no factory registered for dex type %s", dexType)
	}
	return resolver.PairAddress(ctx, tokenA, tokenB, dexType)
}
