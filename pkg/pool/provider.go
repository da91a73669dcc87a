package pool

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mev-engine/sandwich-arb-engine/pkg/chain"
)

// PairAddressResolver maps a token pair + DEX tag to the on-chain pool
// address. Computing this (CREATE2 pair derivation or factory lookup) is
// the "address book" collaborator spec.md §1 scopes out of the core; it is
// consumed here as an external interface.
type PairAddressResolver interface {
	PairAddress(ctx context.Context, tokenA, tokenB common.Address, dexType DexType) (common.Address, error)
}

var getReservesABI = mustParseABI(`[{
	"constant": true,
	"inputs": [],
	"name": "getReserves",
	"outputs": [
		{"name": "reserve0", "type": "uint112"},
		{"name": "reserve1", "type": "uint112"},
		{"name": "blockTimestampLast", "type": "uint32"}
	],
	"stateMutability": "view",
	"type": "function"
}]`)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("pool: invalid embedded ABI: %v", err))
	}
	return parsed
}

// EthClientProvider resolves pools by reading getReserves() off a live
// chain connection, per spec.md §9's "pool resolution is an open question
// in the source — an implementation MUST provide a genuine on-chain
// query" directive.
type EthClientProvider struct {
	caller     chain.Caller
	resolver   PairAddressResolver
	defaultFee uint64
}

// NewEthClientProvider constructs a provider backed by a live chain caller
// and a pair-address resolver collaborator.
func NewEthClientProvider(caller chain.Caller, resolver PairAddressResolver, defaultFeeBps uint64) *EthClientProvider {
	return &EthClientProvider{caller: caller, resolver: resolver, defaultFee: defaultFeeBps}
}

// Resolve implements Provider.
func (p *EthClientProvider) Resolve(ctx context.Context, tokenA, tokenB common.Address, dexType DexType) (*Descriptor, bool, error) {
	pairAddr, err := p.resolver.PairAddress(ctx, tokenA, tokenB, dexType)
	if err != nil {
		return nil, false, fmt.Errorf("resolve pair address: %w", err)
	}
	if pairAddr == (common.Address{}) {
		return nil, false, nil
	}

	token0, token1 := tokenA, tokenB
	if !lexLess(token0, token1) {
		token0, token1 = token1, token0
	}

	data, err := getReservesABI.Pack("getReserves")
	if err != nil {
		return nil, false, fmt.Errorf("pack getReserves: %w", err)
	}

	out, err := p.caller.CallContract(ctx, ethereum.CallMsg{To: &pairAddr, Data: data}, nil)
	if err != nil {
		return nil, false, fmt.Errorf("call getReserves on %s: %w", pairAddr.Hex(), err)
	}

	unpacked, err := getReservesABI.Unpack("getReserves", out)
	if err != nil {
		return nil, false, fmt.Errorf("unpack getReserves: %w", err)
	}
	if len(unpacked) < 2 {
		return nil, false, fmt.Errorf("unexpected getReserves output shape: %d fields", len(unpacked))
	}

	reserve0Big, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, false, fmt.Errorf("unexpected reserve0 type %T", unpacked[0])
	}
	reserve1Big, ok := unpacked[1].(*big.Int)
	if !ok {
		return nil, false, fmt.Errorf("unexpected reserve1 type %T", unpacked[1])
	}

	reserve0, overflow := uint256.FromBig(reserve0Big)
	if overflow {
		reserve0 = ammMax()
	}
	reserve1, overflow := uint256.FromBig(reserve1Big)
	if overflow {
		reserve1 = ammMax()
	}

	descriptor, err := NewDescriptor(pairAddr, token0, token1, reserve0, reserve1, p.defaultFee, dexType)
	if err != nil {
		return nil, false, err
	}
	return descriptor, true, nil
}

func ammMax() *uint256.Int {
	return new(uint256.Int).Not(new(uint256.Int))
}
