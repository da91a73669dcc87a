// Package pool resolves an AMM pool's identity to its current reserves,
// fee, and token ordering (C2). Results are a point-in-time snapshot; no
// consistency is guaranteed across multiple calls.
package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DexType tags the AMM family a pool belongs to.
type DexType int

const (
	DexUniswapV2 DexType = iota
	DexUniswapV3
	DexSushiSwap
	DexPancakeSwap
	DexCustom
)

func (d DexType) String() string {
	switch d {
	case DexUniswapV2:
		return "univ2"
	case DexUniswapV3:
		return "univ3"
	case DexSushiSwap:
		return "sushi"
	case DexPancakeSwap:
		return "pancake"
	case DexCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ErrUnorderedTokens is returned when the caller supplies token0 >= token1.
var ErrUnorderedTokens = errors.New("pool: token0 must be lexicographically less than token1")

// Descriptor is a resolved pool's identity and current state.
type Descriptor struct {
	Address  common.Address
	Token0   common.Address
	Token1   common.Address
	Reserve0 *uint256.Int
	Reserve1 *uint256.Int
	FeeBps   uint64
	DexType  DexType
	// CustomTag distinguishes pools tagged DexCustom from one another.
	CustomTag uint8
}

// NewDescriptor constructs a Descriptor, enforcing the canonical
// token0 < token1 ordering invariant from spec.md's data model.
func NewDescriptor(address, token0, token1 common.Address, reserve0, reserve1 *uint256.Int, feeBps uint64, dexType DexType) (*Descriptor, error) {
	if !lexLess(token0, token1) {
		return nil, fmt.Errorf("%w: token0=%s token1=%s", ErrUnorderedTokens, token0.Hex(), token1.Hex())
	}
	return &Descriptor{
		Address:  address,
		Token0:   token0,
		Token1:   token1,
		Reserve0: reserve0,
		Reserve1: reserve1,
		FeeBps:   feeBps,
		DexType:  dexType,
	}, nil
}

// Usable reports whether both reserves are strictly positive, the
// invariant spec.md requires for a pool to be tradable.
func (d *Descriptor) Usable() bool {
	return d.Reserve0 != nil && d.Reserve1 != nil && !d.Reserve0.IsZero() && !d.Reserve1.IsZero()
}

// ReservesFor returns (reserveIn, reserveOut) for a swap from tokenIn,
// and whether tokenIn matches one of the pool's two tokens.
func (d *Descriptor) ReservesFor(tokenIn common.Address) (reserveIn, reserveOut *uint256.Int, ok bool) {
	switch tokenIn {
	case d.Token0:
		return d.Reserve0, d.Reserve1, true
	case d.Token1:
		return d.Reserve1, d.Reserve0, true
	default:
		return nil, nil, false
	}
}

func lexLess(a, b common.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Provider resolves a pair of tokens and a DEX tag to the pool's current
// state. A false ok with a nil error means the pair has no such pool.
type Provider interface {
	Resolve(ctx context.Context, tokenA, tokenB common.Address, dexType DexType) (descriptor *Descriptor, ok bool, err error)
}
