// Package arbitrage implements the multi-hop arbitrage search (C5):
// candidate path generation over a bridging-token vocabulary, binary
// search sizing, and top-K ranking.
package arbitrage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mev-engine/sandwich-arb-engine/pkg/ammmath"
	"github.com/mev-engine/sandwich-arb-engine/pkg/pool"
)

// Vocabulary is the small fixed set of bridging tokens candidate paths
// are built from: the native wrapped token and 2-3 stable tokens.
type Vocabulary struct {
	Wrapped common.Address
	Stables []common.Address
}

// Candidate is an unevaluated cyclic path: a sequence of tokens and the
// pool resolved for each consecutive hop.
type Candidate struct {
	Path  []common.Address
	Pools []*pool.Descriptor
}

// Triangular builds the single-DEX candidate [W, t, S, W] for every
// stable S in the vocabulary, on the given dex tag.
func Triangular(resolve func(a, b common.Address) (*pool.Descriptor, bool), vocab Vocabulary, t common.Address) []Candidate {
	var candidates []Candidate
	for _, s := range vocab.Stables {
		path := []common.Address{vocab.Wrapped, t, s, vocab.Wrapped}
		pools, ok := resolvePools(resolve, path)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Path: path, Pools: pools})
	}
	return candidates
}

// CrossDEX builds the two-hop [W, t, W] candidate buying on dexA and
// selling on dexB, used once a caller has already confirmed a spread
// between the two venues' quoted price for the pair.
func CrossDEX(resolveOnDexA, resolveOnDexB func(a, b common.Address) (*pool.Descriptor, bool), vocab Vocabulary, t common.Address) (Candidate, bool) {
	buyPool, ok := resolveOnDexA(vocab.Wrapped, t)
	if !ok {
		return Candidate{}, false
	}
	sellPool, ok := resolveOnDexB(t, vocab.Wrapped)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{
		Path:  []common.Address{vocab.Wrapped, t, vocab.Wrapped},
		Pools: []*pool.Descriptor{buyPool, sellPool},
	}, true
}

func resolvePools(resolve func(a, b common.Address) (*pool.Descriptor, bool), path []common.Address) ([]*pool.Descriptor, bool) {
	pools := make([]*pool.Descriptor, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		d, ok := resolve(path[i], path[i+1])
		if !ok || !d.Usable() {
			return nil, false
		}
		pools = append(pools, d)
	}
	return pools, true
}

// Evaluate applies C1 across each pool in sequence for input a0,
// returning the final output and whether every hop resolved against
// the path's token ordering.
func Evaluate(a0 *uint256.Int, c Candidate) (*uint256.Int, bool) {
	amount := a0
	for i, p := range c.Pools {
		reserveIn, reserveOut, ok := p.ReservesFor(c.Path[i])
		if !ok {
			return nil, false
		}
		result := ammmath.SwapOut(amount, reserveIn, reserveOut, p.FeeBps)
		amount = result.AmountOut
	}
	return amount, true
}

// TightestReserve returns the smallest reserve-in across the
// candidate's hops, used to cap the binary search's upper bound.
func TightestReserve(c Candidate) *uint256.Int {
	var tightest *uint256.Int
	for i, p := range c.Pools {
		reserveIn, _, ok := p.ReservesFor(c.Path[i])
		if !ok {
			continue
		}
		if tightest == nil || reserveIn.Lt(tightest) {
			tightest = reserveIn
		}
	}
	if tightest == nil {
		return new(uint256.Int)
	}
	return tightest
}
