// Package placeholder exposes the opportunity-emission interface for
// strategy families spec.md scopes out of this engine — JIT liquidity,
// statistical arbitrage, cross-chain, and oracle/liquidation backruns —
// so real logic can be added later without touching the core pipeline.
package placeholder

import (
	"context"

	"github.com/mev-engine/sandwich-arb-engine/pkg/opportunity"
	"github.com/mev-engine/sandwich-arb-engine/pkg/types"
)

// Detector is the shared shape every strategy family, implemented or
// not, evaluates a transaction through.
type Detector interface {
	Name() string
	Detect(ctx context.Context, tx *types.Transaction) (*opportunity.Opportunity, error)
}

// jitLiquidity stands in for find_jit_opportunities: providing
// concentrated liquidity ahead of a large swap and withdrawing it after,
// capturing the swap fee without directional risk.
type jitLiquidity struct{}

func (jitLiquidity) Name() string { return "jit_liquidity" }
func (jitLiquidity) Detect(ctx context.Context, tx *types.Transaction) (*opportunity.Opportunity, error) {
	return nil, nil
}

// statisticalArbitrage stands in for find_statistical_arbitrage:
// mean-reversion trades across historically correlated pairs (stETH/WETH,
// USDC/USDT, wrapped-BTC variants). This needs price history the mempool
// ingest pipeline doesn't carry, so it is not evaluated per-transaction.
type statisticalArbitrage struct{}

func (statisticalArbitrage) Name() string { return "statistical_arbitrage" }
func (statisticalArbitrage) Detect(ctx context.Context, tx *types.Transaction) (*opportunity.Opportunity, error) {
	return nil, nil
}

// crossChain stands in for cross-domain arbitrage (same asset priced
// differently across L2s/bridges), which needs a second chain's state
// this engine has no connection to.
type crossChain struct{}

func (crossChain) Name() string { return "cross_chain" }
func (crossChain) Detect(ctx context.Context, tx *types.Transaction) (*opportunity.Opportunity, error) {
	return nil, nil
}

// liquidationBackrun stands in for find_backrun_opportunities' oracle-
// update and lending-protocol liquidation cases: backrunning a price
// update that makes a position liquidatable. Requires indexing lending
// protocol state this engine doesn't maintain.
type liquidationBackrun struct{}

func (liquidationBackrun) Name() string { return "liquidation_backrun" }
func (liquidationBackrun) Detect(ctx context.Context, tx *types.Transaction) (*opportunity.Opportunity, error) {
	return nil, nil
}

// Detectors returns the full placeholder roster.
func Detectors() []Detector {
	return []Detector{
		jitLiquidity{},
		statisticalArbitrage{},
		crossChain{},
		liquidationBackrun{},
	}
}
