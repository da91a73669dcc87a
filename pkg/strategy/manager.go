// Package strategy orchestrates the search-build-simulate-submit
// pipeline: it is the component mempool ingest (C9) hands each filtered
// transaction to, and the one that turns a surviving opportunity into a
// bundle on the relay.
package strategy

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/mev-engine/sandwich-arb-engine/pkg/alert"
	"github.com/mev-engine/sandwich-arb-engine/pkg/bundle"
	"github.com/mev-engine/sandwich-arb-engine/pkg/chain"
	"github.com/mev-engine/sandwich-arb-engine/pkg/opportunity"
	"github.com/mev-engine/sandwich-arb-engine/pkg/pool"
	"github.com/mev-engine/sandwich-arb-engine/pkg/relay"
	"github.com/mev-engine/sandwich-arb-engine/pkg/signer"
	"github.com/mev-engine/sandwich-arb-engine/pkg/simulation"
	"github.com/mev-engine/sandwich-arb-engine/pkg/strategy/arbitrage"
	"github.com/mev-engine/sandwich-arb-engine/pkg/strategy/placeholder"
	"github.com/mev-engine/sandwich-arb-engine/pkg/strategy/sandwich"
	"github.com/mev-engine/sandwich-arb-engine/pkg/types"
)

const sandwichGasUnits = 300_000

// Config bundles everything the manager needs to go from a screened
// transaction to a submitted bundle.
type Config struct {
	ChainID       uint64
	RouterAddress common.Address
	FrontrunLimit uint64
	BackrunLimit  uint64
	DeadlineSkew  time.Duration
	Vocab         arbitrage.Vocabulary
	ExpiryWindow  uint64 // blocks an opportunity remains valid for
}

// Manager wires the sandwich and arbitrage search paths to the shared
// simulate/build/submit tail. HandleTransaction matches the signature
// mempool.Handler expects, so a Manager can be handed directly to an
// Ingester.
type Manager struct {
	cfg       Config
	pools     pool.Provider
	chainRead chain.Client
	simulator *simulation.Simulator
	signer    *signer.Signer
	relay     *relay.Client
	detectors []placeholder.Detector
	log       *zap.SugaredLogger
	alerter   alert.Sink
	recorder  Recorder

	submitted int64
	rejected  int64
}

// SetAlertSink registers the sink notified on every submission and
// rejection. Calling it is optional; a Manager with no sink configured
// simply skips notification.
func (m *Manager) SetAlertSink(s alert.Sink) {
	m.alerter = s
}

// Recorder receives one entry per submission, for the audit trail the
// status API exposes. *metrics.Collector satisfies this.
type Recorder interface {
	RecordSubmission(opportunityID, kind, netProfitWei string)
	RecordRejection()
}

// SetRecorder registers the recorder notified on every submission and
// rejection. Calling it is optional.
func (m *Manager) SetRecorder(r Recorder) {
	m.recorder = r
}

// New constructs a Manager.
func New(cfg Config, pools pool.Provider, chainRead chain.Client, sim *simulation.Simulator, s *signer.Signer, relayClient *relay.Client, log *zap.SugaredLogger) *Manager {
	return &Manager{
		cfg:       cfg,
		pools:     pools,
		chainRead: chainRead,
		simulator: sim,
		signer:    s,
		relay:     relayClient,
		detectors: placeholder.Detectors(),
		log:       log,
	}
}

// candidateOpportunity pairs a built opportunity with the kind-specific
// context simulateAndSubmit needs once it's picked as the winner.
type candidateOpportunity struct {
	opp    *opportunity.Opportunity
	victim *types.Transaction // set for sandwich candidates
}

// HandleTransaction is the mempool ingest handler. It runs the sandwich
// and arbitrage searches concurrently against the same transaction,
// fans their results into one channel, ranks whatever survives with
// the shared profit/priority/expiry comparator, and carries only the
// single best candidate through simulation and submission — mirroring
// the original's analyze_transaction/execute_opportunity split, without
// its async-runtime-specific join primitive.
func (m *Manager) HandleTransaction(ctx context.Context, tx *types.Transaction) {
	results := make(chan candidateOpportunity, 2)
	var pending int

	pending++
	go func() {
		if opp, err := m.buildSandwich(ctx, tx); err == nil {
			results <- candidateOpportunity{opp: opp, victim: tx}
		} else {
			results <- candidateOpportunity{}
		}
	}()

	pending++
	go func() {
		if opp, err := m.buildArbitrage(ctx, tx); err == nil {
			results <- candidateOpportunity{opp: opp}
		} else {
			results <- candidateOpportunity{}
		}
	}()

	candidates := make([]candidateOpportunity, 0, pending)
	for i := 0; i < pending; i++ {
		if c := <-results; c.opp != nil {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		m.runPlaceholders(ctx, tx)
		return
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if opportunity.Less(c.opp, best.opp) {
			best = c
		}
	}

	if best.opp.Kind == opportunity.KindSandwich {
		m.simulateAndSubmitSandwich(ctx, best.opp, best.victim)
	} else {
		m.simulateAndSubmitArbitrage(ctx, best.opp)
	}
}

func (m *Manager) runPlaceholders(ctx context.Context, tx *types.Transaction) {
	for _, d := range m.detectors {
		opp, err := d.Detect(ctx, tx)
		if err != nil || opp == nil {
			continue
		}
		if m.log != nil {
			m.log.Debugw("placeholder strategy emitted opportunity", "strategy", d.Name(), "id", opp.ID)
		}
	}
}

func (m *Manager) buildSandwich(ctx context.Context, tx *types.Transaction) (*opportunity.Opportunity, error) {
	decoded, err := sandwich.ScreenVictim(tx)
	if err != nil {
		return nil, err
	}
	if len(decoded.Path) < 2 {
		return nil, fmt.Errorf("strategy: swap path too short")
	}

	descriptor, ok, err := m.pools.Resolve(ctx, decoded.Path[0], decoded.Path[len(decoded.Path)-1], pool.DexUniswapV2)
	if err != nil {
		return nil, fmt.Errorf("resolve pool: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("strategy: no pool for swap path")
	}

	block, err := m.chainRead.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("read block number: %w", err)
	}

	gasPrice := tx.EffectiveGasPrice()
	if gasPrice == nil {
		gasPrice = big.NewInt(0)
	}
	gasCost := sandwichGasCost(gasPrice)

	return sandwich.Build(tx.Hash, tx, descriptor, gasCost, 5, block+m.cfg.ExpiryWindow)
}

func sandwichGasCost(gasPrice *big.Int) *uint256.Int {
	units := new(big.Int).SetUint64(2 * sandwichGasUnits) // frontrun + backrun
	costWei, overflow := uint256.FromBig(new(big.Int).Mul(units, gasPrice))
	if overflow {
		return new(uint256.Int).Not(new(uint256.Int))
	}
	return costWei
}

// buildArbitrage treats the transaction's swap as a signal that the
// pool it touches may now be mispriced against the bridging-token
// vocabulary, and searches the triangular paths rooted at its input
// token for a profitable cycle.
func (m *Manager) buildArbitrage(ctx context.Context, tx *types.Transaction) (*opportunity.Opportunity, error) {
	decoded, err := sandwich.ScreenVictim(tx)
	if err != nil || len(decoded.Path) == 0 {
		return nil, fmt.Errorf("strategy: no swap token to seed arbitrage search")
	}
	token := decoded.Path[0]

	resolve := func(a, b common.Address) (*pool.Descriptor, bool) {
		d, ok, err := m.pools.Resolve(ctx, a, b, pool.DexUniswapV2)
		if err != nil || !ok {
			return nil, false
		}
		return d, true
	}

	candidates := arbitrage.Triangular(resolve, m.cfg.Vocab, token)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("strategy: no triangular candidates for token")
	}

	block, err := m.chainRead.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("read block number: %w", err)
	}

	baseFee, err := m.chainRead.SuggestGasPrice(ctx)
	if err != nil {
		baseFee = big.NewInt(0)
	}

	var best *opportunity.Opportunity
	for i, c := range candidates {
		gasCost := arbitrage.GasEstimate(len(c.Pools), mustU256FromBig(baseFee))
		opp, err := arbitrage.Build(fmt.Sprintf("%s-arb-%d", tx.Hash, i), c, gasCost, 5, block+m.cfg.ExpiryWindow)
		if err != nil {
			continue
		}
		if best == nil || opportunity.Less(opp, best) {
			best = opp
		}
	}
	if best == nil {
		return nil, fmt.Errorf("strategy: no triangular candidate cleared acceptance")
	}
	return best, nil
}

func mustU256FromBig(v *big.Int) *uint256.Int {
	u, overflow := uint256.FromBig(v)
	if overflow {
		return new(uint256.Int).Not(new(uint256.Int))
	}
	return u
}

func (m *Manager) simulateAndSubmitSandwich(ctx context.Context, opp *opportunity.Opportunity, victim *types.Transaction) {
	routerAddr := m.cfg.RouterAddress

	deadline := big.NewInt(time.Now().Add(m.cfg.DeadlineSkew).Unix())
	path := []common.Address{opp.Sandwich.TokenIn, opp.Sandwich.TokenOut}
	reversedPath := []common.Address{opp.Sandwich.TokenOut, opp.Sandwich.TokenIn}

	frontrunData, err := sandwich.EncodeSwapExactTokensForTokens(opp.Sandwich.FrontrunAmount.ToBig(), path, m.signer.Address(), deadline)
	if err != nil {
		m.reject(err)
		return
	}
	backrunData, err := sandwich.EncodeSwapExactTokensForTokens(opp.Sandwich.BackrunAmount.ToBig(), reversedPath, m.signer.Address(), deadline)
	if err != nil {
		m.reject(err)
		return
	}

	victimGasPrice := victim.EffectiveGasPrice()
	if victimGasPrice == nil {
		victimGasPrice = big.NewInt(0)
	}
	frontrunGas, backrunGas := sandwich.GasPrices(victimGasPrice)

	result, err := m.simulator.SimulateSandwich(ctx, opp,
		simulation.Call{From: m.signer.Address(), To: &routerAddr, Data: frontrunData, GasPrice: frontrunGas},
		simulation.Call{From: victim.From, To: victim.To, Data: victim.Data, Value: victim.Value, GasPrice: victimGasPrice},
		simulation.Call{From: m.signer.Address(), To: &routerAddr, Data: backrunData, GasPrice: backrunGas},
	)
	if err != nil || !result.Success {
		m.reject(err)
		return
	}
	if result.NetProfit == nil || result.NetProfit.IsZero() {
		m.reject(fmt.Errorf("sandwich: simulated net profit not positive"))
		return
	}

	block, err := m.chainRead.BlockNumber(ctx)
	if err != nil {
		m.reject(err)
		return
	}

	b, err := bundle.BuildSandwichBundle(opp, m.signer, bundle.BuildSandwichParams{
		ChainID:       m.cfg.ChainID,
		CurrentBlock:  block,
		FrontrunGas:   frontrunGas,
		BackrunGas:    backrunGas,
		FrontrunLimit: m.cfg.FrontrunLimit,
		BackrunLimit:  m.cfg.BackrunLimit,
		FrontrunData:  frontrunData,
		BackrunData:   backrunData,
		RouterAddress: routerAddr,
	})
	if err != nil {
		m.reject(err)
		return
	}

	bundleHash, err := m.relay.SendBundle(ctx, b)
	if err != nil {
		m.reject(err)
		return
	}

	atomic.AddInt64(&m.submitted, 1)
	if m.log != nil {
		m.log.Infow("submitted sandwich bundle", "opportunity_id", opp.ID, "bundle_hash", bundleHash, "net_profit_wei", opp.NetProfitBig().String())
	}
	if m.alerter != nil {
		m.alerter.Alert(alert.Submitted("sandwich", opp.ID, bundleHash, opp.NetProfitBig().String()), block)
	}
	if m.recorder != nil {
		m.recorder.RecordSubmission(opp.ID, "sandwich", opp.NetProfitBig().String())
	}
}

func (m *Manager) simulateAndSubmitArbitrage(ctx context.Context, opp *opportunity.Opportunity) {
	routerAddr := m.cfg.RouterAddress
	deadline := big.NewInt(time.Now().Add(m.cfg.DeadlineSkew).Unix())

	data, err := sandwich.EncodeSwapExactTokensForTokens(opp.Arbitrage.InputAmount.ToBig(), opp.Arbitrage.Path, m.signer.Address(), deadline)
	if err != nil {
		m.reject(err)
		return
	}

	baseFee, err := m.chainRead.SuggestGasPrice(ctx)
	if err != nil {
		m.reject(err)
		return
	}
	gasEstimate := uint64(len(opp.Arbitrage.Pools)) * sandwichGasUnits
	gasPrice := bundle.GasPriceForArbitrage(opp, baseFee, gasEstimate)

	result, err := m.simulator.SimulateArbitrage(ctx, opp,
		simulation.Call{From: m.signer.Address(), To: &routerAddr, Data: data, GasPrice: gasPrice},
	)
	if err != nil || !result.Success {
		m.reject(err)
		return
	}
	if result.NetProfit == nil || result.NetProfit.IsZero() {
		m.reject(fmt.Errorf("arbitrage: simulated net profit not positive"))
		return
	}

	block, err := m.chainRead.BlockNumber(ctx)
	if err != nil {
		m.reject(err)
		return
	}

	b, err := bundle.BuildArbitrageBundle(opp, m.signer, bundle.BuildArbitrageParams{
		ChainID:      m.cfg.ChainID,
		CurrentBlock: block,
		BaseFee:      baseFee,
		GasEstimate:  gasEstimate,
		To:           routerAddr,
		Data:         data,
	})
	if err != nil {
		m.reject(err)
		return
	}

	bundleHash, err := m.relay.SendBundle(ctx, b)
	if err != nil {
		m.reject(err)
		return
	}

	atomic.AddInt64(&m.submitted, 1)
	if m.log != nil {
		m.log.Infow("submitted arbitrage bundle", "opportunity_id", opp.ID, "bundle_hash", bundleHash, "net_profit_wei", opp.NetProfitBig().String())
	}
	if m.alerter != nil {
		m.alerter.Alert(alert.Submitted("arbitrage", opp.ID, bundleHash, opp.NetProfitBig().String()), block)
	}
	if m.recorder != nil {
		m.recorder.RecordSubmission(opp.ID, "arbitrage", opp.NetProfitBig().String())
	}
}

func (m *Manager) reject(err error) {
	atomic.AddInt64(&m.rejected, 1)
	if err != nil && m.log != nil {
		m.log.Debugw("strategy candidate rejected", "error", err)
	}
	if err != nil && m.alerter != nil {
		m.alerter.Alert(alert.Rejected("strategy", "", err), 0)
	}
	if m.recorder != nil {
		m.recorder.RecordRejection()
	}
}

// Stats reports submission counters.
type Stats struct {
	Submitted int64
	Rejected  int64
}

// GetStats returns a snapshot of submission counters.
func (m *Manager) GetStats() Stats {
	return Stats{
		Submitted: atomic.LoadInt64(&m.submitted),
		Rejected:  atomic.LoadInt64(&m.rejected),
	}
}
