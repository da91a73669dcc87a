// Package simulation implements the dry-run validator (C6): it confirms
// a candidate opportunity still works against current chain state before
// the bundle builder commits to it. It is defined against the
// "dry-run call" primitive an eth_call-like endpoint exposes — no full
// EVM fork is required, though Caller is an interface a fork-backed
// implementation could satisfy too.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mev-engine/sandwich-arb-engine/pkg/chain"
	"github.com/mev-engine/sandwich-arb-engine/pkg/opportunity"
)

var ErrWrongKind = errors.New("simulation: call sequence does not match the opportunity's kind")

// Call is one dry-run step: a from/to/data/value tuple suitable for
// eth_call, plus the gas price that would actually be paid if it were
// submitted.
type Call struct {
	From     common.Address
	To       *common.Address
	Data     []byte
	Value    *big.Int
	GasPrice *big.Int
}

// Result mirrors spec.md's simulation result shape.
type Result struct {
	Success      bool
	NetProfit    *uint256.Int
	GasUsed      uint64
	RevertReason string
}

// Simulator dry-runs candidate opportunities against a live chain
// connection.
type Simulator struct {
	caller chain.Caller
}

// NewSimulator constructs a Simulator backed by caller.
func NewSimulator(caller chain.Caller) *Simulator {
	return &Simulator{caller: caller}
}

// SimulateSandwich serially dry-runs frontrun, then victim, then
// backrun. Any revert rejects with a reason; otherwise net_profit is
// the opportunity's estimated profit less the actual gas cost.
func (s *Simulator) SimulateSandwich(ctx context.Context, opp *opportunity.Opportunity, frontrun, victim, backrun Call) (*Result, error) {
	if opp.Kind != opportunity.KindSandwich {
		return nil, ErrWrongKind
	}

	var totalGas uint64
	var gasPriceUsed *big.Int

	for _, call := range []Call{frontrun, victim, backrun} {
		gasUsed, revertReason, err := s.dryRun(ctx, call)
		if err != nil {
			return nil, err
		}
		if revertReason != "" {
			return &Result{Success: false, RevertReason: revertReason}, nil
		}
		totalGas += gasUsed
		gasPriceUsed = call.GasPrice
	}

	gasCost := gasCostWei(totalGas, gasPriceUsed)
	netProfit := safeSub(opp.EstimatedProfit, gasCost)

	return &Result{Success: true, NetProfit: netProfit, GasUsed: totalGas}, nil
}

// SimulateArbitrage dry-runs the single composed arbitrage call.
// net_profit is the expected gross profit less the actual gas cost.
func (s *Simulator) SimulateArbitrage(ctx context.Context, opp *opportunity.Opportunity, composed Call) (*Result, error) {
	if opp.Kind != opportunity.KindArbitrage {
		return nil, ErrWrongKind
	}

	gasUsed, revertReason, err := s.dryRun(ctx, composed)
	if err != nil {
		return nil, err
	}
	if revertReason != "" {
		return &Result{Success: false, RevertReason: revertReason}, nil
	}

	gasCost := gasCostWei(gasUsed, composed.GasPrice)
	netProfit := safeSub(opp.Arbitrage.GrossProfit, gasCost)

	return &Result{Success: true, NetProfit: netProfit, GasUsed: gasUsed}, nil
}

// dryRun executes one call, returning the estimated gas and a decoded
// revert reason (empty if the call succeeded).
func (s *Simulator) dryRun(ctx context.Context, call Call) (gasUsed uint64, revertReason string, err error) {
	msg := ethereum.CallMsg{From: call.From, To: call.To, Data: call.Data, Value: call.Value}

	if _, callErr := s.caller.CallContract(ctx, msg, nil); callErr != nil {
		return 0, decodeRevertReason(callErr), nil
	}

	gasUsed, err = s.caller.EstimateGas(ctx, msg)
	if err != nil {
		return 0, "", fmt.Errorf("estimate gas: %w", err)
	}
	return gasUsed, "", nil
}

func decodeRevertReason(err error) string {
	type dataError interface {
		ErrorData() interface{}
	}
	var de dataError
	if errors.As(err, &de) {
		if raw, ok := de.ErrorData().(string); ok {
			if data := common.FromHex(raw); len(data) > 0 {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}
	return err.Error()
}

func gasCostWei(gasUsed uint64, gasPrice *big.Int) *uint256.Int {
	if gasPrice == nil {
		return new(uint256.Int)
	}
	cost := new(big.Int).Mul(big.NewInt(int64(gasUsed)), gasPrice)
	u, overflow := uint256.FromBig(cost)
	if overflow {
		return new(uint256.Int).Not(new(uint256.Int))
	}
	return u
}

func safeSub(a, b *uint256.Int) *uint256.Int {
	if a == nil {
		return new(uint256.Int)
	}
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return new(uint256.Int)
	}
	return z
}
