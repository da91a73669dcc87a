package arbitrage

import (
	"sync/atomic"

	"github.com/holiman/uint256"

	"github.com/mev-engine/sandwich-arb-engine/pkg/ammmath"
)

const (
	binarySearchIterations = 20
	minInputWei            = "10000000000000000"   // 0.01 ETH
	maxInputWei            = "100000000000000000000" // 100 ETH
	tightestPoolDivisor    = 5
	gasPerHopUnits         = 300_000
)

var (
	minInput = mustParseU256(minInputWei)
	maxInput = mustParseU256(maxInputWei)
)

func mustParseU256(decimal string) *uint256.Int {
	v, err := uint256.FromDecimal(decimal)
	if err != nil {
		panic(err)
	}
	return v
}

// MinArbProfitWei is the default acceptance floor (0.05 ETH).
var MinArbProfitWei = mustParseU256("50000000000000000")

// SizeResult is the best input amount found for a candidate and its
// gross profit.
type SizeResult struct {
	InputAmount *uint256.Int
	GrossProfit *uint256.Int
}

// OptimalSize binary-searches a0 in [minInput, maxInput] (capped at
// tightest-pool-reserve/5) for the input that maximizes profit, per
// spec.md §4.5. Each iteration moves by the sign of the profit change
// between mid and mid+delta.
func OptimalSize(c Candidate) SizeResult {
	lo := new(uint256.Int).Set(minInput)
	hi := new(uint256.Int).Set(maxInput)

	ceiling := new(uint256.Int).Div(TightestReserve(c), uint256.NewInt(tightestPoolDivisor))
	if !ceiling.IsZero() && ceiling.Lt(hi) {
		hi = ceiling
	}
	if hi.Lt(lo) {
		hi = new(uint256.Int).Set(lo)
	}

	best := SizeResult{InputAmount: new(uint256.Int), GrossProfit: new(uint256.Int)}

	for i := 0; i < binarySearchIterations; i++ {
		mid := new(uint256.Int).Add(lo, hi)
		mid.Div(mid, uint256.NewInt(2))

		out, ok := Evaluate(mid, c)
		if !ok {
			break
		}
		profit := ammmath.SaturatingSub(out, mid)
		if profit.Cmp(best.GrossProfit) > 0 {
			best = SizeResult{InputAmount: new(uint256.Int).Set(mid), GrossProfit: new(uint256.Int).Set(profit)}
		}

		delta := new(uint256.Int).Div(ammmath.SaturatingSub(hi, lo), uint256.NewInt(100))
		if delta.IsZero() {
			delta = uint256.NewInt(1)
		}
		midPlusDelta := ammmath.SaturatingAdd(mid, delta)
		outDelta, ok := Evaluate(midPlusDelta, c)
		if !ok {
			break
		}
		profitDelta := ammmath.SaturatingSub(outDelta, midPlusDelta)

		if profitDelta.Cmp(profit) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	return best
}

// GasEstimate returns the pessimistic gas cost estimate
// 300_000 * n * baseFee for an n-hop path.
func GasEstimate(hops int, baseFeeWei *uint256.Int) *uint256.Int {
	perHop := ammmath.SaturatingMul(uint256.NewInt(gasPerHopUnits), uint256.NewInt(uint64(hops)))
	return ammmath.SaturatingMul(perHop, baseFeeWei)
}

// Accept reports whether a sized candidate clears spec.md §4.5's
// acceptance bar: profit >= MinArbProfitWei and strictly exceeds the
// pessimistic gas estimate.
func Accept(sized SizeResult, gasEstimate *uint256.Int) bool {
	if sized.GrossProfit.Cmp(MinArbProfitWei) < 0 {
		return false
	}
	return sized.GrossProfit.Cmp(gasEstimate) > 0
}

// SampleCounter throttles multi-DEX search to a sampling cadence
// (spec.md §4.5: "every 100th tx"), shared across concurrent
// strategy-evaluation goroutines.
type SampleCounter struct {
	n     uint64
	count atomic.Uint64
}

// NewSampleCounter returns a counter that samples every nth call.
func NewSampleCounter(n uint64) *SampleCounter {
	if n == 0 {
		n = 1
	}
	return &SampleCounter{n: n}
}

// ShouldSample increments the counter and reports whether this call
// lands on the sampling cadence.
func (s *SampleCounter) ShouldSample() bool {
	return s.count.Add(1)%s.n == 0
}
