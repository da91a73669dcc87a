package sandwich

import (
	"github.com/holiman/uint256"

	"github.com/mev-engine/sandwich-arb-engine/pkg/ammmath"
)

// Pool is the minimal reserve/fee view the optimizer needs; pkg/pool's
// Descriptor satisfies it once oriented to the victim's swap direction.
type Pool struct {
	ReserveIn  *uint256.Int
	ReserveOut *uint256.Int
	FeeBps     uint64
}

const (
	bisectionMaxIterations = 40
	newtonMaxIterations    = 10
	poolShareDenominator   = 5 // x_high capped at R_in/5
)

var minFrontrunWei = new(uint256.Int).Div(ammmath.FromEther(1), uint256.NewInt(100)) // 0.01 ETH

// Profit evaluates P(x): the attacker's net token-in gain from
// frontrunning the victim's swap with input x and backrunning it,
// given the pool's pre-frontrun reserves and the victim's intended
// input. Saturates to zero rather than going negative.
func Profit(x *uint256.Int, victimAmount *uint256.Int, pool Pool) *uint256.Int {
	frontrun := ammmath.SwapOut(x, pool.ReserveIn, pool.ReserveOut, pool.FeeBps)
	victim := ammmath.SwapOut(victimAmount, frontrun.NewReserveIn, frontrun.NewReserveOut, pool.FeeBps)
	backrun := ammmath.SwapOut(frontrun.AmountOut, victim.NewReserveOut, victim.NewReserveIn, pool.FeeBps)
	return ammmath.SaturatingSub(backrun.AmountOut, x)
}

// Result is the best frontrun size found and its profit.
type Result struct {
	FrontrunAmount *uint256.Int
	Profit         *uint256.Int
}

// Bisect implements spec.md §4.4's bounded-bisection search: bracket
// x in [x_low, x_high], repeatedly evaluate the midpoint, retain the
// best (x, P) seen, and move the bracket by the sign of P(x)-gasCost.
func Bisect(victimAmount *uint256.Int, pool Pool, gasCost *uint256.Int) Result {
	xLow := new(uint256.Int).Set(minFrontrunWei)
	xHigh := new(uint256.Int).Div(pool.ReserveIn, uint256.NewInt(poolShareDenominator))
	if xHigh.Lt(xLow) {
		xHigh = new(uint256.Int).Set(xLow)
	}

	best := Result{FrontrunAmount: new(uint256.Int), Profit: new(uint256.Int)}
	tolerance := new(uint256.Int).Div(pool.ReserveIn, uint256.NewInt(1_000_000))

	for i := 0; i < bisectionMaxIterations; i++ {
		width := ammmath.SaturatingSub(xHigh, xLow)
		if width.Cmp(tolerance) <= 0 {
			break
		}

		mid := new(uint256.Int).Add(xLow, xHigh)
		mid.Div(mid, uint256.NewInt(2))

		profit := Profit(mid, victimAmount, pool)
		if profit.Cmp(best.Profit) > 0 {
			best = Result{FrontrunAmount: new(uint256.Int).Set(mid), Profit: new(uint256.Int).Set(profit)}
		}

		net := ammmath.SaturatingSub(profit, gasCost)
		if net.IsZero() {
			xHigh = mid
		} else {
			xLow = mid
		}
	}

	return best
}

// Newton implements spec.md §4.4's Newton-style search: forward
// difference for P'(x), clamped step, falling back to Bisect's result
// whenever the derivative collapses to zero.
func Newton(victimAmount *uint256.Int, pool Pool, gasCost *uint256.Int, maxPosition *uint256.Int) Result {
	x := new(uint256.Int).Div(pool.ReserveIn, uint256.NewInt(20))
	ceiling := new(uint256.Int).Div(pool.ReserveIn, uint256.NewInt(poolShareDenominator))
	if maxPosition != nil && maxPosition.Lt(ceiling) {
		ceiling = maxPosition
	}

	best := Result{FrontrunAmount: new(uint256.Int).Set(x), Profit: Profit(x, victimAmount, pool)}

	for i := 0; i < newtonMaxIterations; i++ {
		h := new(uint256.Int).Div(x, uint256.NewInt(1000))
		if h.IsZero() {
			h = uint256.NewInt(1)
		}

		px := Profit(x, victimAmount, pool)
		xPlusH := ammmath.SaturatingAdd(x, h)
		pxh := Profit(xPlusH, victimAmount, pool)

		derivative := ammmath.SaturatingSub(pxh, px)
		if derivative.IsZero() {
			return Bisect(victimAmount, pool, gasCost)
		}

		step := ammmath.SaturatingDiv(ammmath.SaturatingMul(px, h), derivative)
		x = ammmath.SaturatingAdd(x, step)
		if x.Cmp(ceiling) > 0 {
			x = new(uint256.Int).Set(ceiling)
		}

		profit := Profit(x, victimAmount, pool)
		if profit.Cmp(best.Profit) > 0 {
			best = Result{FrontrunAmount: new(uint256.Int).Set(x), Profit: new(uint256.Int).Set(profit)}
		}
	}

	return best
}
