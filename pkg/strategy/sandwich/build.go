package sandwich

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/mev-engine/sandwich-arb-engine/pkg/opportunity"
	"github.com/mev-engine/sandwich-arb-engine/pkg/pool"
	"github.com/mev-engine/sandwich-arb-engine/pkg/types"
)

// MinProfitWei is the default acceptance floor for a sandwich's optimal
// profit (0.05 ETH).
var MinProfitWei = weiFromMilliEth(5)

var ErrUnprofitable = errors.New("sandwich: optimal profit below acceptance floor")

// Build screens the victim, searches for the optimal frontrun size with
// both Bisect and Newton (cross-checking, keeping the larger), and
// produces a fully-formed Opportunity. It returns ScreenVictim's error
// when the victim fails screening, and ErrUnprofitable (not an error
// condition to log loudly — callers should simply skip) when the
// optimum doesn't clear the acceptance bar.
func Build(id string, victim *types.Transaction, descriptor *pool.Descriptor, gasCost *uint256.Int, priority uint8, expiryBlock uint64) (*opportunity.Opportunity, error) {
	decoded, err := ScreenVictim(victim)
	if err != nil {
		return nil, err
	}

	reserveIn, reserveOut, ok := descriptor.ReservesFor(decoded.Path[0])
	if !ok {
		return nil, ErrNotASwap
	}

	victimAmount := decoded.AmountIn
	if victimAmount == nil || victimAmount.Sign() == 0 {
		victimAmount = victim.Value
	}
	victimAmountU256, overflow := uint256.FromBig(victimAmount)
	if overflow {
		victimAmountU256 = new(uint256.Int).Set(descriptor.Reserve0)
	}

	p := Pool{ReserveIn: reserveIn, ReserveOut: reserveOut, FeeBps: descriptor.FeeBps}

	bisected := Bisect(victimAmountU256, p, gasCost)
	newtoned := Newton(victimAmountU256, p, gasCost, nil)

	best := bisected
	if newtoned.Profit.Cmp(best.Profit) > 0 {
		best = newtoned
	}

	twoXGas := new(uint256.Int).Mul(gasCost, uint256.NewInt(2))
	if best.Profit.Cmp(MinProfitWei) < 0 || best.Profit.Cmp(twoXGas) <= 0 {
		return nil, ErrUnprofitable
	}

	frontrunAmount := best.FrontrunAmount
	backrunAmount := new(uint256.Int).Mul(frontrunAmount, uint256.NewInt(98))
	backrunAmount.Div(backrunAmount, uint256.NewInt(100))

	victimGasPrice := victim.EffectiveGasPrice()
	if victimGasPrice == nil {
		victimGasPrice = big.NewInt(0)
	}
	frontrunGas, backrunGas := GasPrices(victimGasPrice)
	if err := ValidateGasOrdering(frontrunGas, victimGasPrice, backrunGas); err != nil {
		return nil, err
	}

	priceImpact := 0.0
	if !reserveIn.IsZero() {
		priceImpact = ratio(frontrunAmount, reserveIn)
	}
	if priceImpact > 1 {
		priceImpact = 1
	}

	tokenOut := decoded.Path[len(decoded.Path)-1]

	details := opportunity.SandwichDetails{
		Victim:          victim,
		Pool:            descriptor.Address,
		TokenIn:         decoded.Path[0],
		TokenOut:        tokenOut,
		FrontrunAmount:  frontrunAmount,
		BackrunAmount:   backrunAmount,
		VictimAmountIn:  victimAmountU256,
		VictimAmountMin: mustU256(decoded.AmountOutMin),
		PriceImpact:     priceImpact,
	}

	estimatedProfit := best.Profit
	return opportunity.NewSandwich(id, details, estimatedProfit, gasCost, priority, expiryBlock)
}

func ratio(numerator, denominator *uint256.Int) float64 {
	n := new(big.Float).SetInt(numerator.ToBig())
	d := new(big.Float).SetInt(denominator.ToBig())
	if d.Sign() == 0 {
		return 0
	}
	result, _ := new(big.Float).Quo(n, d).Float64()
	return result
}

func mustU256(v *big.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return new(uint256.Int).Not(new(uint256.Int))
	}
	return u
}
