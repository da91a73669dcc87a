// Package ammmath implements the constant-product AMM swap curve used to
// price every sandwich and arbitrage hop. All arithmetic is saturating
// 256-bit unsigned: overflow clamps to the maximum representable value,
// underflow clamps to zero, and division by zero yields zero rather than
// panicking. The kernel is pure, deterministic, and allocation-light.
package ammmath

import "github.com/holiman/uint256"

// FeeDenominatorBps is the basis-point denominator (100%).
const FeeDenominatorBps = 10000

// DefaultFeeBps is the default UniV2-style pool fee, 0.30%.
const DefaultFeeBps = 30

var maxUint256 = new(uint256.Int).Not(new(uint256.Int))

// MaxUint256 returns the saturation ceiling shared by every operation in
// this package.
func MaxUint256() *uint256.Int {
	return new(uint256.Int).Set(maxUint256)
}

// SaturatingAdd returns x+y, clamped to MaxUint256 on overflow.
func SaturatingAdd(x, y *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return MaxUint256()
	}
	return z
}

// SaturatingSub returns x-y, clamped to zero on underflow.
func SaturatingSub(x, y *uint256.Int) *uint256.Int {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return new(uint256.Int)
	}
	return z
}

// SaturatingMul returns x*y, clamped to MaxUint256 on overflow.
func SaturatingMul(x, y *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return MaxUint256()
	}
	return z
}

// SaturatingDiv returns floor(x/y), or zero if y is zero.
func SaturatingDiv(x, y *uint256.Int) *uint256.Int {
	if y.IsZero() {
		return new(uint256.Int)
	}
	return new(uint256.Int).Div(x, y)
}

// SwapResult is the outcome of one constant-product swap hop.
type SwapResult struct {
	AmountOut     *uint256.Int
	NewReserveIn  *uint256.Int
	NewReserveOut *uint256.Int
}

// SwapOut computes the constant-product swap output for amountIn against a
// pool with the given reserves and fee (in basis points), and returns the
// post-swap reserves for chaining into a multi-hop path. Zero reserves or
// zero input yields a zero-output result with reserve-out unchanged
// (reserve-in still advances by amountIn, matching a real pool crediting
// a deposit that produces no output).
//
//	amountOut = (amountIn * (10000 - feeBps) * reserveOut)
//	            / (reserveIn * 10000 + amountIn * (10000 - feeBps))
func SwapOut(amountIn, reserveIn, reserveOut *uint256.Int, feeBps uint64) SwapResult {
	newReserveIn := SaturatingAdd(reserveIn, amountIn)

	if amountIn.IsZero() || reserveIn.IsZero() || reserveOut.IsZero() {
		return SwapResult{
			AmountOut:     new(uint256.Int),
			NewReserveIn:  newReserveIn,
			NewReserveOut: new(uint256.Int).Set(reserveOut),
		}
	}

	feeMul := new(uint256.Int).SetUint64(FeeDenominatorBps - clampFeeBps(feeBps))
	amountInWithFee := SaturatingMul(amountIn, feeMul)

	numerator := SaturatingMul(amountInWithFee, reserveOut)
	denominator := SaturatingAdd(
		SaturatingMul(reserveIn, new(uint256.Int).SetUint64(FeeDenominatorBps)),
		amountInWithFee,
	)

	amountOut := SaturatingDiv(numerator, denominator)
	if amountOut.Cmp(reserveOut) > 0 {
		// A pool can never pay out more than it holds; this only triggers
		// under saturation-induced numerical edge cases.
		amountOut = new(uint256.Int).Set(reserveOut)
	}

	return SwapResult{
		AmountOut:     amountOut,
		NewReserveIn:  newReserveIn,
		NewReserveOut: SaturatingSub(reserveOut, amountOut),
	}
}

func clampFeeBps(feeBps uint64) uint64 {
	if feeBps > FeeDenominatorBps {
		return FeeDenominatorBps
	}
	return feeBps
}

// FromEther returns the uint256 representation of n whole ether (n * 1e18).
func FromEther(n uint64) *uint256.Int {
	wei := uint256.NewInt(n)
	return SaturatingMul(wei, new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18)))
}
