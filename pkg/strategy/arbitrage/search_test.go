package arbitrage

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mev-engine/sandwich-arb-engine/pkg/pool"
)

func ethUnits(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18)))
}

// mispricedCandidate builds a two-hop W->T->W loop where the second
// pool is deliberately mispriced so a round trip profits.
func mispricedCandidate(t *testing.T) Candidate {
	t.Helper()
	w := common.HexToAddress("0x01")
	tok := common.HexToAddress("0x02")

	poolA, err := pool.NewDescriptor(common.HexToAddress("0xaa"), w, tok, ethUnits(1000), ethUnits(1000), 30, pool.DexUniswapV2)
	require.NoError(t, err)
	poolB, err := pool.NewDescriptor(common.HexToAddress("0xbb"), w, tok, ethUnits(1200), ethUnits(1000), 30, pool.DexUniswapV2)
	require.NoError(t, err)

	return Candidate{
		Path:  []common.Address{w, tok, w},
		Pools: []*pool.Descriptor{poolA, poolB},
	}
}

func TestEvaluateComposesHops(t *testing.T) {
	c := mispricedCandidate(t)
	out, ok := Evaluate(ethUnits(1), c)
	require.True(t, ok)
	assert.True(t, out.Sign() > 0)
}

func TestOptimalSizeFindsPositiveProfitOnMispricedLoop(t *testing.T) {
	c := mispricedCandidate(t)
	result := OptimalSize(c)
	assert.True(t, result.GrossProfit.Sign() > 0)
}

func TestOptimalSizeRespectsTightestPoolCeiling(t *testing.T) {
	c := mispricedCandidate(t)
	result := OptimalSize(c)
	ceiling := new(uint256.Int).Div(TightestReserve(c), uint256.NewInt(tightestPoolDivisor))
	assert.True(t, result.InputAmount.Cmp(ceiling) <= 0)
}

func TestGasEstimateScalesWithHopCount(t *testing.T) {
	baseFee := uint256.NewInt(1_000_000_000)
	two := GasEstimate(2, baseFee)
	four := GasEstimate(4, baseFee)
	assert.True(t, four.Cmp(two) > 0)
}

func TestAcceptRejectsBelowFloor(t *testing.T) {
	sized := SizeResult{InputAmount: ethUnits(1), GrossProfit: uint256.NewInt(1)}
	assert.False(t, Accept(sized, uint256.NewInt(0)))
}

func TestAcceptRejectsWhenGasDominates(t *testing.T) {
	sized := SizeResult{InputAmount: ethUnits(1), GrossProfit: MinArbProfitWei}
	assert.False(t, Accept(sized, MinArbProfitWei))
}

func TestSampleCounterFiresOnCadence(t *testing.T) {
	counter := NewSampleCounter(3)
	results := []bool{}
	for i := 0; i < 6; i++ {
		results = append(results, counter.ShouldSample())
	}
	assert.Equal(t, []bool{false, false, true, false, false, true}, results)
}
