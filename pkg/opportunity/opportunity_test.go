package opportunity

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSandwichDetails() SandwichDetails {
	return SandwichDetails{
		Pool:            common.HexToAddress("0x1"),
		TokenIn:         common.HexToAddress("0x2"),
		TokenOut:        common.HexToAddress("0x3"),
		FrontrunAmount:  uint256.NewInt(100),
		BackrunAmount:   uint256.NewInt(98),
		VictimAmountIn:  uint256.NewInt(1000),
		VictimAmountMin: uint256.NewInt(950),
		PriceImpact:     0.02,
	}
}

func TestNewSandwichAcceptsValidDetails(t *testing.T) {
	opp, err := NewSandwich("opp-1", validSandwichDetails(), uint256.NewInt(500), uint256.NewInt(100), 5, 42)
	require.NoError(t, err)
	assert.Equal(t, KindSandwich, opp.Kind)
	assert.Equal(t, uint64(400), opp.NetProfit().Uint64())
}

func TestNewSandwichRejectsZeroVictimAmount(t *testing.T) {
	details := validSandwichDetails()
	details.VictimAmountIn = uint256.NewInt(0)
	_, err := NewSandwich("opp-1", details, uint256.NewInt(500), uint256.NewInt(100), 5, 42)
	require.ErrorIs(t, err, ErrZeroVictimAmount)
}

func TestNewSandwichRejectsPriceImpactOutOfRange(t *testing.T) {
	details := validSandwichDetails()
	details.PriceImpact = 1.5
	_, err := NewSandwich("opp-1", details, uint256.NewInt(500), uint256.NewInt(100), 5, 42)
	require.ErrorIs(t, err, ErrPriceImpactRange)
}

func TestNewSandwichRejectsInvalidPriority(t *testing.T) {
	_, err := NewSandwich("opp-1", validSandwichDetails(), uint256.NewInt(500), uint256.NewInt(100), 11, 42)
	require.ErrorIs(t, err, ErrInvalidPriority)
}

func cyclicPath(n int) []common.Address {
	w := common.HexToAddress("0xaa")
	path := []common.Address{w}
	for i := 1; i < n; i++ {
		path = append(path, common.HexToAddress("0x0"+string(rune('1'+i))))
	}
	path = append(path, w)
	return path
}

func TestNewArbitrageAcceptsValidDetails(t *testing.T) {
	details := ArbitrageDetails{
		Path:        cyclicPath(2),
		Pools:       []common.Address{common.HexToAddress("0x10"), common.HexToAddress("0x11")},
		InputAmount: uint256.NewInt(1000),
		GrossProfit: uint256.NewInt(50),
	}
	opp, err := NewArbitrage("opp-2", details, uint256.NewInt(50), uint256.NewInt(10), 3, 10)
	require.NoError(t, err)
	assert.Equal(t, KindArbitrage, opp.Kind)
}

func TestNewArbitrageRejectsPathPoolMismatch(t *testing.T) {
	details := ArbitrageDetails{
		Path:        cyclicPath(2),
		Pools:       []common.Address{common.HexToAddress("0x10")},
		InputAmount: uint256.NewInt(1000),
		GrossProfit: uint256.NewInt(50),
	}
	_, err := NewArbitrage("opp-2", details, uint256.NewInt(50), uint256.NewInt(10), 3, 10)
	require.ErrorIs(t, err, ErrPathPoolMismatch)
}

func TestNewArbitrageRejectsNonCyclicPath(t *testing.T) {
	details := ArbitrageDetails{
		Path:        []common.Address{common.HexToAddress("0x1"), common.HexToAddress("0x2"), common.HexToAddress("0x3")},
		Pools:       []common.Address{common.HexToAddress("0x10"), common.HexToAddress("0x11")},
		InputAmount: uint256.NewInt(1000),
		GrossProfit: uint256.NewInt(50),
	}
	_, err := NewArbitrage("opp-2", details, uint256.NewInt(50), uint256.NewInt(10), 3, 10)
	require.ErrorIs(t, err, ErrPathNotCyclic)
}

func TestNewArbitrageRejectsPoolCountOutOfRange(t *testing.T) {
	w := common.HexToAddress("0xaa")
	details := ArbitrageDetails{
		Path:        []common.Address{w, w},
		Pools:       []common.Address{common.HexToAddress("0x10")},
		InputAmount: uint256.NewInt(1000),
		GrossProfit: uint256.NewInt(50),
	}
	_, err := NewArbitrage("opp-2", details, uint256.NewInt(50), uint256.NewInt(10), 3, 10)
	require.ErrorIs(t, err, ErrPoolCountOutOfRange)
}

func TestNetProfitSaturatesAtZero(t *testing.T) {
	opp, err := NewSandwich("opp-3", validSandwichDetails(), uint256.NewInt(10), uint256.NewInt(100), 0, 1)
	require.NoError(t, err)
	assert.True(t, opp.NetProfit().IsZero())
}

func TestSortOrdersByNetProfitDescending(t *testing.T) {
	high, err := NewSandwich("high", validSandwichDetails(), uint256.NewInt(1000), uint256.NewInt(0), 0, 1)
	require.NoError(t, err)
	low, err := NewSandwich("low", validSandwichDetails(), uint256.NewInt(100), uint256.NewInt(0), 0, 1)
	require.NoError(t, err)

	opps := []*Opportunity{low, high}
	Sort(opps)
	assert.Equal(t, "high", opps[0].ID)
	assert.Equal(t, "low", opps[1].ID)
}

func TestSortBreaksTiesByPriorityThenExpiry(t *testing.T) {
	a, err := NewSandwich("a", validSandwichDetails(), uint256.NewInt(100), uint256.NewInt(0), 2, 50)
	require.NoError(t, err)
	b, err := NewSandwich("b", validSandwichDetails(), uint256.NewInt(100), uint256.NewInt(0), 5, 10)
	require.NoError(t, err)
	c, err := NewSandwich("c", validSandwichDetails(), uint256.NewInt(100), uint256.NewInt(0), 5, 5)
	require.NoError(t, err)

	opps := []*Opportunity{a, b, c}
	Sort(opps)
	assert.Equal(t, []string{"c", "b", "a"}, []string{opps[0].ID, opps[1].ID, opps[2].ID})
}

func TestTopKTruncates(t *testing.T) {
	var opps []*Opportunity
	for i := 0; i < 5; i++ {
		opp, err := NewSandwich("x", validSandwichDetails(), uint256.NewInt(uint64(i*10)), uint256.NewInt(0), 0, 1)
		require.NoError(t, err)
		opps = append(opps, opp)
	}
	top := TopK(opps, 3)
	assert.Len(t, top, 3)
	assert.Equal(t, uint64(40), top[0].EstimatedProfit.Uint64())
}
