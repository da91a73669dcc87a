package pool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptorEnforcesOrdering(t *testing.T) {
	lo := common.HexToAddress("0x0000000000000000000000000000000000000001")
	hi := common.HexToAddress("0x0000000000000000000000000000000000000002")
	addr := common.HexToAddress("0x00000000000000000000000000000000000099")
	r0, r1 := uint256.NewInt(100), uint256.NewInt(200)

	_, err := NewDescriptor(addr, hi, lo, r0, r1, 30, DexUniswapV2)
	require.ErrorIs(t, err, ErrUnorderedTokens)

	d, err := NewDescriptor(addr, lo, hi, r0, r1, 30, DexUniswapV2)
	require.NoError(t, err)
	assert.Equal(t, lo, d.Token0)
	assert.Equal(t, hi, d.Token1)
}

func TestDescriptorUsable(t *testing.T) {
	lo := common.HexToAddress("0x0000000000000000000000000000000000000001")
	hi := common.HexToAddress("0x0000000000000000000000000000000000000002")
	addr := common.Address{}

	d, err := NewDescriptor(addr, lo, hi, uint256.NewInt(0), uint256.NewInt(1), 30, DexUniswapV2)
	require.NoError(t, err)
	assert.False(t, d.Usable())

	d2, err := NewDescriptor(addr, lo, hi, uint256.NewInt(1), uint256.NewInt(1), 30, DexUniswapV2)
	require.NoError(t, err)
	assert.True(t, d2.Usable())
}

func TestDescriptorReservesFor(t *testing.T) {
	lo := common.HexToAddress("0x0000000000000000000000000000000000000001")
	hi := common.HexToAddress("0x0000000000000000000000000000000000000002")
	other := common.HexToAddress("0x0000000000000000000000000000000000000003")

	d, err := NewDescriptor(common.Address{}, lo, hi, uint256.NewInt(10), uint256.NewInt(20), 30, DexUniswapV2)
	require.NoError(t, err)

	rin, rout, ok := d.ReservesFor(lo)
	require.True(t, ok)
	assert.Equal(t, uint64(10), rin.Uint64())
	assert.Equal(t, uint64(20), rout.Uint64())

	_, _, ok = d.ReservesFor(other)
	assert.False(t, ok)
}
