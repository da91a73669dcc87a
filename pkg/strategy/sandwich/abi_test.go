package sandwich

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSwapRecognizesFeeOnTransferVariant(t *testing.T) {
	method, ok := routerABI.Methods["swapExactTokensForTokensSupportingFeeOnTransferTokens"]
	require.True(t, ok)

	path := []common.Address{common.HexToAddress("0xa"), common.HexToAddress("0xb")}
	packed, err := method.Inputs.Pack(big.NewInt(500), big.NewInt(1), path, common.HexToAddress("0xc"), big.NewInt(1))
	require.NoError(t, err)
	data := append(append([]byte{}, method.ID...), packed...)

	decoded, ok := DecodeSwap(data)
	require.True(t, ok)
	assert.True(t, decoded.FeeOnTransfer)
	assert.Equal(t, big.NewInt(500), decoded.AmountIn)
	assert.Equal(t, path, decoded.Path)
}

func TestDecodeSwapRejectsShortData(t *testing.T) {
	_, ok := DecodeSwap([]byte{0x01, 0x02})
	assert.False(t, ok)
}

func TestDecodeSwapRejectsUnknownSelector(t *testing.T) {
	_, ok := DecodeSwap([]byte{0x11, 0x22, 0x33, 0x44})
	assert.False(t, ok)
}
