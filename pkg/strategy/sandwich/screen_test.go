package sandwich

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mev-engine/sandwich-arb-engine/pkg/types"
)

func swapCalldata(t *testing.T) []byte {
	t.Helper()
	method, ok := routerABI.Methods["swapExactTokensForTokens"]
	require.True(t, ok)
	path := []common.Address{common.HexToAddress("0x1"), common.HexToAddress("0x2")}
	packed, err := method.Inputs.Pack(big.NewInt(1_000_000), big.NewInt(1), path, common.HexToAddress("0x3"), big.NewInt(9999999999))
	require.NoError(t, err)
	return append(append([]byte{}, method.ID...), packed...)
}

func validVictim(t *testing.T) *types.Transaction {
	to := common.HexToAddress("0xdead")
	return &types.Transaction{
		To:       &to,
		Value:    weiFromMilliEth(50),
		GasPrice: gweiToWei(50),
		Data:     swapCalldata(t),
	}
}

func TestScreenVictimAcceptsValidSwap(t *testing.T) {
	decoded, err := ScreenVictim(validVictim(t))
	require.NoError(t, err)
	assert.Equal(t, "swapExactTokensForTokens", decoded.Method)
	assert.Len(t, decoded.Path, 2)
}

func TestScreenVictimRejectsNoRecipient(t *testing.T) {
	tx := validVictim(t)
	tx.To = nil
	_, err := ScreenVictim(tx)
	require.ErrorIs(t, err, ErrNoRecipient)
}

func TestScreenVictimRejectsSmallValue(t *testing.T) {
	tx := validVictim(t)
	tx.Value = big.NewInt(1)
	_, err := ScreenVictim(tx)
	require.ErrorIs(t, err, ErrValueTooSmall)
}

func TestScreenVictimAcceptsValueAtFloor(t *testing.T) {
	tx := validVictim(t)
	tx.Value = weiFromMilliEth(1) // 0.01 ETH, the screening floor itself
	_, err := ScreenVictim(tx)
	require.NoError(t, err)
}

func TestScreenVictimRejectsJustBelowFloor(t *testing.T) {
	tx := validVictim(t)
	tx.Value = new(big.Int).Sub(weiFromMilliEth(1), big.NewInt(1))
	_, err := ScreenVictim(tx)
	require.ErrorIs(t, err, ErrValueTooSmall)
}

func TestScreenVictimRejectsZeroGasPrice(t *testing.T) {
	tx := validVictim(t)
	tx.GasPrice = big.NewInt(0)
	_, err := ScreenVictim(tx)
	require.ErrorIs(t, err, ErrGasPriceOutOfBand)
}

func TestScreenVictimRejectsExcessiveGasPrice(t *testing.T) {
	tx := validVictim(t)
	tx.GasPrice = gweiToWei(501)
	_, err := ScreenVictim(tx)
	require.ErrorIs(t, err, ErrGasPriceOutOfBand)
}

func TestScreenVictimRejectsUnknownSelector(t *testing.T) {
	tx := validVictim(t)
	tx.Data = []byte{0xde, 0xad, 0xbe, 0xef}
	_, err := ScreenVictim(tx)
	require.ErrorIs(t, err, ErrNotASwap)
}

func TestGasPricesBracketVictim(t *testing.T) {
	victim := gweiToWei(50)
	frontrun, backrun := GasPrices(victim)
	require.NoError(t, ValidateGasOrdering(frontrun, victim, backrun))
}

func TestGasPricesHalvesBackrunWhenVictimBelowBump(t *testing.T) {
	victim := big.NewInt(1_000_000_000) // 1 gwei, below the 2 gwei bump
	_, backrun := GasPrices(victim)
	assert.Equal(t, big.NewInt(500_000_000), backrun)
}

func TestValidateGasOrderingRejectsNonStrictOrdering(t *testing.T) {
	victim := gweiToWei(50)
	err := ValidateGasOrdering(victim, victim, gweiToWei(10))
	require.ErrorIs(t, err, ErrGasOrdering)
}
