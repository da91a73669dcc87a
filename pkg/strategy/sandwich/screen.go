package sandwich

import (
	"errors"
	"math/big"

	"github.com/mev-engine/sandwich-arb-engine/pkg/types"
)

var (
	ErrValueTooSmall     = errors.New("sandwich: victim value below screening floor")
	ErrGasPriceOutOfBand = errors.New("sandwich: victim gas price is zero or exceeds the screening ceiling")
	ErrNoRecipient       = errors.New("sandwich: victim has no recipient")
	ErrNotASwap          = errors.New("sandwich: calldata does not decode to a known router swap")
	ErrGasOrdering       = errors.New("sandwich: frontrun/backrun gas prices do not strictly bracket the victim")
)

var (
	minVictimValueWei = weiFromMilliEth(1) // 10^-2 ETH
	maxVictimGasPrice = gweiToWei(500)
	gasBumpWei        = gweiToWei(2)
)

func weiFromMilliEth(hundredths int64) *big.Int {
	// hundredths of an ETH, e.g. 10 == 0.10 ETH is NOT what we want; this
	// helper takes units of 10^-2 ETH directly.
	oneEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	num := new(big.Int).Mul(oneEth, big.NewInt(hundredths))
	return num.Div(num, big.NewInt(100))
}

func gweiToWei(gwei int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(gwei), big.NewInt(1_000_000_000))
}

// ScreenVictim rejects victims that fail spec.md §4.4's screening rules:
// value floor, gas-price band, recipient presence, and known swap
// selector.
func ScreenVictim(tx *types.Transaction) (DecodedSwap, error) {
	if tx.To == nil {
		return DecodedSwap{}, ErrNoRecipient
	}
	if tx.Value == nil || tx.Value.Cmp(minVictimValueWei) < 0 {
		return DecodedSwap{}, ErrValueTooSmall
	}

	gasPrice := tx.EffectiveGasPrice()
	if gasPrice == nil || gasPrice.Sign() == 0 || gasPrice.Cmp(maxVictimGasPrice) > 0 {
		return DecodedSwap{}, ErrGasPriceOutOfBand
	}

	decoded, ok := DecodeSwap(tx.Data)
	if !ok {
		return DecodedSwap{}, ErrNotASwap
	}
	return decoded, nil
}

// GasPrices computes the frontrun and backrun gas prices required to
// strictly bracket the victim's: frontrun = victim + 2 gwei (saturating),
// backrun = victim - 2 gwei, or victim/2 if victim < 2 gwei.
func GasPrices(victimGasPrice *big.Int) (frontrun, backrun *big.Int) {
	frontrun = new(big.Int).Add(victimGasPrice, gasBumpWei)

	if victimGasPrice.Cmp(gasBumpWei) < 0 {
		backrun = new(big.Int).Div(victimGasPrice, big.NewInt(2))
	} else {
		backrun = new(big.Int).Sub(victimGasPrice, gasBumpWei)
	}
	return frontrun, backrun
}

// ValidateGasOrdering enforces the strict frontrun > victim > backrun
// invariant; violations invalidate the sandwich.
func ValidateGasOrdering(frontrun, victim, backrun *big.Int) error {
	if frontrun.Cmp(victim) <= 0 || victim.Cmp(backrun) <= 0 {
		return ErrGasOrdering
	}
	return nil
}
