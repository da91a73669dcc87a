// Package bundle builds the ordered, signed transaction sequence (C7)
// submitted to the relay: three entries for a sandwich, one for an
// arbitrage.
package bundle

import (
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mev-engine/sandwich-arb-engine/pkg/opportunity"
	"github.com/mev-engine/sandwich-arb-engine/pkg/signer"
)

var (
	ErrWrongKind   = errors.New("bundle: opportunity kind does not match builder")
	ErrNoRawVictim = errors.New("bundle: victim transaction has no raw encoding to re-use")
)

// Entry binds one signed transaction to whether the bundle may still
// land if it reverts.
type Entry struct {
	SignedTxHex string
	CanRevert   bool
}

// Bundle is the ordered sequence submitted to the relay.
type Bundle struct {
	Entries           []Entry
	TargetBlockNumber uint64
	MinTimestamp      *uint64
	MaxTimestamp      *uint64
}

// GasPriceBumpWei is the default frontrun/backrun offset from the
// victim's gas price (spec.md §4.4).
var GasPriceBumpWei = big.NewInt(2_000_000_000)

// BuildSandwichParams carries everything the builder needs beyond what
// is already on the opportunity: the chain ID for signing, and the
// current block height (target_block = current+1).
type BuildSandwichParams struct {
	ChainID       uint64
	CurrentBlock  uint64
	FrontrunGas   *big.Int
	BackrunGas    *big.Int
	FrontrunLimit uint64
	BackrunLimit  uint64
	FrontrunData  []byte
	BackrunData   []byte
	RouterAddress common.Address
}

// BuildSandwichBundle produces the three-entry bundle: frontrun
// (can_revert=false), victim (can_revert=true, re-encoded from the
// observed raw transaction), backrun (can_revert=false). The attacker's
// two legs share s's address and are signed with serialized nonce
// allocation.
func BuildSandwichBundle(opp *opportunity.Opportunity, s *signer.Signer, params BuildSandwichParams) (*Bundle, error) {
	if opp.Kind != opportunity.KindSandwich {
		return nil, ErrWrongKind
	}
	if len(opp.Sandwich.Victim.Raw) == 0 {
		return nil, ErrNoRawVictim
	}

	frontrunTx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(params.ChainID),
		Nonce:     s.AllocateNonce(),
		GasTipCap: params.FrontrunGas,
		GasFeeCap: params.FrontrunGas,
		Gas:       params.FrontrunLimit,
		To:        &params.RouterAddress,
		Data:      params.FrontrunData,
	})
	signedFrontrun, err := s.SignTransaction(frontrunTx, params.ChainID)
	if err != nil {
		return nil, err
	}

	backrunTx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(params.ChainID),
		Nonce:     s.AllocateNonce(),
		GasTipCap: params.BackrunGas,
		GasFeeCap: params.BackrunGas,
		Gas:       params.BackrunLimit,
		To:        &params.RouterAddress,
		Data:      params.BackrunData,
	})
	signedBackrun, err := s.SignTransaction(backrunTx, params.ChainID)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Entries: []Entry{
			{SignedTxHex: encodeRawTx(signedFrontrun), CanRevert: false},
			{SignedTxHex: "0x" + hex.EncodeToString(opp.Sandwich.Victim.Raw), CanRevert: true},
			{SignedTxHex: encodeRawTx(signedBackrun), CanRevert: false},
		},
		TargetBlockNumber: params.CurrentBlock + 1,
	}, nil
}

// BuildArbitrageParams carries what's needed to build the single
// arbitrage transaction.
type BuildArbitrageParams struct {
	ChainID      uint64
	CurrentBlock uint64
	BaseFee      *big.Int
	GasEstimate  uint64
	To           common.Address
	Data         []byte
}

// GasPriceForArbitrage returns 80% of the arbitrage's gross profit per
// unit of gas (gross_profit / gas_estimate * 0.8), floored at
// base_fee + 2 gwei: whichever of the two is larger.
func GasPriceForArbitrage(opp *opportunity.Opportunity, baseFee *big.Int, gasEstimate uint64) *big.Int {
	floor := new(big.Int).Add(baseFee, GasPriceBumpWei)
	if gasEstimate == 0 {
		return floor
	}

	profitPerGas := new(big.Int).Div(opp.Arbitrage.GrossProfit.ToBig(), new(big.Int).SetUint64(gasEstimate))
	eightyPercent := new(big.Int).Div(new(big.Int).Mul(profitPerGas, big.NewInt(80)), big.NewInt(100))

	if eightyPercent.Cmp(floor) < 0 {
		return floor
	}
	return eightyPercent
}

// BuildArbitrageBundle produces the single-entry bundle for an
// arbitrage opportunity.
func BuildArbitrageBundle(opp *opportunity.Opportunity, s *signer.Signer, params BuildArbitrageParams) (*Bundle, error) {
	if opp.Kind != opportunity.KindArbitrage {
		return nil, ErrWrongKind
	}

	gasPrice := GasPriceForArbitrage(opp, params.BaseFee, params.GasEstimate)

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(params.ChainID),
		Nonce:     s.AllocateNonce(),
		GasTipCap: gasPrice,
		GasFeeCap: gasPrice,
		Gas:       params.GasEstimate,
		To:        &params.To,
		Data:      params.Data,
	})
	signed, err := s.SignTransaction(tx, params.ChainID)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Entries:           []Entry{{SignedTxHex: encodeRawTx(signed), CanRevert: false}},
		TargetBlockNumber: params.CurrentBlock + 1,
	}, nil
}

func encodeRawTx(tx *types.Transaction) string {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return ""
	}
	return "0x" + hex.EncodeToString(raw)
}
