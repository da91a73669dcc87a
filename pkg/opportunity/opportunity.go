// Package opportunity defines the tagged-union opportunity record (C3):
// pure data describing a detected sandwich or arbitrage candidate, plus
// the invariants that must hold before one is allowed to exist.
package opportunity

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mev-engine/sandwich-arb-engine/pkg/ammmath"
	"github.com/mev-engine/sandwich-arb-engine/pkg/types"
)

// Kind distinguishes the two opportunity variants.
type Kind string

const (
	KindSandwich  Kind = "sandwich"
	KindArbitrage Kind = "arbitrage"
)

var (
	ErrInvalidPriority     = errors.New("opportunity: priority must be in [0, 10]")
	ErrNegativeProfit      = errors.New("opportunity: estimated_profit must be >= 0")
	ErrNegativeGasCost     = errors.New("opportunity: gas_cost must be >= 0")
	ErrMissingID           = errors.New("opportunity: id must not be empty")
	ErrZeroVictimAmount    = errors.New("opportunity: victim_amount_in must be > 0")
	ErrPriceImpactRange    = errors.New("opportunity: price_impact must be in [0, 1]")
	ErrPathPoolMismatch    = errors.New("opportunity: path length must equal pools length + 1")
	ErrPathNotCyclic       = errors.New("opportunity: path must start and end on the same token")
	ErrPoolCountOutOfRange = errors.New("opportunity: pools length must be in [2, 5]")
)

// SandwichDetails is the sandwich-specific payload.
type SandwichDetails struct {
	Victim          *types.Transaction
	Pool            common.Address
	TokenIn         common.Address
	TokenOut        common.Address
	FrontrunAmount  *uint256.Int
	BackrunAmount   *uint256.Int
	VictimAmountIn  *uint256.Int
	VictimAmountMin *uint256.Int
	PriceImpact     float64
}

// ArbitrageDetails is the arbitrage-specific payload.
type ArbitrageDetails struct {
	Path        []common.Address
	Pools       []common.Address
	InputAmount *uint256.Int
	GrossProfit *uint256.Int
}

// Opportunity is the tagged-union record produced by the strategy
// search layer and consumed by the simulator and bundle builder.
type Opportunity struct {
	ID              string
	Kind            Kind
	Sandwich        *SandwichDetails
	Arbitrage       *ArbitrageDetails
	EstimatedProfit *uint256.Int
	GasCost         *uint256.Int
	Priority        uint8
	ExpiryBlock     uint64
	CreatedAt       time.Time
}

func checkCommon(id string, estimatedProfit, gasCost *uint256.Int, priority uint8) error {
	if id == "" {
		return ErrMissingID
	}
	if estimatedProfit == nil {
		return fmt.Errorf("%w: nil value", ErrNegativeProfit)
	}
	if gasCost == nil {
		return fmt.Errorf("%w: nil value", ErrNegativeGasCost)
	}
	if priority > 10 {
		return ErrInvalidPriority
	}
	return nil
}

// NewSandwich constructs a Sandwich opportunity, enforcing
// victim_amount_in > 0 and 0 <= price_impact <= 1, plus the universal
// invariants shared with every opportunity kind.
func NewSandwich(id string, details SandwichDetails, estimatedProfit, gasCost *uint256.Int, priority uint8, expiryBlock uint64) (*Opportunity, error) {
	if err := checkCommon(id, estimatedProfit, gasCost, priority); err != nil {
		return nil, err
	}
	if details.VictimAmountIn == nil || details.VictimAmountIn.IsZero() {
		return nil, ErrZeroVictimAmount
	}
	if details.PriceImpact < 0 || details.PriceImpact > 1 {
		return nil, ErrPriceImpactRange
	}
	return &Opportunity{
		ID:              id,
		Kind:            KindSandwich,
		Sandwich:        &details,
		EstimatedProfit: estimatedProfit,
		GasCost:         gasCost,
		Priority:        priority,
		ExpiryBlock:     expiryBlock,
		CreatedAt:       time.Now(),
	}, nil
}

// NewArbitrage constructs an Arbitrage opportunity, enforcing
// path.len() == pools.len()+1, path[0] == path[last], and
// pools.len() in [2, 5].
func NewArbitrage(id string, details ArbitrageDetails, estimatedProfit, gasCost *uint256.Int, priority uint8, expiryBlock uint64) (*Opportunity, error) {
	if err := checkCommon(id, estimatedProfit, gasCost, priority); err != nil {
		return nil, err
	}
	if len(details.Path) != len(details.Pools)+1 {
		return nil, fmt.Errorf("%w: path=%d pools=%d", ErrPathPoolMismatch, len(details.Path), len(details.Pools))
	}
	if details.Path[0] != details.Path[len(details.Path)-1] {
		return nil, ErrPathNotCyclic
	}
	if len(details.Pools) < 2 || len(details.Pools) > 5 {
		return nil, fmt.Errorf("%w: got %d", ErrPoolCountOutOfRange, len(details.Pools))
	}
	return &Opportunity{
		ID:              id,
		Kind:            KindArbitrage,
		Arbitrage:       &details,
		EstimatedProfit: estimatedProfit,
		GasCost:         gasCost,
		Priority:        priority,
		ExpiryBlock:     expiryBlock,
		CreatedAt:       time.Now(),
	}, nil
}

// NetProfit returns estimated_profit - gas_cost via saturating
// subtraction (zero, not negative, if gas_cost exceeds profit).
func (o *Opportunity) NetProfit() *uint256.Int {
	return ammmath.SaturatingSub(o.EstimatedProfit, o.GasCost)
}

// NetProfitBig is a convenience conversion of NetProfit to *big.Int for
// reporting and JSON payloads.
func (o *Opportunity) NetProfitBig() *big.Int {
	return o.NetProfit().ToBig()
}
