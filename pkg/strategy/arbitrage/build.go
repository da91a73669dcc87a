package arbitrage

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mev-engine/sandwich-arb-engine/pkg/opportunity"
)

// ErrUnprofitable signals a sized candidate did not clear the
// acceptance bar and should simply be skipped.
var ErrUnprofitable = errors.New("arbitrage: sized candidate below acceptance floor")

// Build sizes a candidate and, if it clears acceptance, produces a
// fully-formed Opportunity.
func Build(id string, c Candidate, gasCost *uint256.Int, priority uint8, expiryBlock uint64) (*opportunity.Opportunity, error) {
	sized := OptimalSize(c)
	if !Accept(sized, gasCost) {
		return nil, ErrUnprofitable
	}

	details := opportunity.ArbitrageDetails{
		Path:        c.Path,
		Pools:       poolAddresses(c),
		InputAmount: sized.InputAmount,
		GrossProfit: sized.GrossProfit,
	}

	return opportunity.NewArbitrage(id, details, sized.GrossProfit, gasCost, priority, expiryBlock)
}

func poolAddresses(c Candidate) []common.Address {
	addrs := make([]common.Address, len(c.Pools))
	for i, p := range c.Pools {
		addrs[i] = p.Address
	}
	return addrs
}
