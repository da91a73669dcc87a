// Package chain defines the minimal "dry-run call" capability that the
// pool provider (C2) and simulator (C6) are built against, so both can be
// backed by a live JSON-RPC endpoint or a test double without depending on
// a concrete transport.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Caller is the eth_call/eth_estimateGas surface the chain RPC exposes.
// go-ethereum's *ethclient.Client satisfies this directly.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
}

// BlockNumberReader exposes the current chain head height, used to compute
// expiry_block and target_block for opportunities and bundles.
type BlockNumberReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// FeeReader exposes the current base fee, used for gas pricing.
type FeeReader interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// BalanceReader exposes an account's native-currency balance query
// (eth_getBalance). The simulator does not call it.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Client bundles the read surfaces a component actually needs, matching
// what *ethclient.Client already implements.
type Client interface {
	Caller
	BlockNumberReader
	FeeReader
	BalanceReader
}

// NoRecipient reports whether a call target is absent (contract creation).
func NoRecipient(to *common.Address) bool {
	return to == nil
}
