// Package types holds the pending-transaction data model observed from
// the mempool, shared by every downstream component.
package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Transaction is an observed, unconfirmed transaction, keyed by its
// 32-byte hash. A nil To means contract creation — such transactions are
// excluded from every strategy's consideration (spec.md §3).
type Transaction struct {
	Hash        string          `json:"hash"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to"`
	Value       *big.Int        `json:"value"`
	GasPrice    *big.Int        `json:"gasPrice,omitempty"` // legacy pricing
	GasFeeCap   *big.Int        `json:"maxFeePerGas,omitempty"`
	GasTipCap   *big.Int        `json:"maxPriorityFeePerGas,omitempty"`
	GasLimit    uint64          `json:"gasLimit"`
	Nonce       uint64          `json:"nonce"`
	Data        []byte          `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
	BlockNumber *big.Int        `json:"blockNumber,omitempty"`
	TxIndex     uint            `json:"transactionIndex,omitempty"`
	ChainID     *big.Int        `json:"chainId"`
	// Raw is the originally observed signed transaction's RLP encoding,
	// as gossiped over the pending-tx feed. It is re-used verbatim as the
	// victim entry of a sandwich bundle.
	Raw []byte `json:"-"`
}

// TransactionType classifies a transaction by what its calldata does.
type TransactionType string

const (
	TxTypeTransfer  TransactionType = "transfer"
	TxTypeSwap      TransactionType = "swap"
	TxTypeLiquidity TransactionType = "liquidity"
	TxTypeContract  TransactionType = "contract"
)

// known UniV2 router selectors; see pkg/strategy/sandwich for the full
// ABI-based decode of the six swap variants this only classifies.
var swapSelectors = map[string]struct{}{
	"7ff36ab5": {}, // swapExactETHForTokens
	"b6f9de95": {}, // swapExactETHForTokensSupportingFeeOnTransferTokens
	"18cbafe5": {}, // swapExactTokensForETH
	"791ac947": {}, // swapExactTokensForETHSupportingFeeOnTransferTokens
	"38ed1739": {}, // swapExactTokensForTokens
	"5c11d795": {}, // swapExactTokensForTokensSupportingFeeOnTransferTokens
}

var liquiditySelectors = map[string]struct{}{
	"e8e33700": {}, // addLiquidity
	"f305d719": {}, // addLiquidityETH
	"baa2abde": {}, // removeLiquidity
	"02751cec": {}, // removeLiquidityETH
}

// GetTransactionType classifies the transaction from its calldata's
// 4-byte selector.
func (t *Transaction) GetTransactionType() TransactionType {
	if len(t.Data) == 0 {
		return TxTypeTransfer
	}
	if len(t.Data) < 4 {
		return TxTypeContract
	}

	selector := common.Bytes2Hex(t.Data[:4])
	if _, ok := swapSelectors[selector]; ok {
		return TxTypeSwap
	}
	if _, ok := liquiditySelectors[selector]; ok {
		return TxTypeLiquidity
	}
	return TxTypeContract
}

// EffectiveGasPrice returns the legacy gas price if set, otherwise the
// EIP-1559 fee cap, falling back to nil if neither is present.
func (t *Transaction) EffectiveGasPrice() *big.Int {
	if t.GasPrice != nil {
		return t.GasPrice
	}
	return t.GasFeeCap
}

// IsHighValue reports whether the transaction's value meets or exceeds
// threshold.
func (t *Transaction) IsHighValue(threshold *big.Int) bool {
	return t.Value.Cmp(threshold) >= 0
}

// GetPriority is a coarse priority score: gasPrice * gasLimit.
func (t *Transaction) GetPriority() *big.Int {
	price := t.EffectiveGasPrice()
	if price == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(price, big.NewInt(int64(t.GasLimit)))
}
