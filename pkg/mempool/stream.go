package mempool

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	mevtypes "github.com/mev-engine/sandwich-arb-engine/pkg/types"
)

// TransactionStream converts raw eth_subscribe payloads into decoded,
// filtered, validated Transactions.
type TransactionStream interface {
	ProcessTransaction(ctx context.Context, rawTx []byte) (*mevtypes.Transaction, error)
	FilterTransaction(tx *mevtypes.Transaction) bool
	ValidateTransaction(tx *mevtypes.Transaction) error
}

// TransactionStreamImpl implements TransactionStream.
type TransactionStreamImpl struct {
	minGasPrice     *big.Int
	maxGasPrice     *big.Int
	minValue        *big.Int
	contractFilters []string
	methodFilters   []string
}

// TransactionStreamConfig configures a TransactionStreamImpl.
type TransactionStreamConfig struct {
	MinGasPrice     *big.Int
	MaxGasPrice     *big.Int
	MinValue        *big.Int
	ContractFilters []string
	MethodFilters   []string
}

// NewTransactionStream creates a new transaction stream processor. The
// default method filters are the six UniV2 router swap selectors
// spec.md's sandwich screening recognizes, plus the four liquidity
// selectors used for coarse classification elsewhere in the engine.
func NewTransactionStream(config TransactionStreamConfig) TransactionStream {
	minGasPrice := config.MinGasPrice
	if minGasPrice == nil {
		minGasPrice = big.NewInt(1_000_000_000) // 1 gwei
	}

	maxGasPrice := config.MaxGasPrice
	if maxGasPrice == nil {
		maxGasPrice = big.NewInt(500_000_000_000) // 500 gwei, matches sandwich.maxVictimGasPrice
	}

	minValue := config.MinValue
	if minValue == nil {
		minValue = big.NewInt(0)
	}

	methodFilters := config.MethodFilters
	if len(methodFilters) == 0 {
		methodFilters = []string{
			"7ff36ab5", // swapExactETHForTokens
			"b6f9de95", // swapExactETHForTokensSupportingFeeOnTransferTokens
			"18cbafe5", // swapExactTokensForETH
			"791ac947", // swapExactTokensForETHSupportingFeeOnTransferTokens
			"38ed1739", // swapExactTokensForTokens
			"5c11d795", // swapExactTokensForTokensSupportingFeeOnTransferTokens
			"e8e33700", // addLiquidity
			"f305d719", // addLiquidityETH
			"baa2abde", // removeLiquidity
			"02751cec", // removeLiquidityETH
		}
	}

	return &TransactionStreamImpl{
		minGasPrice:     minGasPrice,
		maxGasPrice:     maxGasPrice,
		minValue:        minValue,
		contractFilters: config.ContractFilters,
		methodFilters:   methodFilters,
	}
}

// EthSubscriptionResponse is the JSON-RPC notification envelope an
// eth_subscribe feed wraps every pushed transaction in.
type EthSubscriptionResponse struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  struct {
		Subscription string      `json:"subscription"`
		Result       interface{} `json:"result"`
	} `json:"params"`
}

// RawTransaction is the hex-string transaction shape a full-transaction
// eth_subscribe feed (e.g. a private "pendingTransactions" subscription
// with full-object support) delivers.
type RawTransaction struct {
	Hash                 string `json:"hash"`
	From                 string `json:"from"`
	To                   string `json:"to"`
	Value                string `json:"value"`
	GasPrice             string `json:"gasPrice,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
	Gas                  string `json:"gas"`
	Nonce                string `json:"nonce"`
	Input                string `json:"input"`
	BlockNumber          string `json:"blockNumber,omitempty"`
	TransactionIndex     string `json:"transactionIndex,omitempty"`
	ChainId              string `json:"chainId,omitempty"`
}

// ProcessTransaction decodes one eth_subscription notification into a
// Transaction.
func (ts *TransactionStreamImpl) ProcessTransaction(ctx context.Context, rawTx []byte) (*mevtypes.Transaction, error) {
	var subResp EthSubscriptionResponse
	if err := json.Unmarshal(rawTx, &subResp); err != nil {
		return nil, fmt.Errorf("unmarshal subscription response: %w", err)
	}

	if subResp.Method != "eth_subscription" {
		return nil, fmt.Errorf("unexpected method: %s", subResp.Method)
	}

	resultBytes, err := json.Marshal(subResp.Params.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	var rawTxData RawTransaction
	if err := json.Unmarshal(resultBytes, &rawTxData); err != nil {
		return nil, fmt.Errorf("unmarshal transaction data: %w", err)
	}

	tx, err := ts.convertRawTransaction(rawTxData)
	if err != nil {
		return nil, fmt.Errorf("convert raw transaction: %w", err)
	}

	return tx, nil
}

func (ts *TransactionStreamImpl) convertRawTransaction(rawTx RawTransaction) (*mevtypes.Transaction, error) {
	if rawTx.Hash == "" {
		return nil, fmt.Errorf("transaction hash is empty")
	}

	if !common.IsHexAddress(rawTx.From) {
		return nil, fmt.Errorf("invalid from address: %s", rawTx.From)
	}
	fromAddr := common.HexToAddress(rawTx.From)

	var toAddr *common.Address
	if rawTx.To != "" {
		if !common.IsHexAddress(rawTx.To) {
			return nil, fmt.Errorf("invalid to address: %s", rawTx.To)
		}
		addr := common.HexToAddress(rawTx.To)
		toAddr = &addr
	}

	value, err := hexutil.DecodeBig(rawTx.Value)
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}

	// EIP-1559 transactions carry fee cap/tip cap instead of a single
	// gas price; a transaction must have at least one pricing scheme.
	var gasPrice, gasFeeCap, gasTipCap *big.Int
	if rawTx.GasPrice != "" && rawTx.GasPrice != "0x" {
		gasPrice, err = hexutil.DecodeBig(rawTx.GasPrice)
		if err != nil {
			return nil, fmt.Errorf("decode gas price: %w", err)
		}
	}
	if rawTx.MaxFeePerGas != "" && rawTx.MaxFeePerGas != "0x" {
		gasFeeCap, err = hexutil.DecodeBig(rawTx.MaxFeePerGas)
		if err != nil {
			return nil, fmt.Errorf("decode max fee per gas: %w", err)
		}
	}
	if rawTx.MaxPriorityFeePerGas != "" && rawTx.MaxPriorityFeePerGas != "0x" {
		gasTipCap, err = hexutil.DecodeBig(rawTx.MaxPriorityFeePerGas)
		if err != nil {
			return nil, fmt.Errorf("decode max priority fee per gas: %w", err)
		}
	}
	if gasPrice == nil && gasFeeCap == nil {
		return nil, fmt.Errorf("transaction has neither gasPrice nor maxFeePerGas")
	}

	gasLimit, err := hexutil.DecodeUint64(rawTx.Gas)
	if err != nil {
		return nil, fmt.Errorf("decode gas limit: %w", err)
	}

	nonce, err := hexutil.DecodeUint64(rawTx.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}

	var data []byte
	if rawTx.Input != "" && rawTx.Input != "0x" {
		data, err = hexutil.Decode(rawTx.Input)
		if err != nil {
			return nil, fmt.Errorf("decode input data: %w", err)
		}
	}

	var blockNumber *big.Int
	if rawTx.BlockNumber != "" && rawTx.BlockNumber != "0x" {
		blockNumber, err = hexutil.DecodeBig(rawTx.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("decode block number: %w", err)
		}
	}

	var txIndex uint
	if rawTx.TransactionIndex != "" && rawTx.TransactionIndex != "0x" {
		idx, err := hexutil.DecodeUint64(rawTx.TransactionIndex)
		if err != nil {
			return nil, fmt.Errorf("decode transaction index: %w", err)
		}
		txIndex = uint(idx)
	}

	var chainID *big.Int
	if rawTx.ChainId != "" && rawTx.ChainId != "0x" {
		chainID, err = hexutil.DecodeBig(rawTx.ChainId)
		if err != nil {
			return nil, fmt.Errorf("decode chain ID: %w", err)
		}
	} else {
		chainID = big.NewInt(8453) // Base mainnet default
	}

	return &mevtypes.Transaction{
		Hash:        rawTx.Hash,
		From:        fromAddr,
		To:          toAddr,
		Value:       value,
		GasPrice:    gasPrice,
		GasFeeCap:   gasFeeCap,
		GasTipCap:   gasTipCap,
		GasLimit:    gasLimit,
		Nonce:       nonce,
		Data:        data,
		Timestamp:   time.Now(),
		BlockNumber: blockNumber,
		TxIndex:     txIndex,
		ChainID:     chainID,
	}, nil
}

// FilterTransaction applies the coarse gas-price/value/contract/method
// screen ahead of strategy-specific evaluation.
func (ts *TransactionStreamImpl) FilterTransaction(tx *mevtypes.Transaction) bool {
	gasPrice := tx.EffectiveGasPrice()
	if gasPrice == nil {
		return false
	}
	if gasPrice.Cmp(ts.minGasPrice) < 0 {
		return false
	}
	if gasPrice.Cmp(ts.maxGasPrice) > 0 {
		return false
	}

	if tx.Value.Cmp(ts.minValue) < 0 {
		return false
	}

	if len(ts.contractFilters) > 0 && tx.To != nil {
		found := false
		toAddrStr := strings.ToLower(tx.To.Hex())
		for _, contractAddr := range ts.contractFilters {
			if strings.ToLower(contractAddr) == toAddrStr {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(ts.methodFilters) > 0 && len(tx.Data) >= 4 {
		methodSig := common.Bytes2Hex(tx.Data[:4])
		found := false
		for _, filter := range ts.methodFilters {
			if strings.ToLower(filter) == strings.ToLower(methodSig) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(ts.methodFilters) > 0 && len(tx.Data) == 0 {
		return false
	}

	return true
}

// ValidateTransaction performs structural sanity checks ahead of
// strategy evaluation.
func (ts *TransactionStreamImpl) ValidateTransaction(tx *mevtypes.Transaction) error {
	if tx == nil {
		return fmt.Errorf("transaction is nil")
	}

	if tx.Hash == "" {
		return fmt.Errorf("transaction hash is empty")
	}
	if !strings.HasPrefix(tx.Hash, "0x") || len(tx.Hash) != 66 {
		return fmt.Errorf("invalid transaction hash format: %s", tx.Hash)
	}

	if tx.From == (common.Address{}) {
		return fmt.Errorf("from address is zero address")
	}

	gasPrice := tx.EffectiveGasPrice()
	if gasPrice == nil || gasPrice.Sign() <= 0 {
		return fmt.Errorf("transaction has no positive gas price or fee cap")
	}

	if tx.GasLimit == 0 {
		return fmt.Errorf("gas limit must be positive")
	}
	if tx.GasLimit > 30_000_000 {
		return fmt.Errorf("gas limit too high: %d", tx.GasLimit)
	}

	if tx.Value == nil {
		return fmt.Errorf("transaction value is nil")
	}
	if tx.Value.Sign() < 0 {
		return fmt.Errorf("transaction value cannot be negative")
	}

	if tx.ChainID == nil || tx.ChainID.Sign() <= 0 {
		return fmt.Errorf("invalid chain ID")
	}

	if len(tx.Data) > 1024*1024 {
		return fmt.Errorf("transaction data too large: %d bytes", len(tx.Data))
	}

	return nil
}
