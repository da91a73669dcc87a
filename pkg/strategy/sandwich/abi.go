// Package sandwich implements the sandwich optimizer (C4): victim
// screening, router calldata decoding, and the optimal frontrun-size
// search.
package sandwich

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// uniswapV2RouterABI covers the six swap selectors spec.md's victim
// screening must recognize: the three standard variants and their
// fee-on-transfer counterparts.
const uniswapV2RouterABI = `[
	{
		"inputs": [
			{"name": "amountOutMin", "type": "uint256"},
			{"name": "path", "type": "address[]"},
			{"name": "to", "type": "address"},
			{"name": "deadline", "type": "uint256"}
		],
		"name": "swapExactETHForTokens",
		"outputs": [{"name": "amounts", "type": "uint256[]"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "amountOutMin", "type": "uint256"},
			{"name": "path", "type": "address[]"},
			{"name": "to", "type": "address"},
			{"name": "deadline", "type": "uint256"}
		],
		"name": "swapExactETHForTokensSupportingFeeOnTransferTokens",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "amountIn", "type": "uint256"},
			{"name": "amountOutMin", "type": "uint256"},
			{"name": "path", "type": "address[]"},
			{"name": "to", "type": "address"},
			{"name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForETH",
		"outputs": [{"name": "amounts", "type": "uint256[]"}],
		"type": "function"
	},
	{
		"inputs": [
			{"name": "amountIn", "type": "uint256"},
			{"name": "amountOutMin", "type": "uint256"},
			{"name": "path", "type": "address[]"},
			{"name": "to", "type": "address"},
			{"name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForETHSupportingFeeOnTransferTokens",
		"outputs": [],
		"type": "function"
	},
	{
		"inputs": [
			{"name": "amountIn", "type": "uint256"},
			{"name": "amountOutMin", "type": "uint256"},
			{"name": "path", "type": "address[]"},
			{"name": "to", "type": "address"},
			{"name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForTokens",
		"outputs": [{"name": "amounts", "type": "uint256[]"}],
		"type": "function"
	},
	{
		"inputs": [
			{"name": "amountIn", "type": "uint256"},
			{"name": "amountOutMin", "type": "uint256"},
			{"name": "path", "type": "address[]"},
			{"name": "to", "type": "address"},
			{"name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForTokensSupportingFeeOnTransferTokens",
		"outputs": [],
		"type": "function"
	}
]`

var routerABI = mustParseABI(uniswapV2RouterABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("sandwich: invalid embedded router ABI: %v", err))
	}
	return parsed
}

// DecodedSwap is the subset of a router swap call's parameters the
// optimizer needs.
type DecodedSwap struct {
	Method       string
	AmountIn     *big.Int // zero for the ETH-in variants; caller falls back to tx.Value
	AmountOutMin *big.Int
	Path         []common.Address
	FeeOnTransfer bool
}

// DecodeSwap matches calldata against the six known swap selectors and
// unpacks its path/amount arguments. ok is false when the selector is
// not one of the router's swap methods.
func DecodeSwap(data []byte) (decoded DecodedSwap, ok bool) {
	if len(data) < 4 {
		return DecodedSwap{}, false
	}
	method, err := routerABI.MethodById(data[:4])
	if err != nil {
		return DecodedSwap{}, false
	}

	args := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(args, data[4:]); err != nil {
		return DecodedSwap{}, false
	}

	path, _ := args["path"].([]common.Address)
	amountOutMin, _ := args["amountOutMin"].(*big.Int)
	amountIn, _ := args["amountIn"].(*big.Int)
	if amountIn == nil {
		amountIn = big.NewInt(0)
	}
	if amountOutMin == nil {
		amountOutMin = big.NewInt(0)
	}

	return DecodedSwap{
		Method:        method.Name,
		AmountIn:      amountIn,
		AmountOutMin:  amountOutMin,
		Path:          path,
		FeeOnTransfer: strings.Contains(method.Name, "SupportingFeeOnTransferTokens"),
	}, true
}

// EncodeSwapExactTokensForTokens packs a swapExactTokensForTokens call
// for the attacker's frontrun/backrun legs: amountIn exact, amountOutMin
// zero (the attacker accepts any output since it already solved for the
// profitable size), along path, to the attacker's own address, with a
// deadline far enough out that block inclusion timing can't expire it.
func EncodeSwapExactTokensForTokens(amountIn *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return routerABI.Pack("swapExactTokensForTokens", amountIn, big.NewInt(0), path, to, deadline)
}
