package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Multicall (v1) aggregate: reverts if any inner call fails.
const multicallABIJSON = `[
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "target", "type": "address"},
          {"internalType": "bytes", "name": "callData", "type": "bytes"}
        ],
        "internalType": "struct Multicall.Call[]",
        "name": "calls",
        "type": "tuple[]"
      }
    ],
    "name": "aggregate",
    "outputs": [
      {"internalType": "uint256", "name": "blockNumber", "type": "uint256"},
      {"internalType": "bytes[]", "name": "returnData", "type": "bytes[]"}
    ],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

var (
	multicallABI     abi.ABI
	multicallABIOnce sync.Once
	multicallABIErr  error
)

// MulticallABI returns the parsed Multicall ABI.
func MulticallABI() (abi.ABI, error) {
	multicallABIOnce.Do(func() {
		multicallABI, multicallABIErr = abi.JSON(strings.NewReader(multicallABIJSON))
	})
	return multicallABI, multicallABIErr
}
