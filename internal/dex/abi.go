package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const pairABIJSON = `[
  {
    "inputs": [],
    "name": "token0",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getReserves",
    "outputs": [
      {"internalType": "uint112", "name": "_reserve0", "type": "uint112"},
      {"internalType": "uint112", "name": "_reserve1", "type": "uint112"},
      {"internalType": "uint32", "name": "_blockTimestampLast", "type": "uint32"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const oracleABIJSON = `[
  {
    "inputs": [],
    "name": "getLatestPrice",
    "outputs": [
      {"internalType": "uint256", "name": "", "type": "uint256"},
      {"internalType": "uint8", "name": "", "type": "uint8"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const swapABIJSON = `[
  {
    "inputs": [{"internalType": "uint8", "name": "index", "type": "uint8"}],
    "name": "getTokenBalance",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	pairABI     abi.ABI
	pairABIOnce sync.Once
	pairABIErr  error

	oracleABI     abi.ABI
	oracleABIOnce sync.Once
	oracleABIErr  error

	swapABI     abi.ABI
	swapABIOnce sync.Once
	swapABIErr  error
)

// PairABI returns the parsed AMM pair ABI (token0, getReserves).
func PairABI() (abi.ABI, error) {
	pairABIOnce.Do(func() {
		pairABI, pairABIErr = abi.JSON(strings.NewReader(pairABIJSON))
	})
	return pairABI, pairABIErr
}

// OracleABI returns the parsed price feed ABI. getLatestPrice reports
// (value, decimals) meaning value / 10^decimals USD.
func OracleABI() (abi.ABI, error) {
	oracleABIOnce.Do(func() {
		oracleABI, oracleABIErr = abi.JSON(strings.NewReader(oracleABIJSON))
	})
	return oracleABI, oracleABIErr
}

// SwapABI returns the parsed stable swap pool ABI.
func SwapABI() (abi.ABI, error) {
	swapABIOnce.Do(func() {
		swapABI, swapABIErr = abi.JSON(strings.NewReader(swapABIJSON))
	})
	return swapABI, swapABIErr
}
