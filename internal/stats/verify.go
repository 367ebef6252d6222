package stats

import (
	"context"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"libraStats/internal/dex"
	"libraStats/internal/multicall"
)

// DecimalsMismatch is a registry token whose configured decimals differ
// from the token contract.
type DecimalsMismatch struct {
	Symbol     string `json:"symbol"`
	Address    string `json:"address"`
	Configured uint8  `json:"configured"`
	OnChain    uint8  `json:"onChain"`
}

// VerifyDecimals reads decimals() of every registry token in one batch and
// reports the tokens whose configured scale is wrong.
func (e *Engine) VerifyDecimals(ctx context.Context) ([]DecimalsMismatch, error) {
	erc20ABI, err := dex.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	tokens := e.reg.Tokens()
	calls := make([]multicall.Call, 0, len(tokens))
	for _, token := range tokens {
		calls = append(calls, multicall.Call{
			Label:  "decimals:" + token.Symbol,
			Target: common.HexToAddress(token.Address),
			ABI:    erc20ABI,
			Method: "decimals",
		})
	}
	results, err := e.read(ctx, "verifyDecimals", calls)
	if err != nil {
		return nil, err
	}

	var mismatches []DecimalsMismatch
	for _, token := range tokens {
		onChain, err := results.BigInt("decimals:"+token.Symbol, 0)
		if err != nil {
			return nil, err
		}
		if !onChain.IsUint64() || onChain.Uint64() > math.MaxUint8 {
			return nil, fmt.Errorf("%s decimals out of range: %s", token.Symbol, onChain)
		}
		if onChain.Uint64() == uint64(token.Decimals) {
			continue
		}
		mismatch := DecimalsMismatch{
			Symbol:     token.Symbol,
			Address:    token.Address,
			Configured: token.Decimals,
			OnChain:    uint8(onChain.Uint64()),
		}
		e.logger.Warn("token decimals mismatch",
			zap.String("symbol", mismatch.Symbol),
			zap.Uint8("configured", mismatch.Configured),
			zap.Uint8("on_chain", mismatch.OnChain),
		)
		mismatches = append(mismatches, mismatch)
	}
	return mismatches, nil
}
