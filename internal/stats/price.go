package stats

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"libraStats/internal/dex"
	"libraStats/internal/fixed"
	"libraStats/internal/model"
	"libraStats/internal/multicall"
)

// Reserves is the state of an AMM pair as read from chain.
type Reserves struct {
	Token0   common.Address
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// sides returns the reserve on subject's side of the pair and the opposite one.
func (r Reserves) sides(subject common.Address) (own, opposite decimal.Decimal) {
	if subject == r.Token0 {
		return fixed.FromBig(r.Reserve0), fixed.FromBig(r.Reserve1)
	}
	return fixed.FromBig(r.Reserve1), fixed.FromBig(r.Reserve0)
}

// derivedPrice prices subject from the known USD price of its pair
// counterpart as known*opposite/own, with a single rounding step. It is zero
// when the subject's reserve is empty.
func derivedPrice(known decimal.Decimal, subject common.Address, r Reserves) decimal.Decimal {
	own, opposite := r.sides(subject)
	return fixed.SafeDiv(known.Mul(opposite), own)
}

// DerivePairPrice prices subject in USD from the pair reserves and the
// counter asset's oracle quote (oracleRaw / 10^oracleDecimals).
func DerivePairPrice(subject common.Address, r Reserves, oracleRaw *big.Int, oracleDecimals uint8) model.PairPrice {
	own, opposite := r.sides(subject)
	if own.IsZero() {
		return model.PairPrice{Price: decimal.Zero, Ratio: decimal.Zero}
	}
	price := fixed.Div(
		fixed.FromBig(oracleRaw).Mul(opposite),
		own.Mul(fixed.Pow10(int(oracleDecimals))),
	)
	return model.PairPrice{Price: price, Ratio: fixed.Div(opposite, own)}
}

// ResolvePairPrice reads the oracle and pair in one batch and prices subject.
func (e *Engine) ResolvePairPrice(ctx context.Context, subject, pair, oracle common.Address) (model.PairPrice, error) {
	calls, err := pairPriceCalls("", pair, oracle)
	if err != nil {
		return model.PairPrice{}, err
	}
	results, err := e.read(ctx, "pairPrice", calls)
	if err != nil {
		return model.PairPrice{}, err
	}
	return pairPriceFrom(results, "", subject)
}

// governancePriceCalls builds the reads pricing the governance token against
// its helper pair and the counter asset's oracle.
func (e *Engine) governancePriceCalls(prefix string) ([]multicall.Call, common.Address, error) {
	sym := e.reg.Symbols()
	token, err := e.reg.Token(sym.Governance)
	if err != nil {
		return nil, common.Address{}, err
	}
	helper, err := e.reg.PriceHelper(sym.Governance)
	if err != nil {
		return nil, common.Address{}, err
	}
	oracle, err := e.reg.Oracle(helper.Another)
	if err != nil {
		return nil, common.Address{}, err
	}
	calls, err := pairPriceCalls(prefix, common.HexToAddress(helper.Pair), common.HexToAddress(oracle.Address))
	if err != nil {
		return nil, common.Address{}, err
	}
	return calls, common.HexToAddress(token.Address), nil
}

func pairPriceCalls(prefix string, pair, oracle common.Address) ([]multicall.Call, error) {
	oracleCall, err := latestPriceCall(prefix+"latestPrice", oracle)
	if err != nil {
		return nil, err
	}
	calls, err := pairCalls(prefix, pair)
	if err != nil {
		return nil, err
	}
	return append([]multicall.Call{oracleCall}, calls...), nil
}

func pairPriceFrom(results multicall.Results, prefix string, subject common.Address) (model.PairPrice, error) {
	raw, decimals, err := oracleQuote(results, prefix+"latestPrice")
	if err != nil {
		return model.PairPrice{}, err
	}
	reserves, err := reservesFrom(results, prefix)
	if err != nil {
		return model.PairPrice{}, err
	}
	return DerivePairPrice(subject, reserves, raw, decimals), nil
}

func pairCalls(prefix string, pair common.Address) ([]multicall.Call, error) {
	pairABI, err := dex.PairABI()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	return []multicall.Call{
		{Label: prefix + "token0", Target: pair, ABI: pairABI, Method: "token0"},
		{Label: prefix + "getReserves", Target: pair, ABI: pairABI, Method: "getReserves"},
	}, nil
}

func reservesFrom(results multicall.Results, prefix string) (Reserves, error) {
	token0, err := results.Address(prefix + "token0")
	if err != nil {
		return Reserves{}, err
	}
	reserve0, err := results.BigInt(prefix+"getReserves", 0)
	if err != nil {
		return Reserves{}, err
	}
	reserve1, err := results.BigInt(prefix+"getReserves", 1)
	if err != nil {
		return Reserves{}, err
	}
	return Reserves{Token0: token0, Reserve0: reserve0, Reserve1: reserve1}, nil
}

func latestPriceCall(label string, oracle common.Address) (multicall.Call, error) {
	oracleABI, err := dex.OracleABI()
	if err != nil {
		return multicall.Call{}, fmt.Errorf("parse oracle abi: %w", err)
	}
	return multicall.Call{Label: label, Target: oracle, ABI: oracleABI, Method: "getLatestPrice"}, nil
}

func oracleQuote(results multicall.Results, label string) (*big.Int, uint8, error) {
	raw, err := results.BigInt(label, 0)
	if err != nil {
		return nil, 0, err
	}
	decimals, err := results.BigInt(label, 1)
	if err != nil {
		return nil, 0, err
	}
	if !decimals.IsUint64() || decimals.Uint64() > 255 {
		return nil, 0, fmt.Errorf("%s: oracle decimals out of range: %s", label, decimals)
	}
	return raw, uint8(decimals.Uint64()), nil
}

// oraclePrice is the oracle quote in USD.
func oraclePrice(results multicall.Results, label string) (decimal.Decimal, error) {
	raw, decimals, err := oracleQuote(results, label)
	if err != nil {
		return decimal.Zero, err
	}
	return fixed.Scale(fixed.FromBig(raw), decimals), nil
}
