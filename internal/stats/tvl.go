package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"libraStats/internal/dex"
	"libraStats/internal/fixed"
	"libraStats/internal/model"
	"libraStats/internal/multicall"
	"libraStats/internal/telemetry"
)

const (
	labelGasPrice      = "gasTokenPrice"
	labelMetaBalance   = "metaBalance"
	labelLockedBalance = "lockedBalance"
	prefixGovernance   = "governancePair."
	prefixMeta         = "metaPair."
)

func balanceLabel(i int) string { return fmt.Sprintf("balance:%d", i) }
func priceLabel(i int) string   { return fmt.Sprintf("price:%d", i) }

// tvlPlan is everything computeTVL resolves from the registry before reading.
type tvlPlan struct {
	baseTokens     []model.Token
	referenceIndex int
	metaToken      model.Token
	metaStable     common.Address
	governance     common.Address
	calls          []multicall.Call
}

func (e *Engine) planTVL() (tvlPlan, error) {
	sym := e.reg.Symbols()
	base, err := e.reg.BasePool()
	if err != nil {
		return tvlPlan{}, err
	}
	meta, err := e.reg.MetaPool()
	if err != nil {
		return tvlPlan{}, err
	}
	farm, err := e.reg.Farm()
	if err != nil {
		return tvlPlan{}, err
	}
	governance, err := e.reg.Token(sym.Governance)
	if err != nil {
		return tvlPlan{}, err
	}
	metaToken, err := e.reg.Token(sym.MetaStable)
	if err != nil {
		return tvlPlan{}, err
	}
	governanceHelper, err := e.reg.PriceHelper(sym.Governance)
	if err != nil {
		return tvlPlan{}, err
	}
	metaHelper, err := e.reg.PriceHelper(sym.MetaStable)
	if err != nil {
		return tvlPlan{}, err
	}
	gasOracle, err := e.reg.Oracle(sym.GasToken)
	if err != nil {
		return tvlPlan{}, err
	}

	swapABI, err := dex.SwapABI()
	if err != nil {
		return tvlPlan{}, fmt.Errorf("parse swap abi: %w", err)
	}
	erc20ABI, err := dex.ERC20ABI()
	if err != nil {
		return tvlPlan{}, fmt.Errorf("parse erc20 abi: %w", err)
	}

	plan := tvlPlan{
		referenceIndex: -1,
		metaToken:      metaToken,
		metaStable:     common.HexToAddress(metaToken.Address),
		governance:     common.HexToAddress(governance.Address),
	}
	basePool := common.HexToAddress(base.Address)
	for i, symbol := range base.Tokens {
		token, err := e.reg.Token(symbol)
		if err != nil {
			return tvlPlan{}, err
		}
		oracle, err := e.reg.Oracle(symbol)
		if err != nil {
			return tvlPlan{}, err
		}
		priceCall, err := latestPriceCall(priceLabel(i), common.HexToAddress(oracle.Address))
		if err != nil {
			return tvlPlan{}, err
		}
		plan.calls = append(plan.calls,
			multicall.Call{Label: balanceLabel(i), Target: basePool, ABI: swapABI, Method: "getTokenBalance", Args: []interface{}{uint8(i)}},
			priceCall,
		)
		plan.baseTokens = append(plan.baseTokens, token)
		if plan.referenceIndex < 0 && strings.EqualFold(symbol, sym.ReferenceStable) {
			plan.referenceIndex = i
		}
	}
	if plan.referenceIndex < 0 {
		return tvlPlan{}, fmt.Errorf("reference stable %s not in base pool", sym.ReferenceStable)
	}

	gasCall, err := latestPriceCall(labelGasPrice, common.HexToAddress(gasOracle.Address))
	if err != nil {
		return tvlPlan{}, err
	}
	plan.calls = append(plan.calls,
		gasCall,
		multicall.Call{Label: labelMetaBalance, Target: common.HexToAddress(meta.Address), ABI: swapABI, Method: "getTokenBalance", Args: []interface{}{uint8(0)}},
		multicall.Call{Label: labelLockedBalance, Target: plan.governance, ABI: erc20ABI, Method: "balanceOf", Args: []interface{}{common.HexToAddress(farm.MasterChefAddress)}},
	)
	for _, pc := range []struct {
		prefix string
		pair   string
	}{
		{prefixGovernance, governanceHelper.Pair},
		{prefixMeta, metaHelper.Pair},
	} {
		calls, err := pairCalls(pc.prefix, common.HexToAddress(pc.pair))
		if err != nil {
			return tvlPlan{}, err
		}
		plan.calls = append(plan.calls, calls...)
	}
	return plan, nil
}

func (e *Engine) computeTVL(ctx context.Context) (model.TVL, error) {
	plan, err := e.planTVL()
	if err != nil {
		return model.TVL{}, err
	}
	results, err := e.read(ctx, string(model.KindTVL), plan.calls)
	if err != nil {
		return model.TVL{}, err
	}

	basePrices := make([]decimal.Decimal, len(plan.baseTokens))
	baseTVL := decimal.Zero
	for i, token := range plan.baseTokens {
		balance, err := results.BigInt(balanceLabel(i), 0)
		if err != nil {
			return model.TVL{}, err
		}
		price, err := oraclePrice(results, priceLabel(i))
		if err != nil {
			return model.TVL{}, err
		}
		basePrices[i] = price
		baseTVL = baseTVL.Add(fixed.Div(fixed.FromBig(balance).Mul(price), fixed.Pow10(int(token.Decimals))))
	}

	gasPrice, err := oraclePrice(results, labelGasPrice)
	if err != nil {
		return model.TVL{}, err
	}
	metaReserves, err := reservesFrom(results, prefixMeta)
	if err != nil {
		return model.TVL{}, err
	}
	governanceReserves, err := reservesFrom(results, prefixGovernance)
	if err != nil {
		return model.TVL{}, err
	}
	metaBalance, err := results.BigInt(labelMetaBalance, 0)
	if err != nil {
		return model.TVL{}, err
	}
	lockedBalance, err := results.BigInt(labelLockedBalance, 0)
	if err != nil {
		return model.TVL{}, err
	}

	metaScale := fixed.Pow10(int(plan.metaToken.Decimals))
	metaPrice := derivedPrice(basePrices[plan.referenceIndex], plan.metaStable, metaReserves)
	metaTVL := fixed.Div(metaPrice.Mul(fixed.FromBig(metaBalance)), metaScale)
	// Locked governance tokens are scaled by the meta token's decimals.
	governancePrice := derivedPrice(gasPrice, plan.governance, governanceReserves)
	lockedTVL := fixed.Div(governancePrice.Mul(fixed.FromBig(lockedBalance)), metaScale)

	tvl := model.TVL{
		Total:          baseTVL.Add(metaTVL).Add(lockedTVL),
		BasePoolTVL:    baseTVL,
		MetaPoolTVL:    metaTVL,
		LockedValueTVL: lockedTVL,
	}
	publishTVL(tvl)
	e.logger.Debug("tvl computed",
		zap.String("chain", e.reg.ChainID()),
		zap.String("total", tvl.Total.String()),
		zap.Strings("basePrices", lo.Map(basePrices, func(d decimal.Decimal, _ int) string { return d.String() })),
	)
	return tvl, nil
}

func publishTVL(tvl model.TVL) {
	telemetry.PublishedUSD.WithLabelValues("tvl_total").Set(tvl.Total.InexactFloat64())
	telemetry.PublishedUSD.WithLabelValues("tvl_base").Set(tvl.BasePoolTVL.InexactFloat64())
	telemetry.PublishedUSD.WithLabelValues("tvl_meta").Set(tvl.MetaPoolTVL.InexactFloat64())
	telemetry.PublishedUSD.WithLabelValues("tvl_locked").Set(tvl.LockedValueTVL.InexactFloat64())
}
