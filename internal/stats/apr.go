package stats

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"libraStats/internal/fixed"
	"libraStats/internal/model"
	"libraStats/internal/subgraph"
	"libraStats/internal/telemetry"
)

const secondsPerDay = 86400

var (
	feeDenominator = decimal.New(1, 10)
	aprDenominator = decimal.New(1, 20)
	daysPerYear    = decimal.NewFromInt(365)
)

// PreviousDayStart returns the unix start of the UTC day before now.
func PreviousDayStart(now time.Time) int64 {
	ts := now.Unix()
	return ts - ts%secondsPerDay - secondsPerDay
}

// PoolAPR annualizes one day of fee income over tvl. A zero tvl is returned
// as-is.
func PoolAPR(fees subgraph.PoolFees, tvl decimal.Decimal) decimal.Decimal {
	if tvl.IsZero() {
		return tvl
	}
	lpShare := fees.SwapFee.Mul(feeDenominator.Sub(fees.AdminFee))
	yearly := fees.Volume.Mul(lpShare).Mul(daysPerYear)
	return fixed.Div(fixed.Div(yearly, aprDenominator), tvl)
}

func (e *Engine) computeAPR(ctx context.Context) (model.APR, error) {
	base, err := e.reg.BasePool()
	if err != nil {
		return model.APR{}, err
	}
	meta, err := e.reg.MetaPool()
	if err != nil {
		return model.APR{}, err
	}
	tvl, err := e.computeTVL(ctx)
	if err != nil {
		return model.APR{}, err
	}

	dayStart := PreviousDayStart(e.now())
	summary, err := e.indexer.APRSummary(ctx, e.reg.PoolAddresses(), dayStart)
	if err != nil {
		e.logger.Warn("apr summary query failed", zap.Int64("dayStart", dayStart), zap.Error(err))
		return model.APR{}, err
	}
	baseFees, err := summary.Fees(strings.ToLower(base.Address), dayStart)
	if err != nil {
		return model.APR{}, err
	}
	metaFees, err := summary.Fees(strings.ToLower(meta.Address), dayStart)
	if err != nil {
		return model.APR{}, err
	}

	apr := model.APR{
		BasePoolAPR: PoolAPR(baseFees, tvl.BasePoolTVL),
		MetaPoolAPR: PoolAPR(metaFees, tvl.MetaPoolTVL),
	}
	telemetry.PublishedAPR.WithLabelValues("base").Set(apr.BasePoolAPR.InexactFloat64())
	telemetry.PublishedAPR.WithLabelValues("meta").Set(apr.MetaPoolAPR.InexactFloat64())
	e.logger.Debug("apr computed",
		zap.String("chain", e.reg.ChainID()),
		zap.Int64("dayStart", dayStart),
		zap.String("base", apr.BasePoolAPR.String()),
		zap.String("meta", apr.MetaPoolAPR.String()),
	)
	return apr, nil
}
