package model

import "github.com/shopspring/decimal"

// MetricKind names one of the published metrics. It doubles as the memo key.
type MetricKind string

const (
	KindMarketCap MetricKind = "marketCap"
	KindTVL       MetricKind = "tvl"
	KindAPR       MetricKind = "apr"
)

// PairPrice is the result of pricing a token against an AMM pair.
// Ratio is the raw opposite/own reserve ratio, independent of any oracle.
type PairPrice struct {
	Price decimal.Decimal `json:"price"`
	Ratio decimal.Decimal `json:"ratio"`
}

// MarketCap holds circulating market cap figures. TotalSupply and Locked are
// unscaled token units; Price and MarketCap are USD floored to 8 places.
type MarketCap struct {
	TotalSupply decimal.Decimal `json:"totalSupply"`
	Locked      decimal.Decimal `json:"locked"`
	Price       decimal.Decimal `json:"price"`
	MarketCap   decimal.Decimal `json:"marketCap"`
}

// TVL holds USD value locked per source. Total is the exact sum of the parts.
type TVL struct {
	Total          decimal.Decimal `json:"total"`
	BasePoolTVL    decimal.Decimal `json:"basePoolTVL"`
	MetaPoolTVL    decimal.Decimal `json:"metaPoolTVL"`
	LockedValueTVL decimal.Decimal `json:"lockedValueTVL"`
}

// APR holds annualized fee yield per pool as a fraction (0.05 == 5%).
type APR struct {
	BasePoolAPR decimal.Decimal `json:"basePoolAPR"`
	MetaPoolAPR decimal.Decimal `json:"metaPoolAPR"`
}
