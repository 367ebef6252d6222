package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"libraStats/internal/model"
)

// ErrMissingConfig marks a registry entry the metrics need but the active
// chain does not define.
var ErrMissingConfig = errors.New("missing configuration")

// Symbols names the tokens with a fixed role in the metrics.
type Symbols struct {
	Governance      string `mapstructure:"governance"`
	MetaStable      string `mapstructure:"metaStable"`
	ReferenceStable string `mapstructure:"referenceStable"`
	GasToken        string `mapstructure:"gasToken"`
}

var defaultSymbols = Symbols{
	Governance:      "LBR",
	MetaStable:      "USDm",
	ReferenceStable: "BUSD",
	GasToken:        "WBNB",
}

// RegistryFile mirrors <registry>/<chain>/config.json.
type RegistryFile struct {
	MultiCall    string              `mapstructure:"multiCall"`
	GraphQL      string              `mapstructure:"graphql"`
	BasePools    []model.Pool        `mapstructure:"basePools"`
	MetaPools    []model.Pool        `mapstructure:"metaPools"`
	Farms        []model.Farm        `mapstructure:"farms"`
	PriceHelpers []model.PriceHelper `mapstructure:"priceHelper"`
	Oracles      []model.OracleEntry `mapstructure:"oracles"`
	Symbols      Symbols             `mapstructure:"symbols"`
}

// Registry is the immutable static configuration of one chain.
type Registry struct {
	chainID string
	file    RegistryFile
	tokens  map[string]model.Token
}

// LoadRegistry reads config.json and tokenlist.json from dir/chainID.
func LoadRegistry(dir, chainID string) (*Registry, error) {
	base := filepath.Join(dir, chainID)

	cv := viper.New()
	cv.SetConfigFile(filepath.Join(base, "config.json"))
	if err := cv.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read registry config: %w", err)
	}
	var file RegistryFile
	if err := cv.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("decode registry config: %w", err)
	}

	tv := viper.New()
	tv.SetConfigFile(filepath.Join(base, "tokenlist.json"))
	if err := tv.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read token list: %w", err)
	}
	var tokens []model.Token
	if err := tv.UnmarshalKey("tokens", &tokens); err != nil {
		return nil, fmt.Errorf("decode token list: %w", err)
	}

	return NewRegistry(chainID, file, tokens)
}

// NewRegistry indexes tokens by lower-cased symbol and validates that every
// entry the metrics depend on is present.
func NewRegistry(chainID string, file RegistryFile, tokens []model.Token) (*Registry, error) {
	if file.Symbols.Governance == "" {
		file.Symbols.Governance = defaultSymbols.Governance
	}
	if file.Symbols.MetaStable == "" {
		file.Symbols.MetaStable = defaultSymbols.MetaStable
	}
	if file.Symbols.ReferenceStable == "" {
		file.Symbols.ReferenceStable = defaultSymbols.ReferenceStable
	}
	if file.Symbols.GasToken == "" {
		file.Symbols.GasToken = defaultSymbols.GasToken
	}

	index := make(map[string]model.Token, len(tokens))
	for _, token := range tokens {
		index[strings.ToLower(token.Symbol)] = token
	}

	r := &Registry{chainID: chainID, file: file, tokens: index}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("chain %s: %w", chainID, err)
	}
	return r, nil
}

// ChainID returns the chain the registry was loaded for.
func (r *Registry) ChainID() string { return r.chainID }

// MultiCall returns the Multicall contract address.
func (r *Registry) MultiCall() string { return r.file.MultiCall }

// GraphQL returns the subgraph endpoint.
func (r *Registry) GraphQL() string { return r.file.GraphQL }

// Symbols returns the role symbols after defaults are applied.
func (r *Registry) Symbols() Symbols { return r.file.Symbols }

// Token looks up a token by case-insensitive symbol.
func (r *Registry) Token(symbol string) (model.Token, error) {
	token, ok := r.tokens[strings.ToLower(symbol)]
	if !ok {
		return model.Token{}, fmt.Errorf("%w: token %s", ErrMissingConfig, symbol)
	}
	return token, nil
}

// Tokens returns every registry token ordered by symbol.
func (r *Registry) Tokens() []model.Token {
	tokens := lo.Values(r.tokens)
	sort.Slice(tokens, func(i, j int) bool {
		return strings.ToLower(tokens[i].Symbol) < strings.ToLower(tokens[j].Symbol)
	})
	return tokens
}

// PriceHelper returns the pair used to price symbol.
func (r *Registry) PriceHelper(symbol string) (model.PriceHelper, error) {
	helper, ok := lo.Find(r.file.PriceHelpers, func(h model.PriceHelper) bool {
		return strings.EqualFold(h.Token, symbol)
	})
	if !ok {
		return model.PriceHelper{}, fmt.Errorf("%w: price helper %s", ErrMissingConfig, symbol)
	}
	return helper, nil
}

// Oracle returns the USD price feed of symbol.
func (r *Registry) Oracle(symbol string) (model.OracleEntry, error) {
	oracle, ok := lo.Find(r.file.Oracles, func(o model.OracleEntry) bool {
		return strings.EqualFold(o.Token, symbol)
	})
	if !ok {
		return model.OracleEntry{}, fmt.Errorf("%w: oracle %s", ErrMissingConfig, symbol)
	}
	return oracle, nil
}

// BasePool returns the first base pool; only one is supported.
func (r *Registry) BasePool() (model.Pool, error) {
	if len(r.file.BasePools) == 0 {
		return model.Pool{}, fmt.Errorf("%w: base pool", ErrMissingConfig)
	}
	return clonePool(r.file.BasePools[0]), nil
}

// MetaPool returns the first meta pool; only one is supported.
func (r *Registry) MetaPool() (model.Pool, error) {
	if len(r.file.MetaPools) == 0 {
		return model.Pool{}, fmt.Errorf("%w: meta pool", ErrMissingConfig)
	}
	return clonePool(r.file.MetaPools[0]), nil
}

// PoolAddresses lists every base and meta pool address, lower-cased, base pools first.
func (r *Registry) PoolAddresses() []string {
	pools := append(append([]model.Pool{}, r.file.BasePools...), r.file.MetaPools...)
	return lo.Map(pools, func(p model.Pool, _ int) string {
		return strings.ToLower(p.Address)
	})
}

// Farm returns the first farm, whose staking contract holds the locked
// governance tokens counted in TVL.
func (r *Registry) Farm() (model.Farm, error) {
	if len(r.file.Farms) == 0 {
		return model.Farm{}, fmt.Errorf("%w: farm", ErrMissingConfig)
	}
	return r.file.Farms[0], nil
}

// LockedAddresses returns the distinct staking contract addresses across all farms.
func (r *Registry) LockedAddresses() []common.Address {
	addrs := lo.Map(r.file.Farms, func(f model.Farm, _ int) common.Address {
		return common.HexToAddress(f.MasterChefAddress)
	})
	return lo.Uniq(addrs)
}

// Validate reports every missing or malformed entry at once.
func (r *Registry) Validate() error {
	var errs []error
	missing := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrMissingConfig}, args...)...))
	}
	checkAddress := func(what, addr string) {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Errorf("%s: invalid address %q", what, addr))
		}
	}

	checkAddress("multicall", r.file.MultiCall)

	sym := r.file.Symbols
	for _, symbol := range []string{sym.Governance, sym.MetaStable} {
		if token, err := r.Token(symbol); err != nil {
			errs = append(errs, err)
		} else {
			checkAddress("token "+symbol, token.Address)
		}
	}

	if base, err := r.BasePool(); err != nil {
		errs = append(errs, err)
	} else {
		checkAddress("base pool", base.Address)
		if len(base.Tokens) == 0 {
			missing("base pool tokens")
		}
		for _, symbol := range base.Tokens {
			if _, err := r.Token(symbol); err != nil {
				errs = append(errs, err)
			}
			if oracle, err := r.Oracle(symbol); err != nil {
				errs = append(errs, err)
			} else {
				checkAddress("oracle "+symbol, oracle.Address)
			}
		}
		if !lo.ContainsBy(base.Tokens, func(s string) bool { return strings.EqualFold(s, sym.ReferenceStable) }) {
			missing("reference stable %s in base pool", sym.ReferenceStable)
		}
	}

	if meta, err := r.MetaPool(); err != nil {
		errs = append(errs, err)
	} else {
		checkAddress("meta pool", meta.Address)
	}

	if _, err := r.Farm(); err != nil {
		errs = append(errs, err)
	}
	for _, farm := range r.file.Farms {
		checkAddress("farm "+farm.Alias, farm.MasterChefAddress)
	}

	for _, symbol := range []string{sym.Governance, sym.MetaStable} {
		helper, err := r.PriceHelper(symbol)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		checkAddress("price helper "+symbol, helper.Pair)
	}
	if helper, err := r.PriceHelper(sym.Governance); err == nil {
		if oracle, err := r.Oracle(helper.Another); err != nil {
			errs = append(errs, err)
		} else {
			checkAddress("oracle "+helper.Another, oracle.Address)
		}
	}
	if oracle, err := r.Oracle(sym.GasToken); err != nil {
		errs = append(errs, err)
	} else {
		checkAddress("oracle "+sym.GasToken, oracle.Address)
	}

	return errors.Join(errs...)
}

func clonePool(p model.Pool) model.Pool {
	p.Tokens = append([]string(nil), p.Tokens...)
	return p
}
