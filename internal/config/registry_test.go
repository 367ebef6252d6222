package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"libraStats/internal/model"
)

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := LoadRegistry("testdata", "97")
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

func TestLoadRegistry(t *testing.T) {
	reg := loadTestRegistry(t)

	if reg.ChainID() != "97" {
		t.Fatalf("chain id = %s", reg.ChainID())
	}
	if !model.SameAddress(reg.MultiCall(), "0x000000000000000000000000000000000000a001") {
		t.Fatalf("multicall = %s", reg.MultiCall())
	}

	usdc, err := reg.Token("usdc")
	if err != nil {
		t.Fatalf("token lookup: %v", err)
	}
	if usdc.Decimals != 6 || usdc.Symbol != "USDC" {
		t.Fatalf("usdc mismatch: %+v", usdc)
	}

	helper, err := reg.PriceHelper("lbr")
	if err != nil {
		t.Fatalf("price helper: %v", err)
	}
	if helper.Another != "WBNB" {
		t.Fatalf("helper counter asset = %s", helper.Another)
	}

	base, err := reg.BasePool()
	if err != nil {
		t.Fatalf("base pool: %v", err)
	}
	if !reflect.DeepEqual(base.Tokens, []string{"BUSD", "USDT", "USDC"}) {
		t.Fatalf("base tokens = %v", base.Tokens)
	}

	sym := reg.Symbols()
	if sym != defaultSymbols {
		t.Fatalf("symbols = %+v", sym)
	}
}

func TestRegistryLockedAddressesAreDistinct(t *testing.T) {
	reg := loadTestRegistry(t)

	want := []common.Address{
		common.HexToAddress("0x000000000000000000000000000000000000F001"),
		common.HexToAddress("0x000000000000000000000000000000000000F002"),
	}
	if got := reg.LockedAddresses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("locked addresses = %v, want %v", got, want)
	}
}

func TestRegistryPoolAddresses(t *testing.T) {
	reg := loadTestRegistry(t)

	want := []string{
		"0x000000000000000000000000000000000000b001",
		"0x000000000000000000000000000000000000b002",
	}
	if got := reg.PoolAddresses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("pool addresses = %v", got)
	}
}

func TestRegistryBasePoolIsCopied(t *testing.T) {
	reg := loadTestRegistry(t)

	base, _ := reg.BasePool()
	base.Tokens[0] = "MUTATED"

	again, _ := reg.BasePool()
	if again.Tokens[0] != "BUSD" {
		t.Fatalf("registry was mutated through returned pool")
	}
}

func TestRegistryMissingLookups(t *testing.T) {
	reg := loadTestRegistry(t)

	if _, err := reg.Token("DOGE"); !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("token: expected ErrMissingConfig, got %v", err)
	}
	if _, err := reg.Oracle("LBR"); !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("oracle: expected ErrMissingConfig, got %v", err)
	}
	if _, err := reg.PriceHelper("BUSD"); !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("helper: expected ErrMissingConfig, got %v", err)
	}
}

func TestNewRegistryFailsFast(t *testing.T) {
	tokens := []model.Token{
		{Address: "0x000000000000000000000000000000000000C001", Decimals: 18, Symbol: "BUSD"},
		{Address: "0x000000000000000000000000000000000000C004", Decimals: 18, Symbol: "USDm"},
		{Address: "0x000000000000000000000000000000000000C005", Decimals: 18, Symbol: "LBR"},
	}
	file := RegistryFile{
		MultiCall: "0x000000000000000000000000000000000000A001",
		BasePools: []model.Pool{{Address: "0x000000000000000000000000000000000000B001", Tokens: []string{"BUSD"}}},
		MetaPools: []model.Pool{{Address: "0x000000000000000000000000000000000000B002", Tokens: []string{"USDm"}}},
		Farms:     []model.Farm{{Alias: "x", MasterChefAddress: "0x000000000000000000000000000000000000F001"}},
		PriceHelpers: []model.PriceHelper{
			{Token: "LBR", Pair: "0x000000000000000000000000000000000000E001", Another: "WBNB"},
			{Token: "USDm", Pair: "0x000000000000000000000000000000000000E002", Another: "BUSD"},
		},
		Oracles: []model.OracleEntry{
			{Token: "BUSD", Address: "0x000000000000000000000000000000000000D001"},
		},
	}

	_, err := NewRegistry("1", file, tokens)
	if !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("expected ErrMissingConfig for missing WBNB oracle, got %v", err)
	}

	file.Oracles = append(file.Oracles, model.OracleEntry{Token: "WBNB", Address: "0x000000000000000000000000000000000000D004"})
	if _, err := NewRegistry("1", file, tokens); err != nil {
		t.Fatalf("complete registry rejected: %v", err)
	}

	file.Farms = append(file.Farms, model.Farm{Alias: "vault", MasterChefAddress: "0xF002"})
	if _, err := NewRegistry("1", file, tokens); err == nil || !strings.Contains(err.Error(), "farm vault") {
		t.Fatalf("expected invalid address error for a later farm, got %v", err)
	}
	file.Farms = file.Farms[:1]

	file.MultiCall = "not-an-address"
	if _, err := NewRegistry("1", file, tokens); err == nil {
		t.Fatalf("expected invalid multicall address error")
	}
}

func TestRegistryTokensSorted(t *testing.T) {
	reg := loadTestRegistry(t)
	var symbols []string
	for _, token := range reg.Tokens() {
		symbols = append(symbols, token.Symbol)
	}
	want := []string{"BUSD", "LBR", "USDC", "USDm", "USDT", "WBNB"}
	if !reflect.DeepEqual(symbols, want) {
		t.Fatalf("symbols = %v", symbols)
	}
}
