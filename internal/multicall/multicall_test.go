package multicall

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"libraStats/internal/dex"
)

type stubContract struct {
	abi     abi.ABI
	respond func(method string, args []interface{}) []interface{}
}

// stubChain decodes real aggregate calldata and answers each inner call.
type stubChain struct {
	contracts map[common.Address]stubContract
	err       error
	calls     int
}

func (s *stubChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	mc, err := dex.MulticallABI()
	if err != nil {
		return nil, err
	}
	method, err := mc.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	calls := *abi.ConvertType(args[0], new([]aggregateCall)).(*[]aggregateCall)

	returnData := make([][]byte, 0, len(calls))
	for _, call := range calls {
		contract, ok := s.contracts[call.Target]
		if !ok {
			return nil, fmt.Errorf("no contract at %s", call.Target.Hex())
		}
		inner, err := contract.abi.MethodById(call.CallData[:4])
		if err != nil {
			return nil, err
		}
		innerArgs, err := inner.Inputs.Unpack(call.CallData[4:])
		if err != nil {
			return nil, err
		}
		out, err := inner.Outputs.Pack(contract.respond(inner.Name, innerArgs)...)
		if err != nil {
			return nil, err
		}
		returnData = append(returnData, out)
	}
	return mc.Methods["aggregate"].Outputs.Pack(big.NewInt(123), returnData)
}

var (
	pairAddr   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	oracleAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenAddr  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	chefAddr   = common.HexToAddress("0x4444444444444444444444444444444444444444")
	mcAddr     = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

func newStubChain(t *testing.T) *stubChain {
	t.Helper()
	pair, err := dex.PairABI()
	if err != nil {
		t.Fatalf("pair abi: %v", err)
	}
	oracle, err := dex.OracleABI()
	if err != nil {
		t.Fatalf("oracle abi: %v", err)
	}
	erc20, err := dex.ERC20ABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}

	return &stubChain{contracts: map[common.Address]stubContract{
		pairAddr: {abi: pair, respond: func(method string, _ []interface{}) []interface{} {
			if method == "token0" {
				return []interface{}{tokenAddr}
			}
			return []interface{}{big.NewInt(1000), big.NewInt(2500), uint32(1)}
		}},
		oracleAddr: {abi: oracle, respond: func(string, []interface{}) []interface{} {
			return []interface{}{big.NewInt(100000000), uint8(8)}
		}},
		tokenAddr: {abi: erc20, respond: func(method string, args []interface{}) []interface{} {
			if method == "totalSupply" {
				return []interface{}{big.NewInt(1_000_000)}
			}
			owner := args[0].(common.Address)
			if owner == chefAddr {
				return []interface{}{big.NewInt(200_000)}
			}
			return []interface{}{big.NewInt(0)}
		}},
	}}
}

func TestReaderReadKeysByLabel(t *testing.T) {
	stub := newStubChain(t)
	pair, _ := dex.PairABI()
	oracle, _ := dex.OracleABI()
	erc20, _ := dex.ERC20ABI()

	reader := NewReader(stub, mcAddr, nil)
	results, err := reader.Read(context.Background(), []Call{
		{Label: "latestPrice", Target: oracleAddr, ABI: oracle, Method: "getLatestPrice"},
		{Label: "token0", Target: pairAddr, ABI: pair, Method: "token0"},
		{Label: "getReserves", Target: pairAddr, ABI: pair, Method: "getReserves"},
		{Label: "totalSupply", Target: tokenAddr, ABI: erc20, Method: "totalSupply"},
		{Label: chefAddr.Hex(), Target: tokenAddr, ABI: erc20, Method: "balanceOf", Args: []interface{}{chefAddr}},
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected one round trip, got %d", stub.calls)
	}

	token0, err := results.Address("token0")
	if err != nil || token0 != tokenAddr {
		t.Fatalf("token0 mismatch: %s %v", token0.Hex(), err)
	}
	r1, err := results.BigInt("getReserves", 1)
	if err != nil || r1.Int64() != 2500 {
		t.Fatalf("reserve1 mismatch: %v %v", r1, err)
	}
	decimals, err := results.BigInt("latestPrice", 1)
	if err != nil || decimals.Int64() != 8 {
		t.Fatalf("oracle decimals mismatch: %v %v", decimals, err)
	}
	locked, err := results.BigInt(chefAddr.Hex(), 0)
	if err != nil || locked.Int64() != 200_000 {
		t.Fatalf("locked mismatch: %v %v", locked, err)
	}
}

func TestReaderRejectsDuplicateLabels(t *testing.T) {
	stub := newStubChain(t)
	pair, _ := dex.PairABI()

	reader := NewReader(stub, mcAddr, nil)
	_, err := reader.Read(context.Background(), []Call{
		{Label: "token0", Target: pairAddr, ABI: pair, Method: "token0"},
		{Label: "token0", Target: pairAddr, ABI: pair, Method: "getReserves"},
	})
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("expected duplicate label error, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("no round trip expected, got %d", stub.calls)
	}
}

func TestReaderPropagatesTransportError(t *testing.T) {
	stub := newStubChain(t)
	stub.err = errors.New("connection reset")
	pair, _ := dex.PairABI()

	reader := NewReader(stub, mcAddr, nil)
	_, err := reader.Read(context.Background(), []Call{
		{Label: "token0", Target: pairAddr, ABI: pair, Method: "token0"},
	})
	if !errors.Is(err, stub.err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", stub.calls)
	}
}

func TestResultsMissingLabel(t *testing.T) {
	results := Results{"present": {big.NewInt(1)}}
	if _, err := results.BigInt("absent", 0); !errors.Is(err, ErrMissingResult) {
		t.Fatalf("expected missing result, got %v", err)
	}
	if _, err := results.BigInt("present", 1); err == nil {
		t.Fatalf("expected short result error")
	}
	if _, err := results.Address("present"); err == nil {
		t.Fatalf("expected type error for address")
	}
}
