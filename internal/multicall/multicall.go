// Package multicall batches read-only contract calls into one eth_call
// against a Multicall contract and decodes each return value by label.
package multicall

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"libraStats/internal/dex"
)

var (
	ErrDuplicateLabel = errors.New("duplicate call label")
	ErrMissingResult  = errors.New("missing call result")
)

// Caller performs a single eth_call. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Call describes one contract read. Label keys the decoded result and must be
// unique within a batch.
type Call struct {
	Label  string
	Target common.Address
	ABI    abi.ABI
	Method string
	Args   []interface{}
}

type aggregateCall struct {
	Target   common.Address
	CallData []byte
}

// Reader issues batched reads through a Multicall contract.
type Reader struct {
	caller  Caller
	address common.Address
	logger  *zap.Logger
}

// NewReader builds a Reader for the Multicall contract at address.
func NewReader(caller Caller, address common.Address, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{caller: caller, address: address, logger: logger}
}

// Read packs calls into one aggregate round trip and returns the decoded
// outputs keyed by label. Any failure fails the whole batch.
func (r *Reader) Read(ctx context.Context, calls []Call) (Results, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("multicall caller is nil")
	}
	if len(calls) == 0 {
		return Results{}, nil
	}

	mc, err := dex.MulticallABI()
	if err != nil {
		return nil, fmt.Errorf("parse multicall abi: %w", err)
	}

	seen := make(map[string]struct{}, len(calls))
	packed := make([]aggregateCall, 0, len(calls))
	for _, call := range calls {
		if _, dup := seen[call.Label]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLabel, call.Label)
		}
		seen[call.Label] = struct{}{}

		data, err := call.ABI.Pack(call.Method, call.Args...)
		if err != nil {
			return nil, fmt.Errorf("pack %s (%s): %w", call.Method, call.Label, err)
		}
		packed = append(packed, aggregateCall{Target: call.Target, CallData: data})
	}

	input, err := mc.Pack("aggregate", packed)
	if err != nil {
		return nil, fmt.Errorf("pack aggregate: %w", err)
	}

	to := r.address
	resp, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		r.logger.Warn("multicall failed", zap.String("multicall", to.Hex()), zap.Int("calls", len(calls)), zap.Error(err))
		return nil, fmt.Errorf("call aggregate: %w", err)
	}

	out, err := mc.Unpack("aggregate", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack aggregate: %w", err)
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("aggregate return size %d", len(out))
	}
	returnData, ok := out[1].([][]byte)
	if !ok {
		return nil, fmt.Errorf("aggregate unexpected return type %T", out[1])
	}
	if len(returnData) != len(calls) {
		return nil, fmt.Errorf("aggregate returned %d results for %d calls", len(returnData), len(calls))
	}

	results := make(Results, len(calls))
	for i, call := range calls {
		values, err := call.ABI.Unpack(call.Method, returnData[i])
		if err != nil {
			return nil, fmt.Errorf("unpack %s (%s): %w", call.Method, call.Label, err)
		}
		results[call.Label] = values
	}

	if blockNumber, ok := out[0].(*big.Int); ok {
		r.logger.Debug("multicall complete", zap.Int("calls", len(calls)), zap.String("block", blockNumber.String()))
	}
	return results, nil
}
