package multicall

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Results maps a call label to its decoded return values.
type Results map[string][]interface{}

// Values returns the decoded outputs of label, requiring at least n of them.
func (r Results) Values(label string, n int) ([]interface{}, error) {
	values, ok := r[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingResult, label)
	}
	if len(values) < n {
		return nil, fmt.Errorf("%s: return size %d, want %d", label, len(values), n)
	}
	return values, nil
}

// BigInt returns output index of label as an integer.
func (r Results) BigInt(label string, index int) (*big.Int, error) {
	values, err := r.Values(label, index+1)
	if err != nil {
		return nil, err
	}
	v, err := asBigInt(values[index])
	if err != nil {
		return nil, fmt.Errorf("%s[%d]: %w", label, index, err)
	}
	return v, nil
}

// Address returns the first output of label as an address.
func (r Results) Address(label string) (common.Address, error) {
	values, err := r.Values(label, 1)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", label, err)
	}
	return addr, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
