package model

import "strings"

// Token captures an ERC20 entry from the chain token list.
type Token struct {
	Address  string `json:"address" mapstructure:"address"`
	Decimals uint8  `json:"decimals" mapstructure:"decimals"`
	Symbol   string `json:"symbol" mapstructure:"symbol"`
	Name     string `json:"name" mapstructure:"name"`
}

// SameAddress reports whether two hex addresses refer to the same account,
// ignoring checksum casing.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
