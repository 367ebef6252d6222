package model

// Pool is a stable swap pool with its constituent token symbols in index order.
type Pool struct {
	Address string   `json:"address" mapstructure:"address"`
	Tokens  []string `json:"tokens" mapstructure:"tokens"`
}

// Farm is a staking farm; only MasterChefAddress is used when summing locked supply.
type Farm struct {
	Alias             string `json:"alias" mapstructure:"alias"`
	Address           string `json:"address" mapstructure:"address"`
	StakeToken        string `json:"stakeToken" mapstructure:"stakeToken"`
	EarnToken         string `json:"earnToken" mapstructure:"earnToken"`
	MasterChef        string `json:"masterChef" mapstructure:"masterChef"`
	MasterChefAddress string `json:"masterChefAddress" mapstructure:"masterChefAddress"`
}

// PriceHelper names the AMM pair and counter asset used to price Token.
type PriceHelper struct {
	Token   string `json:"token" mapstructure:"token"`
	Pair    string `json:"pair" mapstructure:"pair"`
	Another string `json:"another" mapstructure:"another"`
}

// OracleEntry maps a token symbol to its USD price feed contract.
type OracleEntry struct {
	Token   string `json:"token" mapstructure:"token"`
	Address string `json:"address" mapstructure:"address"`
}
