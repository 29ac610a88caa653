package model

// RootNetUID is the reserved network identifier of the root allocation.
const RootNetUID = 0

// Allocation identifies a stake position: a network and the validator it is
// delegated to.
type Allocation struct {
	NetUID    int    `json:"netuid"`
	Validator string `json:"validator"`
}

// SubnetConfig describes one subnet the bot participates in: how much to
// stake per scheduled cycle and which validator receives it. The set of
// subnets is fixed for the process lifetime.
type SubnetConfig struct {
	NetUID    int     `yaml:"netuid" json:"netuid"`
	Amount    float64 `yaml:"amount" json:"amount"`
	Validator string  `yaml:"validator" json:"validator"`
}

// Allocation returns the stake position this subnet config points at.
func (s SubnetConfig) Allocation() Allocation {
	return Allocation{NetUID: s.NetUID, Validator: s.Validator}
}

// TotalRequired sums the per-cycle stake amounts of a subnet set.
func TotalRequired(subnets []SubnetConfig) float64 {
	var total float64
	for _, s := range subnets {
		total += s.Amount
	}
	return total
}
