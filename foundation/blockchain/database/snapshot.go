package database

// Snapshot is the portable form of a ledger: the chain, the projected
// products keyed by id and the transactions still waiting to be mined.
type Snapshot struct {
	Chain    []Block            `json:"chain"`
	Products map[string]Product `json:"products"`
	Pending  []Tx               `json:"pendingTransactions"`
}
