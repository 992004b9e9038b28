package model

// GameData groups the parent game fields of a condition.
type GameData struct {
	ID          uint64         `json:"id"`
	State       ConditionState `json:"state"`
	StartsAt    int64          `json:"starts_at"`
	IPFSHashHex string         `json:"ipfs_hash_hex"`
}

// Condition is the synced view of an actionable condition.
type Condition struct {
	ID       uint64     `json:"id"`
	Odds     [2]float64 `json:"odds"`
	Outcomes []uint64   `json:"outcomes"`
	GameData GameData   `json:"game_data"`
}

// SyncResult is the output of one sync run.
type SyncResult struct {
	Conditions  []Condition `json:"conditions"`
	LatestBlock *uint64     `json:"latest_block,omitempty"`
}
