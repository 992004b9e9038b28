package model

import "math"

// LatestBlock marks an open upper bound resolved by the node at query time.
const LatestBlock uint64 = math.MaxUint64

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Open reports whether the range extends to the chain head.
func (r BlockRange) Open() bool {
	return r.To == LatestBlock
}
