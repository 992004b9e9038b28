package model

import "math/big"

// ConditionRecord is the on-chain condition state at read time.
type ConditionRecord struct {
	State            ConditionState
	ScopeID          uint64
	TimestampSeconds uint64
	FundBank         [2]*big.Int
	Margin           *big.Int
	Outcomes         []uint64
	IPFSHashHex      string
}
