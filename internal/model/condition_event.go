package model

import "math/big"

// ConditionCreatedEvent is a decoded ConditionCreated log.
type ConditionCreatedEvent struct {
	ConditionID       uint64   `json:"condition_id"`
	OracleConditionID *big.Int `json:"oracle_condition_id,omitempty"`
	Timestamp         uint64   `json:"timestamp"`
	BlockNumber       uint64   `json:"block_number"`
	TxHash            string   `json:"tx_hash"`
	TxIndex           uint64   `json:"tx_index"`
	LogIndex          uint64   `json:"log_index"`
}
