package indexer

import (
	"errors"
	"fmt"

	"conditionScope/internal/model"
)

// ErrInvalidConfig marks settings rejected before any chain access.
var ErrInvalidConfig = errors.New("invalid configuration")

// RangeFetchError reports a failed event query. It aborts the whole sync.
type RangeFetchError struct {
	Range model.BlockRange
	Err   error
}

func (e *RangeFetchError) Error() string {
	if e.Range.Open() {
		return fmt.Sprintf("fetch events from %d: %v", e.Range.From, e.Err)
	}
	return fmt.Sprintf("fetch events %d-%d: %v", e.Range.From, e.Range.To, e.Err)
}

func (e *RangeFetchError) Unwrap() error { return e.Err }

// EnrichmentError reports a single condition that could not be enriched.
type EnrichmentError struct {
	ConditionID uint64
	BlockNumber uint64
	Err         error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich condition %d (block %d): %v", e.ConditionID, e.BlockNumber, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }
