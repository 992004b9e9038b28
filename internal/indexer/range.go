package indexer

import (
	"fmt"

	"conditionScope/internal/model"
)

// DefaultRangeWidth bounds a single log query, in blocks.
const DefaultRangeWidth uint64 = 200000

// Chunk splits [from, latest] into contiguous ranges spanning at most width
// blocks past their start. Each range after the first begins one block after
// the previous end. It returns no ranges when from >= latest.
func Chunk(from, latest, width uint64) ([]model.BlockRange, error) {
	if width == 0 {
		return nil, fmt.Errorf("range width must be greater than zero: %w", ErrInvalidConfig)
	}

	ranges := make([]model.BlockRange, 0)
	if from >= latest {
		return ranges, nil
	}

	start := from
	for {
		end := latest
		if latest-start > width {
			end = start + width
		}
		ranges = append(ranges, model.BlockRange{From: start, To: end})
		if end >= latest {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
