package indexer

import (
	"errors"
	"reflect"
	"testing"

	"conditionScope/internal/model"
)

func TestChunk(t *testing.T) {
	got, err := Chunk(100, 200, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.BlockRange{
		{From: 100, To: 150},
		{From: 151, To: 200},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestChunkSingle(t *testing.T) {
	got, err := Chunk(100, 120, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.BlockRange{{From: 100, To: 120}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}

	got, err = Chunk(100, 150, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = []model.BlockRange{{From: 100, To: 150}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch at exact width: %+v != %+v", got, want)
	}
}

func TestChunkEmpty(t *testing.T) {
	for _, tc := range []struct{ from, latest uint64 }{{5, 5}, {10, 9}} {
		got, err := Chunk(tc.from, tc.latest, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no ranges for %d..%d, got %+v", tc.from, tc.latest, got)
		}
	}
}

func TestChunkCoversEveryBlockOnce(t *testing.T) {
	cases := []struct{ from, latest, width uint64 }{
		{0, 1, 1},
		{0, 10, 1},
		{7, 1000, 3},
		{100, 101, 200000},
		{1, 999, 998},
		{1, 1000, 998},
		{42, 4242, 100},
	}
	for _, tc := range cases {
		ranges, err := Chunk(tc.from, tc.latest, tc.width)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ranges) == 0 || ranges[0].From != tc.from || ranges[len(ranges)-1].To != tc.latest {
			t.Fatalf("bounds mismatch for %+v: %+v", tc, ranges)
		}

		next := tc.from
		for _, r := range ranges {
			if r.From != next {
				t.Fatalf("gap or overlap for %+v at %+v", tc, r)
			}
			if r.To < r.From || r.To-r.From > tc.width {
				t.Fatalf("range too wide for %+v: %+v", tc, r)
			}
			next = r.To + 1
		}
	}
}

func TestChunkNearMaxUint64(t *testing.T) {
	latest := model.LatestBlock - 1
	ranges, err := Chunk(latest-10, latest, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ranges[len(ranges)-1].To != latest {
		t.Fatalf("last range mismatch: %+v", ranges)
	}
}

func TestChunkInvalidWidth(t *testing.T) {
	if _, err := Chunk(1, 10, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
