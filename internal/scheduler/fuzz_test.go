package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuzzedIntervalRange(t *testing.T) {
	cases := []struct {
		name     string
		interval int
		wantLo   int
		wantHi   int
	}{
		{"one day is never fuzzed", 1, 1, 1},
		{"two days may become three", 2, 2, 3},
		{"short intervals get at least one day", 3, 2, 4},
		{"under a week uses a quarter", 6, 5, 7},
		{"under a month uses fifteen percent", 10, 8, 12},
		{"long intervals use five percent", 100, 95, 105},
		{"the long floor is four days", 30, 26, 34},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := FuzzedIntervalRange(tc.interval)
			assert.Equal(t, tc.wantLo, lo)
			assert.Equal(t, tc.wantHi, hi)
		})
	}
}

func TestFuzzedInterval_StaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, ivl := range []int{1, 2, 5, 14, 60, 365} {
		lo, hi := FuzzedIntervalRange(ivl)
		for i := 0; i < 200; i++ {
			got := fuzzedInterval(ivl, rng)
			require.GreaterOrEqual(t, got, lo, "interval %d draw %d", ivl, i)
			require.LessOrEqual(t, got, hi, "interval %d draw %d", ivl, i)
		}
	}
}

func TestDeterministicShuffle_SameSeedSameOrder(t *testing.T) {
	a := make([]int64, 32)
	b := make([]int64, 32)
	for i := range a {
		a[i] = int64(i)
		b[i] = int64(i)
	}
	DeterministicShuffle(a, 7)
	DeterministicShuffle(b, 7)
	assert.Equal(t, a, b)
}

func TestDeterministicShuffle_IsAPermutation(t *testing.T) {
	ids := make([]int64, 32)
	for i := range ids {
		ids[i] = int64(i)
	}
	DeterministicShuffle(ids, 3)

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 32, "no element may be lost or duplicated")
}

func TestDeterministicShuffle_SeedChangesOrder(t *testing.T) {
	a := make([]int64, 32)
	b := make([]int64, 32)
	for i := range a {
		a[i] = int64(i)
		b[i] = int64(i)
	}
	DeterministicShuffle(a, 1)
	DeterministicShuffle(b, 2)
	assert.NotEqual(t, a, b, "different days should see different orders")
}
