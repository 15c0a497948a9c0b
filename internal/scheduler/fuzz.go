package scheduler

import "math/rand"

// FuzzedIntervalRange returns the inclusive [low, high] bounds a computed
// review interval may be nudged within. Short intervals get no or little
// fuzz; longer ones get a small percentage, floored at one day, so cards
// introduced together drift apart over time.
func FuzzedIntervalRange(interval int) (int, int) {
	var fuzz int
	switch {
	case interval < 2:
		return 1, 1
	case interval == 2:
		return 2, 3
	case interval < 7:
		fuzz = int(float64(interval) * 0.25)
	case interval < 30:
		fuzz = maxInt(2, int(float64(interval)*0.15))
	default:
		fuzz = maxInt(4, int(float64(interval)*0.05))
	}
	fuzz = maxInt(fuzz, 1)
	return interval - fuzz, interval + fuzz
}

// fuzzedInterval picks an interval within the fuzz range using the given
// source.
func fuzzedInterval(interval int, rng *rand.Rand) int {
	lo, hi := FuzzedIntervalRange(interval)
	if lo == hi {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// DeterministicShuffle permutes ids in place with a Fisher-Yates shuffle
// seeded from seed. The same seed always yields the same permutation, so
// review order is reproducible within a day and varies across days. The
// contract is a uniform permutation, not bit parity with any particular
// RNG.
func DeterministicShuffle(ids []int64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := len(ids) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
