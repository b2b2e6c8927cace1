package calculation

import (
	"math/rand/v2"
	"time"
)

// nowFunc returns the current time (override in tests for determinism).
var nowFunc = time.Now

// SetNowFunc overrides the time provider (use only in tests).
func SetNowFunc(f func() time.Time) { nowFunc = f }

// seedFunc returns a seed for callers that did not supply one.
var seedFunc = func() int64 { return time.Now().UnixNano() }

// SetSeedFunc overrides the seed provider (use only in tests).
func SetSeedFunc(f func() int64) { seedFunc = f }

// RandomSeed returns a fresh base seed. The value must be echoed back to the
// caller so the run can be replayed.
func RandomSeed() int64 { return seedFunc() }

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// PathSeed mixes the base seed and path index into the two PCG seed words.
// Neighbouring indices produce unrelated streams.
func PathSeed(baseSeed int64, pathIndex int) (uint64, uint64) {
	h := splitmix64(uint64(baseSeed))
	s1 := splitmix64(h ^ splitmix64(uint64(pathIndex)))
	s2 := splitmix64(s1 ^ 0x632be59bd9b4e019)
	return s1, s2
}

// NewPathRand returns the private random stream for one path.
func NewPathRand(baseSeed int64, pathIndex int) *rand.Rand {
	s1, s2 := PathSeed(baseSeed, pathIndex)
	return rand.New(rand.NewPCG(s1, s2))
}
