package epiabm

import (
	"hash/fnv"
	"math/rand"
)

// StreamID names an independently-seeded RNG stream. Draws from one
// stream never perturb another, and adding a new named stream never
// reorders draws already taken from existing ones — each stream's seed
// is derived only from the global seed and its own name.
type StreamID string

const (
	ForecastRng    StreamID = "forecast"
	ContactRng     StreamID = "contact"
	ProgressionRng StreamID = "progression"
	SettingRng     StreamID = "setting"
	SeedingRng     StreamID = "seeding"
	HospitalRng    StreamID = "hospitalization"
)

// RngStreams hands out a *rand.Rand per StreamID, lazily seeded by
// mixing the global seed with the FNV-1a hash of the stream's name.
type RngStreams struct {
	globalSeed uint64
	streams    map[StreamID]*rand.Rand
}

// NewRngStreams returns a stream registry rooted at globalSeed.
func NewRngStreams(globalSeed uint64) *RngStreams {
	return &RngStreams{globalSeed: globalSeed, streams: make(map[StreamID]*rand.Rand)}
}

// Stream returns the *rand.Rand for id, creating and deterministically
// seeding it on first use.
func (r *RngStreams) Stream(id StreamID) *rand.Rand {
	if rng, ok := r.streams[id]; ok {
		return rng
	}
	h := fnv.New64a()
	h.Write([]byte(id))
	mixed := r.globalSeed ^ h.Sum64()
	rng := rand.New(rand.NewSource(int64(mixed))) //nolint:gosec // simulation reproducibility, not security
	r.streams[id] = rng
	return rng
}
