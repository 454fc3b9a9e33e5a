package feed

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"

	"github.com/murmuration-labs/murmur/internal/model"
)

// Shuffled produces a deterministic pseudo-random ordering keyed by
// (run seed, turn, agent handle). The same run configuration always yields
// the same shuffle; different agents and turns see different orders.
type Shuffled struct{}

func (Shuffled) Info() Info {
	return Info{
		ID:          "shuffled",
		Name:        "Shuffled",
		Description: "Seeded pseudo-random order per (turn, agent).",
	}
}

func (Shuffled) Rank(fc Context, candidates []model.Post, limit int) []string {
	// Canonicalize before shuffling so insertion order can't leak through.
	uris := make([]string, len(candidates))
	for i, p := range candidates {
		uris[i] = p.URI
	}
	sort.Strings(uris)

	rng := rand.New(rand.NewPCG(uint64(fc.Seed), SubSeed(fc.Turn, fc.Agent.Handle)))
	rng.Shuffle(len(uris), func(i, j int) {
		uris[i], uris[j] = uris[j], uris[i]
	})
	return truncate(uris, limit)
}

// SubSeed derives a stable 64-bit stream id from a turn number and agent
// handle, used to split one run seed into independent deterministic streams.
func SubSeed(turn int, handle string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(handle))
	return h.Sum64() ^ uint64(turn)*0x9e3779b97f4a7c15
}
