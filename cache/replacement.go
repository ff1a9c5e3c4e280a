package cache

// ReplacePolicy selects the victim-selection strategy used when a row
// has no invalid slot left to fill.
type ReplacePolicy uint8

const (
	// RoundRobin cycles through the ways of a row in order, one
	// per-row cursor per row.
	RoundRobin ReplacePolicy = iota
	// Random selects a way using a single LCG seed shared across every
	// row in the cache, an intentional simplification over a per-row
	// random stream.
	Random
)

// randomMultiplier is the LCG multiplier used by the Random policy:
// seed = seed * randomMultiplier (mod 2^32). An alternative variant
// that rotates an extra slot every 13th replacement is not implemented
// here (see DESIGN.md).
const randomMultiplier uint32 = 48271

// replacementState is the tagged union of per-cache replacement state.
// Exactly one of the two fields is meaningful, selected by the owning
// Cache's ReplacePolicy; the two are never conflated.
type replacementState struct {
	policy ReplacePolicy

	// nextWay holds the ROUND_ROBIN per-row cursor, one entry per row.
	nextWay []int

	// lcgSeed holds the RANDOM policy's single shared seed.
	lcgSeed uint32
}

func newReplacementState(policy ReplacePolicy, rows int) replacementState {
	rs := replacementState{policy: policy}

	switch policy {
	case RoundRobin:
		rs.nextWay = make([]int, rows)
	case Random:
		rs.lcgSeed = 1
	}

	return rs
}

// victim returns the way index to evict within row, advancing whatever
// internal cursor/seed the policy uses.
func (rs *replacementState) victim(row, associativity int) int {
	switch rs.policy {
	case RoundRobin:
		way := rs.nextWay[row]
		rs.nextWay[row] = (way + 1) % associativity

		return way
	case Random:
		rs.lcgSeed = rs.lcgSeed * randomMultiplier

		return int(rs.lcgSeed % uint32(associativity))
	default:
		return 0
	}
}
