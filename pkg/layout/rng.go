package layout

// RandState is the mutable state of the combined Tausworthe generator used
// for negative sampling. The three words are kept inside 32 bits; the
// sequence is fully determined by the initial state, which makes runs
// reproducible when the state is seeded identically.
type RandState [3]int64

// Minimum seed values for the three Tausworthe components. Words below
// these thresholds collapse the corresponding LFSR to a short cycle.
const (
	tausMin0 = 2
	tausMin1 = 8
	tausMin2 = 16
)

// NewRandState creates a generator state from a single seed.
// The seed is expanded with a splitmix-style mixer so nearby seeds produce
// unrelated states.
func NewRandState(seed int64) *RandState {
	var s RandState
	x := uint64(seed)
	for i := range s {
		x += 0x9E3779B97F4A7C15
		z := x
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z ^= z >> 31
		s[i] = int64(z & 0xffffffff)
	}
	s.clampMin()
	return &s
}

// Fork derives an independent substream for worker i. Forked streams are
// deterministic functions of the parent state and i, so a parallel run with
// a fixed worker count is itself reproducible.
func (s *RandState) Fork(i int) *RandState {
	return NewRandState(s[0]<<21 ^ s[1]<<9 ^ s[2] ^ int64(i)*0x9E3779B9)
}

// Next advances the generator and returns the next value in [0, 2^32).
func (s *RandState) Next() int64 {
	s[0] = (((s[0] & 4294967294) << 12) & 0xffffffff) ^ ((((s[0] << 13) & 0xffffffff) ^ s[0]) >> 19)
	s[1] = (((s[1] & 4294967288) << 4) & 0xffffffff) ^ ((((s[1] << 2) & 0xffffffff) ^ s[1]) >> 25)
	s[2] = (((s[2] & 4294967280) << 17) & 0xffffffff) ^ ((((s[2] << 3) & 0xffffffff) ^ s[2]) >> 11)
	return s[0] ^ s[1] ^ s[2]
}

// Intn returns a value in [0, n). n must be positive.
func (s *RandState) Intn(n int) int {
	return int(s.Next() % int64(n))
}

func (s *RandState) clampMin() {
	if s[0] < tausMin0 {
		s[0] += tausMin0
	}
	if s[1] < tausMin1 {
		s[1] += tausMin1
	}
	if s[2] < tausMin2 {
		s[2] += tausMin2
	}
}
