package ptable

import "math/bits"

// Bitset is a dense, growable bit vector used for column validity and row
// occupancy masks. None of this module's teacher or pack dependencies ship a
// bitset type (see DESIGN.md); it is the one component implemented directly
// on the standard library.
type Bitset struct {
	words []uint64
	n     int
}

// NewBitset returns a Bitset of n bits, all clear.
func NewBitset(n int) *Bitset {
	return &Bitset{words: make([]uint64, (n+63)/64), n: n}
}

func (b *Bitset) Len() int { return b.n }

func (b *Bitset) Set(i int) {
	b.words[i/64] |= 1 << uint(i%64)
}

func (b *Bitset) Clear(i int) {
	b.words[i/64] &^= 1 << uint(i%64)
}

func (b *Bitset) SetTo(i int, v bool) {
	if v {
		b.Set(i)
	} else {
		b.Clear(i)
	}
}

func (b *Bitset) Get(i int) bool {
	return b.words[i/64]&(1<<uint(i%64)) != 0
}

// Grow extends the bitset to n bits, preserving existing bits and clearing
// new ones.
func (b *Bitset) Grow(n int) {
	if n <= b.n {
		return
	}
	need := (n + 63) / 64
	if need > len(b.words) {
		nw := make([]uint64, need)
		copy(nw, b.words)
		b.words = nw
	}
	b.n = n
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// PrefixCount returns the number of set bits among indices [0, i).
func (b *Bitset) PrefixCount(i int) int {
	c := 0
	full := i / 64
	for w := 0; w < full; w++ {
		c += bits.OnesCount64(b.words[w])
	}
	if rem := i % 64; rem > 0 && full < len(b.words) {
		mask := uint64(1)<<uint(rem) - 1
		c += bits.OnesCount64(b.words[full] & mask)
	}
	return c
}

// Clone returns an independent copy.
func (b *Bitset) Clone() *Bitset {
	nw := make([]uint64, len(b.words))
	copy(nw, b.words)
	return &Bitset{words: nw, n: b.n}
}

// SetAll sets every bit in [0, n).
func (b *Bitset) SetAll() {
	for i := range b.words {
		b.words[i] = ^uint64(0)
	}
	if b.n%64 != 0 && len(b.words) > 0 {
		last := len(b.words) - 1
		b.words[last] &= uint64(1)<<uint(b.n%64) - 1
	}
}
