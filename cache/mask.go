package cache

import "math/bits"

// maskInfo holds the derived, immutable address-decomposition constants
// for one cache: how many low bits are block offset, how many next bits
// are the row index, and the shift amounts needed to reconstruct an
// address from a (tag, row) pair.
type maskInfo struct {
	blockOffsetBits uint
	rowBits         uint
	rowShift        uint // == blockOffsetBits
	tagShift        uint // == blockOffsetBits + rowBits
	rowMask         uint64
}

// isPowerOfTwo reports whether n is a power of two (n > 0).
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// log2Exact returns log2(n), assuming n is already known to be a
// power of two greater than zero.
func log2Exact(n int) uint {
	return uint(bits.TrailingZeros(uint(n)))
}

// newMaskInfo derives the mask info for a cache with the given number
// of rows and block size. Both must already be validated as powers of
// two by the caller.
func newMaskInfo(rows, blockSize int) maskInfo {
	blockOffsetBits := log2Exact(blockSize)
	rowBits := log2Exact(rows)

	return maskInfo{
		blockOffsetBits: blockOffsetBits,
		rowBits:         rowBits,
		rowShift:        blockOffsetBits,
		tagShift:        blockOffsetBits + rowBits,
		rowMask:         uint64(rows) - 1,
	}
}

// decompose splits addr into (tag, row) according to m. The offset
// bits are discarded; callers that need byte-exact block addresses
// reconstruct them separately via Cache.GetAddr.
func (m maskInfo) decompose(addr uint64) (tag uint64, row int) {
	row = int((addr >> m.rowShift) & m.rowMask)
	tag = addr >> m.tagShift

	return tag, row
}

// addrOf reconstructs the effective address of the block resident at
// (tag, row), with the offset bits zeroed.
func (m maskInfo) addrOf(tag uint64, row int) uint64 {
	return (tag << m.tagShift) | (uint64(row) << m.rowShift)
}
